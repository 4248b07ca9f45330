// Package gitrepo contains helpers for interrogating and manipulating Git repositories.
//
// It exposes RepositoryManager as the capability layer over the shell executor,
// covering remotes, fetching, checkout and reset, tags, submodule enumeration,
// and synthetic commit creation, along with remote address parsing and the
// deterministic address construction used when registering fallback remotes.
package gitrepo
