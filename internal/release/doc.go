// Package release records changelog commits that join two pinned repository
// states while preserving the later state's exact tree.
package release
