package gitrepo

import (
	"fmt"
	"strings"
)

const (
	sshProtocolPrefixConstant       = "ssh://"
	httpsProtocolPrefixConstant     = "https://"
	scpUserDelimiterConstant        = "@"
	scpPathDelimiterConstant        = ":"
	pathSeparatorConstant           = "/"
	gitSuffixConstant               = ".git"
	invalidRemoteURLMessageConstant = "invalid remote url"
	remoteURLErrorTemplateConstant  = "%s: %s"
)

// RemoteURL represents a structured git remote address.
type RemoteURL struct {
	Host       string
	Owner      string
	Repository string
}

// RemoteURLParseError indicates a remote string could not be parsed.
type RemoteURLParseError struct {
	Input string
}

// Error describes the parse failure.
func (parseError RemoteURLParseError) Error() string {
	return fmt.Sprintf(remoteURLErrorTemplateConstant, parseError.Input, invalidRemoteURLMessageConstant)
}

// ParseRemoteURL converts a textual remote address into a structured representation.
//
// The scp-style form git@host:owner/repository.git is the canonical shape for
// this tool; ssh:// and https:// forms are accepted for completeness.
func ParseRemoteURL(remote string) (RemoteURL, error) {
	trimmedRemote := strings.TrimSpace(remote)
	switch {
	case len(trimmedRemote) == 0:
		return RemoteURL{}, RemoteURLParseError{Input: remote}
	case strings.HasPrefix(trimmedRemote, sshProtocolPrefixConstant):
		return parseSlashRemote(remote, strings.TrimPrefix(trimmedRemote, sshProtocolPrefixConstant))
	case strings.HasPrefix(trimmedRemote, httpsProtocolPrefixConstant):
		return parseSlashRemote(remote, strings.TrimPrefix(trimmedRemote, httpsProtocolPrefixConstant))
	case strings.Contains(trimmedRemote, scpPathDelimiterConstant):
		return parseSCPRemote(remote, trimmedRemote)
	default:
		return RemoteURL{}, RemoteURLParseError{Input: remote}
	}
}

// WithOwner returns a copy of the remote address pointing at a different owner.
func (remote RemoteURL) WithOwner(owner string) RemoteURL {
	return RemoteURL{Host: remote.Host, Owner: owner, Repository: remote.Repository}
}

// Address renders the remote in the canonical <host>:<owner>/<repository>.git form.
func (remote RemoteURL) Address() string {
	return BuildRemoteAddress(remote.Host, remote.Owner, remote.Repository)
}

func parseSCPRemote(original string, remote string) (RemoteURL, error) {
	pathSplitIndex := strings.Index(remote, scpPathDelimiterConstant)
	host := remote[:pathSplitIndex]
	owner, repository, parseError := splitOwnerAndRepository(original, remote[pathSplitIndex+1:])
	if parseError != nil {
		return RemoteURL{}, parseError
	}
	return RemoteURL{Host: host, Owner: owner, Repository: repository}, nil
}

func parseSlashRemote(original string, remote string) (RemoteURL, error) {
	slashIndex := strings.Index(remote, pathSeparatorConstant)
	if slashIndex == -1 {
		return RemoteURL{}, RemoteURLParseError{Input: original}
	}
	host := remote[:slashIndex]
	owner, repository, parseError := splitOwnerAndRepository(original, remote[slashIndex+1:])
	if parseError != nil {
		return RemoteURL{}, parseError
	}
	return RemoteURL{Host: host, Owner: owner, Repository: repository}, nil
}

func splitOwnerAndRepository(original string, path string) (string, string, error) {
	segments := strings.Split(strings.Trim(path, pathSeparatorConstant), pathSeparatorConstant)
	if len(segments) != 2 {
		return "", "", RemoteURLParseError{Input: original}
	}
	repository := strings.TrimSuffix(segments[1], gitSuffixConstant)
	if len(segments[0]) == 0 || len(repository) == 0 {
		return "", "", RemoteURLParseError{Input: original}
	}
	return segments[0], repository, nil
}
