package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/karpov/subpin/internal/fallback"
)

const (
	managerNotConfiguredMessageConstant    = "branch selector requires a repository manager"
	resolutionErrorMessageTemplateConstant = "no branch in the fallback chain for owner %q branch %q (fallback owner %q) exists in %s"
)

// ErrManagerNotConfigured indicates the selector was built without a repository manager.
var ErrManagerNotConfigured = errors.New(managerNotConfiguredMessageConstant)

// BranchExistenceChecker reports whether a branch exists on a configured remote.
type BranchExistenceChecker interface {
	RemoteBranchExists(executionContext context.Context, repositoryPath string, remoteName string, branchName string) (bool, error)
}

// ResolutionError indicates that no candidate in the fallback chain exists.
type ResolutionError struct {
	RepositoryPath string
	Owner          string
	Branch         string
	FallbackOwner  string
}

// Error names the repository and the exhausted chain inputs.
func (resolutionError ResolutionError) Error() string {
	return fmt.Sprintf(resolutionErrorMessageTemplateConstant, resolutionError.Owner, resolutionError.Branch, resolutionError.FallbackOwner, resolutionError.RepositoryPath)
}

// Selector walks a fallback chain and picks the first branch that exists.
type Selector struct {
	manager BranchExistenceChecker
}

// NewSelector constructs a Selector after validating its dependency.
func NewSelector(manager BranchExistenceChecker) (*Selector, error) {
	if manager == nil {
		return nil, ErrManagerNotConfigured
	}
	return &Selector{manager: manager}, nil
}

// Select returns the earliest chain candidate whose branch exists on its remote.
//
// Candidates are probed strictly in chain order and the walk stops at the
// first match, so a later candidate is never preferred over an earlier one.
func (selector *Selector) Select(executionContext context.Context, repositoryPath string, owner string, branch string, fallbackOwner string) (fallback.Candidate, error) {
	chain, chainError := fallback.Compute(owner, branch, fallbackOwner)
	if chainError != nil {
		return fallback.Candidate{}, chainError
	}

	for _, candidate := range chain.Candidates() {
		branchExists, existenceError := selector.manager.RemoteBranchExists(executionContext, repositoryPath, candidate.Remote, candidate.Branch)
		if existenceError != nil {
			return fallback.Candidate{}, existenceError
		}
		if branchExists {
			return candidate, nil
		}
	}

	return fallback.Candidate{}, ResolutionError{
		RepositoryPath: repositoryPath,
		Owner:          owner,
		Branch:         branch,
		FallbackOwner:  fallbackOwner,
	}
}
