package fallback

import (
	"errors"
	"fmt"
	"strings"
)

const (
	ownerRequiredMessageConstant  = "owner must be provided"
	branchRequiredMessageConstant = "branch must be provided"
	branchSeparatorConstant       = "/"
	masterBranchNameConstant      = "master"
	referenceTemplateConstant     = "%s/%s"
	emptyChainMessageConstant     = "fallback chain is empty"
)

// ErrOwnerRequired indicates the owner argument was empty.
var ErrOwnerRequired = errors.New(ownerRequiredMessageConstant)

// ErrBranchRequired indicates the branch argument was empty.
var ErrBranchRequired = errors.New(branchRequiredMessageConstant)

// ErrEmptyChain indicates a chain operation was invoked on a chain without candidates.
var ErrEmptyChain = errors.New(emptyChainMessageConstant)

// Candidate pairs a remote name with a branch name.
type Candidate struct {
	Remote string
	Branch string
}

// Reference materializes the candidate as a remote/branch string.
func (candidate Candidate) Reference() string {
	return fmt.Sprintf(referenceTemplateConstant, candidate.Remote, candidate.Branch)
}

// Chain holds the priority-ordered fallback candidates for one resolution request.
type Chain struct {
	candidates []Candidate
}

// Compute builds the fallback chain for the supplied owner, branch, and fallback owner.
//
// The candidate order encodes the resolution policy: the requester's exact
// target first, the fallback owner's same branch second (omitted when the
// fallback owner equals the owner), and the fallback owner's master variant
// last (omitted when the branch already ends in master). An empty fallback
// owner defaults to the owner.
func Compute(owner string, branch string, fallbackOwner string) (Chain, error) {
	trimmedOwner := strings.TrimSpace(owner)
	if len(trimmedOwner) == 0 {
		return Chain{}, ErrOwnerRequired
	}

	trimmedBranch := strings.TrimSpace(branch)
	if len(trimmedBranch) == 0 {
		return Chain{}, ErrBranchRequired
	}

	trimmedFallbackOwner := strings.TrimSpace(fallbackOwner)
	if len(trimmedFallbackOwner) == 0 {
		trimmedFallbackOwner = trimmedOwner
	}

	candidates := []Candidate{{Remote: trimmedOwner, Branch: trimmedBranch}}
	if trimmedFallbackOwner != trimmedOwner {
		candidates = append(candidates, Candidate{Remote: trimmedFallbackOwner, Branch: trimmedBranch})
	}
	if lastBranchSegment(trimmedBranch) != masterBranchNameConstant {
		candidates = append(candidates, Candidate{Remote: trimmedFallbackOwner, Branch: masterVariant(trimmedBranch)})
	}

	return Chain{candidates: candidates}, nil
}

// Candidates returns the priority-ordered candidate list.
func (chain Chain) Candidates() []Candidate {
	duplicated := make([]Candidate, len(chain.candidates))
	copy(duplicated, chain.candidates)
	return duplicated
}

// DistinctRemotes returns the remotes of the chain in order, first occurrence kept.
func (chain Chain) DistinctRemotes() []string {
	seenRemotes := map[string]struct{}{}
	distinctRemotes := []string{}
	for _, candidate := range chain.candidates {
		if _, seen := seenRemotes[candidate.Remote]; seen {
			continue
		}
		seenRemotes[candidate.Remote] = struct{}{}
		distinctRemotes = append(distinctRemotes, candidate.Remote)
	}
	return distinctRemotes
}

// References materializes every candidate as a remote/branch string in priority order.
func (chain Chain) References() []string {
	references := make([]string, 0, len(chain.candidates))
	for _, candidate := range chain.candidates {
		references = append(references, candidate.Reference())
	}
	return references
}

// Last returns the lowest-priority candidate, the default checkout target.
func (chain Chain) Last() (Candidate, error) {
	if len(chain.candidates) == 0 {
		return Candidate{}, ErrEmptyChain
	}
	return chain.candidates[len(chain.candidates)-1], nil
}

func lastBranchSegment(branch string) string {
	segments := strings.Split(branch, branchSeparatorConstant)
	return segments[len(segments)-1]
}

func masterVariant(branch string) string {
	separatorIndex := strings.LastIndex(branch, branchSeparatorConstant)
	if separatorIndex == -1 {
		return masterBranchNameConstant
	}
	return branch[:separatorIndex] + branchSeparatorConstant + masterBranchNameConstant
}
