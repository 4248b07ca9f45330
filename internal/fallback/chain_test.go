package fallback_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/karpov/subpin/internal/fallback"
)

const (
	testDistinctOwnersCaseNameConstant    = "distinct_owners"
	testIdenticalOwnersCaseNameConstant   = "identical_owners"
	testMasterBranchCaseNameConstant      = "master_branch"
	testVersionedBranchCaseNameConstant   = "versioned_branch"
	testRootBranchCaseNameConstant        = "root_branch_without_directory"
	testDefaultedFallbackCaseNameConstant = "empty_fallback_defaults_to_owner"
)

func TestComputeCandidateOrdering(testInstance *testing.T) {
	testCases := []struct {
		name               string
		owner              string
		branch             string
		fallbackOwner      string
		expectedCandidates []fallback.Candidate
	}{
		{
			name:          testDistinctOwnersCaseNameConstant,
			owner:         "acme",
			branch:        "2.1/feature",
			fallbackOwner: "trunk",
			expectedCandidates: []fallback.Candidate{
				{Remote: "acme", Branch: "2.1/feature"},
				{Remote: "trunk", Branch: "2.1/feature"},
				{Remote: "trunk", Branch: "2.1/master"},
			},
		},
		{
			name:          testIdenticalOwnersCaseNameConstant,
			owner:         "acme",
			branch:        "2.1/feature",
			fallbackOwner: "acme",
			expectedCandidates: []fallback.Candidate{
				{Remote: "acme", Branch: "2.1/feature"},
				{Remote: "acme", Branch: "2.1/master"},
			},
		},
		{
			name:          testMasterBranchCaseNameConstant,
			owner:         "acme",
			branch:        "2.1/master",
			fallbackOwner: "trunk",
			expectedCandidates: []fallback.Candidate{
				{Remote: "acme", Branch: "2.1/master"},
				{Remote: "trunk", Branch: "2.1/master"},
			},
		},
		{
			name:          testVersionedBranchCaseNameConstant,
			owner:         "dev",
			branch:        "feature/3.0/widget",
			fallbackOwner: "trunk",
			expectedCandidates: []fallback.Candidate{
				{Remote: "dev", Branch: "feature/3.0/widget"},
				{Remote: "trunk", Branch: "feature/3.0/widget"},
				{Remote: "trunk", Branch: "feature/3.0/master"},
			},
		},
		{
			name:          testRootBranchCaseNameConstant,
			owner:         "acme",
			branch:        "feature",
			fallbackOwner: "trunk",
			expectedCandidates: []fallback.Candidate{
				{Remote: "acme", Branch: "feature"},
				{Remote: "trunk", Branch: "feature"},
				{Remote: "trunk", Branch: "master"},
			},
		},
		{
			name:   testDefaultedFallbackCaseNameConstant,
			owner:  "acme",
			branch: "feature",
			expectedCandidates: []fallback.Candidate{
				{Remote: "acme", Branch: "feature"},
				{Remote: "acme", Branch: "master"},
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			chain, computeError := fallback.Compute(testCase.owner, testCase.branch, testCase.fallbackOwner)
			require.NoError(testInstance, computeError)
			require.Equal(testInstance, testCase.expectedCandidates, chain.Candidates())
		})
	}
}

func TestComputeValidatesArguments(testInstance *testing.T) {
	_, ownerError := fallback.Compute("", "feature", "trunk")
	require.ErrorIs(testInstance, ownerError, fallback.ErrOwnerRequired)

	_, branchError := fallback.Compute("acme", "", "trunk")
	require.ErrorIs(testInstance, branchError, fallback.ErrBranchRequired)
}

func TestChainDerivedOperations(testInstance *testing.T) {
	chain, computeError := fallback.Compute("acme", "2.1/feature", "trunk")
	require.NoError(testInstance, computeError)

	require.Equal(testInstance, []string{"acme", "trunk"}, chain.DistinctRemotes())
	require.Equal(testInstance, []string{"acme/2.1/feature", "trunk/2.1/feature", "trunk/2.1/master"}, chain.References())

	lastCandidate, lastError := chain.Last()
	require.NoError(testInstance, lastError)
	require.Equal(testInstance, fallback.Candidate{Remote: "trunk", Branch: "2.1/master"}, lastCandidate)
}
