package gitrepo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/karpov/subpin/internal/gitrepo"
)

const (
	testSCPRemoteCaseNameConstant     = "scp_style"
	testSSHRemoteCaseNameConstant     = "ssh_protocol"
	testHTTPSRemoteCaseNameConstant   = "https_protocol"
	testInvalidRemoteCaseNameConstant = "invalid_remote"
)

func TestParseRemoteURL(testInstance *testing.T) {
	testCases := []struct {
		name        string
		remote      string
		expected    gitrepo.RemoteURL
		expectError bool
	}{
		{
			name:     testSCPRemoteCaseNameConstant,
			remote:   "git@github.com:trunk/lib.git",
			expected: gitrepo.RemoteURL{Host: "git@github.com", Owner: "trunk", Repository: "lib"},
		},
		{
			name:     testSSHRemoteCaseNameConstant,
			remote:   "ssh://github.com/trunk/lib.git",
			expected: gitrepo.RemoteURL{Host: "github.com", Owner: "trunk", Repository: "lib"},
		},
		{
			name:     testHTTPSRemoteCaseNameConstant,
			remote:   "https://github.com/trunk/lib",
			expected: gitrepo.RemoteURL{Host: "github.com", Owner: "trunk", Repository: "lib"},
		},
		{
			name:        testInvalidRemoteCaseNameConstant,
			remote:      "not-a-remote",
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			parsedRemote, parseError := gitrepo.ParseRemoteURL(testCase.remote)
			if testCase.expectError {
				require.Error(testInstance, parseError)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expected, parsedRemote)
		})
	}
}

func TestRemoteURLOwnerRewrite(testInstance *testing.T) {
	parsedRemote, parseError := gitrepo.ParseRemoteURL("git@github.com:trunk/lib.git")
	require.NoError(testInstance, parseError)

	rewritten := parsedRemote.WithOwner("acme")
	require.Equal(testInstance, "git@github.com:acme/lib.git", rewritten.Address())
}

func TestReferenceHelpers(testInstance *testing.T) {
	require.Equal(testInstance, "refs/remotes/acme/2.1/feature", gitrepo.RemoteTrackingReference("acme", "2.1/feature"))
	require.Equal(testInstance, "refs/heads/2.1/feature", gitrepo.BranchHeadReference("2.1/feature"))
	require.Equal(testInstance, "HEAD:refs/heads/2.1/feature", gitrepo.PushRefspec("HEAD", "refs/heads/2.1/feature"))
	require.Equal(testInstance, "git@github.com:acme/project.git", gitrepo.BuildRemoteAddress("git@github.com", "acme", "project"))
	require.Equal(testInstance, "project", gitrepo.RepositoryNameFromPath("/home/builder/project/"))
}
