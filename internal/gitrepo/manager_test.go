package gitrepo_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/karpov/subpin/internal/execshell"
	"github.com/karpov/subpin/internal/gitrepo"
)

const (
	testRepositoryPathConstant = "/tmp/project"
)

type scriptedGitExecutor struct {
	responses        map[string]execshell.ExecutionResult
	failures         map[string]error
	recordedCommands []execshell.CommandDetails
}

func newScriptedGitExecutor() *scriptedGitExecutor {
	return &scriptedGitExecutor{
		responses: map[string]execshell.ExecutionResult{},
		failures:  map[string]error{},
	}
}

func (executor *scriptedGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, details)
	commandKey := strings.Join(details.Arguments, " ")
	if failure, failureExists := executor.failures[commandKey]; failureExists {
		return execshell.ExecutionResult{}, failure
	}
	if response, responseExists := executor.responses[commandKey]; responseExists {
		return response, nil
	}
	return execshell.ExecutionResult{}, nil
}

func commandFailure(exitCode int, standardError string) error {
	return execshell.CommandFailedError{Result: execshell.ExecutionResult{ExitCode: exitCode, StandardError: standardError}}
}

func TestCheckCleanWorktree(testInstance *testing.T) {
	executor := newScriptedGitExecutor()
	executor.responses["status --porcelain"] = execshell.ExecutionResult{StandardOutput: " M internal/service.go\n"}

	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	clean, checkError := manager.CheckCleanWorktree(context.Background(), testRepositoryPathConstant)
	require.NoError(testInstance, checkError)
	require.False(testInstance, clean)
}

func TestRemoteBranchExistsDistinguishesMissingFromFailure(testInstance *testing.T) {
	executor := newScriptedGitExecutor()
	executor.failures["rev-parse --verify --quiet refs/remotes/acme/missing"] = commandFailure(1, "")

	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	exists, existsError := manager.RemoteBranchExists(context.Background(), testRepositoryPathConstant, "acme", "missing")
	require.NoError(testInstance, existsError)
	require.False(testInstance, exists)

	exists, existsError = manager.RemoteBranchExists(context.Background(), testRepositoryPathConstant, "acme", "present")
	require.NoError(testInstance, existsError)
	require.True(testInstance, exists)
}

func TestListSubmodulesPreservesRegistrationOrder(testInstance *testing.T) {
	executor := newScriptedGitExecutor()
	executor.responses[`config --file .gitmodules --get-regexp ^submodule\..*\.path$`] = execshell.ExecutionResult{
		StandardOutput: "submodule.lib.path lib\nsubmodule.tools.path vendor/tools\n",
	}
	executor.responses["config --file .gitmodules submodule.lib.url"] = execshell.ExecutionResult{StandardOutput: "git@github.com:trunk/lib.git\n"}
	executor.responses["config --file .gitmodules submodule.tools.url"] = execshell.ExecutionResult{StandardOutput: "git@github.com:trunk/tools.git\n"}

	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	submodules, listError := manager.ListSubmodules(context.Background(), testRepositoryPathConstant)
	require.NoError(testInstance, listError)
	require.Equal(testInstance, []gitrepo.Submodule{
		{Name: "lib", Path: "lib", URL: "git@github.com:trunk/lib.git"},
		{Name: "tools", Path: "vendor/tools", URL: "git@github.com:trunk/tools.git"},
	}, submodules)
}

func TestListSubmodulesToleratesMissingModuleConfiguration(testInstance *testing.T) {
	executor := newScriptedGitExecutor()
	executor.failures[`config --file .gitmodules --get-regexp ^submodule\..*\.path$`] = commandFailure(1, "")

	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	submodules, listError := manager.ListSubmodules(context.Background(), testRepositoryPathConstant)
	require.NoError(testInstance, listError)
	require.Empty(testInstance, submodules)
}

func TestBranchesContainingSkipsSymbolicPointers(testInstance *testing.T) {
	executor := newScriptedGitExecutor()
	executor.responses["branch --remotes --contains abc123"] = execshell.ExecutionResult{
		StandardOutput: "  acme/2.1/feature\n  acme/HEAD -> acme/master\n  trunk/2.1/master\n",
	}

	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	containingBranches, listError := manager.BranchesContaining(context.Background(), testRepositoryPathConstant, "abc123")
	require.NoError(testInstance, listError)
	require.Equal(testInstance, []string{"acme/2.1/feature", "trunk/2.1/master"}, containingBranches)
}

func TestCreateCommitFromTreeSuppliesParentsAndMessage(testInstance *testing.T) {
	executor := newScriptedGitExecutor()
	executor.responses["commit-tree tree123 -p from123 -p to456"] = execshell.ExecutionResult{StandardOutput: "newcommit789\n"}

	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	commitIdentifier, commitError := manager.CreateCommitFromTree(context.Background(), testRepositoryPathConstant, "tree123", []string{"from123", "to456"}, "release notes")
	require.NoError(testInstance, commitError)
	require.Equal(testInstance, "newcommit789", commitIdentifier)

	lastCommand := executor.recordedCommands[len(executor.recordedCommands)-1]
	require.Equal(testInstance, []byte("release notes"), lastCommand.StandardInput)
}

func TestRecordedSubmoduleRevisionUsesGitlinkReference(testInstance *testing.T) {
	executor := newScriptedGitExecutor()
	executor.responses["rev-parse --verify --quiet from:lib"] = execshell.ExecutionResult{StandardOutput: "libcommit\n"}

	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	revision, resolveError := manager.RecordedSubmoduleRevision(context.Background(), testRepositoryPathConstant, "from", "lib")
	require.NoError(testInstance, resolveError)
	require.Equal(testInstance, "libcommit", revision)
}
