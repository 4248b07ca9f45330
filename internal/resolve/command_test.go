package resolve_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/karpov/subpin/internal/execshell"
	"github.com/karpov/subpin/internal/resolve"
	"github.com/karpov/subpin/internal/settings"
)

type scriptedGitExecutor struct {
	responses map[string]execshell.ExecutionResult
	failures  map[string]error
	executed  []string
}

func (executor *scriptedGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	commandKey := strings.Join(details.Arguments, " ")
	executor.executed = append(executor.executed, commandKey)
	if failure, failureScripted := executor.failures[commandKey]; failureScripted {
		return execshell.ExecutionResult{}, failure
	}
	return executor.responses[commandKey], nil
}

func missingBranchFailure() error {
	return execshell.CommandFailedError{Result: execshell.ExecutionResult{ExitCode: 1}}
}

func TestResolveCommandPrintsFirstExistingReference(testInstance *testing.T) {
	executor := &scriptedGitExecutor{
		responses: map[string]execshell.ExecutionResult{
			"rev-parse --verify --quiet refs/remotes/trunk/2.1/feature": {StandardOutput: "abc123\n"},
		},
		failures: map[string]error{
			"rev-parse --verify --quiet refs/remotes/acme/2.1/feature": missingBranchFailure(),
		},
	}
	builder := &resolve.CommandBuilder{GitExecutor: executor, WorkingDirectory: testSelectorRepositoryConstant}

	command, buildError := builder.BuildResolveCommand()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetArgs([]string{testOwnerConstant, testVersionedBranchConstant, testFallbackOwnerConstant})

	require.NoError(testInstance, command.Execute())
	require.Equal(testInstance, "trunk/2.1/feature\n", outputBuffer.String())
}

func TestResolveCommandUsesConfiguredFallbackOwner(testInstance *testing.T) {
	executor := &scriptedGitExecutor{
		responses: map[string]execshell.ExecutionResult{
			"rev-parse --verify --quiet refs/remotes/trunk/2.1/master": {StandardOutput: "abc123\n"},
		},
		failures: map[string]error{
			"rev-parse --verify --quiet refs/remotes/acme/2.1/feature":  missingBranchFailure(),
			"rev-parse --verify --quiet refs/remotes/trunk/2.1/feature": missingBranchFailure(),
			"rev-parse --verify --quiet refs/remotes/acme/2.1/master":   missingBranchFailure(),
		},
	}
	builder := &resolve.CommandBuilder{
		GitExecutor:      executor,
		WorkingDirectory: testSelectorRepositoryConstant,
		ConfigurationProvider: func() settings.Configuration {
			return settings.Configuration{FallbackOwner: testFallbackOwnerConstant}
		},
	}

	command, buildError := builder.BuildResolveCommand()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetArgs([]string{testOwnerConstant, testVersionedBranchConstant})

	require.NoError(testInstance, command.Execute())
	require.Equal(testInstance, "trunk/2.1/master\n", outputBuffer.String())
}

func TestVersionCommandDerivesVersionFromBumpTag(testInstance *testing.T) {
	executor := &scriptedGitExecutor{
		responses: map[string]execshell.ExecutionResult{
			"rev-parse --verify --quiet refs/remotes/acme/feature":   {StandardOutput: "abc123\n"},
			"describe --tags --abbrev=0 --match bump-* acme/feature": {StandardOutput: "bump-2.0-rc1\n"},
		},
	}
	builder := &resolve.CommandBuilder{GitExecutor: executor, WorkingDirectory: testSelectorRepositoryConstant}

	command, buildError := builder.BuildVersionCommand()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetArgs([]string{testOwnerConstant, "feature", testFallbackOwnerConstant})

	require.NoError(testInstance, command.Execute())
	require.Equal(testInstance, "2.0\n", outputBuffer.String())
}

func TestResolveCommandFailsWhenChainExhausted(testInstance *testing.T) {
	executor := &scriptedGitExecutor{
		failures: map[string]error{
			"rev-parse --verify --quiet refs/remotes/acme/2.1/feature":  missingBranchFailure(),
			"rev-parse --verify --quiet refs/remotes/trunk/2.1/feature": missingBranchFailure(),
			"rev-parse --verify --quiet refs/remotes/acme/2.1/master":   missingBranchFailure(),
			"rev-parse --verify --quiet refs/remotes/trunk/2.1/master":  missingBranchFailure(),
		},
	}
	builder := &resolve.CommandBuilder{GitExecutor: executor, WorkingDirectory: testSelectorRepositoryConstant}

	command, buildError := builder.BuildResolveCommand()
	require.NoError(testInstance, buildError)

	command.SetOut(&bytes.Buffer{})
	command.SetErr(&bytes.Buffer{})
	command.SetArgs([]string{testOwnerConstant, testVersionedBranchConstant, testFallbackOwnerConstant})

	executionError := command.Execute()
	var resolutionError resolve.ResolutionError
	require.ErrorAs(testInstance, executionError, &resolutionError)
}
