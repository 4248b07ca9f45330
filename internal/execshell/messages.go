package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
)

const (
	gitFetchSubcommandNameConstant      = "fetch"
	gitRemoteSubcommandNameConstant     = "remote"
	gitRemoteAddSubcommandNameConstant  = "add"
	gitRemoteRemoveSubcommandConstant   = "remove"
	gitCheckoutSubcommandNameConstant   = "checkout"
	gitResetSubcommandNameConstant      = "reset"
	gitCleanSubcommandNameConstant      = "clean"
	gitTagSubcommandNameConstant        = "tag"
	gitTagDeleteFlagConstant            = "--delete"
	gitDescribeSubcommandNameConstant   = "describe"
	gitSubmoduleSubcommandNameConstant  = "submodule"
	gitLogSubcommandNameConstant        = "log"
	gitPushSubcommandNameConstant       = "push"
	gitMergeSubcommandNameConstant      = "merge"
	gitCommitTreeSubcommandNameConstant = "commit-tree"
)

const (
	gitFetchStartTemplateConstant                   = "Fetching %s in %s"
	gitFetchSuccessTemplateConstant                 = "Fetched %s in %s"
	gitFetchFailureTemplateConstant                 = "Failed to fetch %s in %s (exit code %d%s)"
	gitFetchExecutionFailureTemplateConstant        = "Unable to fetch %s in %s: %s"
	gitRemoteAddStartTemplateConstant               = "Registering remote %s in %s"
	gitRemoteAddSuccessTemplateConstant             = "Registered remote %s in %s"
	gitRemoteAddFailureTemplateConstant             = "Failed to register remote %s in %s (exit code %d%s)"
	gitRemoteAddExecutionFailureTemplateConstant    = "Unable to register remote %s in %s: %s"
	gitRemoteRemoveStartTemplateConstant            = "Removing remote %s from %s"
	gitRemoteRemoveSuccessTemplateConstant          = "Removed remote %s from %s"
	gitRemoteRemoveFailureTemplateConstant          = "Failed to remove remote %s from %s (exit code %d%s)"
	gitRemoteRemoveExecutionFailureTemplateConstant = "Unable to remove remote %s from %s: %s"
	gitCheckoutStartTemplateConstant                = "Checking out %s in %s"
	gitCheckoutSuccessTemplateConstant              = "Checked out %s in %s"
	gitCheckoutFailureTemplateConstant              = "Failed to check out %s in %s (exit code %d%s)"
	gitCheckoutExecutionFailureTemplateConstant     = "Unable to check out %s in %s: %s"
	gitResetStartTemplateConstant                   = "Resetting %s to %s"
	gitResetSuccessTemplateConstant                 = "Reset %s to %s"
	gitResetFailureTemplateConstant                 = "Failed to reset %s to %s (exit code %d%s)"
	gitResetExecutionFailureTemplateConstant        = "Unable to reset %s to %s: %s"
	gitCleanStartTemplateConstant                   = "Removing untracked files in %s"
	gitCleanSuccessTemplateConstant                 = "Removed untracked files in %s"
	gitCleanFailureTemplateConstant                 = "Failed to remove untracked files in %s (exit code %d%s)"
	gitCleanExecutionFailureTemplateConstant        = "Unable to remove untracked files in %s: %s"
	gitTagStartTemplateConstant                     = "Updating tag %s in %s"
	gitTagDeleteStartTemplateConstant               = "Deleting tag %s in %s"
	gitTagSuccessTemplateConstant                   = "Updated tag %s in %s"
	gitTagDeleteSuccessTemplateConstant             = "Deleted tag %s in %s"
	gitTagFailureTemplateConstant                   = "Failed to update tag %s in %s (exit code %d%s)"
	gitTagExecutionFailureTemplateConstant          = "Unable to update tag %s in %s: %s"
	gitDescribeStartTemplateConstant                = "Locating nearest tag for %s in %s"
	gitDescribeSuccessTemplateConstant              = "Located nearest tag for %s in %s"
	gitDescribeFailureTemplateConstant              = "Failed to locate nearest tag for %s in %s (exit code %d%s)"
	gitDescribeExecutionFailureTemplateConstant     = "Unable to locate nearest tag for %s in %s: %s"
	gitSubmoduleStartTemplateConstant               = "Running submodule %s in %s"
	gitSubmoduleSuccessTemplateConstant             = "Completed submodule %s in %s"
	gitSubmoduleFailureTemplateConstant             = "Submodule %s failed in %s (exit code %d%s)"
	gitSubmoduleExecutionFailureTemplateConstant    = "Unable to run submodule %s in %s: %s"
	gitLogStartTemplateConstant                     = "Collecting history %s in %s"
	gitLogSuccessTemplateConstant                   = "Collected history %s in %s"
	gitLogFailureTemplateConstant                   = "Failed to collect history %s in %s (exit code %d%s)"
	gitLogExecutionFailureTemplateConstant          = "Unable to collect history %s in %s: %s"
	gitPushStartTemplateConstant                    = "Pushing %s to %s from %s"
	gitPushSuccessTemplateConstant                  = "Pushed %s to %s from %s"
	gitPushFailureTemplateConstant                  = "Failed to push %s to %s from %s (exit code %d%s)"
	gitPushExecutionFailureTemplateConstant         = "Unable to push %s to %s from %s: %s"
	gitMergeStartTemplateConstant                   = "Merging %s in %s"
	gitMergeSuccessTemplateConstant                 = "Merged %s in %s"
	gitMergeFailureTemplateConstant                 = "Failed to merge %s in %s (exit code %d%s)"
	gitMergeExecutionFailureTemplateConstant        = "Unable to merge %s in %s: %s"
	gitCommitTreeStartTemplateConstant              = "Building commit from tree %s in %s"
	gitCommitTreeSuccessTemplateConstant            = "Built commit from tree %s in %s"
	gitCommitTreeFailureTemplateConstant            = "Failed to build commit from tree %s in %s (exit code %d%s)"
	gitCommitTreeExecutionFailureTemplateConstant   = "Unable to build commit from tree %s in %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	subcommand := strings.TrimSpace(command.Details.Arguments[0])
	switch subcommand {
	case gitFetchSubcommandNameConstant:
		return formatter.describeSingleTarget(command, result, failure, stage, formatter.extractFirstNonFlagArgument(command.Details.Arguments[1:]), gitFetchStartTemplateConstant, gitFetchSuccessTemplateConstant, gitFetchFailureTemplateConstant, gitFetchExecutionFailureTemplateConstant)
	case gitRemoteSubcommandNameConstant:
		return formatter.describeGitRemoteMessage(command, result, failure, stage)
	case gitCheckoutSubcommandNameConstant:
		return formatter.describeSingleTarget(command, result, failure, stage, formatter.extractLastNonFlagArgument(command.Details.Arguments[1:]), gitCheckoutStartTemplateConstant, gitCheckoutSuccessTemplateConstant, gitCheckoutFailureTemplateConstant, gitCheckoutExecutionFailureTemplateConstant)
	case gitResetSubcommandNameConstant:
		return formatter.describeGitResetMessage(command, result, failure, stage)
	case gitCleanSubcommandNameConstant:
		return formatter.describeWorkingDirectoryOnly(command, result, failure, stage, gitCleanStartTemplateConstant, gitCleanSuccessTemplateConstant, gitCleanFailureTemplateConstant, gitCleanExecutionFailureTemplateConstant)
	case gitTagSubcommandNameConstant:
		return formatter.describeGitTagMessage(command, result, failure, stage)
	case gitDescribeSubcommandNameConstant:
		return formatter.describeSingleTarget(command, result, failure, stage, formatter.extractLastNonFlagArgument(command.Details.Arguments[1:]), gitDescribeStartTemplateConstant, gitDescribeSuccessTemplateConstant, gitDescribeFailureTemplateConstant, gitDescribeExecutionFailureTemplateConstant)
	case gitSubmoduleSubcommandNameConstant:
		return formatter.describeSingleTarget(command, result, failure, stage, formatter.extractFirstNonFlagArgument(command.Details.Arguments[1:]), gitSubmoduleStartTemplateConstant, gitSubmoduleSuccessTemplateConstant, gitSubmoduleFailureTemplateConstant, gitSubmoduleExecutionFailureTemplateConstant)
	case gitLogSubcommandNameConstant:
		return formatter.describeSingleTarget(command, result, failure, stage, formatter.extractLastNonFlagArgument(command.Details.Arguments[1:]), gitLogStartTemplateConstant, gitLogSuccessTemplateConstant, gitLogFailureTemplateConstant, gitLogExecutionFailureTemplateConstant)
	case gitPushSubcommandNameConstant:
		return formatter.describeGitPushMessage(command, result, failure, stage)
	case gitMergeSubcommandNameConstant:
		return formatter.describeSingleTarget(command, result, failure, stage, formatter.extractLastNonFlagArgument(command.Details.Arguments[1:]), gitMergeStartTemplateConstant, gitMergeSuccessTemplateConstant, gitMergeFailureTemplateConstant, gitMergeExecutionFailureTemplateConstant)
	case gitCommitTreeSubcommandNameConstant:
		return formatter.describeSingleTarget(command, result, failure, stage, formatter.extractFirstNonFlagArgument(command.Details.Arguments[1:]), gitCommitTreeStartTemplateConstant, gitCommitTreeSuccessTemplateConstant, gitCommitTreeFailureTemplateConstant, gitCommitTreeExecutionFailureTemplateConstant)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeSingleTarget(command ShellCommand, result ExecutionResult, failure error, stage messageStage, target string, startTemplate string, successTemplate string, failureTemplate string, executionFailureTemplate string) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	ensuredTarget := formatter.ensureValue(target)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(startTemplate, ensuredTarget, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(successTemplate, ensuredTarget, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(failureTemplate, ensuredTarget, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(executionFailureTemplate, ensuredTarget, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeWorkingDirectoryOnly(command ShellCommand, result ExecutionResult, failure error, stage messageStage, startTemplate string, successTemplate string, failureTemplate string, executionFailureTemplate string) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(startTemplate, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(successTemplate, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(failureTemplate, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(executionFailureTemplate, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitRemoteMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) < 2 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	remoteName := formatter.ensureValue(formatter.argumentAtIndex(arguments, 2))
	workingDirectory := formatter.describeWorkingDirectory(command)
	switch strings.TrimSpace(arguments[1]) {
	case gitRemoteAddSubcommandNameConstant:
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitRemoteAddStartTemplateConstant, remoteName, workingDirectory)
		case messageStageSuccess:
			return fmt.Sprintf(gitRemoteAddSuccessTemplateConstant, remoteName, workingDirectory)
		case messageStageFailure:
			return fmt.Sprintf(gitRemoteAddFailureTemplateConstant, remoteName, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(gitRemoteAddExecutionFailureTemplateConstant, remoteName, workingDirectory, formatter.describeFailure(failure))
		}
	case gitRemoteRemoveSubcommandConstant:
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitRemoteRemoveStartTemplateConstant, remoteName, workingDirectory)
		case messageStageSuccess:
			return fmt.Sprintf(gitRemoteRemoveSuccessTemplateConstant, remoteName, workingDirectory)
		case messageStageFailure:
			return fmt.Sprintf(gitRemoteRemoveFailureTemplateConstant, remoteName, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(gitRemoteRemoveExecutionFailureTemplateConstant, remoteName, workingDirectory, formatter.describeFailure(failure))
		}
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeGitResetMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	target := formatter.ensureValue(formatter.extractLastNonFlagArgument(command.Details.Arguments[1:]))
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitResetStartTemplateConstant, workingDirectory, target)
	case messageStageSuccess:
		return fmt.Sprintf(gitResetSuccessTemplateConstant, workingDirectory, target)
	case messageStageFailure:
		return fmt.Sprintf(gitResetFailureTemplateConstant, workingDirectory, target, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitResetExecutionFailureTemplateConstant, workingDirectory, target, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitTagMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	workingDirectory := formatter.describeWorkingDirectory(command)
	tagName := formatter.ensureValue(formatter.extractFirstNonFlagArgument(arguments[1:]))
	deletion := containsArgument(arguments, gitTagDeleteFlagConstant)

	switch stage {
	case messageStageStart:
		if deletion {
			return fmt.Sprintf(gitTagDeleteStartTemplateConstant, tagName, workingDirectory)
		}
		return fmt.Sprintf(gitTagStartTemplateConstant, tagName, workingDirectory)
	case messageStageSuccess:
		if deletion {
			return fmt.Sprintf(gitTagDeleteSuccessTemplateConstant, tagName, workingDirectory)
		}
		return fmt.Sprintf(gitTagSuccessTemplateConstant, tagName, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitTagFailureTemplateConstant, tagName, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitTagExecutionFailureTemplateConstant, tagName, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitPushMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	remoteName, references := formatter.extractRemoteAndReferences(command.Details.Arguments[1:])
	workingDirectory := formatter.describeWorkingDirectory(command)
	referencesLabel := formatter.ensureValue(strings.Join(references, ", "))
	ensuredRemote := formatter.ensureValue(remoteName)

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitPushStartTemplateConstant, referencesLabel, ensuredRemote, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitPushSuccessTemplateConstant, referencesLabel, ensuredRemote, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitPushFailureTemplateConstant, referencesLabel, ensuredRemote, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitPushExecutionFailureTemplateConstant, referencesLabel, ensuredRemote, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index >= 0 && index < len(arguments) {
		return arguments[index]
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func (formatter CommandMessageFormatter) extractFirstNonFlagArgument(arguments []string) string {
	for _, argument := range arguments {
		trimmed := strings.TrimSpace(argument)
		if len(trimmed) == 0 || strings.HasPrefix(trimmed, "-") {
			continue
		}
		return trimmed
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) extractLastNonFlagArgument(arguments []string) string {
	for index := len(arguments) - 1; index >= 0; index-- {
		trimmed := strings.TrimSpace(arguments[index])
		if len(trimmed) == 0 || strings.HasPrefix(trimmed, "-") {
			continue
		}
		return trimmed
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) extractRemoteAndReferences(arguments []string) (string, []string) {
	remoteName := emptyStringConstant
	references := []string{}
	for _, argument := range arguments {
		trimmed := strings.TrimSpace(argument)
		if len(trimmed) == 0 || strings.HasPrefix(trimmed, "-") {
			continue
		}
		if len(remoteName) == 0 {
			remoteName = trimmed
			continue
		}
		references = append(references, trimmed)
	}
	return remoteName, references
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}
