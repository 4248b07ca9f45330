package resolve

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/karpov/subpin/internal/dependencies"
	"github.com/karpov/subpin/internal/fallback"
	"github.com/karpov/subpin/internal/gitrepo"
	"github.com/karpov/subpin/internal/settings"
)

const (
	resolveCommandUseConstant              = "resolve <owner> <branch> [fallback-owner]"
	resolveCommandShortDescriptionConstant = "Print the first existing branch in the fallback chain"
	resolveCommandLongDescriptionConstant  = "resolve walks the branch fallback chain for the current repository and prints the first remote/branch pair that exists."
	versionCommandUseConstant              = "version <owner> <branch> [fallback-owner]"
	versionCommandShortDescriptionConstant = "Print the release version implied by the resolved branch"
	versionCommandLongDescriptionConstant  = "version resolves the branch fallback chain and prints the <major>.<minor> release version embedded in the branch name or carried by the nearest bump tag."
	argumentCountMessageConstant           = "expected <owner> <branch> and an optional <fallback-owner>"
	referenceOutputTemplateConstant        = "%s\n"
)

var errArgumentCount = errors.New(argumentCountMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the sanitized subpin settings.
type ConfigurationProvider func() settings.Configuration

// CommandBuilder assembles the Cobra commands for branch and version resolution.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	GitExecutor           gitrepo.GitExecutor
	ConfigurationProvider ConfigurationProvider
	WorkingDirectory      string
}

// BuildResolveCommand constructs the resolve command.
func (builder *CommandBuilder) BuildResolveCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   resolveCommandUseConstant,
		Short: resolveCommandShortDescriptionConstant,
		Long:  resolveCommandLongDescriptionConstant,
		Args:  cobra.RangeArgs(2, 3),
		RunE:  builder.runResolve,
	}
	return command, nil
}

// BuildVersionCommand constructs the version command.
func (builder *CommandBuilder) BuildVersionCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   versionCommandUseConstant,
		Short: versionCommandShortDescriptionConstant,
		Long:  versionCommandLongDescriptionConstant,
		Args:  cobra.RangeArgs(2, 3),
		RunE:  builder.runVersion,
	}
	return command, nil
}

func (builder *CommandBuilder) runResolve(command *cobra.Command, arguments []string) error {
	candidate, _, resolveError := builder.resolveCandidate(command, arguments)
	if resolveError != nil {
		return resolveError
	}

	fmt.Fprintf(command.OutOrStdout(), referenceOutputTemplateConstant, candidate.Reference())
	return nil
}

func (builder *CommandBuilder) runVersion(command *cobra.Command, arguments []string) error {
	candidate, repositoryPath, resolveError := builder.resolveCandidate(command, arguments)
	if resolveError != nil {
		return resolveError
	}

	repositoryManager, managerError := builder.resolveManager()
	if managerError != nil {
		return managerError
	}

	versionExtractor, extractorError := NewVersionExtractor(repositoryManager)
	if extractorError != nil {
		return extractorError
	}

	releaseVersion, extractionError := versionExtractor.Extract(command.Context(), repositoryPath, candidate.Reference())
	if extractionError != nil {
		return extractionError
	}

	fmt.Fprintf(command.OutOrStdout(), referenceOutputTemplateConstant, releaseVersion)
	return nil
}

func (builder *CommandBuilder) resolveCandidate(command *cobra.Command, arguments []string) (fallback.Candidate, string, error) {
	owner, branch, fallbackOwner, argumentError := builder.parseArguments(arguments)
	if argumentError != nil {
		return fallback.Candidate{}, "", argumentError
	}

	repositoryPath, workingDirectoryError := builder.resolveWorkingDirectory()
	if workingDirectoryError != nil {
		return fallback.Candidate{}, "", workingDirectoryError
	}

	repositoryManager, managerError := builder.resolveManager()
	if managerError != nil {
		return fallback.Candidate{}, "", managerError
	}

	branchSelector, selectorError := NewSelector(repositoryManager)
	if selectorError != nil {
		return fallback.Candidate{}, "", selectorError
	}

	candidate, selectionError := branchSelector.Select(command.Context(), repositoryPath, owner, branch, fallbackOwner)
	if selectionError != nil {
		return fallback.Candidate{}, "", selectionError
	}
	return candidate, repositoryPath, nil
}

func (builder *CommandBuilder) parseArguments(arguments []string) (string, string, string, error) {
	if len(arguments) < 2 || len(arguments) > 3 {
		return "", "", "", errArgumentCount
	}

	owner := strings.TrimSpace(arguments[0])
	branch := strings.TrimSpace(arguments[1])

	fallbackOwner := ""
	if len(arguments) == 3 {
		fallbackOwner = strings.TrimSpace(arguments[2])
	}
	if len(fallbackOwner) == 0 {
		fallbackOwner = builder.resolveConfiguration().FallbackOwner
	}

	return owner, branch, fallbackOwner, nil
}

func (builder *CommandBuilder) resolveConfiguration() settings.Configuration {
	if builder.ConfigurationProvider == nil {
		return settings.Configuration{}.Sanitize()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveWorkingDirectory() (string, error) {
	trimmedWorkingDirectory := strings.TrimSpace(builder.WorkingDirectory)
	if len(trimmedWorkingDirectory) > 0 {
		return trimmedWorkingDirectory, nil
	}
	return os.Getwd()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

func (builder *CommandBuilder) resolveManager() (*gitrepo.RepositoryManager, error) {
	gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, builder.resolveLogger())
	if executorError != nil {
		return nil, executorError
	}
	return dependencies.ResolveRepositoryManager(nil, gitExecutor)
}
