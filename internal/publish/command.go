package publish

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/karpov/subpin/internal/dependencies"
	"github.com/karpov/subpin/internal/fetch"
	"github.com/karpov/subpin/internal/gitrepo"
	"github.com/karpov/subpin/internal/settings"
)

const (
	commandUseConstant              = "publish <owner> <branch> <version>"
	commandShortDescriptionConstant = "Push the recorded release to the target owner"
	commandLongDescriptionConstant  = "publish fetches the owner's current state, merges remote changelog history favoring the local side, and pushes every submodule version tag plus the parent branch."
	commandFailureTemplateConstant  = "publish failed: %w"
	commandArgumentCountConstant    = 3
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the sanitized subpin settings.
type ConfigurationProvider func() settings.Configuration

// CommandBuilder assembles the Cobra command for publish coordination.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	GitExecutor           gitrepo.GitExecutor
	ConfigurationProvider ConfigurationProvider
	WorkingDirectory      string
}

// Build constructs the publish command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.ExactArgs(commandArgumentCountConstant),
		RunE:  builder.run,
	}
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	repositoryPath, workingDirectoryError := builder.resolveWorkingDirectory()
	if workingDirectoryError != nil {
		return workingDirectoryError
	}

	logger := builder.resolveLogger()
	gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger)
	if executorError != nil {
		return executorError
	}
	repositoryManager, managerError := dependencies.ResolveRepositoryManager(nil, gitExecutor)
	if managerError != nil {
		return managerError
	}

	configuration := builder.resolveConfiguration()
	fetchService, fetchError := fetch.NewService(fetch.ServiceDependencies{
		Manager:        repositoryManager,
		Logger:         logger,
		AttemptLimit:   configuration.FetchAttempts,
		BackoffSeconds: configuration.FetchBackoffSeconds,
	})
	if fetchError != nil {
		return fetchError
	}

	service, serviceError := NewService(ServiceDependencies{Logger: logger, Manager: repositoryManager, Fetcher: fetchService})
	if serviceError != nil {
		return serviceError
	}

	publishError := service.Publish(command.Context(), Options{
		RepositoryPath: repositoryPath,
		Owner:          strings.TrimSpace(arguments[0]),
		Branch:         strings.TrimSpace(arguments[1]),
		Version:        strings.TrimSpace(arguments[2]),
	})
	if publishError != nil {
		return fmt.Errorf(commandFailureTemplateConstant, publishError)
	}
	return nil
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
