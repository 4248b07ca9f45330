package syncer

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/karpov/subpin/internal/dependencies"
	"github.com/karpov/subpin/internal/gitrepo"
	"github.com/karpov/subpin/internal/settings"
)

const (
	bootstrapCommandUseConstant              = "bootstrap <owner> <branch> [fallback-owner]"
	bootstrapCommandShortDescriptionConstant = "Rebuild remotes for the repository and every submodule"
	bootstrapCommandLongDescriptionConstant  = "bootstrap removes stale remotes, registers one remote per fallback chain owner, fetches each tolerating absent forks, checks out the last chain candidate, and repeats the remote setup inside every submodule in parallel."
	syncCommandUseConstant                   = "sync <owner> <branch> [fallback-owner]"
	syncCommandShortDescriptionConstant      = "Pin every submodule to its resolved branch revision"
	syncCommandLongDescriptionConstant       = "sync resolves the fallback chain inside every submodule, records the chosen revision in the pin record, hard-resets the submodule working tree, and rewrites the registered submodule URL to the chosen owner."
	bootstrapFailureTemplateConstant         = "bootstrap failed: %w"
	syncFailureTemplateConstant              = "synchronization failed: %w"
	argumentCountMessageConstant             = "expected <owner> <branch> and an optional <fallback-owner>"
)

var errArgumentCount = errors.New(argumentCountMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the sanitized subpin settings.
type ConfigurationProvider func() settings.Configuration

// ServiceBuilder constructs the synchronizer from resolved collaborators.
type ServiceBuilder func(logger *zap.Logger, manager *gitrepo.RepositoryManager, configuration settings.Configuration) (*Service, error)

// CommandBuilder assembles the Cobra commands for bootstrap and synchronization.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	GitExecutor           gitrepo.GitExecutor
	ConfigurationProvider ConfigurationProvider
	ServiceBuilder        ServiceBuilder
	WorkingDirectory      string
}

// BuildBootstrapCommand constructs the bootstrap command.
func (builder *CommandBuilder) BuildBootstrapCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   bootstrapCommandUseConstant,
		Short: bootstrapCommandShortDescriptionConstant,
		Long:  bootstrapCommandLongDescriptionConstant,
		Args:  cobra.RangeArgs(2, 3),
		RunE:  builder.runBootstrap,
	}
	return command, nil
}

// BuildSyncCommand constructs the sync command.
func (builder *CommandBuilder) BuildSyncCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   syncCommandUseConstant,
		Short: syncCommandShortDescriptionConstant,
		Long:  syncCommandLongDescriptionConstant,
		Args:  cobra.RangeArgs(2, 3),
		RunE:  builder.runSync,
	}
	return command, nil
}

func (builder *CommandBuilder) runBootstrap(command *cobra.Command, arguments []string) error {
	service, options, setupError := builder.prepare(arguments)
	if setupError != nil {
		return setupError
	}
	if bootstrapError := service.Bootstrap(command.Context(), options); bootstrapError != nil {
		return fmt.Errorf(bootstrapFailureTemplateConstant, bootstrapError)
	}
	return nil
}

func (builder *CommandBuilder) runSync(command *cobra.Command, arguments []string) error {
	service, options, setupError := builder.prepare(arguments)
	if setupError != nil {
		return setupError
	}
	if synchronizeError := service.Synchronize(command.Context(), options); synchronizeError != nil {
		return fmt.Errorf(syncFailureTemplateConstant, synchronizeError)
	}
	return nil
}

func (builder *CommandBuilder) prepare(arguments []string) (*Service, Options, error) {
	if len(arguments) < 2 || len(arguments) > 3 {
		return nil, Options{}, errArgumentCount
	}

	configuration := builder.resolveConfiguration()

	fallbackOwner := ""
	if len(arguments) == 3 {
		fallbackOwner = strings.TrimSpace(arguments[2])
	}
	if len(fallbackOwner) == 0 {
		fallbackOwner = configuration.FallbackOwner
	}

	repositoryPath, workingDirectoryError := builder.resolveWorkingDirectory()
	if workingDirectoryError != nil {
		return nil, Options{}, workingDirectoryError
	}

	logger := builder.resolveLogger()
	gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger)
	if executorError != nil {
		return nil, Options{}, executorError
	}
	repositoryManager, managerError := dependencies.ResolveRepositoryManager(nil, gitExecutor)
	if managerError != nil {
		return nil, Options{}, managerError
	}

	service, serviceError := builder.resolveService(logger, repositoryManager, configuration)
	if serviceError != nil {
		return nil, Options{}, serviceError
	}

	options := Options{
		RepositoryPath: repositoryPath,
		Owner:          strings.TrimSpace(arguments[0]),
		Branch:         strings.TrimSpace(arguments[1]),
		FallbackOwner:  fallbackOwner,
		RemoteHost:     configuration.RemoteHost,
	}
	return service, options, nil
}

func (builder *CommandBuilder) resolveService(logger *zap.Logger, repositoryManager *gitrepo.RepositoryManager, configuration settings.Configuration) (*Service, error) {
	if builder.ServiceBuilder != nil {
		return builder.ServiceBuilder(logger, repositoryManager, configuration)
	}
	return NewConfiguredService(logger, repositoryManager, configuration)
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
