package release

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/karpov/subpin/internal/dependencies"
	"github.com/karpov/subpin/internal/execshell"
	"github.com/karpov/subpin/internal/gitrepo"
)

const (
	changelogCommandUseConstant              = "changelog <from> <to>"
	changelogCommandShortDescriptionConstant = "Print raw per-submodule changelog material between two revisions"
	changelogCommandLongDescriptionConstant  = "changelog resolves the submodule revisions recorded at two parent states and prints the containing branches and stat-annotated history between them."
	releaseCommandUseConstant                = "release <from> <to> <owner> <branch> <version> <formatter>"
	releaseCommandShortDescriptionConstant   = "Record a changelog commit linking two pinned states"
	releaseCommandLongDescriptionConstant    = "release restores both pinned states, collects per-submodule history, formats it through the external formatter, and records a commit carrying the later state's exact tree with both states as parents."
	changelogFailureTemplateConstant         = "changelog collection failed: %w"
	releaseFailureTemplateConstant           = "release recording failed: %w"
	changelogArgumentCountConstant           = 2
	releaseArgumentCountConstant             = 6
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the Cobra commands for changelog collection and release recording.
type CommandBuilder struct {
	LoggerProvider   LoggerProvider
	GitExecutor      gitrepo.GitExecutor
	ToolRunner       ToolRunner
	WorkingDirectory string
}

// BuildChangelogCommand constructs the changelog command.
func (builder *CommandBuilder) BuildChangelogCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   changelogCommandUseConstant,
		Short: changelogCommandShortDescriptionConstant,
		Long:  changelogCommandLongDescriptionConstant,
		Args:  cobra.ExactArgs(changelogArgumentCountConstant),
		RunE:  builder.runChangelog,
	}
	return command, nil
}

// BuildReleaseCommand constructs the release command.
func (builder *CommandBuilder) BuildReleaseCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   releaseCommandUseConstant,
		Short: releaseCommandShortDescriptionConstant,
		Long:  releaseCommandLongDescriptionConstant,
		Args:  cobra.ExactArgs(releaseArgumentCountConstant),
		RunE:  builder.runRelease,
	}
	return command, nil
}

func (builder *CommandBuilder) runChangelog(command *cobra.Command, arguments []string) error {
	service, repositoryPath, setupError := builder.prepare()
	if setupError != nil {
		return setupError
	}

	material, materialError := service.Material(command.Context(), Options{
		RepositoryPath: repositoryPath,
		FromRevision:   strings.TrimSpace(arguments[0]),
		ToRevision:     strings.TrimSpace(arguments[1]),
	})
	if materialError != nil {
		return fmt.Errorf(changelogFailureTemplateConstant, materialError)
	}

	fmt.Fprint(command.OutOrStdout(), material)
	return nil
}

func (builder *CommandBuilder) runRelease(command *cobra.Command, arguments []string) error {
	service, repositoryPath, setupError := builder.prepare()
	if setupError != nil {
		return setupError
	}

	recordError := service.Record(command.Context(), Options{
		RepositoryPath:   repositoryPath,
		FromRevision:     strings.TrimSpace(arguments[0]),
		ToRevision:       strings.TrimSpace(arguments[1]),
		Owner:            strings.TrimSpace(arguments[2]),
		Branch:           strings.TrimSpace(arguments[3]),
		Version:          strings.TrimSpace(arguments[4]),
		FormatterCommand: strings.TrimSpace(arguments[5]),
	})
	if recordError != nil {
		return fmt.Errorf(releaseFailureTemplateConstant, recordError)
	}
	return nil
}

func (builder *CommandBuilder) prepare() (*Service, string, error) {
	repositoryPath, workingDirectoryError := builder.resolveWorkingDirectory()
	if workingDirectoryError != nil {
		return nil, "", workingDirectoryError
	}

	logger := builder.resolveLogger()
	gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger)
	if executorError != nil {
		return nil, "", executorError
	}
	repositoryManager, managerError := dependencies.ResolveRepositoryManager(nil, gitExecutor)
	if managerError != nil {
		return nil, "", managerError
	}

	toolRunner, toolRunnerError := builder.resolveToolRunner(logger, gitExecutor)
	if toolRunnerError != nil {
		return nil, "", toolRunnerError
	}

	service, serviceError := NewService(ServiceDependencies{Logger: logger, Manager: repositoryManager, Tools: toolRunner})
	if serviceError != nil {
		return nil, "", serviceError
	}
	return service, repositoryPath, nil
}

func (builder *CommandBuilder) resolveToolRunner(logger *zap.Logger, gitExecutor gitrepo.GitExecutor) (ToolRunner, error) {
	if builder.ToolRunner != nil {
		return builder.ToolRunner, nil
	}
	if toolRunner, isToolRunner := gitExecutor.(ToolRunner); isToolRunner {
		return toolRunner, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	return execshell.NewShellExecutor(logger, commandRunner)
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
