package dependencies

import (
	"go.uber.org/zap"

	"github.com/karpov/subpin/internal/execshell"
	"github.com/karpov/subpin/internal/gitrepo"
)

// ResolveGitExecutor returns the provided executor or constructs a shell-backed default.
func ResolveGitExecutor(existing gitrepo.GitExecutor, logger *zap.Logger) (gitrepo.GitExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	shellExecutor, creationError := execshell.NewShellExecutor(logger, commandRunner)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

// ResolveRepositoryManager returns the provided repository manager or constructs one from the executor.
func ResolveRepositoryManager(existing *gitrepo.RepositoryManager, executor gitrepo.GitExecutor) (*gitrepo.RepositoryManager, error) {
	if existing != nil {
		return existing, nil
	}
	return gitrepo.NewRepositoryManager(executor)
}
