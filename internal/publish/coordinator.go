package publish

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/karpov/subpin/internal/fetch"
	"github.com/karpov/subpin/internal/gitrepo"
)

const (
	managerNotConfiguredMessageConstant = "publish coordinator requires a repository manager"
	fetcherNotConfiguredMessageConstant = "publish coordinator requires a resilient fetcher"
	mergeMessageConstant                = "Merge remote changelog history"
	versionTagTemplateConstant          = "v%s"
	headReferenceConstant               = "HEAD"
	publishedLogMessageConstant         = "pushed release"
	logFieldRemoteNameConstant          = "remote_name"
	logFieldBranchNameConstant          = "branch"
	logFieldVersionTagConstant          = "version_tag"
)

// ErrManagerNotConfigured indicates the coordinator was built without a repository manager.
var ErrManagerNotConfigured = errors.New(managerNotConfiguredMessageConstant)

// ErrFetcherNotConfigured indicates the coordinator was built without a resilient fetcher.
var ErrFetcherNotConfigured = errors.New(fetcherNotConfiguredMessageConstant)

// RepositoryService exposes the repository operations the coordinator drives.
type RepositoryService interface {
	Fetch(executionContext context.Context, repositoryPath string, remoteName string, refspecs ...string) error
	RemoteBranchExists(executionContext context.Context, repositoryPath string, remoteName string, branchName string) (bool, error)
	MergeFavoringLocal(executionContext context.Context, repositoryPath string, reference string, message string) error
	Push(executionContext context.Context, repositoryPath string, remoteName string, refspec string) error
	ListSubmodules(executionContext context.Context, repositoryPath string) ([]gitrepo.Submodule, error)
}

// ResilientFetcher abstracts the retrying fetch protocol.
type ResilientFetcher interface {
	Fetch(executionContext context.Context, options fetch.Options) (fetch.Outcome, error)
}

// Options configures one publish run.
type Options struct {
	RepositoryPath string
	Owner          string
	Branch         string
	Version        string
}

// Service pushes a recorded release to the target owner.
type Service struct {
	logger  *zap.Logger
	manager RepositoryService
	fetcher ResilientFetcher
}

// ServiceDependencies enumerates the coordinator collaborators.
type ServiceDependencies struct {
	Logger  *zap.Logger
	Manager RepositoryService
	Fetcher ResilientFetcher
}

// NewService constructs a publish coordinator after validating its dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Manager == nil {
		return nil, ErrManagerNotConfigured
	}
	if dependencies.Fetcher == nil {
		return nil, ErrFetcherNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{logger: logger, manager: dependencies.Manager, fetcher: dependencies.Fetcher}, nil
}

// Publish fetches the owner's current state, folds any remote changelog
// history into HEAD favoring the local side, then pushes every submodule's
// version tag and the parent branch to the owner.
func (service *Service) Publish(executionContext context.Context, options Options) error {
	if _, fetchError := service.fetcher.Fetch(executionContext, fetch.Options{
		RepositoryPath: options.RepositoryPath,
		RemoteName:     options.Owner,
	}); fetchError != nil {
		return fetchError
	}

	trackingExists, trackingError := service.manager.RemoteBranchExists(executionContext, options.RepositoryPath, options.Owner, options.Branch)
	if trackingError != nil {
		return trackingError
	}
	if trackingExists {
		trackingReference := gitrepo.RemoteTrackingReference(options.Owner, options.Branch)
		if mergeError := service.manager.MergeFavoringLocal(executionContext, options.RepositoryPath, trackingReference, mergeMessageConstant); mergeError != nil {
			return mergeError
		}
	}

	versionTagName := fmt.Sprintf(versionTagTemplateConstant, options.Version)
	submodules, listError := service.manager.ListSubmodules(executionContext, options.RepositoryPath)
	if listError != nil {
		return listError
	}
	for _, submodule := range submodules {
		submodulePath := filepath.Join(options.RepositoryPath, submodule.Path)
		if pushError := service.manager.Push(executionContext, submodulePath, options.Owner, versionTagName); pushError != nil {
			return pushError
		}
	}

	branchRefspec := gitrepo.PushRefspec(headReferenceConstant, gitrepo.BranchHeadReference(options.Branch))
	if pushError := service.manager.Push(executionContext, options.RepositoryPath, options.Owner, branchRefspec); pushError != nil {
		return pushError
	}

	service.logger.Info(
		publishedLogMessageConstant,
		zap.String(logFieldRemoteNameConstant, options.Owner),
		zap.String(logFieldBranchNameConstant, options.Branch),
		zap.String(logFieldVersionTagConstant, versionTagName),
	)
	return nil
}
