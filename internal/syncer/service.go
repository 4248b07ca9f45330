package syncer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/karpov/subpin/internal/fallback"
	"github.com/karpov/subpin/internal/fetch"
	"github.com/karpov/subpin/internal/gitrepo"
	"github.com/karpov/subpin/internal/pinstore"
	"github.com/karpov/subpin/internal/resolve"
)

const (
	managerNotConfiguredMessageConstant   = "submodule synchronizer requires a repository manager"
	fetcherNotConfiguredMessageConstant   = "submodule synchronizer requires a resilient fetcher"
	submoduleResolutionTemplateConstant   = "submodule %q: %v"
	submoduleUpdateWarningMessageConstant = "submodule update failed, continuing with recorded state"
	submodulePinnedLogMessageConstant     = "pinned submodule"
	logFieldSubmoduleNameConstant         = "submodule"
	logFieldResolvedReferenceConstant     = "reference"
	logFieldPinnedRevisionConstant        = "revision"
)

// ErrManagerNotConfigured indicates the service was built without a repository manager.
var ErrManagerNotConfigured = errors.New(managerNotConfiguredMessageConstant)

// ErrFetcherNotConfigured indicates the service was built without a resilient fetcher.
var ErrFetcherNotConfigured = errors.New(fetcherNotConfiguredMessageConstant)

// RepositoryService exposes the repository operations the synchronizer drives.
type RepositoryService interface {
	ListRemotes(executionContext context.Context, repositoryPath string) ([]string, error)
	RemoveRemote(executionContext context.Context, repositoryPath string, remoteName string) error
	AddRemote(executionContext context.Context, repositoryPath string, remoteName string, remoteAddress string) error
	Fetch(executionContext context.Context, repositoryPath string, remoteName string, refspecs ...string) error
	DiscardLocalChanges(executionContext context.Context, repositoryPath string) error
	RemoveUntracked(executionContext context.Context, repositoryPath string, includeIgnored bool) error
	CheckoutReference(executionContext context.Context, repositoryPath string, reference string) error
	HardReset(executionContext context.Context, repositoryPath string, reference string) error
	SynchronizeSubmodules(executionContext context.Context, repositoryPath string) error
	UpdateSubmodules(executionContext context.Context, repositoryPath string) error
	ListSubmodules(executionContext context.Context, repositoryPath string) ([]gitrepo.Submodule, error)
	SetSubmoduleURL(executionContext context.Context, repositoryPath string, submoduleName string, submoduleURL string) error
	ResolveRevision(executionContext context.Context, repositoryPath string, reference string) (string, error)
	RemoteBranchExists(executionContext context.Context, repositoryPath string, remoteName string, branchName string) (bool, error)
}

// ResilientFetcher abstracts the retrying fetch protocol.
type ResilientFetcher interface {
	Fetch(executionContext context.Context, options fetch.Options) (fetch.Outcome, error)
}

// SubmoduleResolutionError names the submodule whose fallback chain is exhausted.
type SubmoduleResolutionError struct {
	SubmoduleName string
	Cause         resolve.ResolutionError
}

// Error names the submodule and the exhausted chain inputs.
func (resolutionError SubmoduleResolutionError) Error() string {
	return fmt.Sprintf(submoduleResolutionTemplateConstant, resolutionError.SubmoduleName, resolutionError.Cause)
}

// Unwrap exposes the underlying resolution failure.
func (resolutionError SubmoduleResolutionError) Unwrap() error {
	return resolutionError.Cause
}

// Options configures one bootstrap or synchronization run.
type Options struct {
	RepositoryPath string
	Owner          string
	Branch         string
	FallbackOwner  string
	RemoteHost     string
}

// Service drives remote setup and submodule pinning for a parent repository.
type Service struct {
	logger  *zap.Logger
	manager RepositoryService
	fetcher ResilientFetcher
}

// ServiceDependencies enumerates the synchronizer collaborators.
type ServiceDependencies struct {
	Logger  *zap.Logger
	Manager RepositoryService
	Fetcher ResilientFetcher
}

// NewService constructs a synchronizer after validating its dependencies.
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

// Bootstrap rebuilds the remote configuration of the parent repository and all
// of its submodules from the fallback chain.
//
// The parent is prepared sequentially and checked out at the last chain
// candidate. Submodule remote setup then fans out with one task per submodule;
// the first failure cancels the remaining tasks and is returned after the join.
func (service *Service) Bootstrap(executionContext context.Context, options Options) error {
	chain, chainError := fallback.Compute(options.Owner, options.Branch, options.FallbackOwner)
	if chainError != nil {
		return chainError
	}

	if setupError := service.resetRemotes(executionContext, options.RepositoryPath, chain, options.RemoteHost); setupError != nil {
		return setupError
	}

	lastCandidate, lastError := chain.Last()
	if lastError != nil {
		return lastError
	}
	if checkoutError := service.manager.CheckoutReference(executionContext, options.RepositoryPath, lastCandidate.Reference()); checkoutError != nil {
		return checkoutError
	}

	submodules, listError := service.manager.ListSubmodules(executionContext, options.RepositoryPath)
	if listError != nil {
		return listError
	}

	taskGroup, taskContext := errgroup.WithContext(executionContext)
	for _, submodule := range submodules {
		submodulePath := filepath.Join(options.RepositoryPath, submodule.Path)
		taskGroup.Go(func() error {
			return service.resetRemotes(taskContext, submodulePath, chain, options.RemoteHost)
		})
	}
	return taskGroup.Wait()
}

// Synchronize pins every submodule to its resolved branch revision.
func (service *Service) Synchronize(executionContext context.Context, options Options) error {
	if syncError := service.manager.SynchronizeSubmodules(executionContext, options.RepositoryPath); syncError != nil {
		return syncError
	}
	if discardError := service.manager.DiscardLocalChanges(executionContext, options.RepositoryPath); discardError != nil {
		return discardError
	}

	// Very old pins may reference submodule states that no longer initialize
	// cleanly; resolution below supersedes whatever state the update left.
	if updateError := service.manager.UpdateSubmodules(executionContext, options.RepositoryPath); updateError != nil {
		service.logger.Warn(submoduleUpdateWarningMessageConstant, zap.Error(updateError))
	}

	branchSelector, selectorError := resolve.NewSelector(service.manager)
	if selectorError != nil {
		return selectorError
	}
	pinRecord, storeError := pinstore.NewStore(options.RepositoryPath)
	if storeError != nil {
		return storeError
	}

	submodules, listError := service.manager.ListSubmodules(executionContext, options.RepositoryPath)
	if listError != nil {
		return listError
	}

	for _, submodule := range submodules {
		if pinError := service.pinSubmodule(executionContext, options, submodule, branchSelector, pinRecord); pinError != nil {
			return pinError
		}
	}

	for _, submodule := range submodules {
		submodulePath := filepath.Join(options.RepositoryPath, submodule.Path)
		if cleanError := service.manager.RemoveUntracked(executionContext, submodulePath, false); cleanError != nil {
			return cleanError
		}
	}
	return nil
}

func (service *Service) pinSubmodule(executionContext context.Context, options Options, submodule gitrepo.Submodule, branchSelector *resolve.Selector, pinRecord *pinstore.Store) error {
	submodulePath := filepath.Join(options.RepositoryPath, submodule.Path)

	candidate, selectionError := branchSelector.Select(executionContext, submodulePath, options.Owner, options.Branch, options.FallbackOwner)
	if selectionError != nil {
		var resolutionError resolve.ResolutionError
		if errors.As(selectionError, &resolutionError) {
			return SubmoduleResolutionError{SubmoduleName: submodule.Name, Cause: resolutionError}
		}
		return selectionError
	}

	pinnedRevision, revisionError := service.manager.ResolveRevision(executionContext, submodulePath, gitrepo.RemoteTrackingReference(candidate.Remote, candidate.Branch))
	if revisionError != nil {
		return revisionError
	}

	if replaceError := pinRecord.Replace(submodule.Name, pinnedRevision); replaceError != nil {
		return replaceError
	}
	if resetError := service.manager.HardReset(executionContext, submodulePath, pinnedRevision); resetError != nil {
		return resetError
	}

	remoteURL, parseError := gitrepo.ParseRemoteURL(submodule.URL)
	if parseError != nil {
		return parseError
	}
	rewrittenAddress := remoteURL.WithOwner(candidate.Remote).Address()
	if urlError := service.manager.SetSubmoduleURL(executionContext, options.RepositoryPath, submodule.Name, rewrittenAddress); urlError != nil {
		return urlError
	}

	service.logger.Info(
		submodulePinnedLogMessageConstant,
		zap.String(logFieldSubmoduleNameConstant, submodule.Name),
		zap.String(logFieldResolvedReferenceConstant, candidate.Reference()),
		zap.String(logFieldPinnedRevisionConstant, pinnedRevision),
	)
	return nil
}

func (service *Service) resetRemotes(executionContext context.Context, repositoryPath string, chain fallback.Chain, remoteHost string) error {
	remoteNames, listError := service.manager.ListRemotes(executionContext, repositoryPath)
	if listError != nil {
		return listError
	}
	for _, remoteName := range remoteNames {
		if removeError := service.manager.RemoveRemote(executionContext, repositoryPath, remoteName); removeError != nil {
			return removeError
		}
	}

	if discardError := service.manager.DiscardLocalChanges(executionContext, repositoryPath); discardError != nil {
		return discardError
	}

	repositoryName := gitrepo.RepositoryNameFromPath(repositoryPath)
	for _, remoteName := range chain.DistinctRemotes() {
		remoteAddress := gitrepo.BuildRemoteAddress(remoteHost, remoteName, repositoryName)
		if addError := service.manager.AddRemote(executionContext, repositoryPath, remoteName, remoteAddress); addError != nil {
			return addError
		}
		if _, fetchError := service.fetcher.Fetch(executionContext, fetch.Options{
			RepositoryPath:  repositoryPath,
			RemoteName:      remoteName,
			TolerateAbsence: true,
		}); fetchError != nil {
			return fetchError
		}
	}
	return nil
}
