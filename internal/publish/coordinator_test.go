package publish_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/karpov/subpin/internal/fetch"
	"github.com/karpov/subpin/internal/gitrepo"
	"github.com/karpov/subpin/internal/publish"
)

const (
	testRepositoryPathConstant = "/tmp/project"
	testOwnerConstant          = "acme"
	testBranchConstant         = "2.1/feature"
	testVersionConstant        = "2.1"
)

type fakePublishRepository struct {
	trackingExists bool
	submodules     []gitrepo.Submodule
	operations     []string
	pushFailure    error
}

func newFakePublishRepository() *fakePublishRepository {
	return &fakePublishRepository{
		submodules: []gitrepo.Submodule{
			{Name: "lib", Path: "lib", URL: "git@github.com:trunk/lib.git"},
			{Name: "tools", Path: "tools", URL: "git@github.com:trunk/tools.git"},
		},
	}
}

func (repository *fakePublishRepository) Fetch(_ context.Context, repositoryPath string, remoteName string, _ ...string) error {
	repository.operations = append(repository.operations, fmt.Sprintf("fetch %s %s", repositoryPath, remoteName))
	return nil
}

func (repository *fakePublishRepository) RemoteBranchExists(_ context.Context, _ string, _ string, _ string) (bool, error) {
	return repository.trackingExists, nil
}

func (repository *fakePublishRepository) MergeFavoringLocal(_ context.Context, repositoryPath string, reference string, message string) error {
	repository.operations = append(repository.operations, fmt.Sprintf("merge %s %s %q", repositoryPath, reference, message))
	return nil
}

func (repository *fakePublishRepository) Push(_ context.Context, repositoryPath string, remoteName string, refspec string) error {
	repository.operations = append(repository.operations, fmt.Sprintf("push %s %s %s", repositoryPath, remoteName, refspec))
	return repository.pushFailure
}

func (repository *fakePublishRepository) ListSubmodules(_ context.Context, _ string) ([]gitrepo.Submodule, error) {
	return repository.submodules, nil
}

type stubFetcher struct {
	requests []fetch.Options
	failure  error
}

func (fetcher *stubFetcher) Fetch(_ context.Context, options fetch.Options) (fetch.Outcome, error) {
	fetcher.requests = append(fetcher.requests, options)
	if fetcher.failure != nil {
		return fetch.OutcomeAbsent, fetcher.failure
	}
	return fetch.OutcomeFetched, nil
}

func publishOptions() publish.Options {
	return publish.Options{
		RepositoryPath: testRepositoryPathConstant,
		Owner:          testOwnerConstant,
		Branch:         testBranchConstant,
		Version:        testVersionConstant,
	}
}

func newCoordinator(testInstance *testing.T, repository *fakePublishRepository, fetcher *stubFetcher) *publish.Service {
	service, creationError := publish.NewService(publish.ServiceDependencies{Manager: repository, Fetcher: fetcher})
	require.NoError(testInstance, creationError)
	return service
}

func TestPublishPushesTagsAndBranch(testInstance *testing.T) {
	repository := newFakePublishRepository()
	fetcher := &stubFetcher{}
	service := newCoordinator(testInstance, repository, fetcher)

	require.NoError(testInstance, service.Publish(context.Background(), publishOptions()))

	require.Len(testInstance, fetcher.requests, 1)
	require.Equal(testInstance, testOwnerConstant, fetcher.requests[0].RemoteName)
	require.False(testInstance, fetcher.requests[0].TolerateAbsence)

	require.Equal(testInstance, []string{
		fmt.Sprintf("push %s acme v2.1", filepath.Join(testRepositoryPathConstant, "lib")),
		fmt.Sprintf("push %s acme v2.1", filepath.Join(testRepositoryPathConstant, "tools")),
		fmt.Sprintf("push %s acme HEAD:refs/heads/2.1/feature", testRepositoryPathConstant),
	}, repository.operations)
}

func TestPublishMergesTrackingBranchFavoringLocalSide(testInstance *testing.T) {
	repository := newFakePublishRepository()
	repository.trackingExists = true
	service := newCoordinator(testInstance, repository, &stubFetcher{})

	require.NoError(testInstance, service.Publish(context.Background(), publishOptions()))
	require.Equal(testInstance,
		fmt.Sprintf("merge %s refs/remotes/acme/2.1/feature %q", testRepositoryPathConstant, "Merge remote changelog history"),
		repository.operations[0])
}

func TestPublishStopsWhenOwnerFetchFails(testInstance *testing.T) {
	fetchFailure := fetch.PermissionError{Remote: testOwnerConstant, Cause: errors.New("denied")}
	repository := newFakePublishRepository()
	service := newCoordinator(testInstance, repository, &stubFetcher{failure: fetchFailure})

	publishError := service.Publish(context.Background(), publishOptions())
	var permissionError fetch.PermissionError
	require.ErrorAs(testInstance, publishError, &permissionError)
	require.Empty(testInstance, repository.operations)
}

func TestPublishPropagatesPushFailures(testInstance *testing.T) {
	repository := newFakePublishRepository()
	repository.pushFailure = errors.New("remote rejected")
	service := newCoordinator(testInstance, repository, &stubFetcher{})

	publishError := service.Publish(context.Background(), publishOptions())
	require.ErrorIs(testInstance, publishError, repository.pushFailure)
}

func TestNewServiceValidatesDependencies(testInstance *testing.T) {
	_, managerError := publish.NewService(publish.ServiceDependencies{Fetcher: &stubFetcher{}})
	require.ErrorIs(testInstance, managerError, publish.ErrManagerNotConfigured)

	_, fetcherError := publish.NewService(publish.ServiceDependencies{Manager: newFakePublishRepository()})
	require.ErrorIs(testInstance, fetcherError, publish.ErrFetcherNotConfigured)
}
