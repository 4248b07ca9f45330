package syncer

import (
	"go.uber.org/zap"

	"github.com/karpov/subpin/internal/fetch"
	"github.com/karpov/subpin/internal/settings"
)

// NewConfiguredService wires a synchronizer whose resilient fetcher is tuned
// from the sanitized settings.
func NewConfiguredService(logger *zap.Logger, manager RepositoryService, configuration settings.Configuration) (*Service, error) {
	if manager == nil {
		return nil, ErrManagerNotConfigured
	}

	fetchService, fetchError := fetch.NewService(fetch.ServiceDependencies{
		Manager:        manager,
		Logger:         logger,
		AttemptLimit:   configuration.FetchAttempts,
		BackoffSeconds: configuration.FetchBackoffSeconds,
	})
	if fetchError != nil {
		return nil, fetchError
	}

	return NewService(ServiceDependencies{Logger: logger, Manager: manager, Fetcher: fetchService})
}
