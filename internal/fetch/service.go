package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultAttemptLimitConstant   = 10
	defaultBackoffSecondsConstant = 10

	managerNotConfiguredMessageConstant = "repository manager not configured"
	remoteRequiredMessageConstant       = "remote name must be provided"
	permissionDeniedTemplateConstant    = "fetch from %s denied: %v"
	absentResourceTemplateConstant      = "fetch target %s does not exist: %v"
	attemptsExhaustedTemplateConstant   = "fetch from %s failed after %d attempts: %v"
	retryLogMessageConstant             = "fetch attempt failed, retrying"
	logFieldRemoteNameConstant          = "remote_name"
	logFieldAttemptNumberConstant       = "attempt_number"
	logFieldBackoffSecondsConstant      = "backoff_seconds"
)

// Classification failure markers inspected in git error output.
var (
	absentResourceMarkers   = []string{"repository not found", "couldn't find remote ref", "remote ref does not exist", "not found"}
	permissionDeniedMarkers = []string{"permission denied", "access denied", "authentication failed"}
)

// ErrManagerNotConfigured indicates the fetcher was built without a repository manager.
var ErrManagerNotConfigured = errors.New(managerNotConfiguredMessageConstant)

// ErrRemoteRequired indicates the fetch target remote was empty.
var ErrRemoteRequired = errors.New(remoteRequiredMessageConstant)

// PermissionError reports a fetch rejected for authorization reasons; it is never retried.
type PermissionError struct {
	Remote string
	Cause  error
}

// Error describes the denied fetch.
func (failure PermissionError) Error() string {
	return fmt.Sprintf(permissionDeniedTemplateConstant, failure.Remote, failure.Cause)
}

// Unwrap exposes the underlying cause.
func (failure PermissionError) Unwrap() error {
	return failure.Cause
}

// AbsentResourceError reports a fetch target that does not exist; call sites decide
// whether absence is tolerable.
type AbsentResourceError struct {
	Remote string
	Cause  error
}

// Error describes the missing target.
func (failure AbsentResourceError) Error() string {
	return fmt.Sprintf(absentResourceTemplateConstant, failure.Remote, failure.Cause)
}

// Unwrap exposes the underlying cause.
func (failure AbsentResourceError) Unwrap() error {
	return failure.Cause
}

// AttemptsExhaustedError reports a fetch that stayed transiently broken through every retry.
type AttemptsExhaustedError struct {
	Remote   string
	Attempts int
	Cause    error
}

// Error describes the exhausted retry budget.
func (failure AttemptsExhaustedError) Error() string {
	return fmt.Sprintf(attemptsExhaustedTemplateConstant, failure.Remote, failure.Attempts, failure.Cause)
}

// Unwrap exposes the underlying cause.
func (failure AttemptsExhaustedError) Unwrap() error {
	return failure.Cause
}

// Outcome reports how a tolerant fetch concluded.
type Outcome int

// Tolerant fetch outcomes.
const (
	OutcomeFetched Outcome = iota
	OutcomeAbsent
)

// RemoteFetcher abstracts the underlying fetch capability.
type RemoteFetcher interface {
	Fetch(executionContext context.Context, repositoryPath string, remoteName string, refspecs ...string) error
}

// Delayer suspends the calling task between retry attempts.
type Delayer func(executionContext context.Context, delay time.Duration)

// Options configures a resilient fetch request.
type Options struct {
	RepositoryPath  string
	RemoteName      string
	Refspecs        []string
	TolerateAbsence bool
}

// Service retries remote fetches against transient failures while classifying
// terminal ones.
type Service struct {
	manager      RemoteFetcher
	logger       *zap.Logger
	attemptLimit int
	backoff      time.Duration
	delay        Delayer
}

// ServiceDependencies enumerates collaborators and tuning knobs for the fetch service.
type ServiceDependencies struct {
	Manager        RemoteFetcher
	Logger         *zap.Logger
	AttemptLimit   int
	BackoffSeconds int
	Delayer        Delayer
}

// NewService constructs a fetch service applying defaults for unset tuning values.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Manager == nil {
		return nil, ErrManagerNotConfigured
	}

	attemptLimit := dependencies.AttemptLimit
	if attemptLimit <= 0 {
		attemptLimit = defaultAttemptLimitConstant
	}

	backoffSeconds := dependencies.BackoffSeconds
	if backoffSeconds <= 0 {
		backoffSeconds = defaultBackoffSecondsConstant
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	delayer := dependencies.Delayer
	if delayer == nil {
		delayer = sleepDelayer
	}

	return &Service{
		manager:      dependencies.Manager,
		logger:       logger,
		attemptLimit: attemptLimit,
		backoff:      time.Duration(backoffSeconds) * time.Second,
		delay:        delayer,
	}, nil
}

// Fetch attempts the configured fetch, retrying transient failures with a fixed
// backoff. Absent targets end the retry loop immediately: they produce
// OutcomeAbsent when tolerated and an AbsentResourceError otherwise. Permission
// failures are fatal on the first attempt.
func (service *Service) Fetch(executionContext context.Context, options Options) (Outcome, error) {
	trimmedRemoteName := strings.TrimSpace(options.RemoteName)
	if len(trimmedRemoteName) == 0 {
		return OutcomeAbsent, ErrRemoteRequired
	}

	var lastFailure error
	for attemptNumber := 1; attemptNumber <= service.attemptLimit; attemptNumber++ {
		fetchError := service.manager.Fetch(executionContext, options.RepositoryPath, trimmedRemoteName, options.Refspecs...)
		if fetchError == nil {
			return OutcomeFetched, nil
		}

		switch Classify(fetchError) {
		case FailureKindAbsent:
			if options.TolerateAbsence {
				return OutcomeAbsent, nil
			}
			return OutcomeAbsent, AbsentResourceError{Remote: trimmedRemoteName, Cause: fetchError}
		case FailureKindPermission:
			return OutcomeAbsent, PermissionError{Remote: trimmedRemoteName, Cause: fetchError}
		}

		lastFailure = fetchError
		if attemptNumber == service.attemptLimit {
			break
		}

		service.logger.Warn(
			retryLogMessageConstant,
			zap.String(logFieldRemoteNameConstant, trimmedRemoteName),
			zap.Int(logFieldAttemptNumberConstant, attemptNumber),
			zap.Float64(logFieldBackoffSecondsConstant, service.backoff.Seconds()),
			zap.Error(fetchError),
		)
		service.delay(executionContext, service.backoff)
	}

	return OutcomeAbsent, AttemptsExhaustedError{Remote: trimmedRemoteName, Attempts: service.attemptLimit, Cause: lastFailure}
}

func sleepDelayer(executionContext context.Context, delay time.Duration) {
	backoffTimer := time.NewTimer(delay)
	defer backoffTimer.Stop()
	select {
	case <-executionContext.Done():
	case <-backoffTimer.C:
	}
}
