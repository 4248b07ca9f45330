package fetch

import (
	"errors"
	"strings"

	"github.com/karpov/subpin/internal/execshell"
)

// FailureKind partitions fetch failures by their retry semantics.
type FailureKind int

// Recognized failure kinds.
const (
	FailureKindTransient FailureKind = iota
	FailureKindAbsent
	FailureKindPermission
)

// Classify inspects a fetch failure and decides whether it is retryable.
//
// Classification reads the git error output: missing repositories and missing
// refs are terminal but potentially tolerable, authorization failures are
// terminal and fatal, and everything else is assumed transient.
func Classify(failure error) FailureKind {
	failureText := strings.ToLower(failure.Error())

	commandFailure := execshell.CommandFailedError{}
	if errors.As(failure, &commandFailure) {
		failureText = strings.ToLower(commandFailure.Result.StandardError)
	}

	for _, absenceMarker := range absentResourceMarkers {
		if strings.Contains(failureText, absenceMarker) {
			return FailureKindAbsent
		}
	}
	for _, permissionMarker := range permissionDeniedMarkers {
		if strings.Contains(failureText, permissionMarker) {
			return FailureKindPermission
		}
	}
	return FailureKindTransient
}
