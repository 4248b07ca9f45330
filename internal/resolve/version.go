package resolve

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/karpov/subpin/internal/branchname"
)

const (
	describerNotConfiguredMessageConstant  = "version extractor requires a tag describer"
	versionNotFoundMessageTemplateConstant = "no release version is derivable from %q"
	versionTagPatternConstant              = "bump-*"
	versionTagPrefixPatternConstant        = `^bump-(\d+\.\d+)`
)

// ErrDescriberNotConfigured indicates the extractor was built without a tag describer.
var ErrDescriberNotConfigured = errors.New(describerNotConfiguredMessageConstant)

var versionTagPrefixPattern = regexp.MustCompile(versionTagPrefixPatternConstant)

// TagDescriber locates the nearest tag matching a pattern from a reference.
type TagDescriber interface {
	DescribeNearestTag(executionContext context.Context, repositoryPath string, pattern string, reference string) (string, error)
}

// VersionNotFoundError indicates a plain branch without a reachable version tag.
type VersionNotFoundError struct {
	Reference string
	Cause     error
}

// Error names the reference that yielded no version.
func (versionError VersionNotFoundError) Error() string {
	return fmt.Sprintf(versionNotFoundMessageTemplateConstant, versionError.Reference)
}

// Unwrap exposes the underlying describe failure when one occurred.
func (versionError VersionNotFoundError) Unwrap() error {
	return versionError.Cause
}

// VersionExtractor derives the release version for a resolved branch reference.
type VersionExtractor struct {
	describer TagDescriber
}

// NewVersionExtractor constructs a VersionExtractor after validating its dependency.
func NewVersionExtractor(describer TagDescriber) (*VersionExtractor, error) {
	if describer == nil {
		return nil, ErrDescriberNotConfigured
	}
	return &VersionExtractor{describer: describer}, nil
}

// Extract returns the <major>.<minor> version carried by the reference.
//
// Versioned references answer from their embedded version segment without
// touching the repository. Plain references fall back to the nearest
// reachable bump tag; the tag name may carry a trailer after the numeric
// version and only the numeric prefix is kept.
func (extractor *VersionExtractor) Extract(executionContext context.Context, repositoryPath string, resolvedReference string) (string, error) {
	parsedReference, parseError := branchname.Parse(resolvedReference)
	if parseError != nil {
		return "", parseError
	}

	if parsedReference.Kind == branchname.ReferenceKindVersioned {
		return parsedReference.Versioned.Version(), nil
	}

	nearestTag, describeError := extractor.describer.DescribeNearestTag(executionContext, repositoryPath, versionTagPatternConstant, resolvedReference)
	if describeError != nil {
		return "", VersionNotFoundError{Reference: resolvedReference, Cause: describeError}
	}

	versionMatch := versionTagPrefixPattern.FindStringSubmatch(nearestTag)
	if versionMatch == nil {
		return "", VersionNotFoundError{Reference: resolvedReference}
	}
	return versionMatch[1], nil
}
