package branchname

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	referenceSeparatorConstant                = "/"
	versionSeparatorConstant                  = "."
	malformedReferenceMessageTemplateConstant = "branch reference %q matches neither the versioned nor the plain form"
	versionSegmentPatternConstant             = `^(\d+)\.(\d+)$`
)

var versionSegmentPattern = regexp.MustCompile(versionSegmentPatternConstant)

// ReferenceKind discriminates the recognized branch reference shapes.
type ReferenceKind int

// Recognized reference shapes.
const (
	ReferenceKindInvalid ReferenceKind = iota
	ReferenceKindVersioned
	ReferenceKindPlain
)

// VersionedBranch describes a remote/<major>.<minor>/<suffix> reference.
type VersionedBranch struct {
	Remote       string
	MajorVersion int
	MinorVersion int
	Suffix       string
}

// Version renders the embedded <major>.<minor> token.
func (branch VersionedBranch) Version() string {
	return fmt.Sprintf("%d%s%d", branch.MajorVersion, versionSeparatorConstant, branch.MinorVersion)
}

// PlainBranch describes a remote/<name> reference without an embedded version.
type PlainBranch struct {
	Remote string
	Name   string
}

// Reference is the typed result of parsing a resolved remote/branch string.
type Reference struct {
	Kind      ReferenceKind
	Versioned VersionedBranch
	Plain     PlainBranch
}

// MalformedReferenceError indicates a reference string outside the recognized grammar.
type MalformedReferenceError struct {
	Reference string
}

// Error names the offending reference.
func (parseError MalformedReferenceError) Error() string {
	return fmt.Sprintf(malformedReferenceMessageTemplateConstant, parseError.Reference)
}

// Parse classifies a resolved remote/branch string into its typed variant.
//
// The versioned form has exactly three slash-separated segments with a bare
// <major>.<minor> number in the middle. The plain form has exactly two
// segments. Everything else is invalid.
func Parse(reference string) (Reference, error) {
	trimmedReference := strings.TrimSpace(reference)
	segments := strings.Split(trimmedReference, referenceSeparatorConstant)

	switch len(segments) {
	case 3:
		versionMatch := versionSegmentPattern.FindStringSubmatch(segments[1])
		if versionMatch == nil {
			return Reference{}, MalformedReferenceError{Reference: reference}
		}
		if len(segments[0]) == 0 || len(segments[2]) == 0 {
			return Reference{}, MalformedReferenceError{Reference: reference}
		}
		majorVersion, majorParseError := strconv.Atoi(versionMatch[1])
		if majorParseError != nil {
			return Reference{}, MalformedReferenceError{Reference: reference}
		}
		minorVersion, minorParseError := strconv.Atoi(versionMatch[2])
		if minorParseError != nil {
			return Reference{}, MalformedReferenceError{Reference: reference}
		}
		return Reference{
			Kind: ReferenceKindVersioned,
			Versioned: VersionedBranch{
				Remote:       segments[0],
				MajorVersion: majorVersion,
				MinorVersion: minorVersion,
				Suffix:       segments[2],
			},
		}, nil
	case 2:
		if len(segments[0]) == 0 || len(segments[1]) == 0 {
			return Reference{}, MalformedReferenceError{Reference: reference}
		}
		return Reference{
			Kind:  ReferenceKindPlain,
			Plain: PlainBranch{Remote: segments[0], Name: segments[1]},
		}, nil
	default:
		return Reference{}, MalformedReferenceError{Reference: reference}
	}
}
