package pinstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	recordDirectoryNameConstant           = "subpin"
	recordFileNameConstant                = "pins.yaml"
	gitDirectoryNameConstant              = ".git"
	recordFilePermissionsConstant         = 0o644
	recordDirectoryPermissionsConstant    = 0o755
	repositoryPathRequiredMessageConstant = "repository path must be provided"
	submoduleNameRequiredMessageConstant  = "submodule name must be provided"
	revisionRequiredMessageConstant       = "revision must be provided"
	recordReadErrorTemplateConstant       = "failed to read pin record: %w"
	recordParseErrorTemplateConstant      = "failed to parse pin record: %w"
	recordWriteErrorTemplateConstant      = "failed to write pin record: %w"
)

// ErrRepositoryPathRequired indicates the store was built without a repository path.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrSubmoduleNameRequired indicates a pin operation omitted the submodule name.
var ErrSubmoduleNameRequired = errors.New(submoduleNameRequiredMessageConstant)

// ErrRevisionRequired indicates a pin operation omitted the revision.
var ErrRevisionRequired = errors.New(revisionRequiredMessageConstant)

type pinRecord struct {
	Pins map[string]string `yaml:"pins"`
}

// Store persists the submodule pin mapping for one parent repository.
//
// The record lives under the repository's .git directory so updating pins
// never dirties the working tree.
type Store struct {
	recordPath string
}

// NewStore constructs a Store for the provided parent repository.
func NewStore(repositoryPath string) (*Store, error) {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return nil, ErrRepositoryPathRequired
	}
	return &Store{
		recordPath: filepath.Join(trimmedRepositoryPath, gitDirectoryNameConstant, recordDirectoryNameConstant, recordFileNameConstant),
	}, nil
}

// Pins returns the complete pin mapping, empty when no record exists.
func (store *Store) Pins() (map[string]string, error) {
	record, loadError := store.load()
	if loadError != nil {
		return nil, loadError
	}
	return record.Pins, nil
}

// Pin returns the pinned revision for a submodule when one is recorded.
func (store *Store) Pin(submoduleName string) (string, bool, error) {
	record, loadError := store.load()
	if loadError != nil {
		return "", false, loadError
	}
	revision, pinExists := record.Pins[submoduleName]
	return revision, pinExists, nil
}

// Replace discards any previous pin for the submodule and records the revision.
// An update always fully replaces the prior pin; pins are never merged.
func (store *Store) Replace(submoduleName string, revision string) error {
	trimmedSubmoduleName := strings.TrimSpace(submoduleName)
	if len(trimmedSubmoduleName) == 0 {
		return ErrSubmoduleNameRequired
	}

	trimmedRevision := strings.TrimSpace(revision)
	if len(trimmedRevision) == 0 {
		return ErrRevisionRequired
	}

	record, loadError := store.load()
	if loadError != nil {
		return loadError
	}

	delete(record.Pins, trimmedSubmoduleName)
	record.Pins[trimmedSubmoduleName] = trimmedRevision
	return store.save(record)
}

// SubmoduleNames returns the recorded submodule names in deterministic order.
func (store *Store) SubmoduleNames() ([]string, error) {
	record, loadError := store.load()
	if loadError != nil {
		return nil, loadError
	}

	submoduleNames := make([]string, 0, len(record.Pins))
	for submoduleName := range record.Pins {
		submoduleNames = append(submoduleNames, submoduleName)
	}
	sort.Strings(submoduleNames)
	return submoduleNames, nil
}

func (store *Store) load() (pinRecord, error) {
	record := pinRecord{Pins: map[string]string{}}

	recordContent, readError := os.ReadFile(store.recordPath)
	if readError != nil {
		if errors.Is(readError, os.ErrNotExist) {
			return record, nil
		}
		return record, fmt.Errorf(recordReadErrorTemplateConstant, readError)
	}

	if unmarshalError := yaml.Unmarshal(recordContent, &record); unmarshalError != nil {
		return record, fmt.Errorf(recordParseErrorTemplateConstant, unmarshalError)
	}
	if record.Pins == nil {
		record.Pins = map[string]string{}
	}
	return record, nil
}

func (store *Store) save(record pinRecord) error {
	recordContent, marshalError := yaml.Marshal(record)
	if marshalError != nil {
		return fmt.Errorf(recordWriteErrorTemplateConstant, marshalError)
	}

	if directoryError := os.MkdirAll(filepath.Dir(store.recordPath), recordDirectoryPermissionsConstant); directoryError != nil {
		return fmt.Errorf(recordWriteErrorTemplateConstant, directoryError)
	}
	if writeError := os.WriteFile(store.recordPath, recordContent, recordFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(recordWriteErrorTemplateConstant, writeError)
	}
	return nil
}
