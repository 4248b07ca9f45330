package release

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/karpov/subpin/internal/execshell"
	"github.com/karpov/subpin/internal/gitrepo"
)

const (
	fromTagNameConstant        = "from"
	toTagNameConstant          = "to"
	versionTagTemplateConstant = "v%s"

	interimCommitMessageConstant      = "interim commit before changelog recording"
	versionTagMessageTemplateConstant = "release %s"

	sectionHeaderTemplateConstant = "=== %s ===\n"
	branchListHeaderConstant      = "Branches:\n"
	branchLineTemplateConstant    = "  %s\n"
	sectionSeparatorConstant      = "\n"

	managerNotConfiguredMessageConstant    = "release recorder requires a repository manager"
	toolRunnerNotConfiguredMessageConstant = "release recorder requires a tool runner"
	formatterRequiredMessageConstant       = "formatter command must be provided"
	emptyCommitMessageConstant             = "changelog commit creation produced no commit identifier"
	partialHistoryWarningMessageConstant   = "recorded submodule revision is unreachable, changelog may be inaccurate"
	logFieldSubmoduleNameConstant          = "submodule"
	logFieldRevisionConstant               = "revision"
)

// ErrManagerNotConfigured indicates the recorder was built without a repository manager.
var ErrManagerNotConfigured = errors.New(managerNotConfiguredMessageConstant)

// ErrToolRunnerNotConfigured indicates the recorder was built without a tool runner.
var ErrToolRunnerNotConfigured = errors.New(toolRunnerNotConfiguredMessageConstant)

// ErrFormatterRequired indicates a release recording without a formatter command.
var ErrFormatterRequired = errors.New(formatterRequiredMessageConstant)

// ErrEmptyCommitIdentifier indicates commit-tree produced no output.
var ErrEmptyCommitIdentifier = errors.New(emptyCommitMessageConstant)

// RepositoryService exposes the repository operations the recorder drives.
type RepositoryService interface {
	DiscardLocalChanges(executionContext context.Context, repositoryPath string) error
	CreateEmptyCommit(executionContext context.Context, repositoryPath string, message string) error
	ForceCreateTag(executionContext context.Context, repositoryPath string, tagName string, revision string) error
	DeleteTag(executionContext context.Context, repositoryPath string, tagName string) error
	CreateAnnotatedTag(executionContext context.Context, repositoryPath string, tagName string, message string) error
	CheckoutReference(executionContext context.Context, repositoryPath string, reference string) error
	HardReset(executionContext context.Context, repositoryPath string, reference string) error
	ListSubmodules(executionContext context.Context, repositoryPath string) ([]gitrepo.Submodule, error)
	RecordedSubmoduleRevision(executionContext context.Context, repositoryPath string, revision string, submodulePath string) (string, error)
	BranchesContaining(executionContext context.Context, repositoryPath string, revision string) ([]string, error)
	HistoryWithStats(executionContext context.Context, repositoryPath string, baseRevision string, targetRevision string) (string, error)
	TreeOfRevision(executionContext context.Context, repositoryPath string, revision string) (string, error)
	CreateCommitFromTree(executionContext context.Context, repositoryPath string, treeIdentifier string, parentRevisions []string, message string) (string, error)
	ResolveRevision(executionContext context.Context, repositoryPath string, reference string) (string, error)
	RemoteBranchExists(executionContext context.Context, repositoryPath string, remoteName string, branchName string) (bool, error)
}

// ToolRunner executes the external changelog formatter.
type ToolRunner interface {
	ExecuteTool(executionContext context.Context, toolName execshell.CommandName, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Options configures one release recording.
type Options struct {
	RepositoryPath   string
	FromRevision     string
	ToRevision       string
	Owner            string
	Branch           string
	Version          string
	FormatterCommand string
}

// Service records changelog commits linking two pinned repository states.
type Service struct {
	logger  *zap.Logger
	manager RepositoryService
	tools   ToolRunner
}

// ServiceDependencies enumerates the recorder collaborators.
type ServiceDependencies struct {
	Logger  *zap.Logger
	Manager RepositoryService
	Tools   ToolRunner
}

// NewService constructs a release recorder after validating its dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Manager == nil {
		return nil, ErrManagerNotConfigured
	}
	if dependencies.Tools == nil {
		return nil, ErrToolRunnerNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{logger: logger, manager: dependencies.Manager, tools: dependencies.Tools}, nil
}

// Material collects the raw per-submodule changelog text between two parent revisions.
//
// Submodules are visited in registration order so the concatenation is
// reproducible across builds. Each section carries the remote branches
// containing the later recorded revision and the stat-annotated history
// strictly between the two recorded revisions.
func (service *Service) Material(executionContext context.Context, options Options) (string, error) {
	submodules, listError := service.manager.ListSubmodules(executionContext, options.RepositoryPath)
	if listError != nil {
		return "", listError
	}

	sections := &strings.Builder{}
	for _, submodule := range submodules {
		submodulePath := filepath.Join(options.RepositoryPath, submodule.Path)

		baseRevision, baseError := service.manager.RecordedSubmoduleRevision(executionContext, options.RepositoryPath, options.FromRevision, submodule.Path)
		if baseError != nil {
			return "", baseError
		}
		targetRevision, targetError := service.manager.RecordedSubmoduleRevision(executionContext, options.RepositoryPath, options.ToRevision, submodule.Path)
		if targetError != nil {
			return "", targetError
		}

		containingBranches, branchesError := service.manager.BranchesContaining(executionContext, submodulePath, targetRevision)
		if branchesError != nil {
			return "", branchesError
		}
		history, historyError := service.manager.HistoryWithStats(executionContext, submodulePath, baseRevision, targetRevision)
		if historyError != nil {
			return "", historyError
		}

		fmt.Fprintf(sections, sectionHeaderTemplateConstant, submodule.Name)
		sections.WriteString(branchListHeaderConstant)
		for _, branchName := range containingBranches {
			fmt.Fprintf(sections, branchLineTemplateConstant, branchName)
		}
		sections.WriteString(history)
		sections.WriteString(sectionSeparatorConstant)
	}
	return sections.String(), nil
}

// Record runs the full release procedure between two parent revisions.
//
// The resulting commit reuses the target revision's exact tree; only the
// parent set and the message differ, so recording a release never alters
// file content.
func (service *Service) Record(executionContext context.Context, options Options) error {
	if len(strings.TrimSpace(options.FormatterCommand)) == 0 {
		return ErrFormatterRequired
	}

	submodules, listError := service.manager.ListSubmodules(executionContext, options.RepositoryPath)
	if listError != nil {
		return listError
	}

	if discardError := service.discardEverywhere(executionContext, options.RepositoryPath, submodules); discardError != nil {
		return discardError
	}

	if commitError := service.manager.CreateEmptyCommit(executionContext, options.RepositoryPath, interimCommitMessageConstant); commitError != nil {
		return commitError
	}
	if tagError := service.manager.ForceCreateTag(executionContext, options.RepositoryPath, toTagNameConstant, options.ToRevision); tagError != nil {
		return tagError
	}
	if tagError := service.manager.ForceCreateTag(executionContext, options.RepositoryPath, fromTagNameConstant, options.FromRevision); tagError != nil {
		return tagError
	}

	if restoreError := service.restoreState(executionContext, options.RepositoryPath, submodules, fromTagNameConstant, true); restoreError != nil {
		return restoreError
	}
	if restoreError := service.restoreState(executionContext, options.RepositoryPath, submodules, toTagNameConstant, false); restoreError != nil {
		return restoreError
	}

	material, materialError := service.Material(executionContext, Options{
		RepositoryPath: options.RepositoryPath,
		FromRevision:   fromTagNameConstant,
		ToRevision:     toTagNameConstant,
	})
	if materialError != nil {
		return materialError
	}

	formatted, formatError := service.tools.ExecuteTool(executionContext, execshell.CommandName(options.FormatterCommand), execshell.CommandDetails{
		Arguments:        []string{options.Owner, options.Version},
		WorkingDirectory: options.RepositoryPath,
		StandardInput:    []byte(material),
	})
	if formatError != nil {
		return formatError
	}

	changelogCommit, commitError := service.createChangelogCommit(executionContext, options, formatted.StandardOutput)
	if commitError != nil {
		return commitError
	}

	if resetError := service.manager.HardReset(executionContext, options.RepositoryPath, changelogCommit); resetError != nil {
		return resetError
	}
	if deleteError := service.manager.DeleteTag(executionContext, options.RepositoryPath, fromTagNameConstant); deleteError != nil {
		return deleteError
	}
	if deleteError := service.manager.DeleteTag(executionContext, options.RepositoryPath, toTagNameConstant); deleteError != nil {
		return deleteError
	}

	versionTagName := fmt.Sprintf(versionTagTemplateConstant, options.Version)
	versionTagMessage := fmt.Sprintf(versionTagMessageTemplateConstant, versionTagName)
	for _, submodule := range submodules {
		submodulePath := filepath.Join(options.RepositoryPath, submodule.Path)
		if tagError := service.manager.CreateAnnotatedTag(executionContext, submodulePath, versionTagName, versionTagMessage); tagError != nil {
			return tagError
		}
	}
	return nil
}

func (service *Service) discardEverywhere(executionContext context.Context, repositoryPath string, submodules []gitrepo.Submodule) error {
	if discardError := service.manager.DiscardLocalChanges(executionContext, repositoryPath); discardError != nil {
		return discardError
	}
	for _, submodule := range submodules {
		submodulePath := filepath.Join(repositoryPath, submodule.Path)
		if discardError := service.manager.DiscardLocalChanges(executionContext, submodulePath); discardError != nil {
			return discardError
		}
	}
	return nil
}

// restoreState checks out a tagged parent state and resets every submodule to
// the commit the parent tree records there. The earlier state tolerates
// unreachable submodule commits with a warning; the later state must restore
// exactly.
func (service *Service) restoreState(executionContext context.Context, repositoryPath string, submodules []gitrepo.Submodule, tagName string, tolerateMissing bool) error {
	if checkoutError := service.manager.CheckoutReference(executionContext, repositoryPath, tagName); checkoutError != nil {
		return checkoutError
	}

	for _, submodule := range submodules {
		submodulePath := filepath.Join(repositoryPath, submodule.Path)
		recordedRevision, recordedError := service.manager.RecordedSubmoduleRevision(executionContext, repositoryPath, tagName, submodule.Path)
		if recordedError == nil {
			recordedError = service.manager.HardReset(executionContext, submodulePath, recordedRevision)
		}
		if recordedError != nil {
			if !tolerateMissing {
				return recordedError
			}
			service.logger.Warn(
				partialHistoryWarningMessageConstant,
				zap.String(logFieldSubmoduleNameConstant, submodule.Name),
				zap.String(logFieldRevisionConstant, recordedRevision),
				zap.Error(recordedError),
			)
		}
	}
	return nil
}

func (service *Service) createChangelogCommit(executionContext context.Context, options Options, message string) (string, error) {
	treeIdentifier, treeError := service.manager.TreeOfRevision(executionContext, options.RepositoryPath, toTagNameConstant)
	if treeError != nil {
		return "", treeError
	}

	fromCommit, fromError := service.manager.ResolveRevision(executionContext, options.RepositoryPath, fromTagNameConstant)
	if fromError != nil {
		return "", fromError
	}
	toCommit, toError := service.manager.ResolveRevision(executionContext, options.RepositoryPath, toTagNameConstant)
	if toError != nil {
		return "", toError
	}

	parentRevisions := []string{fromCommit, toCommit}
	trackingExists, trackingError := service.manager.RemoteBranchExists(executionContext, options.RepositoryPath, options.Owner, options.Branch)
	if trackingError != nil {
		return "", trackingError
	}
	if trackingExists {
		parentRevisions = append(parentRevisions, gitrepo.RemoteTrackingReference(options.Owner, options.Branch))
	}

	changelogCommit, commitError := service.manager.CreateCommitFromTree(executionContext, options.RepositoryPath, treeIdentifier, parentRevisions, message)
	if commitError != nil {
		return "", commitError
	}
	if len(strings.TrimSpace(changelogCommit)) == 0 {
		return "", ErrEmptyCommitIdentifier
	}
	return strings.TrimSpace(changelogCommit), nil
}
