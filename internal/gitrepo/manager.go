package gitrepo

import (
	"context"
	"errors"
	"strings"

	"github.com/karpov/subpin/internal/execshell"
)

const (
	executorNotConfiguredMessageConstant = "git executor not configured"

	statusSubcommandConstant        = "status"
	statusPorcelainFlagConstant     = "--porcelain"
	revParseSubcommandConstant      = "rev-parse"
	revParseVerifyFlagConstant      = "--verify"
	revParseQuietFlagConstant       = "--quiet"
	remoteSubcommandConstant        = "remote"
	remoteAddSubcommandConstant     = "add"
	remoteRemoveSubcommandConstant  = "remove"
	fetchSubcommandConstant         = "fetch"
	fetchQuietFlagConstant          = "--quiet"
	checkoutSubcommandConstant      = "checkout"
	checkoutForceFlagConstant       = "--force"
	resetSubcommandConstant         = "reset"
	resetHardFlagConstant           = "--hard"
	cleanSubcommandConstant         = "clean"
	cleanForceDirectoriesConstant   = "-fd"
	cleanIncludeIgnoredConstant     = "-fdx"
	commitSubcommandConstant        = "commit"
	commitAllowEmptyFlagConstant    = "--allow-empty"
	commitMessageFlagConstant       = "-m"
	tagSubcommandConstant           = "tag"
	tagForceFlagConstant            = "--force"
	tagDeleteFlagConstant           = "--delete"
	tagAnnotateFlagConstant         = "--annotate"
	describeSubcommandConstant      = "describe"
	describeTagsFlagConstant        = "--tags"
	describeAbbrevZeroFlagConstant  = "--abbrev=0"
	describeMatchFlagConstant       = "--match"
	submoduleSubcommandConstant     = "submodule"
	submoduleSyncSubcommandConstant = "sync"
	submoduleUpdateConstant         = "update"
	submoduleInitFlagConstant       = "--init"
	submoduleRecursiveFlagConstant  = "--recursive"
	configSubcommandConstant        = "config"
	configFileFlagConstant          = "--file"
	configGetRegexpFlagConstant     = "--get-regexp"
	gitmodulesFileNameConstant      = ".gitmodules"
	submodulePathPatternConstant    = `^submodule\..*\.path$`
	submoduleKeyPrefixConstant      = "submodule."
	submodulePathKeySuffixConstant  = ".path"
	submoduleURLKeyTemplateConstant = "submodule.%s.url"
	branchSubcommandConstant        = "branch"
	branchRemotesFlagConstant       = "--remotes"
	branchContainsFlagConstant      = "--contains"
	symbolicPointerMarkerConstant   = "->"
	logSubcommandConstant           = "log"
	logStatFlagConstant             = "--stat"
	revisionRangeTemplateConstant   = "%s..%s"
	commitTreeSubcommandConstant    = "commit-tree"
	commitTreeParentFlagConstant    = "-p"
	treeSuffixConstant              = "^{tree}"
	gitlinkTemplateConstant         = "%s:%s"
	pushSubcommandConstant          = "push"
	mergeSubcommandConstant         = "merge"
	mergeStrategyOptionFlagConstant = "--strategy-option"
	mergeFavorLocalOptionConstant   = "ours"
	mergeNoEditFlagConstant         = "--no-edit"
	headReferenceConstant           = "HEAD"
)

// ErrExecutorNotConfigured indicates the repository manager was built without an executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// GitExecutor exposes the subset of shell execution used by the repository manager.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Submodule describes one registered submodule of a parent repository.
type Submodule struct {
	Name string
	Path string
	URL  string
}

// RepositoryManager performs git operations against a repository working tree.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager around the provided executor.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// CheckCleanWorktree reports whether the repository has no pending modifications.
func (manager *RepositoryManager) CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error) {
	result, executionError := manager.run(executionContext, repositoryPath, statusSubcommandConstant, statusPorcelainFlagConstant)
	if executionError != nil {
		return false, executionError
	}
	return len(strings.TrimSpace(result.StandardOutput)) == 0, nil
}

// ResolveRevision resolves a reference to its commit identifier.
func (manager *RepositoryManager) ResolveRevision(executionContext context.Context, repositoryPath string, reference string) (string, error) {
	result, executionError := manager.run(executionContext, repositoryPath, revParseSubcommandConstant, revParseVerifyFlagConstant, revParseQuietFlagConstant, reference)
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(result.StandardOutput), nil
}

// RemoteBranchExists reports whether a remote-tracking reference is known locally.
func (manager *RepositoryManager) RemoteBranchExists(executionContext context.Context, repositoryPath string, remoteName string, branchName string) (bool, error) {
	trackingReference := RemoteTrackingReference(remoteName, branchName)
	_, executionError := manager.run(executionContext, repositoryPath, revParseSubcommandConstant, revParseVerifyFlagConstant, revParseQuietFlagConstant, trackingReference)
	if executionError != nil {
		commandFailure := execshell.CommandFailedError{}
		if errors.As(executionError, &commandFailure) {
			return false, nil
		}
		return false, executionError
	}
	return true, nil
}

// ListRemotes returns the names of every configured remote.
func (manager *RepositoryManager) ListRemotes(executionContext context.Context, repositoryPath string) ([]string, error) {
	result, executionError := manager.run(executionContext, repositoryPath, remoteSubcommandConstant)
	if executionError != nil {
		return nil, executionError
	}
	return splitNonEmptyLines(result.StandardOutput), nil
}

// AddRemote registers a remote under the provided name.
func (manager *RepositoryManager) AddRemote(executionContext context.Context, repositoryPath string, remoteName string, remoteAddress string) error {
	_, executionError := manager.run(executionContext, repositoryPath, remoteSubcommandConstant, remoteAddSubcommandConstant, remoteName, remoteAddress)
	return executionError
}

// RemoveRemote deletes a remote and its remote-tracking references.
func (manager *RepositoryManager) RemoveRemote(executionContext context.Context, repositoryPath string, remoteName string) error {
	_, executionError := manager.run(executionContext, repositoryPath, remoteSubcommandConstant, remoteRemoveSubcommandConstant, remoteName)
	return executionError
}

// Fetch updates remote-tracking references from the named remote, optionally scoped to refspecs.
func (manager *RepositoryManager) Fetch(executionContext context.Context, repositoryPath string, remoteName string, refspecs ...string) error {
	arguments := append([]string{fetchSubcommandConstant, fetchQuietFlagConstant, remoteName}, refspecs...)
	_, executionError := manager.run(executionContext, repositoryPath, arguments...)
	return executionError
}

// CheckoutReference forcefully checks out the provided reference.
func (manager *RepositoryManager) CheckoutReference(executionContext context.Context, repositoryPath string, reference string) error {
	_, executionError := manager.run(executionContext, repositoryPath, checkoutSubcommandConstant, checkoutForceFlagConstant, reference)
	return executionError
}

// HardReset resets the working tree and index to the provided reference.
func (manager *RepositoryManager) HardReset(executionContext context.Context, repositoryPath string, reference string) error {
	_, executionError := manager.run(executionContext, repositoryPath, resetSubcommandConstant, resetHardFlagConstant, reference)
	return executionError
}

// RemoveUntracked deletes untracked files and directories, optionally including ignored entries.
func (manager *RepositoryManager) RemoveUntracked(executionContext context.Context, repositoryPath string, includeIgnored bool) error {
	cleanFlag := cleanForceDirectoriesConstant
	if includeIgnored {
		cleanFlag = cleanIncludeIgnoredConstant
	}
	_, executionError := manager.run(executionContext, repositoryPath, cleanSubcommandConstant, cleanFlag)
	return executionError
}

// DiscardLocalChanges resets tracked files to HEAD and removes untracked files.
func (manager *RepositoryManager) DiscardLocalChanges(executionContext context.Context, repositoryPath string) error {
	if resetError := manager.HardReset(executionContext, repositoryPath, headReferenceConstant); resetError != nil {
		return resetError
	}
	return manager.RemoveUntracked(executionContext, repositoryPath, false)
}

// CreateEmptyCommit records a commit without content changes.
func (manager *RepositoryManager) CreateEmptyCommit(executionContext context.Context, repositoryPath string, message string) error {
	_, executionError := manager.run(executionContext, repositoryPath, commitSubcommandConstant, commitAllowEmptyFlagConstant, commitMessageFlagConstant, message)
	return executionError
}

// ForceCreateTag creates or replaces a lightweight tag at the provided revision.
func (manager *RepositoryManager) ForceCreateTag(executionContext context.Context, repositoryPath string, tagName string, revision string) error {
	_, executionError := manager.run(executionContext, repositoryPath, tagSubcommandConstant, tagForceFlagConstant, tagName, revision)
	return executionError
}

// DeleteTag removes a tag.
func (manager *RepositoryManager) DeleteTag(executionContext context.Context, repositoryPath string, tagName string) error {
	_, executionError := manager.run(executionContext, repositoryPath, tagSubcommandConstant, tagDeleteFlagConstant, tagName)
	return executionError
}

// CreateAnnotatedTag creates or replaces an annotated tag at HEAD.
func (manager *RepositoryManager) CreateAnnotatedTag(executionContext context.Context, repositoryPath string, tagName string, message string) error {
	_, executionError := manager.run(executionContext, repositoryPath, tagSubcommandConstant, tagForceFlagConstant, tagAnnotateFlagConstant, tagName, commitMessageFlagConstant, message)
	return executionError
}

// DescribeNearestTag locates the nearest reachable tag matching the pattern from the reference.
func (manager *RepositoryManager) DescribeNearestTag(executionContext context.Context, repositoryPath string, pattern string, reference string) (string, error) {
	result, executionError := manager.run(executionContext, repositoryPath, describeSubcommandConstant, describeTagsFlagConstant, describeAbbrevZeroFlagConstant, describeMatchFlagConstant, pattern, reference)
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(result.StandardOutput), nil
}

// SynchronizeSubmodules propagates recorded submodule URLs into the local configuration.
func (manager *RepositoryManager) SynchronizeSubmodules(executionContext context.Context, repositoryPath string) error {
	_, executionError := manager.run(executionContext, repositoryPath, submoduleSubcommandConstant, submoduleSyncSubcommandConstant, submoduleRecursiveFlagConstant)
	return executionError
}

// UpdateSubmodules initializes and updates every submodule to its recorded revision.
func (manager *RepositoryManager) UpdateSubmodules(executionContext context.Context, repositoryPath string) error {
	_, executionError := manager.run(executionContext, repositoryPath, submoduleSubcommandConstant, submoduleUpdateConstant, submoduleInitFlagConstant, submoduleRecursiveFlagConstant)
	return executionError
}

// ListSubmodules enumerates registered submodules in their configuration order.
func (manager *RepositoryManager) ListSubmodules(executionContext context.Context, repositoryPath string) ([]Submodule, error) {
	result, executionError := manager.run(executionContext, repositoryPath, configSubcommandConstant, configFileFlagConstant, gitmodulesFileNameConstant, configGetRegexpFlagConstant, submodulePathPatternConstant)
	if executionError != nil {
		commandFailure := execshell.CommandFailedError{}
		if errors.As(executionError, &commandFailure) {
			return nil, nil
		}
		return nil, executionError
	}

	submodules := []Submodule{}
	for _, configurationLine := range splitNonEmptyLines(result.StandardOutput) {
		fields := strings.Fields(configurationLine)
		if len(fields) != 2 {
			continue
		}
		submoduleName := strings.TrimSuffix(strings.TrimPrefix(fields[0], submoduleKeyPrefixConstant), submodulePathKeySuffixConstant)
		submoduleURL, urlError := manager.submoduleURL(executionContext, repositoryPath, submoduleName)
		if urlError != nil {
			return nil, urlError
		}
		submodules = append(submodules, Submodule{Name: submoduleName, Path: fields[1], URL: submoduleURL})
	}
	return submodules, nil
}

// SetSubmoduleURL rewrites the registered URL of a submodule in the module configuration.
func (manager *RepositoryManager) SetSubmoduleURL(executionContext context.Context, repositoryPath string, submoduleName string, submoduleURL string) error {
	_, executionError := manager.run(executionContext, repositoryPath, configSubcommandConstant, configFileFlagConstant, gitmodulesFileNameConstant, submoduleURLKey(submoduleName), submoduleURL)
	return executionError
}

// RecordedSubmoduleRevision reads the submodule commit recorded in the parent tree at a revision.
func (manager *RepositoryManager) RecordedSubmoduleRevision(executionContext context.Context, repositoryPath string, revision string, submodulePath string) (string, error) {
	return manager.ResolveRevision(executionContext, repositoryPath, gitlinkReference(revision, submodulePath))
}

// BranchesContaining lists the remote branches containing the provided revision.
func (manager *RepositoryManager) BranchesContaining(executionContext context.Context, repositoryPath string, revision string) ([]string, error) {
	result, executionError := manager.run(executionContext, repositoryPath, branchSubcommandConstant, branchRemotesFlagConstant, branchContainsFlagConstant, revision)
	if executionError != nil {
		return nil, executionError
	}

	containingBranches := []string{}
	for _, branchLine := range splitNonEmptyLines(result.StandardOutput) {
		if strings.Contains(branchLine, symbolicPointerMarkerConstant) {
			continue
		}
		containingBranches = append(containingBranches, strings.TrimSpace(branchLine))
	}
	return containingBranches, nil
}

// HistoryWithStats collects the statistic-annotated log of commits reachable from
// the target revision but not from the base revision.
func (manager *RepositoryManager) HistoryWithStats(executionContext context.Context, repositoryPath string, baseRevision string, targetRevision string) (string, error) {
	result, executionError := manager.run(executionContext, repositoryPath, logSubcommandConstant, logStatFlagConstant, revisionRange(baseRevision, targetRevision))
	if executionError != nil {
		return "", executionError
	}
	return result.StandardOutput, nil
}

// TreeOfRevision resolves the tree object identifier of the provided revision.
func (manager *RepositoryManager) TreeOfRevision(executionContext context.Context, repositoryPath string, revision string) (string, error) {
	return manager.ResolveRevision(executionContext, repositoryPath, revision+treeSuffixConstant)
}

// CreateCommitFromTree records a commit with an explicit tree, parent set, and message.
func (manager *RepositoryManager) CreateCommitFromTree(executionContext context.Context, repositoryPath string, treeIdentifier string, parentRevisions []string, message string) (string, error) {
	arguments := []string{commitTreeSubcommandConstant, treeIdentifier}
	for _, parentRevision := range parentRevisions {
		arguments = append(arguments, commitTreeParentFlagConstant, parentRevision)
	}

	result, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
		StandardInput:    []byte(message),
	})
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(result.StandardOutput), nil
}

// Push transfers the provided refspec to the named remote.
func (manager *RepositoryManager) Push(executionContext context.Context, repositoryPath string, remoteName string, refspec string) error {
	_, executionError := manager.run(executionContext, repositoryPath, pushSubcommandConstant, remoteName, refspec)
	return executionError
}

// MergeFavoringLocal merges the reference into HEAD, preferring local content on conflicts.
func (manager *RepositoryManager) MergeFavoringLocal(executionContext context.Context, repositoryPath string, reference string, message string) error {
	_, executionError := manager.run(executionContext, repositoryPath, mergeSubcommandConstant, mergeNoEditFlagConstant, mergeStrategyOptionFlagConstant, mergeFavorLocalOptionConstant, commitMessageFlagConstant, message, reference)
	return executionError
}

func (manager *RepositoryManager) submoduleURL(executionContext context.Context, repositoryPath string, submoduleName string) (string, error) {
	result, executionError := manager.run(executionContext, repositoryPath, configSubcommandConstant, configFileFlagConstant, gitmodulesFileNameConstant, submoduleURLKey(submoduleName))
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(result.StandardOutput), nil
}

func (manager *RepositoryManager) run(executionContext context.Context, repositoryPath string, arguments ...string) (execshell.ExecutionResult, error) {
	return manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
	})
}

func splitNonEmptyLines(output string) []string {
	lines := []string{}
	for _, candidateLine := range strings.Split(output, "\n") {
		trimmedLine := strings.TrimSpace(candidateLine)
		if len(trimmedLine) == 0 {
			continue
		}
		lines = append(lines, trimmedLine)
	}
	return lines
}
