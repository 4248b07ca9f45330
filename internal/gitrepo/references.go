package gitrepo

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	remoteTrackingReferenceTemplateConstant = "refs/remotes/%s/%s"
	branchHeadReferenceTemplateConstant     = "refs/heads/%s"
	remoteAddressTemplateConstant           = "%s:%s/%s.git"
	pushRefspecTemplateConstant             = "%s:%s"
)

// RemoteTrackingReference builds the fully qualified remote-tracking reference name.
func RemoteTrackingReference(remoteName string, branchName string) string {
	return fmt.Sprintf(remoteTrackingReferenceTemplateConstant, remoteName, branchName)
}

// BranchHeadReference builds the fully qualified branch reference name.
func BranchHeadReference(branchName string) string {
	return fmt.Sprintf(branchHeadReferenceTemplateConstant, branchName)
}

// PushRefspec builds a push refspec transferring source to destination.
func PushRefspec(sourceReference string, destinationReference string) string {
	return fmt.Sprintf(pushRefspecTemplateConstant, sourceReference, destinationReference)
}

// BuildRemoteAddress constructs the deterministic remote address for an owner's
// copy of a repository, following the <host>:<owner>/<repository>.git convention.
func BuildRemoteAddress(host string, owner string, repositoryName string) string {
	return fmt.Sprintf(remoteAddressTemplateConstant, host, owner, repositoryName)
}

// RepositoryNameFromPath derives the repository name from a working tree path.
func RepositoryNameFromPath(repositoryPath string) string {
	return filepath.Base(strings.TrimRight(repositoryPath, string(filepath.Separator)))
}

func submoduleURLKey(submoduleName string) string {
	return fmt.Sprintf(submoduleURLKeyTemplateConstant, submoduleName)
}

func gitlinkReference(revision string, submodulePath string) string {
	return fmt.Sprintf(gitlinkTemplateConstant, revision, submodulePath)
}

func revisionRange(baseRevision string, targetRevision string) string {
	return fmt.Sprintf(revisionRangeTemplateConstant, baseRevision, targetRevision)
}
