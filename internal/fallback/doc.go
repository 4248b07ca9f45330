// Package fallback computes the ordered branch resolution candidates consulted
// when an exact owner/branch pair does not exist on a repository.
package fallback
