// Package syncer rebuilds remote configuration along the fallback chain and
// pins every submodule of a parent repository to its resolved revision.
package syncer
