// Package resolve selects build branches along the owner fallback chain and
// derives release versions from resolved branch references.
package resolve
