// Package publish pushes recorded releases to the target owner's remote.
package publish
