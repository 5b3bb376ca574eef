// Package files holds the glob expansion and copy helpers shared by the
// build stages and the watcher.
package files
