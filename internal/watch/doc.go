// Package watch turns source changes into rebuild runs.
//
// A ChangeSource reports which named group of globs changed; the Watcher
// runs that group's action. Runs of one group never overlap: a change that
// arrives during a run queues one follow-up run and further changes are
// folded into it. Different groups run independently.
//
// Two sources exist: a polling source that snapshots the globs on a gocron
// schedule, and an fsnotify source for native file events.
package watch
