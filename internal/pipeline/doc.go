// Package pipeline assembles the build stages into the named tasks the CLI runs.
//
// A task is an ordered list of stages. Each stage returns nil, a warning (the
// task continues) or a fatal error (the task stops). Outcomes, durations and
// counts are collected in a Report that is logged when the task ends.
package pipeline
