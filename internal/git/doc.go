// Package git reads the checked-out commit of the project so builds can
// stamp rendered pages with it.
package git
