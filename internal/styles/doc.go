// Package styles compiles the configured stylesheet sources into CSS under
// <tmp>/styles, one output per source, keeping paths relative to each glob's
// static base. Sass partials (names starting with "_") are never emitted.
//
// Two backends implement Compiler: Dart Sass through the embedded protocol
// (github.com/bep/godartsass/v2), the default, and esbuild's CSS transform
// for projects whose stylesheets are plain or nested CSS. The esbuild
// backend refuses .scss and .sass sources.
package styles
