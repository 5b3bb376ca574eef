// Package render turns page templates into HTML with their compiled CSS
// available to the template as context values.
//
// Every page under views.pagesBasePath must have a compiled stylesheet of the
// same base name in <tmp>/styles/pages. The check runs for all pages before
// any of them is rendered, so a missing stylesheet leaves no partial output.
//
// Templates are Handlebars (github.com/aymerick/raymond). Files under the
// partial and layout directories are registered as partials named by their
// path relative to that directory, without extension. The extend, block and
// content helpers provide layout inheritance in the style of
// handlebars-layouts.
package render
