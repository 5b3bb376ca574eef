// Package devserver serves the intermediate build directory during dev runs.
//
// HTML responses get a live-reload client injected before </body>. The client
// subscribes to /livereload (server-sent events) and reloads the page when the
// server broadcasts a new build version.
package devserver
