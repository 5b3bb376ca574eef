// Package output moves build artifacts between the source tree, the tmp
// directory and the final dist and email-sender directories.
package output
