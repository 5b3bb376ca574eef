// Package errors provides the classified error type used across mailbuilder.
//
// Every failure that leaves a component is a ClassifiedError carrying a category
// (which part of the pipeline failed), a severity (whether the run must stop) and
// structured context for logging. The CLI adapter turns them into exit codes.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryStorage, "upload failed").
//		Warning().
//		WithContext("key", objectKey).
//		Build()
package errors
