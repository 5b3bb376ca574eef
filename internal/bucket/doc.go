// Package bucket publishes build output to an S3 bucket: it empties the
// bucket and then uploads the files of one local directory as public-read
// objects keyed by file name.
//
// Emptying lists a single page of at most aws.maxKeys objects (100 by
// default). Larger buckets are only partially emptied per run; a truncated
// listing is logged. Subdirectories of the upload source are skipped, not
// recursed.
package bucket
