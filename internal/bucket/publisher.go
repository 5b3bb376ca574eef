package bucket

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/mailbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/mailbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/mailbuilder/internal/logfields"
	"git.home.luguber.info/inful/mailbuilder/internal/metrics"
	"git.home.luguber.info/inful/mailbuilder/internal/observability"
)

// listDelimiter groups keys below the bucket root into common prefixes.
const listDelimiter = "/"

// Publisher empties and fills one bucket.
type Publisher struct {
	client      S3Client
	bucket      string
	maxKeys     int32
	concurrency int
	recorder    metrics.Recorder
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithRecorder reports upload results to r.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Publisher) { p.recorder = r }
}

// NewPublisher returns a publisher for cfg.BucketName using client.
func NewPublisher(client S3Client, cfg config.AWSConfig, opts ...Option) *Publisher {
	p := &Publisher{
		client:      client,
		bucket:      cfg.BucketName,
		maxKeys:     cfg.MaxKeys,
		concurrency: cfg.UploadConcurrency,
		recorder:    metrics.NoopRecorder{},
	}
	if p.maxKeys <= 0 {
		p.maxKeys = config.DefaultMaxKeys
	}
	if p.concurrency <= 0 {
		p.concurrency = config.DefaultUploadWorkers
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// EmptyResult describes one empty pass.
type EmptyResult struct {
	Deleted int
	// Truncated is set when the bucket held more objects than one listing returns.
	Truncated bool
}

// Empty deletes the objects returned by a single listing page.
func (p *Publisher) Empty(ctx context.Context) (EmptyResult, error) {
	var res EmptyResult
	list, err := p.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(p.bucket),
		MaxKeys:   aws.Int32(p.maxKeys),
		Delimiter: aws.String(listDelimiter),
	})
	if err != nil {
		return res, p.storageError(err, "failed to list bucket")
	}
	res.Truncated = aws.ToBool(list.IsTruncated)
	if res.Truncated {
		observability.WarnContext(ctx, "Bucket holds more objects than one listing; run empty-bucket again to finish",
			logfields.Bucket(p.bucket), logfields.Count(int(p.maxKeys)))
	}
	if len(list.Contents) == 0 {
		return res, nil
	}

	objects := make([]types.ObjectIdentifier, 0, len(list.Contents))
	for _, obj := range list.Contents {
		objects = append(objects, types.ObjectIdentifier{Key: obj.Key})
	}
	out, err := p.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(p.bucket),
		Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return res, p.storageError(err, "failed to delete objects")
	}
	if out != nil && len(out.Errors) > 0 {
		failed := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			failed = append(failed, fmt.Sprintf("%s: %s", aws.ToString(e.Key), aws.ToString(e.Message)))
		}
		res.Deleted = len(objects) - len(out.Errors)
		return res, ferrors.StorageError("some objects could not be deleted: "+strings.Join(failed, "; ")).
			WithContext("bucket", p.bucket).Build()
	}
	res.Deleted = len(objects)
	observability.InfoContext(ctx, "Emptied bucket", logfields.Bucket(p.bucket), logfields.Count(res.Deleted))
	return res, nil
}

// UploadResult describes one upload pass.
type UploadResult struct {
	Uploaded []string
	Skipped  []string
	Failed   []string
}

// Upload puts every regular file directly under dir into the bucket as a
// public-read object keyed by its base name. Uploads run concurrently; one
// failure does not stop the others. All uploads finish before Upload
// returns, and failures are joined into one storage warning.
func (p *Publisher) Upload(ctx context.Context, dir string) (UploadResult, error) {
	var res UploadResult
	entries, err := os.ReadDir(dir)
	if err != nil {
		return res, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read upload source").
			Fatal().WithContext("path", dir).Build()
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	g := new(errgroup.Group)
	g.SetLimit(p.concurrency)
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if !e.Type().IsRegular() {
			observability.DebugContext(ctx, "Skipping non-file in upload source", logfields.Path(path))
			res.Skipped = append(res.Skipped, path)
			continue
		}
		key := e.Name()
		g.Go(func() error {
			err := p.put(ctx, key, path)
			p.recorder.IncUpload(err == nil)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				observability.WarnContext(ctx, "Upload failed", logfields.Bucket(p.bucket), logfields.Key(key), logfields.Error(err))
				res.Failed = append(res.Failed, key)
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return nil
			}
			observability.InfoContext(ctx, "Uploaded object", logfields.Bucket(p.bucket), logfields.Key(key))
			res.Uploaded = append(res.Uploaded, key)
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) > 0 {
		return res, ferrors.WrapError(errors.Join(errs...), ferrors.CategoryStorage, "some uploads failed").
			Warning().
			WithContext("bucket", p.bucket).
			WithContext("failed", len(errs)).
			Build()
	}
	return res, nil
}

func (p *Publisher) put(ctx context.Context, key, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ACL:         types.ObjectCannedACLPublicRead,
		ContentType: aws.String(ContentType(path, data)),
	})
	return err
}

// PublishResult combines both phases.
type PublishResult struct {
	Empty  EmptyResult
	Upload UploadResult
}

// Publish empties the bucket, then uploads dir. A failed empty phase skips
// the upload and is reported as a warning.
func (p *Publisher) Publish(ctx context.Context, dir string) (PublishResult, error) {
	var res PublishResult
	empty, err := p.Empty(ctx)
	res.Empty = empty
	if err != nil {
		observability.ErrorContext(ctx, "Cannot publish to bucket", logfields.Bucket(p.bucket), logfields.Error(err))
		return res, ferrors.WrapError(err, ferrors.CategoryStorage, "publish aborted").
			Warning().WithContext("bucket", p.bucket).Build()
	}
	res.Upload, err = p.Upload(ctx, dir)
	return res, err
}

func (p *Publisher) storageError(err error, message string) error {
	b := ferrors.WrapError(err, ferrors.CategoryStorage, message).WithContext("bucket", p.bucket)
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		b = b.WithContext("code", apiErr.ErrorCode())
	}
	return b.Build()
}

// ContentType picks the object's Content-Type. Content sniffing wins unless
// it only recognises plain text, in which case the extension decides
// (.css, .html, .svg and similar).
func ContentType(path string, data []byte) string {
	detected := mimetype.Detect(data).String()
	if strings.HasPrefix(detected, "text/plain") {
		if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
			return byExt
		}
	}
	return detected
}
