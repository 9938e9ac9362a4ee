// Package storage persists accumulated alert sets to S3.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/xdrpull/xdrpull/internal/pkg/logger"
	"github.com/xdrpull/xdrpull/internal/xdr"
)

// WriteError indicates the underlying put failed. The sink never retries.
type WriteError struct {
	Bucket string
	Key    string
	Err    error
}

// Error implements the error interface
func (e *WriteError) Error() string {
	var apiErr smithy.APIError
	if errors.As(e.Err, &apiErr) {
		return fmt.Sprintf("s3 write to %s/%s failed [%s]: %s", e.Bucket, e.Key, apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return fmt.Sprintf("s3 write to %s/%s failed: %v", e.Bucket, e.Key, e.Err)
}

// Unwrap returns the underlying error
func (e *WriteError) Unwrap() error {
	return e.Err
}

// ObjectPutter is the slice of the S3 client the sink uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Sink serializes an alert set as a JSON array and writes it under a
// timestamped key. Object keys have second granularity; two runs within the
// same second overwrite each other, which is accepted rather than guarded
// by existence checks.
type Sink struct {
	client ObjectPutter
	bucket string
	prefix string
	clock  func() time.Time
	log    *logger.Logger
}

// SinkOption configures a Sink.
type SinkOption func(*Sink)

// WithSinkClock overrides the key timestamp source, mainly for tests.
func WithSinkClock(clock func() time.Time) SinkOption {
	return func(s *Sink) { s.clock = clock }
}

// NewSink creates a Sink writing under the given bucket and key prefix.
func NewSink(cfg aws.Config, bucket, prefix string, log *logger.Logger, opts ...SinkOption) *Sink {
	return newSink(s3.NewFromConfig(cfg), bucket, prefix, log, opts...)
}

// NewSinkWithClient creates a Sink with an explicit client, mainly for tests.
func NewSinkWithClient(client ObjectPutter, bucket, prefix string, log *logger.Logger, opts ...SinkOption) *Sink {
	return newSink(client, bucket, prefix, log, opts...)
}

func newSink(client ObjectPutter, bucket, prefix string, log *logger.Logger, opts ...SinkOption) *Sink {
	s := &Sink{
		client: client,
		bucket: bucket,
		prefix: prefix,
		clock:  time.Now,
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Persist writes the alert set and returns the object key. An empty set
// performs no write and returns an empty key, so an empty tenant does not
// produce meaningless storage entries.
func (s *Sink) Persist(ctx context.Context, alerts []xdr.AlertRecord) (string, error) {
	if len(alerts) == 0 {
		s.log.Info("No alerts accumulated, skipping storage write")
		return "", nil
	}

	body, err := json.MarshalIndent(alerts, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize alerts: %w", err)
	}

	key := fmt.Sprintf("%s/%s_alerts.json", s.prefix, s.clock().Format("20060102_150405"))

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		werr := &WriteError{Bucket: s.bucket, Key: key, Err: err}
		s.log.ErrorWithErr(werr, "Storage write failed")
		return "", werr
	}

	s.log.WithFields(map[string]interface{}{
		"bucket": s.bucket,
		"key":    key,
		"alerts": len(alerts),
	}).Info("Uploaded alerts to S3")
	return key, nil
}
