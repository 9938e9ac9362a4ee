package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/xdrpull/xdrpull/internal/pkg/logger"
	"github.com/xdrpull/xdrpull/internal/xdr"
)

type mockPutter struct {
	calls []s3.PutObjectInput
	err   error
}

func (m *mockPutter) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.calls = append(m.calls, *in)
	if m.err != nil {
		return nil, m.err
	}
	return &s3.PutObjectOutput{}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
}

func TestSink_PersistEmptySkipsWrite(t *testing.T) {
	putter := &mockPutter{}
	sink := NewSinkWithClient(putter, "db-pan-bucket", "cortex-alerts", testLogger(), WithSinkClock(fixedClock))

	key, err := sink.Persist(context.Background(), nil)
	if err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if key != "" {
		t.Errorf("key = %q, want empty sentinel for an empty accumulator", key)
	}
	if len(putter.calls) != 0 {
		t.Errorf("PutObject called %d times, want 0", len(putter.calls))
	}
}

func TestSink_PersistWritesJSONArray(t *testing.T) {
	putter := &mockPutter{}
	sink := NewSinkWithClient(putter, "db-pan-bucket", "cortex-alerts", testLogger(), WithSinkClock(fixedClock))

	alerts := []xdr.AlertRecord{
		xdr.AlertRecord(`{"alert_id":"a1"}`),
		xdr.AlertRecord(`{"alert_id":"a2"}`),
		xdr.AlertRecord(`{"alert_id":"a3"}`),
	}

	key, err := sink.Persist(context.Background(), alerts)
	if err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	want := "cortex-alerts/20240315_120000_alerts.json"
	if key != want {
		t.Errorf("key = %q, want %q", key, want)
	}
	if len(putter.calls) != 1 {
		t.Fatalf("PutObject called %d times, want 1", len(putter.calls))
	}

	call := putter.calls[0]
	if aws.ToString(call.Bucket) != "db-pan-bucket" {
		t.Errorf("bucket = %q, want db-pan-bucket", aws.ToString(call.Bucket))
	}
	if aws.ToString(call.Key) != want {
		t.Errorf("object key = %q, want %q", aws.ToString(call.Key), want)
	}
	if aws.ToString(call.ContentType) != "application/json" {
		t.Errorf("content type = %q, want application/json", aws.ToString(call.ContentType))
	}

	body, err := io.ReadAll(call.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	var got []map[string]string
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("body is not a JSON array: %v", err)
	}
	if len(got) != 3 || got[0]["alert_id"] != "a1" || got[2]["alert_id"] != "a3" {
		t.Errorf("body = %s, want the 3 alerts in order", body)
	}
}

func TestSink_PersistWriteFailure(t *testing.T) {
	putter := &mockPutter{err: errors.New("AccessDenied")}
	sink := NewSinkWithClient(putter, "db-pan-bucket", "cortex-alerts", testLogger(), WithSinkClock(fixedClock))

	key, err := sink.Persist(context.Background(), []xdr.AlertRecord{xdr.AlertRecord(`{}`)})

	var writeErr *WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("error = %v, want *WriteError", err)
	}
	if key != "" {
		t.Errorf("key = %q, want empty on failure", key)
	}
	if writeErr.Bucket != "db-pan-bucket" {
		t.Errorf("error bucket = %q, want db-pan-bucket", writeErr.Bucket)
	}
	if len(putter.calls) != 1 {
		t.Errorf("PutObject called %d times, want 1 (no retry)", len(putter.calls))
	}
}
