package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/xdrpull/xdrpull/internal/pkg/logger"
	"github.com/xdrpull/xdrpull/internal/xdr"
)

type mockSink struct {
	persisted [][]xdr.AlertRecord
	key       string
	err       error
}

func (m *mockSink) Persist(ctx context.Context, alerts []xdr.AlertRecord) (string, error) {
	m.persisted = append(m.persisted, alerts)
	if m.err != nil {
		return "", m.err
	}
	if len(alerts) == 0 {
		return "", nil
	}
	return m.key, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func stubPages(pages ...[]xdr.AlertRecord) xdr.PageSource {
	call := 0
	return xdr.PageSourceFunc(func(ctx context.Context, window xdr.PageWindow) ([]xdr.AlertRecord, error) {
		if call >= len(pages) {
			return []xdr.AlertRecord{}, nil
		}
		page := pages[call]
		call++
		return page, nil
	})
}

func TestRunner_EndToEnd(t *testing.T) {
	source := stubPages(
		[]xdr.AlertRecord{xdr.AlertRecord(`{"id":1}`), xdr.AlertRecord(`{"id":2}`)},
		[]xdr.AlertRecord{xdr.AlertRecord(`{"id":3}`)},
		[]xdr.AlertRecord{},
	)
	paginator := xdr.NewPaginator(source, xdr.PaginatorConfig{PageSize: 2, MaxPages: 10}, testLogger())
	sink := &mockSink{key: "cortex-alerts/20240315_120000_alerts.json"}

	report, err := NewRunner(paginator, sink, testLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.Alerts != 3 || report.Pages != 2 {
		t.Errorf("report = %d alerts over %d pages, want 3 over 2", report.Alerts, report.Pages)
	}
	if report.PageErr != nil {
		t.Errorf("PageErr = %v, want nil", report.PageErr)
	}
	if report.ObjectKey != sink.key {
		t.Errorf("ObjectKey = %q, want %q", report.ObjectKey, sink.key)
	}
	if report.RunID == "" {
		t.Error("RunID is empty")
	}

	if len(sink.persisted) != 1 {
		t.Fatalf("Persist called %d times, want 1", len(sink.persisted))
	}
	got := sink.persisted[0]
	if len(got) != 3 || string(got[0]) != `{"id":1}` || string(got[2]) != `{"id":3}` {
		t.Errorf("persisted %v, want the 3 alerts in arrival order", got)
	}
}

func TestRunner_PartialRunStillPersists(t *testing.T) {
	transportErr := errors.New("connection reset")
	call := 0
	source := xdr.PageSourceFunc(func(ctx context.Context, window xdr.PageWindow) ([]xdr.AlertRecord, error) {
		call++
		if call == 1 {
			return []xdr.AlertRecord{
				xdr.AlertRecord(`{"id":1}`), xdr.AlertRecord(`{"id":2}`),
				xdr.AlertRecord(`{"id":3}`), xdr.AlertRecord(`{"id":4}`),
				xdr.AlertRecord(`{"id":5}`),
			}, nil
		}
		return nil, transportErr
	})
	paginator := xdr.NewPaginator(source, xdr.PaginatorConfig{PageSize: 5}, testLogger())
	sink := &mockSink{key: "cortex-alerts/partial.json"}

	report, err := NewRunner(paginator, sink, testLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v, a page error must not fail the run", err)
	}

	if !errors.Is(report.PageErr, transportErr) {
		t.Errorf("PageErr = %v, want the page error reported", report.PageErr)
	}
	if report.Alerts != 5 {
		t.Errorf("Alerts = %d, want the 5 accumulated before the failure", report.Alerts)
	}
	if len(sink.persisted) != 1 || len(sink.persisted[0]) != 5 {
		t.Errorf("partial accumulator not handed to the sink: %v", sink.persisted)
	}
}

func TestRunner_EmptyRunWritesNothing(t *testing.T) {
	paginator := xdr.NewPaginator(stubPages(), xdr.PaginatorConfig{PageSize: 100}, testLogger())
	sink := &mockSink{key: "unused"}

	report, err := NewRunner(paginator, sink, testLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.Alerts != 0 || report.ObjectKey != "" {
		t.Errorf("report = %+v, want zero alerts and no object key", report)
	}
}

func TestRunner_StorageFailureIsTerminal(t *testing.T) {
	source := stubPages([]xdr.AlertRecord{xdr.AlertRecord(`{"id":1}`)})
	paginator := xdr.NewPaginator(source, xdr.PaginatorConfig{PageSize: 1, MaxPages: 1}, testLogger())
	storageErr := errors.New("bucket gone")
	sink := &mockSink{err: storageErr}

	report, err := NewRunner(paginator, sink, testLogger()).Run(context.Background())

	if !errors.Is(err, storageErr) {
		t.Fatalf("Run() error = %v, want the storage failure surfaced", err)
	}
	if report == nil || report.Alerts != 1 {
		t.Errorf("report = %+v, want retrieval counts preserved on storage failure", report)
	}
}
