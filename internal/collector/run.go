// Package collector orchestrates one retrieval run: paginate the alert
// source, then hand the accumulated set to the result sink.
package collector

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/xdrpull/xdrpull/internal/pkg/logger"
	"github.com/xdrpull/xdrpull/internal/pkg/metrics"
	"github.com/xdrpull/xdrpull/internal/xdr"
)

// AlertSink persists an accumulated alert set. Satisfied by *storage.Sink.
type AlertSink interface {
	Persist(ctx context.Context, alerts []xdr.AlertRecord) (string, error)
}

// RunReport summarizes one retrieval run. A run that hit a page error still
// reports the alerts accumulated before it and, if the write succeeded,
// where they landed.
type RunReport struct {
	RunID     string        `json:"run_id"`
	Alerts    int           `json:"total_alerts"`
	Pages     int           `json:"pages"`
	ObjectKey string        `json:"s3_key,omitempty"`
	Duration  time.Duration `json:"-"`
	// PageErr is the error that ended pagination early, if any. The run is
	// still considered complete; retrieval errors preserve partial progress.
	PageErr error `json:"-"`
}

// Runner executes retrieval runs against one tenant.
type Runner struct {
	paginator *xdr.Paginator
	sink      AlertSink
	log       *logger.Logger
}

// NewRunner creates a Runner.
func NewRunner(paginator *xdr.Paginator, sink AlertSink, log *logger.Logger) *Runner {
	return &Runner{
		paginator: paginator,
		sink:      sink,
		log:       log,
	}
}

// Run performs one retrieval run. A page error ends pagination but the
// partial accumulator is still handed to the sink; only a storage failure
// is returned as the run's error.
func (r *Runner) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{RunID: uuid.New().String()}
	log := r.log.With("run_id", report.RunID)
	started := time.Now()

	log.Info("Starting alert retrieval run")

	alerts, pages, pageErr := r.paginator.Run(ctx)
	report.Alerts = len(alerts)
	report.Pages = pages
	report.PageErr = pageErr
	metrics.RecordPages(pages, len(alerts))
	if pageErr != nil {
		metrics.RecordPageError()
		log.WithError(pageErr).Warnf("Retrieval stopped early with %d alerts accumulated", len(alerts))
	}

	key, err := r.sink.Persist(ctx, alerts)
	report.Duration = time.Since(started)
	if err != nil {
		metrics.RecordStorageWrite("error")
		metrics.RecordRun("error", report.Duration)
		return report, err
	}
	if key != "" {
		metrics.RecordStorageWrite("ok")
		report.ObjectKey = key
	}

	status := "ok"
	if pageErr != nil {
		status = "partial"
	}
	metrics.RecordRun(status, report.Duration)

	log.WithFields(map[string]interface{}{
		"alerts":   report.Alerts,
		"pages":    report.Pages,
		"s3_key":   report.ObjectKey,
		"status":   status,
		"duration": report.Duration.String(),
	}).Info("Run finished")

	return report, nil
}
