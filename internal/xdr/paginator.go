package xdr

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/xdrpull/xdrpull/internal/pkg/logger"
)

// PageWindow is the contiguous offset range [Start, End) requested in one
// call. Recomputed each iteration; End-Start equals the page size.
type PageWindow struct {
	Start int
	End   int
}

// PageSource fetches a single page of alerts. Satisfied by *Fetcher.
type PageSource interface {
	FetchPage(ctx context.Context, window PageWindow) ([]AlertRecord, error)
}

// PageSourceFunc adapts a function to the PageSource interface.
type PageSourceFunc func(ctx context.Context, window PageWindow) ([]AlertRecord, error)

// FetchPage implements PageSource.
func (f PageSourceFunc) FetchPage(ctx context.Context, window PageWindow) ([]AlertRecord, error) {
	return f(ctx, window)
}

// PaginatorConfig configures a pagination run.
type PaginatorConfig struct {
	// Start is the initial search offset.
	Start int
	// PageSize is the number of alerts requested per page.
	PageSize int
	// MaxPages bounds the number of fetches; 0 means unbounded. Callers
	// leaving this unset rely on the source eventually returning an empty
	// page for termination.
	MaxPages int
	// RequestsPerSecond caps the fetch rate; 0 disables the limiter.
	RequestsPerSecond float64
}

// Paginator drives a PageSource across successive offset windows and
// accumulates the results. The remote cursor is offset-based, so fetches
// are strictly sequential and window arithmetic never skips or repeats an
// offset.
type Paginator struct {
	source  PageSource
	cfg     PaginatorConfig
	limiter *rate.Limiter
	log     *logger.Logger
}

// NewPaginator creates a Paginator over the given source.
func NewPaginator(source PageSource, cfg PaginatorConfig, log *logger.Logger) *Paginator {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Paginator{
		source:  source,
		cfg:     cfg,
		limiter: limiter,
		log:     log,
	}
}

// Run fetches pages until an empty page, the page ceiling, or a page error
// stops it. A page error ends the run without retrying, but whatever was
// accumulated before it is still returned alongside the error so the
// caller can persist the partial result. Returns the accumulated alerts in
// page arrival order and the number of non-empty pages folded in.
func (p *Paginator) Run(ctx context.Context) ([]AlertRecord, int, error) {
	alerts := []AlertRecord{}
	start := p.cfg.Start
	pages := 0

	for page := 1; ; page++ {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return alerts, pages, err
			}
		}

		window := PageWindow{Start: start, End: start + p.cfg.PageSize}
		batch, err := p.source.FetchPage(ctx, window)
		if err != nil {
			p.log.WithFields(map[string]interface{}{
				"page":        page,
				"search_from": window.Start,
			}).WithError(err).Error("Page fetch failed, ending run with partial results")
			return alerts, pages, err
		}

		if len(batch) == 0 {
			p.log.Debugf("Empty page at offset %d, end of data", window.Start)
			return alerts, pages, nil
		}

		alerts = append(alerts, batch...)
		pages++
		p.log.WithFields(map[string]interface{}{
			"page":      page,
			"retrieved": len(batch),
			"total":     len(alerts),
		}).Info("Retrieved alert page")

		if p.cfg.MaxPages > 0 && page >= p.cfg.MaxPages {
			p.log.Infof("Reached maximum page count: %d", p.cfg.MaxPages)
			return alerts, pages, nil
		}

		start += p.cfg.PageSize
	}
}
