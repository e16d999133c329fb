package scraper

import (
	"context"

	"cabf05/lotworker/config"
	"cabf05/lotworker/internal/browser"
)

// Runner owns the session lifecycle for collection runs: one fresh browser
// process per run, released on every exit path.
type Runner struct {
	cfg *config.Config
}

// NewRunner creates a runner
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{cfg: cfg}
}

// Collect performs one full collection run. runStartOffset is the highest
// id already persisted. A launch failure produces an empty batch plus a
// report carrying the fatal error, never a bare error without a report.
func (r *Runner) Collect(ctx context.Context, runStartOffset int64) ([]Listing, *RunReport, error) {
	session, err := browser.Open(ctx, browser.Options{Headless: r.cfg.Headless})
	if err != nil {
		report := NewRunReport()
		report.Fatal = err.Error()
		report.Finish()
		return nil, report, err
	}
	// The paginator closes the session itself; this covers a panic before
	// Run takes ownership. Close is idempotent.
	defer session.Close()

	paginator := NewPaginator(session, r.cfg, runStartOffset)
	return paginator.Run(ctx)
}
