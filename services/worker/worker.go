package worker

import (
	"context"
	"time"

	"cabf05/lotworker/helpers"
	"cabf05/lotworker/internal/scraper"
	"cabf05/lotworker/services/cache"
	"cabf05/lotworker/services/notifier"
	"cabf05/lotworker/services/storage"
)

// Collector performs one full extraction run against the target site
type Collector interface {
	Collect(ctx context.Context, runStartOffset int64) ([]scraper.Listing, *scraper.RunReport, error)
}

// Worker schedules collection runs: at most one successful run per calendar
// day, checked first against the guard cache and then against the store.
type Worker struct {
	ctx       context.Context
	collector Collector
	store     storage.ResultSink
	notifier  notifier.Notifier
	guard     cache.CacheService
	logger    helpers.LoggerInterface
	interval  time.Duration
	runOnce   bool
}

// guardTTL keeps the fast-path entry alive long enough to cover the rest of
// the day; the store remains the source of truth
const guardTTL = 24 * time.Hour

// NewWorker creates a new worker
func NewWorker(
	ctx context.Context,
	collector Collector,
	store storage.ResultSink,
	ntf notifier.Notifier,
	guard cache.CacheService,
	logger helpers.LoggerInterface,
	interval time.Duration,
	runOnce bool,
) *Worker {
	return &Worker{
		ctx:       ctx,
		collector: collector,
		store:     store,
		notifier:  ntf,
		guard:     guard,
		logger:    logger,
		interval:  interval,
		runOnce:   runOnce,
	}
}

// Start runs the collection loop until the context is cancelled, or returns
// after one pass in run-once mode.
func (w *Worker) Start() error {
	for {
		start := time.Now()
		w.runCollection()
		w.logger.LogInfo("ciclo de coleta finalizado em %s", time.Since(start))

		if w.runOnce {
			return nil
		}

		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		case <-time.After(w.interval):
		}
	}
}

// runCollection performs one guarded collection pass
func (w *Worker) runCollection() {
	if w.alreadyCollectedToday() {
		w.logger.LogInfo("coleta já realizada hoje, aguardando próximo dia")
		return
	}

	offset, err := w.store.HighestExistingID(w.ctx)
	if err != nil {
		w.logger.LogError("storage", err)
		return
	}

	records, report, runErr := w.collector.Collect(w.ctx, offset)
	if runErr != nil {
		// Partial batches are still delivered below
		w.logger.LogError("scraper", runErr)
	}
	w.logReport(report)

	if len(records) == 0 {
		w.logger.LogInfo("nenhum registro coletado, nada a inserir")
		return
	}

	inserted, err := w.store.InsertBatch(w.ctx, records)
	if err != nil {
		w.logger.LogError("storage", err)
		return
	}
	w.logger.LogInfo("inseridos %d de %d registros (ids %d..%d)",
		inserted, len(records), records[0].ID, records[len(records)-1].ID)

	// Only a clean run blocks further attempts today; an aborted partial
	// run may be retried on the next tick.
	if runErr == nil {
		w.markCollected()
	}

	if err := w.notifier.Notify(len(records)); err != nil {
		// Reported, never rolled back
		w.logger.LogError("notifier", err)
	}

	w.logHistory()
}

// logHistory prints the per-day collection totals after a delivered batch
func (w *Worker) logHistory() {
	history, err := w.store.History(w.ctx)
	if err != nil {
		w.logger.LogError("storage", err)
		return
	}
	for _, day := range history {
		w.logger.LogInfo("histórico %s: %d registros", day.Date, day.Count)
	}
}

// alreadyCollectedToday consults the guard cache first, then the store.
// A store error counts as collected so a flaky day never double-inserts.
func (w *Worker) alreadyCollectedToday() bool {
	key := guardKey(time.Now())

	if w.guard != nil {
		if _, err := w.guard.Get(key); err == nil {
			return true
		}
	}

	collected, err := w.store.AlreadyCollectedToday(w.ctx)
	if err != nil {
		w.logger.LogError("storage", err)
		return true
	}
	if collected {
		w.markCollected()
	}
	return collected
}

func (w *Worker) markCollected() {
	if w.guard == nil {
		return
	}
	if err := w.guard.Set(guardKey(time.Now()), []byte("1"), guardTTL); err != nil {
		w.logger.LogError("cache", err)
	}
}

func guardKey(t time.Time) string {
	return "collect:" + t.Format("2006-01-02")
}

func (w *Worker) logReport(report *scraper.RunReport) {
	if report == nil {
		return
	}
	w.logger.LogInfo("relatório: %d páginas, %d cards vistos, %d aceitos, %d rejeitados, %d páginas vazias, %d erros",
		report.PagesAttempted, report.CardsSeen, report.Accepted,
		report.Rejected(), report.EmptyPages, len(report.Errors))
	for _, pageErr := range report.Errors {
		w.logger.LogInfo("  página %d [%s]: %s", pageErr.Page, pageErr.Stage, pageErr.Message)
	}
}
