package scraper

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"cabf05/lotworker/config"
	"cabf05/lotworker/helpers"
	"cabf05/lotworker/internal/browser"
	"cabf05/lotworker/logger"
	apperr "cabf05/lotworker/pkg/errors"
)

// runState is the paginator's position in the extraction loop
type runState int

const (
	stateInit runState = iota
	stateLoading
	stateReady
	stateExtracting
	stateAdvancePage
	stateDone
	stateAborted
)

func (s runState) String() string {
	switch s {
	case stateInit:
		return "init"
	case stateLoading:
		return "loading"
	case stateReady:
		return "ready"
	case stateExtracting:
		return "extracting"
	case stateAdvancePage:
		return "advance_page"
	case stateDone:
		return "done"
	case stateAborted:
		return "aborted"
	}
	return "unknown"
}

// Paginator drives a collection run as an explicit state machine:
// Init → Loading → Ready → Extracting → (AdvancePage → Loading) | Done | Aborted.
// Per-page failures are recovered into the run report; only a missing results
// container (or an unreachable base URL) aborts the run, and even then every
// already-collected record is returned.
type Paginator struct {
	session browser.Session
	cfg     *config.Config
	seq     *SequenceAllocator
	report  *RunReport
	log     *logger.Logger

	records     []Listing
	page        int
	locality    string
	region      string
	collectedAt string
}

// NewPaginator creates a paginator for one run. runStartOffset is the
// highest id already persisted in the sink.
func NewPaginator(session browser.Session, cfg *config.Config, runStartOffset int64) *Paginator {
	return &Paginator{
		session:     session,
		cfg:         cfg,
		seq:         NewSequenceAllocator(runStartOffset),
		report:      NewRunReport(),
		log:         logger.ForScraper(),
		page:        1,
		locality:    cfg.DefaultLocality,
		region:      cfg.DefaultRegion,
		collectedAt: time.Now().Format("2006-01-02"),
	}
}

// Run walks up to the configured page budget and returns the accumulated
// records and the run report. The session is released on every exit path;
// a non-nil error means the run aborted, but the records collected before
// the fatal condition are still returned.
func (p *Paginator) Run(ctx context.Context) ([]Listing, *RunReport, error) {
	defer p.session.Close()
	defer p.report.Finish()

	var fatal *apperr.ScrapeError

	state := stateInit
	for state != stateDone && state != stateAborted {
		p.log.Debug().Str("state", state.String()).Int("page", p.page).Msg("State transition")

		switch state {
		case stateInit:
			if err := p.session.Navigate(ctx, p.cfg.BaseURL); err != nil {
				fatal = apperr.NewNavigation(p.cfg.BaseURL, err)
				state = stateAborted
				continue
			}
			state = stateLoading

		case stateLoading:
			if !browser.WaitUntilReady(ctx, p.session, p.cfg.LoadPolls, p.cfg.ReadyPollInterval) {
				// A partial render still often yields a results container
				p.log.Warn().Int("page", p.page).Msg("Document never reported ready, proceeding anyway")
			}
			state = stateReady

		case stateReady:
			browser.RevealLazyContent(ctx, p.session, p.cfg.ScrollPauseMin, p.cfg.ScrollPauseMax)

			if !p.waitForContainer(ctx) {
				fatal = apperr.NewContainer("results container never rendered", nil)
				state = stateAborted
				continue
			}
			if p.page == 1 {
				p.resolveLocation(ctx)
			}
			state = stateExtracting

		case stateExtracting:
			p.report.PagesAttempted++
			p.extractCurrentPage(ctx)
			state = stateAdvancePage

		case stateAdvancePage:
			if p.page >= p.cfg.PageBudget {
				state = stateDone
				continue
			}
			if !p.clickNext(ctx) {
				// No further page exists: expected terminal condition
				p.log.Info().Int("page", p.page).Msg("No next-page control found, ending run")
				state = stateDone
				continue
			}
			sleepCtx(ctx, p.cfg.SettleDelay)
			p.page++
			if url, err := p.session.Location(ctx); err == nil {
				p.log.Debug().Int("page", p.page).Str("url", url).Msg("Advanced to next page")
			}
			state = stateLoading
		}
	}

	if fatal != nil {
		p.report.Fatal = fatal.Error()
		p.report.RecordError(p.page, string(fatal.Type), fatal.Error())
		p.log.Error().Err(fatal).Int("records", len(p.records)).Msg("Run aborted, returning partial batch")
		return p.records, p.report, fatal
	}

	p.log.Info().
		Int("pages", p.report.PagesAttempted).
		Int("accepted", p.report.Accepted).
		Int("rejected", p.report.Rejected()).
		Msg("Run finished")
	return p.records, p.report, nil
}

// waitForContainer probes for the results container at the ready-poll
// interval, bounded by the configured wait timeout.
func (p *Paginator) waitForContainer(ctx context.Context) bool {
	polls := int(p.cfg.WaitTimeout / p.cfg.ReadyPollInterval)
	if polls < 1 {
		polls = 1
	}
	for i := 0; i < polls; i++ {
		var present bool
		if err := p.session.Evaluate(ctx, containerPresentScript, &present); err == nil && present {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(p.cfg.ReadyPollInterval):
		}
	}
	return false
}

// resolveLocation reads locality and region from the container header once
// per run. The configured defaults already populate the fields, so any
// failure here is logged and ignored.
func (p *Paginator) resolveLocation(ctx context.Context) {
	var text string
	if err := p.session.Evaluate(ctx, containerTextScript, &text); err != nil || text == "" {
		return
	}

	header := text
	if idx := strings.IndexByte(header, '\n'); idx >= 0 {
		header = header[:idx]
	}
	if strings.Count(header, " - ") != 1 {
		return
	}
	locality, err1 := helpers.GetSplitPart(header, " - ", 0)
	region, err2 := helpers.GetSplitPart(header, " - ", 1)
	if err1 != nil || err2 != nil || locality == "" || region == "" {
		return
	}
	p.locality = locality
	p.region = region
	p.log.Debug().Str("locality", locality).Str("region", region).Msg("Resolved location")
}

// extractCurrentPage locates the page's cards and turns them into records.
// All failures here are local to the page: they are recorded and the run
// continues.
func (p *Paginator) extractCurrentPage(ctx context.Context) {
	html := p.cardsHTMLWithRetry(ctx)
	if html == "" {
		p.report.EmptyPages++
		p.log.Warn().Int("page", p.page).Msg("No extractable cards on page")
		return
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		p.report.RecordError(p.page, "parse", err.Error())
		p.log.Warn().Err(err).Int("page", p.page).Msg("Could not parse page markup")
		return
	}

	cards := doc.Find(ListingCardSelector)
	if cards.Length() == 0 {
		p.report.EmptyPages++
		return
	}

	cards.Each(func(i int, card *goquery.Selection) {
		p.report.CardsSeen++

		record, reason := ExtractCard(card, p.page)
		if reason != RejectNone {
			p.report.RecordReject(reason)
			p.log.Debug().Int("page", p.page).Str("reason", string(reason)).Msg("Card rejected")
			return
		}

		record.ID = p.seq.Allocate()
		record.Locality = p.locality
		record.Region = p.region
		record.CollectedAt = p.collectedAt
		p.records = append(p.records, *record)
		p.report.Accepted++
	})
}

// cardsHTMLWithRetry fetches the container markup, retrying with a fixed
// backoff when zero cards are found: the container sometimes renders before
// its children.
func (p *Paginator) cardsHTMLWithRetry(ctx context.Context) string {
	for attempt := 1; attempt <= p.cfg.CardRetryAttempts; attempt++ {
		var count int
		if err := p.session.Evaluate(ctx, cardCountScript, &count); err != nil {
			p.report.RecordError(p.page, "locate", err.Error())
		} else if count > 0 {
			var html string
			if err := p.session.Evaluate(ctx, cardsHTMLScript, &html); err != nil {
				p.report.RecordError(p.page, "locate", err.Error())
			} else {
				return html
			}
		}

		if attempt < p.cfg.CardRetryAttempts {
			p.log.Debug().Int("page", p.page).Int("attempt", attempt).Msg("Zero cards, retrying")
			sleepCtx(ctx, p.cfg.CardRetryBackoff)
		}
	}
	return ""
}

// clickNext tries the ordered strategy list and dispatches a script-level
// click on the first control that resolves.
func (p *Paginator) clickNext(ctx context.Context) bool {
	for _, strategy := range NextControlStrategies(NextPageLabel) {
		var clicked bool
		if err := p.session.Evaluate(ctx, strategy.ClickScript(), &clicked); err != nil {
			continue
		}
		if clicked {
			return true
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
