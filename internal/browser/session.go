package browser

import (
	"context"
	mathrand "math/rand"
	"sync"

	"github.com/chromedp/chromedp"

	apperr "cabf05/lotworker/pkg/errors"
)

// Session is the surface the extraction engine needs from a browser. It is
// an interface so the paginator can be exercised against a fake.
type Session interface {
	// Navigate loads the given URL in the session's tab
	Navigate(ctx context.Context, url string) error

	// Evaluate runs a script in the page and unmarshals its result into out.
	// A nil out discards the result.
	Evaluate(ctx context.Context, script string, out interface{}) error

	// Location returns the tab's current URL
	Location(ctx context.Context) (string, error)

	// Close releases the underlying browser process. Idempotent.
	Close()
}

// Options configures a Chrome session
type Options struct {
	Headless  bool
	UserAgent string // empty selects a rotated desktop agent
	Width     int
	Height    int
}

// Plausible desktop agents, rotated per session
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Edge/120.0.0.0 Safari/537.36",
}

// Scripts evaluated right after open to suppress automation-detectable
// navigator flags. Best effort only: an empty result set downstream is an
// expected outcome, not proof these worked.
var stealthScripts = []string{
	`Object.defineProperty(navigator, 'webdriver', {get: () => undefined})`,
	`Object.defineProperty(navigator, 'languages', {get: () => ['pt-BR', 'pt']})`,
	`Object.defineProperty(navigator, 'plugins', {get: () => [1, 2, 3, 4, 5]})`,
}

// ChromeSession owns one Chrome process and one tab
type ChromeSession struct {
	tabCtx      context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	closeOnce   sync.Once
}

var _ Session = (*ChromeSession)(nil)

// Open spawns a Chrome process with anti-detection configuration applied
// and returns a session bound to a fresh tab.
func Open(parent context.Context, opts Options) (*ChromeSession, error) {
	if opts.Width == 0 {
		opts.Width = 1920
	}
	if opts.Height == 0 {
		opts.Height = 1080
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = userAgents[mathrand.Intn(len(userAgents))]
	}

	headless := "false"
	if opts.Headless {
		// The new headless mode renders closer to a headed browser
		headless = "new"
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("accept-language", "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7"),
		chromedp.UserAgent(ua),
		chromedp.WindowSize(opts.Width, opts.Height),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	s := &ChromeSession{
		tabCtx:      tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}

	// Force the browser to start now so launch failures surface here
	if err := chromedp.Run(tabCtx); err != nil {
		s.Close()
		return nil, apperr.NewLaunch("could not start chrome", err)
	}

	for _, script := range stealthScripts {
		if err := chromedp.Run(tabCtx, chromedp.Evaluate(script, nil)); err != nil {
			s.Close()
			return nil, apperr.NewLaunch("could not apply stealth script", err)
		}
	}

	return s, nil
}

// Navigate loads the given URL
func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	if err := chromedp.Run(s.tabCtx, chromedp.Navigate(url)); err != nil {
		return apperr.NewNavigation(url, err)
	}
	return nil
}

// Evaluate runs a script in the page
func (s *ChromeSession) Evaluate(ctx context.Context, script string, out interface{}) error {
	return chromedp.Run(s.tabCtx, chromedp.Evaluate(script, out))
}

// Location returns the tab's current URL
func (s *ChromeSession) Location(ctx context.Context) (string, error) {
	var url string
	if err := chromedp.Run(s.tabCtx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// Close tears down the tab and the browser process. Safe to call more than
// once and safe to call after a failed Open.
func (s *ChromeSession) Close() {
	s.closeOnce.Do(func() {
		if s.cancelTab != nil {
			s.cancelTab()
		}
		if s.cancelAlloc != nil {
			s.cancelAlloc()
		}
	})
}
