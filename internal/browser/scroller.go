package browser

import (
	"context"
	"fmt"
	mathrand "math/rand"
	"time"

	"cabf05/lotworker/logger"
)

const (
	scrollSteps = 4
	// Stop short of the exact bottom so infinite-scroll handlers meant for
	// human overscroll are not triggered.
	bottomOffset = 200
)

// RevealLazyContent scrolls through the page in equal increments with
// jittered pauses so lazy-loaded cards render. A failed scroll only degrades
// extraction yield, so errors are logged and swallowed.
func RevealLazyContent(ctx context.Context, s Session, pauseMin, pauseMax time.Duration) {
	log := logger.ForScraper()

	var height float64
	if err := s.Evaluate(ctx, `document.body.scrollHeight`, &height); err != nil {
		log.Warn().Err(err).Msg("Could not read scroll height")
		return
	}

	step := height / scrollSteps
	position := 0.0
	for i := 0; i < scrollSteps; i++ {
		position += step
		if err := s.Evaluate(ctx, fmt.Sprintf(`window.scrollTo(0, %.0f);`, position), nil); err != nil {
			log.Warn().Err(err).Int("step", i+1).Msg("Scroll step failed")
			return
		}
		pause(ctx, jitter(pauseMin, pauseMax))
	}

	if err := s.Evaluate(ctx, fmt.Sprintf(`window.scrollTo(0, %.0f);`, height-bottomOffset), nil); err != nil {
		log.Warn().Err(err).Msg("Final scroll failed")
		return
	}
	pause(ctx, pauseMax)
}

// jitter returns a random duration in [min, max]
func jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(mathrand.Int63n(int64(max-min)))
}

func pause(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
