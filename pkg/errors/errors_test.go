package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrapeErrorFormatting(t *testing.T) {
	underlying := errors.New("connection refused")
	err := NewLaunch("could not start chrome", underlying)

	assert.Contains(t, err.Error(), "launch")
	assert.Contains(t, err.Error(), "could not start chrome")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, underlying, errors.Unwrap(err))

	withoutCause := NewContainer("results container never rendered", nil)
	assert.Contains(t, withoutCause.Error(), "container")
	assert.NotContains(t, withoutCause.Error(), "<nil>")
}

func TestIsFatal(t *testing.T) {
	fatal := []*ScrapeError{
		NewLaunch("boom", nil),
		NewNavigation("https://example.com", nil),
		NewContainer("missing", nil),
	}
	for _, e := range fatal {
		assert.True(t, e.IsFatal(), "%s should be fatal", e.Type)
	}

	recoverable := []*ScrapeError{
		NewCardParse(3, "bad card", nil),
		NewSink("insert failed", nil),
		NewNotify("smtp down", nil),
		NewConfiguration("bad page budget", nil),
	}
	for _, e := range recoverable {
		assert.False(t, e.IsFatal(), "%s should not be fatal", e.Type)
	}
}

func TestErrorsAs(t *testing.T) {
	var target *ScrapeError
	err := NewCardParse(2, "price text missing", nil)

	assert.True(t, errors.As(error(err), &target))
	assert.Equal(t, ErrorTypeCardParse, target.Type)
	assert.Equal(t, "page 2", target.Stage)
}
