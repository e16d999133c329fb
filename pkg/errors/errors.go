package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeLaunch represents browser launch failures
	ErrorTypeLaunch ErrorType = "launch"
	// ErrorTypeNavigation represents navigation failures
	ErrorTypeNavigation ErrorType = "navigation"
	// ErrorTypeContainer represents a results container that never rendered
	ErrorTypeContainer ErrorType = "container"
	// ErrorTypeCardParse represents a single malformed listing card
	ErrorTypeCardParse ErrorType = "card_parse"
	// ErrorTypeSink represents persisted-store errors
	ErrorTypeSink ErrorType = "sink"
	// ErrorTypeNotify represents notification delivery errors
	ErrorTypeNotify ErrorType = "notify"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ScrapeError represents an error raised during a collection run
type ScrapeError struct {
	Type    ErrorType
	Stage   string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Stage, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether the error makes all further progress in a run
// impossible. Non-fatal errors are recorded in the run report and the
// pagination loop continues.
func (e *ScrapeError) IsFatal() bool {
	switch e.Type {
	case ErrorTypeLaunch, ErrorTypeNavigation, ErrorTypeContainer:
		return true
	default:
		return false
	}
}

// New creates a new ScrapeError
func New(errType ErrorType, stage, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		Stage:   stage,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewLaunch creates a new browser launch error
func NewLaunch(message string, err error) *ScrapeError {
	return New(ErrorTypeLaunch, "session", message, err)
}

// NewNavigation creates a new navigation error
func NewNavigation(url string, err error) *ScrapeError {
	return New(ErrorTypeNavigation, "session", fmt.Sprintf("navigate %s", url), err)
}

// NewContainer creates a new missing-results-container error
func NewContainer(message string, err error) *ScrapeError {
	return New(ErrorTypeContainer, "paginator", message, err)
}

// NewCardParse creates a new card parse error
func NewCardParse(page int, message string, err error) *ScrapeError {
	return New(ErrorTypeCardParse, fmt.Sprintf("page %d", page), message, err)
}

// NewSink creates a new persisted-store error
func NewSink(message string, err error) *ScrapeError {
	return New(ErrorTypeSink, "storage", message, err)
}

// NewNotify creates a new notification error
func NewNotify(message string, err error) *ScrapeError {
	return New(ErrorTypeNotify, "notifier", message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "config", message, err)
}
