package notifier

// Notifier represents the completion notification channel. Notify is invoked
// once per run, after a successful sink insert; a failure here is reported
// but never rolls the insert back.
type Notifier interface {
	// Notify announces a completed collection with its record total
	Notify(totalRecords int) error

	// Close closes the notifier connection
	Close() error
}

// Noop discards notifications; used when no driver is configured
type Noop struct{}

var _ Notifier = (*Noop)(nil)

func (Noop) Notify(totalRecords int) error { return nil }

func (Noop) Close() error { return nil }
