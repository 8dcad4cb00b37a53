package editor

import (
	"log/slog"
	"time"

	"github.com/goliatone/go-invoiceform/pkg/autosave"
	"github.com/goliatone/go-invoiceform/pkg/form"
	"github.com/goliatone/go-invoiceform/pkg/storage"
)

// Option customises a Session.
type Option func(*config)

type config struct {
	store         storage.Store
	logger        *slog.Logger
	rules         []form.Rule
	sanitize      func(string) string
	now           func() time.Time
	autosaveDelay time.Duration
	scheduler     autosave.Scheduler
	autosaveOff   bool
}

// WithStore enables SaveAs, Save, Load and autosave.
func WithStore(store storage.Store) Option {
	return func(c *config) { c.store = store }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRules replaces the validation rules used by Submit.
func WithRules(rules ...form.Rule) Option {
	return func(c *config) { c.rules = rules }
}

// WithSanitizer replaces SanitizeValue. Passing nil keeps values verbatim.
func WithSanitizer(fn func(string) string) Option {
	return func(c *config) {
		if fn == nil {
			fn = func(s string) string { return s }
		}
		c.sanitize = fn
	}
}

// WithClock overrides time.Now for document timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// WithAutosaveDelay overrides autosave.DefaultDelay.
func WithAutosaveDelay(d time.Duration) Option {
	return func(c *config) { c.autosaveDelay = d }
}

// WithAutosaveScheduler replaces the autosave timer source, mainly for tests.
func WithAutosaveScheduler(s autosave.Scheduler) Option {
	return func(c *config) { c.scheduler = s }
}

// WithoutAutosave disables autosave; Save must be called explicitly.
func WithoutAutosave() Option {
	return func(c *config) { c.autosaveOff = true }
}
