package respond

import (
	"log/slog"
	"net/http"
)

// Option configures a Handler.
type Option interface {
	Apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) Apply(c *config) { f(c) }

// ErrorHandler answers a request whose action failed without an outcome.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// DefaultMaxBodySize limits form posts to 1MB.
const DefaultMaxBodySize = 1 << 20

type config struct {
	logger       *slog.Logger
	metrics      *Metrics
	errorHandler ErrorHandler
	maxBodySize  int64
	limiter      *clientLimiter
}

// WithLogger sets the handler logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *config) {
		if l != nil {
			c.logger = l
		}
	})
}

// WithMetrics records responses in m.
func WithMetrics(m *Metrics) Option {
	return optionFunc(func(c *config) {
		c.metrics = m
	})
}

// WithErrorHandler replaces the default handler, which logs the error and
// answers 500.
func WithErrorHandler(h ErrorHandler) Option {
	return optionFunc(func(c *config) {
		if h != nil {
			c.errorHandler = h
		}
	})
}

// WithMaxBodySize limits the size of posted forms.
func WithMaxBodySize(n int64) Option {
	return optionFunc(func(c *config) {
		if n > 0 {
			c.maxBodySize = n
		}
	})
}

// WithRateLimit limits each client address to rps requests per second with
// the given burst. Requests over the limit are answered 429.
func WithRateLimit(rps float64, burst int) Option {
	return optionFunc(func(c *config) {
		c.limiter = newClientLimiter(rps, burst)
	})
}
