package dispatch

import (
	"log/slog"

	"github.com/jdziat/simple-form-actions/pkg/core"
)

// Option configures a Dispatcher.
type Option interface {
	Apply(*Dispatcher)
}

type optionFunc func(*Dispatcher)

func (f optionFunc) Apply(d *Dispatcher) { f(d) }

// WithLogger sets the dispatcher logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	})
}

// WithConstructionStatus sets the status used when constructing a service
// target fails with a classified error whose classifier did not choose a
// status. Defaults to 400. Invalid values are ignored.
func WithConstructionStatus(status int) Option {
	return optionFunc(func(d *Dispatcher) {
		if core.ValidStatus(status) {
			d.constructionStatus = status
		}
	})
}
