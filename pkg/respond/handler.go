package respond

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jdziat/simple-form-actions/pkg/core"
	"github.com/jdziat/simple-form-actions/pkg/dispatch"
)

type handler struct {
	d      *dispatch.Dispatcher
	svc    *dispatch.Service
	method string
	cfg    *config
}

// Handler serves method of svc. Constructor arguments are read from the URL
// query and operation fields from the posted form.
func Handler(d *dispatch.Dispatcher, svc *dispatch.Service, method string, opts ...Option) http.Handler {
	cfg := &config{
		logger:      slog.Default(),
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt.Apply(cfg)
	}
	if cfg.errorHandler == nil {
		cfg.errorHandler = defaultErrorHandler(cfg.logger)
	}
	return &handler{d: d, svc: svc, method: method, cfg: cfg}
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.cfg.limiter.allow(r, time.Now()) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.maxBodySize)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	out, err := h.d.Invoke(r.Context(), h.svc, h.method, core.Values(r.URL.Query()), core.Values(r.PostForm))
	if err != nil {
		h.cfg.metrics.observeFailure(h.svc.Name(), h.method, failureReason(err))
		h.cfg.errorHandler(w, r, err)
		return
	}

	tw := &trackingWriter{ResponseWriter: w}
	mode, err := Write(tw, r, out)
	if err != nil {
		h.cfg.logger.Error("failed to write action response",
			"request_id", out.RequestID, "mode", mode, "error", err)
		h.cfg.metrics.observeFailure(h.svc.Name(), h.method, reasonWrite)
		if !tw.wrote {
			h.cfg.errorHandler(w, r, err)
		}
		return
	}
	h.cfg.metrics.observe(h.svc.Name(), h.method, mode, out.Status)
}

const (
	reasonUnclassified  = "unclassified"
	reasonConfiguration = "configuration"
	reasonWrite         = "write"
	reasonOther         = "other"
)

func failureReason(err error) string {
	var unclassified *core.UnclassifiedError
	var cfgErr *core.ConfigurationError
	switch {
	case errors.As(err, &unclassified):
		return reasonUnclassified
	case errors.As(err, &cfgErr):
		return reasonConfiguration
	}
	return reasonOther
}

// trackingWriter records whether the status line has been sent.
type trackingWriter struct {
	http.ResponseWriter
	wrote bool
}

func (t *trackingWriter) WriteHeader(code int) {
	t.wrote = true
	t.ResponseWriter.WriteHeader(code)
}

func (t *trackingWriter) Write(b []byte) (int, error) {
	t.wrote = true
	return t.ResponseWriter.Write(b)
}

func defaultErrorHandler(logger *slog.Logger) ErrorHandler {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("action failed", "method", r.Method, "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
