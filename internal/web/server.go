package web

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jaminalder/tictactoe-rounds/internal/app"
)

const defaultHeartbeat = 15 * time.Second

type options struct {
	logger    *slog.Logger
	baseCtx   context.Context
	heartbeat time.Duration
}

// Option configures the web server.
type Option func(*options)

// WithLogger sets the request and handler logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithBaseContext sets the context moves run under once their request has
// been answered. Cancelling it abandons rounds waiting on a transition.
func WithBaseContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.baseCtx = ctx
		}
	}
}

// WithHeartbeat sets the keep-alive interval of event streams and websockets.
func WithHeartbeat(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.heartbeat = d
		}
	}
}

// NewServer wires routes and returns an http.Handler.
func NewServer(s *app.Service, opts ...Option) http.Handler {
	o := options{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		baseCtx:   context.Background(),
		heartbeat: defaultHeartbeat,
	}
	for _, opt := range opts {
		opt(&o)
	}

	h := &handlers{
		svc:       s,
		tpl:       loadTemplates(),
		logger:    o.logger.With("component", "web"),
		baseCtx:   o.baseCtx,
		heartbeat: o.heartbeat,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/", h.index)
	r.Get("/healthz", h.health)
	r.Post("/session", h.create)
	r.Route("/session/{id}", func(r chi.Router) {
		r.Get("/", h.view)
		r.Post("/cells/{index}", h.click)
		r.Post("/cells/{index}/transitionend", h.transitionEnd)
		r.Post("/mode", h.toggleMode)
		r.Get("/events", h.events)
		r.Get("/ws", h.ws)
	})
	return r
}

// logRequests writes one line per request once it has been served.
func (h *handlers) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		}
		if c, err := r.Cookie(playerCookie); err == nil {
			attrs = append(attrs, "player", c.Value)
		}
		h.logger.Debug("request served", attrs...)
	})
}
