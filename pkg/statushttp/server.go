// Package statushttp serves a small local control surface for a running
// levelsync session: status, start, stop, reload and metrics.
package statushttp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zoobzio/levelsync"
	"github.com/zoobzio/levelsync/internal/logging"
)

// Session is the part of *levelsync.Session the server drives.
type Session interface {
	Status() levelsync.Status
	ErrorHistory() []levelsync.Incident
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Reload(ctx context.Context) error
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Running   bool       `json:"running"`
	Healthy   bool       `json:"healthy"`
	Source    string     `json:"source"`
	Target    string     `json:"target"`
	Volume    *int       `json:"volume,omitempty"`
	Gain      *float64   `json:"gain,omitempty"`
	Direction string     `json:"direction"`
	Outcome   string     `json:"outcome,omitempty"`
	Errors    []Incident `json:"errors,omitempty"`
}

// Incident is one entry of the session error history.
type Incident struct {
	At    time.Time `json:"at"`
	Op    string    `json:"op"`
	Error string    `json:"error"`
}

// Option configures a handler.
type Option func(*server)

// WithMetrics serves h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *server) { s.metrics = h }
}

// WithLogger sets the logger for request failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *server) { s.logger = l }
}

type server struct {
	session Session
	metrics http.Handler
	logger  *slog.Logger
}

// NewHandler returns the routes for session.
func NewHandler(session Session, opts ...Option) http.Handler {
	s := &server{session: session, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/status", s.status)
	r.Post("/start", s.control("start", session.Start))
	r.Post("/stop", s.control("stop", session.Stop))
	r.Post("/reload", s.control("reload", session.Reload))
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

func (s *server) status(w http.ResponseWriter, _ *http.Request) {
	st := s.session.Status()
	resp := StatusResponse{
		Running:   st.Running,
		Healthy:   st.Healthy,
		Source:    st.Source.String(),
		Target:    st.Target.String(),
		Direction: st.Snapshot.State.Direction.String(),
	}
	if st.Snapshot.Primed {
		vol := st.Snapshot.Source.Int()
		gain := st.Snapshot.Target.Value
		resp.Volume = &vol
		resp.Gain = &gain
		resp.Outcome = st.Snapshot.Outcome.String()
	}
	for _, inc := range s.session.ErrorHistory() {
		resp.Errors = append(resp.Errors, Incident{At: inc.At, Op: inc.Op, Error: inc.Err.Error()})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *server) control(op string, fn func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Sessions outlive the request.
		err := fn(context.WithoutCancel(r.Context()))
		switch {
		case err == nil:
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, levelsync.ErrRunning):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			s.logger.Error("control request failed", "op", op, "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func (s *server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("status server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
