package watcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// TickStatus is the outcome of one scheduled check.
type TickStatus struct {
	Time    time.Time `json:"time"`
	Outcome string    `json:"outcome"`
	RunID   string    `json:"run_id,omitempty"`
	Dates   []string  `json:"dates,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// statusTracker keeps the most recent tick outcome for the status api.
type statusTracker struct {
	identity string
	started  time.Time

	mu    sync.RWMutex
	ticks int
	last  *TickStatus
}

func newStatusTracker(identity string) *statusTracker {
	return &statusTracker{
		identity: identity,
		started:  time.Now(),
	}
}

func (s *statusTracker) Record(tick TickStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks++
	s.last = &tick
}

type statusReport struct {
	Identity string      `json:"identity"`
	Started  time.Time   `json:"started"`
	Ticks    int         `json:"ticks"`
	LastTick *TickStatus `json:"last_tick,omitempty"`
}

func (s *statusTracker) Report() statusReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return statusReport{
		Identity: s.identity,
		Started:  s.started,
		Ticks:    s.ticks,
		LastTick: s.last,
	}
}

func (s *Service) statusHandler() http.Handler {
	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(s.status.Report())
		if err != nil {
			slog.WarnContext(r.Context(), "failed to encode status", "err", err.Error())
		}
	})
	return router
}

// serveStatus exposes liveness and the last tick outcome over http until
// ctx is cancelled.
func (s *Service) serveStatus(ctx context.Context) {
	server := &http.Server{
		Addr: fmt.Sprintf("0.0.0.0:%d", s.opts.StatusPort),
		Handler: h2c.NewHandler(
			otelhttp.NewHandler(s.statusHandler(), "watcher_status"),
			&http2.Server{},
		),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("failed to shut down the status server", "err", err.Error())
		}
	}()

	slog.InfoContext(ctx, "serving watcher status", "port", s.opts.StatusPort)
	err := server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.ErrorContext(ctx, "status server failed", "err", err.Error())
	}
}
