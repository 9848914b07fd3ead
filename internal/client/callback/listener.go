// Package callback receives upload status notifications pushed by the
// server. Each upload attempt registers its own URL, keyed by an attempt ID,
// so concurrent uploads can never read each other's result.
package callback

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vikinglab/contentvault/internal/logging"
)

// Notification is the payload the server POSTs to the callback URL.
type Notification struct {
	Status       string  `json:"status"`
	Filename     string  `json:"filename"`
	ErrorMessage *string `json:"errorMessage"`
}

type slot struct {
	notification Notification
	arrivedAt    time.Time
}

// Listener runs a local HTTP endpoint at POST /upload-status/{attempt} and
// stores each received notification under its attempt ID until it is read,
// cleared, or expires.
type Listener struct {
	baseURL string
	ttl     time.Duration
	logger  logging.Logger

	mu    sync.Mutex
	slots map[string]slot

	server *http.Server
}

func NewListener(addr, baseURL string, ttl time.Duration, logger logging.Logger) *Listener {
	l := &Listener{
		baseURL: baseURL,
		ttl:     ttl,
		logger:  logger.With("module", "callback"),
		slots:   make(map[string]slot),
	}

	r := chi.NewRouter()
	r.Post("/upload-status/{attempt}", l.receive)

	l.server = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return l
}

// URLFor returns the callback URL to hand the server for one upload attempt.
func (l *Listener) URLFor(attempt string) string {
	return l.baseURL + "/upload-status/" + attempt
}

// Handler exposes the router; used by tests to drive the listener without a
// real socket.
func (l *Listener) Handler() http.Handler {
	return l.server.Handler
}

// Run serves until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		l.logger.Info(ctx, "callback listener started", "addr", l.server.Addr)
		if err := l.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return l.server.Shutdown(shutdownCtx)
}

func (l *Listener) receive(w http.ResponseWriter, r *http.Request) {
	attempt := chi.URLParam(r, "attempt")

	var n Notification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	l.mu.Lock()
	l.purgeExpiredLocked()
	l.slots[attempt] = slot{notification: n, arrivedAt: time.Now()}
	l.mu.Unlock()

	l.logger.Info(r.Context(), "notification received", "attempt", attempt, "status", n.Status, "filename", n.Filename)
	w.WriteHeader(http.StatusOK)
}

// Result returns the notification received for attempt, if any. The slot
// stays populated until Clear; a notification older than the TTL is treated
// as never having arrived.
func (l *Listener) Result(attempt string) (*Notification, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[attempt]
	if !ok || l.expired(s) {
		return nil, false
	}
	n := s.notification
	return &n, true
}

// Clear drops the slot for attempt; called when the upload flow has consumed
// the result or given up waiting.
func (l *Listener) Clear(attempt string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.slots, attempt)
}

func (l *Listener) expired(s slot) bool {
	return l.ttl > 0 && time.Since(s.arrivedAt) > l.ttl
}

func (l *Listener) purgeExpiredLocked() {
	for attempt, s := range l.slots {
		if l.expired(s) {
			delete(l.slots, attempt)
		}
	}
}
