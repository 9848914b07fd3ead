// Package notify delivers upload status callbacks to client-supplied URLs.
//
// Delivery is best-effort and at-most-once: the send runs on a detached
// goroutine, failures are logged and never retried, and nothing here can
// affect the upload record that triggered the callback. The client reconciles
// missed callbacks through the status query service.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/vikinglab/contentvault/internal/logging"
)

// Notification mirrors the terminal fields of one upload record at the moment
// of dispatch. It is a point-in-time copy, not a view of the record store.
type Notification struct {
	Status       string  `json:"status"`
	Filename     string  `json:"filename"`
	ErrorMessage *string `json:"errorMessage"`
}

type Dispatcher struct {
	client *http.Client
	logger logging.Logger
	wg     sync.WaitGroup
}

func NewDispatcher(logger logging.Logger) *Dispatcher {
	return &Dispatcher{
		client: &http.Client{Timeout: 5 * time.Second},
		logger: logger.With("module", "notify"),
	}
}

// Dispatch enqueues a callback POST and returns immediately. An empty URL is
// a no-op: the uploader did not ask for a callback.
func (d *Dispatcher) Dispatch(url string, n Notification) {
	if url == "" {
		return
	}
	d.wg.Add(1)
	go d.send(url, n)
}

// Wait blocks until all in-flight sends have finished. Used on shutdown and
// in tests; the upload path never calls it.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) send(url string, n Notification) {
	defer d.wg.Done()

	ctx := context.Background()

	body, err := json.Marshal(n)
	if err != nil {
		d.logger.Error(ctx, "callback payload marshal failed", "url", url, "error", err.Error())
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		d.logger.Error(ctx, "callback request creation failed", "url", url, "error", err.Error())
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Error(ctx, "callback delivery failed", "url", url, "error", err.Error())
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		d.logger.Warn(ctx, "callback rejected by receiver", "url", url, "status", n.Status, "code", resp.StatusCode)
		return
	}

	d.logger.Info(ctx, "callback delivered", "url", url, "status", n.Status, "code", resp.StatusCode)
}
