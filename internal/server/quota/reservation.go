// Package quota tracks cumulative stored bytes against a configured ceiling.
//
// The check and the subsequent content write are not one atomic unit, so the
// counter is debited provisionally before the write: two concurrent uploads
// can never jointly overshoot the ceiling. A failed upload releases its
// reservation; a successful one keeps it.
package quota

import (
	"fmt"
	"sync"

	"github.com/vikinglab/contentvault/internal/server/validation"
)

// Reservation is a concurrency-safe used-bytes counter with a hard ceiling.
type Reservation struct {
	mu    sync.Mutex
	used  int64
	limit int64
}

func NewReservation(limit int64) *Reservation {
	return &Reservation{limit: limit}
}

// Seed sets the baseline of already-stored bytes, typically the sum of
// size_bytes over successful upload records at startup.
func (r *Reservation) Seed(used int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.used = used
}

// Used returns the currently reserved byte count.
func (r *Reservation) Used() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.used
}

// Reserve atomically checks the ceiling and debits n bytes. On rejection it
// returns a *validation.Error with the quota reason and leaves the counter
// unchanged.
func (r *Reservation) Reserve(n int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.used+n > r.limit {
		return &validation.Error{
			Kind:   validation.KindQuotaExceeded,
			Reason: fmt.Sprintf("Storage quota exceeded. Used: %d bytes, limit: %d bytes", r.used, r.limit),
		}
	}
	r.used += n
	return nil
}

// Release undoes a prior Reserve after a failed upload.
func (r *Reservation) Release(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.used -= n
	if r.used < 0 {
		r.used = 0
	}
}
