// Package reconcile determines the final outcome of an upload attempt over
// two channels: the push callback the server fires on completion, and a pull
// query against the server's status endpoint when the callback never arrives.
//
// The push channel is best-effort on the server side, so the reconciler
// always reaches a verdict: Success, Failed, or Unknown when neither channel
// produced a terminal answer within its budget.
package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vikinglab/contentvault/internal/client/api"
	"github.com/vikinglab/contentvault/internal/client/callback"
	"github.com/vikinglab/contentvault/internal/common"
	"github.com/vikinglab/contentvault/internal/logging"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeUnknown Outcome = "unknown"
)

// Source names the channel that produced the verdict.
type Source string

const (
	SourceSubmit Source = "submit"
	SourcePush   Source = "push"
	SourcePull   Source = "pull"
	SourceNone   Source = "none"
)

// Result is the reconciler's verdict on one upload attempt.
type Result struct {
	Outcome      Outcome
	Filename     string
	ErrorMessage string
	Source       Source
}

// Uploader is the slice of the API client the reconciler needs.
type Uploader interface {
	Upload(ctx context.Context, filename string, data []byte, callbackURL string) (*api.UploadRecord, error)
	Latest(ctx context.Context) (*api.UploadRecord, error)
}

// Receiver is the slice of the callback listener the reconciler needs.
type Receiver interface {
	URLFor(attempt string) string
	Result(attempt string) (*callback.Notification, bool)
	Clear(attempt string)
}

type Reconciler struct {
	api          Uploader
	listener     Receiver
	waitTimeout  time.Duration
	pollInterval time.Duration
	queryTimeout time.Duration
	logger       logging.Logger
}

func New(apiClient Uploader, listener Receiver, waitTimeout, pollInterval, queryTimeout time.Duration, logger logging.Logger) *Reconciler {
	return &Reconciler{
		api:          apiClient,
		listener:     listener,
		waitTimeout:  waitTimeout,
		pollInterval: pollInterval,
		queryTimeout: queryTimeout,
		logger:       logger.With("module", "reconcile"),
	}
}

// Upload submits the file and reconciles its outcome. Each attempt gets its
// own callback URL so concurrent uploads cannot read each other's result.
//
// A rejection in the submission response is already the terminal verdict:
// the reconciler reports Failed immediately, without waiting for channels
// that can only repeat the answer it holds. For accepted uploads the outcome
// comes from the push callback when it arrives in time, otherwise from one
// pull query. A transport-level submission failure aborts with an error.
func (r *Reconciler) Upload(ctx context.Context, filename string, data []byte) (*Result, error) {
	attempt := uuid.NewString()
	defer r.listener.Clear(attempt)

	_, err := r.api.Upload(ctx, filename, data, r.listener.URLFor(attempt))
	if err != nil {
		var rej *api.RejectionError
		if !errors.As(err, &rej) {
			return nil, err
		}
		r.logger.Info(ctx, "outcome from submission", "filename", filename, "reason", rej.Reason)
		return &Result{
			Outcome:      OutcomeFailed,
			Filename:     filename,
			ErrorMessage: rej.Reason,
			Source:       SourceSubmit,
		}, nil
	}

	if n, ok := r.waitForPush(ctx, attempt); ok {
		r.logger.Info(ctx, "outcome from push", "filename", n.Filename, "status", n.Status)
		return fromNotification(n), nil
	}

	r.logger.Info(ctx, "no callback in time, falling back to pull", "filename", filename)
	return r.pull(ctx, filename), nil
}

// waitForPush polls the callback slot until the notification arrives or the
// wait budget runs out.
func (r *Reconciler) waitForPush(ctx context.Context, attempt string) (*callback.Notification, bool) {
	deadline := time.NewTimer(r.waitTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		if n, ok := r.listener.Result(attempt); ok {
			return n, true
		}
		select {
		case <-ticker.C:
		case <-deadline.C:
			return nil, false
		case <-ctx.Done():
			return nil, false
		}
	}
}

// pull asks the server for the latest upload once. Anything short of a
// terminal status for the right file is Unknown.
func (r *Reconciler) pull(ctx context.Context, filename string) *Result {
	queryCtx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	record, err := r.api.Latest(queryCtx)
	if err != nil {
		r.logger.Warn(ctx, "pull query failed", "filename", filename, "error", err.Error())
		return &Result{Outcome: OutcomeUnknown, Filename: filename, Source: SourceNone}
	}
	if record == nil || record.Filename != filename {
		return &Result{Outcome: OutcomeUnknown, Filename: filename, Source: SourceNone}
	}

	switch record.Status {
	case common.StatusSuccess:
		return &Result{Outcome: OutcomeSuccess, Filename: filename, Source: SourcePull}
	case common.StatusFailed:
		res := &Result{Outcome: OutcomeFailed, Filename: filename, Source: SourcePull}
		if record.ErrorMessage != nil {
			res.ErrorMessage = *record.ErrorMessage
		}
		return res
	default:
		// still IN_PROGRESS after the whole wait budget
		return &Result{Outcome: OutcomeUnknown, Filename: filename, Source: SourceNone}
	}
}

func fromNotification(n *callback.Notification) *Result {
	res := &Result{Filename: n.Filename, Source: SourcePush}
	switch n.Status {
	case common.StatusSuccess:
		res.Outcome = OutcomeSuccess
	case common.StatusFailed:
		res.Outcome = OutcomeFailed
		if n.ErrorMessage != nil {
			res.ErrorMessage = *n.ErrorMessage
		}
	default:
		res.Outcome = OutcomeUnknown
		res.Source = SourceNone
	}
	return res
}
