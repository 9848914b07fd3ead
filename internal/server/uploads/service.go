// Package uploads runs one upload attempt through the validation pipeline to
// a terminal status.
//
// Lifecycle of a record: persisted as IN_PROGRESS the moment the attempt
// begins, then updated exactly once more — to SUCCESS after the validation
// chain passes, the quota is reserved, and the content write completes, or to
// FAILED on the first rejection or I/O error. The terminal status is captured
// in the record store before any callback is dispatched; callback delivery
// failures can never change it.
package uploads

import (
	"context"
	"fmt"

	"github.com/vikinglab/contentvault/internal/common"
	"github.com/vikinglab/contentvault/internal/logging"
	"github.com/vikinglab/contentvault/internal/server/models"
	"github.com/vikinglab/contentvault/internal/server/notify"
	"github.com/vikinglab/contentvault/internal/server/quota"
	repo "github.com/vikinglab/contentvault/internal/server/repositories/uploads"
	"github.com/vikinglab/contentvault/internal/server/storage"
	"github.com/vikinglab/contentvault/internal/server/validation"
)

// ErrStorageFailed is the generic caller-visible message for content store
// and record store I/O failures; the underlying detail is logged only.
var ErrStorageFailed = fmt.Errorf("validation/storage failed")

// Notifier dispatches one terminal-status callback; implemented by
// notify.Dispatcher.
type Notifier interface {
	Dispatch(url string, n notify.Notification)
}

type Service struct {
	records  repo.Repository
	store    storage.Store
	chain    *validation.Chain
	quota    *quota.Reservation
	notifier Notifier
	logger   logging.Logger
}

func NewService(records repo.Repository, store storage.Store, chain *validation.Chain,
	reservation *quota.Reservation, notifier Notifier, logger logging.Logger) *Service {
	return &Service{
		records:  records,
		store:    store,
		chain:    chain,
		quota:    reservation,
		notifier: notifier,
		logger:   logger.With("module", "uploads"),
	}
}

// Store runs one upload attempt for owner. It returns the terminal record
// and, on rejection, the *validation.Error that caused it. The callback URL
// may be empty.
//
// Submission-time failures (the IN_PROGRESS record could not even be
// created) return a nil record; no callback is attempted for those.
func (s *Service) Store(ctx context.Context, owner, filename string, data []byte, callbackURL string) (*models.UploadRecord, error) {

	s.logger.Info(ctx, "upload started", "owner", owner, "filename", filename, "size", len(data))

	record, err := s.records.Create(ctx, owner, filename)
	if err != nil {
		s.logger.Error(ctx, "record creation failed", "owner", owner, "filename", filename, "error", err.Error())
		return nil, ErrStorageFailed
	}

	if err := s.process(ctx, record, data); err != nil {
		return s.fail(ctx, record, callbackURL, err)
	}

	return s.succeed(ctx, record, int64(len(data)), callbackURL)
}

// process performs validation, quota reservation, and the content write.
// On return with nil the bytes are durably stored and the quota debit is
// kept; on error nothing is stored and the debit is released.
func (s *Service) process(ctx context.Context, record *models.UploadRecord, data []byte) error {

	if err := s.chain.Validate(ctx, record.Filename, data); err != nil {
		return err
	}

	size := int64(len(data))
	if err := s.quota.Reserve(size); err != nil {
		return err
	}

	if err := s.store.Put(ctx, record.Filename, data); err != nil {
		s.quota.Release(size)
		s.logger.Error(ctx, "content write failed", "filename", record.Filename, "error", err.Error())
		return ErrStorageFailed
	}

	return nil
}

func (s *Service) succeed(ctx context.Context, record *models.UploadRecord, size int64, callbackURL string) (*models.UploadRecord, error) {

	if err := s.records.MarkSuccess(ctx, record.ID, size); err != nil {
		// content is stored but the terminal transition was lost; surface the
		// failure and skip the callback — the record still reads IN_PROGRESS
		s.logger.Error(ctx, "terminal update failed", "id", record.ID, "error", err.Error())
		return nil, ErrStorageFailed
	}

	record.Status = common.StatusSuccess
	record.SizeBytes = size
	s.logger.Info(ctx, "upload stored", "id", record.ID, "filename", record.Filename, "size", size)

	s.notifier.Dispatch(callbackURL, notify.Notification{
		Status:   common.StatusSuccess,
		Filename: record.Filename,
	})

	return record, nil
}

func (s *Service) fail(ctx context.Context, record *models.UploadRecord, callbackURL string, cause error) (*models.UploadRecord, error) {

	reason := cause.Error()
	if err := s.records.MarkFailed(ctx, record.ID, reason); err != nil {
		s.logger.Error(ctx, "terminal update failed", "id", record.ID, "error", err.Error())
		return nil, ErrStorageFailed
	}

	record.Status = common.StatusFailed
	record.ErrorMessage = reason
	s.logger.Warn(ctx, "upload rejected", "id", record.ID, "filename", record.Filename, "reason", reason)

	s.notifier.Dispatch(callbackURL, notify.Notification{
		Status:       common.StatusFailed,
		Filename:     record.Filename,
		ErrorMessage: &reason,
	})

	return record, cause
}

// Load returns the stored content for a logical name.
func (s *Service) Load(ctx context.Context, name string) ([]byte, error) {
	return s.store.Get(ctx, name)
}
