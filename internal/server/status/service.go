// Package status answers read-side questions about upload records: the latest
// attempt per user, a CSV export of everything, and server uptime. It is the
// pull half of the notification protocol — the channel a client falls back to
// when a callback never arrived.
package status

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/vikinglab/contentvault/internal/common"
	"github.com/vikinglab/contentvault/internal/logging"
	"github.com/vikinglab/contentvault/internal/server/models"
	repo "github.com/vikinglab/contentvault/internal/server/repositories/uploads"
)

const exportTimeLayout = "2006-01-02 15:04:05"

var csvHeader = []string{"ID", "Filename", "Username", "SizeBytes", "UploadTime", "Status", "ErrorMessage"}

type Service struct {
	records   repo.Repository
	logger    logging.Logger
	startTime time.Time
}

func NewService(records repo.Repository, logger logging.Logger) *Service {
	return &Service{
		records:   records,
		logger:    logger.With("module", "status"),
		startTime: time.Now(),
	}
}

// LastUpload returns the owner's most recent attempt regardless of status.
// An owner with no uploads yet gets (nil, nil): that is an answer, not an
// error.
func (s *Service) LastUpload(ctx context.Context, owner string) (*models.UploadRecord, error) {
	record, err := s.records.GetLatestByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		s.logger.Error(ctx, "latest upload query failed", "owner", owner, "error", err.Error())
		return nil, fmt.Errorf("querying latest upload: %w", err)
	}
	return record, nil
}

// ExportCSV streams every upload record to w, oldest first, one row per
// attempt with a fixed header.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	records, err := s.records.SelectAll(ctx)
	if err != nil {
		s.logger.Error(ctx, "export query failed", "error", err.Error())
		return fmt.Errorf("querying uploads for export: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing export header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.ID,
			r.Filename,
			r.Owner,
			strconv.FormatInt(r.SizeBytes, 10),
			r.UploadTime.Format(exportTimeLayout),
			r.Status,
			r.ErrorMessage,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing export row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Uptime reports how long the service has been running.
func (s *Service) Uptime() time.Duration {
	return time.Since(s.startTime)
}

// StartTime reports when the service came up.
func (s *Service) StartTime() time.Time {
	return s.startTime
}
