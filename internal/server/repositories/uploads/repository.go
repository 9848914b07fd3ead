// Package uploads stores upload attempt records. A record is created as
// IN_PROGRESS and updated exactly once more, to SUCCESS or FAILED; records
// are never deleted.
package uploads

import (
	"context"

	"github.com/vikinglab/contentvault/internal/server/models"
)

type Repository interface {
	// Create persists a new record with status IN_PROGRESS and returns it
	// with the assigned ID and upload time.
	Create(ctx context.Context, owner, filename string) (*models.UploadRecord, error)

	// MarkSuccess transitions the record to SUCCESS, recording the stored
	// size. Only an IN_PROGRESS record can transition.
	MarkSuccess(ctx context.Context, id string, sizeBytes int64) error

	// MarkFailed transitions the record to FAILED, recording the reason.
	// Only an IN_PROGRESS record can transition.
	MarkFailed(ctx context.Context, id string, errorMessage string) error

	// GetLatestByOwner returns the owner's record with the maximum upload
	// time, or common.ErrorNotFound when the owner has none.
	GetLatestByOwner(ctx context.Context, owner string) (*models.UploadRecord, error)

	// SelectAll returns every record, oldest first.
	SelectAll(ctx context.Context) ([]*models.UploadRecord, error)

	// TotalStoredBytes sums size_bytes over successful records; used to seed
	// the quota reservation counter at startup.
	TotalStoredBytes(ctx context.Context) (int64, error)
}
