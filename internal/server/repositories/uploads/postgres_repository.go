package uploads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vikinglab/contentvault/internal/common"
	"github.com/vikinglab/contentvault/internal/dbx"
	"github.com/vikinglab/contentvault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, owner, filename string) (*models.UploadRecord, error) {

	query := `INSERT INTO uploads (owner, filename, status)
		VALUES ($1, $2, $3)
		RETURNING id, upload_time`

	record := &models.UploadRecord{
		Owner:    owner,
		Filename: filename,
		Status:   common.StatusInProgress,
	}

	err := r.db.QueryRowContext(ctx, query, owner, filename, common.StatusInProgress).
		Scan(&record.ID, &record.UploadTime)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return record, nil
}

func (r *PostgresRepository) MarkSuccess(ctx context.Context, id string, sizeBytes int64) error {

	query := `UPDATE uploads SET status=$2, size_bytes=$3 WHERE id=$1 AND status=$4`

	res, err := r.db.ExecContext(ctx, query, id, common.StatusSuccess, sizeBytes, common.StatusInProgress)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return requireOneRow(res)
}

func (r *PostgresRepository) MarkFailed(ctx context.Context, id string, errorMessage string) error {

	query := `UPDATE uploads SET status=$2, error_message=$3 WHERE id=$1 AND status=$4`

	res, err := r.db.ExecContext(ctx, query, id, common.StatusFailed, errorMessage, common.StatusInProgress)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return requireOneRow(res)
}

func (r *PostgresRepository) GetLatestByOwner(ctx context.Context, owner string) (*models.UploadRecord, error) {

	query := `SELECT id, owner, filename, status, size_bytes, error_message, upload_time
		FROM uploads WHERE owner=$1
		ORDER BY upload_time DESC LIMIT 1`

	record := &models.UploadRecord{}
	err := r.db.QueryRowContext(ctx, query, owner).Scan(
		&record.ID, &record.Owner, &record.Filename, &record.Status,
		&record.SizeBytes, &record.ErrorMessage, &record.UploadTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return record, nil
}

func (r *PostgresRepository) SelectAll(ctx context.Context) ([]*models.UploadRecord, error) {

	query := `SELECT id, owner, filename, status, size_bytes, error_message, upload_time
		FROM uploads ORDER BY upload_time`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.UploadRecord
	for rows.Next() {
		record := &models.UploadRecord{}
		err := rows.Scan(&record.ID, &record.Owner, &record.Filename, &record.Status,
			&record.SizeBytes, &record.ErrorMessage, &record.UploadTime)
		if err != nil {
			return nil, err
		}
		result = append(result, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PostgresRepository) TotalStoredBytes(ctx context.Context) (int64, error) {

	query := `SELECT COALESCE(SUM(size_bytes), 0) FROM uploads WHERE status=$1`

	var total int64
	if err := r.db.QueryRowContext(ctx, query, common.StatusSuccess).Scan(&total); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return total, nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}
