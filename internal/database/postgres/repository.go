package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/akarpov/shortly/internal/database"
	"github.com/akarpov/shortly/internal/models"
)

type urlRecord struct {
	ID          int64     `db:"id"`
	OriginalURL string    `db:"original_url"`
	ShortCode   string    `db:"short_code"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r *urlRecord) ToURL() *models.URL {
	return &models.URL{
		ID:          r.ID,
		ShortCode:   r.ShortCode,
		OriginalURL: r.OriginalURL,
		CreatedAt:   r.CreatedAt,
	}
}

type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{
		db: db,
	}
}

// Create inserts a new URL record. The short_code column carries a unique
// constraint, so a concurrent insert of the same code surfaces as
// database.ErrShortCodeExists rather than a duplicate row.
func (r *URLRepository) Create(ctx context.Context, shortCode, originalURL string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.Create"

	rec := new(urlRecord)
	query := `INSERT INTO urls(short_code, original_url)
		VALUES ($1, $2)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, shortCode, originalURL)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to create url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

func (r *URLRepository) ShortCodeExists(ctx context.Context, shortCode string) (bool, error) {
	const op = "database.postgres.URLRepository.ShortCodeExists"

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM urls WHERE short_code = $1)`

	err := r.db.GetContext(ctx, &exists, query, shortCode)
	if err != nil {
		return false, fmt.Errorf("%s: failed to check short code existence: %w", op, err)
	}

	return exists, nil
}

func (r *URLRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.GetByShortCode"

	rec := new(urlRecord)
	query := `SELECT * FROM urls WHERE short_code = $1`

	err := r.db.GetContext(ctx, rec, query, shortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

// RecordClick appends a click event for the URL. Click rows are append-only.
func (r *URLRepository) RecordClick(ctx context.Context, urlID int64) error {
	const op = "database.postgres.URLRepository.RecordClick"

	query := `INSERT INTO clicks(url_id) VALUES ($1)`

	if _, err := r.db.ExecContext(ctx, query, urlID); err != nil {
		return fmt.Errorf("%s: failed to record click: %w", op, err)
	}

	return nil
}

func (r *URLRepository) CountClicks(ctx context.Context, urlID int64) (int64, error) {
	const op = "database.postgres.URLRepository.CountClicks"

	var count int64
	query := `SELECT COUNT(*) FROM clicks WHERE url_id = $1`

	err := r.db.GetContext(ctx, &count, query, urlID)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to count clicks: %w", op, err)
	}

	return count, nil
}

// RecentClicks returns up to limit click timestamps for the URL, newest first.
func (r *URLRepository) RecentClicks(ctx context.Context, urlID int64, limit int) ([]time.Time, error) {
	const op = "database.postgres.URLRepository.RecentClicks"

	var clicks []time.Time
	query := `SELECT clicked_at FROM clicks
		WHERE url_id = $1
		ORDER BY clicked_at DESC
		LIMIT $2`

	err := r.db.SelectContext(ctx, &clicks, query, urlID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get recent clicks: %w", op, err)
	}

	return clicks, nil
}
