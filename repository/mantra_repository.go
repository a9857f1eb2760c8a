package repository

import (
	"context"
	"database/sql"
	"fmt"

	"mantrafm/model"
)

// MantraRepository defines the interface for mantra data operations.
// Mantras are write-once: there is no update path.
type MantraRepository interface {
	CreateMantra(ctx context.Context, mantra *model.Mantra) (int64, error)
	GetMantraByID(ctx context.Context, id, userID int64) (*model.Mantra, error)
	GetMantrasByUserID(ctx context.Context, userID int64) ([]*model.Mantra, error)
}

// mysqlMantraRepository implements MantraRepository for MySQL.
type mysqlMantraRepository struct {
	db *sql.DB
}

// NewMySQLMantraRepository creates a new mysqlMantraRepository.
func NewMySQLMantraRepository(db *sql.DB) MantraRepository {
	return &mysqlMantraRepository{db: db}
}

// CreateMantra inserts a new mantra. Duplicate text is allowed; every
// submission is its own row.
func (r *mysqlMantraRepository) CreateMantra(ctx context.Context, mantra *model.Mantra) (int64, error) {
	query := "INSERT INTO mantras (user_id, text) VALUES (?, ?)"
	res, err := r.db.ExecContext(ctx, query, mantra.UserID, mantra.Text)
	if err != nil {
		return 0, fmt.Errorf("failed to insert mantra: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for mantra: %w", err)
	}
	return id, nil
}

// GetMantraByID retrieves a mantra scoped to its owner.
func (r *mysqlMantraRepository) GetMantraByID(ctx context.Context, id, userID int64) (*model.Mantra, error) {
	query := "SELECT id, user_id, text, created_at FROM mantras WHERE id = ? AND user_id = ?"
	row := r.db.QueryRowContext(ctx, query, id, userID)

	mantra := &model.Mantra{}
	err := row.Scan(&mantra.ID, &mantra.UserID, &mantra.Text, &mantra.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan mantra row for ID %d: %w", id, err)
	}
	return mantra, nil
}

// GetMantrasByUserID retrieves all mantras for a user, oldest first.
func (r *mysqlMantraRepository) GetMantrasByUserID(ctx context.Context, userID int64) ([]*model.Mantra, error) {
	query := "SELECT id, user_id, text, created_at FROM mantras WHERE user_id = ? ORDER BY created_at"
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mantras for user %d: %w", userID, err)
	}
	defer rows.Close()

	var mantras []*model.Mantra
	for rows.Next() {
		mantra := &model.Mantra{}
		if err := rows.Scan(&mantra.ID, &mantra.UserID, &mantra.Text, &mantra.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mantra row: %w", err)
		}
		mantras = append(mantras, mantra)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mantra rows: %w", err)
	}
	return mantras, nil
}
