package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/storystudio/ledger/internal/models"
)

// PostgresSheetRepository stores sheet revisions in PostgreSQL. Every save
// appends a revision; reads return the latest one.
type PostgresSheetRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresSheetRepository creates a PostgresSheetRepository using the provided *sql.DB.
func NewPostgresSheetRepository(db *sql.DB) *PostgresSheetRepository {
	return &PostgresSheetRepository{DB: db}
}

// LatestRevision returns the newest revision of sheet, or nil if it was never saved.
func (r *PostgresSheetRepository) LatestRevision(ctx context.Context, deploymentID, sheet string) (*models.Revision, error) {
	rev := models.Revision{DeploymentID: deploymentID, Sheet: sheet}
	var rows []byte
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, rows, saved_at FROM sheet_revisions
		WHERE deployment_id = $1 AND sheet = $2
		ORDER BY id DESC LIMIT 1
	`, deploymentID, sheet).Scan(&rev.ID, &rows, &rev.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LatestRevision: %w", err)
	}
	rev.Rows = rows
	return &rev, nil
}

// SaveRevisions appends revs in one transaction.
func (r *PostgresSheetRepository) SaveRevisions(ctx context.Context, revs []models.Revision) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, rev := range revs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sheet_revisions (deployment_id, sheet, rows, saved_at)
			VALUES ($1, $2, $3, $4)
		`, rev.DeploymentID, rev.Sheet, []byte(rev.Rows), rev.SavedAt)
		if err != nil {
			return fmt.Errorf("insert %s revision: %w", rev.Sheet, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
