// Package repository provides PostgreSQL persistence for the reference sheet
// endpoint: deployments and sheet revisions.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/storystudio/ledger/internal/models"
)

// PostgresDeploymentRepository stores deployments in PostgreSQL.
type PostgresDeploymentRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresDeploymentRepository creates a PostgresDeploymentRepository with the given database connection.
func NewPostgresDeploymentRepository(db *sql.DB) *PostgresDeploymentRepository {
	return &PostgresDeploymentRepository{DB: db}
}

// CreateDeployment inserts d.
func (r *PostgresDeploymentRepository) CreateDeployment(ctx context.Context, d models.Deployment) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO deployments (id, access, created_at) VALUES ($1, $2, $3)`,
		d.ID, string(d.Access), d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("CreateDeployment: %w", err)
	}
	return nil
}

// GetDeployment returns the deployment with id, or nil if there is none.
func (r *PostgresDeploymentRepository) GetDeployment(ctx context.Context, id string) (*models.Deployment, error) {
	var (
		d      models.Deployment
		access string
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, access, created_at FROM deployments WHERE id = $1`,
		id,
	).Scan(&d.ID, &access, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetDeployment: %w", err)
	}
	d.Access = models.Access(access)
	return &d, nil
}
