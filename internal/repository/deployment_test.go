package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/storystudio/ledger/internal/models"
)

func setupDeploymentMock(t *testing.T) (*PostgresDeploymentRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	return NewPostgresDeploymentRepository(db), mock, func() { db.Close() }
}

func TestCreateDeployment_Success(t *testing.T) {
	repo, mock, cleanup := setupDeploymentMock(t)
	defer cleanup()

	d := models.Deployment{ID: "AKfy123", Access: models.AccessAnyone, CreatedAt: time.Unix(1700000000, 0)}
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO deployments (id, access, created_at) VALUES ($1, $2, $3)`)).
		WithArgs(d.ID, "anyone", d.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.CreateDeployment(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCreateDeployment_Error(t *testing.T) {
	repo, mock, cleanup := setupDeploymentMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO deployments").WillReturnError(errors.New("duplicate key"))

	err := repo.CreateDeployment(context.Background(), models.Deployment{ID: "x"})
	if err == nil || !regexp.MustCompile(`CreateDeployment`).MatchString(err.Error()) {
		t.Errorf("expected CreateDeployment error, got %v", err)
	}
}

func TestGetDeployment_Found(t *testing.T) {
	repo, mock, cleanup := setupDeploymentMock(t)
	defer cleanup()

	created := time.Unix(1700000000, 0)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, access, created_at FROM deployments WHERE id = $1`)).
		WithArgs("AKfy123").
		WillReturnRows(sqlmock.NewRows([]string{"id", "access", "created_at"}).AddRow("AKfy123", "private", created))

	d, err := repo.GetDeployment(context.Background(), "AKfy123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d == nil || d.Access != models.AccessPrivate || !d.CreatedAt.Equal(created) {
		t.Errorf("unexpected deployment %+v", d)
	}
}

func TestGetDeployment_NotFound(t *testing.T) {
	repo, mock, cleanup := setupDeploymentMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, access, created_at FROM deployments").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "access", "created_at"}))

	d, err := repo.GetDeployment(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != nil {
		t.Errorf("expected nil deployment, got %+v", d)
	}
}

func TestGetDeployment_Error(t *testing.T) {
	repo, mock, cleanup := setupDeploymentMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, access, created_at FROM deployments").
		WillReturnError(errors.New("conn reset"))

	if _, err := repo.GetDeployment(context.Background(), "x"); err == nil {
		t.Error("expected error")
	}
}
