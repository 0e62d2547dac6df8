package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/storystudio/ledger/internal/models"
	"github.com/storystudio/ledger/internal/service"
)

type mockDeploymentRepo struct {
	created []models.Deployment
	found   *models.Deployment
	err     error
}

func (m *mockDeploymentRepo) CreateDeployment(_ context.Context, d models.Deployment) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, d)
	return nil
}

func (m *mockDeploymentRepo) GetDeployment(context.Context, string) (*models.Deployment, error) {
	return m.found, m.err
}

func TestCreate_DefaultsToAnyone(t *testing.T) {
	repo := &mockDeploymentRepo{}
	svc := service.NewDeploymentService(repo)

	d, err := svc.Create(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Access != models.AccessAnyone {
		t.Errorf("access = %q; want anyone", d.Access)
	}
	if !strings.HasPrefix(d.ID, "AKfy") || strings.Contains(d.ID, "-") {
		t.Errorf("unexpected id %q", d.ID)
	}
	if len(repo.created) != 1 || repo.created[0].ID != d.ID {
		t.Errorf("deployment not stored: %+v", repo.created)
	}
}

func TestCreate_UniqueIDs(t *testing.T) {
	svc := service.NewDeploymentService(&mockDeploymentRepo{})
	a, _ := svc.Create(context.Background(), models.AccessPrivate)
	b, _ := svc.Create(context.Background(), models.AccessPrivate)
	if a.ID == b.ID {
		t.Errorf("ids collide: %q", a.ID)
	}
}

func TestCreate_InvalidAccess(t *testing.T) {
	repo := &mockDeploymentRepo{}
	_, err := service.NewDeploymentService(repo).Create(context.Background(), "domain")
	if !errors.Is(err, service.ErrInvalidAccess) {
		t.Errorf("err = %v; want ErrInvalidAccess", err)
	}
	if len(repo.created) != 0 {
		t.Error("invalid deployment was stored")
	}
}

func TestCreate_RepoError(t *testing.T) {
	wantErr := errors.New("db down")
	_, err := service.NewDeploymentService(&mockDeploymentRepo{err: wantErr}).Create(context.Background(), models.AccessAnyone)
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v; want %v", err, wantErr)
	}
}

func TestGet(t *testing.T) {
	want := &models.Deployment{ID: "AKfy1", Access: models.AccessAnyone}
	got, err := service.NewDeploymentService(&mockDeploymentRepo{found: want}).Get(context.Background(), "AKfy1")
	if err != nil || got != want {
		t.Errorf("Get = %v, %v; want %v", got, err, want)
	}
}
