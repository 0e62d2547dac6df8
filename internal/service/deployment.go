package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storystudio/ledger/internal/models"
)

// ErrInvalidAccess is returned by Create for an unknown access level.
var ErrInvalidAccess = errors.New("invalid access level")

// DeploymentRepository defines the persistence operations
// required by the deployment service.
type DeploymentRepository interface {
	CreateDeployment(ctx context.Context, d models.Deployment) error
	// GetDeployment returns nil when the deployment does not exist.
	GetDeployment(ctx context.Context, id string) (*models.Deployment, error)
}

// DeploymentService creates and looks up deployments.
type DeploymentService struct {
	repo  DeploymentRepository
	newID func() string
	now   func() time.Time
}

// NewDeploymentService constructs a DeploymentService using the provided repository.
func NewDeploymentService(repo DeploymentRepository) *DeploymentService {
	return &DeploymentService{
		repo:  repo,
		newID: newDeploymentID,
		now:   time.Now,
	}
}

func newDeploymentID() string {
	return "AKfy" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Create registers a new deployment. An empty access level means anyone.
func (s *DeploymentService) Create(ctx context.Context, access models.Access) (models.Deployment, error) {
	if access == "" {
		access = models.AccessAnyone
	}
	if access != models.AccessAnyone && access != models.AccessPrivate {
		return models.Deployment{}, fmt.Errorf("%w: %q", ErrInvalidAccess, access)
	}
	d := models.Deployment{
		ID:        s.newID(),
		Access:    access,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateDeployment(ctx, d); err != nil {
		return models.Deployment{}, err
	}
	return d, nil
}

// Get returns the deployment with id, or nil if there is none.
func (s *DeploymentService) Get(ctx context.Context, id string) (*models.Deployment, error) {
	return s.repo.GetDeployment(ctx, id)
}
