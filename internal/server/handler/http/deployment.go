package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/storystudio/ledger/internal/models"
	"github.com/storystudio/ledger/internal/service"
)

// DeploymentService defines the deployment operations required by the HTTP handlers.
type DeploymentService interface {
	Create(ctx context.Context, access models.Access) (models.Deployment, error)
}

// DeploymentHandler handles deployment management requests.
type DeploymentHandler struct {
	DeploymentService DeploymentService
	// PublicURL is the base of returned exec URLs. When empty the request's
	// scheme and host are used.
	PublicURL string
}

// CreateDeploymentRequest represents the JSON payload for creating a deployment.
type CreateDeploymentRequest struct {
	Access models.Access `json:"access"`
}

// CreateDeploymentResponse is returned by Create.
type CreateDeploymentResponse struct {
	models.Deployment
	// URL is the exec URL clients bind to.
	URL string `json:"url"`
}

// Create handles POST /admin/deployments.
func (h *DeploymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDeploymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	d, err := h.DeploymentService.Create(r.Context(), req.Access)
	switch {
	case errors.Is(err, service.ErrInvalidAccess):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, "failed to create deployment", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(CreateDeploymentResponse{
		Deployment: d,
		URL:        h.baseURL(r) + "/macros/s/" + d.ID + "/exec",
	})
}

func (h *DeploymentHandler) baseURL(r *http.Request) string {
	if h.PublicURL != "" {
		return strings.TrimSuffix(h.PublicURL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
