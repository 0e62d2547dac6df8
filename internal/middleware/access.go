// Package middleware provides HTTP middlewares for the deployment access gate
// and request logging.
package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/storystudio/ledger/internal/models"
)

type ctxKey string

const deploymentKey ctxKey = "deployment"

// DeploymentParam is the chi URL parameter holding the deployment id.
const DeploymentParam = "deployment"

// DeploymentLookup finds deployments by id. It returns nil for unknown ids.
type DeploymentLookup interface {
	Get(ctx context.Context, id string) (*models.Deployment, error)
}

// signInPage is what an endpoint answers when the caller lacks access,
// instead of the JSON the client expects.
const signInPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Sign in</title></head>
<body><h1>Sign in</h1><p>You need permission to access this script. Sign in with an account that has access.</p></body>
</html>
`

// AccessGate resolves the deployment named in the URL. Unknown deployments
// get a 404 HTML page and private ones a 401 sign-in page. Otherwise the
// deployment id is stored in the request context.
func AccessGate(lookup DeploymentLookup, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, DeploymentParam)
			d, err := lookup.Get(r.Context(), id)
			if err != nil {
				log.Error("deployment lookup failed", zap.String("deployment", id), zap.Error(err))
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			switch {
			case d == nil:
				writeHTML(w, http.StatusNotFound)
				return
			case d.Access != models.AccessAnyone:
				writeHTML(w, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithDeploymentID(r.Context(), d.ID)))
		})
	}
}

func writeHTML(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(signInPage))
}

// GetDeploymentIDFromContext extracts the deployment id stored by AccessGate.
// Returns an empty string if not found.
func GetDeploymentIDFromContext(ctx context.Context) string {
	val := ctx.Value(deploymentKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

// WithDeploymentID returns a copy of ctx carrying id, as AccessGate does.
func WithDeploymentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, deploymentKey, id)
}
