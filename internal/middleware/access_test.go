package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/storystudio/ledger/internal/models"
)

// dummyHandler is a placeholder that records if it was called and the context it received.
type dummyHandler struct {
	called bool
	ctx    context.Context
}

func (d *dummyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.called = true
	d.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

type lookupFunc func(ctx context.Context, id string) (*models.Deployment, error)

func (f lookupFunc) Get(ctx context.Context, id string) (*models.Deployment, error) { return f(ctx, id) }

func deployments(ds ...models.Deployment) lookupFunc {
	return func(_ context.Context, id string) (*models.Deployment, error) {
		for _, d := range ds {
			if d.ID == id {
				return &d, nil
			}
		}
		return nil, nil
	}
}

func serve(lookup DeploymentLookup, next http.Handler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.With(AccessGate(lookup, zap.NewNop())).Get("/macros/s/{deployment}/exec", next.ServeHTTP)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestAccessGate_Public(t *testing.T) {
	dummy := &dummyHandler{}
	rec := serve(deployments(models.Deployment{ID: "pub", Access: models.AccessAnyone}), dummy, "/macros/s/pub/exec")

	if !dummy.called {
		t.Fatal("expected next handler to be called for a public deployment")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 OK, got %d", rec.Code)
	}
	if id := GetDeploymentIDFromContext(dummy.ctx); id != "pub" {
		t.Errorf("expected deployment 'pub' in context, got %q", id)
	}
}

func TestAccessGate_HTMLForNoAccess(t *testing.T) {
	lookup := deployments(models.Deployment{ID: "priv", Access: models.AccessPrivate})
	cases := []struct {
		path   string
		status int
	}{
		{"/macros/s/priv/exec", http.StatusUnauthorized},
		{"/macros/s/nope/exec", http.StatusNotFound},
	}
	for _, tc := range cases {
		dummy := &dummyHandler{}
		rec := serve(lookup, dummy, tc.path)

		if dummy.called {
			t.Errorf("%s: next handler must not run", tc.path)
		}
		if rec.Code != tc.status {
			t.Errorf("%s: status = %d; want %d", tc.path, rec.Code, tc.status)
		}
		if !strings.HasPrefix(rec.Body.String(), "<!DOCTYPE html>") {
			t.Errorf("%s: expected an HTML page, got %q", tc.path, rec.Body.String())
		}
	}
}

func TestAccessGate_LookupError(t *testing.T) {
	dummy := &dummyHandler{}
	failing := lookupFunc(func(context.Context, string) (*models.Deployment, error) {
		return nil, errors.New("db down")
	})
	rec := serve(failing, dummy, "/macros/s/x/exec")

	if dummy.called {
		t.Error("next handler must not run")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestGetDeploymentIDFromContext(t *testing.T) {
	if id := GetDeploymentIDFromContext(context.Background()); id != "" {
		t.Errorf("expected empty string for missing deployment, got %q", id)
	}
	if id := GetDeploymentIDFromContext(WithDeploymentID(context.Background(), "dep")); id != "dep" {
		t.Errorf("expected 'dep', got %q", id)
	}
}
