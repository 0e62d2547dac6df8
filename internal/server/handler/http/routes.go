package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/storystudio/ledger/internal/middleware"
)

// NewRouter constructs the reference endpoint's HTTP handler.
//
// Routes:
//
//	GET|POST /macros/s/{deployment}/exec  → sheetHandler.Exec (behind AccessGate)
//	GET|POST /macros/s/{deployment}/dev   → sheetHandler.Exec (behind AccessGate)
//	POST     /admin/deployments           → deploymentHandler.Create (JSON, admin token)
//
// Every request gets a request id, panic recovery and a log line.
func NewRouter(
	sheetHandler *SheetHandler,
	deploymentHandler *DeploymentHandler,
	deployments middleware.DeploymentLookup,
	adminToken string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.WithRequestLogging(logger))

	r.Route("/macros/s/{"+middleware.DeploymentParam+"}", func(r chi.Router) {
		r.Use(middleware.AccessGate(deployments, logger))
		for _, path := range []string{"/exec", "/dev"} {
			r.Get(path, sheetHandler.Exec)
			r.Post(path, sheetHandler.Exec)
		}
	})

	r.Route("/admin", func(r chi.Router) {
		// Only allow requests with Content-Type: application/json
		r.Use(chiMiddleware.AllowContentType("application/json"))
		r.Use(middleware.AdminToken(adminToken))
		r.Post("/deployments", deploymentHandler.Create)
	})

	return r
}
