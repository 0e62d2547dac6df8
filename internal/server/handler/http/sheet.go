// Package http serves the reference sheet endpoint: the load/save protocol
// under /macros/s/{deployment} and deployment management under /admin.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/storystudio/ledger/internal/middleware"
	"github.com/storystudio/ledger/internal/sheet"
)

// maxBodyBytes caps save payloads.
const maxBodyBytes = 10 << 20

// SheetService defines the sheet operations required by the SheetHandler.
type SheetService interface {
	// Load returns both tables of a deployment.
	Load(ctx context.Context, deploymentID string) (*sheet.Payload, error)
	// Save replaces the supplied tables; nil tables are left untouched.
	Save(ctx context.Context, deploymentID string, txs, users sheet.WireTable) error
}

// SheetHandler answers load and save calls the way the spreadsheet script
// does: always HTTP 200 with a JSON status envelope.
type SheetHandler struct {
	SheetService SheetService
	Log          *zap.Logger
}

// Exec handles GET and POST on a deployment's /exec and /dev URLs. GET reads
// the action from the query string; POST reads a JSON body of any content type.
func (h *SheetHandler) Exec(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	deploymentID := middleware.GetDeploymentIDFromContext(ctx)

	req := sheet.Request{Action: r.URL.Query().Get("action")}
	if r.Method == http.MethodPost {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			h.reply(w, sheet.Response{Status: sheet.StatusError, Message: "could not read request"})
			return
		}
		if len(bytes.TrimSpace(body)) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				h.reply(w, sheet.Response{Status: sheet.StatusError, Message: "invalid request body: " + err.Error()})
				return
			}
		}
	}

	switch {
	case req.Action == sheet.ActionLoad:
		payload, err := h.SheetService.Load(ctx, deploymentID)
		if err != nil {
			h.fail(w, "load", deploymentID, err)
			return
		}
		h.reply(w, sheet.Response{Status: sheet.StatusSuccess, Data: payload})
	case req.Action == sheet.ActionSave && r.Method == http.MethodPost:
		if err := h.SheetService.Save(ctx, deploymentID, req.Transactions, req.Users); err != nil {
			h.fail(w, "save", deploymentID, err)
			return
		}
		h.reply(w, sheet.Response{Status: sheet.StatusSuccess, Message: "Saved"})
	default:
		h.reply(w, sheet.Response{Status: sheet.StatusError, Message: "Unknown action"})
	}
}

func (h *SheetHandler) fail(w http.ResponseWriter, action, deploymentID string, err error) {
	if h.Log != nil {
		h.Log.Error("sheet "+action+" failed", zap.String("deployment", deploymentID), zap.Error(err))
	}
	h.reply(w, sheet.Response{Status: sheet.StatusError, Message: err.Error()})
}

func (h *SheetHandler) reply(w http.ResponseWriter, resp sheet.Response) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
