package ui

import (
	"net/http"

	"aigate/app"
	"aigate/domain/dataset"
	"aigate/internal/errors"
)

// maxBatchSize bounds one batch request
const maxBatchSize = 100

type batchRequest struct {
	Requests []app.Request `json:"requests"`
}

type confirmRequest struct {
	Dataset   dataset.Dataset `json:"dataset"`
	Narrative string          `json:"narrative,omitempty"`
}

// handleValidate runs one model output through the gate
func (a *App) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req app.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	resp, err := a.gatekeeper.Process(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleBatch validates several model outputs; results keep request order
func (a *App) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Requests) == 0 {
		writeError(w, errors.InvalidInput("requests must not be empty"))
		return
	}
	if len(req.Requests) > maxBatchSize {
		writeError(w, errors.InvalidInput("too many requests in one batch"))
		return
	}

	results, err := a.gatekeeper.ProcessBatch(r.Context(), req.Requests)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// handleConfirm re-validates a dataset with the user's acknowledgement applied
func (a *App) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.gatekeeper.Confirm(req.Dataset, req.Narrative))
}
