package ui

import (
	"log"
	"net/http"

	"aigate/internal/errors"
)

// defaultLogLimit is used when /monitor/logs has no limit parameter
const defaultLogLimit = 50

type overrideRequest struct {
	Active *bool `json:"active"`
}

func (a *App) handleMonitorStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.gatekeeper.Status(r.Context()))
}

func (a *App) handleMonitorLogs(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultLogLimit)
	if err != nil {
		writeError(w, err)
		return
	}

	entries, err := a.gatekeeper.Logs(r.Context(), r.URL.Query().Get("module"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// handleSetOverride forces the kill switch on or off until cleared
func (a *App) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Active == nil {
		writeError(w, errors.InvalidInput("active is required"))
		return
	}

	log.Printf("[API] Kill switch manually set to %t", *req.Active)
	writeJSON(w, http.StatusOK, a.gatekeeper.SetKillSwitch(*req.Active))
}

func (a *App) handleClearOverride(w http.ResponseWriter, r *http.Request) {
	log.Printf("[API] Kill switch returned to automatic control")
	writeJSON(w, http.StatusOK, a.gatekeeper.ClearKillSwitch())
}
