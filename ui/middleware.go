package ui

import (
	"github.com/go-chi/chi/v5/middleware"

	uimw "aigate/ui/middleware"
)

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
	if a.config.RequestTimeout > 0 {
		a.router.Use(middleware.Timeout(a.config.RequestTimeout))
	}

	// Every response carries the kill switch state so clients can switch to fallbacks early
	a.router.Use(uimw.KillSwitchHeader(a.gatekeeper.Monitor()))
}
