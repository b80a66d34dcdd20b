package middleware

import (
	"net/http"
)

// KillSwitchHeaderName is set on every response to "active" or "inactive"
const KillSwitchHeaderName = "X-Kill-Switch"

// SwitchState is the part of the monitor the middleware needs
type SwitchState interface {
	IsActive() bool
}

// KillSwitchHeader reports the kill switch state on every response
func KillSwitchHeader(state SwitchState) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if state == nil {
				next.ServeHTTP(w, r)
				return
			}
			value := "inactive"
			if state.IsActive() {
				value = "active"
			}
			w.Header().Set(KillSwitchHeaderName, value)
			next.ServeHTTP(w, r)
		})
	}
}
