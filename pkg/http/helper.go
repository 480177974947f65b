package http

import (
	"net/http"

	apperrors "medbook/pkg/errors"
)

// Scope names accepted by the dashboard endpoints.
const (
	ScopeToday = "today"
	ScopeWeek  = "week"
)

// ExtractScope reads and checks the ?scope= query parameter.
func ExtractScope(r *http.Request) (string, error) {
	scope := r.URL.Query().Get("scope")
	switch scope {
	case ScopeToday, ScopeWeek:
		return scope, nil
	case "":
		return "", apperrors.InvalidInput("scope query parameter is required (today|week)")
	default:
		return "", apperrors.InvalidInput("invalid scope parameter: " + scope + " (expected today|week)")
	}
}
