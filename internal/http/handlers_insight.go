package http

import (
	"net/http"

	"budgetbuddy/internal/core"
)

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request, user core.User) {
	result, err := s.insights.Get(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
