package http

import (
	"net/http"

	"budgetbuddy/internal/core"
)

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request, user core.User) {
	notifications, err := s.store.ListNotifications(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": emptyIfNil(notifications)})
}
