package http

import (
	"net/http"

	"budgetbuddy/internal/core"
)

type profileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request, user core.User) {
	writeJSON(w, http.StatusOK, map[string]any{
		"profile": map[string]string{
			"name":  user.Name,
			"email": user.Email,
		},
		"preferences": user.Preferences,
	})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request, user core.User) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.auth.UpdateProfile(r.Context(), user.ID, req.Name, req.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": updated})
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request, user core.User) {
	// missing toggles default to false; clients send the full set
	var prefs core.Preferences
	if err := decodeJSON(r, &prefs); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.auth.UpdatePreferences(r.Context(), user.ID, prefs); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"preferences": prefs})
}
