package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"budgetbuddy/internal/core"
)

type goalRequest struct {
	Name          string     `json:"name"`
	TargetAmount  core.Money `json:"targetAmount"`
	CurrentAmount core.Money `json:"currentAmount"`
	TargetDate    core.Date  `json:"targetDate"`
	Description   string     `json:"description"`
}

type goalProgressRequest struct {
	CurrentAmount core.Money `json:"currentAmount"`
}

// goalView pairs a goal with its derived progress.
type goalView struct {
	core.Goal
	Progress core.GoalProgress `json:"progress"`
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request, user core.User) {
	goals, err := s.store.ListGoals(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	now := time.Now()
	views := make([]goalView, len(goals))
	for i, g := range goals {
		views[i] = goalView{Goal: g, Progress: core.TrackGoal(g, now)}
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": views})
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request, user core.User) {
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	goal := core.Goal{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		Name:          req.Name,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		TargetDate:    req.TargetDate,
		Description:   req.Description,
		CreatedAt:     time.Now().UTC(),
	}
	if err := goal.Validate(); err != nil {
		writeServiceError(w, err)
		return
	}

	if err := s.store.CreateGoal(r.Context(), goal); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, goalView{Goal: goal, Progress: core.TrackGoal(goal, time.Now())})
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request, user core.User) {
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	goal := core.Goal{
		ID:            r.PathValue("id"),
		UserID:        user.ID,
		Name:          req.Name,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		TargetDate:    req.TargetDate,
		Description:   req.Description,
	}
	if err := goal.Validate(); err != nil {
		writeServiceError(w, err)
		return
	}

	if err := s.store.UpdateGoal(r.Context(), goal); err != nil {
		writeServiceError(w, err)
		return
	}

	updated, err := s.store.GetGoal(r.Context(), user.ID, goal.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goalView{Goal: updated, Progress: core.TrackGoal(updated, time.Now())})
}

// handleGoalProgress overwrites the saved amount with an absolute value.
func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request, user core.User) {
	var req goalProgressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.CurrentAmount.Cents < 0 {
		writeServiceError(w, core.ErrNegativeAmount)
		return
	}

	goal, err := s.store.GetGoal(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	goal.UpdateProgress(req.CurrentAmount)
	if err := s.store.UpdateGoal(r.Context(), goal); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goalView{Goal: goal, Progress: core.TrackGoal(goal, time.Now())})
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request, user core.User) {
	if err := s.store.DeleteGoal(r.Context(), user.ID, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGoalsSummary(w http.ResponseWriter, r *http.Request, user core.User) {
	goals, err := s.store.ListGoals(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, core.SummarizeGoals(goals))
}

// handleSavingsTarget returns the dashboard's featured goal, the
// earliest-created one.
func (s *Server) handleSavingsTarget(w http.ResponseWriter, r *http.Request, user core.User) {
	goals, err := s.store.ListGoals(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	primary, ok := core.PrimaryGoal(goals)
	if !ok {
		writeError(w, http.StatusNotFound, "no savings goal set")
		return
	}
	writeJSON(w, http.StatusOK, goalView{Goal: primary, Progress: core.TrackGoal(primary, time.Now())})
}

type savingsTargetRequest struct {
	TargetAmount core.Money `json:"targetAmount"`
}

// handleSetSavingsTarget changes the featured goal's target amount,
// creating a default goal when the user has none yet.
func (s *Server) handleSetSavingsTarget(w http.ResponseWriter, r *http.Request, user core.User) {
	var req savingsTargetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.TargetAmount.Cents <= 0 {
		writeServiceError(w, core.ErrInvalidAmount)
		return
	}

	goals, err := s.store.ListGoals(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	now := time.Now().UTC()
	primary, ok := core.PrimaryGoal(goals)
	if !ok {
		primary = core.Goal{
			ID:           uuid.NewString(),
			UserID:       user.ID,
			Name:         "Savings Goal",
			TargetAmount: req.TargetAmount,
			TargetDate:   core.NewDate(now.Year()+1, int(now.Month()), now.Day()),
			CreatedAt:    now,
		}
		if err := s.store.CreateGoal(r.Context(), primary); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, goalView{Goal: primary, Progress: core.TrackGoal(primary, now)})
		return
	}

	primary.TargetAmount = req.TargetAmount
	if err := s.store.UpdateGoal(r.Context(), primary); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goalView{Goal: primary, Progress: core.TrackGoal(primary, now)})
}
