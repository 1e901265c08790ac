package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dreamcard/dreamcard-back/internal/repository"
)

type jobStatusResponse struct {
	JobID     string  `json:"job_id"`
	ProjectID string  `json:"project_id"`
	Status    string  `json:"status"`
	Progress  float64 `json:"progress"`
	Stage     string  `json:"stage"`
	Error     string  `json:"error,omitempty"`
}

// JobStatus returns the polling view for one generation job.
func (a *API) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	view, err := a.projects.GetJobStatus(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "job not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", "could not load job")
		return
	}

	writeJSON(w, http.StatusOK, jobStatusResponse{
		JobID:     view.JobID,
		ProjectID: view.ProjectID,
		Status:    string(view.Status),
		Progress:  view.Progress,
		Stage:     string(view.Stage),
		Error:     view.Error,
	})
}
