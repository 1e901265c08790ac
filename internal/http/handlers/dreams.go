package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dreamcard/dreamcard-back/internal/domain"
	"github.com/dreamcard/dreamcard-back/internal/repository"
	"github.com/dreamcard/dreamcard-back/internal/service"
)

type submitDreamRequest struct {
	InputText  string   `json:"input_text"`
	Style      string   `json:"style"`
	Symbols    []string `json:"symbols,omitempty"`
	Mood       string   `json:"mood,omitempty"`
	Visibility string   `json:"visibility,omitempty"`
}

type submitDreamResponse struct {
	ProjectID string `json:"project_id"`
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
}

type panelResponse struct {
	Order    int    `json:"order"`
	Scene    string `json:"scene"`
	Caption  string `json:"caption"`
	ImageURL string `json:"image_url"`
}

type projectResponse struct {
	ProjectID  string          `json:"project_id"`
	Status     string          `json:"status"`
	Progress   float64         `json:"progress"`
	Style      string          `json:"style"`
	Visibility string          `json:"visibility"`
	ShareSlug  string          `json:"share_slug,omitempty"`
	Error      string          `json:"error,omitempty"`
	Panels     []panelResponse `json:"panels"`
	CreatedAt  time.Time       `json:"created_at"`
}

// SubmitDream accepts a dream submission and returns 202 with the IDs to
// poll. Validation failures return 422 with no side effects.
func (a *API) SubmitDream(w http.ResponseWriter, r *http.Request) {
	var request submitDreamRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_payload", "body must be valid JSON")
		return
	}

	result, err := a.projects.Submit(r.Context(), service.SubmitDreamInput{
		InputText:  request.InputText,
		Style:      request.Style,
		Symbols:    request.Symbols,
		Mood:       request.Mood,
		Visibility: request.Visibility,
	}, r.Header.Get("Idempotency-Key"))
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			writeError(w, r, http.StatusUnprocessableEntity, "validation_failed", err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", "could not accept submission")
		return
	}

	writeJSON(w, http.StatusAccepted, submitDreamResponse{
		ProjectID: result.ProjectID,
		JobID:     result.JobID,
		Status:    string(result.Status),
	})
}

// GetProject returns a project with its panels in order.
func (a *API) GetProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	view, err := a.projects.GetProject(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "project not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", "could not load project")
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponse(view))
}

func toProjectResponse(view *service.ProjectView) projectResponse {
	panels := make([]panelResponse, 0, len(view.Panels))
	for _, panel := range view.Panels {
		panels = append(panels, panelResponse{
			Order:    panel.Order,
			Scene:    panel.Scene,
			Caption:  panel.Caption,
			ImageURL: panel.ImageURL,
		})
	}

	response := projectResponse{
		ProjectID:  view.Project.ID,
		Status:     string(view.Project.Status),
		Progress:   view.Project.Progress,
		Style:      view.Project.Style,
		Visibility: string(view.Project.Visibility),
		Error:      view.Project.ErrorMsg,
		Panels:     panels,
		CreatedAt:  view.Project.CreatedAt,
	}
	if view.Project.Visibility == domain.VisibilityPublic {
		response.ShareSlug = view.Project.ShareSlug
	}
	return response
}
