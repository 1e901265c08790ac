// Package service holds the submission and read paths between the HTTP
// layer and the queue/store. Validation happens here, before any row or
// queue message exists.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"

	"github.com/dreamcard/dreamcard-back/internal/domain"
	"github.com/dreamcard/dreamcard-back/internal/progress"
	"github.com/dreamcard/dreamcard-back/internal/queue"
	"github.com/dreamcard/dreamcard-back/internal/repository"
	"github.com/dreamcard/dreamcard-back/internal/style"
)

// ErrValidation marks a rejected submission. Nothing is persisted or
// enqueued for a rejected request.
var ErrValidation = errors.New("invalid submission")

// SubmitDreamInput is the validated submission contract.
type SubmitDreamInput struct {
	InputText  string
	Style      string
	Symbols    []string
	Mood       string
	Visibility string
}

// SubmitDreamResult points the caller at the created records for polling.
type SubmitDreamResult struct {
	ProjectID string
	JobID     string
	Status    domain.ProjectStatus
}

// JobStatusView is the polling read model: raw progress plus the stage label
// derived from it.
type JobStatusView struct {
	JobID     string
	ProjectID string
	Status    domain.JobStatus
	Progress  float64
	Stage     progress.Stage
	Error     string
}

// ProjectView is the full read model with ordered panels.
type ProjectView struct {
	Project domain.Project
	Panels  []domain.Panel
}

type ProjectsService struct {
	repo        repository.ProjectsRepository
	producer    queue.Producer
	reporter    queue.ProgressReporter
	idempotency *cache.Cache
}

func NewProjectsService(
	repo repository.ProjectsRepository,
	producer queue.Producer,
	reporter queue.ProgressReporter,
) *ProjectsService {
	return &ProjectsService{
		repo:        repo,
		producer:    producer,
		reporter:    reporter,
		idempotency: cache.New(10*time.Minute, 20*time.Minute),
	}
}

// Submit validates the dream submission, persists the project and its job,
// and enqueues the generation work. A repeated idempotency key within the
// cache window returns the original result without creating anything new.
func (s *ProjectsService) Submit(
	ctx context.Context,
	input SubmitDreamInput,
	idempotencyKey string,
) (*SubmitDreamResult, error) {
	if key := strings.TrimSpace(idempotencyKey); key != "" {
		if cached, ok := s.idempotency.Get(key); ok {
			result := cached.(SubmitDreamResult)
			return &result, nil
		}
	}

	normalized, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	project := &domain.Project{
		ID:         uuid.NewString(),
		InputText:  normalized.InputText,
		Style:      normalized.Style,
		Symbols:    normalized.Symbols,
		Mood:       normalized.Mood,
		Visibility: domain.Visibility(normalized.Visibility),
		Status:     domain.ProjectStatusQueued,
		Progress:   0,
		ShareSlug:  uuid.NewString()[:8],
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	payload, err := json.Marshal(domain.GenerationPayload{
		ProjectID: project.ID,
		InputText: project.InputText,
		Style:     project.Style,
		Symbols:   project.Symbols,
		Mood:      project.Mood,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	job := &domain.Job{
		ID:        uuid.NewString(),
		ProjectID: project.ID,
		Payload:   payload,
		Status:    domain.JobStatusQueued,
		Progress:  0,
		Attempts:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		project.Status = domain.ProjectStatusFailed
		project.ErrorMsg = "could not create generation job"
		project.UpdatedAt = time.Now().UTC()
		_ = s.repo.UpdateProject(ctx, project)
		return nil, fmt.Errorf("create job: %w", err)
	}

	message := domain.QueueMessage{
		JobID:       job.ID,
		ProjectID:   project.ID,
		Payload:     payload,
		Attempt:     0,
		RequestedAt: now,
	}
	if err := s.producer.Enqueue(ctx, message); err != nil {
		job.Status = domain.JobStatusFailed
		job.ErrorMessage = err.Error()
		job.UpdatedAt = time.Now().UTC()
		_ = s.repo.UpdateJob(ctx, job)

		project.Status = domain.ProjectStatusFailed
		project.ErrorMsg = "could not queue generation"
		project.UpdatedAt = job.UpdatedAt
		_ = s.repo.UpdateProject(ctx, project)
		return nil, fmt.Errorf("enqueue job: %w", err)
	}

	result := SubmitDreamResult{
		ProjectID: project.ID,
		JobID:     job.ID,
		Status:    project.Status,
	}
	if key := strings.TrimSpace(idempotencyKey); key != "" {
		s.idempotency.Set(key, result, cache.DefaultExpiration)
	}
	return &result, nil
}

// GetJobStatus reads the durable job record and cross-checks the queue-side
// progress mirror, returning whichever value is further along. The reported
// progress never moves backwards between polls.
func (s *ProjectsService) GetJobStatus(ctx context.Context, jobID string) (*JobStatusView, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	value := job.Progress
	if s.reporter != nil {
		percent, ok, reportErr := s.reporter.JobProgress(ctx, jobID)
		if reportErr == nil && ok {
			mirrored := float64(percent) / 100
			if mirrored > value {
				value = mirrored
			}
		}
	}

	return &JobStatusView{
		JobID:     job.ID,
		ProjectID: job.ProjectID,
		Status:    job.Status,
		Progress:  value,
		Stage:     progress.StageOf(value),
		Error:     job.ErrorMessage,
	}, nil
}

// GetProject returns the project with its panels in panel order.
func (s *ProjectsService) GetProject(ctx context.Context, projectID string) (*ProjectView, error) {
	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	panels, err := s.repo.ListPanels(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &ProjectView{Project: *project, Panels: panels}, nil
}

func normalizeInput(input SubmitDreamInput) (SubmitDreamInput, error) {
	input.InputText = strings.TrimSpace(input.InputText)
	if length := len([]rune(input.InputText)); length < domain.MinInputTextLength || length > domain.MaxInputTextLength {
		return input, fmt.Errorf("%w: input text must be %d-%d characters",
			ErrValidation, domain.MinInputTextLength, domain.MaxInputTextLength)
	}

	input.Style = strings.TrimSpace(input.Style)
	if !style.Known(input.Style) {
		return input, fmt.Errorf("%w: unknown style %q (valid: %s)",
			ErrValidation, input.Style, strings.Join(style.IDs(), ", "))
	}

	for _, symbol := range input.Symbols {
		if !domain.KnownSymbol(symbol) {
			return input, fmt.Errorf("%w: unknown symbol %q", ErrValidation, symbol)
		}
	}

	input.Mood = strings.TrimSpace(input.Mood)
	if input.Mood != "" && !domain.KnownMood(input.Mood) {
		return input, fmt.Errorf("%w: unknown mood %q", ErrValidation, input.Mood)
	}

	switch domain.Visibility(strings.TrimSpace(input.Visibility)) {
	case domain.VisibilityPrivate, domain.VisibilityPublic:
		input.Visibility = strings.TrimSpace(input.Visibility)
	case "":
		input.Visibility = string(domain.VisibilityPrivate)
	default:
		return input, fmt.Errorf("%w: visibility must be private or public", ErrValidation)
	}

	return input, nil
}
