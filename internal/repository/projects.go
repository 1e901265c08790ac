package repository

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/dreamcard/dreamcard-back/internal/domain"
)

var ErrNotFound = errors.New("resource not found")

// ProjectsRepository abstracts persistence for projects, panels, and jobs.
type ProjectsRepository interface {
	CreateProject(ctx context.Context, project *domain.Project) error
	UpdateProject(ctx context.Context, project *domain.Project) error
	GetProject(ctx context.Context, projectID string) (*domain.Project, error)
	ListPanels(ctx context.Context, projectID string) ([]domain.Panel, error)
	CreatePanel(ctx context.Context, panel *domain.Panel) error

	CreateJob(ctx context.Context, job *domain.Job) error
	UpdateJob(ctx context.Context, job *domain.Job) error
	GetJob(ctx context.Context, jobID string) (*domain.Job, error)
}

// MemoryProjectsRepository stores everything in memory for local development
// and tests.
type MemoryProjectsRepository struct {
	mu       sync.RWMutex
	projects map[string]*domain.Project
	panels   map[string][]domain.Panel
	jobs     map[string]*domain.Job
}

func NewMemoryProjectsRepository() *MemoryProjectsRepository {
	return &MemoryProjectsRepository{
		projects: make(map[string]*domain.Project),
		panels:   make(map[string][]domain.Panel),
		jobs:     make(map[string]*domain.Job),
	}
}

func (r *MemoryProjectsRepository) CreateProject(_ context.Context, project *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.projects[project.ID] = cloneProject(project)
	return nil
}

func (r *MemoryProjectsRepository) UpdateProject(_ context.Context, project *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[project.ID]; !ok {
		return ErrNotFound
	}
	r.projects[project.ID] = cloneProject(project)
	return nil
}

func (r *MemoryProjectsRepository) GetProject(_ context.Context, projectID string) (*domain.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	project, ok := r.projects[projectID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProject(project), nil
}

func (r *MemoryProjectsRepository) ListPanels(_ context.Context, projectID string) ([]domain.Panel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	panels := make([]domain.Panel, len(r.panels[projectID]))
	copy(panels, r.panels[projectID])
	sort.Slice(panels, func(i, j int) bool {
		return panels[i].Order < panels[j].Order
	})
	return panels, nil
}

func (r *MemoryProjectsRepository) CreatePanel(_ context.Context, panel *domain.Panel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[panel.ProjectID]; !ok {
		return ErrNotFound
	}
	r.panels[panel.ProjectID] = append(r.panels[panel.ProjectID], *panel)
	return nil
}

func (r *MemoryProjectsRepository) CreateJob(_ context.Context, job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jobs[job.ID] = cloneJob(job)
	return nil
}

func (r *MemoryProjectsRepository) UpdateJob(_ context.Context, job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[job.ID]; !ok {
		return ErrNotFound
	}
	r.jobs[job.ID] = cloneJob(job)
	return nil
}

func (r *MemoryProjectsRepository) GetJob(_ context.Context, jobID string) (*domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneJob(job), nil
}

func cloneProject(project *domain.Project) *domain.Project {
	if project == nil {
		return nil
	}
	clone := *project
	clone.Symbols = append([]string(nil), project.Symbols...)
	return &clone
}

func cloneJob(job *domain.Job) *domain.Job {
	if job == nil {
		return nil
	}
	clone := *job
	clone.Payload = append([]byte(nil), job.Payload...)
	return &clone
}
