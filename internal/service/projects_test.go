package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dreamcard/dreamcard-back/internal/domain"
	"github.com/dreamcard/dreamcard-back/internal/progress"
	"github.com/dreamcard/dreamcard-back/internal/repository"
	"github.com/dreamcard/dreamcard-back/internal/style"
)

type fakeProducer struct {
	messages []domain.QueueMessage
	err      error
}

func (f *fakeProducer) Enqueue(_ context.Context, message domain.QueueMessage) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, message)
	return nil
}

type fakeReporter struct {
	progress map[string]int
}

func (f *fakeReporter) ReportProgress(_ context.Context, jobID string, percent int) error {
	if f.progress == nil {
		f.progress = make(map[string]int)
	}
	f.progress[jobID] = percent
	return nil
}

func (f *fakeReporter) JobProgress(_ context.Context, jobID string) (int, bool, error) {
	percent, ok := f.progress[jobID]
	return percent, ok, nil
}

func validSubmission() SubmitDreamInput {
	return SubmitDreamInput{
		InputText: "I was floating above a golden sea of fog and the horizon kept folding",
		Style:     style.StyleMemory,
		Symbols:   []string{"fog", "ocean"},
		Mood:      "calm",
	}
}

func TestSubmitCreatesProjectJobAndEnqueues(t *testing.T) {
	repo := repository.NewMemoryProjectsRepository()
	producer := &fakeProducer{}
	svc := NewProjectsService(repo, producer, &fakeReporter{})

	result, err := svc.Submit(context.Background(), validSubmission(), "")
	if err != nil {
		t.Fatalf("expected submission to succeed: %v", err)
	}
	if result.ProjectID == "" || result.JobID == "" {
		t.Fatalf("result missing ids: %+v", result)
	}
	if result.Status != domain.ProjectStatusQueued {
		t.Fatalf("status = %s, want queued", result.Status)
	}

	project, err := repo.GetProject(context.Background(), result.ProjectID)
	if err != nil {
		t.Fatalf("project not persisted: %v", err)
	}
	if project.Status != domain.ProjectStatusQueued || project.Progress != 0 {
		t.Fatalf("project state = %s/%v", project.Status, project.Progress)
	}
	if project.Visibility != domain.VisibilityPrivate {
		t.Fatalf("default visibility = %s, want private", project.Visibility)
	}

	job, err := repo.GetJob(context.Background(), result.JobID)
	if err != nil {
		t.Fatalf("job not persisted: %v", err)
	}
	if job.ProjectID != project.ID {
		t.Fatalf("job project = %q, want %q", job.ProjectID, project.ID)
	}

	if len(producer.messages) != 1 {
		t.Fatalf("enqueued = %d messages, want 1", len(producer.messages))
	}
	var payload domain.GenerationPayload
	if err := json.Unmarshal(producer.messages[0].Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.ProjectID != project.ID || payload.Style != style.StyleMemory {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestSubmitRejectsInvalidInputWithoutSideEffects(t *testing.T) {
	cases := []struct {
		name  string
		input SubmitDreamInput
	}{
		{"short text", SubmitDreamInput{InputText: "too short", Style: style.StyleMemory}},
		{"unknown style", SubmitDreamInput{InputText: "a perfectly reasonable dream description", Style: "vaporwave"}},
		{"unknown symbol", func() SubmitDreamInput {
			input := validSubmission()
			input.Symbols = []string{"volcano"}
			return input
		}()},
		{"unknown mood", func() SubmitDreamInput {
			input := validSubmission()
			input.Mood = "enraged"
			return input
		}()},
		{"bad visibility", func() SubmitDreamInput {
			input := validSubmission()
			input.Visibility = "unlisted"
			return input
		}()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := repository.NewMemoryProjectsRepository()
			producer := &fakeProducer{}
			svc := NewProjectsService(repo, producer, &fakeReporter{})

			_, err := svc.Submit(context.Background(), tc.input, "")
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			if len(producer.messages) != 0 {
				t.Fatalf("rejected submission must not enqueue")
			}
		})
	}
}

func TestSubmitIdempotencyKeyReturnsSameResult(t *testing.T) {
	repo := repository.NewMemoryProjectsRepository()
	producer := &fakeProducer{}
	svc := NewProjectsService(repo, producer, &fakeReporter{})

	first, err := svc.Submit(context.Background(), validSubmission(), "key-1")
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, err := svc.Submit(context.Background(), validSubmission(), "key-1")
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if first.ProjectID != second.ProjectID || first.JobID != second.JobID {
		t.Fatalf("idempotent replay created new records: %+v vs %+v", first, second)
	}
	if len(producer.messages) != 1 {
		t.Fatalf("enqueued = %d messages, want 1", len(producer.messages))
	}
}

type failingJobRepo struct {
	*repository.MemoryProjectsRepository
	createdProjectID string
}

func (f *failingJobRepo) CreateProject(ctx context.Context, project *domain.Project) error {
	f.createdProjectID = project.ID
	return f.MemoryProjectsRepository.CreateProject(ctx, project)
}

func (f *failingJobRepo) CreateJob(context.Context, *domain.Job) error {
	return errors.New("job insert failed")
}

func TestSubmitJobCreationFailureMarksProjectFailed(t *testing.T) {
	repo := &failingJobRepo{MemoryProjectsRepository: repository.NewMemoryProjectsRepository()}
	producer := &fakeProducer{}
	svc := NewProjectsService(repo, producer, &fakeReporter{})

	_, err := svc.Submit(context.Background(), validSubmission(), "")
	if err == nil {
		t.Fatalf("expected job creation failure to surface")
	}

	project, loadErr := repo.GetProject(context.Background(), repo.createdProjectID)
	if loadErr != nil {
		t.Fatalf("load project: %v", loadErr)
	}
	if project.Status != domain.ProjectStatusFailed {
		t.Fatalf("project status = %s, want failed", project.Status)
	}
	if project.ErrorMsg == "" {
		t.Fatalf("project missing error message")
	}
	if len(producer.messages) != 0 {
		t.Fatalf("failed submission must not enqueue")
	}
}

func TestSubmitEnqueueFailureMarksRecordsFailed(t *testing.T) {
	repo := repository.NewMemoryProjectsRepository()
	producer := &fakeProducer{err: errors.New("redis down")}
	svc := NewProjectsService(repo, producer, &fakeReporter{})

	_, err := svc.Submit(context.Background(), validSubmission(), "")
	if err == nil {
		t.Fatalf("expected enqueue failure to surface")
	}
}

func TestGetJobStatusTakesMaxOfStoreAndQueue(t *testing.T) {
	repo := repository.NewMemoryProjectsRepository()
	reporter := &fakeReporter{}
	svc := NewProjectsService(repo, &fakeProducer{}, reporter)

	result, err := svc.Submit(context.Background(), validSubmission(), "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	job, _ := repo.GetJob(context.Background(), result.JobID)
	job.Status = domain.JobStatusRunning
	job.Progress = 0.10
	job.UpdatedAt = time.Now().UTC()
	_ = repo.UpdateJob(context.Background(), job)

	// Queue mirror is ahead of the durable row.
	_ = reporter.ReportProgress(context.Background(), result.JobID, 35)

	view, err := svc.GetJobStatus(context.Background(), result.JobID)
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if view.Progress != 0.35 {
		t.Fatalf("progress = %v, want queue-side 0.35", view.Progress)
	}
	if view.Stage != progress.StageRendering {
		t.Fatalf("stage = %s, want rendering", view.Stage)
	}

	// A stale mirror never drags the reported value back down.
	job.Progress = 0.80
	_ = repo.UpdateJob(context.Background(), job)
	view, err = svc.GetJobStatus(context.Background(), result.JobID)
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if view.Progress != 0.80 {
		t.Fatalf("progress = %v, want store-side 0.80", view.Progress)
	}
	if view.Stage != progress.StageCollaging {
		t.Fatalf("stage = %s, want collaging", view.Stage)
	}
}

func TestGetProjectReturnsPanelsInOrder(t *testing.T) {
	repo := repository.NewMemoryProjectsRepository()
	svc := NewProjectsService(repo, &fakeProducer{}, &fakeReporter{})

	result, err := svc.Submit(context.Background(), validSubmission(), "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	for _, order := range []int{2, 0, 1} {
		panel := &domain.Panel{
			ID:        "panel-" + string(rune('a'+order)),
			ProjectID: result.ProjectID,
			Order:     order,
			Scene:     "scene",
			Caption:   "caption for panel",
			ImageURL:  "https://cdn.example/p.png",
			CreatedAt: time.Now().UTC(),
		}
		if err := repo.CreatePanel(context.Background(), panel); err != nil {
			t.Fatalf("create panel: %v", err)
		}
	}

	view, err := svc.GetProject(context.Background(), result.ProjectID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if len(view.Panels) != 3 {
		t.Fatalf("panels = %d, want 3", len(view.Panels))
	}
	for i, panel := range view.Panels {
		if panel.Order != i {
			t.Fatalf("panel %d has order %d", i, panel.Order)
		}
	}
}

func TestGetJobStatusUnknownJob(t *testing.T) {
	svc := NewProjectsService(repository.NewMemoryProjectsRepository(), &fakeProducer{}, &fakeReporter{})
	if _, err := svc.GetJobStatus(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
