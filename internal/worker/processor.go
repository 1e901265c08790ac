// Package worker runs the generation pipeline: interpret the dream, render
// and store each panel, and project progress into the job and project rows.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/dreamcard/dreamcard-back/internal/domain"
	"github.com/dreamcard/dreamcard-back/internal/interpreter"
	"github.com/dreamcard/dreamcard-back/internal/plan"
	"github.com/dreamcard/dreamcard-back/internal/progress"
	"github.com/dreamcard/dreamcard-back/internal/queue"
	"github.com/dreamcard/dreamcard-back/internal/render"
	"github.com/dreamcard/dreamcard-back/internal/repository"
	"github.com/dreamcard/dreamcard-back/internal/storage"
)

type Config struct {
	// Concurrency is how many consume loops share the consumer group.
	Concurrency int

	// RateLimit/RateBurst bound pipeline starts across all loops; the
	// defaults allow 10 jobs per minute.
	RateLimit rate.Limit
	RateBurst int
}

func DefaultConfig() Config {
	return Config{
		Concurrency: 2,
		RateLimit:   rate.Every(6 * time.Second),
		RateBurst:   10,
	}
}

// Processor consumes queue messages and drives the full pipeline for each.
type Processor struct {
	consumer    queue.Consumer
	reporter    queue.ProgressReporter
	repo        repository.ProjectsRepository
	interpreter *interpreter.Interpreter
	renderer    *render.Renderer
	store       storage.ArtifactStore
	limiter     *rate.Limiter
	config      Config
	logger      zerolog.Logger
}

func NewProcessor(
	consumer queue.Consumer,
	reporter queue.ProgressReporter,
	repo repository.ProjectsRepository,
	interp *interpreter.Interpreter,
	renderer *render.Renderer,
	store storage.ArtifactStore,
	config Config,
	logger zerolog.Logger,
) *Processor {
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConfig().Concurrency
	}
	if config.RateLimit <= 0 {
		config.RateLimit = DefaultConfig().RateLimit
	}
	if config.RateBurst <= 0 {
		config.RateBurst = DefaultConfig().RateBurst
	}
	return &Processor{
		consumer:    consumer,
		reporter:    reporter,
		repo:        repo,
		interpreter: interp,
		renderer:    renderer,
		store:       store,
		limiter:     rate.NewLimiter(config.RateLimit, config.RateBurst),
		config:      config,
		logger:      logger,
	}
}

// Start runs the consume loops until the context is canceled. Loop errors
// back off and reconnect rather than killing the worker.
func (p *Processor) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.config.Concurrency; i++ {
		wg.Add(1)
		go func(loop int) {
			defer wg.Done()
			p.runLoop(ctx, loop)
		}(i)
	}
	wg.Wait()
}

func (p *Processor) runLoop(ctx context.Context, loop int) {
	for {
		if ctx.Err() != nil {
			return
		}

		err := p.consumer.Consume(ctx, p.processMessage)
		if err == nil || ctx.Err() != nil {
			return
		}
		p.logger.Error().Int("loop", loop).Err(err).Msg("worker consume loop error")

		timer := time.NewTimer(2 * time.Second)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// processMessage runs the pipeline for one queue message. A returned error
// hands the message back to the queue for redelivery or DLQ; the failure is
// recorded in the store exactly once, here.
func (p *Processor) processMessage(ctx context.Context, message domain.QueueMessage) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("pipeline panic: %v", recovered)
			p.recordFailure(ctx, message, err)
		}
	}()

	if limitErr := p.limiter.Wait(ctx); limitErr != nil {
		return limitErr
	}

	var payload domain.GenerationPayload
	if parseErr := json.Unmarshal(message.Payload, &payload); parseErr != nil {
		badPayload := fmt.Errorf("decode payload: %w", parseErr)
		p.recordFailure(ctx, message, badPayload)
		return badPayload
	}

	started := time.Now()
	p.logger.Info().
		Str("job_id", message.JobID).
		Str("project_id", payload.ProjectID).
		Int("attempt", message.Attempt).
		Msg("worker: starting generation")

	if runErr := p.runPipeline(ctx, message, payload); runErr != nil {
		p.logger.Error().
			Str("job_id", message.JobID).
			Str("project_id", payload.ProjectID).
			Err(runErr).
			Msg("worker: generation failed")
		p.recordFailure(ctx, message, runErr)
		return runErr
	}

	p.logger.Info().
		Str("job_id", message.JobID).
		Str("project_id", payload.ProjectID).
		Dur("took", time.Since(started)).
		Msg("worker: generation complete")
	return nil
}

func (p *Processor) runPipeline(ctx context.Context, message domain.QueueMessage, payload domain.GenerationPayload) error {
	if err := p.markRunning(ctx, message, payload); err != nil {
		return err
	}

	interpreted, err := p.interpreter.Interpret(ctx, payload.InputText, payload.Style, payload.Symbols, payload.Mood)
	if err != nil {
		return err
	}
	if err := p.advance(ctx, message, payload.ProjectID, progress.Parsing); err != nil {
		return err
	}

	for index := 0; index < plan.NumPanels; index++ {
		panelPlan := interpreted.Panels[index]

		imageURL, renderErr := p.renderer.RenderPanel(ctx, panelPlan.Scene, payload.Style, index)
		if renderErr != nil {
			return renderErr
		}

		filename := fmt.Sprintf("%s/panel-%d-%d.png", payload.ProjectID, index, time.Now().UnixMilli())
		storedURL, storeErr := p.store.UploadFromURL(ctx, imageURL, filename)
		if storeErr != nil {
			return storeErr
		}

		panel := &domain.Panel{
			ID:        uuid.NewString(),
			ProjectID: payload.ProjectID,
			Order:     index,
			Scene:     panelPlan.Scene,
			Caption:   panelPlan.Caption,
			ImageURL:  storedURL,
			// Single-stage pipeline: the sketch slot carries the final image.
			SketchURL: storedURL,
			CreatedAt: time.Now().UTC(),
		}
		if createErr := p.repo.CreatePanel(ctx, panel); createErr != nil {
			return fmt.Errorf("create panel %d: %w", index, createErr)
		}

		if err := p.advance(ctx, message, payload.ProjectID, progress.AfterPanel(index)); err != nil {
			return err
		}
	}

	return p.markSuccess(ctx, message, payload.ProjectID)
}

// markRunning persists the running state with zero progress before any
// external call, so a crash mid-pipeline still leaves an accurate record.
func (p *Processor) markRunning(ctx context.Context, message domain.QueueMessage, payload domain.GenerationPayload) error {
	now := time.Now().UTC()

	job, err := p.repo.GetJob(ctx, message.JobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", message.JobID, err)
	}
	job.Status = domain.JobStatusRunning
	job.Progress = 0
	job.ErrorMessage = ""
	job.Attempts = message.Attempt + 1
	job.UpdatedAt = now
	if err := p.repo.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("mark job running: %w", err)
	}

	project, err := p.repo.GetProject(ctx, payload.ProjectID)
	if err != nil {
		return fmt.Errorf("load project %s: %w", payload.ProjectID, err)
	}
	project.Status = domain.ProjectStatusRunning
	project.Progress = 0
	project.ErrorMsg = ""
	project.UpdatedAt = now
	if err := p.repo.UpdateProject(ctx, project); err != nil {
		return fmt.Errorf("mark project running: %w", err)
	}

	if p.reporter != nil {
		_ = p.reporter.ReportProgress(ctx, message.JobID, 0)
	}
	return nil
}

// advance writes a progress checkpoint to the job and project rows and
// mirrors it to the queue. Checkpoints are only ever written in increasing
// order by the single execution that owns the job.
func (p *Processor) advance(ctx context.Context, message domain.QueueMessage, projectID string, value float64) error {
	now := time.Now().UTC()

	job, err := p.repo.GetJob(ctx, message.JobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", message.JobID, err)
	}
	job.Progress = value
	job.UpdatedAt = now
	if err := p.repo.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("advance job progress: %w", err)
	}

	project, err := p.repo.GetProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("load project %s: %w", projectID, err)
	}
	project.Progress = value
	project.UpdatedAt = now
	if err := p.repo.UpdateProject(ctx, project); err != nil {
		return fmt.Errorf("advance project progress: %w", err)
	}

	if p.reporter != nil {
		_ = p.reporter.ReportProgress(ctx, message.JobID, progress.Percent(value))
	}
	return nil
}

func (p *Processor) markSuccess(ctx context.Context, message domain.QueueMessage, projectID string) error {
	now := time.Now().UTC()

	job, err := p.repo.GetJob(ctx, message.JobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", message.JobID, err)
	}
	job.Status = domain.JobStatusSuccess
	job.Progress = progress.Complete
	job.ErrorMessage = ""
	job.UpdatedAt = now
	if err := p.repo.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("mark job success: %w", err)
	}

	project, err := p.repo.GetProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("load project %s: %w", projectID, err)
	}
	project.Status = domain.ProjectStatusSuccess
	project.Progress = progress.Complete
	project.ErrorMsg = ""
	project.UpdatedAt = now
	if err := p.repo.UpdateProject(ctx, project); err != nil {
		return fmt.Errorf("mark project success: %w", err)
	}

	if p.reporter != nil {
		_ = p.reporter.ReportProgress(ctx, message.JobID, 100)
	}
	return nil
}

// recordFailure marks the job and project failed. Panels stored before the
// failure are kept; progress stays at its last checkpoint.
func (p *Processor) recordFailure(ctx context.Context, message domain.QueueMessage, cause error) {
	now := time.Now().UTC()

	if job, err := p.repo.GetJob(ctx, message.JobID); err == nil {
		job.Status = domain.JobStatusFailed
		job.ErrorMessage = cause.Error()
		job.UpdatedAt = now
		_ = p.repo.UpdateJob(ctx, job)
	}

	projectID := message.ProjectID
	if projectID == "" {
		return
	}
	if project, err := p.repo.GetProject(ctx, projectID); err == nil {
		project.Status = domain.ProjectStatusFailed
		project.ErrorMsg = cause.Error()
		project.UpdatedAt = now
		_ = p.repo.UpdateProject(ctx, project)
	}
}
