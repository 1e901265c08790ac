package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dreamcard/dreamcard-back/internal/domain"
)

type PostgresProjectsRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresProjectsRepository(ctx context.Context, databaseURL string) (*PostgresProjectsRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pg pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pg: %w", err)
	}
	return &PostgresProjectsRepository{pool: pool}, nil
}

func (r *PostgresProjectsRepository) Close() {
	r.pool.Close()
}

func (r *PostgresProjectsRepository) CreateProject(ctx context.Context, project *domain.Project) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO projects (
			id,
			input_text,
			style,
			symbols,
			mood,
			visibility,
			status,
			progress,
			error_msg,
			collage_url,
			video_url,
			share_slug,
			created_at,
			updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		project.ID,
		project.InputText,
		project.Style,
		project.Symbols,
		project.Mood,
		string(project.Visibility),
		string(project.Status),
		project.Progress,
		project.ErrorMsg,
		project.CollageURL,
		project.VideoURL,
		project.ShareSlug,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *PostgresProjectsRepository) UpdateProject(ctx context.Context, project *domain.Project) error {
	command, err := r.pool.Exec(ctx, `
		UPDATE projects
		SET status = $2,
			progress = $3,
			error_msg = $4,
			collage_url = $5,
			video_url = $6,
			share_slug = $7,
			updated_at = $8
		WHERE id = $1
	`,
		project.ID,
		string(project.Status),
		project.Progress,
		project.ErrorMsg,
		project.CollageURL,
		project.VideoURL,
		project.ShareSlug,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if command.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresProjectsRepository) GetProject(ctx context.Context, projectID string) (*domain.Project, error) {
	var (
		project    domain.Project
		visibility string
		status     string
		createdAt  time.Time
		updatedAt  time.Time
	)

	err := r.pool.QueryRow(ctx, `
		SELECT id, input_text, style, symbols, mood, visibility, status, progress,
			error_msg, collage_url, video_url, share_slug, created_at, updated_at
		FROM projects
		WHERE id = $1
	`, projectID).Scan(
		&project.ID,
		&project.InputText,
		&project.Style,
		&project.Symbols,
		&project.Mood,
		&visibility,
		&status,
		&project.Progress,
		&project.ErrorMsg,
		&project.CollageURL,
		&project.VideoURL,
		&project.ShareSlug,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query project: %w", err)
	}

	project.Visibility = domain.Visibility(visibility)
	project.Status = domain.ProjectStatus(status)
	project.CreatedAt = createdAt
	project.UpdatedAt = updatedAt
	return &project, nil
}

func (r *PostgresProjectsRepository) ListPanels(ctx context.Context, projectID string) ([]domain.Panel, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, panel_order, scene, caption, image_url, sketch_url, created_at
		FROM panels
		WHERE project_id = $1
		ORDER BY panel_order ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list panels: %w", err)
	}
	defer rows.Close()

	panels := make([]domain.Panel, 0, 3)
	for rows.Next() {
		var panel domain.Panel
		if err := rows.Scan(
			&panel.ID,
			&panel.ProjectID,
			&panel.Order,
			&panel.Scene,
			&panel.Caption,
			&panel.ImageURL,
			&panel.SketchURL,
			&panel.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan panel: %w", err)
		}
		panels = append(panels, panel)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate panels: %w", rows.Err())
	}
	return panels, nil
}

func (r *PostgresProjectsRepository) CreatePanel(ctx context.Context, panel *domain.Panel) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO panels (
			id,
			project_id,
			panel_order,
			scene,
			caption,
			image_url,
			sketch_url,
			created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		panel.ID,
		panel.ProjectID,
		panel.Order,
		panel.Scene,
		panel.Caption,
		panel.ImageURL,
		panel.SketchURL,
		panel.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert panel: %w", err)
	}
	return nil
}

func (r *PostgresProjectsRepository) CreateJob(ctx context.Context, job *domain.Job) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO jobs (
			id,
			project_id,
			payload,
			status,
			progress,
			error_message,
			attempts,
			created_at,
			updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		job.ID,
		job.ProjectID,
		job.Payload,
		string(job.Status),
		job.Progress,
		job.ErrorMessage,
		job.Attempts,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *PostgresProjectsRepository) UpdateJob(ctx context.Context, job *domain.Job) error {
	command, err := r.pool.Exec(ctx, `
		UPDATE jobs
		SET status = $2,
			progress = $3,
			error_message = $4,
			attempts = $5,
			updated_at = $6
		WHERE id = $1
	`, job.ID, string(job.Status), job.Progress, job.ErrorMessage, job.Attempts, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if command.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresProjectsRepository) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	var (
		job       domain.Job
		status    string
		payload   []byte
		createdAt time.Time
		updatedAt time.Time
	)

	err := r.pool.QueryRow(ctx, `
		SELECT id, project_id, payload, status, progress, error_message, attempts, created_at, updated_at
		FROM jobs
		WHERE id = $1
	`, jobID).Scan(
		&job.ID,
		&job.ProjectID,
		&payload,
		&status,
		&job.Progress,
		&job.ErrorMessage,
		&job.Attempts,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query job: %w", err)
	}

	job.Status = domain.JobStatus(status)
	job.Payload = json.RawMessage(payload)
	job.CreatedAt = createdAt
	job.UpdatedAt = updatedAt
	return &job, nil
}
