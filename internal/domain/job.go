package domain

import (
	"encoding/json"
	"time"
)

type JobStatus string

const (
	JobStatusQueued  JobStatus = "queued"
	JobStatusRunning JobStatus = "running"
	JobStatusSuccess JobStatus = "success"
	JobStatusFailed  JobStatus = "failed"
)

// GenerationPayload carries everything the worker needs to run the pipeline,
// so dequeueing does not require a project read before starting.
type GenerationPayload struct {
	ProjectID string   `json:"project_id"`
	InputText string   `json:"input_text"`
	Style     string   `json:"style"`
	Symbols   []string `json:"symbols"`
	Mood      string   `json:"mood,omitempty"`
}

// Job is the durable unit of queued work, 1:1 with a project's single
// generation attempt. Status and progress mirror the project record.
type Job struct {
	ID           string
	ProjectID    string
	Payload      json.RawMessage
	Status       JobStatus
	Progress     float64
	ErrorMessage string
	Attempts     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// QueueMessage is the transport format sent to queue backends.
type QueueMessage struct {
	JobID       string          `json:"job_id"`
	ProjectID   string          `json:"project_id"`
	Payload     json.RawMessage `json:"payload"`
	Attempt     int             `json:"attempt"`
	RequestedAt time.Time       `json:"requested_at"`
}
