package queue

import (
	"context"

	"github.com/dreamcard/dreamcard-back/internal/domain"
)

// Producer sends generation jobs to a queue backend.
type Producer interface {
	Enqueue(ctx context.Context, message domain.QueueMessage) error
}

// Consumer receives generation jobs and executes handlers. A handler error
// requeues the message until the attempt budget is spent, then the message
// moves to the dead-letter stream.
type Consumer interface {
	Consume(ctx context.Context, handler func(context.Context, domain.QueueMessage) error) error
}

// ProgressReporter mirrors job progress on the queue side as a 0-100 percent
// value, so status reads can cross-check the durable store against the most
// recent worker checkpoint.
type ProgressReporter interface {
	ReportProgress(ctx context.Context, jobID string, percent int) error
	JobProgress(ctx context.Context, jobID string) (int, bool, error)
}
