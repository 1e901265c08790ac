package queue

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dreamcard/dreamcard-back/internal/domain"
)

// LocalQueue is a fallback queue used when Redis is not configured. It keeps
// the same attempt/DLQ semantics and progress mirror in process memory.
type LocalQueue struct {
	ch          chan domain.QueueMessage
	maxAttempts int
	logger      zerolog.Logger

	dlqMu sync.Mutex
	dlq   []domain.QueueMessage

	progressMu sync.RWMutex
	progress   map[string]int
}

func NewLocalQueue(bufferSize, maxAttempts int, logger zerolog.Logger) *LocalQueue {
	if bufferSize <= 0 {
		bufferSize = 512
	}
	if maxAttempts <= 0 {
		maxAttempts = 2
	}
	return &LocalQueue{
		ch:          make(chan domain.QueueMessage, bufferSize),
		maxAttempts: maxAttempts,
		logger:      logger,
		dlq:         make([]domain.QueueMessage, 0),
		progress:    make(map[string]int),
	}
}

func (q *LocalQueue) Enqueue(ctx context.Context, message domain.QueueMessage) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.ch <- message:
		return nil
	}
}

func (q *LocalQueue) Consume(ctx context.Context, handler func(context.Context, domain.QueueMessage) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case message := <-q.ch:
			err := handler(ctx, message)
			if err == nil {
				continue
			}

			message.Attempt++
			if message.Attempt >= q.maxAttempts {
				q.dlqMu.Lock()
				q.dlq = append(q.dlq, message)
				q.dlqMu.Unlock()
				q.logger.Warn().
					Str("job_id", message.JobID).
					Err(err).
					Msg("local queue moved message to DLQ")
				continue
			}

			delay := time.Duration(message.Attempt) * 500 * time.Millisecond
			go func(retryMessage domain.QueueMessage) {
				timer := time.NewTimer(delay)
				defer timer.Stop()
				select {
				case <-ctx.Done():
					return
				case <-timer.C:
					q.ch <- retryMessage
				}
			}(message)
		}
	}
}

func (q *LocalQueue) ReportProgress(_ context.Context, jobID string, percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	q.progressMu.Lock()
	q.progress[jobID] = percent
	q.progressMu.Unlock()
	return nil
}

func (q *LocalQueue) JobProgress(_ context.Context, jobID string) (int, bool, error) {
	q.progressMu.RLock()
	defer q.progressMu.RUnlock()
	percent, ok := q.progress[jobID]
	return percent, ok, nil
}

func (q *LocalQueue) DLQSize() int {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	return len(q.dlq)
}
