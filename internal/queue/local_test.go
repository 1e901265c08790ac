package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dreamcard/dreamcard-back/internal/domain"
)

func testMessage(jobID string) domain.QueueMessage {
	return domain.QueueMessage{
		JobID:       jobID,
		ProjectID:   "proj-" + jobID,
		Payload:     json.RawMessage(`{"input_text":"a dream"}`),
		Attempt:     0,
		RequestedAt: time.Now().UTC(),
	}
}

func TestLocalQueueDeliversMessages(t *testing.T) {
	queue := NewLocalQueue(8, 2, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan domain.QueueMessage, 1)
	go func() {
		_ = queue.Consume(ctx, func(_ context.Context, message domain.QueueMessage) error {
			received <- message
			return nil
		})
	}()

	if err := queue.Enqueue(ctx, testMessage("job-1")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case message := <-received:
		if message.JobID != "job-1" {
			t.Fatalf("job id = %q", message.JobID)
		}
		if message.ProjectID != "proj-job-1" {
			t.Fatalf("project id = %q", message.ProjectID)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("message was not delivered")
	}
}

func TestLocalQueueRetriesThenDeadLetters(t *testing.T) {
	queue := NewLocalQueue(8, 2, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	attempts := make(chan int, 4)
	go func() {
		_ = queue.Consume(ctx, func(_ context.Context, message domain.QueueMessage) error {
			attempts <- message.Attempt
			return errors.New("pipeline failed")
		})
	}()

	if err := queue.Enqueue(ctx, testMessage("job-2")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	var seen []int
	timeout := time.After(5 * time.Second)
	for len(seen) < 2 {
		select {
		case attempt := <-attempts:
			seen = append(seen, attempt)
		case <-timeout:
			t.Fatalf("expected 2 attempts, saw %v", seen)
		}
	}
	if seen[0] != 0 || seen[1] != 1 {
		t.Fatalf("attempts = %v, want [0 1]", seen)
	}

	deadline := time.Now().Add(2 * time.Second)
	for queue.DLQSize() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("message never reached DLQ")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if size := queue.DLQSize(); size != 1 {
		t.Fatalf("dlq size = %d, want 1", size)
	}
}

func TestLocalQueueProgressMirror(t *testing.T) {
	queue := NewLocalQueue(8, 2, zerolog.Nop())
	ctx := context.Background()

	if _, ok, _ := queue.JobProgress(ctx, "job-3"); ok {
		t.Fatalf("expected no progress before first report")
	}

	if err := queue.ReportProgress(ctx, "job-3", 35); err != nil {
		t.Fatalf("report progress: %v", err)
	}
	percent, ok, err := queue.JobProgress(ctx, "job-3")
	if err != nil || !ok || percent != 35 {
		t.Fatalf("progress = (%d,%v,%v), want (35,true,nil)", percent, ok, err)
	}

	if err := queue.ReportProgress(ctx, "job-3", 250); err != nil {
		t.Fatalf("report progress: %v", err)
	}
	percent, _, _ = queue.JobProgress(ctx, "job-3")
	if percent != 100 {
		t.Fatalf("progress = %d, want clamp to 100", percent)
	}
}
