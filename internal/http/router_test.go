package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dreamcard/dreamcard-back/internal/domain"
	"github.com/dreamcard/dreamcard-back/internal/http/handlers"
	"github.com/dreamcard/dreamcard-back/internal/repository"
	"github.com/dreamcard/dreamcard-back/internal/service"
)

type memoryProducer struct {
	messages []domain.QueueMessage
}

func (m *memoryProducer) Enqueue(_ context.Context, message domain.QueueMessage) error {
	m.messages = append(m.messages, message)
	return nil
}

type memoryReporter struct {
	progress map[string]int
}

func (m *memoryReporter) ReportProgress(_ context.Context, jobID string, percent int) error {
	if m.progress == nil {
		m.progress = make(map[string]int)
	}
	m.progress[jobID] = percent
	return nil
}

func (m *memoryReporter) JobProgress(_ context.Context, jobID string) (int, bool, error) {
	percent, ok := m.progress[jobID]
	return percent, ok, nil
}

func newTestRouter(authToken string) (http.Handler, *memoryProducer, *memoryReporter) {
	producer := &memoryProducer{}
	reporter := &memoryReporter{}
	svc := service.NewProjectsService(repository.NewMemoryProjectsRepository(), producer, reporter)

	router := NewRouter(RouterDependencies{
		API:            handlers.NewAPI(svc),
		Logger:         zerolog.Nop(),
		AuthToken:      authToken,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	})
	return router, producer, reporter
}

func submitBody(t *testing.T) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"input_text": "I was floating above a golden sea of fog and the horizon kept folding",
		"style":      "memory",
		"symbols":    []string{"fog", "ocean"},
		"mood":       "calm",
	})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(body)
}

func TestSubmitDreamAccepted(t *testing.T) {
	router, producer, _ := newTestRouter("")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/v1/dreams", submitBody(t)))

	if recorder.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202, body: %s", recorder.Code, recorder.Body)
	}
	if recorder.Header().Get("X-Request-Id") == "" {
		t.Fatalf("missing X-Request-Id header")
	}

	var response struct {
		ProjectID string `json:"project_id"`
		JobID     string `json:"job_id"`
		Status    string `json:"status"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.ProjectID == "" || response.JobID == "" {
		t.Fatalf("response missing ids: %+v", response)
	}
	if response.Status != "queued" {
		t.Fatalf("status = %q, want queued", response.Status)
	}
	if len(producer.messages) != 1 {
		t.Fatalf("enqueued = %d messages, want 1", len(producer.messages))
	}
}

func TestSubmitDreamValidationFailure(t *testing.T) {
	router, producer, _ := newTestRouter("")

	body := bytes.NewReader([]byte(`{"input_text":"too short","style":"memory"}`))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/v1/dreams", body))

	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", recorder.Code)
	}

	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if payload.Error.Code != "validation_failed" {
		t.Fatalf("code = %q, want validation_failed", payload.Error.Code)
	}
	if payload.RequestID == "" {
		t.Fatalf("error payload missing request id")
	}
	if len(producer.messages) != 0 {
		t.Fatalf("rejected submission must not enqueue")
	}
}

func TestSubmitDreamMalformedBody(t *testing.T) {
	router, _, _ := newTestRouter("")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/v1/dreams", bytes.NewReader([]byte(`{not json`))))

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}
}

func TestJobStatusPollingFlow(t *testing.T) {
	router, _, reporter := newTestRouter("")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/v1/dreams", submitBody(t)))
	if recorder.Code != http.StatusAccepted {
		t.Fatalf("submit status = %d", recorder.Code)
	}
	var submitted struct {
		ProjectID string `json:"project_id"`
		JobID     string `json:"job_id"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &submitted); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/jobs/"+submitted.JobID, nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("job status = %d, want 200", recorder.Code)
	}
	var status struct {
		JobID     string  `json:"job_id"`
		ProjectID string  `json:"project_id"`
		Status    string  `json:"status"`
		Progress  float64 `json:"progress"`
		Stage     string  `json:"stage"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.JobID != submitted.JobID || status.ProjectID != submitted.ProjectID {
		t.Fatalf("status ids = %+v", status)
	}
	if status.Status != "queued" || status.Progress != 0 || status.Stage != "parsing" {
		t.Fatalf("fresh job status = %+v", status)
	}

	// Worker-side progress shows up on the next poll.
	if err := reporter.ReportProgress(context.Background(), submitted.JobID, 35); err != nil {
		t.Fatalf("report progress: %v", err)
	}
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/jobs/"+submitted.JobID, nil))
	if err := json.Unmarshal(recorder.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Progress != 0.35 || status.Stage != "rendering" {
		t.Fatalf("polled status = %+v, want 0.35/rendering", status)
	}
}

func TestGetProjectAfterSubmission(t *testing.T) {
	router, _, _ := newTestRouter("")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/v1/dreams", submitBody(t)))
	var submitted struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &submitted); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/dreams/"+submitted.ProjectID, nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}

	var project struct {
		ProjectID  string          `json:"project_id"`
		Status     string          `json:"status"`
		Visibility string          `json:"visibility"`
		ShareSlug  string          `json:"share_slug"`
		Panels     json.RawMessage `json:"panels"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &project); err != nil {
		t.Fatalf("decode project: %v", err)
	}
	if project.ProjectID != submitted.ProjectID || project.Status != "queued" {
		t.Fatalf("project = %+v", project)
	}
	if project.Visibility != "private" {
		t.Fatalf("visibility = %q, want private default", project.Visibility)
	}
	if project.ShareSlug != "" {
		t.Fatalf("share slug must be hidden for private projects")
	}
	if string(project.Panels) != "[]" {
		t.Fatalf("panels = %s, want empty array", project.Panels)
	}
}

func TestNotFoundResponses(t *testing.T) {
	router, _, _ := newTestRouter("")

	for _, path := range []string{"/v1/jobs/missing", "/v1/dreams/missing"} {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("GET %s status = %d, want 404", path, recorder.Code)
		}
	}
}

func TestAuthGuardsV1Routes(t *testing.T) {
	router, _, _ := newTestRouter("secret-token")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/v1/dreams", submitBody(t)))
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want 401", recorder.Code)
	}

	request := httptest.NewRequest(http.MethodPost, "/v1/dreams", submitBody(t))
	request.Header.Set("Authorization", "Bearer wrong")
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status with wrong token = %d, want 401", recorder.Code)
	}

	request = httptest.NewRequest(http.MethodPost, "/v1/dreams", submitBody(t))
	request.Header.Set("Authorization", "Bearer secret-token")
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusAccepted {
		t.Fatalf("status with token = %d, want 202", recorder.Code)
	}

	// Health stays open for probes.
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", recorder.Code)
	}
}
