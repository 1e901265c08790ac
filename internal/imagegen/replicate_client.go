// Package imagegen talks to the image generation provider. The worker only
// sees the ImageGenerator interface, so tests substitute fakes for it.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dreamcard/dreamcard-back/internal/ai"
)

var ErrImageGenUnavailable = errors.New("image generation client unavailable")

// GenerateImageRequest carries one panel's rendering parameters.
type GenerateImageRequest struct {
	Prompt         string
	NegativePrompt string
	Width          int
	Height         int
	InferenceSteps int
	GuidanceScale  float64
	Scheduler      string
	OutputFormat   string
}

type GenerateImageResult struct {
	// URLs point at the provider-hosted output images.
	URLs []string
}

type ImageGenerator interface {
	GenerateImage(ctx context.Context, request GenerateImageRequest) (GenerateImageResult, error)
	Available() bool
}

type ReplicateClientConfig struct {
	APIToken   string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	PollEvery  time.Duration
	HTTPClient *http.Client
}

// ReplicateClient drives the predictions API: create a prediction, then poll
// it until it reaches a terminal status. Transport retries apply to the
// create call only; a prediction that fails server-side is not retried here,
// the queue-level attempt budget covers that.
type ReplicateClient struct {
	apiToken   string
	baseURL    string
	model      string
	timeout    time.Duration
	maxRetries int
	pollEvery  time.Duration
	httpClient *http.Client
}

func NewReplicateClient(config ReplicateClientConfig) *ReplicateClient {
	if strings.TrimSpace(config.BaseURL) == "" {
		config.BaseURL = "https://api.replicate.com/v1"
	}
	if strings.TrimSpace(config.Model) == "" {
		config.Model = "stability-ai/stable-diffusion-3"
	}
	if config.Timeout <= 0 {
		config.Timeout = 120 * time.Second
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 2
	}
	if config.PollEvery <= 0 {
		config.PollEvery = 2 * time.Second
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}

	return &ReplicateClient{
		apiToken:   strings.TrimSpace(config.APIToken),
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		model:      config.Model,
		timeout:    config.Timeout,
		maxRetries: config.MaxRetries,
		pollEvery:  config.PollEvery,
		httpClient: config.HTTPClient,
	}
}

func (c *ReplicateClient) Available() bool {
	return c.apiToken != ""
}

func (c *ReplicateClient) GenerateImage(ctx context.Context, request GenerateImageRequest) (GenerateImageResult, error) {
	if !c.Available() {
		return GenerateImageResult{}, ErrImageGenUnavailable
	}
	if strings.TrimSpace(request.Prompt) == "" {
		return GenerateImageResult{}, errors.New("prompt is required")
	}

	payload := map[string]any{
		"input": map[string]any{
			"prompt":              request.Prompt,
			"negative_prompt":     request.NegativePrompt,
			"width":               request.Width,
			"height":              request.Height,
			"num_inference_steps": request.InferenceSteps,
			"guidance_scale":      request.GuidanceScale,
			"scheduler":           request.Scheduler,
			"output_format":       request.OutputFormat,
		},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return GenerateImageResult{}, fmt.Errorf("marshal prediction payload: %w", err)
	}

	var (
		prediction predictionResponse
		lastErr    error
	)
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		prediction, lastErr = c.createPrediction(ctx, encoded)
		if lastErr == nil {
			break
		}
		if !ai.IsRetryableProviderError(lastErr) || attempt == c.maxRetries {
			return GenerateImageResult{}, lastErr
		}

		backoff := time.Duration(500*(attempt+1)) * time.Millisecond
		select {
		case <-ctx.Done():
			return GenerateImageResult{}, ctx.Err()
		case <-time.After(backoff):
		}
	}
	if lastErr != nil {
		return GenerateImageResult{}, lastErr
	}

	final, err := c.waitForPrediction(ctx, prediction)
	if err != nil {
		return GenerateImageResult{}, err
	}

	urls := final.outputURLs()
	if len(urls) == 0 {
		return GenerateImageResult{}, errors.New("prediction succeeded without output images")
	}
	return GenerateImageResult{URLs: urls}, nil
}

func (c *ReplicateClient) createPrediction(ctx context.Context, payload []byte) (predictionResponse, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/models/%s/predictions", c.baseURL, c.model)
	httpRequest, err := http.NewRequestWithContext(timeoutCtx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return predictionResponse{}, fmt.Errorf("create prediction request: %w", err)
	}
	httpRequest.Header.Set("Authorization", "Bearer "+c.apiToken)
	httpRequest.Header.Set("Content-Type", "application/json")

	return c.doPredictionRequest(httpRequest)
}

func (c *ReplicateClient) getPrediction(ctx context.Context, url string) (predictionResponse, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpRequest, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return predictionResponse{}, fmt.Errorf("create prediction poll request: %w", err)
	}
	httpRequest.Header.Set("Authorization", "Bearer "+c.apiToken)
	httpRequest.Header.Set("Accept", "application/json")

	return c.doPredictionRequest(httpRequest)
}

func (c *ReplicateClient) doPredictionRequest(httpRequest *http.Request) (predictionResponse, error) {
	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return predictionResponse{}, fmt.Errorf("replicate timeout: %w", err)
		}
		return predictionResponse{}, fmt.Errorf("replicate transport error: %w", err)
	}
	defer httpResponse.Body.Close()

	body, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return predictionResponse{}, fmt.Errorf("read replicate body: %w", err)
	}

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode > 299 {
		message := strings.TrimSpace(string(body))
		if len(message) > 700 {
			message = message[:700]
		}
		return predictionResponse{}, &ai.ProviderHTTPError{
			Provider:   "replicate",
			StatusCode: httpResponse.StatusCode,
			Message:    message,
		}
	}

	var prediction predictionResponse
	if err := json.Unmarshal(body, &prediction); err != nil {
		return predictionResponse{}, fmt.Errorf("decode replicate response: %w", err)
	}
	return prediction, nil
}

// waitForPrediction polls until the prediction reaches a terminal status.
// The overall client timeout bounds the wait.
func (c *ReplicateClient) waitForPrediction(ctx context.Context, prediction predictionResponse) (predictionResponse, error) {
	deadline := time.Now().Add(c.timeout)
	current := prediction

	for {
		switch current.Status {
		case "succeeded":
			return current, nil
		case "failed", "canceled":
			message := strings.TrimSpace(current.ErrorText)
			if message == "" {
				message = current.Status
			}
			return predictionResponse{}, fmt.Errorf("prediction %s: %s", current.Status, message)
		}

		if current.URLs.Get == "" {
			return predictionResponse{}, errors.New("prediction response missing poll URL")
		}
		if time.Now().After(deadline) {
			return predictionResponse{}, fmt.Errorf("prediction %s did not finish within %s", current.ID, c.timeout)
		}

		select {
		case <-ctx.Done():
			return predictionResponse{}, ctx.Err()
		case <-time.After(c.pollEvery):
		}

		next, err := c.getPrediction(ctx, current.URLs.Get)
		if err != nil {
			return predictionResponse{}, err
		}
		current = next
	}
}

type predictionResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Output    any    `json:"output"`
	ErrorText string `json:"error"`
	URLs      struct {
		Get    string `json:"get"`
		Cancel string `json:"cancel"`
	} `json:"urls"`
}

// outputURLs normalizes the output field, which the API returns either as a
// single URL string or as a list of URLs.
func (p predictionResponse) outputURLs() []string {
	switch typed := p.Output.(type) {
	case string:
		if strings.TrimSpace(typed) == "" {
			return nil
		}
		return []string{typed}
	case []any:
		urls := make([]string, 0, len(typed))
		for _, item := range typed {
			url, ok := item.(string)
			if !ok || strings.TrimSpace(url) == "" {
				continue
			}
			urls = append(urls, url)
		}
		return urls
	default:
		return nil
	}
}
