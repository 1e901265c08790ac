// Package interpreter converts raw dream text into a validated three-panel
// plan by calling the interpretation model, checking the output against the
// quality rules, and retrying with itemized feedback when it falls short.
package interpreter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dreamcard/dreamcard-back/internal/ai"
	"github.com/dreamcard/dreamcard-back/internal/plan"
	"github.com/dreamcard/dreamcard-back/internal/quality"
	"github.com/dreamcard/dreamcard-back/internal/style"
)

// ErrInterpretation marks a job-fatal interpretation failure: the service
// was unreachable or unparseable on every attempt.
var ErrInterpretation = errors.New("dream interpretation failed")

type Config struct {
	PrimaryModel  string
	FallbackModel string
	Temperature   float64
	MaxTokens     int

	// MaxRetries bounds quality-driven retries; total model calls for one
	// job never exceed MaxRetries+1.
	MaxRetries int

	// AcceptDegraded keeps the availability-over-purity fallback: when the
	// retry budget is exhausted the last plan is accepted with its failures
	// logged instead of failing the job.
	AcceptDegraded bool
}

func DefaultConfig() Config {
	return Config{
		PrimaryModel:   "meta-llama/llama-3.3-70b-instruct",
		FallbackModel:  "meta-llama/llama-3.1-70b-instruct",
		Temperature:    0.9,
		MaxTokens:      1500,
		MaxRetries:     2,
		AcceptDegraded: true,
	}
}

type Interpreter struct {
	client    ai.TextGenerator
	validator *quality.PlanValidator
	config    Config
	logger    zerolog.Logger
}

func New(client ai.TextGenerator, validator *quality.PlanValidator, config Config, logger zerolog.Logger) *Interpreter {
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if strings.TrimSpace(config.PrimaryModel) == "" {
		config.PrimaryModel = DefaultConfig().PrimaryModel
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = DefaultConfig().MaxTokens
	}
	return &Interpreter{
		client:    client,
		validator: validator,
		config:    config,
		logger:    logger,
	}
}

// Interpret turns dream text into a ThreePanelPlan. Each attempt is one
// outbound model call; invalid output re-invokes the model with the failure
// list appended as corrective feedback, up to MaxRetries retries. The loop is
// explicit and carries the attempt counter, so the retry budget stays
// auditable.
func (i *Interpreter) Interpret(
	ctx context.Context,
	inputText string,
	styleID string,
	symbols []string,
	mood string,
) (plan.ThreePanelPlan, error) {
	profile, err := style.Lookup(styleID)
	if err != nil {
		return plan.ThreePanelPlan{}, fmt.Errorf("%w: %v", ErrInterpretation, err)
	}

	systemPrompt := buildSystemPrompt(profile)
	input := buildUserInput(inputText, symbols, mood)

	var (
		lastPlan     plan.ThreePanelPlan
		lastFailures []string
		havePlan     bool
	)

	for attempt := 0; attempt <= i.config.MaxRetries; attempt++ {
		text, callErr := i.generate(ctx, systemPrompt, input)
		if callErr != nil {
			return plan.ThreePanelPlan{}, fmt.Errorf("%w: %v", ErrInterpretation, callErr)
		}

		parsed, parseErr := plan.Parse(text)
		if parseErr != nil {
			// Unparseable output is treated like a validator failure so the
			// model gets another chance instead of sinking the job.
			i.logger.Warn().
				Err(parseErr).
				Int("attempt", attempt+1).
				Msg("interpreter: model output unparseable")
			lastFailures = []string{"previous response was not valid JSON matching the required schema"}
			input = buildFeedbackInput(input, lastFailures)
			continue
		}

		result := i.validator.Validate(parsed, profile)
		lastPlan = parsed
		havePlan = true
		lastFailures = result.Failures

		if len(result.Warnings) > 0 {
			i.logger.Warn().
				Strs("warnings", result.Warnings).
				Int("attempt", attempt+1).
				Msg("interpreter: plan quality warnings")
		}

		if result.Passed {
			i.logger.Info().Int("attempt", attempt+1).Msg("interpreter: plan passed quality check")
			return parsed, nil
		}

		i.logger.Warn().
			Strs("failures", result.Failures).
			Int("attempt", attempt+1).
			Int("max_attempts", i.config.MaxRetries+1).
			Msg("interpreter: plan failed quality check")

		input = buildFeedbackInput(input, result.Failures)
	}

	if havePlan && i.config.AcceptDegraded {
		i.logger.Warn().
			Strs("unresolved_failures", lastFailures).
			Msg("interpreter: retry budget exhausted, accepting degraded plan")
		return lastPlan, nil
	}

	return plan.ThreePanelPlan{}, fmt.Errorf(
		"%w: plan rejected after %d attempts: %s",
		ErrInterpretation, i.config.MaxRetries+1, strings.Join(lastFailures, "; "),
	)
}

// generate calls the primary model and falls back to the secondary model on
// a transport failure. Quality retries always go back to the primary.
func (i *Interpreter) generate(ctx context.Context, instructions, input string) (string, error) {
	request := ai.GenerateRequest{
		Model:           i.config.PrimaryModel,
		Instructions:    instructions,
		Input:           input,
		Temperature:     i.config.Temperature,
		MaxOutputTokens: i.config.MaxTokens,
	}

	result, err := i.client.Generate(ctx, request)
	if err == nil {
		return result.Text, nil
	}
	if strings.TrimSpace(i.config.FallbackModel) == "" {
		return "", err
	}

	i.logger.Warn().
		Err(err).
		Str("fallback_model", i.config.FallbackModel).
		Msg("interpreter: primary model failed, trying fallback")

	request.Model = i.config.FallbackModel
	fallbackResult, fallbackErr := i.client.Generate(ctx, request)
	if fallbackErr != nil {
		return "", err
	}
	return fallbackResult.Text, nil
}
