// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cloud provides components for interacting with cloud services.
// This file implements a decorator around the chat-completion client that
// adds rate limiting and token-usage metrics without altering the client
// itself.
//
// Why this is important:
//   - Rate Limiting: Completion endpoints enforce per-minute quotas. The
//     wrapper blocks until the limiter admits the request, so a burst of
//     parallel enrichment calls cannot trip the quota.
//   - Single attempt: Each request is made exactly once. A failure is
//     returned to the caller, which decides whether the pipeline run is
//     fatal or degrades gracefully. There is no retry layer here.
//
// Structs:
//   - QuotaAwareCompletionModel: A configured model plus limiter and counters.
//
// Functions:
//   - NewQuotaAwareCompletionModel: Constructor for the wrapped model.
//   - GenerateText: Sends one prompt and returns the first choice's text.
package cloud

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
)

// QuotaAwareCompletionModel is a decorator that binds one configured
// chat-completion model to a shared API client, a rate limiter, and
// OpenTelemetry token counters.
type QuotaAwareCompletionModel struct {
	Client             *openai.Client // The shared OpenAI-compatible API client.
	ModelName          string         // The completion model to request.
	SystemInstructions string         // Optional system message prepended to every request.
	Temperature        float32        // Sampling temperature for the model.
	MaxTokens          int            // Maximum tokens in the generated response.
	RateLimit          *rate.Limiter  // Limits request frequency for this model.
	inputTokenCounter  metric.Int64Counter
	outputTokenCounter metric.Int64Counter
}

// NewQuotaAwareCompletionModel creates a wrapped completion model from its
// configuration and registers token-usage counters under the model's logical
// name.
//
// Inputs:
//   - client: The shared *openai.Client.
//   - name: The logical name of the model (e.g. "quotes"), used for metrics.
//   - config: The model's configuration block.
//
// Outputs:
//   - *QuotaAwareCompletionModel: A pointer to the newly created wrapper.
func NewQuotaAwareCompletionModel(client *openai.Client, name string, config CompletionModel) *QuotaAwareCompletionModel {
	meter := otel.Meter("completion-models")
	inputCounter, err := meter.Int64Counter(fmt.Sprintf("%s.tokens.input", name))
	if err != nil {
		slog.Warn("failed to create input token counter", "model", name, "error", err)
	}
	outputCounter, err := meter.Int64Counter(fmt.Sprintf("%s.tokens.output", name))
	if err != nil {
		slog.Warn("failed to create output token counter", "model", name, "error", err)
	}

	rateLimit := config.RateLimit
	if rateLimit <= 0 {
		rateLimit = 1
	}

	return &QuotaAwareCompletionModel{
		Client:             client,
		ModelName:          config.Model,
		SystemInstructions: config.SystemInstructions,
		Temperature:        config.Temperature,
		MaxTokens:          config.MaxTokens,
		// Allows a burst of rateLimit requests, replenished once per second.
		RateLimit:          rate.NewLimiter(rate.Every(time.Second/1), rateLimit),
		inputTokenCounter:  inputCounter,
		outputTokenCounter: outputCounter,
	}
}

// GenerateText sends a single chat-completion request carrying the prompt as
// one user message and returns the content of the first choice. The call
// blocks until the rate limiter admits it, then executes exactly once.
//
// Inputs:
//   - ctx: The context for the request, carrying cancellation and tracing.
//   - prompt: The full prompt text for the user message.
//
// Outputs:
//   - string: The generated text from choices[0].
//   - error: An error if the limiter wait or the API call fails, or if the
//     response carries no choices.
func (q *QuotaAwareCompletionModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait: %w", err)
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if q.SystemInstructions != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: q.SystemInstructions,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := q.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       q.ModelName,
		Messages:    messages,
		MaxTokens:   q.MaxTokens,
		Temperature: q.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("completion request for model %s: %w", q.ModelName, err)
	}

	q.inputTokenCounter.Add(ctx, int64(resp.Usage.PromptTokens))
	q.outputTokenCounter.Add(ctx, int64(resp.Usage.CompletionTokens))

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion response for model %s carried no choices", q.ModelName)
	}
	return resp.Choices[0].Message.Content, nil
}
