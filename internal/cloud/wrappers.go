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

// Package cloud provides components for interacting with Google Cloud services.
// This file implements a wrapper around the Generative AI client. The wrapper
// decorates the client with rate limiting and retries, and implements
// llm.Generator on top of it, including the single round of function calling
// the chat flow needs.
//
// Structs:
//   - QuotaAwareGenerativeAIModel: Wraps genai.Models with a rate limiter, a
//     retry policy and token counters.
//
// Functions:
//   - NewQuotaAwareModel: A constructor to create a new instance of the wrapped model.
//   - GenerateContent: Calls the model once the limiter allows it, retrying failures.
//   - Generate: Implements llm.Generator.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-video-chat/internal/core/llm"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/model"
)

const (
	roleUser  = "user"
	roleModel = "model"

	// DefaultMaxRetries is used when a model configuration does not set
	// max_retries. An explicit 0 disables retries.
	DefaultMaxRetries = 3
)

// QuotaAwareGenerativeAIModel is a decorator that adds rate limiting, retries
// and usage accounting to genai.Models.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig // Base configuration copied into every request.
	ModelName               string
	ModelHandle             *genai.Models
	RateLimit               *rate.Limiter
	MaxRetries              int
	InitialRetryInterval    time.Duration

	inputTokens  metric.Int64Counter
	outputTokens metric.Int64Counter
	retries      metric.Int64Counter
}

// NewQuotaAwareModel creates a QuotaAwareGenerativeAIModel allowing a burst of
// requestsPerSecond calls, replenished at that rate.
//
// Inputs:
//   - wrapped: The base generation configuration (temperature, safety settings, ...).
//   - name: The model name.
//   - modelHandle: The genai.Models service of a client.
//   - requestsPerSecond: Maximum number of API calls allowed per second.
//   - maxRetries: Retries of a failed call; values below zero use DefaultMaxRetries.
func NewQuotaAwareModel(wrapped *genai.GenerateContentConfig, name string, modelHandle *genai.Models, requestsPerSecond int, maxRetries int) *QuotaAwareGenerativeAIModel {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	if wrapped == nil {
		wrapped = &genai.GenerateContentConfig{}
	}
	meter := otel.Meter("genai-model")
	in, _ := meter.Int64Counter("genai.tokens.input", metric.WithDescription("Prompt tokens sent to the model"))
	out, _ := meter.Int64Counter("genai.tokens.output", metric.WithDescription("Candidate tokens returned by the model"))
	retries, _ := meter.Int64Counter("genai.retries", metric.WithDescription("Retried generation calls"))
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: wrapped,
		ModelName:               name,
		ModelHandle:             modelHandle,
		RateLimit:               rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		MaxRetries:              maxRetries,
		InitialRetryInterval:    time.Second,
		inputTokens:             in,
		outputTokens:            out,
		retries:                 retries,
	}
}

// GenerateContent waits for the rate limiter and calls the model, retrying
// transient failures with exponential backoff. Client errors other than 429
// are not retried.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, content []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	attempt := 0
	operation := func() (*genai.GenerateContentResponse, error) {
		if err := q.RateLimit.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}
		if attempt > 0 {
			q.retries.Add(ctx, 1, metric.WithAttributes(attribute.String("model", q.ModelName)))
		}
		attempt++
		resp, err := q.ModelHandle.GenerateContent(ctx, q.ModelName, content, config)
		if err != nil {
			if !retryable(err) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return resp, nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = q.InitialRetryInterval
	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(q.MaxRetries+1)),
	)
	if err != nil {
		return nil, fmt.Errorf("generate content with %s: %w", q.ModelName, err)
	}
	if resp.UsageMetadata != nil {
		attrs := metric.WithAttributes(attribute.String("model", q.ModelName))
		q.inputTokens.Add(ctx, int64(resp.UsageMetadata.PromptTokenCount), attrs)
		q.outputTokens.Add(ctx, int64(resp.UsageMetadata.CandidatesTokenCount), attrs)
	}
	return resp, nil
}

// Generate implements llm.Generator. When the request carries tools, the model
// may call them once; the tool outputs are sent back and the model is asked for
// its final answer with function calling disabled.
func (q *QuotaAwareGenerativeAIModel) Generate(ctx context.Context, req llm.Request) (*llm.Result, error) {
	config := q.requestConfig(req)
	contents := []*genai.Content{{Role: roleUser, Parts: []*genai.Part{{Text: req.Prompt}}}}

	usage := model.UsageMetrics{ModelIdentifier: q.ModelName}
	resp, err := q.GenerateContent(ctx, contents, config)
	if err != nil {
		return nil, err
	}
	addUsage(&usage, resp)

	calls := functionCalls(resp)
	if len(calls) > 0 {
		contents = append(contents, &genai.Content{Role: roleModel, Parts: callParts(calls)})
		contents = append(contents, &genai.Content{Role: roleUser, Parts: invokeTools(ctx, req.Tools, calls)})

		followUp := *config
		followUp.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeNone},
		}
		resp, err = q.GenerateContent(ctx, contents, &followUp)
		if err != nil {
			return nil, err
		}
		addUsage(&usage, resp)
	}

	text := ResponseText(resp)
	if text == "" {
		return nil, errors.New("model returned no text")
	}
	return &llm.Result{Text: text, Usage: usage}, nil
}

func (q *QuotaAwareGenerativeAIModel) requestConfig(req llm.Request) *genai.GenerateContentConfig {
	config := *q.GenerativeContentConfig
	if req.SystemInstructions != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.SystemInstructions}}}
	}
	if len(req.Tools) > 0 {
		declarations := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			declarations = append(declarations, &genai.FunctionDeclaration{
				Name:        t.Name(),
				Description: t.Description(),
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: declarations}}
	} else {
		config.Tools = nil
	}
	return &config
}

func invokeTools(ctx context.Context, tools []llm.Tool, calls []*genai.FunctionCall) []*genai.Part {
	parts := make([]*genai.Part, 0, len(calls))
	for _, call := range calls {
		var output string
		if tool, ok := llm.FindTool(tools, call.Name); ok {
			output = tool.Invoke(ctx)
		} else {
			output = fmt.Sprintf("Tool %q is not available.", call.Name)
		}
		parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
			ID:       call.ID,
			Name:     call.Name,
			Response: map[string]any{"output": output},
		}})
	}
	return parts
}

func callParts(calls []*genai.FunctionCall) []*genai.Part {
	parts := make([]*genai.Part, 0, len(calls))
	for _, call := range calls {
		parts = append(parts, &genai.Part{FunctionCall: call})
	}
	return parts
}

func functionCalls(resp *genai.GenerateContentResponse) []*genai.FunctionCall {
	var calls []*genai.FunctionCall
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.FunctionCall != nil {
			calls = append(calls, part.FunctionCall)
		}
	}
	return calls
}

func addUsage(usage *model.UsageMetrics, resp *genai.GenerateContentResponse) {
	if resp == nil || resp.UsageMetadata == nil {
		return
	}
	usage.InputTokens += int(resp.UsageMetadata.PromptTokenCount)
	usage.OutputTokens += int(resp.UsageMetadata.CandidatesTokenCount)
}

// ResponseText concatenates the text parts of the first candidate, skipping
// thought parts.
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String())
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return true
}
