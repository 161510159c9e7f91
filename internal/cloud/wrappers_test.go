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

package cloud

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-video-chat/internal/core/llm"
)

const (
	textResponse = `{"candidates":[{"content":{"role":"model","parts":[{"text":"A short answer."}]}}],
"usageMetadata":{"promptTokenCount":12,"candidatesTokenCount":4}}`
	callResponse = `{"candidates":[{"content":{"role":"model","parts":[{"functionCall":{"name":"fetch_full_transcript","args":{}}}]}}],
"usageMetadata":{"promptTokenCount":10,"candidatesTokenCount":1}}`
	serverError = `{"error":{"code":500,"message":"backend failure","status":"INTERNAL"}}`
	badRequest  = `{"error":{"code":400,"message":"invalid argument","status":"INVALID_ARGUMENT"}}`
)

type reply struct {
	status int
	body   string
}

// geminiStub serves the canned replies in order and records request bodies.
type geminiStub struct {
	mu       sync.Mutex
	replies  []reply
	requests []string
}

func (s *geminiStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, string(body))
	next := s.replies[len(s.replies)-1]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(next.status)
	_, _ = io.WriteString(w, next.body)
}

func (s *geminiStub) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func newTestModel(t *testing.T, stub *geminiStub) *QuotaAwareGenerativeAIModel {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: srv.URL + "/"},
	})
	require.NoError(t, err)

	m := NewQuotaAwareModel(ContentConfig(GenAIModel{Temperature: 0}), "gemini-2.5-flash-lite", client.Models, 100, 2)
	m.InitialRetryInterval = time.Millisecond
	return m
}

type countingTool struct {
	invocations int
}

func (c *countingTool) Name() string        { return "fetch_full_transcript" }
func (c *countingTool) Description() string { return "Returns the full transcript." }
func (c *countingTool) Invoke(context.Context) string {
	c.invocations++
	return "the full transcript"
}

func TestGenerate_Text(t *testing.T) {
	stub := &geminiStub{replies: []reply{{http.StatusOK, textResponse}}}
	m := newTestModel(t, stub)

	res, err := m.Generate(context.Background(), llm.Request{
		SystemInstructions: "Be brief.",
		Prompt:             "Summarize.",
	})
	require.NoError(t, err)
	assert.Equal(t, "A short answer.", res.Text)
	assert.Equal(t, "gemini-2.5-flash-lite", res.Usage.ModelIdentifier)
	assert.Equal(t, 12, res.Usage.InputTokens)
	assert.Equal(t, 4, res.Usage.OutputTokens)

	requests := stub.calls()
	require.Len(t, requests, 1)
	assert.Contains(t, requests[0], "Be brief.")
	assert.NotContains(t, requests[0], "functionDeclarations")
}

func TestGenerate_ToolRoundTrip(t *testing.T) {
	stub := &geminiStub{replies: []reply{
		{http.StatusOK, callResponse},
		{http.StatusOK, textResponse},
	}}
	m := newTestModel(t, stub)
	tool := &countingTool{}

	res, err := m.Generate(context.Background(), llm.Request{Prompt: "What is said at the end?", Tools: []llm.Tool{tool}})
	require.NoError(t, err)
	assert.Equal(t, "A short answer.", res.Text)
	assert.Equal(t, 1, tool.invocations)
	assert.Equal(t, 22, res.Usage.InputTokens)
	assert.Equal(t, 5, res.Usage.OutputTokens)

	requests := stub.calls()
	require.Len(t, requests, 2)
	assert.Contains(t, requests[0], "functionDeclarations")
	assert.Contains(t, requests[1], "functionResponse")
	assert.Contains(t, requests[1], "the full transcript")
	assert.Contains(t, requests[1], "NONE")
}

func TestGenerate_UnknownToolIsReported(t *testing.T) {
	stub := &geminiStub{replies: []reply{
		{http.StatusOK, callResponse},
		{http.StatusOK, textResponse},
	}}
	m := newTestModel(t, stub)

	_, err := m.Generate(context.Background(), llm.Request{Prompt: "q", Tools: []llm.Tool{}})
	require.NoError(t, err)
	requests := stub.calls()
	require.Len(t, requests, 2)
	assert.True(t, strings.Contains(requests[1], "is not available"))
}

func TestGenerateContent_RetriesServerErrors(t *testing.T) {
	stub := &geminiStub{replies: []reply{
		{http.StatusInternalServerError, serverError},
		{http.StatusOK, textResponse},
	}}
	m := newTestModel(t, stub)

	res, err := m.Generate(context.Background(), llm.Request{Prompt: "q"})
	require.NoError(t, err)
	assert.Equal(t, "A short answer.", res.Text)
	assert.GreaterOrEqual(t, len(stub.calls()), 2)
}

func TestGenerateContent_DoesNotRetryClientErrors(t *testing.T) {
	stub := &geminiStub{replies: []reply{{http.StatusBadRequest, badRequest}}}
	m := newTestModel(t, stub)

	_, err := m.Generate(context.Background(), llm.Request{Prompt: "q"})
	require.Error(t, err)
	assert.Len(t, stub.calls(), 1)
}

func TestGenerateContent_GivesUpAfterMaxRetries(t *testing.T) {
	stub := &geminiStub{replies: []reply{{http.StatusInternalServerError, serverError}}}
	m := newTestModel(t, stub)

	_, err := m.Generate(context.Background(), llm.Request{Prompt: "q"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "gemini-2.5-flash-lite")
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{
			{Text: "thinking", Thought: true},
			{Text: " Hello "},
			{Text: "world "},
		}},
	}}}
	assert.Equal(t, "Hello world", ResponseText(resp))
	assert.Empty(t, ResponseText(nil))
	assert.Empty(t, ResponseText(&genai.GenerateContentResponse{}))
}
