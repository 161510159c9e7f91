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

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"text/template"

	"github.com/jaycherian/gcp-go-video-chat/internal/core/llm"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/model"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/store"
)

// FullTranscriptToolName is the name the model uses to call the full
// transcript tool.
const FullTranscriptToolName = "fetch_full_transcript"

// ErrEmptyQuestion is returned for a chat turn without a question.
var ErrEmptyQuestion = errors.New("question is empty")

// ChatGenerationFailedError reports that the generation capability failed to
// answer a chat turn.
type ChatGenerationFailedError struct {
	Cause error
}

func (e *ChatGenerationFailedError) Error() string {
	return "chat generation failed: " + e.Cause.Error()
}

func (e *ChatGenerationFailedError) Unwrap() error {
	return e.Cause
}

// FullTranscriptTool gives the model the complete transcript of one session.
// Only the first invocation of a turn reads the store; later invocations get a
// fixed reply. Store problems are reported as text, never as errors.
type FullTranscriptTool struct {
	store     store.SessionContextStore
	sessionID string

	mu      sync.Mutex
	invoked bool
}

// NewFullTranscriptTool binds the tool to sessionID for a single chat turn.
func NewFullTranscriptTool(sessions store.SessionContextStore, sessionID string) *FullTranscriptTool {
	return &FullTranscriptTool{store: sessions, sessionID: sessionID}
}

// Name is the function name declared to the model.
func (t *FullTranscriptTool) Name() string {
	return FullTranscriptToolName
}

// Description tells the model when to fetch the full transcript.
func (t *FullTranscriptTool) Description() string {
	return "Returns the complete transcript of the video being discussed. " +
		"Call it only when the user asks for a summary, a new summary or a rewrite of the video."
}

// Invoked reports whether the store was read during this turn.
func (t *FullTranscriptTool) Invoked() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.invoked
}

// Invoke loads the stored transcript of the session. Only the first call of
// a turn reads the store; later calls and store failures return a message
// for the model instead of an error.
func (t *FullTranscriptTool) Invoke(ctx context.Context) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.invoked {
		return "The full transcript was already provided earlier in this turn. Use it to answer."
	}
	t.invoked = true

	if t.store == nil {
		return fmt.Sprintf("No transcript is stored for session %q, so the video cannot be summarized again.", t.sessionID)
	}
	session, err := store.LoadSession(ctx, t.store, t.sessionID)
	switch {
	case errors.Is(err, store.ErrSessionNotFound):
		slog.InfoContext(ctx, "no stored transcript for escalation", "session_id", t.sessionID)
		return fmt.Sprintf("No transcript is stored for session %q, so the video cannot be summarized again. "+
			"The user should request a new summary of the video first.", t.sessionID)
	case errors.Is(err, store.ErrMalformedSession):
		slog.WarnContext(ctx, "malformed session context", "session_id", t.sessionID, "error", err)
		return fmt.Sprintf("The stored transcript for session %q could not be read, so the video cannot be summarized again.", t.sessionID)
	case err != nil:
		slog.ErrorContext(ctx, "session store read failed", "session_id", t.sessionID, "error", err)
		return fmt.Sprintf("The stored transcript for session %q is temporarily unavailable, so the video cannot be summarized again.", t.sessionID)
	}

	var sb strings.Builder
	if session.Title != "" {
		sb.WriteString("Video title: ")
		sb.WriteString(session.Title)
		sb.WriteString("\n\n")
	}
	sb.WriteString(session.Transcript)
	return sb.String()
}

type chatSystemData struct {
	ToolName string
}

type chatPromptData struct {
	Question  string
	Excerpts  []string
	History   []model.ChatTurn
	SessionID string
}

// ChatOrchestrator answers chat turns. Both strategies are offered to the
// model in a single generation call: it answers directly from the excerpts,
// or it calls the full transcript tool when asked to summarize again.
type ChatOrchestrator struct {
	generator llm.Generator
	store     store.SessionContextStore
	system    *template.Template
	prompt    *template.Template
}

// NewChatOrchestrator parses the chat templates of prompts.
func NewChatOrchestrator(generator llm.Generator, sessions store.SessionContextStore, prompts Prompts) (*ChatOrchestrator, error) {
	system, err := parseTemplate("chat_system", prompts.ChatSystem)
	if err != nil {
		return nil, err
	}
	prompt, err := parseTemplate("chat", prompts.Chat)
	if err != nil {
		return nil, err
	}
	return &ChatOrchestrator{generator: generator, store: sessions, system: system, prompt: prompt}, nil
}

// Answer renders the turn and makes one generation call with the full
// transcript tool bound to the turn's session.
func (c *ChatOrchestrator) Answer(ctx context.Context, req model.ChatTurnRequest) (*model.Answer, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, ErrEmptyQuestion
	}
	system, err := render(c.system, chatSystemData{ToolName: FullTranscriptToolName})
	if err != nil {
		return nil, err
	}
	prompt, err := render(c.prompt, chatPromptData{
		Question:  strings.TrimSpace(req.Question),
		Excerpts:  nonEmpty(req.RelevantExcerpts),
		History:   req.RecentHistory,
		SessionID: req.SessionID,
	})
	if err != nil {
		return nil, err
	}

	tool := NewFullTranscriptTool(c.store, req.SessionID)
	res, err := c.generator.Generate(ctx, llm.Request{
		SystemInstructions: system,
		Prompt:             prompt,
		Tools:              []llm.Tool{tool},
	})
	if err != nil {
		return nil, &ChatGenerationFailedError{Cause: err}
	}
	return &model.Answer{
		Text:      strings.TrimSpace(res.Text),
		Usage:     res.Usage,
		Escalated: tool.Invoked(),
	}, nil
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
