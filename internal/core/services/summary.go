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
	"regexp"
	"strings"
	"text/template"

	"github.com/jaycherian/gcp-go-video-chat/internal/core/llm"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/model"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/store"
)

// ErrEmptyTranscript is returned when there is nothing to summarize.
var ErrEmptyTranscript = errors.New("transcript is empty")

// SummaryGenerationFailedError reports that the generation capability failed
// to produce a summary.
type SummaryGenerationFailedError struct {
	Cause error
}

func (e *SummaryGenerationFailedError) Error() string {
	return "summary generation failed: " + e.Cause.Error()
}

func (e *SummaryGenerationFailedError) Unwrap() error {
	return e.Cause
}

var transcriptWord = regexp.MustCompile(`\b([Tt])ranscript(s?)\b`)

// PresentTranscriptAsVideo rewrites the English word "transcript" to "video",
// keeping the capitalization and plural of each occurrence.
func PresentTranscriptAsVideo(text string) string {
	return transcriptWord.ReplaceAllStringFunc(text, func(word string) string {
		replacement := "video"
		if word[0] == 'T' {
			replacement = "Video"
		}
		if strings.HasSuffix(word, "s") {
			replacement += "s"
		}
		return replacement
	})
}

type summaryPromptData struct {
	Transcript  string
	Instruction string
}

// SummaryOrchestrator turns a transcript into a summary and records the
// resulting session context.
type SummaryOrchestrator struct {
	generator llm.Generator
	store     store.SessionContextStore
	system    *template.Template
	prompt    *template.Template
}

// NewSummaryOrchestrator parses the summary templates of prompts.
func NewSummaryOrchestrator(generator llm.Generator, sessions store.SessionContextStore, prompts Prompts) (*SummaryOrchestrator, error) {
	system, err := parseTemplate("summary_system", prompts.SummarySystem)
	if err != nil {
		return nil, err
	}
	prompt, err := parseTemplate("summary", prompts.Summary)
	if err != nil {
		return nil, err
	}
	return &SummaryOrchestrator{generator: generator, store: sessions, system: system, prompt: prompt}, nil
}

// Summarize makes one generation call. A failure of that call is returned as
// a *SummaryGenerationFailedError and is not retried here.
func (s *SummaryOrchestrator) Summarize(ctx context.Context, transcriptText, instruction string) (*model.Summary, error) {
	if strings.TrimSpace(transcriptText) == "" {
		return nil, ErrEmptyTranscript
	}
	data := summaryPromptData{Transcript: transcriptText, Instruction: strings.TrimSpace(instruction)}
	system, err := render(s.system, data)
	if err != nil {
		return nil, err
	}
	prompt, err := render(s.prompt, data)
	if err != nil {
		return nil, err
	}

	res, err := s.generator.Generate(ctx, llm.Request{SystemInstructions: system, Prompt: prompt})
	if err != nil {
		return nil, &SummaryGenerationFailedError{Cause: err}
	}
	return &model.Summary{
		Text:  PresentTranscriptAsVideo(strings.TrimSpace(res.Text)),
		Usage: res.Usage,
	}, nil
}

// Record saves the session context of a generated summary. This is the only
// store write of a summary request.
func (s *SummaryOrchestrator) Record(ctx context.Context, session *model.SessionContext) error {
	return store.SaveSession(ctx, s.store, session)
}
