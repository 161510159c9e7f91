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

package commands

import (
	"context"

	"github.com/jaycherian/gcp-go-video-chat/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/model"
)

// Summarizer turns a transcript into a summary.
type Summarizer interface {
	Summarize(ctx context.Context, transcriptText, instruction string) (*model.Summary, error)
}

// TranscriptSummarizer summarizes the acquired transcript. It only runs when
// a transcript was resolved.
type TranscriptSummarizer struct {
	cor.BaseCommand
	summarizer Summarizer
}

// NewTranscriptSummarizer creates the summary step.
func NewTranscriptSummarizer(name string, summarizer Summarizer) *TranscriptSummarizer {
	return &TranscriptSummarizer{BaseCommand: *cor.NewBaseCommand(name), summarizer: summarizer}
}

func (c *TranscriptSummarizer) IsExecutable(context cor.Context) bool {
	out := outcome(context)
	if out == nil || context.GetContext() == nil {
		return false
	}
	_, ok := out.TranscriptRecord()
	return ok
}

// Execute summarizes the acquired transcript.
func (c *TranscriptSummarizer) Execute(context cor.Context) {
	record, _ := outcome(context).TranscriptRecord()
	instruction := ""
	if req := request(context); req != nil {
		instruction = req.SummaryInstruction
	}

	s, err := c.summarizer.Summarize(context.GetContext(), record.Text, instruction)
	if err != nil {
		c.Fail(context, err)
		return
	}

	context.Add(ParamSummary, s)
	context.Add(c.GetOutputParam(), s)
	c.Succeed(context)
}
