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

// Package workflow assembles the commands of the asynchronous summary flow
// into a chain that a Pub/Sub listener executes for every request message.
package workflow

import (
	"github.com/jaycherian/gcp-go-video-chat/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/services"
)

// SummaryService summarizes transcripts and records the resulting sessions.
// *services.SummaryOrchestrator implements it.
type SummaryService interface {
	commands.Summarizer
	commands.SessionRecorder
}

// SummaryWorkflow handles one summary request message:
//
//	decode -> acquire -> summarize -> save session -> record usage -> publish event
//
// Acquisition failures do not fail the chain; they are reported in the
// published event so the message is acked. Summary, store and publish
// failures fail the chain and the message is redelivered.
type SummaryWorkflow struct {
	cor.BaseCommand
	acquirer  commands.Acquirer
	summaries SummaryService
	usage     services.UsageRecorder
	publisher commands.Publisher
	chain     cor.Chain
}

// NewSummaryWorkflow builds the chain. usage and publisher may be nil.
func NewSummaryWorkflow(
	acquirer commands.Acquirer,
	summaries SummaryService,
	usage services.UsageRecorder,
	publisher commands.Publisher) *SummaryWorkflow {

	w := &SummaryWorkflow{
		BaseCommand: *cor.NewBaseCommand("summary-workflow"),
		acquirer:    acquirer,
		summaries:   summaries,
		usage:       usage,
		publisher:   publisher,
	}
	w.initializeChain()
	return w
}

func (w *SummaryWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())
	out.AddCommand(commands.NewSummaryRequestReader("summary-request-reader"))
	out.AddCommand(commands.NewVideoAcquirer("acquire-video", w.acquirer))
	out.AddCommand(commands.NewTranscriptSummarizer("summarize-transcript", w.summaries))
	out.AddCommand(commands.NewSessionContextPersister("persist-session-context", w.summaries))
	if w.usage != nil {
		out.AddCommand(commands.NewUsageLedgerWriter("record-usage", w.usage))
	}
	out.AddCommand(commands.NewSummaryEventPublisher("publish-summary-event", w.publisher))
	w.chain = out
}

// IsExecutable delegates to the chain.
func (w *SummaryWorkflow) IsExecutable(context cor.Context) bool {
	return w.chain.IsExecutable(context)
}

// Execute runs the chain on context.
func (w *SummaryWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}
