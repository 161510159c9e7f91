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
	"log/slog"

	"github.com/jaycherian/gcp-go-video-chat/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/services"
)

// UsageLedgerWriter appends the usage of a generated summary to the ledger.
// Ledger failures are logged and counted but do not fail the workflow, so a
// message is not summarized again because of them.
type UsageLedgerWriter struct {
	cor.BaseCommand
	recorder services.UsageRecorder
}

// NewUsageLedgerWriter creates the usage step.
func NewUsageLedgerWriter(name string, recorder services.UsageRecorder) *UsageLedgerWriter {
	return &UsageLedgerWriter{BaseCommand: *cor.NewBaseCommand(name), recorder: recorder}
}

func (c *UsageLedgerWriter) IsExecutable(context cor.Context) bool {
	return c.recorder != nil && context != nil && context.GetContext() != nil && summary(context) != nil
}

// Execute records the summary usage; failures are only logged.
func (c *UsageLedgerWriter) Execute(context cor.Context) {
	out := outcome(context)
	videoID := ""
	if video, ok := out.Video(); ok {
		videoID = video.VideoID
	}
	rec := services.NewUsageRecord(SessionID(request(context), out), services.OperationSummary, videoID, summary(context).Usage, false)

	if err := c.recorder.Record(context.GetContext(), rec); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		slog.WarnContext(context.GetContext(), "failed to record usage", "session_id", rec.SessionID, "error", err)
		return
	}
	c.Succeed(context)
}
