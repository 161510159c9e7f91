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
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-video-chat/internal/cloud"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/cor"
)

// Publisher sends an event to the completion topic.
type Publisher interface {
	Publish(ctx context.Context, event any) (string, error)
}

// SummaryEventPublisher builds the completion event of a request and
// publishes it. Without a publisher the event is only left in the context.
type SummaryEventPublisher struct {
	cor.BaseCommand
	publisher Publisher
}

// NewSummaryEventPublisher creates the step that publishes the completion event.
func NewSummaryEventPublisher(name string, publisher Publisher) *SummaryEventPublisher {
	return &SummaryEventPublisher{BaseCommand: *cor.NewBaseCommand(name), publisher: publisher}
}

func (c *SummaryEventPublisher) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil && request(context) != nil && outcome(context) != nil
}

// Execute builds the event and publishes it.
func (c *SummaryEventPublisher) Execute(context cor.Context) {
	event := BuildSummaryEvent(context)
	context.Add(ParamEvent, event)

	if c.publisher != nil {
		id, err := c.publisher.Publish(context.GetContext(), event)
		if err != nil {
			c.Fail(context, fmt.Errorf("failed to publish summary event: %w", err))
			return
		}
		slog.InfoContext(context.GetContext(), "summary event published", "session_id", event.SessionID, "message_id", id)
	}

	context.Add(c.GetOutputParam(), event)
	c.Succeed(context)
}

// BuildSummaryEvent assembles the completion event from the workflow state.
func BuildSummaryEvent(context cor.Context) *cloud.SummaryCompletedEvent {
	req := request(context)
	out := outcome(context)

	event := &cloud.SummaryCompletedEvent{
		SessionID:       SessionID(req, out),
		VideoURL:        req.VideoURL,
		MetadataError:   out.MetadataError(),
		TranscriptError: out.TranscriptError(),
	}
	if video, ok := out.Video(); ok {
		event.VideoID = video.VideoID
		event.Title = video.Title
	}
	if _, ok := out.TranscriptRecord(); ok {
		event.TranscriptAvailable = true
	}
	if s := summary(context); s != nil {
		event.Summary = s.Text
		event.ModelIdentifier = s.Usage.ModelIdentifier
		event.InputTokens = s.Usage.InputTokens
		event.OutputTokens = s.Usage.OutputTokens
	}
	return event
}
