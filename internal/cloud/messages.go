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
// This file defines the asynchronous summary messages exchanged over Pub/Sub
// and the publisher of completion events.
package cloud

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
)

// SummaryRequestMessage is the payload of the SummaryRequests subscription.
type SummaryRequestMessage struct {
	VideoURL           string `json:"video_url"`
	SummaryInstruction string `json:"summary_instruction,omitempty"`
	SessionID          string `json:"session_id,omitempty"`
}

// SummaryCompletedEvent is published once a summary request has been handled.
// Acquisition failures are reported here instead of being retried.
type SummaryCompletedEvent struct {
	SessionID           string `json:"session_id"`
	VideoURL            string `json:"video_url"`
	VideoID             string `json:"video_id,omitempty"`
	Title               string `json:"title,omitempty"`
	Summary             string `json:"summary,omitempty"`
	TranscriptAvailable bool   `json:"transcript_available"`
	MetadataError       string `json:"metadata_error,omitempty"`
	TranscriptError     string `json:"transcript_error,omitempty"`
	ModelIdentifier     string `json:"model_identifier,omitempty"`
	InputTokens         int    `json:"input_tokens"`
	OutputTokens        int    `json:"output_tokens"`
}

// EventPublisher sends JSON events to a Pub/Sub topic.
type EventPublisher struct {
	topic *pubsub.Topic
}

// NewEventPublisher creates a publisher for topicID.
func NewEventPublisher(client *pubsub.Client, topicID string) *EventPublisher {
	return &EventPublisher{topic: client.Topic(topicID)}
}

// Publish encodes event as JSON and waits for the server to accept it.
func (p *EventPublisher) Publish(ctx context.Context, event any) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("encode event: %w", err)
	}
	id, err := p.topic.Publish(ctx, &pubsub.Message{Data: data}).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", p.topic.ID(), err)
	}
	return id, nil
}

// Stop flushes pending messages.
func (p *EventPublisher) Stop() {
	p.topic.Stop()
}
