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

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/jaycherian/gcp-go-video-chat/internal/cloud"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/services"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/workflow"
)

// Logical names of the Pub/Sub resources in the config.
const (
	SummaryRequestsSubscription = "SummaryRequests"
	SummaryCompletedTopic       = "SummaryCompleted"
)

// SetupListeners attaches the summary workflow to the SummaryRequests
// subscription and starts it. Nothing happens when the subscription is not
// configured.
func SetupListeners(ctx context.Context, config *cloud.Config, cloudClients *cloud.ServiceClients) {
	listener, ok := cloudClients.PubSubListeners[SummaryRequestsSubscription]
	if !ok {
		slog.Info("no summary request subscription configured")
		return
	}

	var publisher commands.Publisher
	if topic := config.Topics[SummaryCompletedTopic]; topic != "" && cloudClients.PubsubClient != nil {
		events := cloud.NewEventPublisher(cloudClients.PubsubClient, topic)
		state.closers = append(state.closers, func() error {
			events.Stop()
			return nil
		})
		publisher = events
	}
	var usage services.UsageRecorder
	if state.usage != nil {
		usage = state.usage
	}

	summaryWorkflow := workflow.NewSummaryWorkflow(state.pipeline, state.summaries, usage, publisher)
	listener.SetCommand(summaryWorkflow)
	if sub := config.TopicSubscriptions[SummaryRequestsSubscription]; sub.TimeoutInSeconds > 0 {
		listener.SetTimeout(time.Duration(sub.TimeoutInSeconds) * time.Second)
	}
	listener.Listen(ctx)
}
