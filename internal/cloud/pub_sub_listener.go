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
// This file contains the PubSubListener, which pulls messages from a
// subscription and hands each one to a Chain of Responsibility command.
package cloud

import (
	"context"
	"log/slog"
	"time"

	"cloud.google.com/go/pubsub"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jaycherian/gcp-go-video-chat/internal/core/cor"
)

// PubSubListener executes a command for every message of a subscription.
// A message is acked when the chain finishes without errors and nacked
// otherwise, so Pub/Sub redelivers it following the subscription's retry
// policy.
type PubSubListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	command      cor.Command
	timeout      time.Duration
}

// NewPubSubListener creates a listener for subscriptionID. The command may be
// attached later with SetCommand.
func NewPubSubListener(pubsubClient *pubsub.Client, subscriptionID string, command cor.Command) *PubSubListener {
	return &PubSubListener{
		client:       pubsubClient,
		subscription: pubsubClient.Subscription(subscriptionID),
		command:      command,
	}
}

// SetCommand attaches the command once; later calls are ignored.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// SetTimeout bounds the processing of a single message. Zero means no bound.
func (m *PubSubListener) SetTimeout(timeout time.Duration) {
	m.timeout = timeout
}

// Listen starts receiving in a background goroutine until ctx is canceled.
func (m *PubSubListener) Listen(ctx context.Context) {
	slog.Info("listening", "subscription", m.subscription.ID())

	go func() {
		tracer := otel.Tracer("message-listener")
		err := m.subscription.Receive(ctx, func(msgCtx context.Context, msg *pubsub.Message) {
			spanCtx, span := tracer.Start(msgCtx, "receive-message")
			defer span.End()
			span.SetAttributes(
				attribute.String("subscription", m.subscription.ID()),
				attribute.String("message_id", msg.ID),
			)
			if m.timeout > 0 {
				var cancel context.CancelFunc
				spanCtx, cancel = context.WithTimeout(spanCtx, m.timeout)
				defer cancel()
			}

			if m.Handle(spanCtx, msg.Data) {
				span.SetStatus(codes.Ok, "success")
				msg.Ack()
				return
			}
			span.SetStatus(codes.Error, "failed")
			msg.Nack()
		})
		if err != nil {
			slog.Error("error receiving data", "subscription", m.subscription.ID(), "error", err)
		}
	}()
}

// Handle runs the command over one message payload and reports whether the
// chain completed without errors.
func (m *PubSubListener) Handle(ctx context.Context, data []byte) bool {
	if m.command == nil {
		slog.ErrorContext(ctx, "no command attached to listener", "subscription", m.subscription.ID())
		return false
	}
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	chainCtx.Add(cor.CtxIn, string(data))

	m.command.Execute(chainCtx)

	if chainCtx.HasErrors() {
		for key, e := range chainCtx.GetErrors() {
			slog.ErrorContext(ctx, "error executing chain", "step", key, "error", e)
		}
		return false
	}
	return true
}
