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

	"github.com/jaycherian/gcp-go-video-chat/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/model"
)

// SessionRecorder saves the context of a summarized session.
type SessionRecorder interface {
	Record(ctx context.Context, session *model.SessionContext) error
}

// SessionContextPersister writes the session context once a summary exists.
type SessionContextPersister struct {
	cor.BaseCommand
	recorder SessionRecorder
}

// NewSessionContextPersister creates the persistence step.
func NewSessionContextPersister(name string, recorder SessionRecorder) *SessionContextPersister {
	return &SessionContextPersister{BaseCommand: *cor.NewBaseCommand(name), recorder: recorder}
}

func (c *SessionContextPersister) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil && summary(context) != nil && outcome(context) != nil
}

// Execute saves the session context of the summary.
func (c *SessionContextPersister) Execute(context cor.Context) {
	out := outcome(context)
	video, _ := out.Video()
	record, _ := out.TranscriptRecord()
	s := summary(context)

	session := &model.SessionContext{
		SessionID:    SessionID(request(context), out),
		VideoID:      video.VideoID,
		Title:        video.Title,
		Transcript:   record.Text,
		Summary:      s.Text,
		LanguageCode: record.LanguageCode,
	}
	if err := c.recorder.Record(context.GetContext(), session); err != nil {
		c.Fail(context, fmt.Errorf("failed to save session %s: %w", session.SessionID, err))
		return
	}

	context.Add(c.GetOutputParam(), session)
	c.Succeed(context)
}
