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
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jaycherian/gcp-go-video-chat/internal/cloud"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/cor"
)

// SummaryRequestReader decodes the JSON payload of a summary request message.
type SummaryRequestReader struct {
	cor.BaseCommand
}

// NewSummaryRequestReader creates the decoding step.
func NewSummaryRequestReader(name string) *SummaryRequestReader {
	return &SummaryRequestReader{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute decodes the message payload into a SummaryRequestMessage.
func (c *SummaryRequestReader) Execute(context cor.Context) {
	in, ok := cor.Value[string](context, c.GetInputParam())
	if !ok {
		c.Fail(context, errors.New("summary request payload is not text"))
		return
	}

	var msg cloud.SummaryRequestMessage
	if err := json.Unmarshal([]byte(in), &msg); err != nil {
		c.Fail(context, fmt.Errorf("failed to unmarshal summary request: %w", err))
		return
	}
	msg.VideoURL = strings.TrimSpace(msg.VideoURL)
	if msg.VideoURL == "" {
		c.Fail(context, errors.New("summary request has no video_url"))
		return
	}

	context.Add(ParamRequest, &msg)
	context.Add(c.GetOutputParam(), &msg)
	c.Succeed(context)
}
