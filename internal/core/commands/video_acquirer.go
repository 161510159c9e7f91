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
	"log/slog"

	"github.com/jaycherian/gcp-go-video-chat/internal/cloud"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/model"
)

// Acquirer resolves a video URL into metadata and transcript.
type Acquirer interface {
	Acquire(ctx context.Context, url string) *model.AcquisitionOutcome
}

// VideoAcquirer runs the acquisition pipeline for the request's URL. It never
// records an error: acquisition failures are part of the outcome.
type VideoAcquirer struct {
	cor.BaseCommand
	pipeline Acquirer
}

// NewVideoAcquirer creates the acquisition step.
func NewVideoAcquirer(name string, pipeline Acquirer) *VideoAcquirer {
	return &VideoAcquirer{BaseCommand: *cor.NewBaseCommand(name), pipeline: pipeline}
}

// Execute stores the acquisition outcome; it never fails the chain.
func (c *VideoAcquirer) Execute(context cor.Context) {
	req, _ := cor.Value[*cloud.SummaryRequestMessage](context, c.GetInputParam())
	if req == nil {
		req = request(context)
	}

	out := c.pipeline.Acquire(context.GetContext(), req.VideoURL)
	if msg := out.MetadataError(); msg != "" {
		slog.WarnContext(context.GetContext(), "video could not be acquired", "url", req.VideoURL, "reason", msg)
	}

	context.Add(ParamOutcome, out)
	context.Add(c.GetOutputParam(), out)
	c.Succeed(context)
}
