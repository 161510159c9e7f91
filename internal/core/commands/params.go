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

// Package commands contains the steps of the asynchronous summary workflow.
// Each step is a cor.Command; they share state through the context keys
// declared here.
package commands

import (
	"github.com/google/uuid"

	"github.com/jaycherian/gcp-go-video-chat/internal/cloud"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/model"
)

// Context keys of the summary workflow.
const (
	ParamRequest = "__SUMMARY_REQUEST__" // *cloud.SummaryRequestMessage
	ParamOutcome = "__ACQUISITION__"     // *model.AcquisitionOutcome
	ParamSummary = "__SUMMARY__"         // *model.Summary
	ParamEvent   = "__SUMMARY_EVENT__"   // *cloud.SummaryCompletedEvent
)

// SessionID returns the session of a request, defaulting to the video id.
// When metadata failed it falls back to a name based UUID of the URL so the
// completion event can still be correlated.
func SessionID(req *cloud.SummaryRequestMessage, outcome *model.AcquisitionOutcome) string {
	if req != nil && req.SessionID != "" {
		return req.SessionID
	}
	if outcome != nil {
		if video, ok := outcome.Video(); ok {
			return video.VideoID
		}
	}
	if req != nil && req.VideoURL != "" {
		return uuid.NewSHA1(uuid.NameSpaceURL, []byte(req.VideoURL)).String()
	}
	return ""
}

func request(context cor.Context) *cloud.SummaryRequestMessage {
	req, _ := cor.Value[*cloud.SummaryRequestMessage](context, ParamRequest)
	return req
}

func outcome(context cor.Context) *model.AcquisitionOutcome {
	out, _ := cor.Value[*model.AcquisitionOutcome](context, ParamOutcome)
	return out
}

func summary(context cor.Context) *model.Summary {
	s, _ := cor.Value[*model.Summary](context, ParamSummary)
	return s
}
