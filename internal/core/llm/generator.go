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

// Package llm declares the text generation capability the orchestrators depend
// on. Implementations live at the edge of the application (see the cloud
// package); tests substitute fakes.
package llm

import (
	"context"

	"github.com/jaycherian/gcp-go-video-chat/internal/core/model"
)

// Tool is a capability the model may call while producing a response. Invoke
// never fails: problems are reported to the model as the returned text.
type Tool interface {
	Name() string
	Description() string
	Invoke(ctx context.Context) string
}

// Request is a single generation call.
type Request struct {
	SystemInstructions string
	Prompt             string
	Tools              []Tool
}

// Result is the text produced by one generation call along with the usage of
// every model round trip the call needed.
type Result struct {
	Text  string
	Usage model.UsageMetrics
}

// Generator produces text from instructions and a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// FindTool returns the tool registered under name.
func FindTool(tools []Tool, name string) (Tool, bool) {
	for _, t := range tools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}
