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

// Package test provides helpers and fakes shared by the test suites: a cached
// test configuration, a scripted generation capability and scripted resolvers.
package test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/jaycherian/gcp-go-video-chat/internal/cloud"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/llm"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/model"
)

// StateManager caches the test configuration.
type StateManager struct {
	once   sync.Once
	config *cloud.Config
}

var state = &StateManager{}

// SetupOS points the configuration loader at the test configuration files.
func SetupOS() (err error) {
	if err = os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
		return err
	}
	return os.Setenv(cloud.EnvConfigRuntime, "test")
}

// GetConfig loads the test configuration once and returns it. Tests run from
// their package directory, so missing files leave the defaults in place.
func GetConfig() *cloud.Config {
	state.once.Do(func() {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			log.Fatalf("failed to load test configuration: %v\n", err)
		}
		config.SessionStore.Backend = cloud.StoreBackendMemory
		state.config = config
	})
	return state.config
}

// FakeGenerator is a scripted llm.Generator. When CallTool is set and the
// request offers that tool, the tool is invoked before answering and its
// output is kept in ToolOutputs.
type FakeGenerator struct {
	Text     string
	Err      error
	Model    string
	CallTool string
	// ToolCalls is how many times CallTool is invoked per request.
	ToolCalls int

	mu          sync.Mutex
	Requests    []llm.Request
	ToolOutputs []string
}

// Generate records req and answers with the scripted text or error.
func (f *FakeGenerator) Generate(ctx context.Context, req llm.Request) (*llm.Result, error) {
	f.mu.Lock()
	f.Requests = append(f.Requests, req)
	f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	if f.CallTool != "" {
		if tool, ok := llm.FindTool(req.Tools, f.CallTool); ok {
			calls := f.ToolCalls
			if calls == 0 {
				calls = 1
			}
			for i := 0; i < calls; i++ {
				out := tool.Invoke(ctx)
				f.mu.Lock()
				f.ToolOutputs = append(f.ToolOutputs, out)
				f.mu.Unlock()
			}
		}
	}
	modelName := f.Model
	if modelName == "" {
		modelName = "fake-model"
	}
	return &llm.Result{
		Text:  f.Text,
		Usage: model.UsageMetrics{ModelIdentifier: modelName, InputTokens: 100, OutputTokens: 20},
	}, nil
}

// LastRequest returns the most recent request.
func (f *FakeGenerator) LastRequest() llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Requests) == 0 {
		return llm.Request{}
	}
	return f.Requests[len(f.Requests)-1]
}

// FakeMetadataResolver returns Video or Err, or panics with Panic.
type FakeMetadataResolver struct {
	Video *model.VideoIdentity
	Err   error
	Panic any
	Calls int
}

// Resolve returns the scripted video.
func (f *FakeMetadataResolver) Resolve(_ context.Context, url string) (*model.VideoIdentity, error) {
	f.Calls++
	if f.Panic != nil {
		panic(f.Panic)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Video == nil {
		return nil, errors.New("no video scripted for " + url)
	}
	v := *f.Video
	return &v, nil
}

// FakeTranscriptResolver returns Record or Err and remembers its arguments.
type FakeTranscriptResolver struct {
	Record    *model.TranscriptRecord
	Err       error
	Panic     any
	Calls     int
	VideoID   string
	Preferred []string
}

// ResolveVideo returns the scripted transcript.
func (f *FakeTranscriptResolver) ResolveVideo(_ context.Context, videoID string, preferred []string) (*model.TranscriptRecord, error) {
	f.Calls++
	f.VideoID = videoID
	f.Preferred = preferred
	if f.Panic != nil {
		panic(f.Panic)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Record == nil {
		return nil, fmt.Errorf("no transcript scripted for %s", videoID)
	}
	r := *f.Record
	return &r, nil
}

// SampleVideo returns the identity used across tests.
func SampleVideo() *model.VideoIdentity {
	return &model.VideoIdentity{
		VideoID:         "dQw4w9WgXcQ",
		Title:           "Never Gonna Give You Up",
		Uploader:        "Rick Astley",
		UploadDate:      "20091025",
		DurationSeconds: 213,
		ViewCount:       1600000000,
		CanonicalURL:    "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	}
}

// SampleTranscript returns the transcript used across tests.
func SampleTranscript() *model.TranscriptRecord {
	return &model.TranscriptRecord{
		Language:     "English",
		LanguageCode: "en",
		Text:         "We're no strangers to love. You know the rules and so do I.",
	}
}
