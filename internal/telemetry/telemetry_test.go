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

package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/jaycherian/gcp-go-video-chat/internal/cloud"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewLogger_CloudLoggingFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info")

	logger.Warn("low disk", "free", 3)

	entry := decodeLine(t, &buf)
	assert.Equal(t, "WARNING", entry["severity"])
	assert.Equal(t, "low disk", entry["message"])
	assert.Contains(t, entry, "timestamp")
	assert.NotContains(t, entry, "level")
	assert.NotContains(t, entry, "msg")
	assert.EqualValues(t, 3, entry["free"])
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Error("kept")
	entry := decodeLine(t, &buf)
	assert.Equal(t, "ERROR", entry["severity"])
}

func TestNewLogger_SpanContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "debug").With("component", "test")

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	logger.InfoContext(ctx, "traced")

	entry := decodeLine(t, &buf)
	assert.Equal(t, span.SpanContext().TraceID().String(), entry["logging.googleapis.com/trace"])
	assert.Equal(t, span.SpanContext().SpanID().String(), entry["logging.googleapis.com/spanId"])
	assert.Equal(t, true, entry["logging.googleapis.com/trace_sampled"])
	assert.Equal(t, "test", entry["component"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestSetupOpenTelemetry_WithoutProject(t *testing.T) {
	config := cloud.NewConfig()
	shutdown, err := SetupOpenTelemetry(context.Background(), config)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.NoError(t, shutdown(context.Background()))
}
