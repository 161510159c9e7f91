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

package cloud

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadConfig_RuntimeOverridesBase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env.toml"), `
[application]
name = "video-chat-agent"
agent_model = "summary"

[server]
port = 9000

[youtube]
preferred_languages = ["en", "fr"]

[agent_models.summary]
model = "gemini-2.5-flash-lite"
temperature = 0.0
rate_limit = 5
`)
	writeFile(t, filepath.Join(dir, ".env.local.toml"), `
[server]
port = 9100

[session_store]
backend = "memory"
`)
	t.Setenv(EnvConfigFilePrefix, dir)
	t.Setenv(EnvConfigRuntime, "local")

	config := NewConfig()
	require.NoError(t, LoadConfig(config))

	assert.Equal(t, 9100, config.Server.Port)
	assert.Equal(t, "X-Internal-API-Key", config.Server.APIKeyHeader)
	assert.Equal(t, []string{"en", "fr"}, config.YouTube.PreferredLanguages)
	assert.Equal(t, StoreBackendMemory, config.SessionStore.Backend)
	require.Contains(t, config.AgentModels, "summary")
	assert.Equal(t, "gemini-2.5-flash-lite", config.AgentModels["summary"].Model)
	assert.Equal(t, 5, config.AgentModels["summary"].RateLimit)
}

func TestLoadConfig_MissingFilesKeepDefaults(t *testing.T) {
	t.Setenv(EnvConfigFilePrefix, t.TempDir())
	t.Setenv(EnvConfigRuntime, "")

	config := NewConfig()
	require.NoError(t, LoadConfig(config))
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, StoreBackendRedis, config.SessionStore.Backend)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env.toml"), "[server\nport = ")
	t.Setenv(EnvConfigFilePrefix, dir)

	err := LoadConfig(NewConfig())
	assert.ErrorContains(t, err, "failed to decode base configuration file")
}

func TestConfigFiles(t *testing.T) {
	t.Setenv(EnvConfigFilePrefix, "configs")
	t.Setenv(EnvConfigRuntime, "prod")

	base, runtime := ConfigFiles()
	assert.Equal(t, filepath.Join("configs", ".env.toml"), base)
	assert.Equal(t, filepath.Join("configs", ".env.prod.toml"), runtime)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvAPIKey, "secret")
	t.Setenv(EnvGoogleAPIKey, "gemini-key")
	t.Setenv(EnvRedisURL, "redis://cache:6379/2")
	t.Setenv(EnvPort, "7070")

	config := NewConfig()
	ApplyEnvOverrides(config)
	assert.Equal(t, "secret", config.Server.APIKey)
	assert.Equal(t, "gemini-key", config.Application.GoogleAPIKey)
	assert.Equal(t, "redis://cache:6379/2", config.SessionStore.RedisURL)
	assert.Equal(t, 7070, config.Server.Port)
}

func TestApplyEnvOverrides_IgnoresBadPort(t *testing.T) {
	t.Setenv(EnvPort, "http")
	config := NewConfig()
	ApplyEnvOverrides(config)
	assert.Equal(t, 8080, config.Server.Port)
}

func TestContentConfig(t *testing.T) {
	c := ContentConfig(GenAIModel{Model: "m", Temperature: 0, MaxTokens: 512})
	require.NotNil(t, c.Temperature)
	assert.Equal(t, float32(0), *c.Temperature)
	assert.Nil(t, c.TopP)
	assert.Nil(t, c.TopK)
	assert.Equal(t, int32(512), c.MaxOutputTokens)
	assert.Equal(t, DefaultSafetySettings, c.SafetySettings)
}

func TestNewAgentModels_MaxRetries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env.toml"), `
[agent_models.default]
model = "gemini-2.5-flash-lite"

[agent_models.no-retry]
model = "gemini-2.5-flash-lite"
max_retries = 0

[agent_models.patient]
model = "gemini-2.5-flash-lite"
max_retries = 7
`)
	t.Setenv(EnvConfigFilePrefix, dir)
	t.Setenv(EnvConfigRuntime, "none")

	config := NewConfig()
	require.NoError(t, LoadConfig(config))

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: "test-key", Backend: genai.BackendGeminiAPI})
	require.NoError(t, err)

	models := NewAgentModels(client, config)
	require.Len(t, models, 3)
	assert.Equal(t, DefaultMaxRetries, models["default"].MaxRetries)
	assert.Equal(t, 0, models["no-retry"].MaxRetries)
	assert.Equal(t, 7, models["patient"].MaxRetries)
}
