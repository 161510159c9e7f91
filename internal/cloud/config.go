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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files. It provides a structured way to manage settings
// for the HTTP server, the YouTube adapters, the session store, Google Cloud
// services, the generative models and the prompt templates.
//
// Structs:
//   - ServerConfig: Listen port, shared secret header and shutdown timeout.
//   - YouTubeConfig: Innertube client settings, caption language preference and yt-dlp path.
//   - SessionStoreConfig: Which session backend to use and how to reach it.
//   - BigQueryDataSource: Dataset and table of the generation usage ledger.
//   - PromptTemplates: Text templates for the summary and chat prompts.
//   - GenAIModel: Settings of one generative model.
//   - TopicSubscription: Configuration for a single Pub/Sub subscription.
//   - Config: The top-level struct that aggregates all other configuration structs.
package cloud

import "google.golang.org/genai"

// DefaultSafetySettings defines the default content safety thresholds for GenAI models.
// Transcripts are summarized as they are, so nothing is blocked.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// Session store backends.
const (
	StoreBackendRedis  = "redis"
	StoreBackendGCS    = "gcs"
	StoreBackendSQLite = "sqlite"
	StoreBackendMemory = "memory"
)

// GenAI backends.
const (
	GenAIBackendVertex = "vertex"
	GenAIBackendGemini = "gemini"
)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port                   int    `toml:"port"`                     // The TCP port to listen on.
	APIKeyHeader           string `toml:"api_key_header"`           // The header carrying the shared secret.
	APIKey                 string `toml:"api_key"`                  // The shared secret. Usually supplied through API_KEY.
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds"` // Grace period for in-flight requests on shutdown.
}

// YouTubeConfig holds the settings of the caption source and metadata resolver.
type YouTubeConfig struct {
	PlayerURL             string   `toml:"player_url"`              // Innertube player endpoint.
	ClientVersion         string   `toml:"client_version"`          // ANDROID client version sent to Innertube.
	UserAgent             string   `toml:"user_agent"`              // User agent for Innertube and timedtext requests.
	PreferredLanguages    []string `toml:"preferred_languages"`     // Caption languages in order of preference.
	RequestTimeoutSeconds int      `toml:"request_timeout_seconds"` // Timeout of a single HTTP request.
	MaxRetries            int      `toml:"max_retries"`             // Retries of transient HTTP failures.
	YtDlpPath             string   `toml:"yt_dlp_path"`             // Path of the yt-dlp executable.
}

// SessionStoreConfig selects and configures the session context backend.
type SessionStoreConfig struct {
	Backend    string `toml:"backend"`     // One of redis, gcs, sqlite, memory.
	RedisURL   string `toml:"redis_url"`   // redis://[:password@]host:port/db
	TTLHours   int    `toml:"ttl_hours"`   // Expiry of Redis keys; 0 keeps them forever.
	Bucket     string `toml:"bucket"`      // Bucket of the gcs backend.
	Prefix     string `toml:"prefix"`      // Object prefix of the gcs backend.
	SQLitePath string `toml:"sqlite_path"` // Database file of the sqlite backend.
}

// BigQueryDataSource represents the configuration for the usage ledger.
// An empty dataset disables the ledger.
type BigQueryDataSource struct {
	DatasetName string `toml:"dataset"`
	UsageTable  string `toml:"usage_table"`
}

// PromptTemplates holds the templates for the generation calls. Empty values
// fall back to the built in prompts.
type PromptTemplates struct {
	SummarySystem      string `toml:"summary_system"`
	Summary            string `toml:"summary"`
	ChatSystem         string `toml:"chat_system"`
	Chat               string `toml:"chat"`
	UnavailableSummary string `toml:"unavailable_summary"`
}

// GenAIModel represents the configuration for a generative model.
type GenAIModel struct {
	Model       string  `toml:"model"`       // The model name, e.g. "gemini-2.5-flash-lite".
	Temperature float32 `toml:"temperature"` // The temperature parameter.
	TopP        float32 `toml:"top_p"`       // The top_p parameter; 0 leaves the model default.
	TopK        float32 `toml:"top_k"`       // The top_k parameter; 0 leaves the model default.
	MaxTokens   int32   `toml:"max_tokens"`  // The maximum number of output tokens.
	RateLimit   int     `toml:"rate_limit"`  // Requests per second.
	MaxRetries  *int    `toml:"max_retries"` // Retries of a failed request; unset uses DefaultMaxRetries, 0 disables.
}

// TopicSubscription represents the configuration for a Pub/Sub topic subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`               // The name of the Pub/Sub subscription.
	DeadLetterTopic  string `toml:"dead_letter_topic"`  // The name of the dead-letter topic for the subscription.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // Processing budget of one message.
}

// Config represents the overall configuration for the application, loaded from TOML files.
type Config struct {
	Application struct {
		Name            string `toml:"name"`              // The service name reported to telemetry.
		GoogleProjectId string `toml:"google_project_id"` // The Google Cloud project ID.
		GoogleLocation  string `toml:"location"`          // The Google Cloud location.
		GenAIBackend    string `toml:"genai_backend"`     // "vertex" or "gemini".
		GoogleAPIKey    string `toml:"google_api_key"`    // Gemini API key. Usually supplied through GOOGLE_API_KEY.
		LogLevel        string `toml:"log_level"`         // debug, info, warn or error.
		AgentModel      string `toml:"agent_model"`       // Key into AgentModels used by the orchestrators.
	} `toml:"application"`
	Server             ServerConfig                 `toml:"server"`
	YouTube            YouTubeConfig                `toml:"youtube"`
	SessionStore       SessionStoreConfig           `toml:"session_store"`
	BigQueryDataSource BigQueryDataSource           `toml:"big_query_data_source"`
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"` // Keyed by a logical name (e.g., "SummaryRequests").
	Topics             map[string]string            `toml:"topics"`              // Topic ids keyed by a logical name (e.g., "SummaryCompleted").
	AgentModels        map[string]GenAIModel        `toml:"agent_models"`        // Keyed by a logical name (e.g., "summary-flash-lite").
}

// NewConfig creates a Config holding the defaults every deployment starts from.
// The maps are initialized so the TOML decoder can populate them.
func NewConfig() *Config {
	c := &Config{
		Server: ServerConfig{
			Port:                   8080,
			APIKeyHeader:           "X-Internal-API-Key",
			ShutdownTimeoutSeconds: 5,
		},
		YouTube: YouTubeConfig{
			PreferredLanguages:    []string{"en"},
			RequestTimeoutSeconds: 30,
			MaxRetries:            3,
			YtDlpPath:             "yt-dlp",
		},
		SessionStore: SessionStoreConfig{
			Backend:    StoreBackendRedis,
			RedisURL:   "redis://localhost:6379/0",
			SQLitePath: "sessions.db",
		},
		TopicSubscriptions: make(map[string]TopicSubscription),
		Topics:             make(map[string]string),
		AgentModels:        make(map[string]GenAIModel),
	}
	c.Application.Name = "video-chat-agent"
	c.Application.GenAIBackend = GenAIBackendVertex
	c.Application.LogLevel = "info"
	c.Application.AgentModel = "default"
	return c
}
