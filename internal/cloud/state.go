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
// This file holds the container of every external client the service needs.
// Clients are created only when the configuration asks for them, so a local
// run against the Gemini API and an in-memory store needs no Google Cloud
// credentials.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/redis/go-redis/v9"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-video-chat/internal/core/store"
)

// ServiceClients is a dependency container for the external clients.
type ServiceClients struct {
	StorageClient   *storage.Client                         // Client for Google Cloud Storage; set for the gcs session backend.
	PubsubClient    *pubsub.Client                          // Client for Google Cloud Pub/Sub; set when subscriptions or topics are configured.
	GenAIClient     *genai.Client                           // Client for the Generative AI service.
	BiqQueryClient  *bigquery.Client                        // Client for BigQuery; set when the usage ledger is configured.
	RedisClient     *redis.Client                           // Client for Redis; set for the redis session backend.
	PubSubListeners map[string]*PubSubListener              // Active Pub/Sub listeners, keyed by a logical name from the config.
	AgentModels     map[string]*QuotaAwareGenerativeAIModel // Configured agent models, keyed by a logical name.
}

// Close releases every client that was created.
func (c *ServiceClients) Close() error {
	var errs []error
	if c.StorageClient != nil {
		errs = append(errs, c.StorageClient.Close())
	}
	if c.PubsubClient != nil {
		errs = append(errs, c.PubsubClient.Close())
	}
	if c.BiqQueryClient != nil {
		errs = append(errs, c.BiqQueryClient.Close())
	}
	if c.RedisClient != nil {
		errs = append(errs, c.RedisClient.Close())
	}
	return errors.Join(errs...)
}

// AgentModel returns the model registered under name.
func (c *ServiceClients) AgentModel(name string) (*QuotaAwareGenerativeAIModel, error) {
	m, ok := c.AgentModels[name]
	if !ok {
		return nil, fmt.Errorf("agent model %q is not configured", name)
	}
	return m, nil
}

// GenAIClientConfig maps the application settings to a genai client
// configuration.
func GenAIClientConfig(config *Config) *genai.ClientConfig {
	if config.Application.GenAIBackend == GenAIBackendGemini {
		return &genai.ClientConfig{
			APIKey:  config.Application.GoogleAPIKey,
			Backend: genai.BackendGeminiAPI,
		}
	}
	return &genai.ClientConfig{
		Project:  config.Application.GoogleProjectId,
		Location: config.Application.GoogleLocation,
		Backend:  genai.BackendVertexAI,
	}
}

// ContentConfig builds the base generation configuration of a model.
func ContentConfig(values GenAIModel) *genai.GenerateContentConfig {
	c := &genai.GenerateContentConfig{
		Temperature:    genai.Ptr[float32](values.Temperature),
		SafetySettings: DefaultSafetySettings,
	}
	if values.TopP > 0 {
		c.TopP = genai.Ptr[float32](values.TopP)
	}
	if values.TopK > 0 {
		c.TopK = genai.Ptr[float32](values.TopK)
	}
	if values.MaxTokens > 0 {
		c.MaxOutputTokens = values.MaxTokens
	}
	return c
}

// NewAgentModels wraps every configured model around the given genai client.
func NewAgentModels(gc *genai.Client, config *Config) map[string]*QuotaAwareGenerativeAIModel {
	agentModels := make(map[string]*QuotaAwareGenerativeAIModel)
	for amKey, values := range config.AgentModels {
		maxRetries := -1
		if values.MaxRetries != nil {
			maxRetries = *values.MaxRetries
		}
		agentModels[amKey] = NewQuotaAwareModel(ContentConfig(values), values.Model, gc.Models, values.RateLimit, maxRetries)
	}
	return agentModels
}

// NewCloudServiceClients creates the clients required by config.
func NewCloudServiceClients(ctx context.Context, config *Config) (*ServiceClients, error) {
	cloud := &ServiceClients{PubSubListeners: make(map[string]*PubSubListener)}
	ok := false
	defer func() {
		if !ok {
			_ = cloud.Close()
		}
	}()

	gc, err := genai.NewClient(ctx, GenAIClientConfig(config))
	if err != nil {
		return nil, fmt.Errorf("error creating genai client: %w", err)
	}
	cloud.GenAIClient = gc
	cloud.AgentModels = NewAgentModels(gc, config)
	slog.Info("generative models configured",
		"backend", config.Application.GenAIBackend,
		"project", config.Application.GoogleProjectId,
		"location", config.Application.GoogleLocation,
		"models", len(cloud.AgentModels))

	switch config.SessionStore.Backend {
	case StoreBackendGCS:
		if cloud.StorageClient, err = storage.NewClient(ctx); err != nil {
			return nil, fmt.Errorf("error creating storage client: %w", err)
		}
	case StoreBackendRedis:
		if cloud.RedisClient, err = store.DialRedis(ctx, config.SessionStore.RedisURL); err != nil {
			return nil, fmt.Errorf("error creating redis client: %w", err)
		}
	}

	if len(config.TopicSubscriptions) > 0 || len(config.Topics) > 0 {
		if cloud.PubsubClient, err = pubsub.NewClient(ctx, config.Application.GoogleProjectId); err != nil {
			return nil, fmt.Errorf("error creating pubsub client: %w", err)
		}
		// The command is attached later, once the workflows are built.
		for subKey, values := range config.TopicSubscriptions {
			cloud.PubSubListeners[subKey] = NewPubSubListener(cloud.PubsubClient, values.Name, nil)
		}
	}

	if config.BigQueryDataSource.DatasetName != "" {
		if cloud.BiqQueryClient, err = bigquery.NewClient(ctx, config.Application.GoogleProjectId); err != nil {
			return nil, fmt.Errorf("error creating bigquery client: %w", err)
		}
	}

	ok = true
	return cloud, nil
}
