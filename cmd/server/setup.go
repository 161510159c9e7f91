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

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/jaycherian/gcp-go-video-chat/internal/cloud"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/services"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/store"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/transcript"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/youtube"
)

// StateManager holds the shared components of the server.
type StateManager struct {
	config   *cloud.Config
	cloud    *cloud.ServiceClients
	sessions store.SessionContextStore
	closers  []func() error

	pipeline  *services.AcquisitionPipeline
	summaries *services.SummaryOrchestrator
	chat      *services.ChatOrchestrator
	usage     *services.UsageService
	prompts   services.Prompts
}

var state = &StateManager{}

// SetupOS points the config loader at ./configs unless the environment
// already chose a location and runtime.
func SetupOS() error {
	if _, ok := os.LookupEnv(cloud.EnvConfigFilePrefix); !ok {
		if err := os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if _, ok := os.LookupEnv(cloud.EnvConfigRuntime); !ok {
		return os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return nil
}

// GetConfig loads the configuration once, applying environment overrides.
func GetConfig() *cloud.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup os: %v\n", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			log.Fatalf("failed to load config: %v\n", err)
		}
		cloud.ApplyEnvOverrides(config)
		state.config = config
	}
	return state.config
}

// InitState creates the clients, the session store and the services.
func InitState(ctx context.Context) error {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return err
	}
	state.cloud = cloudClients

	sessions, err := newSessionStore(ctx, config, cloudClients)
	if err != nil {
		return err
	}
	state.sessions = sessions

	generator, err := cloudClients.AgentModel(config.Application.AgentModel)
	if err != nil {
		return err
	}

	captions := youtube.NewCaptionSource(youtube.CaptionConfig{
		PlayerURL:     config.YouTube.PlayerURL,
		ClientVersion: config.YouTube.ClientVersion,
		UserAgent:     config.YouTube.UserAgent,
		MaxRetries:    config.YouTube.MaxRetries,
	}, &http.Client{Timeout: time.Duration(config.YouTube.RequestTimeoutSeconds) * time.Second})

	state.pipeline = services.NewAcquisitionPipeline(
		youtube.NewMetadataResolver(config.YouTube.YtDlpPath, youtube.ExecRunner),
		transcript.NewResolver(captions),
		config.YouTube.PreferredLanguages)

	state.prompts = services.DefaultPrompts().Merge(services.Prompts{
		SummarySystem:      config.PromptTemplates.SummarySystem,
		Summary:            config.PromptTemplates.Summary,
		ChatSystem:         config.PromptTemplates.ChatSystem,
		Chat:               config.PromptTemplates.Chat,
		UnavailableSummary: config.PromptTemplates.UnavailableSummary,
	})
	if state.summaries, err = services.NewSummaryOrchestrator(generator, sessions, state.prompts); err != nil {
		return err
	}
	if state.chat, err = services.NewChatOrchestrator(generator, sessions, state.prompts); err != nil {
		return err
	}

	if cloudClients.BiqQueryClient != nil {
		state.usage = &services.UsageService{
			BigqueryClient: cloudClients.BiqQueryClient,
			DatasetName:    config.BigQueryDataSource.DatasetName,
			UsageTable:     config.BigQueryDataSource.UsageTable,
		}
	}

	SetupListeners(ctx, config, cloudClients)
	return nil
}

// CloseState releases the store and the clients.
func CloseState() error {
	var err error
	for _, c := range state.closers {
		if cerr := c(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if state.cloud != nil {
		if cerr := state.cloud.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func newSessionStore(ctx context.Context, config *cloud.Config, clients *cloud.ServiceClients) (store.SessionContextStore, error) {
	switch config.SessionStore.Backend {
	case cloud.StoreBackendRedis:
		ttl := time.Duration(config.SessionStore.TTLHours) * time.Hour
		return store.NewRedisStore(clients.RedisClient, ttl), nil
	case cloud.StoreBackendGCS:
		if config.SessionStore.Bucket == "" {
			return nil, fmt.Errorf("session_store.bucket is required for the %s backend", cloud.StoreBackendGCS)
		}
		return store.NewGCSStore(clients.StorageClient, config.SessionStore.Bucket, config.SessionStore.Prefix), nil
	case cloud.StoreBackendSQLite:
		s, err := store.OpenSQLite(ctx, config.SessionStore.SQLitePath)
		if err != nil {
			return nil, err
		}
		state.closers = append(state.closers, s.Close)
		return s, nil
	case cloud.StoreBackendMemory:
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown session store backend %q", config.SessionStore.Backend)
	}
}

// usageLedger returns the ledger as an interface, nil when it is disabled.
func usageLedger() UsageLedger {
	if state.usage == nil {
		return nil
	}
	return state.usage
}
