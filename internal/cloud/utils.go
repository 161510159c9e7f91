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
// This file contains the hierarchical configuration loader.
//
// Functions:
//   - fileExists: A simple helper to check if a file exists.
//   - LoadConfig: Reads a base configuration file and then overwrites values with a
//     second, environment-specific file (e.g., .env.local.toml, .env.test.toml). The
//     environment is determined by an environment variable.
//   - ApplyEnvOverrides: Copies secrets supplied through the process environment
//     into a Config.
package cloud

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Cloud Constants define key strings used for configuration loading.
const (
	ConfigFileBaseName  = ".env"              // The base name for configuration files (e.g., ".env.toml").
	ConfigFileExtension = ".toml"             // The file extension for configuration files.
	ConfigSeparator     = "."                 // The separator used in config file names (e.g., ".env.local.toml").
	EnvConfigFilePrefix = "GCP_CONFIG_PREFIX" // The environment variable for specifying the config directory.
	EnvConfigRuntime    = "GCP_RUNTIME"       // The environment variable for specifying the runtime context (e.g., "local", "test", "prod").

	EnvAPIKey       = "API_KEY"        // Shared secret of the REST surface.
	EnvGoogleAPIKey = "GOOGLE_API_KEY" // Gemini API key.
	EnvRedisURL     = "REDIS_URL"      // Session store connection string.
	EnvPort         = "PORT"           // Listen port, as set by Cloud Run.
)

// fileExists checks if a file or directory exists at the given path.
func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// ConfigFiles returns the base and runtime specific configuration file names
// derived from the environment.
func ConfigFiles() (base string, runtime string) {
	prefix := os.Getenv(EnvConfigFilePrefix)
	if len(prefix) > 0 && !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix = prefix + string(os.PathSeparator)
	}

	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}

	base = prefix + ConfigFileBaseName + ConfigFileExtension
	runtime = prefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension
	return base, runtime
}

// LoadConfig provides a hierarchical configuration loading mechanism. It first loads a
// base configuration file and then merges or overwrites its values with an environment-specific
// configuration file. Missing files are skipped; a file that fails to decode is an error.
//
// Inputs:
//   - baseConfig: A pointer to the target configuration struct that will be populated
//     from the TOML files.
func LoadConfig(baseConfig any) error {
	baseConfigFileName, envConfigFileName := ConfigFiles()
	slog.Debug("configuration files", "base", baseConfigFileName, "runtime", envConfigFileName)

	if fileExists(baseConfigFileName) {
		if _, err := toml.DecodeFile(baseConfigFileName, baseConfig); err != nil {
			return fmt.Errorf("failed to decode base configuration file %s: %w", baseConfigFileName, err)
		}
	}

	if fileExists(envConfigFileName) {
		if _, err := toml.DecodeFile(envConfigFileName, baseConfig); err != nil {
			return fmt.Errorf("failed to decode environment configuration file %s: %w", envConfigFileName, err)
		}
	}
	return nil
}

// ApplyEnvOverrides copies secrets and deployment settings from the environment
// into config. Unset variables leave the file values untouched.
func ApplyEnvOverrides(config *Config) {
	if v := os.Getenv(EnvAPIKey); v != "" {
		config.Server.APIKey = v
	}
	if v := os.Getenv(EnvGoogleAPIKey); v != "" {
		config.Application.GoogleAPIKey = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		config.SessionStore.RedisURL = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			config.Server.Port = port
		}
	}
}
