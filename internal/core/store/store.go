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

// Package store persists per-session artifacts between a summary request and
// later chat turns. The orchestrators depend only on the SessionContextStore
// get/set contract; backends are chosen by configuration.
//
// Concurrent writes to the same key are last-write-wins. Two requests for the
// same session may race and no ordering is promised between them.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jaycherian/gcp-go-video-chat/internal/core/model"
)

// SessionKeySuffix is appended to a session id to form its store key.
const SessionKeySuffix = "-metadata"

var (
	// ErrNotFound is returned by Get when the key has no value.
	ErrNotFound = errors.New("key not found")
	// ErrSessionNotFound means no context was saved for the session.
	ErrSessionNotFound = errors.New("session context not found")
	// ErrMalformedSession means the saved value cannot be used.
	ErrMalformedSession = errors.New("session context is malformed")
)

// SessionContextStore is a key-value store.
type SessionContextStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// SessionKey derives the store key for a session id.
func SessionKey(sessionID string) string {
	return sessionID + SessionKeySuffix
}

// SaveSession writes the session context under its derived key.
func SaveSession(ctx context.Context, s SessionContextStore, sc *model.SessionContext) error {
	if strings.TrimSpace(sc.SessionID) == "" {
		return errors.New("session context has no session id")
	}
	if sc.UpdatedAt.IsZero() {
		sc.UpdatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("encode session context: %w", err)
	}
	return s.Set(ctx, SessionKey(sc.SessionID), data)
}

// LoadSession reads the session context saved for sessionID. A missing key is
// ErrSessionNotFound; undecodable JSON or an empty transcript is
// ErrMalformedSession. Other errors come from the backend.
func LoadSession(ctx context.Context, s SessionContextStore, sessionID string) (*model.SessionContext, error) {
	data, err := s.Get(ctx, SessionKey(sessionID))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var sc model.SessionContext
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSession, err)
	}
	if strings.TrimSpace(sc.Transcript) == "" {
		return nil, fmt.Errorf("%w: no transcript field", ErrMalformedSession)
	}
	if sc.SessionID == "" {
		sc.SessionID = sessionID
	}
	return &sc, nil
}
