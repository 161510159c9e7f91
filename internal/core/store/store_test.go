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

package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-video-chat/internal/core/model"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/store"
)

func backends(t *testing.T) map[string]store.SessionContextStore {
	t.Helper()
	ctx := context.Background()

	sqlite, err := store.OpenSQLite(ctx, filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	out := map[string]store.SessionContextStore{
		"memory": store.NewMemoryStore(),
		"sqlite": sqlite,
	}

	if url := os.Getenv("REDIS_URL"); url != "" {
		client, err := store.DialRedis(ctx, url)
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })
		out["redis"] = store.NewRedisStore(client, time.Minute)
	}
	return out
}

func TestStoreGetSet(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "missing-"+name)
			assert.ErrorIs(t, err, store.ErrNotFound)

			key := "k-" + name
			require.NoError(t, s.Set(ctx, key, []byte("one")))
			require.NoError(t, s.Set(ctx, key, []byte("two")))

			v, err := s.Get(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, "two", string(v))
		})
	}
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			sc := &model.SessionContext{
				SessionID:  "sess-" + name,
				VideoID:    "dQw4w9WgXcQ",
				Title:      "A talk",
				Transcript: "we never give up",
				Summary:    "The speaker never gives up.",
			}
			require.NoError(t, store.SaveSession(ctx, s, sc))
			assert.False(t, sc.UpdatedAt.IsZero())

			raw, err := s.Get(ctx, "sess-"+name+"-metadata")
			require.NoError(t, err)
			assert.Contains(t, string(raw), `"transcript":"we never give up"`)

			got, err := store.LoadSession(ctx, s, "sess-"+name)
			require.NoError(t, err)
			assert.Equal(t, sc.Transcript, got.Transcript)
			assert.Equal(t, sc.Title, got.Title)
		})
	}
}

func TestLoadSessionFailures(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	_, err := store.LoadSession(ctx, s, "abc123")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)

	require.NoError(t, s.Set(ctx, store.SessionKey("broken"), []byte("{not json")))
	_, err = store.LoadSession(ctx, s, "broken")
	assert.ErrorIs(t, err, store.ErrMalformedSession)

	require.NoError(t, s.Set(ctx, store.SessionKey("empty"), []byte(`{"title":"no transcript"}`)))
	_, err = store.LoadSession(ctx, s, "empty")
	assert.ErrorIs(t, err, store.ErrMalformedSession)
}

func TestSaveSessionRequiresID(t *testing.T) {
	err := store.SaveSession(context.Background(), store.NewMemoryStore(), &model.SessionContext{Transcript: "x"})
	assert.Error(t, err)
}
