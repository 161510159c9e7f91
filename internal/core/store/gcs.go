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

package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// GCSStore keeps each session value as a JSON object in a Cloud Storage bucket.
type GCSStore struct {
	bucket *storage.BucketHandle
	prefix string
}

// NewGCSStore stores objects in bucket under prefix (for example "sessions/").
func NewGCSStore(client *storage.Client, bucket, prefix string) *GCSStore {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &GCSStore{bucket: client.Bucket(bucket), prefix: prefix}
}

func (g *GCSStore) objectName(key string) string {
	return g.prefix + key + ".json"
}

// Get reads the object for key, or returns ErrNotFound.
func (g *GCSStore) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := g.bucket.Object(g.objectName(key)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", g.objectName(key), err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Set overwrites the object for key.
func (g *GCSStore) Set(ctx context.Context, key string, value []byte) error {
	w := g.bucket.Object(g.objectName(key)).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(value); err != nil {
		_ = w.Close()
		return fmt.Errorf("write %s: %w", g.objectName(key), err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", g.objectName(key), err)
	}
	return nil
}
