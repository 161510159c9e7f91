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

package model

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the resolvers and the acquisition pipeline.
var (
	ErrPlaylistNotSupported  = errors.New("playlists are not supported")
	ErrTranscriptsDisabled   = errors.New("transcripts are disabled for this video")
	ErrNoTranscriptAvailable = errors.New("no transcript available")
	ErrVideoUnavailable      = errors.New("video unavailable")
)

// ExtractionError reports a URL the metadata extractor could not interpret.
type ExtractionError struct {
	URL    string
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %q: %s", e.URL, e.Reason)
}

// DownloadError reports that the video exists but could not be read, for
// example because it is private, removed, geo blocked or age restricted.
type DownloadError struct {
	URL    string
	Reason string
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed for %q: %s", e.URL, e.Reason)
}

// RetrievalError wraps a network or HTTP failure talking to the captioning provider.
type RetrievalError struct {
	Op  string
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}
