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

// Package model defines the core data structures for the application.
// This file holds the video and transcript types produced by the acquisition
// stage. Values are created once by the resolvers and are treated as read-only
// by every downstream component.
package model

// VideoIdentity is the canonical description of a single video as resolved
// from a user supplied URL.
type VideoIdentity struct {
	VideoID         string `json:"video_id"`
	Title           string `json:"title"`
	Uploader        string `json:"uploader"`
	UploadDate      string `json:"upload_date,omitempty"` // YYYYMMDD as reported by the extractor.
	DurationSeconds int    `json:"duration"`
	ThumbnailURL    string `json:"thumbnail,omitempty"`
	ViewCount       int64  `json:"view_count"`
	CanonicalURL    string `json:"webpage_url"`
}

// TranscriptTrack is one caption option offered by the captioning provider.
type TranscriptTrack struct {
	Language     string `json:"language"`      // Human readable name, e.g. "English (auto-generated)".
	LanguageCode string `json:"language_code"` // BCP 47 code as reported by the provider.
	IsGenerated  bool   `json:"is_generated"`  // True for speech recognition captions.

	// Handle is the provider specific locator used to fetch the track text.
	// It never leaves the process.
	Handle string `json:"-"`
}

// TranscriptRecord is the fetched text of a selected track.
type TranscriptRecord struct {
	Language     string `json:"language"`
	LanguageCode string `json:"language_code"`
	IsGenerated  bool   `json:"is_generated"`
	Text         string `json:"text"`
}

// NewTranscriptRecord builds a record for the given track from its caption
// segments. Segments are joined with a single space, in order.
func NewTranscriptRecord(track TranscriptTrack, segments []string) *TranscriptRecord {
	return &TranscriptRecord{
		Language:     track.Language,
		LanguageCode: track.LanguageCode,
		IsGenerated:  track.IsGenerated,
		Text:         JoinSegments(segments),
	}
}
