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

// Package transcript selects and fetches the transcript of a video from the
// caption tracks a provider offers.
//
// Selection is a strict three stage fallback:
//
//  1. a manually authored track in a preferred language, trying every
//     preferred language in order;
//  2. an auto-generated track in a preferred language, same order;
//  3. the first track the provider enumerated, whatever its language.
//
// A video whose captions are disabled fails before any stage runs.
package transcript

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/jaycherian/gcp-go-video-chat/internal/core/model"
)

// DefaultLanguages is used when the caller supplies no preference.
var DefaultLanguages = []string{"en"}

// Stage identifies which step of the fallback selected a track.
type Stage int

const (
	StageManual Stage = iota + 1
	StageGenerated
	StageFirstAvailable
)

func (s Stage) String() string {
	switch s {
	case StageManual:
		return "manual"
	case StageGenerated:
		return "generated"
	case StageFirstAvailable:
		return "first-available"
	}
	return "unknown"
}

// TrackList is the enumeration of caption tracks for a video, in provider order.
type TrackList struct {
	VideoID  string
	Tracks   []model.TranscriptTrack
	Disabled bool
}

// Source is a captioning provider.
type Source interface {
	// ListTracks enumerates the tracks of a video. It returns
	// model.ErrTranscriptsDisabled when the uploader turned captions off.
	ListTracks(ctx context.Context, videoID string) (*TrackList, error)
	// FetchTrack returns the caption segments of a track, in order.
	FetchTrack(ctx context.Context, track model.TranscriptTrack) ([]string, error)
}

// Resolver applies the fallback over a Source.
type Resolver struct {
	source Source
}

// NewResolver creates a Resolver reading from source.
func NewResolver(source Source) *Resolver {
	return &Resolver{source: source}
}

// ResolveVideo lists the tracks of videoID and resolves one of them.
func (r *Resolver) ResolveVideo(ctx context.Context, videoID string, preferred []string) (*model.TranscriptRecord, error) {
	list, err := r.source.ListTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return r.Resolve(ctx, list, preferred)
}

// Resolve selects a track from list and fetches it.
func (r *Resolver) Resolve(ctx context.Context, list *TrackList, preferred []string) (*model.TranscriptRecord, error) {
	if list == nil || list.Disabled {
		return nil, model.ErrTranscriptsDisabled
	}
	track, _, ok := Select(list.Tracks, preferred)
	if !ok {
		return nil, model.ErrNoTranscriptAvailable
	}
	segments, err := r.source.FetchTrack(ctx, track)
	if err != nil {
		return nil, fmt.Errorf("fetch %s track: %w", track.LanguageCode, err)
	}
	record := model.NewTranscriptRecord(track, segments)
	if strings.TrimSpace(record.Text) == "" {
		return nil, fmt.Errorf("%s track has no caption text: %w", track.LanguageCode, model.ErrNoTranscriptAvailable)
	}
	return record, nil
}

// Select picks a track without fetching it and reports the stage that chose it.
func Select(tracks []model.TranscriptTrack, preferred []string) (model.TranscriptTrack, Stage, bool) {
	if len(tracks) == 0 {
		return model.TranscriptTrack{}, 0, false
	}
	langs := NormalizeLanguages(preferred)

	if t, ok := findInLanguages(tracks, langs, false); ok {
		return t, StageManual, true
	}
	if t, ok := findInLanguages(tracks, langs, true); ok {
		return t, StageGenerated, true
	}
	return tracks[0], StageFirstAvailable, true
}

func findInLanguages(tracks []model.TranscriptTrack, langs []string, generated bool) (model.TranscriptTrack, bool) {
	for _, lang := range langs {
		for _, t := range tracks {
			if t.IsGenerated == generated && CanonicalCode(t.LanguageCode) == lang {
				return t, true
			}
		}
	}
	return model.TranscriptTrack{}, false
}

// NormalizeLanguages canonicalizes a preference list, dropping blanks and
// duplicates. An empty result falls back to DefaultLanguages.
func NormalizeLanguages(preferred []string) []string {
	out := make([]string, 0, len(preferred))
	seen := make(map[string]bool, len(preferred))
	for _, p := range preferred {
		if strings.TrimSpace(p) == "" {
			continue
		}
		c := CanonicalCode(p)
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	if len(out) == 0 {
		return append(out, DefaultLanguages...)
	}
	return out
}

// CanonicalCode returns the canonical BCP 47 form of a language code, so that
// "EN" and "en" compare equal. Region and script subtags are kept, which means
// "en-US" still differs from "en". Unparseable codes are lower-cased.
func CanonicalCode(code string) string {
	code = strings.TrimSpace(code)
	if tag, err := language.Parse(code); err == nil {
		return tag.String()
	}
	return strings.ToLower(code)
}
