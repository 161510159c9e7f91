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

package transcript_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-video-chat/internal/core/model"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/transcript"
)

type fakeSource struct {
	tracks   []model.TranscriptTrack
	listErr  error
	fetchErr error
	fetched  []model.TranscriptTrack
	// segments overrides the fetched text when set.
	segments []string
}

func (f *fakeSource) ListTracks(_ context.Context, videoID string) (*transcript.TrackList, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &transcript.TrackList{VideoID: videoID, Tracks: f.tracks}, nil
}

func (f *fakeSource) FetchTrack(_ context.Context, track model.TranscriptTrack) ([]string, error) {
	f.fetched = append(f.fetched, track)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if f.segments != nil {
		return f.segments, nil
	}
	return []string{"hello from", track.LanguageCode, ""}, nil
}

func manual(code string) model.TranscriptTrack {
	return model.TranscriptTrack{Language: code, LanguageCode: code, Handle: "m-" + code}
}

func generated(code string) model.TranscriptTrack {
	return model.TranscriptTrack{Language: code + " (auto-generated)", LanguageCode: code, IsGenerated: true, Handle: "g-" + code}
}

func TestResolveVideo(t *testing.T) {
	tests := []struct {
		name          string
		tracks        []model.TranscriptTrack
		preferred     []string
		wantCode      string
		wantGenerated bool
		wantStage     transcript.Stage
	}{
		{
			name:      "english manual only",
			tracks:    []model.TranscriptTrack{manual("en")},
			preferred: []string{"en"},
			wantCode:  "en",
			wantStage: transcript.StageManual,
		},
		{
			name:          "generated in preferred language beats last resort",
			tracks:        []model.TranscriptTrack{generated("fr"), generated("en")},
			preferred:     []string{"en"},
			wantCode:      "en",
			wantGenerated: true,
			wantStage:     transcript.StageGenerated,
		},
		{
			name:          "manual in other language loses to generated preferred",
			tracks:        []model.TranscriptTrack{manual("de"), generated("en")},
			preferred:     []string{"en"},
			wantCode:      "en",
			wantGenerated: true,
			wantStage:     transcript.StageGenerated,
		},
		{
			name:      "manual in second preference beats generated in first",
			tracks:    []model.TranscriptTrack{generated("en"), manual("es")},
			preferred: []string{"en", "es"},
			wantCode:  "es",
			wantStage: transcript.StageManual,
		},
		{
			name:          "spanish generated only falls through to first available",
			tracks:        []model.TranscriptTrack{generated("es")},
			preferred:     []string{"en"},
			wantCode:      "es",
			wantGenerated: true,
			wantStage:     transcript.StageFirstAvailable,
		},
		{
			name:      "empty preference defaults to english",
			tracks:    []model.TranscriptTrack{manual("fr"), manual("en")},
			preferred: nil,
			wantCode:  "en",
			wantStage: transcript.StageManual,
		},
		{
			name:      "language codes compare case insensitively",
			tracks:    []model.TranscriptTrack{manual("pt-BR")},
			preferred: []string{"PT-br"},
			wantCode:  "pt-BR",
			wantStage: transcript.StageManual,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{tracks: tt.tracks}
			resolver := transcript.NewResolver(src)

			rec, err := resolver.ResolveVideo(context.Background(), "dQw4w9WgXcQ", tt.preferred)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, rec.LanguageCode)
			assert.Equal(t, tt.wantGenerated, rec.IsGenerated)
			assert.Equal(t, "hello from "+tt.wantCode, rec.Text)
			assert.Len(t, src.fetched, 1)

			_, stage, ok := transcript.Select(tt.tracks, tt.preferred)
			assert.True(t, ok)
			assert.Equal(t, tt.wantStage, stage)
		})
	}
}

func TestResolveVideoDisabledFailsBeforeFetch(t *testing.T) {
	src := &fakeSource{tracks: []model.TranscriptTrack{manual("en")}, listErr: model.ErrTranscriptsDisabled}
	resolver := transcript.NewResolver(src)

	_, err := resolver.ResolveVideo(context.Background(), "abc", []string{"en"})
	assert.ErrorIs(t, err, model.ErrTranscriptsDisabled)
	assert.Empty(t, src.fetched)
}

func TestResolveDisabledList(t *testing.T) {
	src := &fakeSource{}
	resolver := transcript.NewResolver(src)

	list := &transcript.TrackList{VideoID: "abc", Tracks: []model.TranscriptTrack{manual("en")}, Disabled: true}
	_, err := resolver.Resolve(context.Background(), list, nil)
	assert.ErrorIs(t, err, model.ErrTranscriptsDisabled)
	assert.Empty(t, src.fetched)
}

func TestResolveEmptyEnumeration(t *testing.T) {
	src := &fakeSource{}
	resolver := transcript.NewResolver(src)

	_, err := resolver.ResolveVideo(context.Background(), "abc", []string{"en"})
	assert.ErrorIs(t, err, model.ErrNoTranscriptAvailable)
	assert.Empty(t, src.fetched)
}

func TestResolveFetchErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	src := &fakeSource{tracks: []model.TranscriptTrack{manual("en")}, fetchErr: &model.RetrievalError{Op: "timedtext", Err: boom}}
	resolver := transcript.NewResolver(src)

	_, err := resolver.ResolveVideo(context.Background(), "abc", nil)
	var re *model.RetrievalError
	assert.ErrorAs(t, err, &re)
	assert.ErrorIs(t, err, boom)
}

func TestResolveIsIdempotent(t *testing.T) {
	src := &fakeSource{tracks: []model.TranscriptTrack{generated("en"), manual("en")}}
	resolver := transcript.NewResolver(src)

	first, err := resolver.ResolveVideo(context.Background(), "abc", []string{"en"})
	require.NoError(t, err)
	second, err := resolver.ResolveVideo(context.Background(), "abc", []string{"en"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.False(t, first.IsGenerated)
}

func TestNormalizeLanguages(t *testing.T) {
	assert.Equal(t, []string{"en"}, transcript.NormalizeLanguages(nil))
	assert.Equal(t, []string{"en"}, transcript.NormalizeLanguages([]string{" ", ""}))
	assert.Equal(t, []string{"es", "en"}, transcript.NormalizeLanguages([]string{"ES", "es", "en"}))
}

func TestResolveVideoEmptyTrackText(t *testing.T) {
	src := &fakeSource{tracks: []model.TranscriptTrack{manual("en")}, segments: []string{"", "  "}}
	resolver := transcript.NewResolver(src)

	rec, err := resolver.ResolveVideo(context.Background(), "dQw4w9WgXcQ", []string{"en"})
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, model.ErrNoTranscriptAvailable)
	assert.Len(t, src.fetched, 1)
}
