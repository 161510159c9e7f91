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

package youtube_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-video-chat/internal/core/model"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/transcript"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/youtube"
)

const legacyDoc = `<?xml version="1.0" encoding="utf-8" ?><transcript>
<text start="0.0" dur="1.5">Hello &amp;#39;world&amp;#39;</text>
<text start="1.5" dur="2.0">second
line</text>
<text start="3.5" dur="1.0">  </text>
</transcript>`

func newPlayerServer(t *testing.T, player func(srvURL string) any) (*httptest.Server, *int32) {
	t.Helper()
	return newPlayerServerWithDoc(t, player, legacyDoc)
}

func newPlayerServerWithDoc(t *testing.T, player func(srvURL string) any, doc string) (*httptest.Server, *int32) {
	t.Helper()
	var playerCalls int32
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	mux.HandleFunc("/player", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&playerCalls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "3", r.Header.Get("X-Youtube-Client-Name"))
		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		assert.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "dQw4w9WgXcQ", req["videoId"])
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(player(srv.URL))
	})
	mux.HandleFunc("/timedtext", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, doc)
	})
	t.Cleanup(srv.Close)
	return srv, &playerCalls
}

func newSource(srv *httptest.Server) *youtube.CaptionSource {
	return youtube.NewCaptionSource(youtube.CaptionConfig{
		PlayerURL:  srv.URL + "/player",
		MaxRetries: 2,
		RetryWait:  time.Millisecond,
	}, srv.Client())
}

func tracksPayload(srvURL string) any {
	return map[string]any{
		"playabilityStatus": map[string]any{"status": "OK"},
		"captions": map[string]any{
			"playerCaptionsTracklistRenderer": map[string]any{
				"captionTracks": []map[string]any{
					{"baseUrl": srvURL + "/timedtext?lang=es&kind=asr", "languageCode": "es", "kind": "asr", "name": map[string]any{"simpleText": "Spanish (auto-generated)"}},
					{"baseUrl": srvURL + "/timedtext?lang=en", "languageCode": "en", "name": map[string]any{"runs": []map[string]any{{"text": "English"}}}},
					{"baseUrl": srvURL + "/timedtext?lang=fr&exp=xpe", "languageCode": "fr", "name": map[string]any{"simpleText": "French"}},
				},
			},
		},
	}
}

func TestCaptionSourceListTracks(t *testing.T) {
	srv, _ := newPlayerServer(t, tracksPayload)
	src := newSource(srv)

	list, err := src.ListTracks(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	require.Len(t, list.Tracks, 2)

	assert.Equal(t, "es", list.Tracks[0].LanguageCode)
	assert.True(t, list.Tracks[0].IsGenerated)
	assert.Equal(t, "Spanish (auto-generated)", list.Tracks[0].Language)
	assert.Equal(t, "en", list.Tracks[1].LanguageCode)
	assert.False(t, list.Tracks[1].IsGenerated)
	assert.Equal(t, "English", list.Tracks[1].Language)
}

func TestCaptionSourceWithResolver(t *testing.T) {
	srv, _ := newPlayerServer(t, tracksPayload)
	resolver := transcript.NewResolver(newSource(srv))

	rec, err := resolver.ResolveVideo(context.Background(), "dQw4w9WgXcQ", []string{"en"})
	require.NoError(t, err)
	assert.Equal(t, "en", rec.LanguageCode)
	assert.False(t, rec.IsGenerated)
	assert.Equal(t, "Hello 'world' second line", rec.Text)
}

func TestCaptionSourceEmptyDocumentIsNoTranscript(t *testing.T) {
	srv, _ := newPlayerServerWithDoc(t, tracksPayload, `<?xml version="1.0" encoding="utf-8" ?><transcript></transcript>`)
	src := newSource(srv)

	segments, err := src.FetchTrack(context.Background(), model.TranscriptTrack{LanguageCode: "en", Handle: srv.URL + "/timedtext?lang=en"})
	require.NoError(t, err)
	assert.Empty(t, segments)

	rec, err := transcript.NewResolver(src).ResolveVideo(context.Background(), "dQw4w9WgXcQ", []string{"en"})
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, model.ErrNoTranscriptAvailable)
}

func TestCaptionSourceDisabled(t *testing.T) {
	srv, _ := newPlayerServer(t, func(string) any {
		return map[string]any{"playabilityStatus": map[string]any{"status": "OK"}}
	})

	_, err := newSource(srv).ListTracks(context.Background(), "dQw4w9WgXcQ")
	assert.ErrorIs(t, err, model.ErrTranscriptsDisabled)
}

func TestCaptionSourceUnplayable(t *testing.T) {
	srv, _ := newPlayerServer(t, func(string) any {
		return map[string]any{"playabilityStatus": map[string]any{"status": "ERROR", "reason": "This video is unavailable"}}
	})

	_, err := newSource(srv).ListTracks(context.Background(), "dQw4w9WgXcQ")
	assert.ErrorIs(t, err, model.ErrVideoUnavailable)
}

func TestCaptionSourceBotCheckIsRetrievalError(t *testing.T) {
	srv, _ := newPlayerServer(t, func(string) any {
		return map[string]any{"playabilityStatus": map[string]any{"status": "LOGIN_REQUIRED", "reason": "Sign in to confirm you're not a bot"}}
	})

	_, err := newSource(srv).ListTracks(context.Background(), "dQw4w9WgXcQ")
	var re *model.RetrievalError
	assert.ErrorAs(t, err, &re)
}

func TestCaptionSourceRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"playabilityStatus": map[string]any{"status": "OK"}})
	}))
	defer srv.Close()
	src := youtube.NewCaptionSource(youtube.CaptionConfig{PlayerURL: srv.URL, MaxRetries: 2, RetryWait: time.Millisecond}, srv.Client())

	_, err := src.ListTracks(context.Background(), "dQw4w9WgXcQ")
	assert.ErrorIs(t, err, model.ErrTranscriptsDisabled)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCaptionSourceDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()
	src := youtube.NewCaptionSource(youtube.CaptionConfig{PlayerURL: srv.URL, MaxRetries: 3, RetryWait: time.Millisecond}, srv.Client())

	_, err := src.ListTracks(context.Background(), "dQw4w9WgXcQ")
	var re *model.RetrievalError
	require.ErrorAs(t, err, &re)
	assert.Contains(t, re.Error(), "HTTP 400")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestParseTimedTextSrv3(t *testing.T) {
	doc := `<?xml version="1.0" encoding="utf-8" ?><timedtext format="3"><body>
<p t="0" d="1000"><s>Hello</s><s t="300"> there</s></p>
<p t="1000" d="1000">plain &amp;amp; simple</p>
<p t="2000" d="10"></p>
</body></timedtext>`

	segments, err := youtube.ParseTimedText([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello there", "plain & simple"}, segments)
}

func TestParseTimedTextInvalid(t *testing.T) {
	_, err := youtube.ParseTimedText([]byte("<transcript><text>oops"))
	assert.Error(t, err)
}
