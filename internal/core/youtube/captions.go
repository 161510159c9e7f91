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

package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/jaycherian/gcp-go-video-chat/internal/core/model"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/transcript"
)

// Innertube ANDROID client defaults.
const (
	DefaultPlayerURL     = "https://www.youtube.com/youtubei/v1/player"
	DefaultClientVersion = "20.10.38"
	DefaultUserAgent     = "com.google.android.youtube/" + DefaultClientVersion + " (Linux; U; Android 11) gzip"

	maxPlayerBody    = 3 * 1024 * 1024
	maxTimedTextBody = 2 * 1024 * 1024
)

// CaptionConfig configures a CaptionSource. Zero values fall back to defaults.
type CaptionConfig struct {
	PlayerURL     string
	ClientVersion string
	UserAgent     string
	MaxRetries    int
	RetryWait     time.Duration
}

// CaptionSource lists and fetches caption tracks through the Innertube player
// endpoint. It implements transcript.Source.
type CaptionSource struct {
	client *http.Client
	cfg    CaptionConfig
}

var _ transcript.Source = (*CaptionSource)(nil)

// NewCaptionSource creates a CaptionSource. A nil client uses http.DefaultClient.
func NewCaptionSource(cfg CaptionConfig, client *http.Client) *CaptionSource {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.PlayerURL == "" {
		cfg.PlayerURL = DefaultPlayerURL
	}
	if cfg.ClientVersion == "" {
		cfg.ClientVersion = DefaultClientVersion
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = 500 * time.Millisecond
	}
	return &CaptionSource{client: client, cfg: cfg}
}

type playerRequest struct {
	VideoID        string        `json:"videoId"`
	Context        playerContext `json:"context"`
	RacyCheckOk    bool          `json:"racyCheckOk"`
	ContentCheckOk bool          `json:"contentCheckOk"`
}

type playerContext struct {
	Client playerClient `json:"client"`
}

type playerClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

type playerResponse struct {
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string    `json:"baseUrl"`
	LanguageCode string    `json:"languageCode"`
	Kind         string    `json:"kind"` // "asr" marks speech recognition tracks
	Name         trackName `json:"name"`
}

type trackName struct {
	SimpleText string `json:"simpleText"`
	Runs       []struct {
		Text string `json:"text"`
	} `json:"runs"`
}

func (n trackName) String() string {
	if n.SimpleText != "" {
		return n.SimpleText
	}
	var sb strings.Builder
	for _, r := range n.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// ListTracks asks the player endpoint for the caption tracks of videoID.
func (s *CaptionSource) ListTracks(ctx context.Context, videoID string) (*transcript.TrackList, error) {
	payload, err := json.Marshal(playerRequest{
		VideoID: videoID,
		Context: playerContext{Client: playerClient{
			ClientName:        "ANDROID",
			ClientVersion:     s.cfg.ClientVersion,
			AndroidSdkVersion: 30,
			Hl:                "en",
			Gl:                "US",
		}},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, err
	}

	body, err := s.do(ctx, "innertube player", maxPlayerBody, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.PlayerURL+"?prettyPrint=false", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", s.cfg.UserAgent)
		req.Header.Set("X-Youtube-Client-Name", "3")
		req.Header.Set("X-Youtube-Client-Version", s.cfg.ClientVersion)
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var resp playerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &model.RetrievalError{Op: "decode player response", Err: err}
	}
	if err := playabilityError(resp); err != nil {
		return nil, err
	}
	if resp.Captions == nil || len(resp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks) == 0 {
		return nil, model.ErrTranscriptsDisabled
	}

	list := &transcript.TrackList{VideoID: videoID}
	skipped := 0
	for _, ct := range resp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks {
		if needsPoToken(ct.BaseURL) {
			skipped++
			continue
		}
		list.Tracks = append(list.Tracks, model.TranscriptTrack{
			Language:     ct.Name.String(),
			LanguageCode: ct.LanguageCode,
			IsGenerated:  ct.Kind == "asr",
			Handle:       ct.BaseURL,
		})
	}
	if len(list.Tracks) == 0 {
		return nil, &model.RetrievalError{
			Op:  "list caption tracks",
			Err: fmt.Errorf("all %d tracks require a proof of origin token", skipped),
		}
	}
	return list, nil
}

// FetchTrack downloads the timedtext document behind a track handle.
func (s *CaptionSource) FetchTrack(ctx context.Context, track model.TranscriptTrack) ([]string, error) {
	if track.Handle == "" {
		return nil, &model.RetrievalError{Op: "fetch timedtext", Err: errors.New("track has no handle")}
	}
	body, err := s.do(ctx, "fetch timedtext", maxTimedTextBody, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, track.Handle, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", s.cfg.UserAgent)
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &model.RetrievalError{Op: "fetch timedtext", Err: errors.New("empty caption document")}
	}
	segments, err := ParseTimedText(body)
	if err != nil {
		return nil, &model.RetrievalError{Op: "parse timedtext", Err: err}
	}
	return segments, nil
}

// playabilityError maps a non playable status to an error. Bot checks are a
// retrieval problem on our side; everything else means the video itself
// cannot be watched.
func playabilityError(resp playerResponse) error {
	ps := resp.PlayabilityStatus
	if ps == nil || ps.Status == "" || ps.Status == "OK" {
		return nil
	}
	if ps.Status == "LOGIN_REQUIRED" && strings.Contains(strings.ToLower(ps.Reason), "bot") {
		return &model.RetrievalError{Op: "innertube player", Err: fmt.Errorf("request blocked: %s", ps.Reason)}
	}
	return fmt.Errorf("%w: %s (%s)", model.ErrVideoUnavailable, ps.Reason, ps.Status)
}

// needsPoToken reports whether a caption URL can only be fetched by a browser.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// statusError is a non 2xx response from YouTube.
type statusError struct {
	StatusCode int
	Snippet    string
}

func (e *statusError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Snippet)
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// do sends the request built by build, retrying transport failures and
// retryable status codes with exponential backoff. Failures come back as
// *model.RetrievalError.
func (s *CaptionSource) do(ctx context.Context, op string, limit int64, build func() (*http.Request, error)) ([]byte, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.RetryWait
	b.MaxInterval = 10 * time.Second

	attempt := 0
	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		attempt++
		req, err := build()
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			slog.DebugContext(ctx, "caption request failed", "op", op, "attempt", attempt, "error", err)
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
			serr := &statusError{StatusCode: resp.StatusCode, Snippet: strings.TrimSpace(string(snippet))}
			if isRetryableStatus(resp.StatusCode) {
				slog.DebugContext(ctx, "caption request retryable status", "op", op, "attempt", attempt, "status", resp.StatusCode)
				return nil, serr
			}
			return nil, backoff.Permanent(serr)
		}
		return io.ReadAll(io.LimitReader(resp.Body, limit))
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(s.cfg.MaxRetries+1)))
	if err != nil {
		return nil, &model.RetrievalError{Op: op, Err: err}
	}
	return body, nil
}
