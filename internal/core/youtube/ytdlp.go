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
	"os/exec"
	"strings"

	"github.com/jaycherian/gcp-go-video-chat/internal/core/model"
)

const (
	// DefaultYtDlpArgs fetches the info dictionary of a single video without
	// downloading any media. --no-playlist makes a watch URL with a list=
	// parameter resolve to the video itself.
	DefaultYtDlpArgs = "--dump-single-json --no-playlist --skip-download --no-warnings"
	ArgSeparator     = " "
)

// Runner executes an external command and returns its standard output and
// standard error.
type Runner func(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error)

// ExecRunner runs the command with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// MetadataResolver resolves video identity by running yt-dlp.
type MetadataResolver struct {
	commandPath string
	run         Runner
}

// NewMetadataResolver creates a resolver for the yt-dlp binary at commandPath.
// A nil runner uses ExecRunner.
func NewMetadataResolver(commandPath string, run Runner) *MetadataResolver {
	if commandPath == "" {
		commandPath = "yt-dlp"
	}
	if run == nil {
		run = ExecRunner
	}
	return &MetadataResolver{commandPath: commandPath, run: run}
}

type ytDlpInfo struct {
	Type       string  `json:"_type"`
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Uploader   string  `json:"uploader"`
	Channel    string  `json:"channel"`
	UploadDate string  `json:"upload_date"`
	Duration   float64 `json:"duration"`
	Thumbnail  string  `json:"thumbnail"`
	ViewCount  int64   `json:"view_count"`
	WebpageURL string  `json:"webpage_url"`
}

// Resolve returns the identity of the video at rawURL. Errors are one of
// model.ErrPlaylistNotSupported, *model.ExtractionError, *model.DownloadError
// or an unclassified error.
func (r *MetadataResolver) Resolve(ctx context.Context, rawURL string) (*model.VideoIdentity, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, &model.ExtractionError{URL: rawURL, Reason: "empty URL"}
	}
	if IsPlaylistURL(rawURL) {
		return nil, model.ErrPlaylistNotSupported
	}

	args := append(strings.Split(DefaultYtDlpArgs, ArgSeparator), rawURL)
	stdout, stderr, err := r.run(ctx, r.commandPath, args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) || len(stderr) > 0 {
			return nil, classifyYtDlpFailure(rawURL, string(stderr))
		}
		return nil, fmt.Errorf("run %s: %w", r.commandPath, err)
	}

	var info ytDlpInfo
	if err := json.Unmarshal(stdout, &info); err != nil {
		return nil, &model.ExtractionError{URL: rawURL, Reason: fmt.Sprintf("unreadable extractor output: %v", err)}
	}
	if info.Type == "playlist" {
		return nil, model.ErrPlaylistNotSupported
	}
	if info.ID == "" {
		return nil, &model.ExtractionError{URL: rawURL, Reason: "extractor returned no video id"}
	}

	uploader := info.Uploader
	if uploader == "" {
		uploader = info.Channel
	}
	canonical := info.WebpageURL
	if canonical == "" {
		canonical = "https://www.youtube.com/watch?v=" + info.ID
	}
	return &model.VideoIdentity{
		VideoID:         info.ID,
		Title:           info.Title,
		Uploader:        uploader,
		UploadDate:      info.UploadDate,
		DurationSeconds: int(info.Duration),
		ThumbnailURL:    info.Thumbnail,
		ViewCount:       info.ViewCount,
		CanonicalURL:    canonical,
	}, nil
}

var (
	extractionMarkers = []string{
		"unsupported url", "is not a valid url", "incomplete youtube id",
		"invalid url", "unable to extract", "no video formats found",
	}
	downloadMarkers = []string{
		"video unavailable", "private video", "sign in", "http error", "unable to download",
		"not available in your country", "geo restrict", "members-only", "has been removed",
		"age-restricted", "confirm your age", "premieres in", "this live event",
	}
)

// classifyYtDlpFailure turns yt-dlp's error output into a typed error.
func classifyYtDlpFailure(rawURL, stderr string) error {
	reason := lastErrorLine(stderr)
	lower := strings.ToLower(reason)
	for _, m := range extractionMarkers {
		if strings.Contains(lower, m) {
			return &model.ExtractionError{URL: rawURL, Reason: reason}
		}
	}
	for _, m := range downloadMarkers {
		if strings.Contains(lower, m) {
			return &model.DownloadError{URL: rawURL, Reason: reason}
		}
	}
	return errors.New(reason)
}

func lastErrorLine(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "ERROR:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))
		}
	}
	if s := strings.TrimSpace(stderr); s != "" {
		return lines[len(lines)-1]
	}
	return "yt-dlp failed without output"
}
