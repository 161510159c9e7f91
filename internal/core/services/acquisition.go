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

// Package services holds the application logic of the video chat service:
// acquiring a video's metadata and transcript, summarizing it, answering chat
// turns about it and recording generation usage.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-video-chat/internal/core/model"
)

// Messages reported to callers for each failure class.
const (
	MsgPlaylistNotSupported = "Playlists are not supported. Please provide a single video URL."
	MsgExtractionPrefix     = "Invalid URL or extraction error: "
	MsgDownloadPrefix       = "Video unavailable or restricted: "
	MsgMetadataUnexpected   = "Unexpected error fetching metadata: "

	MsgTranscriptsDisabled    = "Transcripts are disabled for this video by the uploader."
	MsgNoTranscript           = "No transcripts found (manual or auto-generated)."
	MsgVideoBecameUnavailable = "Video became unavailable while fetching transcript."
	MsgRetrievalPrefix        = "Could not retrieve transcript (API error): "
	MsgTranscriptUnexpected   = "Unexpected error fetching transcript: "
)

// MetadataResolver resolves a URL to the identity of a single video.
type MetadataResolver interface {
	Resolve(ctx context.Context, url string) (*model.VideoIdentity, error)
}

// TranscriptResolver resolves the transcript of a video, trying the preferred
// languages first.
type TranscriptResolver interface {
	ResolveVideo(ctx context.Context, videoID string, preferred []string) (*model.TranscriptRecord, error)
}

// AcquisitionPipeline runs metadata resolution followed by transcript
// resolution and partitions their failures. It never returns an error: every
// failure is classified into the outcome.
type AcquisitionPipeline struct {
	metadata           MetadataResolver
	transcripts        TranscriptResolver
	preferredLanguages []string
}

// NewAcquisitionPipeline creates a pipeline. An empty language preference
// resolves English captions first.
func NewAcquisitionPipeline(metadata MetadataResolver, transcripts TranscriptResolver, preferredLanguages []string) *AcquisitionPipeline {
	return &AcquisitionPipeline{
		metadata:           metadata,
		transcripts:        transcripts,
		preferredLanguages: preferredLanguages,
	}
}

// Acquire resolves url. The transcript stage only runs when metadata was
// resolved, and a transcript failure leaves the metadata in place.
func (p *AcquisitionPipeline) Acquire(ctx context.Context, url string) *model.AcquisitionOutcome {
	video, err := p.resolveMetadata(ctx, url)
	if err != nil {
		kind, msg := ClassifyMetadataError(err)
		slog.WarnContext(ctx, "metadata resolution failed", "url", url, "kind", kind, "error", err)
		return model.MetadataFailure(kind, msg)
	}

	record, err := p.resolveTranscript(ctx, video.VideoID)
	if err != nil {
		kind, msg := ClassifyTranscriptError(err)
		slog.WarnContext(ctx, "transcript resolution failed", "video_id", video.VideoID, "kind", kind, "error", err)
		return model.Acquired(*video, model.TranscriptFailed{Kind: kind, Message: msg})
	}

	slog.InfoContext(ctx, "video acquired",
		"video_id", video.VideoID,
		"language_code", record.LanguageCode,
		"generated", record.IsGenerated)
	return model.Acquired(*video, model.TranscriptResolved{Record: *record})
}

func (p *AcquisitionPipeline) resolveMetadata(ctx context.Context, url string) (video *model.VideoIdentity, err error) {
	defer recoverInto(&err)
	video, err = p.metadata.Resolve(ctx, url)
	if err == nil && video == nil {
		err = errors.New("resolver returned no video")
	}
	return video, err
}

func (p *AcquisitionPipeline) resolveTranscript(ctx context.Context, videoID string) (record *model.TranscriptRecord, err error) {
	defer recoverInto(&err)
	record, err = p.transcripts.ResolveVideo(ctx, videoID, p.preferredLanguages)
	if err == nil && record == nil {
		err = errors.New("resolver returned no transcript")
	}
	return record, err
}

// panicError carries a recovered panic so it is classified as unexpected.
type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = &panicError{value: r}
	}
}

// ClassifyMetadataError maps a metadata resolution error to its failure kind
// and caller facing message.
func ClassifyMetadataError(err error) (model.MetadataFailureKind, string) {
	var extraction *model.ExtractionError
	var download *model.DownloadError
	switch {
	case errors.Is(err, model.ErrPlaylistNotSupported):
		return model.MetadataPlaylist, MsgPlaylistNotSupported
	case errors.As(err, &extraction):
		return model.MetadataExtraction, MsgExtractionPrefix + extraction.Reason
	case errors.As(err, &download):
		return model.MetadataDownload, MsgDownloadPrefix + download.Reason
	default:
		return model.MetadataUnexpected, MsgMetadataUnexpected + err.Error()
	}
}

// ClassifyTranscriptError maps a transcript resolution error to its failure
// kind and caller facing message.
func ClassifyTranscriptError(err error) (model.TranscriptFailureKind, string) {
	var retrieval *model.RetrievalError
	switch {
	case errors.Is(err, model.ErrTranscriptsDisabled):
		return model.TranscriptDisabled, MsgTranscriptsDisabled
	case errors.Is(err, model.ErrNoTranscriptAvailable):
		return model.TranscriptNotFound, MsgNoTranscript
	case errors.Is(err, model.ErrVideoUnavailable):
		return model.TranscriptVideoUnavailable, MsgVideoBecameUnavailable
	case errors.As(err, &retrieval):
		return model.TranscriptRetrieval, MsgRetrievalPrefix + retrieval.Error()
	default:
		return model.TranscriptUnexpected, MsgTranscriptUnexpected + err.Error()
	}
}
