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

// MetadataFailureKind classifies why a video could not be identified.
type MetadataFailureKind string

// TranscriptFailureKind classifies why a transcript could not be resolved.
type TranscriptFailureKind string

const (
	MetadataPlaylist   MetadataFailureKind = "playlist"
	MetadataExtraction MetadataFailureKind = "extraction"
	MetadataDownload   MetadataFailureKind = "download"
	MetadataUnexpected MetadataFailureKind = "unexpected"

	TranscriptDisabled         TranscriptFailureKind = "disabled"
	TranscriptNotFound         TranscriptFailureKind = "not_found"
	TranscriptVideoUnavailable TranscriptFailureKind = "video_unavailable"
	TranscriptRetrieval        TranscriptFailureKind = "retrieval"
	TranscriptUnexpected       TranscriptFailureKind = "unexpected"
)

// MetadataResult is either a MetadataResolved or a MetadataFailed. The
// unexported marker method keeps the set of variants closed.
type MetadataResult interface {
	isMetadataResult()
}

// MetadataResolved carries the identity of a successfully resolved video.
type MetadataResolved struct {
	Video VideoIdentity
}

// MetadataFailed carries the classified reason metadata could not be resolved.
type MetadataFailed struct {
	Kind    MetadataFailureKind
	Message string
}

func (MetadataResolved) isMetadataResult() {}
func (MetadataFailed) isMetadataResult()   {}

// TranscriptResult is either a TranscriptResolved or a TranscriptFailed.
type TranscriptResult interface {
	isTranscriptResult()
}

// TranscriptResolved carries the selected transcript.
type TranscriptResolved struct {
	Record TranscriptRecord
}

// TranscriptFailed carries the classified reason no transcript was produced.
type TranscriptFailed struct {
	Kind    TranscriptFailureKind
	Message string
}

func (TranscriptResolved) isTranscriptResult() {}
func (TranscriptFailed) isTranscriptResult()   {}

// AcquisitionOutcome is the result of acquiring a video. Metadata is always set.
// Transcript is nil when metadata failed, because the transcript stage is
// never attempted in that case.
//
// Outcomes are built with MetadataFailure or Acquired so the transcript half
// can only exist next to resolved metadata.
type AcquisitionOutcome struct {
	metadata   MetadataResult
	transcript TranscriptResult
}

// MetadataFailure builds the outcome of an acquisition whose metadata stage failed.
func MetadataFailure(kind MetadataFailureKind, message string) *AcquisitionOutcome {
	return &AcquisitionOutcome{metadata: MetadataFailed{Kind: kind, Message: message}}
}

// Acquired builds the outcome of an acquisition whose metadata stage succeeded.
// The transcript result must not be nil.
func Acquired(video VideoIdentity, transcript TranscriptResult) *AcquisitionOutcome {
	if transcript == nil {
		transcript = TranscriptFailed{Kind: TranscriptUnexpected, Message: "transcript stage produced no result"}
	}
	return &AcquisitionOutcome{metadata: MetadataResolved{Video: video}, transcript: transcript}
}

// Metadata returns the metadata stage result.
func (o *AcquisitionOutcome) Metadata() MetadataResult {
	return o.metadata
}

// Transcript returns the transcript stage result, or nil if it was not attempted.
func (o *AcquisitionOutcome) Transcript() TranscriptResult {
	return o.transcript
}

// Video returns the resolved identity, if any.
func (o *AcquisitionOutcome) Video() (*VideoIdentity, bool) {
	if r, ok := o.metadata.(MetadataResolved); ok {
		v := r.Video
		return &v, true
	}
	return nil, false
}

// MetadataError returns the classified metadata failure message, or "".
func (o *AcquisitionOutcome) MetadataError() string {
	if f, ok := o.metadata.(MetadataFailed); ok {
		return f.Message
	}
	return ""
}

// TranscriptRecord returns the resolved transcript, if any.
func (o *AcquisitionOutcome) TranscriptRecord() (*TranscriptRecord, bool) {
	if r, ok := o.transcript.(TranscriptResolved); ok {
		rec := r.Record
		return &rec, true
	}
	return nil, false
}

// TranscriptError returns the classified transcript failure message, or "".
func (o *AcquisitionOutcome) TranscriptError() string {
	if f, ok := o.transcript.(TranscriptFailed); ok {
		return f.Message
	}
	return ""
}
