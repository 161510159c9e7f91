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

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-video-chat/internal/core/model"
	"github.com/jaycherian/gcp-go-video-chat/internal/core/services"
)

// Response prefixes of generation failures.
const (
	MsgSummaryFailedPrefix = "Failed to generate summary: "
	MsgChatFailedPrefix    = "Error during chat processing: "
)

// Acquirer resolves a URL into metadata and transcript.
type Acquirer interface {
	Acquire(ctx context.Context, url string) *model.AcquisitionOutcome
}

// Summarizer generates summaries and saves the session context.
type Summarizer interface {
	Summarize(ctx context.Context, transcriptText, instruction string) (*model.Summary, error)
	Record(ctx context.Context, session *model.SessionContext) error
}

// Answerer answers chat turns.
type Answerer interface {
	Answer(ctx context.Context, req model.ChatTurnRequest) (*model.Answer, error)
}

// UsageLedger records and lists generation usage.
type UsageLedger interface {
	services.UsageRecorder
	ListBySession(ctx context.Context, sessionID string, limit int) ([]services.UsageRecord, error)
	TotalsBySession(ctx context.Context, sessionID string) (services.UsageTotals, error)
}

// SummaryRequest is the body of POST /summary.
type SummaryRequest struct {
	VideoURL           string `json:"video_url" binding:"required"`
	SummaryInstruction string `json:"summary_instruction"`
	SessionID          string `json:"session_id"`
}

// SummaryResponse is the body of a successful POST /summary.
type SummaryResponse struct {
	SessionID           string               `json:"session_id"`
	VideoMetadata       *model.VideoIdentity `json:"video_metadata"`
	Summary             string               `json:"summary"`
	Transcript          *string              `json:"transcript"`
	TranscriptLanguage  string               `json:"transcript_language,omitempty"`
	TranscriptAvailable bool                 `json:"transcript_available"`
	TranscriptError     string               `json:"transcript_error,omitempty"`
	InputTokens         int                  `json:"input_tokens"`
	OutputTokens        int                  `json:"output_tokens"`
	ModelIdentifier     string               `json:"model_identifier"`
}

// AskQuestionResponse is the body of a successful POST /ask-question.
type AskQuestionResponse struct {
	Answer          string `json:"answer"`
	InputTokens     int    `json:"input_tokens"`
	OutputTokens    int    `json:"output_tokens"`
	ModelIdentifier string `json:"model_identifier"`
	Escalated       bool   `json:"escalated"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// API holds the request handlers and their collaborators. usage may be nil.
type API struct {
	acquirer           Acquirer
	summaries          Summarizer
	chat               Answerer
	usage              UsageLedger
	unavailableSummary string
}

// NewAPI creates the handlers.
func NewAPI(acquirer Acquirer, summaries Summarizer, chat Answerer, usage UsageLedger, unavailableSummary string) *API {
	return &API{
		acquirer:           acquirer,
		summaries:          summaries,
		chat:               chat,
		usage:              usage,
		unavailableSummary: unavailableSummary,
	}
}

// Summary handles POST /summary.
func (a *API) Summary(c *gin.Context) {
	var req SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: err.Error()})
		return
	}
	ctx := c.Request.Context()

	outcome := a.acquirer.Acquire(ctx, strings.TrimSpace(req.VideoURL))
	video, ok := outcome.Video()
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: outcome.MetadataError()})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = video.VideoID
	}
	resp := SummaryResponse{SessionID: sessionID, VideoMetadata: video}

	record, ok := outcome.TranscriptRecord()
	if !ok {
		resp.Summary = a.unavailableSummary
		resp.TranscriptError = outcome.TranscriptError()
		c.JSON(http.StatusOK, resp)
		return
	}

	summary, err := a.summaries.Summarize(ctx, record.Text, req.SummaryInstruction)
	if err != nil {
		slog.ErrorContext(ctx, "summary generation failed", "video_id", video.VideoID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: MsgSummaryFailedPrefix + causeOf(err).Error()})
		return
	}

	session := &model.SessionContext{
		SessionID:    sessionID,
		VideoID:      video.VideoID,
		Title:        video.Title,
		Transcript:   record.Text,
		Summary:      summary.Text,
		LanguageCode: record.LanguageCode,
	}
	if err := a.summaries.Record(ctx, session); err != nil {
		// The summary is still returned; follow up questions will not be
		// able to escalate until the session is saved again.
		slog.ErrorContext(ctx, "failed to save session context", "session_id", sessionID, "error", err)
	}
	a.recordUsage(ctx, services.NewUsageRecord(sessionID, services.OperationSummary, video.VideoID, summary.Usage, false))

	text := record.Text
	resp.Summary = summary.Text
	resp.Transcript = &text
	resp.TranscriptLanguage = record.LanguageCode
	resp.TranscriptAvailable = true
	resp.InputTokens = summary.Usage.InputTokens
	resp.OutputTokens = summary.Usage.OutputTokens
	resp.ModelIdentifier = summary.Usage.ModelIdentifier
	c.JSON(http.StatusOK, resp)
}

// AskQuestion handles POST /ask-question.
func (a *API) AskQuestion(c *gin.Context) {
	var req model.ChatTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: err.Error()})
		return
	}
	ctx := c.Request.Context()

	answer, err := a.chat.Answer(ctx, req)
	if errors.Is(err, services.ErrEmptyQuestion) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: err.Error()})
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "chat turn failed", "session_id", req.SessionID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: MsgChatFailedPrefix + causeOf(err).Error()})
		return
	}
	a.recordUsage(ctx, services.NewUsageRecord(req.SessionID, services.OperationChat, "", answer.Usage, answer.Escalated))

	c.JSON(http.StatusOK, AskQuestionResponse{
		Answer:          answer.Text,
		InputTokens:     answer.Usage.InputTokens,
		OutputTokens:    answer.Usage.OutputTokens,
		ModelIdentifier: answer.Usage.ModelIdentifier,
		Escalated:       answer.Escalated,
	})
}

// Healthz handles GET /healthz.
func (a *API) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (a *API) recordUsage(ctx context.Context, rec services.UsageRecord) {
	if a.usage == nil {
		return
	}
	if err := a.usage.Record(ctx, rec); err != nil {
		slog.WarnContext(ctx, "failed to record usage", "session_id", rec.SessionID, "error", err)
	}
}

// causeOf unwraps the generation failure wrappers so responses carry the
// underlying error text.
func causeOf(err error) error {
	var summaryErr *services.SummaryGenerationFailedError
	if errors.As(err, &summaryErr) {
		return summaryErr.Cause
	}
	var chatErr *services.ChatGenerationFailedError
	if errors.As(err, &chatErr) {
		return chatErr.Cause
	}
	return err
}
