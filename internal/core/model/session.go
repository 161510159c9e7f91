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
// This file contains the conversational types: the per-session context saved
// after a summary, the chat turn request and the generation results returned
// to callers.
package model

import "time"

// SessionContext is the state saved for a session after its summary is
// generated. The escalation path of a chat turn reads Transcript from it.
type SessionContext struct {
	SessionID    string    `json:"session_id"`
	VideoID      string    `json:"video_id"`
	Title        string    `json:"title"`
	Transcript   string    `json:"transcript"`
	Summary      string    `json:"summary"`
	LanguageCode string    `json:"language_code,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ChatTurn is a single prior exchange in a conversation, oldest first.
type ChatTurn struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content"`
}

// ChatTurnRequest is the transient input of one chat turn. RelevantExcerpts
// are ranked by the caller, most relevant first.
type ChatTurnRequest struct {
	Question         string     `json:"question" binding:"required"`
	RelevantExcerpts []string   `json:"relevant_excerpts"`
	RecentHistory    []ChatTurn `json:"recent_history"`
	SessionID        string     `json:"session_id" binding:"required"`
}

// UsageMetrics is reported alongside every generation result.
type UsageMetrics struct {
	ModelIdentifier string `json:"model_identifier"`
	InputTokens     int    `json:"input_tokens"`
	OutputTokens    int    `json:"output_tokens"`
}

// Summary is the result of summarizing a transcript.
type Summary struct {
	Text  string
	Usage UsageMetrics
}

// Answer is the result of one chat turn. Escalated is true when the full
// transcript was fetched during the turn.
type Answer struct {
	Text      string
	Usage     UsageMetrics
	Escalated bool
}
