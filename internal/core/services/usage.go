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

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/jaycherian/gcp-go-video-chat/internal/core/model"
)

// Operations recorded in the usage ledger.
const (
	OperationSummary = "summary"
	OperationChat    = "chat"
)

// DefaultUsageLimit bounds the rows returned by ListBySession.
const DefaultUsageLimit = 100

// ErrUsageLedgerDisabled is returned when no BigQuery dataset is configured.
var ErrUsageLedgerDisabled = errors.New("usage ledger is not configured")

// UsageRecord is one row of the usage ledger.
type UsageRecord struct {
	SessionID       string    `bigquery:"session_id" json:"session_id"`
	Operation       string    `bigquery:"operation" json:"operation"`
	VideoID         string    `bigquery:"video_id" json:"video_id,omitempty"`
	ModelIdentifier string    `bigquery:"model_identifier" json:"model_identifier"`
	InputTokens     int64     `bigquery:"input_tokens" json:"input_tokens"`
	OutputTokens    int64     `bigquery:"output_tokens" json:"output_tokens"`
	Escalated       bool      `bigquery:"escalated" json:"escalated"`
	CreatedAt       time.Time `bigquery:"created_at" json:"created_at"`
}

// NewUsageRecord builds a ledger row stamped with the current time.
func NewUsageRecord(sessionID, operation, videoID string, usage model.UsageMetrics, escalated bool) UsageRecord {
	return UsageRecord{
		SessionID:       sessionID,
		Operation:       operation,
		VideoID:         videoID,
		ModelIdentifier: usage.ModelIdentifier,
		InputTokens:     int64(usage.InputTokens),
		OutputTokens:    int64(usage.OutputTokens),
		Escalated:       escalated,
		CreatedAt:       time.Now().UTC(),
	}
}

// UsageTotals aggregates the rows of a session.
type UsageTotals struct {
	SessionID    string `bigquery:"session_id" json:"session_id"`
	Summaries    int    `bigquery:"summaries" json:"summaries"`
	ChatTurns    int    `bigquery:"chat_turns" json:"chat_turns"`
	Escalations  int    `bigquery:"escalations" json:"escalations"`
	InputTokens  int64  `bigquery:"input_tokens" json:"input_tokens"`
	OutputTokens int64  `bigquery:"output_tokens" json:"output_tokens"`
}

// Totals sums records into UsageTotals for sessionID.
func Totals(sessionID string, records []UsageRecord) UsageTotals {
	t := UsageTotals{SessionID: sessionID}
	for _, r := range records {
		switch r.Operation {
		case OperationSummary:
			t.Summaries++
		case OperationChat:
			t.ChatTurns++
		}
		if r.Escalated {
			t.Escalations++
		}
		t.InputTokens += r.InputTokens
		t.OutputTokens += r.OutputTokens
	}
	return t
}

// UsageRecorder appends rows to the usage ledger.
type UsageRecorder interface {
	Record(ctx context.Context, record UsageRecord) error
}

// UsageService reads and writes the usage ledger table in BigQuery.
type UsageService struct {
	BigqueryClient *bigquery.Client
	DatasetName    string
	UsageTable     string
}

// GetFQN returns the table name in the dataset.table form used by queries.
func (s *UsageService) GetFQN() string {
	fqn := s.BigqueryClient.Dataset(s.DatasetName).Table(s.UsageTable).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", 1)
}

func (s *UsageService) enabled() bool {
	return s != nil && s.BigqueryClient != nil && s.DatasetName != "" && s.UsageTable != ""
}

// Record streams one row into the ledger.
func (s *UsageService) Record(ctx context.Context, record UsageRecord) error {
	if !s.enabled() {
		return ErrUsageLedgerDisabled
	}
	inserter := s.BigqueryClient.Dataset(s.DatasetName).Table(s.UsageTable).Inserter()
	if err := inserter.Put(ctx, record); err != nil {
		return fmt.Errorf("insert usage record: %w", err)
	}
	return nil
}

// ListBySession returns up to limit rows of sessionID, newest first.
func (s *UsageService) ListBySession(ctx context.Context, sessionID string, limit int) ([]UsageRecord, error) {
	if !s.enabled() {
		return nil, ErrUsageLedgerDisabled
	}
	if limit <= 0 {
		limit = DefaultUsageLimit
	}
	q := s.BigqueryClient.Query(fmt.Sprintf(QryUsageBySession, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "session_id", Value: sessionID},
		{Name: "limit", Value: limit},
	}
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}

	records := make([]UsageRecord, 0)
	for {
		var r UsageRecord
		err := itr.Next(&r)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read usage row: %w", err)
		}
		records = append(records, r)
	}
	return records, nil
}

// TotalsBySession aggregates every row of sessionID in BigQuery, independent
// of any listing limit.
func (s *UsageService) TotalsBySession(ctx context.Context, sessionID string) (UsageTotals, error) {
	totals := UsageTotals{SessionID: sessionID}
	if !s.enabled() {
		return totals, ErrUsageLedgerDisabled
	}
	q := s.BigqueryClient.Query(fmt.Sprintf(QryUsageTotalsBySession, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{{Name: "session_id", Value: sessionID}}
	itr, err := q.Read(ctx)
	if err != nil {
		return totals, fmt.Errorf("query usage totals: %w", err)
	}
	if err := itr.Next(&totals); err != nil && !errors.Is(err, iterator.Done) {
		return totals, fmt.Errorf("read usage totals: %w", err)
	}
	return totals, nil
}
