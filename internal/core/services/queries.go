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

// QryUsageBySession lists the usage rows of one session, newest first. The
// table name is substituted with fmt; values are bound as query parameters.
const QryUsageBySession = "SELECT session_id, operation, video_id, model_identifier, input_tokens, output_tokens, escalated, created_at " +
	"FROM `%s` WHERE session_id = @session_id ORDER BY created_at DESC LIMIT @limit"

// QryUsageTotalsBySession aggregates every usage row of one session.
const QryUsageTotalsBySession = "SELECT @session_id AS session_id, " +
	"COUNTIF(operation = 'summary') AS summaries, " +
	"COUNTIF(operation = 'chat') AS chat_turns, " +
	"COUNTIF(escalated) AS escalations, " +
	"IFNULL(SUM(input_tokens), 0) AS input_tokens, " +
	"IFNULL(SUM(output_tokens), 0) AS output_tokens " +
	"FROM `%s` WHERE session_id = @session_id"
