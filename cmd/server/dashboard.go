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
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-video-chat/internal/core/services"
)

// SessionStatsResponse is the body of GET /api/v1/stats/sessions/:id.
// Totals cover every row of the session; Records is the newest page.
type SessionStatsResponse struct {
	Totals  services.UsageTotals   `json:"totals"`
	Records []services.UsageRecord `json:"records"`
}

// Dashboard registers the usage statistics routes.
func Dashboard(r *gin.RouterGroup, api *API) {
	stats := r.Group("/stats")
	{
		stats.GET("/sessions/:id", api.SessionStats)
	}
}

// SessionStats returns the usage rows of one session and their totals.
func (a *API) SessionStats(c *gin.Context) {
	if a.usage == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: services.ErrUsageLedgerDisabled.Error()})
		return
	}
	id := c.Param("id")
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultUsageLimit)))
	if err != nil || limit <= 0 {
		limit = services.DefaultUsageLimit
	}

	ctx := c.Request.Context()
	records, err := a.usage.ListBySession(ctx, id, limit)
	if err != nil {
		statsError(c, err)
		return
	}
	totals, err := a.usage.TotalsBySession(ctx, id)
	if err != nil {
		statsError(c, err)
		return
	}
	c.JSON(http.StatusOK, SessionStatsResponse{Totals: totals, Records: records})
}

func statsError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrUsageLedgerDisabled) {
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: err.Error()})
}
