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
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/gcp-go-video-chat/internal/cloud"
)

// NewRouter registers the routes. /healthz is public; everything else
// requires the shared secret.
func NewRouter(config *cloud.Config, api *API) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(config.Application.Name))
	r.Use(cors.Default())
	r.Use(RequestID())
	r.Use(RequestLogger())

	r.GET("/healthz", api.Healthz)

	authorized := r.Group("/", APIKeyAuth(config.Server.APIKeyHeader, config.Server.APIKey))
	{
		authorized.POST("/summary", api.Summary)
		authorized.POST("/ask-question", api.AskQuestion)
		Dashboard(authorized.Group("/api/v1"), api)
	}
	return r
}
