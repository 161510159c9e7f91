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

// Package youtube adapts YouTube to the acquisition stage: caption tracks are
// read through the Innertube player API and video metadata is extracted with
// yt-dlp.
package youtube

import (
	"net/url"
	"regexp"
	"strings"
)

// videoIDRE pulls the 11 character id out of the common URL shapes.
var videoIDRE = regexp.MustCompile(`(?:youtube\.com/(?:watch\?(?:.*&)?v=|shorts/|embed/|live/|v/)|youtu\.be/)([a-zA-Z0-9_-]{11})`)

// VideoID extracts the video id from a watch, short, embed or youtu.be URL.
func VideoID(rawURL string) (string, bool) {
	m := videoIDRE.FindStringSubmatch(rawURL)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// IsPlaylistURL reports whether rawURL names a playlist rather than a single
// video. A watch URL that carries both v= and list= is a video.
func IsPlaylistURL(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	if strings.TrimSuffix(u.Path, "/") == "/playlist" {
		return true
	}
	q := u.Query()
	if q.Get("list") == "" {
		return false
	}
	_, ok := VideoID(rawURL)
	return !ok
}
