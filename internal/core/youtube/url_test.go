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

package youtube_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jaycherian/gcp-go-video-chat/internal/core/youtube"
)

func TestVideoID(t *testing.T) {
	tests := []struct {
		url    string
		wantID string
		wantOK bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://youtube.com/watch?feature=share&v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ?t=42", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/shorts/abcdefghijk", "abcdefghijk", true},
		{"https://www.youtube.com/embed/abcdefghijk", "abcdefghijk", true},
		{"https://www.youtube.com/playlist?list=PL123", "", false},
		{"not a url", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			id, ok := youtube.VideoID(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestIsPlaylistURL(t *testing.T) {
	assert.True(t, youtube.IsPlaylistURL("https://www.youtube.com/playlist?list=PLx0sYbCqOb8TBPRdmBHs5Iftvv9TPboYG"))
	assert.True(t, youtube.IsPlaylistURL("https://www.youtube.com/watch?list=PLx0sYbCqOb8TBPRdmBHs5Iftvv9TPboYG"))
	assert.False(t, youtube.IsPlaylistURL("https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLx0sYbCqOb8TBPRdmBHs5Iftvv9TPboYG"))
	assert.False(t, youtube.IsPlaylistURL("https://youtu.be/dQw4w9WgXcQ"))
}
