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

package youtube

import (
	"encoding/xml"
	"html"
	"strings"
)

// timedText covers both caption document shapes YouTube serves: the legacy
// <transcript><text>…</text></transcript> format and srv3
// <timedtext><body><p>…<s>…</s></p></body></timedtext>.
type timedText struct {
	Lines []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
	Body struct {
		Paragraphs []struct {
			Text  string `xml:",chardata"`
			Spans []struct {
				Text string `xml:",chardata"`
			} `xml:"s"`
		} `xml:"p"`
	} `xml:"body"`
}

// ParseTimedText returns the caption segments of a timedtext document, in
// document order, with HTML entities decoded and whitespace collapsed.
func ParseTimedText(doc []byte) ([]string, error) {
	var tt timedText
	if err := xml.Unmarshal(doc, &tt); err != nil {
		return nil, err
	}

	segments := make([]string, 0, len(tt.Lines)+len(tt.Body.Paragraphs))
	for _, line := range tt.Lines {
		if s := cleanCaption(line.Text); s != "" {
			segments = append(segments, s)
		}
	}
	for _, p := range tt.Body.Paragraphs {
		text := p.Text
		if len(p.Spans) > 0 {
			var sb strings.Builder
			for _, span := range p.Spans {
				sb.WriteString(span.Text)
			}
			text = sb.String()
		}
		if s := cleanCaption(text); s != "" {
			segments = append(segments, s)
		}
	}
	return segments, nil
}

// cleanCaption decodes the entities YouTube double escapes and collapses runs
// of whitespace, including the newlines inside multi line captions.
func cleanCaption(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}
