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
	"bytes"
	"fmt"
	"text/template"
)

// Prompts holds the text/template sources of the generation calls.
type Prompts struct {
	SummarySystem      string
	Summary            string
	ChatSystem         string
	Chat               string
	UnavailableSummary string
}

// DefaultPrompts returns the built in prompts.
func DefaultPrompts() Prompts {
	return Prompts{
		SummarySystem:      defaultSummarySystem,
		Summary:            defaultSummaryPrompt,
		ChatSystem:         defaultChatSystem,
		Chat:               defaultChatPrompt,
		UnavailableSummary: "Could not generate summary because transcript is unavailable.",
	}
}

// Merge returns p with every non-empty field of overrides applied.
func (p Prompts) Merge(overrides Prompts) Prompts {
	pick := func(base, override string) string {
		if override != "" {
			return override
		}
		return base
	}
	return Prompts{
		SummarySystem:      pick(p.SummarySystem, overrides.SummarySystem),
		Summary:            pick(p.Summary, overrides.Summary),
		ChatSystem:         pick(p.ChatSystem, overrides.ChatSystem),
		Chat:               pick(p.Chat, overrides.Chat),
		UnavailableSummary: pick(p.UnavailableSummary, overrides.UnavailableSummary),
	}
}

var templateFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

func parseTemplate(name, text string) (*template.Template, error) {
	t, err := template.New(name).Funcs(templateFuncs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse %s template: %w", name, err)
	}
	return t, nil
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", t.Name(), err)
	}
	return buf.String(), nil
}

const defaultSummarySystem = `You receive the transcript of a YouTube video and write a clear, structured summary of it that is shown to the user and reused later to answer questions about the video.

Rules:
- Write the summary in the language of the transcript. When the user gives an instruction and you can act on it, write in the language of the instruction instead. Ignore an instruction you cannot interpret.
- Use only facts stated in the transcript. When the instruction asks to clarify or explain a term the transcript mentions, you may add a brief definition from general knowledge, but never a new topic.
- Never say "transcript". Refer to the video or the speaker instead.
- Keep it readable on screen: a short overview followed by the main points.`

const defaultSummaryPrompt = `{{if .Instruction}}User instruction: {{.Instruction}}

{{end}}Summarize the following video.

transcript start =>>>>
{{.Transcript}}
transcript end =<<<<<`

const defaultChatSystem = `You answer questions about a single YouTube video, using only its content.

Rules:
- Answer in the language of the question.
- When the question asks about something specific, answer from the provided excerpts, the earlier conversation and nothing else. Do not call any tool for such questions.
- When the question asks for a summary, a new summary or a rewrite of the video's content, call the {{.ToolName}} tool once to get the complete transcript and base your answer on it. Never say "transcript"; refer to the video or the speaker instead. If the tool reports that the transcript is unavailable, tell the user you cannot summarize the video again right now.
- When the question is unrelated to the video, politely say you can only help with questions about this video. Do not call any tool.
- Do not add information that is not in the video.`

const defaultChatPrompt = `{{if .History}}Conversation so far:
{{range .History}}{{.Role}}: {{.Content}}
{{end}}
{{end}}Relevant excerpts of the video, most relevant first:
{{range $i, $e := .Excerpts}}[{{inc $i}}] {{$e}}
{{else}}(none)
{{end}}
Question: {{.Question}}`
