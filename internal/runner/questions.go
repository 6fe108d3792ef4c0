package runner

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Question is a structured question the agent embedded in its reply
type Question struct {
	Question string
	Header   string
	Options  []Option
}

// Option is one selectable answer to a Question
type Option struct {
	Label       string
	Description string
}

// questionPattern matches <!--QUESTION:{...}--> markers, across lines
var questionPattern = regexp.MustCompile(`(?s)<!--QUESTION:(.*?)-->`)

type questionPayload struct {
	Questions []json.RawMessage `json:"questions"`
}

type questionEntry struct {
	Question *string `json:"question"`
	Header   string  `json:"header"`
	Options  []struct {
		Label       string `json:"label"`
		Description string `json:"description"`
	} `json:"options"`
}

// DetectQuestions returns every question found in the markers of text, in
// order of appearance. Markers with invalid JSON and entries without a
// question string are skipped.
func DetectQuestions(text string) []Question {
	var questions []Question
	for _, match := range questionPattern.FindAllStringSubmatch(text, -1) {
		var payload questionPayload
		if err := json.Unmarshal([]byte(match[1]), &payload); err != nil {
			continue
		}
		for _, raw := range payload.Questions {
			var entry questionEntry
			if err := json.Unmarshal(raw, &entry); err != nil || entry.Question == nil {
				continue
			}
			q := Question{Question: *entry.Question, Header: entry.Header}
			for _, opt := range entry.Options {
				if opt.Label == "" {
					continue
				}
				q.Options = append(q.Options, Option{Label: opt.Label, Description: opt.Description})
			}
			questions = append(questions, q)
		}
	}
	return questions
}

// StripQuestions removes all question markers from text
func StripQuestions(text string) string {
	return strings.TrimSpace(questionPattern.ReplaceAllString(text, ""))
}
