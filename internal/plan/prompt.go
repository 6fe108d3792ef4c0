package plan

import (
	"fmt"
	"strings"

	"github.com/jumppad-labs/spektacular/internal/knowledge"
	"github.com/jumppad-labs/spektacular/internal/runner"
)

// Answer is the option the operator picked for a question
type Answer struct {
	Question runner.Question
	Label    string
}

// BuildPrompt assembles the initial planning prompt: the persona, then a
// knowledge base section per entry in the given order, then the spec.
func BuildPrompt(specText, persona string, entries []knowledge.Entry) string {
	parts := []string{persona, "\n\n---\n\n# Knowledge Base\n"}
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("\n## %s\n%s\n", e.Name, e.Content))
	}
	parts = append(parts, "\n---\n\n# Specification to Plan\n\n"+specText)
	return strings.Join(parts, "\n")
}

// ContinuationPrompt builds the resume prompt that hands a batch of answers
// back to the agent.
func ContinuationPrompt(answers []Answer) string {
	var b strings.Builder
	b.WriteString("Here are my answers to your questions:\n\n")
	for i, a := range answers {
		fmt.Fprintf(&b, "%d. ", i+1)
		if a.Question.Header != "" {
			fmt.Fprintf(&b, "[%s] ", a.Question.Header)
		}
		fmt.Fprintf(&b, "%s\n   Answer: %s\n", a.Question.Question, a.Label)
	}
	b.WriteString("\nContinue planning with these answers. Ask further questions with the same marker format if anything is still unclear.")
	return b.String()
}
