package llm

import (
	"strings"
	"testing"

	"github.com/avolkov/papergen/internal/model"
)

func TestBuildRefinePrompt(t *testing.T) {
	q := model.Question{
		Text:     "Explain Process Synchronization with suitable examples.",
		Category: model.CategoryLongAnswer,
		Topic:    "Process Synchronization",
		Marks:    8,
	}

	prompt := buildRefinePrompt(q)

	for _, want := range []string{
		"TOPIC: Process Synchronization",
		"CATEGORY: long_answer",
		"MARKS: 8",
		"single line",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
