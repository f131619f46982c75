package catalog

import (
	"testing"

	"github.com/avolkov/papergen/internal/model"
)

func TestTopicsFor(t *testing.T) {
	topics, ok := TopicsFor("Operating Systems")
	if !ok {
		t.Fatal("expected Operating Systems to exist")
	}
	if len(topics) != 10 {
		t.Errorf("expected 10 topics, got %d", len(topics))
	}

	if _, ok := TopicsFor("Underwater Basket Weaving"); ok {
		t.Error("expected unknown subject to return false")
	}

	// Returned slice must be a copy.
	topics[0] = "mutated"
	again, _ := TopicsFor("Operating Systems")
	if again[0] == "mutated" {
		t.Error("TopicsFor leaked internal slice")
	}
}

func TestTemplatesNonEmpty(t *testing.T) {
	for _, c := range model.AllCategories {
		if len(TemplatesFor(c)) == 0 {
			t.Errorf("category %s has no templates", c)
		}
	}
}

func TestTemplatesForReturnsCopy(t *testing.T) {
	templates := TemplatesFor(model.CategoryMCQ)
	if len(templates) == 0 {
		t.Fatal("no MCQ templates")
	}

	// Returned slice must be a copy.
	templates[0].Text = "mutated"
	again := TemplatesFor(model.CategoryMCQ)
	if again[0].Text == "mutated" {
		t.Error("TemplatesFor leaked internal slice")
	}

	if TemplatesFor("bogus") != nil {
		t.Error("expected nil for unknown category")
	}
}

func TestBaseMarks(t *testing.T) {
	tests := []struct {
		category model.QuestionCategory
		want     int
	}{
		{model.CategoryMCQ, 1},
		{model.CategoryShortAnswer, 3},
		{model.CategoryLongAnswer, 8},
		{model.CategoryCaseStudy, 10},
	}
	for _, tt := range tests {
		if got := BaseMarks(tt.category); got != tt.want {
			t.Errorf("BaseMarks(%s) = %d, want %d", tt.category, got, tt.want)
		}
	}
	if BaseMarks("bogus") != 0 {
		t.Error("expected 0 for unknown category")
	}
}

func TestCognitiveLevelsOrdered(t *testing.T) {
	levels := CognitiveLevels()
	if len(levels) != 6 {
		t.Fatalf("expected 6 levels, got %d", len(levels))
	}
	for i, l := range levels {
		if l.Rank() != i+1 {
			t.Errorf("level %s rank = %d, want %d", l, l.Rank(), i+1)
		}
	}
}
