package i18n

import (
	"context"
	"testing"

	"github.com/avolkov/papergen/internal/model"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return WithLanguages(context.Background(), lang)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "feedback.recorded")
	if got != "Thank you, your feedback has been recorded." {
		t.Errorf("T(feedback.recorded) = %q", got)
	}
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	got := T(ctx, "feedback.recorded")
	if got != "Спасибо, ваш отзыв сохранён." {
		t.Errorf("T(feedback.recorded) = %q", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "upload.recorded", map[string]any{"FileName": "syllabus.txt"})
	if got != "The file syllabus.txt has been received." {
		t.Errorf("Td(upload.recorded) = %q", got)
	}
}

func TestKindMessage(t *testing.T) {
	ctx := initLang(t, "en")

	got := KindMessage(ctx, model.KindNotFound)
	if got != "The requested record does not exist." {
		t.Errorf("KindMessage(not found) = %q", got)
	}

	// Unknown kinds fall back to the generic message.
	got = KindMessage(ctx, model.ErrorKind("BANANA"))
	if got != "Something went wrong. Please try again." {
		t.Errorf("KindMessage(unknown) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "no.such.key")
	if got != "no.such.key" {
		t.Errorf("T(no.such.key) = %q", got)
	}
}

func TestUnsupportedLanguageFallsBack(t *testing.T) {
	ctx := initLang(t, "de")

	got := T(ctx, "feedback.recorded")
	if got != "Thank you, your feedback has been recorded." {
		t.Errorf("T(feedback.recorded) = %q", got)
	}
}
