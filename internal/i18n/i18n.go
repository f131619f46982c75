// Package i18n renders the user-visible strings of the API. Internal errors
// keep their English detail for logs; this package only localizes the
// summaries shown to users.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/avolkov/papergen/internal/model"
)

//go:embed locales/*.json
var localeFS embed.FS

type ctxKey struct{}

var bundle *i18n.Bundle

// Init loads the embedded translation bundle with the given default language.
func Init(defaultLang string) error {
	tag, err := language.Parse(defaultLang)
	if err != nil {
		return fmt.Errorf("parse language %q: %w", defaultLang, err)
	}

	bundle = i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return fmt.Errorf("read locales dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return fmt.Errorf("read locale file %s: %w", e.Name(), err)
		}
		bundle.MustParseMessageFileBytes(data, e.Name())
		slog.Info("loaded locale file", "file", e.Name())
	}

	return nil
}

// WithLanguages stores a localizer for the given language preferences in the
// context. The first supported language wins.
func WithLanguages(ctx context.Context, langs ...string) context.Context {
	return context.WithValue(ctx, ctxKey{}, i18n.NewLocalizer(bundle, langs...))
}

func localizerFromCtx(ctx context.Context) *i18n.Localizer {
	if loc, ok := ctx.Value(ctxKey{}).(*i18n.Localizer); ok {
		return loc
	}
	return i18n.NewLocalizer(bundle, "en")
}

// T translates a message by ID. A missing translation falls back to the ID
// itself so the response is never empty.
func T(ctx context.Context, msgID string) string {
	loc := localizerFromCtx(ctx)
	s, err := loc.Localize(&i18n.LocalizeConfig{MessageID: msgID})
	if err != nil {
		slog.Warn("missing translation", "id", msgID, "error", err)
		return msgID
	}
	return s
}

// Td translates a message by ID with template data.
func Td(ctx context.Context, msgID string, data map[string]any) string {
	loc := localizerFromCtx(ctx)
	s, err := loc.Localize(&i18n.LocalizeConfig{
		MessageID:    msgID,
		TemplateData: data,
	})
	if err != nil {
		slog.Warn("missing translation", "id", msgID, "error", err)
		return msgID
	}
	return s
}

var kindMessages = map[model.ErrorKind]string{
	model.KindInvalidInput:        "error.invalid_input",
	model.KindResourceExhausted:   "error.resource_exhausted",
	model.KindPersistenceFailure:  "error.persistence_failure",
	model.KindCollaboratorFailure: "error.collaborator_failure",
	model.KindNotFound:            "error.not_found",
}

// KindMessage returns the localized one-line summary for an error kind.
func KindMessage(ctx context.Context, kind model.ErrorKind) string {
	id, ok := kindMessages[kind]
	if !ok {
		id = "error.internal"
	}
	return T(ctx, id)
}
