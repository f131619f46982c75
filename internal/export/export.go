// Package export renders a generated paper into the downloadable formats:
// plain text, a structured JSON blob, and CSV rows. All renderers are pure
// functions of the paper metadata, questions, and optional analytics.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/avolkov/papergen/internal/model"
)

// ContentType returns the MIME type served for a format.
func ContentType(format model.ExportFormat) string {
	switch format {
	case model.FormatStructured:
		return "application/json"
	case model.FormatTabular:
		return "text/csv"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Extension returns the file extension for a format, without the dot.
func Extension(format model.ExportFormat) string {
	switch format {
	case model.FormatStructured:
		return "json"
	case model.FormatTabular:
		return "csv"
	default:
		return "txt"
	}
}

// FileName builds the download name: {subject_or_title}_question_paper.{ext}.
// Uniqueness on the client side is the caller's concern.
func FileName(subjectOrTitle string, format model.ExportFormat) string {
	base := strings.Join(strings.Fields(strings.TrimSpace(subjectOrTitle)), "_")
	if base == "" {
		base = "untitled"
	}
	return fmt.Sprintf("%s_question_paper.%s", base, Extension(format))
}

// Render dispatches to the renderer for the requested format.
func Render(format model.ExportFormat, meta model.PaperMeta, questions []model.Question, analytics *model.PaperAnalytics) ([]byte, error) {
	switch format {
	case model.FormatText:
		return Text(meta, questions), nil
	case model.FormatStructured:
		return Structured(meta, questions, analytics)
	case model.FormatTabular:
		return Tabular(questions)
	default:
		return nil, model.NewError(model.KindInvalidInput, "unknown export format %q", format)
	}
}

// Text renders the numbered plain-text rendition of a paper.
func Text(meta model.PaperMeta, questions []model.Question) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", meta.ExamTitle)
	fmt.Fprintf(&sb, "Subject: %s\n", meta.Subject)
	fmt.Fprintf(&sb, "Total Marks: %d\n", meta.TotalMarks)
	fmt.Fprintf(&sb, "Duration: %d minutes\n", meta.Duration)
	fmt.Fprintf(&sb, "Generated: %s\n", meta.GeneratedAt)
	sb.WriteString(strings.Repeat("-", 60) + "\n\n")

	for i, q := range questions {
		if q.CognitiveLevel != "" {
			fmt.Fprintf(&sb, "Q%d (%s, %d marks, %s): %s\n", i+1, q.Category, q.Marks, q.CognitiveLevel, q.Text)
		} else {
			fmt.Fprintf(&sb, "Q%d (%s, %d marks): %s\n", i+1, q.Category, q.Marks, q.Text)
		}
	}
	return []byte(sb.String())
}

// Structured renders the JSON blob. Parsing it back with ParseStructured
// reproduces the question list exactly.
func Structured(meta model.PaperMeta, questions []model.Question, analytics *model.PaperAnalytics) ([]byte, error) {
	blob := model.PaperExport{
		ExamTitle:   meta.ExamTitle,
		Subject:     meta.Subject,
		TotalMarks:  meta.TotalMarks,
		Duration:    meta.Duration,
		GeneratedAt: meta.GeneratedAt,
		Questions:   questions,
		Analytics:   analytics,
	}
	data, err := json.MarshalIndent(blob, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal paper: %w", err)
	}
	return append(data, '\n'), nil
}

// ParseStructured reads back a structured blob.
func ParseStructured(data []byte) (model.PaperExport, error) {
	var blob model.PaperExport
	if err := json.Unmarshal(data, &blob); err != nil {
		return blob, fmt.Errorf("parse paper: %w", err)
	}
	return blob, nil
}

// Tabular renders one CSV row per question.
func Tabular(questions []model.Question) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"text", "category", "topic", "marks", "cognitive_level"}); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, q := range questions {
		row := []string{q.Text, string(q.Category), q.Topic, fmt.Sprintf("%d", q.Marks), string(q.CognitiveLevel)}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
