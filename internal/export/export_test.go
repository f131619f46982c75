package export

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/papergen/internal/analyze"
	"github.com/avolkov/papergen/internal/model"
)

func samplePaper() (model.PaperMeta, []model.Question) {
	meta := model.PaperMeta{
		ExamTitle:   "OS Midterm",
		Subject:     "Operating Systems",
		TotalMarks:  12,
		Duration:    90,
		GeneratedAt: "2025-11-03T10:00:00Z",
	}
	questions := []model.Question{
		{Text: "Which of the following best describes Deadlocks?", Category: model.CategoryMCQ, Topic: "Deadlocks", Marks: 1, CognitiveLevel: model.LevelRemember, Difficulty: model.DifficultyEasy},
		{Text: "Define Paging, with \"quotes\" and, commas.", Category: model.CategoryShortAnswer, Topic: "Memory Management", Marks: 3, CognitiveLevel: model.LevelUnderstand, Difficulty: model.DifficultyMedium},
		{Text: "Explain CPU Scheduling in detail with suitable examples.", Category: model.CategoryLongAnswer, Topic: "CPU Scheduling", Marks: 8, CognitiveLevel: model.LevelAnalyze, Difficulty: model.DifficultyHard},
	}
	return meta, questions
}

func TestText(t *testing.T) {
	meta, questions := samplePaper()
	out := string(Text(meta, questions))

	assert.Contains(t, out, "OS Midterm")
	assert.Contains(t, out, "Subject: Operating Systems")
	assert.Contains(t, out, "Total Marks: 12")
	assert.Contains(t, out, "Duration: 90 minutes")
	assert.Contains(t, out, "Q1 (mcq, 1 marks, remember): Which of the following best describes Deadlocks?")
	assert.Contains(t, out, "Q3 (long_answer, 8 marks, analyze):")
}

func TestStructuredRoundTrip(t *testing.T) {
	meta, questions := samplePaper()
	a := analyze.Paper(questions)

	data, err := Structured(meta, questions, &a)
	require.NoError(t, err)

	blob, err := ParseStructured(data)
	require.NoError(t, err)

	assert.Equal(t, meta.ExamTitle, blob.ExamTitle)
	assert.Equal(t, meta.Subject, blob.Subject)
	assert.Equal(t, questions, blob.Questions)
	require.NotNil(t, blob.Analytics)

	// Re-analyzing the reconstructed questions reproduces the snapshot.
	again := analyze.Paper(blob.Questions)
	assert.Equal(t, a, again)
}

func TestTabular(t *testing.T) {
	_, questions := samplePaper()
	data, err := Tabular(questions)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4, "header plus one row per question")

	assert.Equal(t, []string{"text", "category", "topic", "marks", "cognitive_level"}, records[0])
	assert.Equal(t, "Define Paging, with \"quotes\" and, commas.", records[2][0])
	assert.Equal(t, "short_answer", records[2][1])
	assert.Equal(t, "3", records[2][3])
}

func TestFileName(t *testing.T) {
	tests := []struct {
		in     string
		format model.ExportFormat
		want   string
	}{
		{"Operating Systems", model.FormatStructured, "Operating_Systems_question_paper.json"},
		{"  OS   Midterm ", model.FormatText, "OS_Midterm_question_paper.txt"},
		{"", model.FormatTabular, "untitled_question_paper.csv"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FileName(tt.in, tt.format))
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	meta, questions := samplePaper()
	_, err := Render("yaml", meta, questions, nil)
	require.Error(t, err)
	assert.Equal(t, model.KindInvalidInput, model.KindOf(err))
}
