package analyze

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/papergen/internal/model"
)

func mcq(topic string, marks int, level model.CognitiveLevel) model.Question {
	return model.Question{
		Text:           "Which of the following best describes " + topic + "?",
		Category:       model.CategoryMCQ,
		Topic:          topic,
		Marks:          marks,
		CognitiveLevel: level,
		Difficulty:     model.DifficultyMedium,
	}
}

func TestPaperEmpty(t *testing.T) {
	a := Paper(nil)
	assert.Zero(t, a.TotalQuestions)
	assert.Zero(t, a.TotalMarks)
	assert.Zero(t, a.QualityScore)
	assert.NotNil(t, a.TypeCounts)
	assert.NotNil(t, a.TopicWeightage)
}

func TestPaperSingleCategoryDistinctTopics(t *testing.T) {
	var qs []model.Question
	for i := 0; i < 5; i++ {
		qs = append(qs, mcq(fmt.Sprintf("Topic %d", i), 1, model.LevelRemember))
	}

	a := Paper(qs)
	assert.Equal(t, 5, a.TotalQuestions)
	assert.Equal(t, 5, a.TotalMarks)
	assert.Equal(t, 5, a.TypeCounts[model.CategoryMCQ])
	assert.InDelta(t, 1.0, a.BalanceScore, 1e-9, "uniform topic counts")
	assert.InDelta(t, 1.0, a.CoverageEfficiency, 1e-9)
	assert.InDelta(t, 1.0, a.AverageMarks, 1e-9)

	// All Remember: complexity 1, band low, single difficulty tier.
	assert.InDelta(t, 1.0, a.CognitiveComplexity, 1e-9)
	assert.Equal(t, model.ComplexityLow, a.ComplexityBand)

	want := 100 * (WeightBalance*1 + WeightCoverage*1 + WeightComplexity*(1.0/6) + WeightDifficulty*1)
	assert.InDelta(t, want, a.QualityScore, 1e-9)
}

func TestPaperCountsConsistent(t *testing.T) {
	qs := []model.Question{
		mcq("A", 1, model.LevelRemember),
		mcq("A", 2, model.LevelApply),
		{Text: "Discuss B.", Category: model.CategoryLongAnswer, Topic: "B", Marks: 8, CognitiveLevel: model.LevelAnalyze, Difficulty: model.DifficultyHard},
	}
	a := Paper(qs)

	assert.Equal(t, 11, a.TotalMarks)
	assert.Equal(t, 2, a.TypeCounts[model.CategoryMCQ])
	assert.Equal(t, 1, a.TypeCounts[model.CategoryLongAnswer])
	assert.Equal(t, 2, a.TopicCounts["A"])
	assert.Equal(t, 1, a.TopicCounts["B"])
	assert.Equal(t, 1, a.CognitiveCounts[model.LevelRemember])
	assert.Equal(t, 1, a.CognitiveCounts[model.LevelApply])
	assert.Equal(t, 1, a.CognitiveCounts[model.LevelAnalyze])

	assert.InDelta(t, 100*3.0/11, a.TopicWeightage["A"], 1e-9)
	assert.InDelta(t, 100*8.0/11, a.TopicWeightage["B"], 1e-9)

	assert.GreaterOrEqual(t, a.QualityScore, 0.0)
	assert.LessOrEqual(t, a.QualityScore, 100.0)
	assert.GreaterOrEqual(t, a.BalanceScore, 0.0)
	assert.LessOrEqual(t, a.BalanceScore, 1.0)
}

func TestBalanceScoreSingleTopic(t *testing.T) {
	a := Paper([]model.Question{
		mcq("Only", 1, model.LevelRemember),
		mcq("Only", 1, model.LevelRemember),
	})
	assert.Zero(t, a.BalanceScore)
}

func TestMissingDifficultyDefaultsToMedium(t *testing.T) {
	q := mcq("A", 1, model.LevelRemember)
	q.Difficulty = ""
	a := Paper([]model.Question{q})
	assert.Equal(t, 1, a.DifficultyCounts[model.DifficultyMedium])
}

func TestRecurrenceEmptyCorpus(t *testing.T) {
	report := Recurrence(nil, []string{"Deadlocks"}, DefaultOptions())
	assert.Zero(t, report.PaperCount)
	assert.Empty(t, report.Recurring)
	assert.Empty(t, report.Predictions)
}

func TestRecurrenceAcrossPapers(t *testing.T) {
	corpus := []model.PastPaper{
		{SourceID: "p2021", Year: 2021, Questions: []string{"Explain ACID properties", "Define normalization and its forms"}},
		{SourceID: "p2022", Year: 2022, Questions: []string{"  explain   ACID properties  "}},
		{SourceID: "p2023", Year: 2023, Questions: []string{"EXPLAIN acid PROPERTIES"}},
	}

	report := Recurrence(corpus, []string{"ACID Properties", "Normalization"}, DefaultOptions())
	require.NotEmpty(t, report.Recurring)

	top := report.Recurring[0]
	assert.Equal(t, "Explain ACID properties", top.Text)
	assert.Equal(t, 3, top.Appearances)
	assert.InDelta(t, 100.0, top.Probability, 1e-9)
	assert.Equal(t, model.RecurrenceHigh, top.Band)

	// ACID Properties shows up in all three papers.
	var acid *model.Prediction
	for i := range report.Predictions {
		if report.Predictions[i].Topic == "ACID Properties" {
			acid = &report.Predictions[i]
		}
	}
	require.NotNil(t, acid)
	assert.InDelta(t, 100.0, acid.Probability, 1e-9)
	assert.InDelta(t, 95.0, acid.Confidence, 1e-9, "capped at 95")
	assert.Greater(t, acid.RecommendedMarks, 0)
}

func TestRecurrenceSinglePaper(t *testing.T) {
	corpus := []model.PastPaper{
		{SourceID: "only", Questions: []string{"Define deadlocks", "Discuss virtual memory in detail"}},
	}
	report := Recurrence(corpus, nil, DefaultOptions())
	for _, rq := range report.Recurring {
		assert.InDelta(t, 100.0, rq.Probability, 1e-9, "single paper: probability is 0 or 100")
	}
}

func TestDecliningTopics(t *testing.T) {
	corpus := []model.PastPaper{
		{SourceID: "a", Year: 2021, Questions: []string{
			"Define deadlocks in operating systems",
			"Explain deadlocks avoidance with examples",
		}},
		{SourceID: "b", Year: 2022, Questions: []string{
			"Define deadlocks briefly",
		}},
	}
	report := Recurrence(corpus, []string{"Deadlocks"}, DefaultOptions())
	require.Len(t, report.DecliningTopics, 1)

	d := report.DecliningTopics[0]
	assert.Equal(t, "Deadlocks", d.Topic)
	assert.Equal(t, 2021, d.FromYear)
	assert.Equal(t, 2022, d.ToYear)
	assert.InDelta(t, 50.0, d.DeclinePercent, 1e-9)
}

func TestDecliningTopicDropsToZero(t *testing.T) {
	corpus := []model.PastPaper{
		{SourceID: "a", Year: 2021, Questions: []string{
			"Define deadlocks in operating systems",
			"Explain deadlocks avoidance with examples",
			"Discuss deadlocks detection algorithms",
		}},
		{SourceID: "b", Year: 2022, Questions: []string{
			"Define process scheduling briefly",
		}},
	}
	report := Recurrence(corpus, []string{"Deadlocks"}, DefaultOptions())
	require.Len(t, report.DecliningTopics, 1)

	d := report.DecliningTopics[0]
	assert.Equal(t, "Deadlocks", d.Topic)
	assert.Equal(t, 2021, d.FromYear)
	assert.Equal(t, 2022, d.ToYear)
	assert.InDelta(t, 100.0, d.DeclinePercent, 1e-9)
}

func TestDecliningTopicsUseCorpusYearAxis(t *testing.T) {
	// The topic skips 2022 entirely; the decline is against the adjacent
	// corpus year, never across the gap.
	corpus := []model.PastPaper{
		{SourceID: "a", Year: 2021, Questions: []string{
			"Define deadlocks in operating systems",
			"Explain deadlocks avoidance with examples",
		}},
		{SourceID: "b", Year: 2022, Questions: []string{
			"Define process scheduling briefly",
		}},
		{SourceID: "c", Year: 2023, Questions: []string{
			"Define deadlocks briefly",
		}},
	}
	report := Recurrence(corpus, []string{"Deadlocks"}, DefaultOptions())
	require.Len(t, report.DecliningTopics, 1)

	d := report.DecliningTopics[0]
	assert.Equal(t, 2021, d.FromYear)
	assert.Equal(t, 2022, d.ToYear)
	assert.InDelta(t, 100.0, d.DeclinePercent, 1e-9)
}

func TestPredictionLimitAndOrder(t *testing.T) {
	var topics []string
	for i := 0; i < 15; i++ {
		topics = append(topics, fmt.Sprintf("Topic %02d", i))
	}
	corpus := []model.PastPaper{
		{SourceID: "x", Questions: []string{"Explain topic 03 in detail", "Define topic 07"}},
	}

	report := Recurrence(corpus, topics, DefaultOptions())
	assert.Len(t, report.Predictions, 10)
	for i := 1; i < len(report.Predictions); i++ {
		assert.GreaterOrEqual(t, report.Predictions[i-1].Probability, report.Predictions[i].Probability)
	}
	assert.Equal(t, "Topic 03", report.Predictions[0].Topic)
}

func TestNormalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  Explain   ACID  Properties ", "explain acid properties"},
		{"Explain\tACID\nProperties", "explain acid properties"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in))
	}
}

func TestClassifyQuestion(t *testing.T) {
	tests := []struct {
		text string
		want model.QuestionCategory
	}{
		{"Which of the following is true about paging?", model.CategoryMCQ},
		{"A production system hit a scenario involving deadlocks. Analyze it.", model.CategoryCaseStudy},
		{"Discuss the working of virtual memory.", model.CategoryLongAnswer},
		{"Define a semaphore.", model.CategoryShortAnswer},
		{"Short text?", model.CategoryShortAnswer},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyQuestion(tt.text), tt.text)
	}
}

func TestModeCategoryTies(t *testing.T) {
	// Clear winner.
	assert.Equal(t, model.CategoryLongAnswer, modeCategory(map[model.QuestionCategory]int{
		model.CategoryLongAnswer: 3, model.CategoryShortAnswer: 1,
	}))
	// Tie between non-MCQ categories resolves to MCQ.
	assert.Equal(t, model.CategoryMCQ, modeCategory(map[model.QuestionCategory]int{
		model.CategoryLongAnswer: 2, model.CategoryShortAnswer: 2,
	}))
}
