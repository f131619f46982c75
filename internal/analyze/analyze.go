// Package analyze computes paper analytics and cross-paper recurrence
// statistics. All functions are pure; persistence of the results is the
// caller's concern.
package analyze

import (
	"math"

	"github.com/avolkov/papergen/internal/model"
)

// Quality score weights. Published so tests can assert the composite.
const (
	WeightBalance    = 0.4
	WeightCoverage   = 0.2
	WeightComplexity = 0.2
	WeightDifficulty = 0.2
)

// Default mixed-difficulty shares used as the reference for the difficulty
// balance term.
var difficultyTargets = map[model.DifficultyTier]float64{
	model.DifficultyEasy:   0.30,
	model.DifficultyMedium: 0.50,
	model.DifficultyHard:   0.20,
}

// Paper computes the analytics snapshot for a question set. An empty set
// yields a zero snapshot with initialized maps.
func Paper(questions []model.Question) model.PaperAnalytics {
	a := model.PaperAnalytics{
		TypeCounts:       make(map[model.QuestionCategory]int),
		TopicCounts:      make(map[string]int),
		CognitiveCounts:  make(map[model.CognitiveLevel]int),
		DifficultyCounts: make(map[model.DifficultyTier]int),
		TopicWeightage:   make(map[string]float64),
	}
	if len(questions) == 0 {
		return a
	}

	topicMarks := make(map[string]int)
	for _, q := range questions {
		a.TypeCounts[q.Category]++
		a.TopicCounts[q.Topic]++
		a.CognitiveCounts[q.CognitiveLevel]++
		tier := q.Difficulty
		if tier == "" {
			tier = model.DifficultyMedium
		}
		a.DifficultyCounts[tier]++
		a.TotalMarks += q.Marks
		topicMarks[q.Topic] += q.Marks
	}

	n := len(questions)
	a.TotalQuestions = n
	a.AverageMarks = float64(a.TotalMarks) / float64(n)

	if a.TotalMarks > 0 {
		for topic, marks := range topicMarks {
			a.TopicWeightage[topic] = 100 * float64(marks) / float64(a.TotalMarks)
		}
	}

	a.BalanceScore = balanceScore(a.TopicCounts)
	a.CoverageEfficiency = math.Min(1, 2*float64(len(a.TopicCounts))/float64(n))

	rankSum := 0
	for level, count := range a.CognitiveCounts {
		rankSum += count * level.Rank()
	}
	a.CognitiveComplexity = float64(rankSum) / float64(n)
	switch {
	case a.CognitiveComplexity <= 2:
		a.ComplexityBand = model.ComplexityLow
	case a.CognitiveComplexity <= 4:
		a.ComplexityBand = model.ComplexityMedium
	default:
		a.ComplexityBand = model.ComplexityHigh
	}

	a.QualityScore = 100 * (WeightBalance*a.BalanceScore +
		WeightCoverage*a.CoverageEfficiency +
		WeightComplexity*(a.CognitiveComplexity/6) +
		WeightDifficulty*difficultyBalance(a.DifficultyCounts, n))

	return a
}

// balanceScore is max(0, 1 - CV) over per-topic counts, where CV is the
// population standard deviation over the mean. A single topic scores 0.
func balanceScore(topicCounts map[string]int) float64 {
	if len(topicCounts) <= 1 {
		return 0
	}

	var sum float64
	for _, c := range topicCounts {
		sum += float64(c)
	}
	mean := sum / float64(len(topicCounts))

	var variance float64
	for _, c := range topicCounts {
		d := float64(c) - mean
		variance += d * d
	}
	variance /= float64(len(topicCounts))

	cv := math.Sqrt(variance) / mean
	return math.Max(0, 1-cv)
}

// difficultyBalance compares the tier split against the 30/50/20 reference
// via total variation distance. Papers on a single tier have nothing to
// balance and score 1.
func difficultyBalance(counts map[model.DifficultyTier]int, total int) float64 {
	if len(counts) <= 1 {
		return 1
	}
	var dist float64
	for tier, target := range difficultyTargets {
		share := float64(counts[tier]) / float64(total)
		dist += math.Abs(share - target)
	}
	return 1 - dist/2
}
