package analyze

import (
	"math"
	"sort"
	"strings"

	"github.com/avolkov/papergen/internal/catalog"
	"github.com/avolkov/papergen/internal/model"
)

// Recurrence probability bands.
const (
	bandHighMin   = 66.0
	bandMediumMin = 33.0
)

// confidenceBoost is the heuristic offset the prediction confidence adds on
// top of the topic probability, capped at 95.
const confidenceBoost = 20.0

// Options tunes a cross-paper analysis run.
type Options struct {
	// HotTopicThreshold is the minimum weightage (percent of total marks)
	// for a topic to count as hot.
	HotTopicThreshold float64
	// PredictionLimit caps the number of predictions returned.
	PredictionLimit int
}

// DefaultOptions returns the compile-time analysis defaults.
func DefaultOptions() Options {
	return Options{HotTopicThreshold: 10, PredictionLimit: 10}
}

// Recurrence analyzes a past-paper corpus against an optional syllabus topic
// list. With no syllabus the built-in catalog topics serve as the matching
// vocabulary. An empty corpus yields an empty report.
func Recurrence(corpus []model.PastPaper, syllabusTopics []string, opts Options) model.RecurrenceReport {
	report := model.RecurrenceReport{PaperCount: len(corpus)}
	if len(corpus) == 0 {
		return report
	}
	if opts.PredictionLimit <= 0 {
		opts.PredictionLimit = DefaultOptions().PredictionLimit
	}

	vocabulary := syllabusTopics
	if len(vocabulary) == 0 {
		for _, subject := range catalog.Subjects() {
			topics, _ := catalog.TopicsFor(subject)
			vocabulary = append(vocabulary, topics...)
		}
	}

	stats := make(map[string]*questionStat)
	var order []string

	topicStats := make(map[string]*topicStat)
	totalMarks := 0

	yearSet := make(map[int]bool)
	for _, paper := range corpus {
		if paper.Year != 0 {
			yearSet[paper.Year] = true
		}
	}
	corpusYears := make([]int, 0, len(yearSet))
	for y := range yearSet {
		corpusYears = append(corpusYears, y)
	}
	sort.Ints(corpusYears)

	for _, paper := range corpus {
		for _, raw := range paper.Questions {
			norm := Normalize(raw)
			if norm == "" {
				continue
			}
			report.QuestionCount++

			st, ok := stats[norm]
			if !ok {
				st = &questionStat{
					original: strings.TrimSpace(raw),
					papers:   make(map[string]bool),
					category: ClassifyQuestion(raw),
				}
				stats[norm] = st
				order = append(order, norm)
			}
			st.papers[paper.SourceID] = true

			marks := catalog.BaseMarks(st.category)
			totalMarks += marks

			for _, topic := range vocabulary {
				if !strings.Contains(norm, strings.ToLower(strings.TrimSpace(topic))) {
					continue
				}
				ts, ok := topicStats[topic]
				if !ok {
					ts = &topicStat{
						papers:     make(map[string]bool),
						categories: make(map[model.QuestionCategory]int),
						catMarks:   make(map[model.QuestionCategory]int),
						byYear:     make(map[int]int),
					}
					topicStats[topic] = ts
				}
				ts.count++
				ts.marks += marks
				ts.papers[paper.SourceID] = true
				ts.categories[st.category]++
				ts.catMarks[st.category] += marks
				if paper.Year != 0 {
					ts.byYear[paper.Year]++
				}
			}
		}
	}

	nPapers := len(corpus)
	for _, norm := range order {
		st := stats[norm]
		prob := 100 * float64(len(st.papers)) / float64(nPapers)
		report.Recurring = append(report.Recurring, model.RecurringQuestion{
			Text:        st.original,
			Category:    st.category,
			Appearances: len(st.papers),
			Probability: prob,
			Band:        probabilityBand(prob),
		})
	}
	sort.SliceStable(report.Recurring, func(i, j int) bool {
		if report.Recurring[i].Probability != report.Recurring[j].Probability {
			return report.Recurring[i].Probability > report.Recurring[j].Probability
		}
		return report.Recurring[i].Text < report.Recurring[j].Text
	})

	for topic, ts := range topicStats {
		freq := model.TopicFrequency{
			Topic:      topic,
			Count:      ts.count,
			TotalMarks: ts.marks,
		}
		if totalMarks > 0 {
			freq.Weightage = 100 * float64(ts.marks) / float64(totalMarks)
		}
		report.TopicFrequency = append(report.TopicFrequency, freq)
	}
	sort.Slice(report.TopicFrequency, func(i, j int) bool {
		if report.TopicFrequency[i].Weightage != report.TopicFrequency[j].Weightage {
			return report.TopicFrequency[i].Weightage > report.TopicFrequency[j].Weightage
		}
		return report.TopicFrequency[i].Topic < report.TopicFrequency[j].Topic
	})
	for _, freq := range report.TopicFrequency {
		if freq.Weightage >= opts.HotTopicThreshold {
			report.HotTopics = append(report.HotTopics, freq)
		}
	}

	report.DecliningTopics = decliningTopics(topicStats, corpusYears)

	report.Predictions = predictions(vocabulary, topicStats, nPapers, opts.PredictionLimit)

	return report
}

// Normalize prepares a question string for equality comparison: trim,
// collapse internal whitespace, lowercase.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// ClassifyQuestion guesses the category of an extracted question string from
// its phrasing, falling back on length.
func ClassifyQuestion(text string) model.QuestionCategory {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, "which of the following", "choose the correct", "select the correct", "which one of"):
		return model.CategoryMCQ
	case containsAny(lower, "case study", "scenario", "design a", "propose a solution"):
		return model.CategoryCaseStudy
	case containsAny(lower, "explain in detail", "discuss", "compare and contrast", "critically evaluate", "elaborate", "derive"):
		return model.CategoryLongAnswer
	case containsAny(lower, "define", "list", "state", "briefly", "what is", "name the"):
		return model.CategoryShortAnswer
	case len(lower) < 80:
		return model.CategoryShortAnswer
	default:
		return model.CategoryLongAnswer
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func probabilityBand(p float64) model.RecurrenceBand {
	switch {
	case p >= bandHighMin:
		return model.RecurrenceHigh
	case p >= bandMediumMin:
		return model.RecurrenceMedium
	default:
		return model.RecurrenceLow
	}
}

type questionStat struct {
	original string
	papers   map[string]bool
	category model.QuestionCategory
}

type topicStat struct {
	count      int
	marks      int
	papers     map[string]bool
	categories map[model.QuestionCategory]int
	// per-category mark sums feed the recommended-marks average
	catMarks map[model.QuestionCategory]int
	byYear   map[int]int
}

// decliningTopics reports topics whose frequency strictly decreased between
// the most recent pair of adjacent corpus years. The year axis is the set of
// distinct years present in the corpus; a topic missing from a year counts as
// zero there, so dropping out entirely is a 100% decline.
func decliningTopics(stats map[string]*topicStat, corpusYears []int) []model.DecliningTopic {
	if len(corpusYears) < 2 {
		return nil
	}
	var out []model.DecliningTopic
	for topic, ts := range stats {
		// Walk adjacent corpus year pairs, keeping the most recent decline.
		var found *model.DecliningTopic
		for i := 1; i < len(corpusYears); i++ {
			prev, curr := ts.byYear[corpusYears[i-1]], ts.byYear[corpusYears[i]]
			if curr < prev {
				found = &model.DecliningTopic{
					Topic:          topic,
					FromYear:       corpusYears[i-1],
					ToYear:         corpusYears[i],
					DeclinePercent: 100 * float64(prev-curr) / float64(prev),
				}
			}
		}
		if found != nil {
			out = append(out, *found)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DeclinePercent != out[j].DeclinePercent {
			return out[i].DeclinePercent > out[j].DeclinePercent
		}
		return out[i].Topic < out[j].Topic
	})
	return out
}

// predictions ranks likely future questions per syllabus topic.
func predictions(vocabulary []string, stats map[string]*topicStat, nPapers, limit int) []model.Prediction {
	var out []model.Prediction
	for _, topic := range vocabulary {
		ts := stats[topic]

		p := model.Prediction{Topic: topic, PredictedCategory: model.CategoryMCQ}
		if ts != nil {
			p.PredictedCategory = modeCategory(ts.categories)
			p.Probability = 100 * float64(len(ts.papers)) / float64(nPapers)

			if n := ts.categories[p.PredictedCategory]; n > 0 {
				p.RecommendedMarks = int(math.Round(float64(ts.catMarks[p.PredictedCategory]) / float64(n)))
			}
		}
		if p.RecommendedMarks == 0 {
			p.RecommendedMarks = catalog.BaseMarks(p.PredictedCategory)
		}
		p.Confidence = math.Min(95, p.Probability+confidenceBoost)
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Probability > out[j].Probability
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// modeCategory returns the most frequent category; any tie resolves to MCQ.
func modeCategory(counts map[model.QuestionCategory]int) model.QuestionCategory {
	best := model.CategoryMCQ
	bestCount := -1
	tied := false
	for _, c := range model.AllCategories {
		n := counts[c]
		if n > bestCount {
			best, bestCount, tied = c, n, false
		} else if n == bestCount && n > 0 {
			tied = true
		}
	}
	if tied {
		return model.CategoryMCQ
	}
	return best
}
