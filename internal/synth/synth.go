// Package synth produces tagged question papers from a topic list. The
// engine is pure: given the same inputs and seed it emits byte-identical
// output, and it never touches the store.
package synth

import (
	"fmt"
	"math/rand/v2"

	"github.com/avolkov/papergen/internal/catalog"
	"github.com/avolkov/papergen/internal/model"
)

// tierLevels restricts cognitive levels drawn under a fixed difficulty tier.
var tierLevels = map[model.DifficultyTier][]model.CognitiveLevel{
	model.DifficultyEasy:   {model.LevelRemember, model.LevelUnderstand},
	model.DifficultyMedium: {model.LevelUnderstand, model.LevelApply, model.LevelAnalyze},
	model.DifficultyHard:   {model.LevelAnalyze, model.LevelEvaluate, model.LevelCreate},
}

// MixSplit is the percent share of the easy and medium tiers drawn under the
// mixed policy; hard receives the remainder to 100.
type MixSplit struct {
	EasyPct   int
	MediumPct int
}

// DefaultMixSplit returns the compile-time 30/50/20 split.
func DefaultMixSplit() MixSplit {
	return MixSplit{EasyPct: 30, MediumPct: 50}
}

func (m MixSplit) valid() bool {
	return m.EasyPct >= 0 && m.MediumPct >= 0 && m.EasyPct+m.MediumPct <= 100
}

// Engine synthesizes question papers from a seeded random source.
type Engine struct {
	rng *rand.Rand
	mix MixSplit
}

// New creates an engine seeded for reproducible output, with the default
// mixed-policy split.
func New(seed uint64) *Engine {
	return NewWithMix(seed, DefaultMixSplit())
}

// NewWithMix creates a seeded engine with a custom mixed-policy tier split.
// An invalid split falls back to the default.
func NewWithMix(seed uint64, mix MixSplit) *Engine {
	if !mix.valid() {
		mix = DefaultMixSplit()
	}
	return &Engine{rng: rand.New(rand.NewPCG(seed, seed)), mix: mix}
}

// Synthesize produces exactly count questions across the requested
// categories. Slots are split evenly, with the count%k remainder going to
// the first categories in user order; topics repeat within a category only
// after the unique set is exhausted.
func (e *Engine) Synthesize(topics []string, count int, categories []model.QuestionCategory, policy model.DifficultyTier) ([]model.Question, error) {
	if len(topics) == 0 {
		return nil, model.NewError(model.KindInvalidInput, "no topics provided")
	}
	if count < 1 {
		return nil, model.NewError(model.KindInvalidInput, "question count must be positive, got %d", count)
	}
	if len(categories) == 0 {
		return nil, model.NewError(model.KindInvalidInput, "no question categories selected")
	}
	for _, c := range categories {
		if !c.Valid() {
			return nil, model.NewError(model.KindInvalidInput, "unknown question category %q", c)
		}
	}
	if !policy.ValidPolicy() {
		return nil, model.NewError(model.KindInvalidInput, "unknown difficulty %q", policy)
	}

	slots := partition(count, len(categories))

	questions := make([]model.Question, 0, count)
	for i, category := range categories {
		n := slots[i]
		if n == 0 {
			continue
		}
		picked := e.pickTopics(topics, n)
		for _, topic := range picked {
			q, err := e.buildQuestion(topic, category, policy)
			if err != nil {
				return nil, err
			}
			questions = append(questions, q)
		}
	}
	return questions, nil
}

// partition splits count slots over k categories: floor(count/k) each, with
// one extra for exactly the first count%k categories. When count < k only
// the first count categories receive a slot.
func partition(count, k int) []int {
	slots := make([]int, k)
	base := count / k
	rem := count % k
	for i := range slots {
		slots[i] = base
		if i < rem {
			slots[i]++
		}
	}
	return slots
}

// pickTopics selects n topics: a random sample without replacement while the
// unique set lasts, then uniform draws with replacement.
func (e *Engine) pickTopics(topics []string, n int) []string {
	if n <= len(topics) {
		picked := make([]string, 0, n)
		for _, idx := range e.rng.Perm(len(topics))[:n] {
			picked = append(picked, topics[idx])
		}
		return picked
	}

	picked := make([]string, 0, n)
	picked = append(picked, topics...)
	for len(picked) < n {
		picked = append(picked, topics[e.rng.IntN(len(topics))])
	}
	return picked
}

func (e *Engine) buildQuestion(topic string, category model.QuestionCategory, policy model.DifficultyTier) (model.Question, error) {
	tier := policy
	if policy == model.DifficultyMixed {
		tier = e.drawTier()
	}

	level := e.drawLevel(policy)

	tmpl, err := e.pickTemplate(category, level)
	if err != nil {
		return model.Question{}, err
	}

	return model.Question{
		Text:           fmt.Sprintf(tmpl.Text, topic),
		Category:       category,
		Topic:          topic,
		Marks:          model.ComputeMarks(catalog.BaseMarks(category), tier, level),
		CognitiveLevel: level,
		Difficulty:     tier,
	}, nil
}

// drawTier draws a difficulty tier for the mixed policy using the engine's
// configured split.
func (e *Engine) drawTier() model.DifficultyTier {
	switch p := e.rng.IntN(100); {
	case p < e.mix.EasyPct:
		return model.DifficultyEasy
	case p < e.mix.EasyPct+e.mix.MediumPct:
		return model.DifficultyMedium
	default:
		return model.DifficultyHard
	}
}

// drawLevel draws a cognitive level: uniform over the tier-restricted subset
// for a fixed policy, uniform over all six levels for mixed.
func (e *Engine) drawLevel(policy model.DifficultyTier) model.CognitiveLevel {
	pool := model.AllLevels
	if subset, ok := tierLevels[policy]; ok {
		pool = subset
	}
	return pool[e.rng.IntN(len(pool))]
}

// pickTemplate draws a template for the category, preferring templates whose
// pinned level matches the drawn one.
func (e *Engine) pickTemplate(category model.QuestionCategory, level model.CognitiveLevel) (catalog.QuestionTemplate, error) {
	all := catalog.TemplatesFor(category)
	if len(all) == 0 {
		return catalog.QuestionTemplate{}, model.NewError(model.KindInvalidInput, "no templates for category %q", category)
	}

	var matching []catalog.QuestionTemplate
	for _, t := range all {
		if t.Level == "" || t.Level == level {
			matching = append(matching, t)
		}
	}
	if len(matching) == 0 {
		matching = all
	}
	return matching[e.rng.IntN(len(matching))], nil
}
