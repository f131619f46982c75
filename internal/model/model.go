package model

import (
	"context"
	"math"
	"time"
)

// QuestionCategory classifies a question by its answer format.
type QuestionCategory string

const (
	CategoryMCQ         QuestionCategory = "mcq"
	CategoryShortAnswer QuestionCategory = "short_answer"
	CategoryLongAnswer  QuestionCategory = "long_answer"
	CategoryCaseStudy   QuestionCategory = "case_study"
)

// AllCategories lists every category in canonical order.
var AllCategories = []QuestionCategory{
	CategoryMCQ,
	CategoryShortAnswer,
	CategoryLongAnswer,
	CategoryCaseStudy,
}

// Valid reports whether c is a known category.
func (c QuestionCategory) Valid() bool {
	switch c {
	case CategoryMCQ, CategoryShortAnswer, CategoryLongAnswer, CategoryCaseStudy:
		return true
	}
	return false
}

// CognitiveLevel is one of the six ordered learning-outcome levels.
type CognitiveLevel string

const (
	LevelRemember   CognitiveLevel = "remember"
	LevelUnderstand CognitiveLevel = "understand"
	LevelApply      CognitiveLevel = "apply"
	LevelAnalyze    CognitiveLevel = "analyze"
	LevelEvaluate   CognitiveLevel = "evaluate"
	LevelCreate     CognitiveLevel = "create"
)

// AllLevels lists the cognitive levels from lowest to highest rank.
var AllLevels = []CognitiveLevel{
	LevelRemember,
	LevelUnderstand,
	LevelApply,
	LevelAnalyze,
	LevelEvaluate,
	LevelCreate,
}

// Rank returns the 1-based position of the level in the taxonomy, or 0 for
// an unknown level.
func (l CognitiveLevel) Rank() int {
	for i, lv := range AllLevels {
		if lv == l {
			return i + 1
		}
	}
	return 0
}

// Multiplier returns the mark multiplier for the level: linear from 0.8 at
// Remember to 1.3 at Create.
func (l CognitiveLevel) Multiplier() float64 {
	r := l.Rank()
	if r == 0 {
		return 1.0
	}
	return 0.8 + 0.1*float64(r-1)
}

// DifficultyTier shifts mark values via a multiplier.
type DifficultyTier string

const (
	DifficultyEasy   DifficultyTier = "easy"
	DifficultyMedium DifficultyTier = "medium"
	DifficultyHard   DifficultyTier = "hard"
	// DifficultyMixed is a request policy, never assigned to a question.
	DifficultyMixed DifficultyTier = "mixed"
)

// Multiplier returns the mark multiplier for the tier. Mixed and unknown
// tiers behave as Medium.
func (d DifficultyTier) Multiplier() float64 {
	switch d {
	case DifficultyEasy:
		return 0.8
	case DifficultyHard:
		return 1.2
	}
	return 1.0
}

// ValidPolicy reports whether d is usable as a request difficulty policy.
func (d DifficultyTier) ValidPolicy() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyMixed:
		return true
	}
	return false
}

// ComputeMarks applies the mark invariant: base marks scaled by the
// difficulty and cognitive multipliers, rounded half-to-even, never below 1.
func ComputeMarks(baseMarks int, tier DifficultyTier, level CognitiveLevel) int {
	marks := int(math.RoundToEven(float64(baseMarks) * tier.Multiplier() * level.Multiplier()))
	if marks < 1 {
		return 1
	}
	return marks
}

// Question is a single generated exam question.
type Question struct {
	ID             int64            `json:"id,omitempty"`
	Text           string           `json:"text"`
	Category       QuestionCategory `json:"category"`
	Topic          string           `json:"topic"`
	Marks          int              `json:"marks"`
	CognitiveLevel CognitiveLevel   `json:"cognitive_level"`
	Difficulty     DifficultyTier   `json:"difficulty,omitempty"`
}

// RequestMode distinguishes how a generation request was issued.
type RequestMode string

const (
	ModeAuto     RequestMode = "auto"
	ModeManual   RequestMode = "manual"
	ModeAnalysis RequestMode = "analysis"
)

// GenerationRequest records one paper-generation request.
type GenerationRequest struct {
	ID         int64              `json:"id"`
	SessionID  string             `json:"session_id"`
	Mode       RequestMode        `json:"mode"`
	Subject    string             `json:"subject"`
	ExamTitle  string             `json:"exam_title"`
	Count      int                `json:"requested_count"`
	TotalMarks int                `json:"total_marks"`
	Duration   int                `json:"duration"`
	Categories []QuestionCategory `json:"categories"`
	Difficulty DifficultyTier     `json:"difficulty"`
	TopicsUsed []string           `json:"topics_used"`
	CreatedAt  time.Time          `json:"created_at"`
}

// ComplexityBand buckets the cognitive complexity score.
type ComplexityBand string

const (
	ComplexityLow    ComplexityBand = "low"
	ComplexityMedium ComplexityBand = "medium"
	ComplexityHigh   ComplexityBand = "high"
)

// PaperAnalytics is a derived snapshot for one set of questions.
type PaperAnalytics struct {
	TypeCounts          map[QuestionCategory]int `json:"type_counts"`
	TopicCounts         map[string]int           `json:"topic_counts"`
	CognitiveCounts     map[CognitiveLevel]int   `json:"cognitive_counts"`
	DifficultyCounts    map[DifficultyTier]int   `json:"difficulty_counts"`
	TotalQuestions      int                      `json:"total_questions"`
	TotalMarks          int                      `json:"total_marks"`
	AverageMarks        float64                  `json:"average_marks"`
	TopicWeightage      map[string]float64       `json:"topic_weightage"`
	BalanceScore        float64                  `json:"balance_score"`
	CoverageEfficiency  float64                  `json:"coverage_efficiency"`
	CognitiveComplexity float64                  `json:"cognitive_complexity"`
	ComplexityBand      ComplexityBand           `json:"complexity_band"`
	QualityScore        float64                  `json:"quality_score"`
}

// Session groups one user's requests, uploads, exports and feedback.
type Session struct {
	ID           string    `json:"session_id"`
	UserLabel    string    `json:"user_label,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// PastPaper is one source document of extracted question strings.
type PastPaper struct {
	SourceID  string   `json:"source_id"`
	Year      int      `json:"year,omitempty"`
	Questions []string `json:"questions"`
}

// RecurrenceBand buckets a recurrence probability.
type RecurrenceBand string

const (
	RecurrenceHigh   RecurrenceBand = "high"
	RecurrenceMedium RecurrenceBand = "medium"
	RecurrenceLow    RecurrenceBand = "low"
)

// RecurringQuestion is a question string scored across the corpus.
type RecurringQuestion struct {
	Text        string           `json:"text"`
	Category    QuestionCategory `json:"category"`
	Appearances int              `json:"appearances"`
	Probability float64          `json:"probability"`
	Band        RecurrenceBand   `json:"band"`
}

// TopicFrequency aggregates one topic across the corpus.
type TopicFrequency struct {
	Topic      string  `json:"topic"`
	Count      int     `json:"count"`
	TotalMarks int     `json:"total_marks"`
	Weightage  float64 `json:"weightage"`
}

// DecliningTopic is a topic whose frequency dropped between two
// consecutive corpus years.
type DecliningTopic struct {
	Topic          string  `json:"topic"`
	FromYear       int     `json:"from_year"`
	ToYear         int     `json:"to_year"`
	DeclinePercent float64 `json:"decline_percent"`
}

// Prediction estimates a likely future question for one syllabus topic.
type Prediction struct {
	Topic             string           `json:"topic"`
	PredictedCategory QuestionCategory `json:"predicted_category"`
	Probability       float64          `json:"probability"`
	Confidence        float64          `json:"confidence"`
	RecommendedMarks  int              `json:"recommended_marks"`
}

// RecurrenceReport is the full result of a cross-paper analysis run.
type RecurrenceReport struct {
	PaperCount      int                 `json:"paper_count"`
	QuestionCount   int                 `json:"question_count"`
	Recurring       []RecurringQuestion `json:"recurring_questions"`
	TopicFrequency  []TopicFrequency    `json:"topic_frequency"`
	HotTopics       []TopicFrequency    `json:"hot_topics"`
	DecliningTopics []DecliningTopic    `json:"declining_topics"`
	Predictions     []Prediction        `json:"predictions"`
}

// UploadPurpose marks why a file was uploaded.
type UploadPurpose string

const (
	UploadSyllabus UploadPurpose = "syllabus"
	UploadAnalysis UploadPurpose = "analysis"
)

// FileUpload records metadata about an uploaded document.
type FileUpload struct {
	ID        int64         `json:"id"`
	SessionID string        `json:"session_id"`
	FileName  string        `json:"file_name"`
	FileKind  string        `json:"file_kind"`
	FileSize  int64         `json:"file_size"`
	Purpose   UploadPurpose `json:"purpose"`
	CreatedAt time.Time     `json:"created_at"`
}

// ExportFormat selects one of the downloadable renditions.
type ExportFormat string

const (
	FormatText       ExportFormat = "text"
	FormatStructured ExportFormat = "structured"
	FormatTabular    ExportFormat = "tabular"
)

// Valid reports whether f is a known export format.
func (f ExportFormat) Valid() bool {
	switch f {
	case FormatText, FormatStructured, FormatTabular:
		return true
	}
	return false
}

// ExportActivity records a download of a generated paper.
type ExportActivity struct {
	ID        int64        `json:"id"`
	RequestID int64        `json:"request_id"`
	Format    ExportFormat `json:"format"`
	FileName  string       `json:"file_name"`
	CreatedAt time.Time    `json:"created_at"`
}

// Feedback records a user rating.
type Feedback struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Kind      string    `json:"kind"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// SubjectActivity is one row of the dashboard top-subjects table.
type SubjectActivity struct {
	Subject  string `json:"subject"`
	Requests int    `json:"requests"`
}

// CategoryActivity is one row of the dashboard top-categories table.
type CategoryActivity struct {
	Category  QuestionCategory `json:"category"`
	Questions int              `json:"questions"`
}

// DailyActivity is one day of the dashboard activity series.
type DailyActivity struct {
	Day      string `json:"day"`
	Requests int    `json:"requests"`
}

// DashboardStats aggregates the read-only dashboard view.
type DashboardStats struct {
	TotalSessions  int                 `json:"total_sessions"`
	TotalRequests  int                 `json:"total_requests"`
	TotalQuestions int                 `json:"total_questions"`
	TopSubjects    []SubjectActivity   `json:"top_subjects"`
	TopCategories  []CategoryActivity  `json:"top_categories"`
	Daily          []DailyActivity     `json:"daily_activity"`
	Recent         []GenerationRequest `json:"recent_requests"`
}

type sessionCtxKey struct{}

// ContextWithSession stores a session id in the request context.
func ContextWithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, id)
}

// SessionFromContext retrieves the session id from context, or "".
func SessionFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionCtxKey{}).(string)
	return id
}
