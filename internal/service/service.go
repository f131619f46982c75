// Package service is the request orchestrator. Each operation validates its
// input, ensures a session, dispatches to the synthesis or analysis core and
// writes the outcome to the store. Requests run end-to-end, one at a time per
// caller; the store serializes concurrent writers.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/avolkov/papergen/internal/analyze"
	"github.com/avolkov/papergen/internal/catalog"
	"github.com/avolkov/papergen/internal/export"
	"github.com/avolkov/papergen/internal/extract"
	"github.com/avolkov/papergen/internal/llm"
	"github.com/avolkov/papergen/internal/model"
	"github.com/avolkov/papergen/internal/store"
	"github.com/avolkov/papergen/internal/synth"
)

// maxQuestionCount caps a single generation request.
const maxQuestionCount = 1000

type Service struct {
	store   *store.Store
	engine  *synth.Engine
	refiner llm.Refiner
	logger  *slog.Logger
}

// Config carries the optional collaborators of a Service.
type Config struct {
	// Seed seeds the synthesis engine. Zero picks a time-based seed.
	Seed uint64
	// Mix overrides the mixed-policy difficulty split. The zero value
	// keeps the default.
	Mix synth.MixSplit
	// Refiner, when non-nil, polishes question text after synthesis.
	// Refiner failures degrade to the unrefined text.
	Refiner llm.Refiner
	Logger  *slog.Logger
}

func New(st *store.Store, cfg Config) *Service {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	mix := cfg.Mix
	if mix == (synth.MixSplit{}) {
		mix = synth.DefaultMixSplit()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   st,
		engine:  synth.NewWithMix(seed, mix),
		refiner: cfg.Refiner,
		logger:  logger,
	}
}

// AutoRequest generates a paper from a catalog subject.
type AutoRequest struct {
	Subject    string                   `json:"subject"`
	Count      int                      `json:"count"`
	Categories []model.QuestionCategory `json:"categories"`
	Difficulty model.DifficultyTier     `json:"difficulty"`
	ExamTitle  string                   `json:"exam_title"`
	Duration   int                      `json:"duration"`
}

// ManualRequest generates a paper from pasted syllabus text.
type ManualRequest struct {
	SyllabusText string                   `json:"syllabus_text"`
	Count        int                      `json:"count"`
	Categories   []model.QuestionCategory `json:"categories"`
	Difficulty   model.DifficultyTier     `json:"difficulty"`
	ExamTitle    string                   `json:"exam_title"`
	SubjectLabel string                   `json:"subject_label"`
	Duration     int                      `json:"duration"`
}

// GenerationResult is the triple returned to the caller: the logged request,
// its question batch and the derived analytics snapshot.
type GenerationResult struct {
	Request   model.GenerationRequest `json:"request"`
	Questions []model.Question        `json:"questions"`
	Analytics model.PaperAnalytics    `json:"analytics"`
	// AnalyticsOmitted is set when the snapshot write failed. The request
	// and its questions are still committed.
	AnalyticsOmitted bool `json:"analytics_omitted,omitempty"`
}

// GenerateAuto builds a paper from one of the built-in subjects.
func (s *Service) GenerateAuto(ctx context.Context, r AutoRequest) (*GenerationResult, error) {
	if err := validateCount(r.Count); err != nil {
		return nil, err
	}
	topics, ok := catalog.TopicsFor(r.Subject)
	if !ok {
		return nil, model.NewError(model.KindInvalidInput, "unknown subject %q", r.Subject)
	}

	title := r.ExamTitle
	if title == "" {
		title = r.Subject + " Examination"
	}
	return s.generate(ctx, model.ModeAuto, r.Subject, title, topics, r.Count, r.Categories, r.Difficulty, r.Duration)
}

// GenerateManual builds a paper from topics extracted out of syllabus text.
// Text that yields no usable topics rejects the request before anything is
// written.
func (s *Service) GenerateManual(ctx context.Context, r ManualRequest) (*GenerationResult, error) {
	if err := validateCount(r.Count); err != nil {
		return nil, err
	}
	topics := extract.Topics(r.SyllabusText)
	if len(topics) == 0 {
		return nil, model.NewError(model.KindInvalidInput, "no topics could be extracted from the syllabus text")
	}

	subject := r.SubjectLabel
	if subject == "" {
		subject = "Custom Syllabus"
	}
	title := r.ExamTitle
	if title == "" {
		title = subject + " Examination"
	}
	return s.generate(ctx, model.ModeManual, subject, title, topics, r.Count, r.Categories, r.Difficulty, r.Duration)
}

func (s *Service) generate(ctx context.Context, mode model.RequestMode, subject, title string,
	topics []string, count int, categories []model.QuestionCategory,
	difficulty model.DifficultyTier, duration int) (*GenerationResult, error) {

	if len(categories) == 0 {
		categories = model.AllCategories
	}
	if difficulty == "" {
		difficulty = model.DifficultyMixed
	}

	sessionID, err := s.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	questions, err := s.engine.Synthesize(topics, count, categories, difficulty)
	if err != nil {
		return nil, err
	}
	s.refine(ctx, questions)

	analytics := analyze.Paper(questions)
	req := model.GenerationRequest{
		SessionID:  sessionID,
		Mode:       mode,
		Subject:    subject,
		ExamTitle:  title,
		Count:      count,
		TotalMarks: analytics.TotalMarks,
		Duration:   duration,
		Categories: categories,
		Difficulty: difficulty,
		TopicsUsed: topicsUsed(questions),
	}

	requestID, err := s.store.LogGeneration(req, questions)
	if err != nil {
		return nil, model.WrapError(model.KindPersistenceFailure, err, "log generation")
	}
	req.ID = requestID
	req.CreatedAt = time.Now().UTC()

	result := &GenerationResult{Request: req, Questions: questions, Analytics: analytics}
	if err := s.store.LogAnalytics(requestID, analytics); err != nil {
		// The request and its questions are already committed. Losing the
		// snapshot is tolerable; it can be recomputed from the questions.
		s.logger.Warn("analytics snapshot not persisted", "request_id", requestID, "error", err)
		result.AnalyticsOmitted = true
	}

	s.logger.Info("paper generated",
		"request_id", requestID, "mode", mode, "subject", subject,
		"questions", len(questions), "total_marks", analytics.TotalMarks)
	return result, nil
}

// refine runs the optional refiner over the batch in place. Any failure
// keeps the synthesized text.
func (s *Service) refine(ctx context.Context, questions []model.Question) {
	if s.refiner == nil {
		return
	}
	for i := range questions {
		text, err := s.refiner.Refine(ctx, questions[i])
		if err != nil {
			s.logger.Warn("question refinement failed, keeping original",
				"topic", questions[i].Topic, "error", err)
			continue
		}
		questions[i].Text = text
	}
}

// AnalyzePastPapers runs the recurrence analysis over a past-paper corpus.
// The run is logged as an analysis request; a logging failure does not
// invalidate the derived report.
func (s *Service) AnalyzePastPapers(ctx context.Context, corpus []model.PastPaper, syllabusTopics []string, opts analyze.Options) (model.RecurrenceReport, error) {
	sessionID, err := s.ensureSession(ctx)
	if err != nil {
		return model.RecurrenceReport{}, err
	}

	report := analyze.Recurrence(corpus, syllabusTopics, opts)

	req := model.GenerationRequest{
		SessionID:  sessionID,
		Mode:       model.ModeAnalysis,
		Count:      report.QuestionCount,
		TopicsUsed: syllabusTopics,
	}
	if _, err := s.store.LogGeneration(req, nil); err != nil {
		s.logger.Warn("analysis run not logged", "error", err)
	}

	s.logger.Info("past papers analyzed",
		"papers", report.PaperCount, "questions", report.QuestionCount,
		"recurring", len(report.Recurring), "predictions", len(report.Predictions))
	return report, nil
}

// Dashboard returns the aggregate activity view.
func (s *Service) Dashboard(f store.DashboardFilters) (model.DashboardStats, error) {
	stats, err := s.store.Dashboard(f)
	if err != nil {
		return model.DashboardStats{}, model.WrapError(model.KindPersistenceFailure, err, "read dashboard")
	}
	return stats, nil
}

// Request reconstructs a logged generation from the store.
func (s *Service) Request(id int64) (*GenerationResult, error) {
	req, err := s.store.GetRequest(id)
	if err != nil {
		return nil, model.WrapError(model.KindPersistenceFailure, err, "read request")
	}
	if req == nil {
		return nil, model.NewError(model.KindNotFound, "request %d not found", id)
	}
	questions, err := s.store.GetQuestions(id)
	if err != nil {
		return nil, model.WrapError(model.KindPersistenceFailure, err, "read questions")
	}

	result := &GenerationResult{Request: *req, Questions: questions}
	snapshot, err := s.store.GetAnalytics(id)
	if err != nil {
		return nil, model.WrapError(model.KindPersistenceFailure, err, "read analytics")
	}
	if snapshot == nil {
		// Snapshot was omitted at write time; recompute from the batch.
		result.Analytics = analyze.Paper(questions)
		result.AnalyticsOmitted = true
	} else {
		result.Analytics = *snapshot
	}
	return result, nil
}

// Export renders a logged paper in the requested format and records the
// download. Returns the blob, its file name and its content type.
func (s *Service) Export(id int64, format model.ExportFormat) ([]byte, string, string, error) {
	if !format.Valid() {
		return nil, "", "", model.NewError(model.KindInvalidInput, "unknown export format %q", format)
	}
	result, err := s.Request(id)
	if err != nil {
		return nil, "", "", err
	}

	meta := model.PaperMeta{
		ExamTitle:   result.Request.ExamTitle,
		Subject:     result.Request.Subject,
		TotalMarks:  result.Request.TotalMarks,
		Duration:    result.Request.Duration,
		GeneratedAt: result.Request.CreatedAt.UTC().Format(time.RFC3339),
	}
	var analytics *model.PaperAnalytics
	if !result.AnalyticsOmitted {
		analytics = &result.Analytics
	}
	blob, err := export.Render(format, meta, result.Questions, analytics)
	if err != nil {
		return nil, "", "", err
	}

	name := export.FileName(result.Request.Subject, format)
	if _, err := s.store.LogExport(model.ExportActivity{RequestID: id, Format: format, FileName: name}); err != nil {
		s.logger.Warn("export activity not logged", "request_id", id, "error", err)
	}
	return blob, name, export.ContentType(format), nil
}

// RecordFeedback validates and stores a user rating.
func (s *Service) RecordFeedback(ctx context.Context, kind string, rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return model.NewError(model.KindInvalidInput, "rating must be between 1 and 5, got %d", rating)
	}
	sessionID, err := s.ensureSession(ctx)
	if err != nil {
		return err
	}
	f := model.Feedback{SessionID: sessionID, Kind: kind, Rating: rating, Comment: comment}
	if _, err := s.store.LogFeedback(f); err != nil {
		return model.WrapError(model.KindPersistenceFailure, err, "log feedback")
	}
	return nil
}

// RecordUpload stores metadata about an uploaded document.
func (s *Service) RecordUpload(ctx context.Context, u model.FileUpload) (int64, error) {
	if u.Purpose != model.UploadSyllabus && u.Purpose != model.UploadAnalysis {
		return 0, model.NewError(model.KindInvalidInput, "unknown upload purpose %q", u.Purpose)
	}
	if u.FileName == "" {
		return 0, model.NewError(model.KindInvalidInput, "upload file name is required")
	}
	sessionID, err := s.ensureSession(ctx)
	if err != nil {
		return 0, err
	}
	u.SessionID = sessionID
	id, err := s.store.LogUpload(u)
	if err != nil {
		return 0, model.WrapError(model.KindPersistenceFailure, err, "log upload")
	}
	return id, nil
}

// EnsureSession returns the session for id, creating one when id is empty or
// unknown, and bumps its activity timestamp.
func (s *Service) EnsureSession(id, userAgent string) (model.Session, error) {
	if id != "" {
		sess, err := s.store.GetSession(id)
		if err != nil {
			return model.Session{}, model.WrapError(model.KindPersistenceFailure, err, "read session")
		}
		if sess != nil {
			if err := s.store.TouchSession(id); err != nil {
				return model.Session{}, model.WrapError(model.KindPersistenceFailure, err, "touch session")
			}
			return *sess, nil
		}
	}
	sess, err := s.store.OpenSession("", userAgent)
	if err != nil {
		return model.Session{}, model.WrapError(model.KindPersistenceFailure, err, "open session")
	}
	return sess, nil
}

// ensureSession resolves the session for the current request context.
func (s *Service) ensureSession(ctx context.Context) (string, error) {
	sess, err := s.EnsureSession(model.SessionFromContext(ctx), "")
	if err != nil {
		return "", err
	}
	return sess.ID, nil
}

func validateCount(count int) error {
	if count < 1 {
		return model.NewError(model.KindInvalidInput, "question count must be at least 1, got %d", count)
	}
	if count > maxQuestionCount {
		return model.NewError(model.KindResourceExhausted, "question count %d exceeds the limit of %d", count, maxQuestionCount)
	}
	return nil
}

// topicsUsed lists the distinct topics of the batch in appearance order.
func topicsUsed(questions []model.Question) []string {
	seen := make(map[string]bool, len(questions))
	var topics []string
	for _, q := range questions {
		if !seen[q.Topic] {
			seen[q.Topic] = true
			topics = append(topics, q.Topic)
		}
	}
	return topics
}
