package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avolkov/papergen/internal/model"
)

// LogGeneration writes a generation request together with its question batch
// in a single transaction. If any insert fails the whole batch rolls back
// and no request row remains observable.
func (s *Store) LogGeneration(req model.GenerationRequest, questions []model.Question) (int64, error) {
	categories, err := json.Marshal(req.Categories)
	if err != nil {
		return 0, fmt.Errorf("marshal categories: %w", err)
	}
	topics, err := json.Marshal(req.TopicsUsed)
	if err != nil {
		return 0, fmt.Errorf("marshal topics: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.Exec(
		`INSERT INTO generation_requests
		 (session_id, mode, subject, exam_title, requested_count, total_marks, duration, categories, difficulty, topics_used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.SessionID, req.Mode, req.Subject, req.ExamTitle, req.Count, req.TotalMarks,
		req.Duration, string(categories), req.Difficulty, string(topics), now,
	)
	if err != nil {
		return 0, err
	}
	requestID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, q := range questions {
		_, err := tx.Exec(
			`INSERT INTO generated_questions (request_id, text, category, topic, marks, cognitive_level, difficulty, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			requestID, q.Text, q.Category, q.Topic, q.Marks, q.CognitiveLevel, q.Difficulty, now,
		)
		if err != nil {
			return 0, err
		}
	}

	return requestID, tx.Commit()
}

// LogAnalytics stores the analytics snapshot for a request.
func (s *Store) LogAnalytics(requestID int64, a model.PaperAnalytics) error {
	typeCounts, err := json.Marshal(a.TypeCounts)
	if err != nil {
		return fmt.Errorf("marshal type counts: %w", err)
	}
	topicCounts, err := json.Marshal(a.TopicCounts)
	if err != nil {
		return fmt.Errorf("marshal topic counts: %w", err)
	}
	cognitiveCounts, err := json.Marshal(a.CognitiveCounts)
	if err != nil {
		return fmt.Errorf("marshal cognitive counts: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO analytics_snapshots
		 (request_id, type_counts, topic_counts, cognitive_counts, total_questions, total_marks, quality_score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		requestID, string(typeCounts), string(topicCounts), string(cognitiveCounts),
		a.TotalQuestions, a.TotalMarks, a.QualityScore, time.Now().UTC(),
	)
	return err
}

// GetRequest returns a logged request by id, or nil if absent.
func (s *Store) GetRequest(id int64) (*model.GenerationRequest, error) {
	var req model.GenerationRequest
	var categories, topics string
	err := s.db.QueryRow(
		`SELECT id, session_id, mode, subject, exam_title, requested_count, total_marks, duration, categories, difficulty, topics_used, created_at
		 FROM generation_requests WHERE id = ?`, id,
	).Scan(&req.ID, &req.SessionID, &req.Mode, &req.Subject, &req.ExamTitle, &req.Count,
		&req.TotalMarks, &req.Duration, &categories, &req.Difficulty, &topics, &req.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(categories), &req.Categories); err != nil {
		return nil, fmt.Errorf("unmarshal categories: %w", err)
	}
	if err := json.Unmarshal([]byte(topics), &req.TopicsUsed); err != nil {
		return nil, fmt.Errorf("unmarshal topics: %w", err)
	}
	return &req, nil
}

// GetQuestions returns the question batch for a request, in insert order.
func (s *Store) GetQuestions(requestID int64) ([]model.Question, error) {
	rows, err := s.db.Query(
		`SELECT id, text, category, topic, marks, cognitive_level, difficulty
		 FROM generated_questions WHERE request_id = ? ORDER BY id`, requestID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.Category, &q.Topic, &q.Marks, &q.CognitiveLevel, &q.Difficulty); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetAnalytics returns the stored snapshot for a request, or nil if the
// snapshot was omitted.
func (s *Store) GetAnalytics(requestID int64) (*model.PaperAnalytics, error) {
	var a model.PaperAnalytics
	var typeCounts, topicCounts, cognitiveCounts string
	err := s.db.QueryRow(
		`SELECT type_counts, topic_counts, cognitive_counts, total_questions, total_marks, quality_score
		 FROM analytics_snapshots WHERE request_id = ?`, requestID,
	).Scan(&typeCounts, &topicCounts, &cognitiveCounts, &a.TotalQuestions, &a.TotalMarks, &a.QualityScore)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(typeCounts), &a.TypeCounts); err != nil {
		return nil, fmt.Errorf("unmarshal type counts: %w", err)
	}
	if err := json.Unmarshal([]byte(topicCounts), &a.TopicCounts); err != nil {
		return nil, fmt.Errorf("unmarshal topic counts: %w", err)
	}
	if err := json.Unmarshal([]byte(cognitiveCounts), &a.CognitiveCounts); err != nil {
		return nil, fmt.Errorf("unmarshal cognitive counts: %w", err)
	}
	return &a, nil
}

// LogUpload records metadata about an uploaded file.
func (s *Store) LogUpload(u model.FileUpload) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO file_uploads (session_id, file_name, file_kind, file_size, purpose, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.SessionID, u.FileName, u.FileKind, u.FileSize, u.Purpose, time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// LogExport records a download of a generated paper.
func (s *Store) LogExport(e model.ExportActivity) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO export_activities (request_id, format, file_name, created_at)
		 VALUES (?, ?, ?, ?)`,
		e.RequestID, e.Format, e.FileName, time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// LogFeedback records a user rating. Ratings outside 1..5 are rejected by a
// table constraint.
func (s *Store) LogFeedback(f model.Feedback) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO feedback (session_id, kind, rating, comment, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		f.SessionID, f.Kind, f.Rating, f.Comment, time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
