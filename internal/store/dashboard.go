package store

import (
	"encoding/json"
	"fmt"

	"github.com/avolkov/papergen/internal/model"
)

// DashboardFilters bounds the aggregations behind the dashboard view.
type DashboardFilters struct {
	TopN        int
	DailyDays   int
	RecentLimit int
}

// DefaultDashboardFilters returns the standard dashboard window.
func DefaultDashboardFilters() DashboardFilters {
	return DashboardFilters{TopN: 5, DailyDays: 14, RecentLimit: 10}
}

// Dashboard assembles the read-only aggregations backing the dashboard.
func (s *Store) Dashboard(f DashboardFilters) (model.DashboardStats, error) {
	var stats model.DashboardStats
	var err error

	if stats.TotalSessions, err = s.SessionCount(); err != nil {
		return stats, fmt.Errorf("count sessions: %w", err)
	}
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM generation_requests`).Scan(&stats.TotalRequests); err != nil {
		return stats, fmt.Errorf("count requests: %w", err)
	}
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM generated_questions`).Scan(&stats.TotalQuestions); err != nil {
		return stats, fmt.Errorf("count questions: %w", err)
	}

	if stats.TopSubjects, err = s.topSubjects(f.TopN); err != nil {
		return stats, fmt.Errorf("top subjects: %w", err)
	}
	if stats.TopCategories, err = s.topCategories(f.TopN); err != nil {
		return stats, fmt.Errorf("top categories: %w", err)
	}
	if stats.Daily, err = s.dailyActivity(f.DailyDays); err != nil {
		return stats, fmt.Errorf("daily activity: %w", err)
	}
	if stats.Recent, err = s.recentRequests(f.RecentLimit); err != nil {
		return stats, fmt.Errorf("recent requests: %w", err)
	}
	return stats, nil
}

func (s *Store) topSubjects(limit int) ([]model.SubjectActivity, error) {
	rows, err := s.db.Query(
		`SELECT subject, COUNT(*) AS n FROM generation_requests
		 WHERE subject != ''
		 GROUP BY subject ORDER BY n DESC, subject LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.SubjectActivity
	for rows.Next() {
		var sa model.SubjectActivity
		if err := rows.Scan(&sa.Subject, &sa.Requests); err != nil {
			return nil, err
		}
		out = append(out, sa)
	}
	return out, rows.Err()
}

func (s *Store) topCategories(limit int) ([]model.CategoryActivity, error) {
	rows, err := s.db.Query(
		`SELECT category, COUNT(*) AS n FROM generated_questions
		 GROUP BY category ORDER BY n DESC, category LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.CategoryActivity
	for rows.Next() {
		var ca model.CategoryActivity
		if err := rows.Scan(&ca.Category, &ca.Questions); err != nil {
			return nil, err
		}
		out = append(out, ca)
	}
	return out, rows.Err()
}

func (s *Store) dailyActivity(days int) ([]model.DailyActivity, error) {
	rows, err := s.db.Query(
		`SELECT strftime('%Y-%m-%d', created_at) AS day, COUNT(*) AS n
		 FROM generation_requests
		 WHERE created_at >= datetime('now', ?)
		 GROUP BY day ORDER BY day`, fmt.Sprintf("-%d days", days),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.DailyActivity
	for rows.Next() {
		var da model.DailyActivity
		if err := rows.Scan(&da.Day, &da.Requests); err != nil {
			return nil, err
		}
		out = append(out, da)
	}
	return out, rows.Err()
}

func (s *Store) recentRequests(limit int) ([]model.GenerationRequest, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, mode, subject, exam_title, requested_count, total_marks, duration, categories, difficulty, topics_used, created_at
		 FROM generation_requests ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.GenerationRequest
	for rows.Next() {
		var req model.GenerationRequest
		var categories, topics string
		if err := rows.Scan(&req.ID, &req.SessionID, &req.Mode, &req.Subject, &req.ExamTitle,
			&req.Count, &req.TotalMarks, &req.Duration, &categories, &req.Difficulty, &topics, &req.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(categories), &req.Categories); err != nil {
			return nil, fmt.Errorf("unmarshal categories: %w", err)
		}
		if err := json.Unmarshal([]byte(topics), &req.TopicsUsed); err != nil {
			return nil, fmt.Errorf("unmarshal topics: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}
