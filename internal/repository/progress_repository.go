package repository

import (
	"context"
	"database/sql"
	"math"

	"github.com/bytetech/academy-backend/internal/model"
)

// Percentage computes completed/total*100 rounded to two decimals.  A
// course with no lessons reports 0, not a division error.
func Percentage(total, completed int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*100*100) / 100
}

// ProgressRepo tracks per-user per-lesson completion in 'lesson_completes'.
type ProgressRepo struct{ DB *sql.DB }

func NewProgressRepo(db *sql.DB) *ProgressRepo { return &ProgressRepo{DB: db} }

// MarkComplete records completion of a lesson.  The unique key on
// (user_id, lesson_id) makes repeated calls a no-op.
func (r *ProgressRepo) MarkComplete(ctx context.Context, userID, lessonID uint64) error {
	return withRetry(ctx, func(ctx context.Context) error {
		_, err := r.DB.ExecContext(ctx,
			"INSERT IGNORE INTO lesson_completes (user_id, lesson_id) VALUES (?,?)",
			userID, lessonID)
		return err
	})
}

// UnmarkComplete removes a completion row, reporting whether one existed.
func (r *ProgressRepo) UnmarkComplete(ctx context.Context, userID, lessonID uint64) (bool, error) {
	var removed bool
	err := withRetry(ctx, func(ctx context.Context) error {
		res, err := r.DB.ExecContext(ctx,
			"DELETE FROM lesson_completes WHERE user_id=? AND lesson_id=?",
			userID, lessonID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		removed = n > 0
		return nil
	})
	return removed, err
}

// IsComplete reports whether a user finished a lesson.
func (r *ProgressRepo) IsComplete(ctx context.Context, userID, lessonID uint64) (bool, error) {
	var done bool
	err := withRetry(ctx, func(ctx context.Context) error {
		return r.DB.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM lesson_completes WHERE user_id=? AND lesson_id=?)",
			userID, lessonID).Scan(&done)
	})
	return done, err
}

// CourseProgress returns the aggregate completion of a user in a course.
func (r *ProgressRepo) CourseProgress(ctx context.Context, userID, courseID uint64) (model.CourseProgress, error) {
	var p model.CourseProgress
	err := withRetry(ctx, func(ctx context.Context) error {
		if err := r.DB.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM lessons WHERE course_id=?", courseID).Scan(&p.TotalLessons); err != nil {
			return err
		}
		return r.DB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM lesson_completes lc
			   JOIN lessons l ON l.id = lc.lesson_id
			  WHERE lc.user_id=? AND l.course_id=?`,
			userID, courseID).Scan(&p.CompletedLessons)
	})
	if err != nil {
		return model.CourseProgress{}, err
	}
	p.Percentage = Percentage(p.TotalLessons, p.CompletedLessons)
	return p, nil
}

// CompletedLessonIDs returns the set of lessons a user finished within a
// course, for per-lesson completion flags in the content view.
func (r *ProgressRepo) CompletedLessonIDs(ctx context.Context, userID, courseID uint64) (map[uint64]bool, error) {
	done := map[uint64]bool{}
	err := withRetry(ctx, func(ctx context.Context) error {
		rows, err := r.DB.QueryContext(ctx,
			`SELECT lc.lesson_id FROM lesson_completes lc
			   JOIN lessons l ON l.id = lc.lesson_id
			  WHERE lc.user_id=? AND l.course_id=?`,
			userID, courseID)
		if err != nil {
			return err
		}
		defer rows.Close()
		clear(done)
		for rows.Next() {
			var id uint64
			if err := rows.Scan(&id); err != nil {
				return err
			}
			done[id] = true
		}
		return rows.Err()
	})
	return done, err
}
