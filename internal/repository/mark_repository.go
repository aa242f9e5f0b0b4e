package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bytetech/academy-backend/internal/model"
)

// MarkRepo tracks last playback positions in 'lesson_marks'.
type MarkRepo struct{ DB *sql.DB }

func NewMarkRepo(db *sql.DB) *MarkRepo { return &MarkRepo{DB: db} }

// GetOrCreate returns the mark for (lesson, user), lazily inserting a
// zero-position row on first access.  Callers must not assume a row exists
// before first playback.
func (r *MarkRepo) GetOrCreate(ctx context.Context, lessonID, userID uint64) (model.LessonMark, error) {
	var m model.LessonMark
	err := withRetry(ctx, func(ctx context.Context) error {
		err := r.DB.QueryRowContext(ctx,
			"SELECT id, user_id, lesson_id, mark_time_seconds FROM lesson_marks WHERE lesson_id=? AND user_id=? LIMIT 1",
			lessonID, userID).Scan(&m.ID, &m.UserID, &m.LessonID, &m.MarkTimeSeconds)
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		// First playback: create the checkpoint at position 0.  The unique
		// key absorbs a concurrent first access.
		if _, err := r.DB.ExecContext(ctx,
			"INSERT IGNORE INTO lesson_marks (user_id, lesson_id, mark_time_seconds) VALUES (?,?,0)",
			userID, lessonID); err != nil {
			return err
		}
		return r.DB.QueryRowContext(ctx,
			"SELECT id, user_id, lesson_id, mark_time_seconds FROM lesson_marks WHERE lesson_id=? AND user_id=? LIMIT 1",
			lessonID, userID).Scan(&m.ID, &m.UserID, &m.LessonID, &m.MarkTimeSeconds)
	})
	return m, err
}

// UpdateTime overwrites the stored position unconditionally.  No
// monotonicity check: a user may legitimately seek backward.
func (r *MarkRepo) UpdateTime(ctx context.Context, markID uint64, seconds uint32) error {
	return withRetry(ctx, func(ctx context.Context) error {
		res, err := r.DB.ExecContext(ctx,
			"UPDATE lesson_marks SET mark_time_seconds=? WHERE id=?", seconds, markID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// Either the mark is gone or the time is unchanged; tell them apart.
			var exists bool
			if err := r.DB.QueryRowContext(ctx,
				"SELECT EXISTS(SELECT 1 FROM lesson_marks WHERE id=?)", markID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return ErrNotFound
			}
		}
		return nil
	})
}

// ListForCourse returns a user's marks for every lesson of a course,
// keyed by lesson id, for the course stats view.
func (r *MarkRepo) ListForCourse(ctx context.Context, userID, courseID uint64) (map[uint64]uint32, error) {
	marks := map[uint64]uint32{}
	err := withRetry(ctx, func(ctx context.Context) error {
		rows, err := r.DB.QueryContext(ctx,
			`SELECT m.lesson_id, m.mark_time_seconds FROM lesson_marks m
			   JOIN lessons l ON l.id = m.lesson_id
			  WHERE m.user_id=? AND l.course_id=?`,
			userID, courseID)
		if err != nil {
			return err
		}
		defer rows.Close()
		clear(marks)
		for rows.Next() {
			var lessonID uint64
			var secs uint32
			if err := rows.Scan(&lessonID, &secs); err != nil {
				return err
			}
			marks[lessonID] = secs
		}
		return rows.Err()
	})
	return marks, err
}
