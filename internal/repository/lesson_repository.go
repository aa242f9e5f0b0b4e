package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bytetech/academy-backend/internal/model"
)

// LessonRepo persists lessons.
type LessonRepo struct{ DB *sql.DB }

func NewLessonRepo(db *sql.DB) *LessonRepo { return &LessonRepo{DB: db} }

const lessonColumns = "id, section_id, course_id, title, file_ref, mime_type, duration_minutes"

// Create inserts a lesson and fills in its ID.  CourseID is stored
// denormalized next to SectionID for query convenience.
func (r *LessonRepo) Create(ctx context.Context, l *model.Lesson) error {
	return withRetry(ctx, func(ctx context.Context) error {
		res, err := r.DB.ExecContext(ctx,
			"INSERT INTO lessons (section_id, course_id, title, file_ref, mime_type, duration_minutes) VALUES (?,?,?,?,?,?)",
			l.SectionID, l.CourseID, l.Title, l.FileRef, l.MimeType, l.DurationMinutes)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		l.ID = uint64(id)
		return nil
	})
}

// GetByID fetches a lesson.
func (r *LessonRepo) GetByID(ctx context.Context, id uint64) (model.Lesson, error) {
	var l model.Lesson
	err := withRetry(ctx, func(ctx context.Context) error {
		err := r.DB.QueryRowContext(ctx,
			"SELECT "+lessonColumns+" FROM lessons WHERE id=? LIMIT 1", id).
			Scan(&l.ID, &l.SectionID, &l.CourseID, &l.Title, &l.FileRef, &l.MimeType, &l.DurationMinutes)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	})
	if err != nil {
		return model.Lesson{}, err
	}
	return l, nil
}

// ListByCourse returns every lesson of a course in insertion order.
func (r *LessonRepo) ListByCourse(ctx context.Context, courseID uint64) ([]model.Lesson, error) {
	return r.list(ctx, "course_id", courseID)
}

// ListBySection returns the lessons of one section in insertion order.
func (r *LessonRepo) ListBySection(ctx context.Context, sectionID uint64) ([]model.Lesson, error) {
	return r.list(ctx, "section_id", sectionID)
}

func (r *LessonRepo) list(ctx context.Context, column string, id uint64) ([]model.Lesson, error) {
	var out []model.Lesson
	err := withRetry(ctx, func(ctx context.Context) error {
		out = out[:0]
		rows, err := r.DB.QueryContext(ctx,
			"SELECT "+lessonColumns+" FROM lessons WHERE "+column+"=? ORDER BY id", id)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var l model.Lesson
			if err := rows.Scan(&l.ID, &l.SectionID, &l.CourseID, &l.Title, &l.FileRef, &l.MimeType, &l.DurationMinutes); err != nil {
				return err
			}
			out = append(out, l)
		}
		return rows.Err()
	})
	return out, err
}

// Delete removes a lesson; threads and messages cascade.
func (r *LessonRepo) Delete(ctx context.Context, id uint64) error {
	return withRetry(ctx, func(ctx context.Context) error {
		res, err := r.DB.ExecContext(ctx, "DELETE FROM lessons WHERE id=?", id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}
