package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bytetech/academy-backend/internal/model"
)

// SectionRepo persists course sections.  Section order is insertion order.
type SectionRepo struct{ DB *sql.DB }

func NewSectionRepo(db *sql.DB) *SectionRepo { return &SectionRepo{DB: db} }

// Create inserts a section and fills in its ID.
func (r *SectionRepo) Create(ctx context.Context, s *model.Section) error {
	return withRetry(ctx, func(ctx context.Context) error {
		res, err := r.DB.ExecContext(ctx,
			"INSERT INTO sections (course_id, title) VALUES (?,?)", s.CourseID, s.Title)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		s.ID = uint64(id)
		return nil
	})
}

// GetByID fetches a section.
func (r *SectionRepo) GetByID(ctx context.Context, id uint64) (model.Section, error) {
	var s model.Section
	err := withRetry(ctx, func(ctx context.Context) error {
		err := r.DB.QueryRowContext(ctx,
			"SELECT id, course_id, title FROM sections WHERE id=? LIMIT 1", id).
			Scan(&s.ID, &s.CourseID, &s.Title)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	})
	if err != nil {
		return model.Section{}, err
	}
	return s, nil
}

// ListByCourse returns the sections of a course in insertion order.
func (r *SectionRepo) ListByCourse(ctx context.Context, courseID uint64) ([]model.Section, error) {
	var out []model.Section
	err := withRetry(ctx, func(ctx context.Context) error {
		out = out[:0]
		rows, err := r.DB.QueryContext(ctx,
			"SELECT id, course_id, title FROM sections WHERE course_id=? ORDER BY id", courseID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var s model.Section
			if err := rows.Scan(&s.ID, &s.CourseID, &s.Title); err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})
	return out, err
}

// Delete removes a section; lessons cascade.
func (r *SectionRepo) Delete(ctx context.Context, id uint64) error {
	return withRetry(ctx, func(ctx context.Context) error {
		res, err := r.DB.ExecContext(ctx, "DELETE FROM sections WHERE id=?", id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}
