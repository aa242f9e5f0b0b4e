package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bytetech/academy-backend/internal/model"
)

// CatalogCourse is a public catalog row: the course plus its author's name.
type CatalogCourse struct {
	model.Course
	SenseiName string
}

// CourseRepo persists courses.
type CourseRepo struct{ DB *sql.DB }

func NewCourseRepo(db *sql.DB) *CourseRepo { return &CourseRepo{DB: db} }

const courseColumns = "id, sensei_id, name, description, price, duration_hours, miniature_ref, preview_ref, created_at"

// Create inserts a course and fills in its ID.
func (r *CourseRepo) Create(ctx context.Context, c *model.Course) error {
	return withRetry(ctx, func(ctx context.Context) error {
		res, err := r.DB.ExecContext(ctx,
			"INSERT INTO courses (sensei_id, name, description, price, duration_hours, miniature_ref, preview_ref) VALUES (?,?,?,?,?,?,?)",
			c.SenseiID, c.Name, c.Description, c.Price, c.DurationHours, c.MiniatureRef, c.PreviewRef)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		c.ID = uint64(id)
		return nil
	})
}

// GetByID fetches a course.
func (r *CourseRepo) GetByID(ctx context.Context, id uint64) (model.Course, error) {
	var c model.Course
	err := withRetry(ctx, func(ctx context.Context) error {
		err := r.DB.QueryRowContext(ctx,
			"SELECT "+courseColumns+" FROM courses WHERE id=? LIMIT 1", id).
			Scan(&c.ID, &c.SenseiID, &c.Name, &c.Description, &c.Price, &c.DurationHours,
				&c.MiniatureRef, &c.PreviewRef, &c.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	})
	if err != nil {
		return model.Course{}, err
	}
	return c, nil
}

// ListCatalog returns every course with its author's name, newest first.
func (r *CourseRepo) ListCatalog(ctx context.Context) ([]CatalogCourse, error) {
	var out []CatalogCourse
	err := withRetry(ctx, func(ctx context.Context) error {
		out = out[:0]
		rows, err := r.DB.QueryContext(ctx,
			`SELECT c.id, c.sensei_id, c.name, c.description, c.price, c.duration_hours,
			        c.miniature_ref, c.preview_ref, c.created_at, u.username
			   FROM courses c JOIN users u ON u.id = c.sensei_id
			  ORDER BY c.id DESC`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var cc CatalogCourse
			if err := rows.Scan(&cc.ID, &cc.SenseiID, &cc.Name, &cc.Description, &cc.Price,
				&cc.DurationHours, &cc.MiniatureRef, &cc.PreviewRef, &cc.CreatedAt, &cc.SenseiName); err != nil {
				return err
			}
			out = append(out, cc)
		}
		return rows.Err()
	})
	return out, err
}

// UpdateMetadata overwrites the editable metadata fields of a course owned
// by senseiID.  Returns ErrNotFound when the course does not exist or
// belongs to someone else.
func (r *CourseRepo) UpdateMetadata(ctx context.Context, id, senseiID uint64, name, description string, price, hours float64) error {
	return withRetry(ctx, func(ctx context.Context) error {
		res, err := r.DB.ExecContext(ctx,
			"UPDATE courses SET name=?, description=?, price=?, duration_hours=? WHERE id=? AND sensei_id=?",
			name, description, price, hours, id, senseiID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			var owner uint64
			err := r.DB.QueryRowContext(ctx,
				"SELECT sensei_id FROM courses WHERE id=?", id).Scan(&owner)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			if err != nil {
				return err
			}
			if owner != senseiID {
				return ErrForbidden
			}
			// Row exists and is owned; the update was a no-op.
		}
		return nil
	})
}

// FileRefs collects every storage reference attached to a course: the
// miniature, the preview and all lesson media.  Used for best-effort
// cleanup before a cascade delete.
func (r *CourseRepo) FileRefs(ctx context.Context, id uint64) ([]string, error) {
	var refs []string
	err := withRetry(ctx, func(ctx context.Context) error {
		refs = refs[:0]
		var miniature, preview string
		err := r.DB.QueryRowContext(ctx,
			"SELECT miniature_ref, preview_ref FROM courses WHERE id=? LIMIT 1", id).
			Scan(&miniature, &preview)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if miniature != "" {
			refs = append(refs, miniature)
		}
		if preview != "" {
			refs = append(refs, preview)
		}
		rows, err := r.DB.QueryContext(ctx,
			"SELECT file_ref FROM lessons WHERE course_id=? AND file_ref <> ''", id)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var ref string
			if err := rows.Scan(&ref); err != nil {
				return err
			}
			refs = append(refs, ref)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// Delete removes a course owned by senseiID.  Foreign keys cascade to
// sections, lessons, threads, messages and purchases.
func (r *CourseRepo) Delete(ctx context.Context, id, senseiID uint64) error {
	return withRetry(ctx, func(ctx context.Context) error {
		res, err := r.DB.ExecContext(ctx,
			"DELETE FROM courses WHERE id=? AND sensei_id=?", id, senseiID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			var owner uint64
			err := r.DB.QueryRowContext(ctx,
				"SELECT sensei_id FROM courses WHERE id=?", id).Scan(&owner)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			if err != nil {
				return err
			}
			return ErrForbidden
		}
		return nil
	})
}
