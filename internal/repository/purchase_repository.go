package repository

import (
	"context"
	"database/sql"

	"github.com/bytetech/academy-backend/internal/model"
)

// OwnedCourse is a catalog row for a learner: the course, the name of its
// author and the learner's completion progress.
type OwnedCourse struct {
	model.Course
	SenseiName string
	Progress   model.CourseProgress
}

// AuthoredCourse is a workbench row for a sensei: the course plus how many
// learners hold an entitlement to it.
type AuthoredCourse struct {
	model.Course
	Sales int
}

// PurchaseRepo is the entitlement ledger.  A unique key on
// (user_id, course_id) makes Grant idempotent: the database enforces the
// invariant, not an application-level check-then-insert.
type PurchaseRepo struct{ DB *sql.DB }

func NewPurchaseRepo(db *sql.DB) *PurchaseRepo { return &PurchaseRepo{DB: db} }

// Grant records an entitlement for (userID, courseID).  Called twice for
// the same logical purchase — webhooks are delivered at least once — it
// returns the existing row instead of erroring or duplicating.
func (r *PurchaseRepo) Grant(ctx context.Context, userID, courseID uint64) (model.Purchase, error) {
	err := withRetry(ctx, func(ctx context.Context) error {
		// INSERT IGNORE swallows only the duplicate-key violation; any
		// other failure still surfaces.
		_, err := r.DB.ExecContext(ctx,
			"INSERT IGNORE INTO purchases (user_id, course_id) VALUES (?,?)",
			userID, courseID)
		return err
	})
	if err != nil {
		return model.Purchase{}, err
	}
	var p model.Purchase
	err = withRetry(ctx, func(ctx context.Context) error {
		return r.DB.QueryRowContext(ctx,
			"SELECT id, user_id, course_id, created_at FROM purchases WHERE user_id=? AND course_id=? LIMIT 1",
			userID, courseID).Scan(&p.ID, &p.UserID, &p.CourseID, &p.CreatedAt)
	})
	return p, err
}

// Exists answers "does user X own course Y".
func (r *PurchaseRepo) Exists(ctx context.Context, userID, courseID uint64) (bool, error) {
	var exists bool
	err := withRetry(ctx, func(ctx context.Context) error {
		return r.DB.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM purchases WHERE user_id=? AND course_id=?)",
			userID, courseID).Scan(&exists)
	})
	return exists, err
}

// ListForUser returns the courses a learner owns, each with the author's
// name and the learner's completion progress.
func (r *PurchaseRepo) ListForUser(ctx context.Context, userID uint64) ([]OwnedCourse, error) {
	const q = `
		SELECT c.id, c.sensei_id, c.name, c.description, c.price, c.duration_hours,
		       c.miniature_ref, c.preview_ref, c.created_at, u.username,
		       (SELECT COUNT(*) FROM lessons l WHERE l.course_id = c.id) AS total_lessons,
		       (SELECT COUNT(*) FROM lesson_completes lc
		          JOIN lessons l2 ON l2.id = lc.lesson_id
		         WHERE lc.user_id = p.user_id AND l2.course_id = c.id) AS completed_lessons
		  FROM purchases p
		  JOIN courses c ON c.id = p.course_id
		  JOIN users u  ON u.id = c.sensei_id
		 WHERE p.user_id = ?
		 ORDER BY p.id`
	var out []OwnedCourse
	err := withRetry(ctx, func(ctx context.Context) error {
		rows, err := r.DB.QueryContext(ctx, q, userID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = out[:0] // retry restarts the scan
		for rows.Next() {
			var oc OwnedCourse
			if err := rows.Scan(&oc.ID, &oc.SenseiID, &oc.Name, &oc.Description, &oc.Price,
				&oc.DurationHours, &oc.MiniatureRef, &oc.PreviewRef, &oc.CreatedAt,
				&oc.SenseiName, &oc.Progress.TotalLessons, &oc.Progress.CompletedLessons); err != nil {
				return err
			}
			oc.Progress.Percentage = Percentage(oc.Progress.TotalLessons, oc.Progress.CompletedLessons)
			out = append(out, oc)
		}
		return rows.Err()
	})
	return out, err
}

// ListForSensei returns the courses authored by a user together with the
// number of entitlements sold for each.
func (r *PurchaseRepo) ListForSensei(ctx context.Context, senseiID uint64) ([]AuthoredCourse, error) {
	const q = `
		SELECT c.id, c.sensei_id, c.name, c.description, c.price, c.duration_hours,
		       c.miniature_ref, c.preview_ref, c.created_at,
		       (SELECT COUNT(*) FROM purchases p WHERE p.course_id = c.id) AS sales
		  FROM courses c
		 WHERE c.sensei_id = ?
		 ORDER BY c.id`
	var out []AuthoredCourse
	err := withRetry(ctx, func(ctx context.Context) error {
		rows, err := r.DB.QueryContext(ctx, q, senseiID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = out[:0]
		for rows.Next() {
			var ac AuthoredCourse
			if err := rows.Scan(&ac.ID, &ac.SenseiID, &ac.Name, &ac.Description, &ac.Price,
				&ac.DurationHours, &ac.MiniatureRef, &ac.PreviewRef, &ac.CreatedAt, &ac.Sales); err != nil {
				return err
			}
			out = append(out, ac)
		}
		return rows.Err()
	})
	return out, err
}
