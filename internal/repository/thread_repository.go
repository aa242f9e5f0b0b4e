package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bytetech/academy-backend/internal/model"
)

// ThreadView is a forum listing row: the thread plus its author's name and
// message count.
type ThreadView struct {
	model.Thread
	AuthorName   string
	MessageCount int
}

// ThreadRepo persists per-lesson discussion threads.
type ThreadRepo struct{ DB *sql.DB }

func NewThreadRepo(db *sql.DB) *ThreadRepo { return &ThreadRepo{DB: db} }

// Create inserts a thread and fills in its ID.
func (r *ThreadRepo) Create(ctx context.Context, t *model.Thread) error {
	return withRetry(ctx, func(ctx context.Context) error {
		res, err := r.DB.ExecContext(ctx,
			"INSERT INTO threads (lesson_id, user_id, topic) VALUES (?,?,?)",
			t.LessonID, t.UserID, t.Topic)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		t.ID = uint64(id)
		return nil
	})
}

// GetByID fetches a thread.
func (r *ThreadRepo) GetByID(ctx context.Context, id uint64) (model.Thread, error) {
	var t model.Thread
	err := withRetry(ctx, func(ctx context.Context) error {
		err := r.DB.QueryRowContext(ctx,
			"SELECT id, lesson_id, user_id, topic, created_at FROM threads WHERE id=? LIMIT 1", id).
			Scan(&t.ID, &t.LessonID, &t.UserID, &t.Topic, &t.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	})
	if err != nil {
		return model.Thread{}, err
	}
	return t, nil
}

// ListByLesson returns the threads on a lesson, newest first, with author
// names and message counts.
func (r *ThreadRepo) ListByLesson(ctx context.Context, lessonID uint64) ([]ThreadView, error) {
	var out []ThreadView
	err := withRetry(ctx, func(ctx context.Context) error {
		out = out[:0]
		rows, err := r.DB.QueryContext(ctx,
			`SELECT t.id, t.lesson_id, t.user_id, t.topic, t.created_at, u.username,
			        (SELECT COUNT(*) FROM messages m WHERE m.thread_id = t.id) AS message_count
			   FROM threads t JOIN users u ON u.id = t.user_id
			  WHERE t.lesson_id = ?
			  ORDER BY t.id DESC`, lessonID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var tv ThreadView
			if err := rows.Scan(&tv.ID, &tv.LessonID, &tv.UserID, &tv.Topic, &tv.CreatedAt,
				&tv.AuthorName, &tv.MessageCount); err != nil {
				return err
			}
			out = append(out, tv)
		}
		return rows.Err()
	})
	return out, err
}

// Delete removes a thread; messages cascade.
func (r *ThreadRepo) Delete(ctx context.Context, id uint64) error {
	return withRetry(ctx, func(ctx context.Context) error {
		res, err := r.DB.ExecContext(ctx, "DELETE FROM threads WHERE id=?", id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}
