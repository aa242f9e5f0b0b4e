package repository

import (
	"context"
	"database/sql"

	"github.com/bytetech/academy-backend/internal/model"
)

// MessageView is a thread message plus its author's name.
type MessageView struct {
	model.Message
	AuthorName string
}

// MessageRepo persists thread messages.
type MessageRepo struct{ DB *sql.DB }

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{DB: db} }

// Create inserts a message and fills in its ID.
func (r *MessageRepo) Create(ctx context.Context, m *model.Message) error {
	return withRetry(ctx, func(ctx context.Context) error {
		res, err := r.DB.ExecContext(ctx,
			"INSERT INTO messages (thread_id, user_id, body) VALUES (?,?,?)",
			m.ThreadID, m.UserID, m.Body)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		m.ID = uint64(id)
		return nil
	})
}

// ListByThread returns the messages of a thread in creation order.
func (r *MessageRepo) ListByThread(ctx context.Context, threadID uint64) ([]MessageView, error) {
	var out []MessageView
	err := withRetry(ctx, func(ctx context.Context) error {
		out = out[:0]
		rows, err := r.DB.QueryContext(ctx,
			`SELECT m.id, m.thread_id, m.user_id, m.body, m.created_at, u.username
			   FROM messages m JOIN users u ON u.id = m.user_id
			  WHERE m.thread_id = ?
			  ORDER BY m.created_at, m.id`, threadID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var mv MessageView
			if err := rows.Scan(&mv.ID, &mv.ThreadID, &mv.UserID, &mv.Body, &mv.CreatedAt, &mv.AuthorName); err != nil {
				return err
			}
			out = append(out, mv)
		}
		return rows.Err()
	})
	return out, err
}
