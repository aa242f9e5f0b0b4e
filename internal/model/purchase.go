package model

import "time"

// Purchase mirrors the `purchases` table: one row grants a user access to
// a course.  A unique key on (user_id, course_id) makes grants idempotent
// against duplicate webhook delivery.
type Purchase struct {
	ID        uint64    // purchases.id
	UserID    uint64    // purchases.user_id
	CourseID  uint64    // purchases.course_id
	CreatedAt time.Time // purchases.created_at
}
