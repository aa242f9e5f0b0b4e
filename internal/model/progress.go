package model

import "time"

// LessonComplete mirrors the `lesson_completes` table.  At most one row
// exists per (user, lesson); marking complete is idempotent, unmarking
// deletes the row.
type LessonComplete struct {
	ID        uint64    // lesson_completes.id
	UserID    uint64    // lesson_completes.user_id
	LessonID  uint64    // lesson_completes.lesson_id
	CreatedAt time.Time // lesson_completes.created_at
}

// LessonMark mirrors the `lesson_marks` table: the last playback position
// of a user in a lesson.  Created lazily with position 0 on first access,
// overwritten unconditionally thereafter (seeking backward is legitimate).
type LessonMark struct {
	ID              uint64 // lesson_marks.id
	UserID          uint64 // lesson_marks.user_id
	LessonID        uint64 // lesson_marks.lesson_id
	MarkTimeSeconds uint32 // lesson_marks.mark_time_seconds
}

// CourseProgress is the aggregate completion state of one user in one
// course.  Percentage is completed/total*100 rounded to two decimals and
// defined as 0 when the course has no lessons.
type CourseProgress struct {
	TotalLessons     int     `json:"total_lessons"`
	CompletedLessons int     `json:"completed_lessons"`
	Percentage       float64 `json:"progress_percentage"`
}
