package model

import "time"

// Thread mirrors the `threads` table: a discussion started on a specific
// lesson.  Deleting a lesson cascades to its threads and, transitively,
// their messages.
type Thread struct {
	ID        uint64    // threads.id
	LessonID  uint64    // threads.lesson_id
	UserID    uint64    // threads.user_id
	Topic     string    // threads.topic
	CreatedAt time.Time // threads.created_at
}

// Message mirrors the `messages` table.  Messages are ordered by creation
// time within a thread.
type Message struct {
	ID        uint64    // messages.id
	ThreadID  uint64    // messages.thread_id
	UserID    uint64    // messages.user_id
	Body      string    // messages.body
	CreatedAt time.Time // messages.created_at
}
