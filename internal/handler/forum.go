package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bytetech/academy-backend/internal/middleware"
	"github.com/bytetech/academy-backend/internal/model"
	"github.com/bytetech/academy-backend/internal/repository"
)

// ForumHandler serves the per-lesson discussion threads.
type ForumHandler struct {
	Courses   *repository.CourseRepo
	Lessons   *repository.LessonRepo
	Purchases *repository.PurchaseRepo
	Threads   *repository.ThreadRepo
	Messages  *repository.MessageRepo
}

func NewForumHandler(courses *repository.CourseRepo, lessons *repository.LessonRepo, purchases *repository.PurchaseRepo, threads *repository.ThreadRepo, messages *repository.MessageRepo) *ForumHandler {
	return &ForumHandler{Courses: courses, Lessons: lessons, Purchases: purchases, Threads: threads, Messages: messages}
}

// ----- DTOs -----

type newThreadReq struct {
	LessonID uint64 `json:"lesson_id" validate:"required"`
	Topic    string `json:"topic" validate:"required,max=255"`
}
type newMessageReq struct {
	Body string `json:"body" validate:"required,max=5000"`
}

type threadPart struct {
	ID           uint64    `json:"id"`
	LessonID     uint64    `json:"lesson_id"`
	AuthorID     uint64    `json:"author_id"`
	AuthorName   string    `json:"author_name"`
	Topic        string    `json:"topic"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type messagePart struct {
	ID         uint64    `json:"id"`
	ThreadID   uint64    `json:"thread_id"`
	AuthorID   uint64    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// lessonAccess checks the caller may read the lesson's forum: buyers and
// the authoring sensei.  Returns the lesson's course for further checks.
func (h *ForumHandler) lessonAccess(ctx context.Context, c echo.Context, lessonID uint64) (model.Course, int, string) {
	claims, _ := middleware.GetClaims(c)

	lesson, err := h.Lessons.GetByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Course{}, http.StatusNotFound, "lesson not found"
		}
		return model.Course{}, http.StatusInternalServerError, "query failed"
	}
	course, err := h.Courses.GetByID(ctx, lesson.CourseID)
	if err != nil {
		return model.Course{}, http.StatusInternalServerError, "query failed"
	}
	if course.SenseiID == claims.UserID {
		return course, 0, ""
	}
	ownsIt, err := h.Purchases.Exists(ctx, claims.UserID, course.ID)
	if err != nil {
		return model.Course{}, http.StatusInternalServerError, "query failed"
	}
	if !ownsIt {
		return model.Course{}, http.StatusForbidden, "course not owned"
	}
	return course, 0, ""
}

// NewThread opens a discussion thread on a lesson.
func (h *ForumHandler) NewThread(c echo.Context) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req newThreadReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if _, status, msg := h.lessonAccess(ctx, c, req.LessonID); status != 0 {
		return c.JSON(status, echo.Map{"error": msg})
	}

	thread := model.Thread{LessonID: req.LessonID, UserID: claims.UserID, Topic: strings.TrimSpace(req.Topic)}
	if err := h.Threads.Create(ctx, &thread); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create thread failed"})
	}
	// created_at is a DB default; stamp the response instead of re-reading.
	return c.JSON(http.StatusCreated, echo.Map{"thread": threadPart{
		ID: thread.ID, LessonID: thread.LessonID, AuthorID: thread.UserID,
		AuthorName: claims.Username, Topic: thread.Topic, CreatedAt: time.Now().UTC(),
	}})
}

// ListThreads lists a lesson's threads, newest first.
func (h *ForumHandler) ListThreads(c echo.Context) error {
	lessonID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lesson id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if _, status, msg := h.lessonAccess(ctx, c, lessonID); status != 0 {
		return c.JSON(status, echo.Map{"error": msg})
	}

	threads, err := h.Threads.ListByLesson(ctx, lessonID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]threadPart, 0, len(threads))
	for _, t := range threads {
		out = append(out, threadPart{
			ID: t.ID, LessonID: t.LessonID, AuthorID: t.UserID,
			AuthorName: t.AuthorName, Topic: t.Topic,
			MessageCount: t.MessageCount, CreatedAt: t.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"threads": out})
}

// DeleteThread removes a thread.  Allowed for the thread author and for
// the sensei of the course the lesson belongs to.
func (h *ForumHandler) DeleteThread(c echo.Context) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	threadID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid thread id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	thread, err := h.Threads.GetByID(ctx, threadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "thread not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if thread.UserID != claims.UserID {
		course, status, msg := h.lessonAccess(ctx, c, thread.LessonID)
		if status != 0 {
			return c.JSON(status, echo.Map{"error": msg})
		}
		if course.SenseiID != claims.UserID {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not the author"})
		}
	}

	if err := h.Threads.Delete(ctx, threadID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// PostMessage appends a message to a thread.
func (h *ForumHandler) PostMessage(c echo.Context) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	threadID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid thread id"})
	}
	var req newMessageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	thread, err := h.Threads.GetByID(ctx, threadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "thread not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if _, status, msg := h.lessonAccess(ctx, c, thread.LessonID); status != 0 {
		return c.JSON(status, echo.Map{"error": msg})
	}

	message := model.Message{ThreadID: threadID, UserID: claims.UserID, Body: strings.TrimSpace(req.Body)}
	if err := h.Messages.Create(ctx, &message); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create message failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": messagePart{
		ID: message.ID, ThreadID: message.ThreadID, AuthorID: message.UserID,
		AuthorName: claims.Username, Body: message.Body, CreatedAt: time.Now().UTC(),
	}})
}

// ListMessages returns a thread's messages in creation order.
func (h *ForumHandler) ListMessages(c echo.Context) error {
	threadID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid thread id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	thread, err := h.Threads.GetByID(ctx, threadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "thread not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if _, status, msg := h.lessonAccess(ctx, c, thread.LessonID); status != 0 {
		return c.JSON(status, echo.Map{"error": msg})
	}

	messages, err := h.Messages.ListByThread(ctx, threadID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]messagePart, 0, len(messages))
	for _, m := range messages {
		out = append(out, messagePart{
			ID: m.ID, ThreadID: m.ThreadID, AuthorID: m.UserID,
			AuthorName: m.AuthorName, Body: m.Body, CreatedAt: m.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": out})
}
