package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bytetech/academy-backend/internal/middleware"
	"github.com/bytetech/academy-backend/internal/model"
	"github.com/bytetech/academy-backend/internal/repository"
)

// ProgressHandler tracks lesson completion and playback positions.
type ProgressHandler struct {
	Courses   *repository.CourseRepo
	Lessons   *repository.LessonRepo
	Purchases *repository.PurchaseRepo
	Progress  *repository.ProgressRepo
	Marks     *repository.MarkRepo
}

func NewProgressHandler(courses *repository.CourseRepo, lessons *repository.LessonRepo, purchases *repository.PurchaseRepo, progress *repository.ProgressRepo, marks *repository.MarkRepo) *ProgressHandler {
	return &ProgressHandler{Courses: courses, Lessons: lessons, Purchases: purchases, Progress: progress, Marks: marks}
}

type markTimeReq struct {
	Seconds uint32 `json:"seconds"`
}

// entitledToCourse reports whether the user bought the course or wrote it.
func (h *ProgressHandler) entitledToCourse(ctx context.Context, userID, courseID uint64) (bool, error) {
	course, err := h.Courses.GetByID(ctx, courseID)
	if err != nil {
		return false, err
	}
	if course.SenseiID == userID {
		return true, nil
	}
	return h.Purchases.Exists(ctx, userID, courseID)
}

// loadEntitledLesson fetches a lesson and checks course entitlement,
// translating failures into a ready-to-send status/message pair.
func (h *ProgressHandler) loadEntitledLesson(ctx context.Context, c echo.Context, lessonID uint64) (model.Lesson, int, string) {
	claims, _ := middleware.GetClaims(c)

	lesson, err := h.Lessons.GetByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Lesson{}, http.StatusNotFound, "lesson not found"
		}
		return model.Lesson{}, http.StatusInternalServerError, "query failed"
	}
	ok, err := h.entitledToCourse(ctx, claims.UserID, lesson.CourseID)
	if err != nil {
		return model.Lesson{}, http.StatusInternalServerError, "query failed"
	}
	if !ok {
		return model.Lesson{}, http.StatusForbidden, "course not owned"
	}
	return lesson, 0, ""
}

// MarkComplete records a lesson as finished.  Repeating the call is a
// no-op thanks to the unique key behind the insert.
func (h *ProgressHandler) MarkComplete(c echo.Context) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	lessonID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lesson id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if _, status, msg := h.loadEntitledLesson(ctx, c, lessonID); status != 0 {
		return c.JSON(status, echo.Map{"error": msg})
	}
	if err := h.Progress.MarkComplete(ctx, claims.UserID, lessonID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mark failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"completed": true})
}

// UnmarkComplete removes a completion.  Unmarking a lesson that was
// never completed answers 404 so the frontend can resync its state.
func (h *ProgressHandler) UnmarkComplete(c echo.Context) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	lessonID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lesson id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if _, status, msg := h.loadEntitledLesson(ctx, c, lessonID); status != 0 {
		return c.JSON(status, echo.Map{"error": msg})
	}
	removed, err := h.Progress.UnmarkComplete(ctx, claims.UserID, lessonID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unmark failed"})
	}
	if !removed {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "lesson not completed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"completed": false})
}

// CompletionStatus reports whether the caller finished a single lesson.
func (h *ProgressHandler) CompletionStatus(c echo.Context) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	lessonID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lesson id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if _, status, msg := h.loadEntitledLesson(ctx, c, lessonID); status != 0 {
		return c.JSON(status, echo.Map{"error": msg})
	}
	done, err := h.Progress.IsComplete(ctx, claims.UserID, lessonID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"lesson_id": lessonID, "completed": done})
}

// CourseProgress returns total/completed lesson counts and the rounded
// percentage for a course.
func (h *ProgressHandler) CourseProgress(c echo.Context) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	courseID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	entitled, err := h.entitledToCourse(ctx, claims.UserID, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !entitled {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "course not owned"})
	}

	progress, err := h.Progress.CourseProgress(ctx, claims.UserID, courseID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, progress)
}

// Stats combines course progress with every playback mark the user has
// in the course, keyed by lesson id.
func (h *ProgressHandler) Stats(c echo.Context) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	courseID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	entitled, err := h.entitledToCourse(ctx, claims.UserID, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !entitled {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "course not owned"})
	}

	progress, err := h.Progress.CourseProgress(ctx, claims.UserID, courseID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	marks, err := h.Marks.ListForCourse(ctx, claims.UserID, courseID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"progress": progress, "mark_times": marks})
}

// GetMark returns the playback position for a lesson, creating a zero
// checkpoint the first time it is asked for.
func (h *ProgressHandler) GetMark(c echo.Context) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	lessonID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lesson id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if _, status, msg := h.loadEntitledLesson(ctx, c, lessonID); status != 0 {
		return c.JSON(status, echo.Map{"error": msg})
	}
	mark, err := h.Marks.GetOrCreate(ctx, lessonID, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"lesson_id": lessonID, "seconds": mark.MarkTimeSeconds})
}

// UpdateMark overwrites the playback position for a lesson.  The new
// value always wins, including rewinds.
func (h *ProgressHandler) UpdateMark(c echo.Context) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	lessonID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lesson id"})
	}
	var req markTimeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if _, status, msg := h.loadEntitledLesson(ctx, c, lessonID); status != 0 {
		return c.JSON(status, echo.Map{"error": msg})
	}
	mark, err := h.Marks.GetOrCreate(ctx, lessonID, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Marks.UpdateTime(ctx, mark.ID, req.Seconds); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"lesson_id": lessonID, "seconds": req.Seconds})
}
