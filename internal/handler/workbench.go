package handler

import (
	"errors"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bytetech/academy-backend/internal/config"
	"github.com/bytetech/academy-backend/internal/middleware"
	"github.com/bytetech/academy-backend/internal/model"
	"github.com/bytetech/academy-backend/internal/repository"
	"github.com/bytetech/academy-backend/internal/storage"
)

// WorkbenchHandler holds the sensei-only course authoring endpoints.
type WorkbenchHandler struct {
	Cfg       config.Config
	Courses   *repository.CourseRepo
	Sections  *repository.SectionRepo
	Lessons   *repository.LessonRepo
	Purchases *repository.PurchaseRepo
	Users     *repository.UserRepo
	Media     storage.Store
}

func NewWorkbenchHandler(cfg config.Config, courses *repository.CourseRepo, sections *repository.SectionRepo, lessons *repository.LessonRepo, purchases *repository.PurchaseRepo, users *repository.UserRepo, media storage.Store) *WorkbenchHandler {
	return &WorkbenchHandler{
		Cfg: cfg, Courses: courses, Sections: sections, Lessons: lessons,
		Purchases: purchases, Users: users, Media: media,
	}
}

// saveUpload stores a multipart file under a fresh random name and
// returns the storage reference plus the declared content type.
func (h *WorkbenchHandler) saveUpload(c echo.Context, fh *multipart.FileHeader) (string, string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", "", err
	}
	defer src.Close()

	name, err := storage.UniqueName(filepath.Ext(fh.Filename))
	if err != nil {
		return "", "", err
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ref, err := h.Media.Save(c.Request().Context(), name, src, contentType)
	return ref, contentType, err
}

// ----- DTOs -----

type sectionReq struct {
	CourseID uint64 `json:"course_id" validate:"required"`
	Title    string `json:"title" validate:"required,max=255"`
}
type metadataReq struct {
	Name          string  `json:"name" validate:"omitempty,max=255"`
	Description   string  `json:"description"`
	Price         float64 `json:"price" validate:"omitempty,gte=0"`
	DurationHours float64 `json:"duration_hours" validate:"omitempty,gte=0"`
}
type giveCourseReq struct {
	Email string `json:"email" validate:"required,email"`
}

// ownCourse loads a course and checks the caller authored it.
func (h *WorkbenchHandler) ownCourse(c echo.Context, courseID uint64) (model.Course, int, string) {
	claims, _ := middleware.GetClaims(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	course, err := h.Courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Course{}, http.StatusNotFound, "course not found"
		}
		return model.Course{}, http.StatusInternalServerError, "query failed"
	}
	if course.SenseiID != claims.UserID {
		return model.Course{}, http.StatusForbidden, "not the author"
	}
	return course, 0, ""
}

// NewCourse creates a course from a multipart form carrying the metadata
// fields plus miniature and preview uploads.
func (h *WorkbenchHandler) NewCourse(c echo.Context) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	price, err := strconv.ParseFloat(c.FormValue("price"), 64)
	if err != nil || price < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid price"})
	}
	hours, err := strconv.ParseFloat(c.FormValue("duration_hours"), 64)
	if err != nil || hours < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid duration_hours"})
	}

	course := model.Course{
		SenseiID:      claims.UserID,
		Name:          name,
		Description:   c.FormValue("description"),
		Price:         price,
		DurationHours: hours,
	}

	if fh, err := c.FormFile("miniature"); err == nil {
		ref, _, err := h.saveUpload(c, fh)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store miniature failed"})
		}
		course.MiniatureRef = ref
	}
	if fh, err := c.FormFile("preview"); err == nil {
		ref, _, err := h.saveUpload(c, fh)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store preview failed"})
		}
		course.PreviewRef = ref
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Courses.Create(ctx, &course); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create course failed"})
	}
	// created_at is a DB default; stamp the response instead of re-reading.
	course.CreatedAt = time.Now().UTC()
	return c.JSON(http.StatusCreated, echo.Map{"course": toCoursePart(course)})
}

// EditMetadata updates name/description/price/duration of an authored
// course.  Empty fields keep their current value.
func (h *WorkbenchHandler) EditMetadata(c echo.Context) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	courseID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}
	var req metadataReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	err := h.Courses.UpdateMetadata(ctx, courseID, claims.UserID, strings.TrimSpace(req.Name), req.Description, req.Price, req.DurationHours)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not the author"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	course, err := h.Courses.GetByID(ctx, courseID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"course": toCoursePart(course)})
}

// DeleteCourse removes an authored course.  The database cascades rows;
// stored media is cleaned up best-effort afterwards, logging anything
// that could not be removed.
func (h *WorkbenchHandler) DeleteCourse(c echo.Context) error {
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

	refs, err := h.Courses.FileRefs(ctx, courseID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if err := h.Courses.Delete(ctx, courseID, claims.UserID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not the author"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}

	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := h.Media.Delete(c.Request().Context(), ref); err != nil && !errors.Is(err, storage.ErrNotFound) {
			log.Printf("workbench: delete media %q: %v", ref, err)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// NewSection appends a section to an authored course.
func (h *WorkbenchHandler) NewSection(c echo.Context) error {
	var req sectionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if _, status, msg := h.ownCourse(c, req.CourseID); status != 0 {
		return c.JSON(status, echo.Map{"error": msg})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	section := model.Section{CourseID: req.CourseID, Title: strings.TrimSpace(req.Title)}
	if err := h.Sections.Create(ctx, &section); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create section failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"section": sectionPart{ID: section.ID, CourseID: section.CourseID, Title: section.Title}})
}

// DeleteSection removes a section (and, via cascade, its lessons) from an
// authored course.  Lesson media is cleaned up best-effort.
func (h *WorkbenchHandler) DeleteSection(c echo.Context) error {
	sectionID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid section id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	section, err := h.Sections.GetByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "section not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if _, status, msg := h.ownCourse(c, section.CourseID); status != 0 {
		return c.JSON(status, echo.Map{"error": msg})
	}

	lessons, err := h.Lessons.ListBySection(ctx, sectionID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if err := h.Sections.Delete(ctx, sectionID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}

	for _, l := range lessons {
		if l.FileRef == "" {
			continue
		}
		if err := h.Media.Delete(c.Request().Context(), l.FileRef); err != nil && !errors.Is(err, storage.ErrNotFound) {
			log.Printf("workbench: delete media %q: %v", l.FileRef, err)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// AddLesson uploads the lesson media and creates the lesson inside a
// section of an authored course.  Multipart fields: section_id, title,
// duration_minutes, file.
func (h *WorkbenchHandler) AddLesson(c echo.Context) error {
	sectionID, err := strconv.ParseUint(c.FormValue("section_id"), 10, 64)
	if err != nil || sectionID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid section_id"})
	}
	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}
	minutes, err := strconv.ParseUint(c.FormValue("duration_minutes"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid duration_minutes"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	section, err := h.Sections.GetByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "section not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if _, status, msg := h.ownCourse(c, section.CourseID); status != 0 {
		return c.JSON(status, echo.Map{"error": msg})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file required"})
	}
	ref, contentType, err := h.saveUpload(c, fh)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store file failed"})
	}

	lesson := model.Lesson{
		SectionID:       sectionID,
		CourseID:        section.CourseID,
		Title:           title,
		FileRef:         ref,
		MimeType:        contentType,
		DurationMinutes: uint32(minutes),
	}
	if err := h.Lessons.Create(ctx, &lesson); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create lesson failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"lesson": toLessonPart(lesson)})
}

// DeleteLesson removes a lesson and its stored media.
func (h *WorkbenchHandler) DeleteLesson(c echo.Context) error {
	lessonID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lesson id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	lesson, err := h.Lessons.GetByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "lesson not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if _, status, msg := h.ownCourse(c, lesson.CourseID); status != 0 {
		return c.JSON(status, echo.Map{"error": msg})
	}

	if err := h.Lessons.Delete(ctx, lessonID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if lesson.FileRef != "" {
		if err := h.Media.Delete(c.Request().Context(), lesson.FileRef); err != nil && !errors.Is(err, storage.ErrNotFound) {
			log.Printf("workbench: delete media %q: %v", lesson.FileRef, err)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// GiveCourse grants an authored course to a user by email without a
// payment, e.g. for promotions or support cases.
func (h *WorkbenchHandler) GiveCourse(c echo.Context) error {
	courseID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}
	var req giveCourseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if _, status, msg := h.ownCourse(c, courseID); status != 0 {
		return c.JSON(status, echo.Map{"error": msg})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if _, err := h.Purchases.Grant(ctx, u.ID, courseID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "grant failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "course granted"})
}
