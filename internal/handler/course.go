package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bytetech/academy-backend/internal/config"
	"github.com/bytetech/academy-backend/internal/middleware"
	"github.com/bytetech/academy-backend/internal/model"
	"github.com/bytetech/academy-backend/internal/payment"
	"github.com/bytetech/academy-backend/internal/repository"
)

// CourseHandler serves the public catalog, course content for entitled
// users, ownership listings and the checkout entry point.
type CourseHandler struct {
	Cfg       config.Config
	Courses   *repository.CourseRepo
	Sections  *repository.SectionRepo
	Lessons   *repository.LessonRepo
	Purchases *repository.PurchaseRepo
	Progress  *repository.ProgressRepo
	Checkout  *payment.Client
}

func NewCourseHandler(cfg config.Config, courses *repository.CourseRepo, sections *repository.SectionRepo, lessons *repository.LessonRepo, purchases *repository.PurchaseRepo, progress *repository.ProgressRepo, checkout *payment.Client) *CourseHandler {
	return &CourseHandler{
		Cfg: cfg, Courses: courses, Sections: sections, Lessons: lessons,
		Purchases: purchases, Progress: progress, Checkout: checkout,
	}
}

// ----- response DTOs (models carry no json tags) -----

type coursePart struct {
	ID            uint64    `json:"id"`
	SenseiID      uint64    `json:"sensei_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	DurationHours float64   `json:"duration_hours"`
	Miniature     string    `json:"miniature"`
	Preview       string    `json:"preview"`
	CreatedAt     time.Time `json:"created_at"`
}

func toCoursePart(c model.Course) coursePart {
	return coursePart{
		ID: c.ID, SenseiID: c.SenseiID, Name: c.Name, Description: c.Description,
		Price: c.Price, DurationHours: c.DurationHours,
		Miniature: c.MiniatureRef, Preview: c.PreviewRef, CreatedAt: c.CreatedAt,
	}
}

type sectionPart struct {
	ID       uint64 `json:"id"`
	CourseID uint64 `json:"course_id"`
	Title    string `json:"title"`
}

type lessonPart struct {
	ID              uint64 `json:"id"`
	SectionID       uint64 `json:"section_id"`
	Title           string `json:"title"`
	File            string `json:"file"`
	MimeType        string `json:"mime_type"`
	DurationMinutes uint32 `json:"duration_minutes"`
}

func toLessonPart(l model.Lesson) lessonPart {
	return lessonPart{
		ID: l.ID, SectionID: l.SectionID, Title: l.Title,
		File: l.FileRef, MimeType: l.MimeType, DurationMinutes: l.DurationMinutes,
	}
}

type catalogCoursePart struct {
	coursePart
	SenseiName string `json:"sensei_name"`
	Owned      bool   `json:"owned"`
}

type contentLesson struct {
	lessonPart
	Completed bool `json:"completed"`
}

type contentSection struct {
	sectionPart
	Lessons []contentLesson `json:"lessons"`
}

type ownedCoursePart struct {
	coursePart
	SenseiName string               `json:"sensei_name"`
	Progress   model.CourseProgress `json:"progress"`
}

type authoredCoursePart struct {
	coursePart
	Sales int `json:"sales"`
}

// Catalog lists every course, newest first.  When a session cookie is
// present each entry also says whether the caller already owns it.
func (h *CourseHandler) Catalog(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	courses, err := h.Courses.ListCatalog(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	owned := map[uint64]bool{}
	if claims, ok := middleware.GetClaims(c); ok {
		mine, err := h.Purchases.ListForUser(ctx, claims.UserID)
		if err == nil {
			for _, p := range mine {
				owned[p.ID] = true
			}
		}
	}

	out := make([]catalogCoursePart, 0, len(courses))
	for _, cc := range courses {
		out = append(out, catalogCoursePart{
			coursePart: toCoursePart(cc.Course),
			SenseiName: cc.SenseiName,
			Owned:      owned[cc.ID],
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"courses": out})
}

// Content returns the section/lesson tree of a course with per-lesson
// completion flags.  Only buyers and the authoring sensei get through.
func (h *CourseHandler) Content(c echo.Context) error {
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

	course, err := h.Courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if course.SenseiID != claims.UserID {
		ownsIt, err := h.Purchases.Exists(ctx, claims.UserID, courseID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		if !ownsIt {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "course not owned"})
		}
	}

	sections, err := h.Sections.ListByCourse(ctx, courseID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	lessons, err := h.Lessons.ListByCourse(ctx, courseID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	done, err := h.Progress.CompletedLessonIDs(ctx, claims.UserID, courseID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	bySection := map[uint64][]contentLesson{}
	for _, l := range lessons {
		bySection[l.SectionID] = append(bySection[l.SectionID], contentLesson{
			lessonPart: toLessonPart(l),
			Completed:  done[l.ID],
		})
	}
	out := make([]contentSection, 0, len(sections))
	for _, s := range sections {
		ls := bySection[s.ID]
		if ls == nil {
			ls = []contentLesson{}
		}
		out = append(out, contentSection{
			sectionPart: sectionPart{ID: s.ID, CourseID: s.CourseID, Title: s.Title},
			Lessons:     ls,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"course": toCoursePart(course), "sections": out})
}

// MyCourses lists the caller's purchased courses with progress.  A sensei
// asking for ?view=authored gets their own courses with sales counts
// instead.
func (h *CourseHandler) MyCourses(c echo.Context) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if claims.IsSensei && c.QueryParam("view") == "authored" {
		courses, err := h.Purchases.ListForSensei(ctx, claims.UserID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		out := make([]authoredCoursePart, 0, len(courses))
		for _, ac := range courses {
			out = append(out, authoredCoursePart{coursePart: toCoursePart(ac.Course), Sales: ac.Sales})
		}
		return c.JSON(http.StatusOK, echo.Map{"courses": out})
	}

	courses, err := h.Purchases.ListForUser(ctx, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]ownedCoursePart, 0, len(courses))
	for _, oc := range courses {
		out = append(out, ownedCoursePart{
			coursePart: toCoursePart(oc.Course),
			SenseiName: oc.SenseiName,
			Progress:   oc.Progress,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"courses": out})
}

// BuyCourse opens a checkout session for a course the caller does not
// own yet and returns the redirect URL.  Ownership answers 409 so the
// frontend can send the buyer straight to the content instead.
func (h *CourseHandler) BuyCourse(c echo.Context) error {
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

	course, err := h.Courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if course.SenseiID == claims.UserID {
		return c.JSON(http.StatusConflict, echo.Map{"error": "cannot buy own course"})
	}

	ownsIt, err := h.Purchases.Exists(ctx, claims.UserID, courseID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if ownsIt {
		return c.JSON(http.StatusConflict, echo.Map{"error": "course already owned"})
	}

	url, err := h.Checkout.CreateCheckoutSession(c.Request().Context(), payment.CheckoutParams{
		UserID:     claims.UserID,
		CourseID:   course.ID,
		CourseName: course.Name,
		PriceCents: int64(course.Price * 100),
	})
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "checkout session failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"checkout_url": url})
}
