package router

import (
	"github.com/labstack/echo/v4"

	"github.com/bytetech/academy-backend/internal/config"
	"github.com/bytetech/academy-backend/internal/handler"
	"github.com/bytetech/academy-backend/internal/middleware"
)

// RegisterWorkbench wires the course-authoring endpoints.  On top of the
// session and verified checks these demand the sensei flag; everyone
// else gets 403.
func RegisterWorkbench(e *echo.Echo, cfg config.Config, w *handler.WorkbenchHandler) {
	g := e.Group("/v1/workbench", middleware.Session(cfg), middleware.RequireVerified(), middleware.RequireSensei())

	g.POST("/courses", w.NewCourse)
	g.PUT("/courses/:id", w.EditMetadata)
	g.DELETE("/courses/:id", w.DeleteCourse)
	g.POST("/courses/:id/give", w.GiveCourse)

	g.POST("/sections", w.NewSection)
	g.DELETE("/sections/:id", w.DeleteSection)

	g.POST("/lessons", w.AddLesson)
	g.DELETE("/lessons/:id", w.DeleteLesson)
}
