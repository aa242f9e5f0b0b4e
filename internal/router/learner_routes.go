package router

import (
	"github.com/labstack/echo/v4"

	"github.com/bytetech/academy-backend/internal/config"
	"github.com/bytetech/academy-backend/internal/handler"
	"github.com/bytetech/academy-backend/internal/middleware"
)

// RegisterLearner wires everything a verified account can do: browse
// owned content, buy courses, track progress and use the forums.  All
// routes demand a session plus the verified flag; unverified accounts
// see 428 and know to finish the code flow.
func RegisterLearner(e *echo.Echo, cfg config.Config, ch *handler.CourseHandler, ph *handler.ProgressHandler, fh *handler.ForumHandler, sh *handler.SupportHandler, mh *handler.MediaHandler) {
	g := e.Group("/v1", middleware.Session(cfg), middleware.RequireVerified())

	// courses
	g.GET("/courses/:id/content", ch.Content)
	g.GET("/my-courses", ch.MyCourses)
	g.POST("/courses/:id/buy", ch.BuyCourse)

	// progress
	g.POST("/lessons/:id/complete", ph.MarkComplete)
	g.DELETE("/lessons/:id/complete", ph.UnmarkComplete)
	g.GET("/lessons/:id/complete", ph.CompletionStatus)
	g.GET("/lessons/:id/mark", ph.GetMark)
	g.PUT("/lessons/:id/mark", ph.UpdateMark)
	g.GET("/courses/:id/progress", ph.CourseProgress)
	g.GET("/courses/:id/stats", ph.Stats)

	// forums
	g.POST("/threads", fh.NewThread)
	g.GET("/lessons/:id/threads", fh.ListThreads)
	g.DELETE("/threads/:id", fh.DeleteThread)
	g.POST("/threads/:id/messages", fh.PostMessage)
	g.GET("/threads/:id/messages", fh.ListMessages)

	// media + support
	g.GET("/media/:name", mh.Stream)
	g.POST("/support", sh.SendEmail)
}
