package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rebloomsa/social-publisher/internal/api/handlers"
	"github.com/rebloomsa/social-publisher/internal/api/middleware"
)

// Setup registers the admin routes. Everything under /api requires an
// admin token.
func Setup(app *fiber.App, auth *middleware.AuthMiddleware, post *handlers.PostHandler, report *handlers.ReportHandler) {
	app.Get("/healthz", handlers.Healthz)

	api := app.Group("/api")
	api.Use(auth.AuthMiddleware())

	api.Get("/posts", post.ListPosts)
	api.Post("/posts", post.CreatePost)
	api.Post("/posts/validate", post.ValidatePost)
	api.Post("/posts/:id/cancel", post.CancelPost)

	api.Get("/report", report.GetReport)
}
