package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// AdminSubject returns the subject of the admin token set by the auth middleware.
func AdminSubject(c *fiber.Ctx) string {
	subject, _ := c.Locals("admin_subject").(string)
	return subject
}

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}
