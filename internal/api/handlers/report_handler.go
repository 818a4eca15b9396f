package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/rebloomsa/social-publisher/internal/service"
)

type ReportHandler struct {
	s service.ReportService
}

func NewReportHandler(service service.ReportService) *ReportHandler {
	return &ReportHandler{s: service}
}

func (h *ReportHandler) GetReport(c *fiber.Ctx) error {
	report, err := h.s.Send(c.Context())
	if err != nil {
		slog.Error(err.Error())
		return errorJSON(c, fiber.StatusInternalServerError, "Unable to build report")
	}

	return c.Status(fiber.StatusOK).JSON(report)
}

func Healthz(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "ok",
	})
}
