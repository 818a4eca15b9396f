package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/rebloomsa/social-publisher/internal/service"
	"github.com/rebloomsa/social-publisher/internal/transfer"
)

type PostHandler struct {
	s service.PostService
}

func NewPostHandler(service service.PostService) *PostHandler {
	return &PostHandler{s: service}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	var pc transfer.PostCreation
	if err := c.BodyParser(&pc); err != nil {
		slog.Error(err.Error())
		return errorJSON(c, fiber.StatusBadRequest, "Unable to parse request body")
	}

	post, err := h.s.Create(c.Context(), &pc)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "Brand guard rejected post",
				"reasons": verr.Reasons,
			})
		case errors.Is(err, service.ErrInvalidRequest):
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		default:
			slog.Error(err.Error())
			return errorJSON(c, fiber.StatusInternalServerError, "Unable to create post")
		}
	}

	slog.Info("post created via admin api", "post_id", post.ID, "by", AdminSubject(c))
	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	posts, err := h.s.List(c.Context(), c.Query("status"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		}
		slog.Error(err.Error())
		return errorJSON(c, fiber.StatusInternalServerError, "Unable to list posts")
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) ValidatePost(c *fiber.Ctx) error {
	var pv transfer.PostValidation
	if err := c.BodyParser(&pv); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Unable to parse request body")
	}

	return c.Status(fiber.StatusOK).JSON(h.s.Validate(&pv))
}

func (h *PostHandler) CancelPost(c *fiber.Ctx) error {
	err := h.s.Cancel(c.Context(), c.Params("id"))
	switch {
	case err == nil:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Post cancelled",
		})
	case errors.Is(err, service.ErrNotFound):
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotPending):
		return errorJSON(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidRequest):
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	default:
		slog.Error(err.Error())
		return errorJSON(c, fiber.StatusInternalServerError, "Unable to cancel post")
	}
}
