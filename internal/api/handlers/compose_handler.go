package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/openpost/composer/internal/compose"
	"github.com/openpost/composer/internal/transfer"
)

type ComposeHandler struct {
	reg *compose.Registry
}

func NewComposeHandler(reg *compose.Registry) *ComposeHandler {
	return &ComposeHandler{reg: reg}
}

// ListPlatforms returns the registry contents so clients can render
// per-platform limits without hardcoding them.
func (h *ComposeHandler) ListPlatforms(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.reg.Platforms())
}

// Validate runs the composition checks the composer UI polls while the
// user types. It never rejects the request for over-limit content.
func (h *ComposeHandler) Validate(c *fiber.Ctx) error {
	var req transfer.ValidateRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	sels, err := compose.ParseSelections([]byte(req.Selections), h.reg)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	checks, err := compose.Check(req.Content, sels, h.reg)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"characterCount": compose.CountChars(req.Content),
		"checks":         checks,
		"canSubmit":      compose.CanSubmit(req.Content, sels, h.reg),
	})
}
