package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/openpost/composer/internal/compose"
	"github.com/openpost/composer/internal/service"
	"github.com/openpost/composer/internal/transfer"
)

type SplittingHandler struct {
	s service.SplittingService
}

func NewSplittingHandler(service service.SplittingService) *SplittingHandler {
	return &SplittingHandler{s: service}
}

func (h *SplittingHandler) SaveConfig(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var save transfer.SplittingConfigSave
	if err := c.BodyParser(&save); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	configID := c.QueryInt("id", 0)
	if configID != 0 {
		if err := h.s.Update(c.Context(), userID, int64(configID), &save); err != nil {
			return splittingError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"id": configID,
		})
	}

	id, err := h.s.Create(c.Context(), userID, &save)
	if err != nil {
		return splittingError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id": id,
	})
}

func (h *SplittingHandler) ListConfigs(c *fiber.Ctx) error {
	userID := GetUserID(c)

	configs, err := h.s.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list splitting configurations",
		})
	}

	return c.Status(fiber.StatusOK).JSON(configs)
}

func (h *SplittingHandler) PreviewSplit(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.SplitPreviewRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	fragments, err := h.s.Preview(c.Context(), userID, &req)
	if err != nil {
		return splittingError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"fragments": fragments,
	})
}

func (h *SplittingHandler) RemoveConfig(c *fiber.Ctx) error {
	userID := GetUserID(c)
	configID := c.QueryInt("id", 0)

	err := h.s.Remove(c.Context(), userID, int64(configID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove splitting configuration",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func splittingError(c *fiber.Ctx, err error) error {
	if compose.IsValidationError(err) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}
