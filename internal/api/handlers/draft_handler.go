package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/openpost/composer/internal/compose"
	"github.com/openpost/composer/internal/service"
	"github.com/openpost/composer/internal/transfer"
)

type DraftHandler struct {
	s service.DraftService
}

func NewDraftHandler(service service.DraftService) *DraftHandler {
	return &DraftHandler{s: service}
}

func (h *DraftHandler) SaveDraft(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var ds transfer.DraftSave
	if err := c.BodyParser(&ds); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	draftID := c.QueryInt("id", 0)
	if draftID != 0 {
		if err := h.s.Update(c.Context(), userID, int64(draftID), &ds); err != nil {
			return draftError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"id": draftID,
		})
	}

	id, err := h.s.Create(c.Context(), userID, &ds)
	if err != nil {
		return draftError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id": id,
	})
}

func (h *DraftHandler) ListDrafts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	draftID := c.QueryInt("id", 0)

	if draftID != 0 {
		draft, attachments, err := h.s.DraftInfo(c.Context(), int64(draftID), userID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to get draft",
			})
		}

		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"draft":       draft,
			"attachments": attachments,
		})
	}

	drafts, err := h.s.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list drafts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(drafts)
}

func (h *DraftHandler) ConvertDraft(c *fiber.Ctx) error {
	userID := GetUserID(c)
	draftID := c.QueryInt("id", 0)

	postID, err := h.s.ConvertToPost(c.Context(), userID, int64(draftID))
	if err != nil {
		return draftError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"post_id": postID,
		"message": "Draft converted successfully",
	})
}

func (h *DraftHandler) RemoveDraft(c *fiber.Ctx) error {
	userID := GetUserID(c)
	draftID := c.QueryInt("id", 0)

	err := h.s.Remove(c.Context(), userID, int64(draftID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove draft",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func draftError(c *fiber.Ctx, err error) error {
	if compose.IsValidationError(err) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}
