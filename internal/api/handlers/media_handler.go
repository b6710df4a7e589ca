package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/openpost/composer/internal/models"
	"github.com/openpost/composer/internal/service"
)

type MediaHandler struct {
	s service.MediaService
}

func NewMediaHandler(service service.MediaService) *MediaHandler {
	return &MediaHandler{s: service}
}

func (h *MediaHandler) UploadMedia(c *fiber.Ctx) error {
	userID := GetUserID(c)

	file, err := c.FormFile("file")
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded",
		})
	}

	attachment, err := h.s.Upload(c.Context(), userID, file)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(attachment)
}

func (h *MediaHandler) ListMedia(c *fiber.Ctx) error {
	ownerKind := c.Query("owner_kind")
	ownerID := c.QueryInt("owner_id", 0)

	kind := models.OwnerKind(ownerKind)
	if kind != models.OwnerDraft && kind != models.OwnerPost {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid owner kind",
		})
	}

	attachments, err := h.s.ListByOwner(c.Context(), kind, int64(ownerID))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list attachments",
		})
	}

	return c.Status(fiber.StatusOK).JSON(attachments)
}

func (h *MediaHandler) RemoveMedia(c *fiber.Ctx) error {
	userID := GetUserID(c)
	attachmentID := c.QueryInt("id", 0)

	err := h.s.Remove(c.Context(), userID, int64(attachmentID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove attachment",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
