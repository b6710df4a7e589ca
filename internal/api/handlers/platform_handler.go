package handlers

import (
	"fmt"
	"log"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	config "github.com/openpost/composer/configs"
	"github.com/openpost/composer/internal/compose"
	"github.com/openpost/composer/internal/service"
	"github.com/openpost/composer/pkg/utils"
)

type PlatformHandler struct {
	ps  service.PlatformService
	bs  service.BlueskyService
	ms  service.MastodonService
	ts  service.ThreadsService
	cfg config.Config
}

func NewPlatformHandler(ps service.PlatformService, bs service.BlueskyService, ms service.MastodonService, ts service.ThreadsService, cfg config.Config) *PlatformHandler {
	return &PlatformHandler{
		ps:  ps,
		bs:  bs,
		ms:  ms,
		ts:  ts,
		cfg: cfg,
	}
}

func (h *PlatformHandler) AddSocialAccount(c *fiber.Ctx) error {
	platform := c.Params("platform")
	instanceURL := c.Query("instance")

	authURL := h.ps.GetAuthURL(c.Context(), platform, instanceURL, c.Query("state"))
	if authURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown platform",
		})
	}
	return c.Redirect(authURL)
}

// LinkBlueskyAccount covers the one platform without an OAuth redirect.
// The client posts a handle and app password instead.
func (h *PlatformHandler) LinkBlueskyAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var body struct {
		Handle      string `json:"handle"`
		AppPassword string `json:"app_password"`
	}
	if err := c.BodyParser(&body); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if err := h.bs.LinkAccount(c.Context(), userID, body.Handle, body.AppPassword); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to link account",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *PlatformHandler) CallbackHandler(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	platform := c.Params("platform")

	claims, err := utils.ValidateToken(h.cfg.SecretKey, state)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to validate user",
		})
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to validate user",
		})
	}

	switch platform {
	case compose.PlatformMastodon:
		err = h.ms.MastodonCallback(c.Context(), code, c.Query("instance"), userID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "something went wrong",
			})
		}
	case compose.PlatformThreads:
		err = h.ts.ThreadsCallback(c.Context(), code, userID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "something went wrong",
			})
		}
	}

	redirectURL := fmt.Sprintf("%s/dashboard/accounts", h.cfg.FrontendURL)
	return c.Redirect(redirectURL, fiber.StatusTemporaryRedirect)
}

func (h *PlatformHandler) ListSocialAccounts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	accountList, err := h.ps.List(c.Context(), userID)
	if err != nil {
		log.Println(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch social accounts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(accountList)
}

func (h *PlatformHandler) DisableSocialAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID := c.QueryInt("id", 0)

	err := h.ps.Disable(c.Context(), userID, int64(accountID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to disable social account",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *PlatformHandler) DeleteSocialAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID := c.QueryInt("id", 0)

	err := h.ps.Delete(c.Context(), userID, int64(accountID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to delete social account",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
