package handlers

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/postcraft/postcraft-api/internal/service"
)

const profilePath = "/dashboard/profile"

type LinkedInHandler struct {
	s           service.LinkedInService
	frontendURL string
}

func NewLinkedInHandler(service service.LinkedInService, frontendURL string) *LinkedInHandler {
	return &LinkedInHandler{s: service, frontendURL: strings.TrimRight(frontendURL, "/")}
}

func (h *LinkedInHandler) Connect(c *fiber.Ctx) error {
	userID := GetUserID(c)

	resp, err := h.s.ConnectURL(c.Context(), userID)
	if err != nil {
		return err
	}

	return success(c, fiber.StatusOK, "", resp)
}

// Callback always redirects back to the frontend profile page with either
// success=linkedin_connected or error=<code>.
func (h *LinkedInHandler) Callback(c *fiber.Ctx) error {
	result := h.s.Callback(c.Context(), c.Query("code"), c.Query("state"), c.Query("error"))

	params := url.Values{}
	if result.Success() {
		params.Set("success", string(result))
	} else {
		params.Set("error", string(result))
	}

	return c.Redirect(h.frontendURL+profilePath+"?"+params.Encode(), fiber.StatusFound)
}

func (h *LinkedInHandler) Status(c *fiber.Ctx) error {
	userID := GetUserID(c)

	status, err := h.s.Status(c.Context(), userID)
	if err != nil {
		return err
	}

	return success(c, fiber.StatusOK, "", status)
}

func (h *LinkedInHandler) Disconnect(c *fiber.Ctx) error {
	userID := GetUserID(c)

	if err := h.s.Disconnect(c.Context(), userID); err != nil {
		return err
	}

	return success(c, fiber.StatusOK, "LinkedIn disconnected successfully", nil)
}

func (h *LinkedInHandler) Test(c *fiber.Ctx) error {
	userID := GetUserID(c)

	profile, err := h.s.Test(c.Context(), userID)
	if err != nil {
		return err
	}

	return success(c, fiber.StatusOK, "LinkedIn API connection successful", profile)
}
