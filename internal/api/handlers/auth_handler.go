package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/postcraft/postcraft-api/internal/service"
	"github.com/postcraft/postcraft-api/internal/transfer"
)

type AuthHandler struct {
	s service.AuthService
}

func NewAuthHandler(service service.AuthService) *AuthHandler {
	return &AuthHandler{s: service}
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req transfer.SignupRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	resp, err := h.s.Signup(c.Context(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) Signin(c *fiber.Ctx) error {
	var req transfer.SigninRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	resp, err := h.s.Signin(c.Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(resp)
}
