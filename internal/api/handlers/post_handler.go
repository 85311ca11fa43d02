package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/postcraft/postcraft-api/internal/service"
	"github.com/postcraft/postcraft-api/internal/transfer"
	"github.com/postcraft/postcraft-api/pkg/apperror"
)

type PostHandler struct {
	s service.PostService
}

func NewPostHandler(service service.PostService) *PostHandler {
	return &PostHandler{s: service}
}

func (h *PostHandler) Create(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.CreatePostRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	resp, err := h.s.Create(c.Context(), userID, req)
	if err != nil {
		return err
	}

	return success(c, fiber.StatusCreated, "Post created successfully", resp)
}

func (h *PostHandler) List(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var q transfer.ListPostsQuery
	if err := c.QueryParser(&q); err != nil {
		return apperror.ErrValidation.WithMessage("Invalid query parameters")
	}

	resp, err := h.s.List(c.Context(), userID, q.Page, q.Limit, q.Status)
	if err != nil {
		return err
	}

	return success(c, fiber.StatusOK, "", resp)
}

func (h *PostHandler) Get(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := ParamID(c, "id")
	if err != nil {
		return err
	}

	post, err := h.s.Get(c.Context(), postID, userID)
	if err != nil {
		return err
	}

	return success(c, fiber.StatusOK, "", post)
}

func (h *PostHandler) Update(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := ParamID(c, "id")
	if err != nil {
		return err
	}

	var req transfer.UpdatePostRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	post, err := h.s.Update(c.Context(), postID, userID, req)
	if err != nil {
		return err
	}

	return success(c, fiber.StatusOK, "Post updated successfully", post)
}

func (h *PostHandler) Delete(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := ParamID(c, "id")
	if err != nil {
		return err
	}

	if err := h.s.Delete(c.Context(), postID, userID); err != nil {
		return err
	}

	return success(c, fiber.StatusOK, "Post deleted successfully", nil)
}
