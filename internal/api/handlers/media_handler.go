package handlers

import (
	"fmt"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/postcraft/postcraft-api/internal/service"
	"github.com/postcraft/postcraft-api/internal/transfer"
	"github.com/postcraft/postcraft-api/pkg/apperror"
)

// MediaFormField is the multipart field carrying uploaded files.
const MediaFormField = "media"

type MediaHandler struct {
	s service.MediaService
}

func NewMediaHandler(service service.MediaService) *MediaHandler {
	return &MediaHandler{s: service}
}

func (h *MediaHandler) Upload(c *fiber.Ctx) error {
	userID := GetUserID(c)

	form, err := c.MultipartForm()
	if err != nil {
		return apperror.ErrNoFiles.WithMessage("Expected a multipart form with at least one file")
	}

	headers := form.File[MediaFormField]
	files := make([]*transfer.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return fmt.Errorf("open multipart file %q: %w", fh.Filename, err)
		}
		defer f.Close()

		files = append(files, &transfer.UploadFile{
			FileName:    fh.Filename,
			ContentType: contentType(fh),
			Size:        fh.Size,
			Body:        f,
		})
	}

	resp, err := h.s.Upload(c.Context(), userID, files)
	if err != nil {
		return err
	}

	return success(c, fiber.StatusCreated, fmt.Sprintf("Successfully uploaded %d file(s)", resp.TotalUploaded), resp)
}

func contentType(fh *multipart.FileHeader) string {
	return fh.Header.Get(fiber.HeaderContentType)
}

func (h *MediaHandler) List(c *fiber.Ctx) error {
	userID := GetUserID(c)

	resp, err := h.s.List(c.Context(), userID, c.QueryInt("page", 0), c.QueryInt("limit", 0), c.Query("type"))
	if err != nil {
		return err
	}

	return success(c, fiber.StatusOK, "", resp)
}

func (h *MediaHandler) Get(c *fiber.Ctx) error {
	userID := GetUserID(c)
	id, err := ParamID(c, "id")
	if err != nil {
		return err
	}

	asset, err := h.s.Get(c.Context(), id, userID)
	if err != nil {
		return err
	}

	return success(c, fiber.StatusOK, "", asset)
}

func (h *MediaHandler) Delete(c *fiber.Ctx) error {
	userID := GetUserID(c)
	id, err := ParamID(c, "id")
	if err != nil {
		return err
	}

	if err := h.s.Delete(c.Context(), id, userID); err != nil {
		return err
	}

	return success(c, fiber.StatusOK, "Media asset deleted successfully", nil)
}

func (h *MediaHandler) PrepareLinkedIn(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.PrepareLinkedInRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	resp, err := h.s.PrepareLinkedIn(c.Context(), userID, req)
	if err != nil {
		return err
	}

	return success(c, fiber.StatusOK, "Media prepared for LinkedIn sharing", resp)
}
