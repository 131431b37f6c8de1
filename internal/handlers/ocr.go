package handlers

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ydkdan6/ocrtext/internal/database"
	"github.com/ydkdan6/ocrtext/internal/middleware"
	"github.com/ydkdan6/ocrtext/internal/models"
	"github.com/ydkdan6/ocrtext/internal/services"
)

// maxUploadBytes caps uploaded images at 10MB.
const maxUploadBytes = 10 * 1024 * 1024

// ResultStore is the read side of the result repository used by the
// dashboard endpoints. Satisfied by *database.DB.
type ResultStore interface {
	ListResultsByUser(ctx context.Context, userID string) ([]models.OCRResult, error)
	GetResultByID(ctx context.Context, id, userID string) (*models.OCRResult, error)
}

// OCRHandler handles extraction endpoints
type OCRHandler struct {
	db         ResultStore
	extraction *services.ExtractionService
}

// NewOCRHandler creates a new OCR handler
func NewOCRHandler(db ResultStore, extraction *services.ExtractionService) *OCRHandler {
	return &OCRHandler{
		db:         db,
		extraction: extraction,
	}
}

// ExtractFromURL runs recognition on a remote image URL and saves the result
func (h *OCRHandler) ExtractFromURL(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req models.ExtractURLRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.ImageURL == "" {
		return Error(c, fiber.StatusBadRequest, "image_url is required")
	}

	result, err := h.extraction.ExtractFromURL(c.Context(), req.ImageURL, userID, req.FileName)
	if err != nil {
		return extractionError(c, err)
	}

	return Success(c, result)
}

// UploadImage accepts a multipart image upload, promotes it to a public URL
// and runs recognition on it
func (h *OCRHandler) UploadImage(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "image file is required")
	}

	contentType := file.Header.Get("Content-Type")
	if !isValidImageType(contentType) {
		return Error(c, fiber.StatusBadRequest, "invalid image type. Supported: JPEG, PNG, WebP")
	}

	if file.Size > maxUploadBytes {
		return Error(c, fiber.StatusBadRequest, "file too large. Maximum size is 10MB")
	}

	src, err := file.Open()
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to read file")
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to read file")
	}

	result, err := h.extraction.ExtractFromFile(c.Context(), content, contentType, file.Filename, userID)
	if err != nil {
		return extractionError(c, err)
	}

	return Success(c, result)
}

// ListResults returns the caller's extraction history, newest first
func (h *OCRHandler) ListResults(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	results, err := h.db.ListResultsByUser(c.Context(), userID)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list results")
	}

	return Success(c, results)
}

// GetResult returns a single extraction owned by the caller
func (h *OCRHandler) GetResult(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	result, err := h.db.GetResultByID(c.Context(), c.Params("id"), userID)
	if err != nil {
		if errors.Is(err, database.ErrResultNotFound) {
			return Error(c, fiber.StatusNotFound, "result not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get result")
	}

	return Success(c, result)
}

// DownloadText serves a result's extracted text as a .txt attachment
func (h *OCRHandler) DownloadText(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	result, err := h.db.GetResultByID(c.Context(), c.Params("id"), userID)
	if err != nil {
		if errors.Is(err, database.ErrResultNotFound) {
			return Error(c, fiber.StatusNotFound, "result not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get result")
	}

	name := c.Query("name")
	if name == "" && result.FileName != nil {
		// Reuse the original file name, minus its image extension
		name = strings.TrimSuffix(*result.FileName, filepath.Ext(*result.FileName))
	}

	attachment := services.NewTextAttachment(result.ExtractedText, name)

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+attachment.FileName+`"`)
	return c.Send(attachment.Content)
}

// extractionError maps pipeline failures to HTTP responses, surfacing the
// component's own message.
func extractionError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrRecognitionFailed) || errors.Is(err, services.ErrStorageUnavailable) {
		return Error(c, fiber.StatusBadGateway, err.Error())
	}
	return Error(c, fiber.StatusInternalServerError, err.Error())
}

func isValidImageType(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/jpg", "image/png", "image/webp":
		return true
	}
	return false
}
