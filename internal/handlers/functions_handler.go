package handlers

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/drbn-app/drbn-backend/internal/analysis"
	"github.com/drbn-app/drbn-backend/internal/dto"
)

// maxInlinePhotoBytes bounds base64 photo payloads accepted by the function
// endpoints. Checked before anything is sent upstream.
const maxInlinePhotoBytes = 8_000_000

// FunctionsHandler serves the public AI proxy surface consumed directly by
// the web client. Its contract (routes, messages, status codes) predates the
// rest of the API and must stay stable.
type FunctionsHandler struct {
	ai analysis.Generator
}

func NewFunctionsHandler(ai analysis.Generator) *FunctionsHandler {
	return &FunctionsHandler{ai: ai}
}

func (h *FunctionsHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"ok":      true,
		"service": "drbn-functions",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

type skinAnalysisRequest struct {
	Profile   map[string]interface{} `json:"profile"`
	PhotoData string                 `json:"photoData"`
	Language  string                 `json:"language"`
}

func (h *FunctionsHandler) SkinAnalysis(c *fiber.Ctx) error {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(dto.ErrorResponse{
			Error: true, Message: "Unsupported content-type. Use application/json.",
		})
	}

	var req skinAnalysisRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid JSON body.",
		})
	}
	if len(req.Profile) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Missing profile data.",
		})
	}
	if len(req.PhotoData) > maxInlinePhotoBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(dto.ErrorResponse{
			Error: true, Message: "Image too large. Please upload a smaller image.",
		})
	}

	result, err := h.ai.QuickAnalysis(c.Context(), analysis.QuickRequest{
		Profile:   req.Profile,
		PhotoData: req.PhotoData,
		Language:  req.Language,
	})
	if err != nil {
		return h.upstreamError(c, err)
	}

	return c.JSON(result)
}

type analyzePhotoRequest struct {
	ImageBase64 string `json:"imageBase64"`
	Prompt      string `json:"prompt"`
	Language    string `json:"language"`
}

func (h *FunctionsHandler) AnalyzePhoto(c *fiber.Ctx) error {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(dto.ErrorResponse{
			Error: true, Message: "Unsupported content-type. Use application/json.",
		})
	}

	var req analyzePhotoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid JSON body.",
		})
	}
	if req.ImageBase64 == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Missing imageBase64 (string).",
		})
	}
	if len(req.ImageBase64) > maxInlinePhotoBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(dto.ErrorResponse{
			Error: true, Message: "Image too large. Please upload a smaller image.",
		})
	}

	text, err := h.ai.AnalyzePhoto(c.Context(), analysis.PhotoRequest{
		ImageBase64: req.ImageBase64,
		Prompt:      req.Prompt,
		Language:    req.Language,
	})
	if err != nil {
		return h.upstreamError(c, err)
	}

	return c.JSON(fiber.Map{"ok": true, "analysisText": text})
}

func (h *FunctionsHandler) upstreamError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, analysis.ErrRateLimited):
		return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
			Error: true, Message: "Rate limit exceeded. Please try again in a moment.",
		})
	case errors.Is(err, analysis.ErrQuotaExhausted):
		return c.Status(fiber.StatusPaymentRequired).JSON(dto.ErrorResponse{
			Error: true, Message: "AI credits exhausted. Please add credits to continue.",
		})
	case errors.Is(err, analysis.ErrEmptyResponse):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: true, Message: "Empty response from AI model.",
		})
	case errors.Is(err, analysis.ErrInvalidFormat):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid AI response format.",
		})
	default:
		slog.Error("ai gateway call failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to generate analysis",
		})
	}
}
