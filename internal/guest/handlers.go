package guest

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/drbn-app/drbn-backend/internal/analysis"
	"github.com/drbn-app/drbn-backend/internal/lock"
)

// =============================================================================
// Handler
// =============================================================================

type Handler struct {
	store Store
	ai    analysis.Generator
	locks lock.Locker
}

func NewHandler(store Store, ai analysis.Generator, locks lock.Locker) *Handler {
	return &Handler{store: store, ai: ai, locks: locks}
}

func (h *Handler) CreateSession(c *fiber.Ctx) error {
	token, err := h.store.CreateSession(c.Context())
	if err != nil {
		slog.Error("failed to create guest session", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to create guest session"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"guest_token": token, "expires_in_days": 30})
}

func (h *Handler) GetProfile(c *fiber.Ctx) error {
	profile, err := h.store.GetProfile(c.Context(), Token(c))
	if errors.Is(err, ErrNoProfile) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": true, "message": "Profile not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to load profile"})
	}
	return c.JSON(profile)
}

func (h *Handler) SaveProfile(c *fiber.Ctx) error {
	var profile Profile
	if err := c.BodyParser(&profile); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid request body"})
	}
	if profile.CompletedAt == "" {
		profile.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if err := h.store.SaveProfile(c.Context(), Token(c), &profile); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to save profile"})
	}
	return c.JSON(profile)
}

func (h *Handler) ListPlans(c *fiber.Ctx) error {
	plans, err := h.store.Plans(c.Context(), Token(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to load plans"})
	}
	if plans == nil {
		plans = []Plan{}
	}
	return c.JSON(plans)
}

type generatePlanRequest struct {
	Language string `json:"language"`
}

func (h *Handler) GeneratePlan(c *fiber.Ctx) error {
	token := Token(c)

	release, err := h.locks.Acquire(c.Context(), "generation:guest:"+token, 2*time.Minute)
	if errors.Is(err, lock.ErrLocked) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": true, "message": "A plan is already being generated for this session"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to start generation"})
	}
	defer release()

	profile, err := h.store.GetProfile(c.Context(), token)
	if errors.Is(err, ErrNoProfile) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Complete onboarding before generating a plan"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to load profile"})
	}

	var req generatePlanRequest
	_ = c.BodyParser(&req)

	result, err := h.ai.GeneratePlan(c.Context(), analysis.PlanRequest{
		Profile:  profile.AccountProfile(uuid.Nil),
		Language: req.Language,
	})
	if err != nil {
		return aiErrorResponse(c, err)
	}

	plan := Plan{
		ID:          fmt.Sprintf("guest_plan_%d", time.Now().UnixMilli()),
		CreatedAt:   time.Now().UTC(),
		RoutineName: "Routine",
		Routine:     result.Raw,
		Summary:     result.Summary,
	}
	if result.OverallScore > 0 {
		score := result.OverallScore
		plan.OverallScore = &score
	}

	if err := h.store.SavePlan(c.Context(), token, plan); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to save plan"})
	}
	return c.Status(fiber.StatusCreated).JSON(plan)
}

func (h *Handler) ListWishlist(c *fiber.Ctx) error {
	items, err := h.store.Wishlist(c.Context(), Token(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to load wishlist"})
	}
	if items == nil {
		items = []WishlistItem{}
	}
	return c.JSON(items)
}

func (h *Handler) AddWishlistItem(c *fiber.Ctx) error {
	var item WishlistItem
	if err := c.BodyParser(&item); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid request body"})
	}
	if strings.TrimSpace(item.ProductName) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "product_name is required"})
	}
	item.AddedAt = time.Now().UTC()

	token := Token(c)
	items, err := h.store.Wishlist(c.Context(), token)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to load wishlist"})
	}
	for i, existing := range items {
		if strings.EqualFold(existing.ProductName, item.ProductName) {
			items[i] = item
			if err := h.store.SaveWishlist(c.Context(), token, items); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to save wishlist"})
			}
			return c.JSON(item)
		}
	}
	items = append(items, item)
	if err := h.store.SaveWishlist(c.Context(), token, items); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to save wishlist"})
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (h *Handler) RemoveWishlistItem(c *fiber.Ctx) error {
	name := c.Params("product_name")
	token := Token(c)

	items, err := h.store.Wishlist(c.Context(), token)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to load wishlist"})
	}
	kept := items[:0]
	for _, item := range items {
		if !strings.EqualFold(item.ProductName, name) {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(items) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": true, "message": "Item not found"})
	}
	if err := h.store.SaveWishlist(c.Context(), token, kept); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to save wishlist"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func aiErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, analysis.ErrRateLimited):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": true, "message": "Rate limit exceeded. Please try again in a moment."})
	case errors.Is(err, analysis.ErrQuotaExhausted):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": true, "message": "AI credits exhausted. Please add credits to continue."})
	case errors.Is(err, analysis.ErrEmptyResponse), errors.Is(err, analysis.ErrInvalidFormat):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": true, "message": "AI analysis failed. Please try again."})
	default:
		slog.Error("guest plan generation failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to generate plan"})
	}
}
