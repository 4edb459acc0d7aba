// internal/transport/http/talent.go
package http

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"backcheck-service/internal/middleware"
	"backcheck-service/internal/service"
)

func searchFailure(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidQuery):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Please enter a search term"})
	case errors.Is(err, service.ErrTalentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": service.MsgTalentNotFound})
	}
	log.Printf("❌ [SEARCH] %s %s failed: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": service.MsgSearchFailed})
}

// GetTalent resolves a public id for the calling employer and records the
// view.
func (h *Handler) GetTalent(c *fiber.Ctx) error {
	employer := middleware.ProfileFromContext(c).Employer
	ctx, cancel := h.withTimeout(c)
	defer cancel()

	res, err := h.search.LookupForEmployer(ctx, employer, c.Params("publicId"))
	if err != nil {
		return searchFailure(c, err)
	}
	return c.JSON(res)
}

// SearchTalent takes exactly one of ?profession= or ?name=.
func (h *Handler) SearchTalent(c *fiber.Ctx) error {
	profession := strings.TrimSpace(c.Query("profession"))
	name := strings.TrimSpace(c.Query("name"))
	if (profession == "") == (name == "") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Provide either profession or name",
		})
	}

	ctx, cancel := h.withTimeout(c)
	defer cancel()

	if profession != "" {
		limit := getQueryInt(c, "limit", service.DefaultProfessionLimit, 1, service.MaxProfessionLimit)
		talents, err := h.search.FindByProfession(ctx, profession, limit)
		if err != nil {
			return searchFailure(c, err)
		}
		return c.JSON(fiber.Map{"talents": talents, "count": len(talents)})
	}

	talents, err := h.search.FindByName(ctx, name)
	if err != nil {
		return searchFailure(c, err)
	}
	return c.JSON(fiber.Map{
		"talents":   talents,
		"count":     len(talents),
		"scanLimit": service.NameCandidateCap,
	})
}

func (h *Handler) GetHistory(c *fiber.Ctx) error {
	uid, _ := middleware.GetUserIDFromContext(c)
	limit := getQueryInt(c, "limit", service.DefaultHistoryLimit, 1, service.MaxHistoryLimit)

	ctx, cancel := h.withTimeout(c)
	defer cancel()

	records, err := h.search.GetSearchHistory(ctx, uid, limit)
	if err != nil {
		log.Printf("⚠️ [SEARCH] history for %s failed: %v", uid, err)
		return c.JSON(fiber.Map{"records": []interface{}{}, "count": 0})
	}
	return c.JSON(fiber.Map{"records": records, "count": len(records)})
}
