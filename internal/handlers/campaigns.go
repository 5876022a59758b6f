package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"semantist/internal/database"
	"semantist/internal/models"
)

// CampaignHandler serves the campaign-run history.
type CampaignHandler struct {
	db *database.DB
}

// NewCampaignHandler creates the campaign history handler.
func NewCampaignHandler(db *database.DB) *CampaignHandler {
	return &CampaignHandler{db: db}
}

// List returns recent pipeline runs, newest first. ?limit= caps the page.
func (h *CampaignHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)

	runs, err := h.db.ListCampaignRuns(c.Context(), limit)
	if err != nil {
		log.Printf("❌ [API] Failed to list campaign runs: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load campaign history",
		})
	}
	if runs == nil {
		runs = []models.CampaignRun{}
	}

	return c.JSON(fiber.Map{
		"campaigns": runs,
		"count":     len(runs),
	})
}
