package handlers

import (
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"

	"semantist/internal/bot"
)

// WebhookHandler receives Bot API updates. The path carries a shared secret
// so only the chat platform can reach it.
type WebhookHandler struct {
	engine *bot.Engine
	secret string
}

// NewWebhookHandler creates the webhook handler.
func NewWebhookHandler(engine *bot.Engine, secret string) *WebhookHandler {
	return &WebhookHandler{engine: engine, secret: secret}
}

// Handle parses one update and dispatches it to the engine. Always answers
// 200 for valid payloads; the platform retries anything else.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	if c.Params("secret") != h.secret {
		return c.SendStatus(fiber.StatusNotFound)
	}

	var update bot.Update
	if err := json.Unmarshal(c.Body(), &update); err != nil {
		log.Printf("⚠️ [WEBHOOK] Malformed update: %v", err)
		return c.SendStatus(fiber.StatusBadRequest)
	}

	h.engine.HandleUpdate(c.Context(), &update)
	return c.SendStatus(fiber.StatusOK)
}
