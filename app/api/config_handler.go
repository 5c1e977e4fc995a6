package api

import (
	"studydigest/config"
	"studydigest/types"

	"github.com/gofiber/fiber/v2"
)

type ConfigHandler struct {
	llm config.LLMConfig
}

func NewConfigHandler(llm config.LLMConfig) *ConfigHandler {
	return &ConfigHandler{
		llm: llm,
	}
}

// HandleGetConfig reports the active completion settings. Secrets are never exposed.
func (h *ConfigHandler) HandleGetConfig(c *fiber.Ctx) error {
	return c.JSON(types.LLMConfig{
		Provider: h.llm.Provider,
		Model:    h.llm.Model,
		MaxChars: h.llm.MaxChars,
		Points:   h.llm.Points,
	})
}
