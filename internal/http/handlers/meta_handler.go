package handlers

import (
	"github.com/ecoboard/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type MetaHandler struct{}

func NewMetaHandler() *MetaHandler {
	return &MetaHandler{}
}

type MetaCategory struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var predefinedCategories = buildCategories(services.SuggestedCategories)

func buildCategories(labels []string) []MetaCategory {
	out := make([]MetaCategory, 0, len(labels))
	for _, l := range labels {
		out = append(out, MetaCategory{ID: slug(l), Label: l})
	}
	return out
}

// slug: "Water Conservation" -> "water-conservation"
func slug(s string) string {
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch >= 'A' && ch <= 'Z':
			b = append(b, ch+('a'-'A'))
		case ch == ' ':
			b = append(b, '-')
		default:
			b = append(b, ch)
		}
	}
	return string(b)
}

// GetCategories GET /api/meta/categories
func (h *MetaHandler) GetCategories(c *fiber.Ctx) error {
	return c.JSON(predefinedCategories)
}
