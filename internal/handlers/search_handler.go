package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"chalfim/internal/models"
	"chalfim/internal/services"
)

// SearchHandler handles vehicle-based part search.
type SearchHandler struct {
	service *services.SearchService
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(service *services.SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

// RegisterRoutes registers the search route with the Fiber app.
func (h *SearchHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/search", h.HandleSearch)
}

// HandleSearch looks the identifier up in the vehicle registry and
// returns the vehicle summary with the matching parts. An identifier the
// registry does not know is a plain unsuccessful result, not an error.
func (h *SearchHandler) HandleSearch(c *fiber.Ctx) error {
	identifier := c.Query("vin")
	if identifier == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "msg": "vin query parameter is required"})
	}

	result, err := h.service.SearchByVehicle(c.UserContext(), identifier)
	if err != nil {
		if errors.Is(err, models.ErrUpstream) {
			log.Printf("Registry lookup failed for %q: %v", identifier, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false})
		}
		log.Printf("Error searching parts for %q: %v", identifier, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false})
	}
	if result == nil {
		return c.JSON(fiber.Map{"success": false})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"carData": result.Vehicle,
		"parts":   result.Parts,
	})
}
