package handlers

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"chalfim/internal/models"
	"chalfim/internal/services"
)

// PartsHandler handles HTTP requests for the parts catalog.
type PartsHandler struct {
	service *services.PartsService
}

// NewPartsHandler creates a new PartsHandler.
func NewPartsHandler(service *services.PartsService) *PartsHandler {
	return &PartsHandler{service: service}
}

// RegisterRoutes registers the catalog routes with the Fiber app.
func (h *PartsHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/parts", h.HandleListParts)
	router.Post("/parts/add", h.HandleAddPart)
	router.Put("/parts/:id", h.HandleUpdatePart)
	router.Delete("/parts/:id", h.HandleDeletePart)
}

// HandleListParts returns every listing.
func (h *PartsHandler) HandleListParts(c *fiber.Ctx) error {
	parts, err := h.service.ListParts()
	if err != nil {
		log.Printf("Error listing parts: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false})
	}
	return c.JSON(parts)
}

// HandleAddPart stores whatever fields the client posts under a new id.
func (h *PartsHandler) HandleAddPart(c *fiber.Ctx) error {
	var fields map[string]interface{}
	if err := c.BodyParser(&fields); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "msg": "Invalid request body"})
	}

	part, err := h.service.AddPart(fields)
	if err != nil {
		log.Printf("Error adding part: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false})
	}
	return c.JSON(fiber.Map{"success": true, "id": part.ID})
}

// HandleUpdatePart replaces a listing's fields, keeping its id.
func (h *PartsHandler) HandleUpdatePart(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "msg": "Invalid part id"})
	}

	var fields map[string]interface{}
	if err := c.BodyParser(&fields); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "msg": "Invalid request body"})
	}

	if err := h.service.UpdatePart(id, fields); err != nil {
		if errors.Is(err, models.ErrPartNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Part not found"})
		}
		log.Printf("Error updating part %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false})
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleDeletePart removes a listing. Unknown ids are a success, matching
// the delete-by-filter semantics of the stored document.
func (h *PartsHandler) HandleDeletePart(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "msg": "Invalid part id"})
	}

	if err := h.service.DeletePart(id); err != nil {
		log.Printf("Error deleting part %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false})
	}
	return c.JSON(fiber.Map{"success": true})
}
