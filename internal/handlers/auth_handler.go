package handlers

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"chalfim/internal/middleware"
	"chalfim/internal/models"
	"chalfim/internal/services"
)

// AuthHandler handles HTTP requests for users, login and the password
// reset workflow.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the user and auth routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/users", h.HandleListUsers)
	router.Post("/users/create", h.HandleCreateUser)
	router.Delete("/users/:name", h.HandleDeleteUser)
	router.Post("/login", h.HandleLogin)
	router.Post("/users/change-password", h.HandleChangePassword)
	router.Post("/password-reset/request", h.HandleRequestReset)
	router.Get("/reset-requests", h.HandleListResetRequests)
	router.Post("/reset-requests/handle", h.HandleHandleResetRequest)
	router.Post("/users/complete-reset", h.HandleCompleteReset)
	router.Get("/session", middleware.AuthRequired(h.authService), h.HandleSession)
}

// HandleListUsers returns every user. Password hashes are blanked before
// serialization and omitted from the response.
func (h *AuthHandler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.authService.ListUsers()
	if err != nil {
		log.Printf("Error listing users: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false})
	}
	for i := range users {
		users[i].Password = ""
	}
	return c.JSON(users)
}

// CreateUserRequest represents the request body for user creation.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

// HandleCreateUser registers a new user.
func (h *AuthHandler) HandleCreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "msg": "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "msg": err.Error()})
	}

	if err := h.authService.CreateUser(req.Username, req.Password, req.Role); err != nil {
		if errors.Is(err, models.ErrDuplicateUser) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "msg": "User exists"})
		}
		log.Printf("Error creating user %s: %v", req.Username, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false})
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleDeleteUser removes a user. The bootstrap admin is refused.
func (h *AuthHandler) HandleDeleteUser(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := h.authService.DeleteUser(name); err != nil {
		if errors.Is(err, models.ErrForbidden) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false})
		}
		log.Printf("Error deleting user %s: %v", name, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false})
	}
	return c.JSON(fiber.Map{"success": true})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin checks credentials. Accounts flagged must-change get a
// requireNewPassword signal instead of a session.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "msg": "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "msg": err.Error()})
	}

	result, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false})
	}
	if result.RequireNewPassword {
		return c.JSON(fiber.Map{
			"success":            true,
			"requireNewPassword": true,
			"username":           result.Username,
		})
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"role":     result.Role,
		"username": result.Username,
		"token":    result.Token,
	})
}

// ChangePasswordRequest represents the request body for a password change.
type ChangePasswordRequest struct {
	Username    string `json:"username" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// HandleChangePassword overwrites a user's password and clears the
// must-change flag.
func (h *AuthHandler) HandleChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "msg": "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "msg": err.Error()})
	}

	role, token, err := h.authService.ChangePassword(req.Username, req.NewPassword)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false})
		}
		log.Printf("Error changing password for %s: %v", req.Username, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false})
	}
	return c.JSON(fiber.Map{"success": true, "role": role, "token": token})
}

// ResetRequestBody represents the request body for a reset request or
// completion.
type ResetRequestBody struct {
	Username    string `json:"username" validate:"required"`
	NewPassword string `json:"newPassword"`
}

// HandleRequestReset queues a manual password reset for admin review.
func (h *AuthHandler) HandleRequestReset(c *fiber.Ctx) error {
	var req ResetRequestBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "msg": "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "msg": err.Error()})
	}

	if err := h.authService.RequestReset(req.Username); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "User not found"})
		}
		log.Printf("Error requesting reset for %s: %v", req.Username, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false})
	}
	return c.JSON(fiber.Map{"success": true, "message": "Reset requested"})
}

// HandleListResetRequests returns the pending reset usernames.
func (h *AuthHandler) HandleListResetRequests(c *fiber.Ctx) error {
	pending, err := h.authService.PendingResets()
	if err != nil {
		log.Printf("Error listing reset requests: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false})
	}
	return c.JSON(pending)
}

// HandleResetDecision represents the request body for resolving a reset.
type HandleResetDecision struct {
	Username string `json:"username" validate:"required"`
	Action   string `json:"action"`
}

// HandleHandleResetRequest resolves a pending reset. Only "approve"
// grants the one-time manual reset; anything else just clears the entry.
func (h *AuthHandler) HandleHandleResetRequest(c *fiber.Ctx) error {
	var req HandleResetDecision
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "msg": "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "msg": err.Error()})
	}

	if err := h.authService.HandleReset(req.Username, req.Action); err != nil {
		log.Printf("Error handling reset for %s: %v", req.Username, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false})
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleCompleteReset sets a new password for an approved manual reset.
func (h *AuthHandler) HandleCompleteReset(c *fiber.Ctx) error {
	var req ResetRequestBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "msg": "Invalid request body"})
	}
	if req.Username == "" || req.NewPassword == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "msg": "username and newPassword are required"})
	}

	if err := h.authService.CompleteReset(req.Username, req.NewPassword); err != nil {
		if errors.Is(err, models.ErrResetNotAllowed) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "manual reset not approved"})
		}
		log.Printf("Error completing reset for %s: %v", req.Username, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false})
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleSession returns the identity behind the bearer token.
func (h *AuthHandler) HandleSession(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":  true,
		"username": c.Locals("username"),
		"role":     c.Locals("role"),
	})
}
