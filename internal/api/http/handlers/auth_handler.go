package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/taskforge/task-service/internal/api/dto"
	"github.com/taskforge/task-service/internal/domain"
	"github.com/taskforge/task-service/internal/service"
)

// AuthHandler exposes registration, login and access-check endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}
	if len(req.Password) < 5 {
		return fiber.NewError(http.StatusBadRequest, "password must be at least 5 characters")
	}

	role := domain.UserRole(req.Role)
	if req.Role == "" {
		role = domain.UserRoleUser
	}

	user, err := h.auth.Register(c.Context(), req.Email, req.Password, role)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.NewUserResponse(user),
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	user, record, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
			"auth": dto.AuthResponse{Token: record.Token, ExpiresAt: record.ExpiresAt},
		},
	})
}

// CheckAccess handles POST /authz/check-access. It reports whether the
// presented bearer token grants administrative access.
func (h *AuthHandler) CheckAccess(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	raw := strings.TrimPrefix(header, "Bearer ")
	if raw == "" {
		return fiber.NewError(http.StatusUnauthorized, "missing token")
	}

	if err := h.auth.CheckAccess(c.Context(), raw); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"access": "granted"}})
}
