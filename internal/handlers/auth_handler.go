package handlers

import (
	"errors"
	"fmt"

	"orderdesk/internal/models"
	"orderdesk/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthHandler handles API client registration and token requests.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
		logger:      logger,
	}
}

// RegisterRoutes registers the authentication routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/clients", h.HandleRegisterClient)
	authRoutes.Post("/token", h.HandleIssueToken)
}

// CredentialsRequest is the body of both auth endpoints.
type CredentialsRequest struct {
	Name   string `json:"name" validate:"required,min=3,max=100"`
	Secret string `json:"secret" validate:"required,min=8,max=72"`
}

func (h *AuthHandler) parseCredentials(c *fiber.Ctx) (*CredentialsRequest, error) {
	var req CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		errorMessages := make(map[string]string)
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			for _, e := range validationErrors {
				errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
			}
		}
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}
	return &req, nil
}

// HandleRegisterClient registers a new API client.
func (h *AuthHandler) HandleRegisterClient(c *fiber.Ctx) error {
	req, err := h.parseCredentials(c)
	if req == nil {
		return err
	}

	client, err := h.authService.RegisterClient(req.Name, req.Secret)
	if err != nil {
		if errors.Is(err, models.ErrClientExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Registration failed",
				"error":   err.Error(),
			})
		}
		h.logger.Error("client registration failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not register client",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Client registered successfully",
		"client":  client,
	})
}

// HandleIssueToken exchanges client credentials for a bearer token.
func (h *AuthHandler) HandleIssueToken(c *fiber.Ctx) error {
	req, err := h.parseCredentials(c)
	if req == nil {
		return err
	}

	token, err := h.authService.IssueToken(req.Name, req.Secret)
	if err != nil {
		h.logger.Info("token request refused", zap.String("name", req.Name), zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authentication failed",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"token": token,
	})
}
