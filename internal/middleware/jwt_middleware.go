package middleware

import (
	"errors"
	"strings"

	"orderdesk/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const clientLocalsKey = "api_client"

var errMissingClientID = errors.New("token carries no client_id")

// Client is the authenticated caller of a protected route.
type Client struct {
	ID   string
	Name string
}

func clientFromClaims(claims jwt.MapClaims) (Client, error) {
	id, _ := claims["client_id"].(string)
	if id == "" {
		return Client{}, errMissingClientID
	}
	name, _ := claims["name"].(string)
	return Client{ID: id, Name: name}, nil
}

// CurrentClient returns the client stored by AuthRequired.
func CurrentClient(c *fiber.Ctx) (Client, bool) {
	client, ok := c.Locals(clientLocalsKey).(Client)
	return client, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" || token == "" {
		return "", false
	}
	return token, true
}

func unauthorized(c *fiber.Ctx, message string, err error) error {
	body := fiber.Map{"message": message}
	if err != nil {
		body["error"] = err.Error()
	}
	return c.Status(fiber.StatusUnauthorized).JSON(body)
}

// AuthRequired admits requests carrying a valid bearer token issued by
// authService; the caller is then available through CurrentClient.
func AuthRequired(authService *services.AuthService, logger *zap.Logger) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return unauthorized(c, "Authorization header is required", nil)
		}
		token, ok := bearerToken(header)
		if !ok {
			return unauthorized(c, "Authorization header format must be 'Bearer <token>'", nil)
		}

		claims, err := authService.ValidateToken(token)
		if err == nil {
			var client Client
			if client, err = clientFromClaims(claims); err == nil {
				c.Locals(clientLocalsKey, client)
				return c.Next()
			}
		}

		logger.Info("token rejected", zap.String("path", c.Path()), zap.Error(err))
		return unauthorized(c, "Invalid or expired token", err)
	}
}
