package services

import (
	"errors"
	"fmt"
	"time"

	"orderdesk/internal/models"
	"orderdesk/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any failed token request.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService registers API clients and issues and checks their bearer tokens.
type AuthService struct {
	clients   repositories.ClientRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(clients repositories.ClientRepository, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		clients:   clients,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// RegisterClient stores a new client with a hashed secret.
func (s *AuthService) RegisterClient(name, secret string) (*models.Client, error) {
	if existing, err := s.clients.GetByName(name); err == nil && existing != nil {
		return nil, fmt.Errorf("%s: %w", name, models.ErrClientExists)
	} else if err != nil && !errors.Is(err, models.ErrClientNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash secret: %w", err)
	}

	client := &models.Client{Name: name, SecretHash: string(hash), CreatedAt: time.Now()}
	if err := s.clients.Create(client); err != nil {
		return nil, fmt.Errorf("failed to register client: %w", err)
	}
	s.logger.Info("api client registered", zap.String("client_id", client.ID), zap.String("name", name))
	return client, nil
}

// IssueToken checks a client's secret and returns a signed token.
func (s *AuthService) IssueToken(name, secret string) (string, error) {
	client, err := s.clients.GetByName(name)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(client.SecretHash), []byte(secret)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"client_id": client.ID,
		"name":      client.Name,
		"exp":       now.Add(s.tokenTTL).Unix(),
		"iat":       now.Unix(),
	})

	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses a token and returns its claims.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}
