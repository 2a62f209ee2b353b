package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fermata/src/features/config"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the admin flag used to gate mutating endpoints.
type Claims struct {
	Admin bool `json:"admin"`
	jwt.RegisteredClaims
}

// Service issues and validates the bearer tokens protecting admin
// endpoints. This is a single-user install; there is no user store, just
// a shared secret.
type Service struct {
	config *config.Manager
}

// NewService creates a new auth service.
func NewService(cfg *config.Manager) *Service {
	return &Service{config: cfg}
}

// GenerateToken issues an HS256 token with the admin flag set.
func (s *Service) GenerateToken(subject string, ttl time.Duration) (string, error) {
	secret := s.config.Get().Auth.Secret
	if secret == nil || *secret == "" {
		return "", errors.New("auth secret is not configured")
	}

	claims := Claims{
		Admin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(*secret))
}

func (s *Service) parseToken(tokenString string) (*Claims, error) {
	secret := s.config.Get().Auth.Secret
	if secret == nil || *secret == "" {
		return nil, errors.New("auth secret is not configured")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(*secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// RequireAdmin gates a route behind a valid admin bearer token. With auth
// disabled in config the middleware is a pass-through, which is the default
// for a private single-user install.
func (s *Service) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !s.config.Get().Auth.Enabled {
			return c.Next()
		}

		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authorization header is required"})
		}
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization header format"})
		}

		claims, err := s.parseToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}
		if !claims.Admin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin permission required"})
		}

		c.Locals("subject", claims.Subject)
		return c.Next()
	}
}
