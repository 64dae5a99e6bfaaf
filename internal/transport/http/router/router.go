// Package router groups the API routes and guards the private ones with bearer tokens.
package router

import (
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/Additional-Code/nursery/internal/presentation/http/response"
	"github.com/Additional-Code/nursery/internal/service/auth"
	"github.com/Additional-Code/nursery/pkg/errorbank"
)

// BasePath prefixes every API route.
const BasePath = "/api"

const (
	userIDKey    = "auth.user_id"
	userEmailKey = "auth.email"
)

// Module provides the route groups to Fx.
var Module = fx.Provide(New)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Groups holds the API route groups.
type Groups struct {
	// Public routes need no token.
	Public *echo.Group
	// Private routes require a valid bearer token.
	Private *echo.Group
}

// New mounts the API groups on e.
func New(e *echo.Echo, verifier *auth.Service) *Groups {
	return NewWithVerifier(e, verifier)
}

// NewWithVerifier mounts the API groups using any TokenVerifier.
func NewWithVerifier(e *echo.Echo, verifier TokenVerifier) *Groups {
	api := e.Group(BasePath)
	return &Groups{
		Public:  api.Group(""),
		Private: api.Group("", RequireToken(verifier)),
	}
}

// RequireToken rejects requests without a valid "Authorization: Bearer" token.
func RequireToken(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				return response.New(c).WithError(errorbank.Unauthorized("missing bearer token")).Build()
			}
			claims, err := verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				return response.New(c).WithError(err).Build()
			}
			uid, _ := claims.UserID()
			c.Set(userIDKey, uid)
			c.Set(userEmailKey, claims.Email)
			return next(c)
		}
	}
}

// UserID returns the authenticated user id, or zero on public routes.
func UserID(c echo.Context) int64 {
	id, _ := c.Get(userIDKey).(int64)
	return id
}
