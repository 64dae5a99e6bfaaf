package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/Additional-Code/nursery/internal/dto"
	"github.com/Additional-Code/nursery/internal/presentation/http/response"
	service "github.com/Additional-Code/nursery/internal/service/auth"
	"github.com/Additional-Code/nursery/internal/transport/http/router"
	"github.com/Additional-Code/nursery/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/nursery/transport/http/auth")

// Handler exposes registration and login.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an auth Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the public API group.
func Register(groups *router.Groups, h *Handler) {
	g := groups.Public.Group("/auth")
	g.POST("/register", h.register)
	g.POST("/login", h.login)
}

func (h *Handler) register(c echo.Context) error {
	b := response.New(c)

	var payload dto.RegisterRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "auth.register")
	defer span.End()

	sess, err := h.svc.Register(ctx, service.RegisterInput{Name: payload.Name, Email: payload.Email, Password: payload.Password})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(toDTO(sess)).Build()
}

func (h *Handler) login(c echo.Context) error {
	b := response.New(c)

	var payload dto.LoginRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "auth.login")
	defer span.End()

	sess, err := h.svc.Login(ctx, payload.Email, payload.Password)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTO(sess)).Build()
}

func toDTO(s *service.Session) dto.SessionResponse {
	return dto.SessionResponse{
		User:      dto.UserResponse{ID: s.User.ID, Name: s.User.Name, Email: s.User.Email},
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
	}
}
