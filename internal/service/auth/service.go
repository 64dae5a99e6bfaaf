// Package auth registers staff accounts and issues the bearer tokens guarding the API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Additional-Code/nursery/internal/config"
	"github.com/Additional-Code/nursery/internal/entity"
	"github.com/Additional-Code/nursery/internal/store"
	"github.com/Additional-Code/nursery/pkg/errorbank"
)

const minPasswordLength = 6

var serviceTracer = otel.Tracer("github.com/Additional-Code/nursery/service/auth")

// Module provides the auth service to Fx.
var Module = fx.Provide(NewService)

// Claims are carried by every issued token. Subject holds the user id.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// Session is an authenticated user with a freshly issued token.
type Session struct {
	User      *entity.User
	Token     string
	ExpiresAt time.Time
}

// RegisterInput is a new staff account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Service handles registration, login and token verification.
type Service struct {
	users  store.UserRepository
	secret []byte
	ttl    time.Duration
	issuer string
	cost   int
	logger *zap.Logger
	now    func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Users  store.UserRepository
	Config config.Config
	Logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:  p.Users,
		secret: []byte(p.Config.Auth.JWTSecret),
		ttl:    p.Config.Auth.TokenTTL,
		issuer: p.Config.Auth.Issuer,
		cost:   bcrypt.DefaultCost,
		logger: logger,
		now:    time.Now,
	}
}

// Register stores a bcrypt-hashed account and signs the user in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	ctx, span := serviceTracer.Start(ctx, "AuthService.Register")
	defer span.End()

	email := normalizeEmail(in.Email)
	switch {
	case email == "":
		return nil, errorbank.BadRequest("email is required")
	case !validEmail(email):
		return nil, errorbank.BadRequest("email is invalid")
	case len(in.Password) < minPasswordLength:
		return nil, errorbank.BadRequest(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to register user", errorbank.WithCause(err))
	}

	user := &entity.User{Name: strings.TrimSpace(in.Name), Email: email, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, errorbank.Conflict("email already registered")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("create user", zap.Error(err))
		return nil, errorbank.Internal("failed to register user", errorbank.WithCause(err))
	}

	s.logger.Info("user registered", zap.Int64("id", user.ID))
	return s.issue(user)
}

// Login checks the credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	ctx, span := serviceTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, errorbank.BadRequest("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errorbank.Unauthorized("invalid email or password")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("load user", zap.Error(err))
		return nil, errorbank.Internal("failed to log in", errorbank.WithCause(err))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errorbank.Unauthorized("invalid email or password")
	}
	return s.issue(user)
}

// Verify parses and validates a bearer token.
func (s *Service) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errorbank.Unauthorized("invalid or expired token", errorbank.WithCause(err))
	}
	if _, err := claims.UserID(); err != nil {
		return nil, errorbank.Unauthorized("invalid token subject", errorbank.WithCause(err))
	}
	return claims, nil
}

func (s *Service) issue(user *entity.User) (*Session, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, errorbank.Internal("failed to issue token", errorbank.WithCause(err))
	}
	return &Session{User: user, Token: signed, ExpiresAt: expires}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
