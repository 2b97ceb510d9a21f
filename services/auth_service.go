package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"lexicon/models"
	"lexicon/repository"
)

// Capability is a coarse permission level. Higher levels include lower ones.
type Capability int

const (
	CapabilityAnonymous Capability = iota
	CapabilityContributor
	CapabilityAdmin
)

func (c Capability) String() string {
	switch c {
	case CapabilityContributor:
		return "contributor"
	case CapabilityAdmin:
		return "admin"
	default:
		return "anonymous"
	}
}

// CapabilityForRole maps a stored role to its capability.
func CapabilityForRole(role models.Role) Capability {
	switch role {
	case models.RoleAdmin:
		return CapabilityAdmin
	case models.RoleContributor:
		return CapabilityContributor
	default:
		return CapabilityAnonymous
	}
}

// Actor is the identity attached to a single request. The zero value is anonymous.
type Actor struct {
	UserID      string
	DisplayName string
	Capability  Capability
}

// IsAnonymous reports whether no identity was established.
func (a Actor) IsAnonymous() bool { return a.Capability == CapabilityAnonymous }

// Authorize returns nil when actor holds at least the required capability.
func Authorize(actor Actor, required Capability) error {
	if actor.Capability >= required {
		return nil
	}
	return &AuthorizationError{Actor: actor, Required: required}
}

type actorContextKey struct{}

// WithActor attaches actor to ctx.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext returns the actor stored in ctx, or the anonymous actor.
func ActorFromContext(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorContextKey{}).(Actor)
	return actor
}

// AuthService issues and verifies credentials.
type AuthService interface {
	Register(ctx context.Context, username, displayName, password string, role models.Role) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, Actor, error)
	VerifyToken(ctx context.Context, token string) (Actor, error)
}

// AuthConfig holds the token signing parameters.
type AuthConfig struct {
	TokenSecret []byte
	TokenTTL    time.Duration
	BcryptCost  int
}

type authService struct {
	users   repository.UserRepository
	cfg     AuthConfig
	metrics *Metrics
	now     func() time.Time
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(users repository.UserRepository, cfg AuthConfig, metrics *Metrics) AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &authService{users: users, cfg: cfg, metrics: metrics, now: time.Now}
}

const minPasswordLength = 8

type tokenClaims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Register creates an account with a bcrypt-hashed password.
func (s *authService) Register(ctx context.Context, username, displayName, password string, role models.Role) (*models.User, error) {
	username = strings.TrimSpace(username)
	displayName = strings.TrimSpace(displayName)
	var missing []string
	if username == "" {
		missing = append(missing, "username")
	}
	if displayName == "" {
		missing = append(missing, "display_name")
	}
	if len(password) < minPasswordLength {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{
			Message: fmt.Sprintf("username and display_name are required; password needs at least %d characters", minPasswordLength),
			Fields:  missing,
		}
	}
	if role != models.RoleAdmin {
		role = models.RoleContributor
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, &ValidationError{Message: "username already taken", Fields: []string{"username"}}
		}
		return nil, persistenceError("create user", err)
	}
	slog.Info("[AuthService] Registered user", "component", "auth", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login verifies the password and returns a signed bearer token.
func (s *authService) Login(ctx context.Context, username, password string) (string, Actor, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", Actor{}, persistenceError("fetch user", err)
	}
	if user == nil {
		slog.Info("[AuthService] Login for unknown user", "component", "auth")
		s.metrics.login("rejected")
		return "", Actor{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Info("[AuthService] Login with wrong password", "component", "auth", "user_id", user.ID)
		s.metrics.login("rejected")
		return "", Actor{}, ErrInvalidCredentials
	}

	now := s.now()
	claims := tokenClaims{
		Name: user.DisplayName,
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.TokenSecret)
	if err != nil {
		return "", Actor{}, fmt.Errorf("failed to sign token: %w", err)
	}
	s.metrics.login("accepted")
	actor := Actor{UserID: user.ID, DisplayName: user.DisplayName, Capability: CapabilityForRole(user.Role)}
	return token, actor, nil
}

// VerifyToken parses a bearer token and returns the actor it names. The
// account is re-read so a deleted user or a changed role takes effect before
// the token expires.
func (s *authService) VerifyToken(ctx context.Context, token string) (Actor, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.cfg.TokenSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Actor{}, fmt.Errorf("invalid token: %w", err)
	}
	user, err := s.users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		return Actor{}, persistenceError("fetch user", err)
	}
	if user == nil {
		return Actor{}, fmt.Errorf("invalid token: %w", ErrUnknownAccount)
	}
	return Actor{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Capability:  CapabilityForRole(user.Role),
	}, nil
}
