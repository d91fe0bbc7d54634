package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Chakshu098/Everhack-final/internal/domain"
	"github.com/Chakshu098/Everhack-final/internal/repository"
	"github.com/Chakshu098/Everhack-final/pkg/config"
	"github.com/Chakshu098/Everhack-final/pkg/crypto"
	jwtpkg "github.com/Chakshu098/Everhack-final/pkg/jwt"
)

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid login credentials")
	// ErrNotLoggedIn is returned when an operation needs an authenticated session.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrInvalidEmail is returned when sign-up receives an unusable address.
	ErrInvalidEmail = errors.New("a valid email is required")
)

// Service handles sessions and credentials.
type Service struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	logger   *slog.Logger
	cfg      config.APIConfig
	admin    *domain.User
	now      func() time.Time
}

// New constructs a Service.
func New(users repository.UserRepository, sessions repository.SessionRepository, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{users: users, sessions: sessions, logger: logger, cfg: cfg, now: func() time.Time { return time.Now().UTC() }}
}

// WithAdmin returns a copy of s that falls back to admin when the configured
// admin credentials are used but the account is missing from storage.
func (s Service) WithAdmin(admin domain.User) Service {
	s.admin = &admin
	return s
}

// TokenPair describes the bearer token handed to HTTP clients.
type TokenPair struct {
	AccessToken string        `json:"access_token"`
	ExpiresIn   time.Duration `json:"expires_in"`
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// SignIn authenticates email/password and stores the user in the session.
func (s Service) SignIn(ctx context.Context, sessionID, email, password string) (*domain.User, error) {
	user, err := s.verify(ctx, email, password)
	if err != nil {
		return nil, err
	}
	public := user.Public()
	if err := s.sessions.SaveSession(ctx, sessionID, public); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.logger.Info("user signed in", "user_id", user.ID)
	return &public, nil
}

func (s Service) verify(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if s.isAdminCredential(email, password) {
		return s.adminUser(ctx)
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if len(user.PasswordHash) == 0 {
		if s.cfg.AllowPasswordless {
			s.logger.Warn("passwordless sign in accepted", "user_id", user.ID)
			return user, nil
		}
		return nil, ErrInvalidCredentials
	}
	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s Service) isAdminCredential(email, password string) bool {
	if s.cfg.AdminEmail == "" || s.cfg.AdminPassword == "" {
		return false
	}
	if !strings.EqualFold(email, s.cfg.AdminEmail) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.AdminPassword)) == 1
}

func (s Service) adminUser(ctx context.Context) (*domain.User, error) {
	user, err := s.users.GetUserByEmail(ctx, s.cfg.AdminEmail)
	switch {
	case err == nil:
		return user, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	case s.admin == nil:
		return nil, ErrInvalidCredentials
	}
	restored, err := s.users.CreateUser(ctx, *s.admin)
	if err != nil {
		return nil, fmt.Errorf("restore admin: %w", err)
	}
	s.logger.Warn("admin account restored from seed", "user_id", restored.ID)
	return restored, nil
}

// SignUp creates a regular account and signs it in.
func (s Service) SignUp(ctx context.Context, sessionID, email, password, fullName string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user, err := s.users.CreateUser(ctx, domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     strings.TrimSpace(fullName),
		Role:         domain.RoleUser,
		CreatedAt:    s.now(),
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}
	public := user.Public()
	if err := s.sessions.SaveSession(ctx, sessionID, public); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return &public, nil
}

// SignOut clears the session.
func (s Service) SignOut(ctx context.Context, sessionID string) error {
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// CurrentUser returns the session's user, or nil when anonymous.
func (s Service) CurrentUser(ctx context.Context, sessionID string) (*domain.User, error) {
	return s.sessions.GetSession(ctx, sessionID)
}

// UpdateProfile merges update into the signed-in user, both in the user
// collection and in the session record.
func (s Service) UpdateProfile(ctx context.Context, sessionID string, update domain.ProfileUpdate) (*domain.User, error) {
	current, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNotLoggedIn
	}
	stored, err := s.users.ModifyUser(ctx, current.ID, func(u *domain.User) error {
		*u = update.Apply(*u)
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = s.sessions.DeleteSession(ctx, sessionID)
			return nil, ErrNotLoggedIn
		}
		return nil, err
	}
	public := stored.Public()
	if err := s.sessions.SaveSession(ctx, sessionID, public); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.logger.Info("profile updated", "user_id", public.ID)
	return &public, nil
}

// Login signs in under a new session and returns a token bound to it.
func (s Service) Login(ctx context.Context, email, password string) (*domain.User, TokenPair, error) {
	sid := NewSessionID()
	user, err := s.SignIn(ctx, sid, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	tokens, err := s.issueTokens(*user, sid)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return user, tokens, nil
}

// Signup registers under a new session and returns a token bound to it.
func (s Service) Signup(ctx context.Context, email, password, fullName string) (*domain.User, TokenPair, error) {
	sid := NewSessionID()
	user, err := s.SignUp(ctx, sid, email, password, fullName)
	if err != nil {
		return nil, TokenPair{}, err
	}
	tokens, err := s.issueTokens(*user, sid)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return user, tokens, nil
}

// Authorize validates a bearer token and returns the session user and claims.
// Tokens of signed-out sessions and of deleted users are rejected.
func (s Service) Authorize(ctx context.Context, token string) (*domain.User, *jwtpkg.Claims, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, nil, errors.New("token required")
	}
	claims, err := jwtpkg.Parse(trimmed, s.cfg.JWTSecret)
	if err != nil {
		return nil, nil, err
	}
	if claims.SessionID == "" {
		return nil, nil, ErrNotLoggedIn
	}
	session, err := s.sessions.GetSession(ctx, claims.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if session == nil || session.ID != claims.UserID {
		return nil, nil, ErrNotLoggedIn
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = s.sessions.DeleteSession(ctx, claims.SessionID)
			return nil, nil, ErrNotLoggedIn
		}
		return nil, nil, err
	}
	public := user.Public()
	return &public, claims, nil
}

func (s Service) issueTokens(user domain.User, sessionID string) (TokenPair, error) {
	access, err := jwtpkg.GenerateToken(user.ID, sessionID, string(user.Role), s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, ExpiresIn: s.cfg.AccessTokenTTL}, nil
}
