// Package auth resolves session credentials to users and issues the session
// and admin tokens. Resolution fails closed: any credential that is not a
// valid, unexpired token for an existing user resolves to nobody.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/adsgram/backend/internal/apperr"
	"github.com/adsgram/backend/internal/models"
	"github.com/adsgram/backend/internal/ratelimit"
)

var (
	ErrUserNotFound     = apperr.New(apperr.KindNotFound, "user not found")
	ErrInvalidCode      = apperr.New(apperr.KindUnauthenticated, "invalid or expired code")
	ErrInvalidPIN       = apperr.New(apperr.KindUnauthenticated, "invalid pin")
	ErrLockedOut        = apperr.New(apperr.KindUnauthenticated, "too many attempts, try again later")
	ErrInvalidTelegram  = apperr.New(apperr.KindInvalidInput, "telegramId is required")
	ErrDevLoginDisabled = apperr.New(apperr.KindNotFound, "not found")
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
	// AdminName is recorded as the decider on admin actions.
	AdminName = "admin"

	// AdminLockout is how long an IP is refused after a wrong PIN.
	AdminLockout = 15 * time.Second
	// adminAttemptLimit bounds PIN attempts per IP inside one lockout window.
	adminAttemptLimit = 20
)

type claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpsertByTelegramID(ctx context.Context, telegramID string, username *string) (*models.User, error)
	ConsumeLoginCode(ctx context.Context, code string, now time.Time) (uuid.UUID, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*models.User, error)
}

// Lockout is the limiter capability used for admin PIN attempts.
type Lockout interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (ratelimit.Decision, error)
	Block(ctx context.Context, key string, window time.Duration) error
}

type Options struct {
	Secret     string
	SessionTTL time.Duration
	AdminTTL   time.Duration
	AdminPIN   string
	DevLogin   bool
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	Logger     *slog.Logger
}

type Service struct {
	users      UserStore
	lock       Lockout
	secret     []byte
	sessionTTL time.Duration
	adminTTL   time.Duration
	pinHash    []byte
	devLogin   bool
	now        func() time.Time
	log        *slog.Logger
}

// NewService hashes the admin PIN once so login compares against a bcrypt
// digest rather than the plain value.
func NewService(users UserStore, lock Lockout, opts Options) (*Service, error) {
	if opts.Secret == "" {
		return nil, errors.New("auth: empty signing secret")
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPIN), cost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash admin pin: %w", err)
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * 24 * time.Hour
	}
	if opts.AdminTTL <= 0 {
		opts.AdminTTL = 12 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		users:      users,
		lock:       lock,
		secret:     []byte(opts.Secret),
		sessionTTL: opts.SessionTTL,
		adminTTL:   opts.AdminTTL,
		pinHash:    hash,
		devLogin:   opts.DevLogin,
		now:        time.Now,
		log:        opts.Logger,
	}, nil
}

func (s *Service) SessionTTL() time.Duration { return s.sessionTTL }
func (s *Service) AdminTTL() time.Duration   { return s.adminTTL }

func (s *Service) issue(subject, role string, ttl time.Duration) (string, error) {
	now := s.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

// IssueSession signs a user session token.
func (s *Service) IssueSession(userID uuid.UUID) (string, error) {
	return s.issue(userID.String(), RoleUser, s.sessionTTL)
}

// parse verifies signature, algorithm and expiry and returns the claims.
func (s *Service) parse(token string) (*claims, bool) {
	if token == "" {
		return nil, false
	}
	c := &claims{}
	tok, err := jwt.ParseWithClaims(token, c, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tok.Valid {
		return nil, false
	}
	return c, true
}

// Resolve implements middleware.Resolver.
func (s *Service) Resolve(ctx context.Context, credential string) *models.User {
	c, ok := s.parse(credential)
	if !ok || c.Role != RoleUser {
		return nil
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			s.log.Warn("resolve session user", "user_id", id, "error", err)
		}
		return nil
	}
	return u
}

// VerifyAdmin implements middleware.AdminVerifier.
func (s *Service) VerifyAdmin(credential string) (string, bool) {
	c, ok := s.parse(credential)
	if !ok || c.Role != RoleAdmin {
		return "", false
	}
	return c.Subject, true
}

// DevLogin upserts the user by Telegram id and opens a session. Only
// available when enabled in configuration.
func (s *Service) DevLogin(ctx context.Context, telegramID string, username *string) (*models.User, string, error) {
	if !s.devLogin {
		return nil, "", ErrDevLoginDisabled
	}
	if telegramID == "" {
		return nil, "", ErrInvalidTelegram
	}
	u, err := s.users.UpsertByTelegramID(ctx, telegramID, username)
	if err != nil {
		return nil, "", fmt.Errorf("upsert user: %w", err)
	}
	token, err := s.IssueSession(u.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue session: %w", err)
	}
	return u, token, nil
}

// VerifyCode consumes a one-time 6 digit login code and opens a session.
func (s *Service) VerifyCode(ctx context.Context, code string) (*models.User, string, error) {
	if !validCode(code) {
		return nil, "", ErrInvalidCode
	}
	userID, err := s.users.ConsumeLoginCode(ctx, code, s.now())
	if err != nil {
		return nil, "", err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("load user: %w", err)
	}
	token, err := s.IssueSession(u.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue session: %w", err)
	}
	return u, token, nil
}

func validCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// AdminLogin checks pin and returns an admin token. A wrong pin locks the
// client IP out for AdminLockout.
func (s *Service) AdminLogin(ctx context.Context, clientIP, pin string) (string, error) {
	key := "admin-login:" + clientIP
	d, err := s.lock.Allow(ctx, key, adminAttemptLimit, AdminLockout)
	if err != nil {
		return "", err
	}
	if !d.Allowed {
		return "", ErrLockedOut
	}
	if err := bcrypt.CompareHashAndPassword(s.pinHash, []byte(pin)); err != nil {
		if err := s.lock.Block(ctx, key, AdminLockout); err != nil {
			s.log.Error("lock out admin login", "ip", clientIP, "error", err)
		}
		s.log.Warn("admin login failed", "ip", clientIP)
		return "", ErrInvalidPIN
	}
	return s.issue(AdminName, RoleAdmin, s.adminTTL)
}
