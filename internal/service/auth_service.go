package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"odenehouk/config"
	"odenehouk/internal/auth"
	"odenehouk/internal/domain"
	"odenehouk/internal/models"
	"odenehouk/internal/repository"
	"odenehouk/internal/security"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailExists   = errors.New("email already registered")
	ErrInvalidCreds  = errors.New("invalid email or password")
	ErrAccountLocked = errors.New("too many failed attempts, try again later")
	ErrNoSession     = errors.New("no active session")
	ErrSuspended     = errors.New("account suspended")
)

// Session is what a successful login or refresh hands back to the client.
type Session struct {
	User             *models.User
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type AuthService struct {
	cfg       *config.Config
	db        *gorm.DB
	userRepo  *repository.UserRepository
	tokenRepo *repository.RefreshTokenRepository
	attempts  security.AttemptTracker
}

func NewAuthService(cfg *config.Config, db *gorm.DB, attempts security.AttemptTracker) *AuthService {
	return &AuthService{
		cfg:       cfg,
		db:        db,
		userRepo:  repository.NewUserRepository(db),
		tokenRepo: repository.NewRefreshTokenRepository(db),
		attempts:  attempts,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(name, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	_, err := s.userRepo.GetByEmail(email)
	if err == nil {
		return nil, ErrEmailExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		UUID:         uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleCustomer,
		Status:       domain.UserStatusActive,
	}
	if err := s.userRepo.Create(u); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return u, nil
}

// Login checks credentials. Failures count against the email; once the
// tracker reports a lock, Login refuses before touching the password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	key := security.LoginKey(email)

	locked, err := s.attempts.Locked(ctx, key)
	if err != nil {
		log.Printf("[auth] attempt tracker unavailable: %v", err)
	}
	if locked {
		return nil, ErrAccountLocked
	}

	u, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		s.recordFailure(ctx, key)
		return nil, ErrInvalidCreds
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.recordFailure(ctx, key)
		return nil, ErrInvalidCreds
	}
	if err := s.attempts.Reset(ctx, key); err != nil {
		log.Printf("[auth] reset attempts for %s: %v", email, err)
	}
	if u.Status != domain.UserStatusActive {
		return nil, ErrSuspended
	}
	return s.issue(s.tokenRepo, u)
}

func (s *AuthService) recordFailure(ctx context.Context, key string) {
	if _, err := s.attempts.RecordFailure(ctx, key); err != nil {
		log.Printf("[auth] record failed attempt: %v", err)
	}
}

func (s *AuthService) issue(tokens *repository.RefreshTokenRepository, u *models.User) (*Session, error) {
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.UUID, u.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := auth.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	expires := time.Now().Add(s.cfg.JWT.RefreshExpiry)
	if err := tokens.Create(&models.RefreshToken{
		UserID:    u.ID,
		TokenHash: auth.HashRefreshToken(refresh),
		ExpiresAt: expires,
	}); err != nil {
		return nil, err
	}
	return &Session{User: u, AccessToken: access, RefreshToken: refresh, RefreshExpiresAt: expires}, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// one issued. Missing, unknown, revoked or expired tokens yield ErrNoSession.
func (s *AuthService) Refresh(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	var session *Session
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tokens := s.tokenRepo.WithTx(tx)
		rec, err := tokens.GetByHash(auth.HashRefreshToken(token))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoSession
		}
		if err != nil {
			return err
		}
		if rec.Revoked || rec.ExpiresAt.Before(time.Now()) {
			return ErrNoSession
		}
		ok, err := tokens.Revoke(rec.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNoSession
		}
		u, err := repository.NewUserRepository(tx).GetByID(rec.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoSession
		}
		if err != nil {
			return err
		}
		if u.Status != domain.UserStatusActive {
			return ErrNoSession
		}
		session, err = s.issue(tokens, u)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *AuthService) Logout(token string) error {
	if token == "" {
		return nil
	}
	return s.tokenRepo.RevokeByHash(auth.HashRefreshToken(token))
}

func (s *AuthService) Me(userID uint) (*models.User, error) {
	return s.userRepo.GetByID(userID)
}
