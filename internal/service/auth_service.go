package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/store"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for every login mismatch. The message
// never says which of email or password was wrong.
var ErrInvalidCredentials = errors.New("invalid email or password")

var ErrAccountLocked = errors.New("account temporarily locked")

const adminCollection = "admin"

type AuthService struct {
	store      store.Store
	jwtService *JWTService
	locks      LockRepo

	defaultEmail    string
	defaultPassword string

	mu             sync.Mutex
	failedAttempts map[string]*failedLogin
}

type failedLogin struct {
	failedAt     int64
	failedNumber int
}

func NewAuthService(st store.Store, jwtService *JWTService, locks LockRepo, defaultEmail, defaultPassword string) *AuthService {
	if locks == nil {
		locks = NoopLockRepo{}
	}
	return &AuthService{
		store:           st,
		jwtService:      jwtService,
		locks:           locks,
		defaultEmail:    defaultEmail,
		defaultPassword: defaultPassword,
		failedAttempts:  make(map[string]*failedLogin),
	}
}

// EnsureAdmin creates the admin credential record with the configured
// default email and password if none exists yet. Called at startup and
// again on the login path, so the very first login against a fresh store
// still finds a credential to compare with.
func (s *AuthService) EnsureAdmin(ctx context.Context) (store.Record, error) {
	admin, err := s.store.Get(ctx, adminCollection, models.AdminID)
	if err == nil {
		return admin, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing default password: %w", err)
	}

	rec := store.Record{
		"email":        s.defaultEmail,
		"passwordHash": string(hash),
	}
	if err := s.store.Write(ctx, adminCollection, models.AdminID, rec); err != nil {
		return nil, err
	}
	log.Printf("Created default admin credential for %s", s.defaultEmail)

	return s.store.Get(ctx, adminCollection, models.AdminID)
}

// Login verifies email+password against the admin credential and issues a
// signed token. Rapid or repeated failures lock the account for a while.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	if s.locks.IsLocked(ctx, email) {
		return "", ErrAccountLocked
	}

	admin, err := s.EnsureAdmin(ctx)
	if err != nil {
		return "", err
	}

	if email != admin.Str("email") || !s.verifyPassword(admin, password) {
		s.recordFailure(ctx, email)
		return "", ErrInvalidCredentials
	}

	return s.jwtService.GenerateToken(email, models.RoleAdmin)
}

// ChangePassword re-verifies the current password before storing the new
// hash.
func (s *AuthService) ChangePassword(ctx context.Context, email, currentPassword, newPassword string) error {
	admin, err := s.store.Get(ctx, adminCollection, models.AdminID)
	if err != nil {
		return err
	}
	if email != admin.Str("email") || !s.verifyPassword(admin, currentPassword) {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	_, err = s.store.Merge(ctx, adminCollection, models.AdminID, store.Record{
		"passwordHash": string(hash),
	})
	return err
}

// ChangeEmail re-verifies the password, stores the new email and returns a
// fresh token carrying it.
func (s *AuthService) ChangeEmail(ctx context.Context, email, password, newEmail string) (string, error) {
	admin, err := s.store.Get(ctx, adminCollection, models.AdminID)
	if err != nil {
		return "", err
	}
	if email != admin.Str("email") || !s.verifyPassword(admin, password) {
		return "", ErrInvalidCredentials
	}

	if _, err := s.store.Merge(ctx, adminCollection, models.AdminID, store.Record{
		"email": newEmail,
	}); err != nil {
		return "", err
	}

	return s.jwtService.GenerateToken(newEmail, models.RoleAdmin)
}

func (s *AuthService) verifyPassword(admin store.Record, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(admin.Str("passwordHash")), []byte(password))
	return err == nil
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	now := time.Now().UnixMilli()

	s.mu.Lock()
	attempt := s.failedAttempts[email]
	if attempt == nil {
		attempt = &failedLogin{}
		s.failedAttempts[email] = attempt
	}
	lastFailedAt := attempt.failedAt
	attempt.failedAt = now
	attempt.failedNumber++
	failedNumber := attempt.failedNumber
	s.mu.Unlock()

	if lastFailedAt != 0 && now-lastFailedAt < 1000 {
		log.Printf("Warning: Suspicious login activity for %s, instant lock activated", email)
		s.locks.Lock(ctx, email, 10*time.Minute)
		return
	}
	if failedNumber > 10 {
		log.Printf("Login for %s failed %d times, locked for 10 minutes", email, failedNumber)
		s.locks.Lock(ctx, email, 10*time.Minute)
	}
}
