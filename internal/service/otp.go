package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/dtroode/securemail-server/internal/logger"
	"github.com/dtroode/securemail-server/internal/model"
)

const otpDigits = 6

var otpSpace = big.NewInt(1_000_000)

// OTPConfig contains issuance parameters.
type OTPConfig struct {
	TTL time.Duration
	// ResendInterval is the steady rate at which one (email, type) pair may request codes.
	// Zero disables throttling.
	ResendInterval time.Duration
	Burst          int
	LimiterSize    int
}

// OTP issues and verifies one-time passcodes.
type OTP struct {
	store    model.OTPStore
	notifier model.Notifier
	logger   *logger.Logger

	ttl      time.Duration
	every    rate.Limit
	burst    int
	limitMu  sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]

	hashCost int
	now      func() time.Time
}

func NewOTP(store model.OTPStore, notifier model.Notifier, cfg OTPConfig, logger *logger.Logger) (*OTP, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = model.OTPTTL
	}
	if cfg.LimiterSize <= 0 {
		cfg.LimiterSize = 10000
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	limiters, err := lru.New[string, *rate.Limiter](cfg.LimiterSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create limiter cache: %w", err)
	}

	every := rate.Inf
	if cfg.ResendInterval > 0 {
		every = rate.Every(cfg.ResendInterval)
	}

	return &OTP{
		store:    store,
		notifier: notifier,
		logger:   logger,
		ttl:      cfg.TTL,
		every:    every,
		burst:    cfg.Burst,
		limiters: limiters,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}, nil
}

// Issue generates a code for (email, type), replacing any previous one, and delivers it.
// The returned record carries the plaintext code.
func (s *OTP) Issue(ctx context.Context, email string, otpType model.OTPType) (model.OTPRecord, error) {
	email = normalizeEmail(email)
	if err := validateVar("email", email, "required,email,max=255"); err != nil {
		return model.OTPRecord{}, err
	}
	if !otpType.Valid() {
		return model.OTPRecord{}, model.NewValidationError("type", "oneof")
	}

	now := s.now()
	if !s.allow(email, otpType, now) {
		s.logger.Info("OTP service: issuance throttled",
			"email", email,
			"type", otpType)
		return model.OTPRecord{}, model.ErrRateLimited
	}

	code, err := generateCode()
	if err != nil {
		return model.OTPRecord{}, fmt.Errorf("failed to generate code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.hashCost)
	if err != nil {
		return model.OTPRecord{}, fmt.Errorf("failed to hash code: %w", err)
	}

	record := model.OTPRecord{
		ID:        uuid.New(),
		Email:     email,
		Type:      otpType,
		CodeHash:  hash,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	if err := s.store.Upsert(ctx, record); err != nil {
		s.logger.Error("OTP service: failed to save code",
			"email", email,
			"type", otpType,
			"error", err.Error())
		return model.OTPRecord{}, fmt.Errorf("failed to save code: %w", err)
	}

	subject := "Your SecureMail verification code"
	body := fmt.Sprintf("Your %s verification code is %s. It expires in %d minutes.",
		otpType, code, int(s.ttl.Minutes()))
	if err := s.notifier.Notify(ctx, email, subject, body); err != nil {
		s.logger.Error("OTP service: failed to deliver code",
			"email", email,
			"type", otpType,
			"error", err.Error())
		return model.OTPRecord{}, fmt.Errorf("%w: %w", model.ErrNotificationDelivery, err)
	}

	s.logger.Info("OTP service: code issued",
		"email", email,
		"type", otpType,
		"expires_at", record.ExpiresAt)

	record.Code = code
	return record, nil
}

// Verify consumes the code for (email, type). Any mismatch, expiry or reuse yields ErrInvalidOrExpiredOTP.
func (s *OTP) Verify(ctx context.Context, email, code string, otpType model.OTPType) error {
	email = normalizeEmail(email)
	if err := validateVar("code", code, "required,len=6,numeric"); err != nil {
		return err
	}
	if !otpType.Valid() {
		return model.NewValidationError("type", "oneof")
	}

	record, err := s.store.Get(ctx, email, otpType)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrInvalidOrExpiredOTP
	}
	if err != nil {
		return fmt.Errorf("failed to get code: %w", err)
	}

	now := s.now()
	if record.Verified || !now.Before(record.ExpiresAt) {
		return model.ErrInvalidOrExpiredOTP
	}
	if bcrypt.CompareHashAndPassword(record.CodeHash, []byte(code)) != nil {
		s.logger.Info("OTP service: code mismatch",
			"email", email,
			"type", otpType)
		return model.ErrInvalidOrExpiredOTP
	}

	ok, err := s.store.MarkVerified(ctx, record.ID, now)
	if err != nil {
		return fmt.Errorf("failed to mark code verified: %w", err)
	}
	if !ok {
		return model.ErrInvalidOrExpiredOTP
	}

	s.logger.Info("OTP service: code verified",
		"email", email,
		"type", otpType)

	return nil
}

// Cleanup deletes codes that expired or were consumed before the cutoff.
func (s *OTP) Cleanup(ctx context.Context, grace time.Duration) (int64, error) {
	n, err := s.store.DeleteStale(ctx, s.now().Add(-grace))
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale codes: %w", err)
	}
	return n, nil
}

func (s *OTP) allow(email string, otpType model.OTPType, now time.Time) bool {
	if s.every == rate.Inf {
		return true
	}

	key := email + "|" + string(otpType)

	s.limitMu.Lock()
	limiter, ok := s.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(s.every, s.burst)
		s.limiters.Add(key, limiter)
	}
	s.limitMu.Unlock()

	return limiter.AllowN(now, 1)
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
