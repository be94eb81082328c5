package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/dtroode/securemail-server/internal/envelope"
	"github.com/dtroode/securemail-server/internal/logger"
	"github.com/dtroode/securemail-server/internal/model"
)

// GateConfig contains decryption gate parameters.
type GateConfig struct {
	MaxAttempts int
	CacheSize   int
	CacheTTL    time.Duration
	// KeyCheckInterval spaces key checks per recipient and message. Zero disables the throttle.
	KeyCheckInterval time.Duration
	KeyCheckBurst    int
}

type gateKey struct {
	messageID   uuid.UUID
	recipientID uuid.UUID
}

// Gate is the two-factor decryption gate: secret key first, then biometric.
// Exhausting the biometric attempts destroys the message.
type Gate struct {
	tx       model.Transactor
	accounts model.AccountStore
	messages model.MessageStore
	sessions model.DecryptionSessionStore
	audit    *Audit
	verifier model.BiometricVerifier
	notifier model.Notifier
	storage  model.Storage
	envelope *envelope.Envelope
	logger   *logger.Logger

	// content holds plaintext opened by a successful key check.
	content     *expirable.LRU[gateKey, string]
	maxAttempts int
	now         func() time.Time

	keyEvery    rate.Limit
	keyBurst    int
	keyLimitMu  sync.Mutex
	keyLimiters *expirable.LRU[gateKey, *rate.Limiter]
}

func NewGate(
	tx model.Transactor,
	accounts model.AccountStore,
	messages model.MessageStore,
	sessions model.DecryptionSessionStore,
	audit *Audit,
	verifier model.BiometricVerifier,
	notifier model.Notifier,
	storage model.Storage,
	env *envelope.Envelope,
	cfg GateConfig,
	logger *logger.Logger,
) *Gate {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = model.MaxBiometricAttempts
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 1024
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 15 * time.Minute
	}
	if cfg.KeyCheckBurst <= 0 {
		cfg.KeyCheckBurst = 1
	}
	keyEvery := rate.Inf
	if cfg.KeyCheckInterval > 0 {
		keyEvery = rate.Every(cfg.KeyCheckInterval)
	}

	return &Gate{
		tx:          tx,
		accounts:    accounts,
		messages:    messages,
		sessions:    sessions,
		audit:       audit,
		verifier:    verifier,
		notifier:    notifier,
		storage:     storage,
		envelope:    env,
		logger:      logger,
		content:     expirable.NewLRU[gateKey, string](cfg.CacheSize, nil, cfg.CacheTTL),
		maxAttempts: cfg.MaxAttempts,
		now:         time.Now,
		keyEvery:    keyEvery,
		keyBurst:    cfg.KeyCheckBurst,
		keyLimiters: expirable.NewLRU[gateKey, *rate.Limiter](cfg.CacheSize, nil, cfg.CacheTTL),
	}
}

// VerifyKey checks a candidate secret key against the message. Key attempts are unlimited
// but paced per recipient. A wrong key after a successful check leaves the session verified.
func (g *Gate) VerifyKey(ctx context.Context, messageID, recipientID uuid.UUID, key string, client model.ClientInfo) (model.KeyCheckResult, error) {
	if err := validateVar("key", key, "required,max=128"); err != nil {
		return model.KeyCheckResult{}, err
	}

	message, recipient, err := loadForRecipient(ctx, g.accounts, g.messages, messageID, recipientID)
	if err != nil {
		return model.KeyCheckResult{}, err
	}
	entry := g.entryFor(message, recipient, model.AttemptKeyVerification, client)

	if message.IsDestroyed {
		return model.KeyCheckResult{}, g.rejectDestroyed(ctx, entry)
	}

	if err := g.waitKeyCheck(ctx, gateKey{messageID: messageID, recipientID: recipientID}); err != nil {
		return model.KeyCheckResult{}, err
	}

	plaintext, openErr := g.envelope.Open(message.EncryptedContent, key)
	matched := openErr == nil

	var (
		destroyed bool
		state     model.GateState
	)
	err = g.tx.InTx(ctx, func(ctx context.Context) error {
		locked, err := g.messages.GetForUpdate(ctx, messageID)
		if err != nil {
			return fmt.Errorf("failed to lock message: %w", err)
		}
		if locked.IsDestroyed {
			destroyed = true
			return g.audit.Record(ctx, withDetail(entry, model.DetailAlreadyDestroyed))
		}

		session, err := g.sessions.GetOrCreate(ctx, messageID, recipientID, g.maxAttempts)
		if err != nil {
			return fmt.Errorf("failed to get decryption session: %w", err)
		}

		session.KeyAttempts++
		if matched {
			session.KeyVerified = true
		}
		session.UpdatedAt = g.now()
		if session, err = g.sessions.Update(ctx, session); err != nil {
			return fmt.Errorf("failed to update decryption session: %w", err)
		}
		state = session.State()

		entry.Success = matched
		entry.AttemptCount = session.KeyAttempts
		return g.audit.Record(ctx, entry)
	})
	if err != nil {
		g.logger.Error("Gate service: failed to record key attempt",
			"message_id", messageID,
			"recipient_id", recipientID,
			"error", err.Error())
		return model.KeyCheckResult{}, err
	}

	if destroyed {
		return model.KeyCheckResult{}, model.ErrMessageDestroyed
	}
	if !matched {
		return model.KeyCheckResult{}, model.ErrInvalidKey
	}

	g.content.Add(gateKey{messageID: messageID, recipientID: recipientID}, string(plaintext))

	return model.KeyCheckResult{State: state, KeyID: message.KeyID()}, nil
}

// VerifyBiometric runs the biometric check for a recipient that passed the key check.
// A failure returns *model.BiometricFailure. Once the check has passed, further calls
// return the content without running the verifier or spending an attempt.
func (g *Gate) VerifyBiometric(ctx context.Context, messageID, recipientID uuid.UUID, client model.ClientInfo) (model.BiometricResult, error) {
	message, recipient, err := loadForRecipient(ctx, g.accounts, g.messages, messageID, recipientID)
	if err != nil {
		return model.BiometricResult{}, err
	}
	entry := g.entryFor(message, recipient, model.AttemptBiometricVerification, client)

	if message.IsDestroyed {
		return model.BiometricResult{}, g.rejectDestroyed(ctx, entry)
	}

	session, err := g.sessions.Get(ctx, messageID, recipientID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.BiometricResult{}, fmt.Errorf("failed to get decryption session: %w", err)
	}
	if err != nil || !session.KeyVerified {
		return model.BiometricResult{}, model.ErrKeyNotVerified
	}
	if session.BiometricVerified {
		return g.opened(ctx, message, recipientID)
	}

	passed, err := g.verifier.Verify(ctx, recipientID)
	if err != nil {
		return model.BiometricResult{}, fmt.Errorf("failed to run biometric check: %w", err)
	}

	var (
		destroyedBefore bool
		notVerified     bool
		failure         *model.BiometricFailure
	)
	err = g.tx.InTx(ctx, func(ctx context.Context) error {
		locked, err := g.messages.GetForUpdate(ctx, messageID)
		if err != nil {
			return fmt.Errorf("failed to lock message: %w", err)
		}
		if locked.IsDestroyed {
			destroyedBefore = true
			return g.audit.Record(ctx, withDetail(entry, model.DetailAlreadyDestroyed))
		}

		session, err := g.sessions.Get(ctx, messageID, recipientID)
		if err != nil {
			return fmt.Errorf("failed to get decryption session: %w", err)
		}
		if !session.KeyVerified {
			notVerified = true
			return nil
		}
		if session.BiometricVerified {
			return nil
		}

		entry.AttemptCount = g.maxAttempts - session.AttemptsRemaining + 1
		entry.Success = passed
		session.UpdatedAt = g.now()

		if passed {
			session.BiometricVerified = true
			if _, err := g.sessions.Update(ctx, session); err != nil {
				return fmt.Errorf("failed to update decryption session: %w", err)
			}
			return g.audit.Record(ctx, entry)
		}

		session.AttemptsRemaining--
		if session, err = g.sessions.Update(ctx, session); err != nil {
			return fmt.Errorf("failed to update decryption session: %w", err)
		}
		failure = &model.BiometricFailure{AttemptsRemaining: session.AttemptsRemaining}
		if session.AttemptsRemaining > 0 {
			return g.audit.Record(ctx, entry)
		}

		failure.Destroyed = true
		if err := g.audit.Record(ctx, withDetail(entry, model.DetailMessageDestroyed)); err != nil {
			return err
		}
		if err := g.messages.MarkDestroyed(ctx, messageID); err != nil {
			return fmt.Errorf("failed to destroy message: %w", err)
		}
		if err := g.sessions.ResetAll(ctx, messageID); err != nil {
			return fmt.Errorf("failed to reset decryption sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		g.logger.Error("Gate service: failed to record biometric attempt",
			"message_id", messageID,
			"recipient_id", recipientID,
			"error", err.Error())
		return model.BiometricResult{}, err
	}

	switch {
	case destroyedBefore:
		return model.BiometricResult{}, model.ErrMessageDestroyed
	case notVerified:
		return model.BiometricResult{}, model.ErrKeyNotVerified
	case failure != nil:
		if failure.Destroyed {
			g.teardown(ctx, message, recipient)
		}
		return model.BiometricResult{}, failure
	}

	return g.opened(ctx, message, recipientID)
}

func (g *Gate) opened(ctx context.Context, message model.Message, recipientID uuid.UUID) (model.BiometricResult, error) {
	content, err := g.plaintext(ctx, message, recipientID)
	if err != nil {
		return model.BiometricResult{}, err
	}

	return model.BiometricResult{
		State:          model.GateStateBiometricVerified,
		Subject:        message.Subject,
		Content:        content,
		HasAttachment:  message.HasAttachment(),
		AttachmentName: message.AttachmentName,
	}, nil
}

// EndSession drops the recipient's verification flags and cached plaintext.
// The attempt counter is kept.
func (g *Gate) EndSession(ctx context.Context, messageID, recipientID uuid.UUID) error {
	g.content.Remove(gateKey{messageID: messageID, recipientID: recipientID})

	if err := g.sessions.Reset(ctx, messageID, recipientID); err != nil {
		return fmt.Errorf("failed to reset decryption session: %w", err)
	}
	return nil
}

// Session returns the recipient's gate state for the message.
func (g *Gate) Session(ctx context.Context, messageID, recipientID uuid.UUID) (model.DecryptionSession, error) {
	message, _, err := loadForRecipient(ctx, g.accounts, g.messages, messageID, recipientID)
	if err != nil {
		return model.DecryptionSession{}, err
	}

	session, err := g.sessions.Get(ctx, messageID, recipientID)
	if errors.Is(err, model.ErrNotFound) {
		session = model.DecryptionSession{
			MessageID:         messageID,
			RecipientID:       recipientID,
			AttemptsRemaining: g.maxAttempts,
		}
	} else if err != nil {
		return model.DecryptionSession{}, fmt.Errorf("failed to get decryption session: %w", err)
	}

	if message.IsDestroyed {
		session.AttemptsRemaining = 0
	}
	return session, nil
}

func (g *Gate) plaintext(ctx context.Context, message model.Message, recipientID uuid.UUID) (string, error) {
	if content, ok := g.content.Get(gateKey{messageID: message.ID, recipientID: recipientID}); ok {
		return content, nil
	}

	sender, err := g.accounts.GetByID(ctx, message.SenderID)
	if err != nil {
		return "", fmt.Errorf("failed to get sender: %w", err)
	}

	plaintext, err := g.envelope.Open(message.EncryptedContent, sender.SecretKey)
	if err != nil {
		return "", fmt.Errorf("failed to open message: %w", err)
	}
	return string(plaintext), nil
}

func (g *Gate) waitKeyCheck(ctx context.Context, key gateKey) error {
	if g.keyEvery == rate.Inf {
		return nil
	}

	g.keyLimitMu.Lock()
	limiter, ok := g.keyLimiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(g.keyEvery, g.keyBurst)
		g.keyLimiters.Add(key, limiter)
	}
	g.keyLimitMu.Unlock()

	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", model.ErrRateLimited, err)
	}
	return nil
}

func (g *Gate) rejectDestroyed(ctx context.Context, entry model.SecurityLogEntry) error {
	if err := g.audit.Record(ctx, withDetail(entry, model.DetailAlreadyDestroyed)); err != nil {
		return err
	}
	return model.ErrMessageDestroyed
}

// teardown runs after destruction commits. Failures are logged only.
func (g *Gate) teardown(ctx context.Context, message model.Message, recipient model.Account) {
	for _, key := range g.content.Keys() {
		if key.messageID == message.ID {
			g.content.Remove(key)
		}
	}

	g.logger.Warn("Gate service: message destroyed after failed biometric attempts",
		"message_id", message.ID,
		"recipient", recipient.Email)

	if message.HasAttachment() {
		if err := g.storage.Delete(ctx, message.AttachmentKey); err != nil {
			g.logger.Error("Gate service: failed to delete attachment",
				"message_id", message.ID,
				"key", message.AttachmentKey,
				"error", err.Error())
		}
	}

	if message.SenderEmail == "" {
		return
	}
	body := fmt.Sprintf("Your secure message %q to %s was permanently destroyed after %d failed biometric verification attempts.",
		message.Subject, recipient.Email, g.maxAttempts)
	if err := g.notifier.Notify(ctx, message.SenderEmail, "Secure message destroyed", body); err != nil {
		g.logger.Error("Gate service: failed to notify sender",
			"message_id", message.ID,
			"error", err.Error())
	}
}

func (g *Gate) entryFor(message model.Message, actor model.Account, attempt model.AttemptType, client model.ClientInfo) model.SecurityLogEntry {
	return model.SecurityLogEntry{
		EmailID:     message.ID,
		ActorEmail:  actor.Email,
		AttemptType: attempt,
		UserAgent:   client.UserAgent,
		IPAddress:   client.IPAddress,
	}
}

func withDetail(entry model.SecurityLogEntry, detail string) model.SecurityLogEntry {
	entry.Detail = detail
	return entry
}
