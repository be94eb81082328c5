package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/securemail-server/internal/envelope"
	"github.com/dtroode/securemail-server/internal/logger"
	"github.com/dtroode/securemail-server/internal/model"
)

// Message creates and serves secure messages.
type Message struct {
	accounts  model.AccountStore
	messages  model.MessageStore
	sessions  model.DecryptionSessionStore
	approvals model.ApprovalStore
	audit     *Audit
	storage   model.Storage
	envelope  *envelope.Envelope
	logger    *logger.Logger

	maxAttachmentBytes int
	now                func() time.Time
}

func NewMessage(
	accounts model.AccountStore,
	messages model.MessageStore,
	sessions model.DecryptionSessionStore,
	approvals model.ApprovalStore,
	audit *Audit,
	storage model.Storage,
	env *envelope.Envelope,
	maxAttachmentBytes int,
	logger *logger.Logger,
) *Message {
	return &Message{
		accounts:           accounts,
		messages:           messages,
		sessions:           sessions,
		approvals:          approvals,
		audit:              audit,
		storage:            storage,
		envelope:           env,
		logger:             logger,
		maxAttachmentBytes: maxAttachmentBytes,
		now:                time.Now,
	}
}

// Create seals the body and attachment with the sender's key and stores the message.
func (s *Message) Create(ctx context.Context, params model.CreateMessageParams) (model.Message, error) {
	params.RecipientEmail = normalizeEmail(params.RecipientEmail)
	if err := validateStruct(params); err != nil {
		return model.Message{}, err
	}
	if s.maxAttachmentBytes > 0 && len(params.Attachment) > s.maxAttachmentBytes {
		return model.Message{}, model.NewValidationError("attachment", "max")
	}

	sender, err := s.accounts.GetByID(ctx, params.SenderID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Message{}, err
		}
		return model.Message{}, fmt.Errorf("failed to get sender: %w", err)
	}
	if !sender.HasSecretKey() {
		return model.Message{}, model.ErrSecretKeyMissing
	}

	content, err := s.envelope.Seal([]byte(params.Body), sender.SecretKey)
	if err != nil {
		return model.Message{}, fmt.Errorf("failed to seal content: %w", err)
	}

	message := model.Message{
		ID:                   uuid.New(),
		SenderID:             sender.ID,
		RecipientEmail:       params.RecipientEmail,
		Subject:              params.Subject,
		EncryptedContent:     content,
		SenderKeyFingerprint: envelope.Fingerprint(sender.SecretKey),
		CreatedAt:            s.now(),
	}

	if len(params.Attachment) > 0 {
		sealed, err := s.envelope.Seal(params.Attachment, sender.SecretKey)
		if err != nil {
			return model.Message{}, fmt.Errorf("failed to seal attachment: %w", err)
		}

		message.AttachmentKey = model.AttachmentBlobKey(message.ID)
		message.AttachmentName = params.AttachmentName
		if err := s.storage.Upload(ctx, message.AttachmentKey, bytes.NewReader(sealed)); err != nil {
			s.logger.Error("Message service: failed to upload attachment",
				"message_id", message.ID,
				"error", err.Error())
			return model.Message{}, fmt.Errorf("failed to upload attachment: %w", err)
		}
	}

	saved, err := s.messages.Create(ctx, message)
	if err != nil {
		s.logger.Error("Message service: failed to save message",
			"message_id", message.ID,
			"error", err.Error())
		if message.HasAttachment() {
			if derr := s.storage.Delete(ctx, message.AttachmentKey); derr != nil {
				s.logger.Warn("Message service: failed to clean up attachment",
					"key", message.AttachmentKey,
					"error", derr.Error())
			}
		}
		return model.Message{}, fmt.Errorf("failed to save message: %w", err)
	}
	saved.SenderEmail = sender.Email

	s.logger.Info("Message service: message sent",
		"message_id", saved.ID,
		"sender", sender.Email,
		"recipient", saved.RecipientEmail,
		"has_attachment", saved.HasAttachment())

	return saved, nil
}

// Inbox lists live messages addressed to the account, newest first.
func (s *Message) Inbox(ctx context.Context, accountID uuid.UUID) ([]model.Message, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	messages, err := s.messages.ListByRecipient(ctx, account.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, nil
}

// DownloadAttachment releases the attachment once the recipient passed both
// factors and the sender approved the latest request.
func (s *Message) DownloadAttachment(ctx context.Context, messageID, accountID uuid.UUID) (model.Attachment, error) {
	message, _, err := loadForRecipient(ctx, s.accounts, s.messages, messageID, accountID)
	if err != nil {
		return model.Attachment{}, err
	}
	if message.IsDestroyed {
		return model.Attachment{}, model.ErrMessageDestroyed
	}
	if !message.HasAttachment() {
		return model.Attachment{}, model.ErrNoAttachment
	}

	if err := requireBiometric(ctx, s.sessions, messageID, accountID); err != nil {
		return model.Attachment{}, err
	}

	request, err := s.approvals.Latest(ctx, messageID, accountID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Attachment{}, model.ErrApprovalRequired
	}
	if err != nil {
		return model.Attachment{}, fmt.Errorf("failed to get approval: %w", err)
	}
	if request.Status != model.ApprovalApproved {
		return model.Attachment{}, model.ErrApprovalRequired
	}

	sender, err := s.accounts.GetByID(ctx, message.SenderID)
	if err != nil {
		return model.Attachment{}, fmt.Errorf("failed to get sender: %w", err)
	}

	reader, err := s.storage.Download(ctx, message.AttachmentKey)
	if err != nil {
		return model.Attachment{}, fmt.Errorf("failed to download attachment: %w", err)
	}
	defer reader.Close()

	sealed, err := io.ReadAll(reader)
	if err != nil {
		return model.Attachment{}, fmt.Errorf("failed to read attachment: %w", err)
	}

	data, err := s.envelope.Open(sealed, sender.SecretKey)
	if err != nil {
		s.logger.Error("Message service: failed to open attachment",
			"message_id", messageID,
			"error", err.Error())
		return model.Attachment{}, fmt.Errorf("failed to open attachment: %w", err)
	}

	s.logger.Info("Message service: attachment released",
		"message_id", messageID,
		"account_id", accountID,
		"request_id", request.ID)

	return model.Attachment{Name: message.AttachmentName, Data: data}, nil
}

// SecurityLog returns the message's verification history to its sender.
func (s *Message) SecurityLog(ctx context.Context, messageID, accountID uuid.UUID) ([]model.SecurityLogEntry, error) {
	message, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	if message.SenderID != accountID {
		return nil, model.ErrForbidden
	}

	return s.audit.ForMessage(ctx, messageID)
}

// loadForRecipient returns the message if it is addressed to the account.
// Other callers get ErrNotFound so message IDs do not leak.
func loadForRecipient(
	ctx context.Context,
	accounts model.AccountStore,
	messages model.MessageStore,
	messageID, accountID uuid.UUID,
) (model.Message, model.Account, error) {
	account, err := accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Message{}, model.Account{}, err
		}
		return model.Message{}, model.Account{}, fmt.Errorf("failed to get account: %w", err)
	}

	message, err := messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Message{}, model.Account{}, err
		}
		return model.Message{}, model.Account{}, fmt.Errorf("failed to get message: %w", err)
	}

	if !strings.EqualFold(message.RecipientEmail, account.Email) {
		return model.Message{}, model.Account{}, model.ErrNotFound
	}

	return message, account, nil
}

func requireBiometric(ctx context.Context, sessions model.DecryptionSessionStore, messageID, accountID uuid.UUID) error {
	session, err := sessions.Get(ctx, messageID, accountID)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrNotBiometricVerified
	}
	if err != nil {
		return fmt.Errorf("failed to get decryption session: %w", err)
	}
	if !session.BiometricVerified {
		return model.ErrNotBiometricVerified
	}
	return nil
}
