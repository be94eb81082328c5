package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/securemail-server/internal/logger"
	"github.com/dtroode/securemail-server/internal/model"
)

// DefaultPollInterval is how often Watch re-reads a pending request.
const DefaultPollInterval = 2 * time.Second

// ApprovalConfig contains attachment approval parameters.
type ApprovalConfig struct {
	PollInterval  time.Duration
	MaxPhotoBytes int
}

// Approval runs the attachment approval protocol between recipient and sender.
type Approval struct {
	accounts  model.AccountStore
	messages  model.MessageStore
	sessions  model.DecryptionSessionStore
	approvals model.ApprovalStore
	storage   model.Storage
	notifier  model.Notifier
	logger    *logger.Logger

	interval      time.Duration
	maxPhotoBytes int
	now           func() time.Time
}

func NewApproval(
	accounts model.AccountStore,
	messages model.MessageStore,
	sessions model.DecryptionSessionStore,
	approvals model.ApprovalStore,
	storage model.Storage,
	notifier model.Notifier,
	cfg ApprovalConfig,
	logger *logger.Logger,
) *Approval {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	return &Approval{
		accounts:      accounts,
		messages:      messages,
		sessions:      sessions,
		approvals:     approvals,
		storage:       storage,
		notifier:      notifier,
		logger:        logger,
		interval:      cfg.PollInterval,
		maxPhotoBytes: cfg.MaxPhotoBytes,
		now:           time.Now,
	}
}

// Request opens a pending request with the receiver's photo and notifies the
// sender. The request is kept when notification fails.
func (a *Approval) Request(ctx context.Context, params model.RequestApprovalParams) (model.ApprovalRequest, error) {
	if len(params.Photo) == 0 {
		return model.ApprovalRequest{}, model.NewValidationError("photo", "required")
	}
	if a.maxPhotoBytes > 0 && len(params.Photo) > a.maxPhotoBytes {
		return model.ApprovalRequest{}, model.NewValidationError("photo", "max")
	}

	message, receiver, err := loadForRecipient(ctx, a.accounts, a.messages, params.MessageID, params.ReceiverID)
	if err != nil {
		return model.ApprovalRequest{}, err
	}
	if message.IsDestroyed {
		return model.ApprovalRequest{}, model.ErrMessageDestroyed
	}
	if params.SenderID != uuid.Nil && params.SenderID != message.SenderID {
		return model.ApprovalRequest{}, model.NewValidationError("sender_id", "mismatch")
	}
	if !message.HasAttachment() {
		return model.ApprovalRequest{}, model.ErrNoAttachment
	}
	if err := requireBiometric(ctx, a.sessions, message.ID, receiver.ID); err != nil {
		return model.ApprovalRequest{}, err
	}

	request := model.ApprovalRequest{
		ID:         uuid.New(),
		EmailID:    message.ID,
		SenderID:   message.SenderID,
		ReceiverID: receiver.ID,
		Status:     model.ApprovalPending,
		CreatedAt:  a.now(),
	}
	request.PhotoKey = model.PhotoBlobKey(request.ID)

	if err := a.storage.Upload(ctx, request.PhotoKey, bytes.NewReader(params.Photo)); err != nil {
		a.logger.Error("Approval service: failed to upload photo",
			"message_id", message.ID,
			"error", err.Error())
		return model.ApprovalRequest{}, fmt.Errorf("failed to upload photo: %w", err)
	}

	saved, err := a.approvals.Create(ctx, request)
	if err != nil {
		if derr := a.storage.Delete(ctx, request.PhotoKey); derr != nil {
			a.logger.Warn("Approval service: failed to clean up photo",
				"key", request.PhotoKey,
				"error", derr.Error())
		}
		return model.ApprovalRequest{}, fmt.Errorf("failed to create verification request: %w", err)
	}

	a.logger.Info("Approval service: verification requested",
		"request_id", saved.ID,
		"message_id", message.ID,
		"receiver", receiver.Email,
		"client_ip", params.Client.IPAddress)

	a.notifySender(ctx, message, receiver)

	return saved, nil
}

// Decide approves or denies a pending request. Only the sender may decide, and only once.
func (a *Approval) Decide(ctx context.Context, requestID, callerID uuid.UUID, approved bool) (model.ApprovalRequest, error) {
	request, err := a.approvals.GetByID(ctx, requestID)
	if errors.Is(err, model.ErrNotFound) {
		return model.ApprovalRequest{}, model.ErrRequestNotFound
	}
	if err != nil {
		return model.ApprovalRequest{}, fmt.Errorf("failed to get verification request: %w", err)
	}
	if request.SenderID != callerID {
		return model.ApprovalRequest{}, model.ErrForbidden
	}

	status := model.ApprovalDenied
	if approved {
		status = model.ApprovalApproved
	}

	ok, err := a.approvals.Decide(ctx, requestID, status, a.now())
	if err != nil {
		return model.ApprovalRequest{}, fmt.Errorf("failed to decide verification request: %w", err)
	}
	if !ok {
		return model.ApprovalRequest{}, model.ErrAlreadyDecided
	}

	request, err = a.approvals.GetByID(ctx, requestID)
	if err != nil {
		return model.ApprovalRequest{}, fmt.Errorf("failed to get verification request: %w", err)
	}

	a.logger.Info("Approval service: verification decided",
		"request_id", requestID,
		"status", request.Status)

	return request, nil
}

// Poll returns the most recent request for (message, receiver).
func (a *Approval) Poll(ctx context.Context, messageID, receiverID uuid.UUID) (model.ApprovalRequest, error) {
	request, err := a.approvals.Latest(ctx, messageID, receiverID)
	if errors.Is(err, model.ErrNotFound) {
		return model.ApprovalRequest{}, model.ErrRequestNotFound
	}
	if err != nil {
		return model.ApprovalRequest{}, fmt.Errorf("failed to get verification request: %w", err)
	}
	return request, nil
}

// Watch polls every interval and calls fn whenever the latest request changes.
// It returns nil once a decided request is seen, or the context error.
func (a *Approval) Watch(ctx context.Context, messageID, receiverID uuid.UUID, interval time.Duration, fn func(model.ApprovalRequest) error) error {
	if interval <= 0 {
		interval = a.interval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last model.ApprovalRequest
	for {
		request, err := a.Poll(ctx, messageID, receiverID)
		if err != nil {
			return err
		}

		if request.ID != last.ID || request.Status != last.Status {
			if err := fn(request); err != nil {
				return err
			}
			last = request
		}
		if request.Status != model.ApprovalPending {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Pending lists the sender's undecided requests, newest first.
func (a *Approval) Pending(ctx context.Context, senderID uuid.UUID) ([]model.ApprovalRequest, error) {
	requests, err := a.approvals.ListPendingBySender(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	return requests, nil
}

// Photo returns the receiver photo attached to a request. Sender only.
func (a *Approval) Photo(ctx context.Context, requestID, callerID uuid.UUID) ([]byte, error) {
	request, err := a.approvals.GetByID(ctx, requestID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, model.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verification request: %w", err)
	}
	if request.SenderID != callerID {
		return nil, model.ErrForbidden
	}

	reader, err := a.storage.Download(ctx, request.PhotoKey)
	if err != nil {
		return nil, fmt.Errorf("failed to download photo: %w", err)
	}
	defer reader.Close()

	photo, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	return photo, nil
}

func (a *Approval) notifySender(ctx context.Context, message model.Message, receiver model.Account) {
	if message.SenderEmail == "" {
		return
	}

	body := fmt.Sprintf("Someone is trying to access an attachment you sent.\n\n"+
		"Receiver: %s\nAttachment: %s\n\n"+
		"The receiver has provided a photo for verification. Sign in to SecureMail to approve or deny this request.",
		receiver.Email, message.AttachmentName)

	if err := a.notifier.Notify(ctx, message.SenderEmail, "Verification Request - Attachment Access", body); err != nil {
		a.logger.Error("Approval service: failed to notify sender",
			"message_id", message.ID,
			"sender", message.SenderEmail,
			"error", err.Error())
	}
}
