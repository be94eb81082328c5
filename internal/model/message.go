package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MessageStore defines persistence operations for secure messages.
type MessageStore interface {
	Create(ctx context.Context, message Message) (Message, error)
	GetByID(ctx context.Context, id uuid.UUID) (Message, error)
	// GetForUpdate returns the message and locks its row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (Message, error)
	ListByRecipient(ctx context.Context, email string) ([]Message, error)
	MarkDestroyed(ctx context.Context, id uuid.UUID) error
}

// Message represents a secure message. Content and attachment are sealed with the sender key.
type Message struct {
	ID                   uuid.UUID
	SenderID             uuid.UUID
	SenderEmail          string
	RecipientEmail       string
	Subject              string
	EncryptedContent     []byte
	AttachmentKey        string
	AttachmentName       string
	SenderKeyFingerprint string
	CreatedAt            time.Time
	IsDestroyed          bool
}

// HasAttachment reports whether an attachment blob belongs to the message.
func (m Message) HasAttachment() bool {
	return m.AttachmentKey != ""
}

// KeyID is the short key identifier shown to the recipient.
func (m Message) KeyID() string {
	if len(m.SenderKeyFingerprint) < 8 {
		return m.SenderKeyFingerprint
	}
	return m.SenderKeyFingerprint[:8]
}

// CreateMessageParams contains parameters to send a message.
type CreateMessageParams struct {
	SenderID       uuid.UUID
	RecipientEmail string `validate:"required,email,max=255"`
	Subject        string `validate:"required,max=200"`
	Body           string `validate:"required,max=10000"`
	AttachmentName string `validate:"required_with=Attachment,max=255"`
	Attachment     []byte
}

// Attachment is a decrypted attachment ready for download.
type Attachment struct {
	Name string
	Data []byte
}
