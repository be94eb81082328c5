package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/dtroode/securemail-server/internal/model"
)

var _ model.MessageStore = (*MessageRepository)(nil)

type MessageRepository struct {
	s *Store
}

func (r *MessageRepository) Create(ctx context.Context, message model.Message) (model.Message, error) {
	defer r.s.lockWrite(ctx)()

	if _, ok := r.s.messages[message.ID]; ok {
		return model.Message{}, model.ErrAlreadyExists
	}
	message.SenderEmail = ""
	r.s.messages[message.ID] = message
	return r.withSender(message), nil
}

func (r *MessageRepository) GetByID(_ context.Context, id uuid.UUID) (model.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	message, ok := r.s.messages[id]
	if !ok {
		return model.Message{}, model.ErrNotFound
	}
	return r.withSender(message), nil
}

// GetForUpdate relies on InTx serialization for the lock.
func (r *MessageRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (model.Message, error) {
	return r.GetByID(ctx, id)
}

func (r *MessageRepository) ListByRecipient(_ context.Context, email string) ([]model.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	messages := make([]model.Message, 0)
	for _, message := range r.s.messages {
		if message.RecipientEmail == email && !message.IsDestroyed {
			messages = append(messages, r.withSender(message))
		}
	}
	slices.SortFunc(messages, func(a, b model.Message) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return messages, nil
}

func (r *MessageRepository) MarkDestroyed(ctx context.Context, id uuid.UUID) error {
	defer r.s.lockWrite(ctx)()

	message, ok := r.s.messages[id]
	if !ok {
		return model.ErrNotFound
	}
	message.IsDestroyed = true
	r.s.messages[id] = message
	return nil
}

// withSender must be called with mu held.
func (r *MessageRepository) withSender(message model.Message) model.Message {
	if sender, ok := r.s.accounts[message.SenderID]; ok {
		message.SenderEmail = sender.Email
	}
	return message
}
