package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/dtroode/securemail-server/internal/model"
)

var _ model.DecryptionSessionStore = (*SessionRepository)(nil)

type SessionRepository struct {
	s *Store
}

func (r *SessionRepository) GetOrCreate(ctx context.Context, messageID, recipientID uuid.UUID, maxAttempts int) (model.DecryptionSession, error) {
	defer r.s.lockWrite(ctx)()

	key := sessionKey{messageID: messageID, recipientID: recipientID}
	if session, ok := r.s.sessions[key]; ok {
		return session, nil
	}

	session := model.DecryptionSession{
		MessageID:         messageID,
		RecipientID:       recipientID,
		AttemptsRemaining: maxAttempts,
	}
	r.s.sessions[key] = session
	return session, nil
}

func (r *SessionRepository) Get(_ context.Context, messageID, recipientID uuid.UUID) (model.DecryptionSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	session, ok := r.s.sessions[sessionKey{messageID: messageID, recipientID: recipientID}]
	if !ok {
		return model.DecryptionSession{}, model.ErrNotFound
	}
	return session, nil
}

func (r *SessionRepository) Update(ctx context.Context, session model.DecryptionSession) (model.DecryptionSession, error) {
	defer r.s.lockWrite(ctx)()

	key := sessionKey{messageID: session.MessageID, recipientID: session.RecipientID}
	current, ok := r.s.sessions[key]
	if !ok {
		return model.DecryptionSession{}, model.ErrNotFound
	}

	current.KeyVerified = session.KeyVerified
	current.BiometricVerified = session.BiometricVerified
	current.AttemptsRemaining = min(current.AttemptsRemaining, session.AttemptsRemaining)
	current.KeyAttempts = session.KeyAttempts
	current.UpdatedAt = session.UpdatedAt
	if current.CreatedAt.IsZero() {
		current.CreatedAt = session.UpdatedAt
	}
	r.s.sessions[key] = current
	return current, nil
}

func (r *SessionRepository) Reset(ctx context.Context, messageID, recipientID uuid.UUID) error {
	defer r.s.lockWrite(ctx)()

	key := sessionKey{messageID: messageID, recipientID: recipientID}
	if session, ok := r.s.sessions[key]; ok {
		session.KeyVerified = false
		session.BiometricVerified = false
		r.s.sessions[key] = session
	}
	return nil
}

func (r *SessionRepository) ResetAll(ctx context.Context, messageID uuid.UUID) error {
	defer r.s.lockWrite(ctx)()

	for key, session := range r.s.sessions {
		if key.messageID != messageID {
			continue
		}
		session.KeyVerified = false
		session.BiometricVerified = false
		r.s.sessions[key] = session
	}
	return nil
}
