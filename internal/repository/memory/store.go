// Package memory is an in-process record and blob store for development and tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/dtroode/securemail-server/internal/model"
)

type otpKey struct {
	email string
	typ   model.OTPType
}

type sessionKey struct {
	messageID   uuid.UUID
	recipientID uuid.UUID
}

type txKey struct{}

var _ model.Transactor = (*Store)(nil)

// Store holds all records. Transactions are serialized and roll back on error.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	accounts  map[uuid.UUID]model.Account
	otps      map[otpKey]model.OTPRecord
	messages  map[uuid.UUID]model.Message
	sessions  map[sessionKey]model.DecryptionSession
	approvals []model.ApprovalRequest
	logs      []model.SecurityLogEntry
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[uuid.UUID]model.Account),
		otps:     make(map[otpKey]model.OTPRecord),
		messages: make(map[uuid.UUID]model.Message),
		sessions: make(map[sessionKey]model.DecryptionSession),
	}
}

type snapshot struct {
	accounts  map[uuid.UUID]model.Account
	otps      map[otpKey]model.OTPRecord
	messages  map[uuid.UUID]model.Message
	sessions  map[sessionKey]model.DecryptionSession
	approvals []model.ApprovalRequest
	logs      int
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return snapshot{
		accounts:  maps.Clone(s.accounts),
		otps:      maps.Clone(s.otps),
		messages:  maps.Clone(s.messages),
		sessions:  maps.Clone(s.sessions),
		approvals: slices.Clone(s.approvals),
		logs:      len(s.logs),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = snap.accounts
	s.otps = snap.otps
	s.messages = snap.messages
	s.sessions = snap.sessions
	s.approvals = snap.approvals
	s.logs = s.logs[:snap.logs]
}

// lockWrite locks the store for a write. Writes outside a transaction also wait
// for the open transaction so a rollback cannot discard them.
func (s *Store) lockWrite(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		s.mu.Lock()
		return s.mu.Unlock
	}

	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

// InTx runs fn holding the store-wide transaction lock.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
		if err != nil {
			s.restore(snap)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, struct{}{}))
}

// Accounts returns the account repository.
func (s *Store) Accounts() *AccountRepository { return &AccountRepository{s: s} }

// OTPs returns the passcode repository.
func (s *Store) OTPs() *OTPRepository { return &OTPRepository{s: s} }

// Messages returns the message repository.
func (s *Store) Messages() *MessageRepository { return &MessageRepository{s: s} }

// Sessions returns the decryption session repository.
func (s *Store) Sessions() *SessionRepository { return &SessionRepository{s: s} }

// Approvals returns the verification request repository.
func (s *Store) Approvals() *ApprovalRepository { return &ApprovalRepository{s: s} }

// SecurityLogs returns the security log repository.
func (s *Store) SecurityLogs() *SecurityLogRepository { return &SecurityLogRepository{s: s} }
