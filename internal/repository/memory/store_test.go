package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/securemail-server/internal/model"
)

func seedAccount(t *testing.T, s *Store, email string) model.Account {
	t.Helper()
	a, err := s.Accounts().Create(context.Background(), model.Account{ID: uuid.New(), Email: email})
	require.NoError(t, err)
	return a
}

func TestStore_InTx_RollsBackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a := seedAccount(t, s, "a@example.com")

	boom := errors.New("boom")
	err := s.InTx(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Accounts().SetSecretKey(ctx, a.ID, "KEY", time.Now()))
		require.NoError(t, s.SecurityLogs().Append(ctx, model.SecurityLogEntry{ID: uuid.New()}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Accounts().GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.HasSecretKey())
	assert.Empty(t, s.logs)
}

func TestStore_InTx_RollbackKeepsOutsideWrites(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	other := model.SecurityLogEntry{ID: uuid.New(), EmailID: uuid.New()}

	entered := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- s.InTx(ctx, func(ctx context.Context) error {
			if err := s.SecurityLogs().Append(ctx, model.SecurityLogEntry{ID: uuid.New()}); err != nil {
				return err
			}
			close(entered)
			<-release
			return errors.New("boom")
		})
	}()
	<-entered

	appendDone := make(chan error, 1)
	go func() {
		appendDone <- s.SecurityLogs().Append(ctx, other)
	}()

	select {
	case <-appendDone:
		t.Fatal("append outside the transaction did not wait for it")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.Error(t, <-txDone)
	require.NoError(t, <-appendDone)

	entries, err := s.SecurityLogs().ListByMessage(ctx, other.EmailID)
	require.NoError(t, err)
	assert.Equal(t, []model.SecurityLogEntry{other}, entries)
	assert.Len(t, s.logs, 1)
}

func TestStore_InTx_Commits(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a := seedAccount(t, s, "a@example.com")

	require.NoError(t, s.InTx(ctx, func(ctx context.Context) error {
		return s.InTx(ctx, func(ctx context.Context) error {
			return s.Accounts().SetBiometricEnrolled(ctx, a.ID, time.Now())
		})
	}))

	got, err := s.Accounts().GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.BiometricEnrolled)
}

func TestStore_InTx_Serializes(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.InTx(ctx, func(context.Context) error {
				mu.Lock()
				inside++
				maxSeen = max(maxSeen, inside)
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
}

func TestAccountRepository_UniqueEmail(t *testing.T) {
	s := NewStore()
	seedAccount(t, s, "a@example.com")

	_, err := s.Accounts().Create(context.Background(), model.Account{ID: uuid.New(), Email: "a@example.com"})
	require.ErrorIs(t, err, model.ErrAlreadyExists)
}

func TestAccountRepository_SetSecretKeyOnce(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a := seedAccount(t, s, "a@example.com")

	require.NoError(t, s.Accounts().SetSecretKey(ctx, a.ID, "ONE", time.Now()))
	require.ErrorIs(t, s.Accounts().SetSecretKey(ctx, a.ID, "TWO", time.Now()), model.ErrKeyAlreadySet)
	require.ErrorIs(t, s.Accounts().SetSecretKey(ctx, uuid.New(), "TWO", time.Now()), model.ErrNotFound)

	got, err := s.Accounts().GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ONE", got.SecretKey)
}

func TestOTPRepository_SingleUseAndReplace(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Now()
	repo := s.OTPs()

	first := model.OTPRecord{ID: uuid.New(), Email: "a@example.com", Type: model.OTPTypeSignup, ExpiresAt: now.Add(time.Minute), CreatedAt: now}
	require.NoError(t, repo.Upsert(ctx, first))

	ok, err := repo.MarkVerified(ctx, first.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkVerified(ctx, first.ID, now)
	require.NoError(t, err)
	assert.False(t, ok)

	second := first
	second.ID = uuid.New()
	require.NoError(t, repo.Upsert(ctx, second))

	got, err := repo.Get(ctx, "a@example.com", model.OTPTypeSignup)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.False(t, got.Verified)

	ok, err = repo.MarkVerified(ctx, first.ID, now)
	require.NoError(t, err)
	assert.False(t, ok, "replaced code must not verify")

	ok, err = repo.MarkVerified(ctx, second.ID, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, ok, "expired code must not verify")

	_, err = repo.Get(ctx, "a@example.com", model.OTPTypeLogin)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestOTPRepository_DeleteStale(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.OTPs().Upsert(ctx, model.OTPRecord{ID: uuid.New(), Email: "old@example.com", Type: model.OTPTypeLogin, ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, s.OTPs().Upsert(ctx, model.OTPRecord{ID: uuid.New(), Email: "new@example.com", Type: model.OTPTypeLogin, ExpiresAt: now.Add(time.Hour)}))

	n, err := s.OTPs().DeleteStale(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMessageRepository_ListByRecipient(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	sender := seedAccount(t, s, "alice@example.com")
	now := time.Now()

	older := model.Message{ID: uuid.New(), SenderID: sender.ID, RecipientEmail: "bob@example.com", CreatedAt: now.Add(-time.Minute)}
	newer := model.Message{ID: uuid.New(), SenderID: sender.ID, RecipientEmail: "bob@example.com", CreatedAt: now}
	gone := model.Message{ID: uuid.New(), SenderID: sender.ID, RecipientEmail: "bob@example.com", CreatedAt: now}
	other := model.Message{ID: uuid.New(), SenderID: sender.ID, RecipientEmail: "carol@example.com", CreatedAt: now}
	for _, m := range []model.Message{older, newer, gone, other} {
		_, err := s.Messages().Create(ctx, m)
		require.NoError(t, err)
	}
	require.NoError(t, s.Messages().MarkDestroyed(ctx, gone.ID))

	got, err := s.Messages().ListByRecipient(ctx, "bob@example.com")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].ID)
	assert.Equal(t, older.ID, got[1].ID)
	assert.Equal(t, "alice@example.com", got[0].SenderEmail)
}

func TestSessionRepository_AttemptsNeverRaised(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	messageID, recipientID := uuid.New(), uuid.New()

	session, err := s.Sessions().GetOrCreate(ctx, messageID, recipientID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, session.AttemptsRemaining)

	session.AttemptsRemaining = 1
	session.KeyVerified = true
	session, err = s.Sessions().Update(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, 1, session.AttemptsRemaining)

	session.AttemptsRemaining = 3
	session, err = s.Sessions().Update(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, 1, session.AttemptsRemaining)

	again, err := s.Sessions().GetOrCreate(ctx, messageID, recipientID, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, again.AttemptsRemaining)

	require.NoError(t, s.Sessions().Reset(ctx, messageID, recipientID))
	reset, err := s.Sessions().Get(ctx, messageID, recipientID)
	require.NoError(t, err)
	assert.False(t, reset.KeyVerified)
	assert.Equal(t, 1, reset.AttemptsRemaining)
}

func TestApprovalRepository_LatestAndDecide(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	emailID, sender, receiver := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()

	first := model.ApprovalRequest{ID: uuid.New(), EmailID: emailID, SenderID: sender, ReceiverID: receiver, Status: model.ApprovalPending, CreatedAt: now}
	second := model.ApprovalRequest{ID: uuid.New(), EmailID: emailID, SenderID: sender, ReceiverID: receiver, Status: model.ApprovalPending, CreatedAt: now}
	_, err := s.Approvals().Create(ctx, first)
	require.NoError(t, err)
	_, err = s.Approvals().Create(ctx, second)
	require.NoError(t, err)

	latest, err := s.Approvals().Latest(ctx, emailID, receiver)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	pending, err := s.Approvals().ListPendingBySender(ctx, sender)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, second.ID, pending[0].ID)

	ok, err := s.Approvals().Decide(ctx, first.ID, model.ApprovalDenied, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Approvals().Decide(ctx, first.ID, model.ApprovalApproved, now)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.Approvals().GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalDenied, got.Status)
	require.NotNil(t, got.DecidedAt)

	_, err = s.Approvals().Latest(ctx, emailID, uuid.New())
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestBlobs(t *testing.T) {
	b := NewBlobs()
	ctx := context.Background()

	require.NoError(t, b.Upload(ctx, "k", bytes.NewReader([]byte("data"))))

	ok, err := b.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := b.Download(ctx, "k")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))

	require.NoError(t, b.Delete(ctx, "k"))
	_, err = b.Download(ctx, "k")
	require.ErrorIs(t, err, model.ErrNotFound)
}
