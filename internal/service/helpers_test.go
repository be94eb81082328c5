package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/securemail-server/internal/envelope"
	"github.com/dtroode/securemail-server/internal/identity"
	"github.com/dtroode/securemail-server/internal/model"
	"github.com/dtroode/securemail-server/internal/repository/memory"
	"github.com/dtroode/securemail-server/internal/testutil"
	"github.com/dtroode/securemail-server/internal/token"
)

type sentNotification struct {
	To, Subject, Body string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentNotification{To: to, Subject: subject, Body: body})
	return nil
}

func (n *fakeNotifier) last() sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return sentNotification{}
	}
	return n.sent[len(n.sent)-1]
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// fakeVerifier returns a fixed outcome.
type fakeVerifier struct {
	mu   sync.Mutex
	pass bool
	err  error
}

func (v *fakeVerifier) Verify(ctx context.Context, _ uuid.UUID) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.err != nil {
		return false, v.err
	}
	return v.pass, ctx.Err()
}

func (v *fakeVerifier) set(pass bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pass = pass
}

type fixture struct {
	store    *memory.Store
	blobs    *memory.Blobs
	notifier *fakeNotifier
	verifier *fakeVerifier
	clock    *testutil.Clock
	env      *envelope.Envelope

	audit    *Audit
	otp      *OTP
	account  *Account
	message  *Message
	gate     *Gate
	approval *Approval
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    memory.NewStore(),
		blobs:    memory.NewBlobs(),
		notifier: &fakeNotifier{},
		verifier: &fakeVerifier{pass: true},
		clock:    testutil.NewClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)),
		env:      envelope.New(envelope.Params{Time: 1, MemKiB: 8 * 1024, Threads: 1}),
	}
	lg := testutil.MakeNoopLogger()

	f.audit = NewAudit(f.store.SecurityLogs(), lg)
	f.audit.now = f.clock.Now

	var err error
	f.otp, err = NewOTP(f.store.OTPs(), f.notifier, OTPConfig{TTL: model.OTPTTL}, lg)
	require.NoError(t, err)
	f.otp.hashCost = bcrypt.MinCost
	f.otp.now = f.clock.Now

	idp := identity.NewLocal(f.store.Accounts(), token.NewJWT("secret", time.Hour))
	f.account = NewAccount(f.otp, idp, f.store.Accounts(), lg)
	f.account.now = f.clock.Now

	f.message = NewMessage(f.store.Accounts(), f.store.Messages(), f.store.Sessions(), f.store.Approvals(),
		f.audit, f.blobs, f.env, 1024, lg)
	f.message.now = f.clock.Now

	f.gate = NewGate(f.store, f.store.Accounts(), f.store.Messages(), f.store.Sessions(), f.audit,
		f.verifier, f.notifier, f.blobs, f.env, GateConfig{}, lg)
	f.gate.now = f.clock.Now

	f.approval = NewApproval(f.store.Accounts(), f.store.Messages(), f.store.Sessions(), f.store.Approvals(),
		f.blobs, f.notifier, ApprovalConfig{PollInterval: 5 * time.Millisecond, MaxPhotoBytes: 1024}, lg)
	f.approval.now = f.clock.Now

	return f
}

// addAccount creates an account directly in the store, with a secret key when withKey is set.
func (f *fixture) addAccount(t *testing.T, email string, withKey bool) (model.Account, string) {
	t.Helper()
	ctx := context.Background()

	account, err := f.store.Accounts().Create(ctx, model.Account{ID: uuid.New(), Email: email, CreatedAt: f.clock.Now()})
	require.NoError(t, err)

	if !withKey {
		return account, ""
	}
	key, err := f.account.SetupSecretKey(ctx, account.ID)
	require.NoError(t, err)
	return account, key
}

// sendMessage creates a message from sender to recipient, optionally with an attachment.
func (f *fixture) sendMessage(t *testing.T, sender model.Account, recipient string, attachment []byte) model.Message {
	t.Helper()

	params := model.CreateMessageParams{
		SenderID:       sender.ID,
		RecipientEmail: recipient,
		Subject:        "Quarterly numbers",
		Body:           "the body",
	}
	if attachment != nil {
		params.Attachment = attachment
		params.AttachmentName = "report.pdf"
	}

	message, err := f.message.Create(context.Background(), params)
	require.NoError(t, err)
	return message
}

var errDelivery = errors.New("smtp down")
