package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/securemail-server/internal/envelope"
	"github.com/dtroode/securemail-server/internal/model"
)

func TestMessage_CreateSealsContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, key := f.addAccount(t, "alice@example.com", true)

	message := f.sendMessage(t, alice, "Bob@Example.com", []byte("pdf bytes"))

	assert.Equal(t, "bob@example.com", message.RecipientEmail)
	assert.Equal(t, "alice@example.com", message.SenderEmail)
	assert.Equal(t, envelope.Fingerprint(key), message.SenderKeyFingerprint)
	assert.Len(t, message.KeyID(), 8)
	assert.NotContains(t, string(message.EncryptedContent), "the body")

	body, err := f.env.Open(message.EncryptedContent, key)
	require.NoError(t, err)
	assert.Equal(t, "the body", string(body))

	assert.Equal(t, "attachments/"+message.ID.String(), message.AttachmentKey)
	reader, err := f.blobs.Download(ctx, message.AttachmentKey)
	require.NoError(t, err)
	sealed, err := io.ReadAll(reader)
	require.NoError(t, err)
	attachment, err := f.env.Open(sealed, key)
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(attachment))
}

func TestMessage_CreateErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, _ := f.addAccount(t, "alice@example.com", true)
	nokey, _ := f.addAccount(t, "nokey@example.com", false)

	valid := model.CreateMessageParams{SenderID: alice.ID, RecipientEmail: "bob@example.com", Subject: "s", Body: "b"}

	tests := []struct {
		name    string
		mutate  func(p *model.CreateMessageParams)
		wantErr error
	}{
		{name: "no secret key", mutate: func(p *model.CreateMessageParams) { p.SenderID = nokey.ID }, wantErr: model.ErrSecretKeyMissing},
		{name: "unknown sender", mutate: func(p *model.CreateMessageParams) { p.SenderID = uuid.New() }, wantErr: model.ErrNotFound},
		{name: "bad recipient", mutate: func(p *model.CreateMessageParams) { p.RecipientEmail = "bob" }, wantErr: model.ErrValidation},
		{name: "empty subject", mutate: func(p *model.CreateMessageParams) { p.Subject = "" }, wantErr: model.ErrValidation},
		{name: "long subject", mutate: func(p *model.CreateMessageParams) { p.Subject = strings.Repeat("s", 201) }, wantErr: model.ErrValidation},
		{name: "long body", mutate: func(p *model.CreateMessageParams) { p.Body = strings.Repeat("b", 10001) }, wantErr: model.ErrValidation},
		{name: "attachment without name", mutate: func(p *model.CreateMessageParams) { p.Attachment = []byte("x") }, wantErr: model.ErrValidation},
		{name: "attachment too large", mutate: func(p *model.CreateMessageParams) {
			p.Attachment = make([]byte, 2048)
			p.AttachmentName = "big.bin"
		}, wantErr: model.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := valid
			tt.mutate(&params)

			_, err := f.message.Create(ctx, params)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMessage_Inbox(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, _ := f.addAccount(t, "alice@example.com", true)
	bob, _ := f.addAccount(t, "bob@example.com", false)

	first := f.sendMessage(t, alice, "bob@example.com", nil)
	f.clock.Advance(1)
	second := f.sendMessage(t, alice, "bob@example.com", nil)
	f.sendMessage(t, alice, "carol@example.com", nil)

	inbox, err := f.message.Inbox(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, second.ID, inbox[0].ID)
	assert.Equal(t, first.ID, inbox[1].ID)
}

func TestMessage_SecurityLogSenderOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, _ := f.addAccount(t, "alice@example.com", true)
	bob, _ := f.addAccount(t, "bob@example.com", false)
	message := f.sendMessage(t, alice, "bob@example.com", nil)

	_, err := f.gate.VerifyKey(ctx, message.ID, bob.ID, "WRONG", model.ClientInfo{UserAgent: "ua", IPAddress: "10.0.0.1"})
	require.ErrorIs(t, err, model.ErrInvalidKey)

	entries, err := f.message.SecurityLog(ctx, message.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "bob@example.com", entries[0].ActorEmail)
	assert.Equal(t, "10.0.0.1", entries[0].IPAddress)
	assert.False(t, entries[0].Success)

	_, err = f.message.SecurityLog(ctx, message.ID, bob.ID)
	require.ErrorIs(t, err, model.ErrForbidden)
}
