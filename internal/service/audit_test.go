package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/securemail-server/internal/model"
)

func TestAudit_RecordFillsDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emailID := uuid.New()

	require.NoError(t, f.audit.Record(ctx, model.SecurityLogEntry{
		EmailID:     emailID,
		AttemptType: model.AttemptKeyVerification,
	}))

	entries, err := f.audit.ForMessage(ctx, emailID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotEqual(t, uuid.Nil, entries[0].ID)
	assert.Equal(t, f.clock.Now(), entries[0].CreatedAt)
}

func TestAudit_RecordRollsBackWithTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emailID := uuid.New()

	err := f.store.InTx(ctx, func(ctx context.Context) error {
		require.NoError(t, f.audit.Record(ctx, model.SecurityLogEntry{EmailID: emailID}))
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	entries, err := f.audit.ForMessage(ctx, emailID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestToValidationError(t *testing.T) {
	err := validateStruct(model.CreateMessageParams{RecipientEmail: "x"})

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "recipient_email")
	assert.Contains(t, verr.Fields, "subject")
	assert.Contains(t, verr.Fields, "body")

	assert.NoError(t, validateVar("code", "123456", "len=6,numeric"))
	assert.Equal(t, "attachment_name", toSnake("AttachmentName"))
}
