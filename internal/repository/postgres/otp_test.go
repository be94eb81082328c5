package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/securemail-server/internal/model"
)

func TestOTPRepository_Upsert(t *testing.T) {
	conn, mock := newMockConnection(t)
	now := time.Now()
	record := model.OTPRecord{
		ID:        uuid.New(),
		Email:     "a@b.c",
		Type:      model.OTPTypeSignup,
		CodeHash:  []byte("hash"),
		ExpiresAt: now.Add(model.OTPTTL),
		CreatedAt: now,
	}

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (email, type) DO UPDATE")).
		WithArgs(record.Email, "signup", record.ID, record.CodeHash, record.ExpiresAt, record.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewOTPRepository(conn).Upsert(context.Background(), record))
}

func TestOTPRepository_Get(t *testing.T) {
	query := regexp.QuoteMeta("FROM otp_records WHERE email = $1 AND type = $2")

	t.Run("found", func(t *testing.T) {
		conn, mock := newMockConnection(t)
		id := uuid.New()
		now := time.Now()

		mock.ExpectQuery(query).
			WithArgs("a@b.c", "login").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "type", "code_hash", "expires_at", "verified", "created_at"}).
				AddRow(id.String(), "a@b.c", "login", []byte("hash"), now.Add(time.Minute), false, now))

		got, err := NewOTPRepository(conn).Get(context.Background(), "a@b.c", model.OTPTypeLogin)
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, model.OTPTypeLogin, got.Type)
		assert.Empty(t, got.Code)
	})

	t.Run("missing", func(t *testing.T) {
		conn, mock := newMockConnection(t)

		mock.ExpectQuery(query).WillReturnError(sql.ErrNoRows)

		_, err := NewOTPRepository(conn).Get(context.Background(), "a@b.c", model.OTPTypeLogin)
		require.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestOTPRepository_MarkVerified(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "consumed now", affected: 1, want: true},
		{name: "already consumed or expired", affected: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, mock := newMockConnection(t)
			id := uuid.New()
			now := time.Now()

			mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND verified = FALSE AND expires_at > $2")).
				WithArgs(id, now).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			ok, err := NewOTPRepository(conn).MarkVerified(context.Background(), id, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestOTPRepository_DeleteStale(t *testing.T) {
	conn, mock := newMockConnection(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM otp_records")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := NewOTPRepository(conn).DeleteStale(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
