package notify

import (
	"bytes"
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/securemail-server/internal/logger"
)

func TestSMTP_Notify(t *testing.T) {
	t.Parallel()

	var (
		gotAddr string
		gotAuth smtp.Auth
		gotFrom string
		gotTo   []string
		gotMsg  []byte
	)

	s := NewSMTP(SMTPConfig{Host: "mail.example.com", Port: 2525, Username: "u", Password: "p", From: "noreply@example.com"})
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
		return nil
	}

	err := s.Notify(context.Background(), "alice@example.com", "Your code", "123456")
	require.NoError(t, err)

	assert.Equal(t, "mail.example.com:2525", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"alice@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Your code\r\n")
	assert.Contains(t, string(gotMsg), "\r\n\r\n123456")
}

func TestSMTP_NotifyErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     SMTPConfig
		to      string
		sendErr error
	}{
		{name: "missing host", cfg: SMTPConfig{Port: 25, From: "a@b.c"}, to: "x@y.z"},
		{name: "missing from", cfg: SMTPConfig{Host: "h", Port: 25}, to: "x@y.z"},
		{name: "header injection", cfg: SMTPConfig{Host: "h", Port: 25, From: "a@b.c"}, to: "x@y.z\r\nBcc: evil@y.z"},
		{name: "relay failure", cfg: SMTPConfig{Host: "h", Port: 25, From: "a@b.c"}, to: "x@y.z", sendErr: errors.New("421")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewSMTP(tt.cfg)
			s.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return tt.sendErr }

			assert.Error(t, s.Notify(context.Background(), tt.to, "s", "b"))
		})
	}
}

func TestLog_Notify(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n := NewLog(logger.NewWithWriter(&buf, 0))

	require.NoError(t, n.Notify(context.Background(), "bob@example.com", "Alert", "hello"))
	assert.Contains(t, buf.String(), "to=bob@example.com")
	assert.Contains(t, buf.String(), "subject=Alert")
}
