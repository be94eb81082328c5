// Package notify delivers out-of-band notifications to account holders.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/dtroode/securemail-server/internal/model"
)

var errInvalidSMTPConfig = errors.New("smtp host, port and from address are required")

// SMTPConfig contains SMTP relay parameters.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

var _ model.Notifier = (*SMTP)(nil)

// SMTP sends plain-text mail through a relay.
type SMTP struct {
	cfg      SMTPConfig
	sendMail sendMailFunc
}

// NewSMTP creates an SMTP notifier.
func NewSMTP(cfg SMTPConfig) *SMTP {
	return &SMTP{cfg: cfg, sendMail: smtp.SendMail}
}

// Notify sends body to the given address.
func (s *SMTP) Notify(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from := strings.TrimSpace(s.cfg.From)
	if s.cfg.Host == "" || s.cfg.Port == 0 || from == "" {
		return errInvalidSMTPConfig
	}
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return fmt.Errorf("invalid header value")
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := s.cfg.Host + ":" + strconv.Itoa(s.cfg.Port)
	if err := s.sendMail(addr, auth, from, []string{to}, buildMessage(from, to, subject, body)); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	return []byte("From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" + body)
}
