package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"account-service/internal/config"
	"account-service/internal/domain/notification"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer delivers mail synchronously through an SMTP relay.
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
	send sendFunc
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from: cfg.From,
		auth: auth,
		send: smtp.SendMail,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg notification.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return fmt.Errorf("smtp: empty recipient")
	}

	if err := m.send(m.addr, m.auth, m.from, []string{msg.To}, buildMessage(m.from, msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

func buildMessage(from string, msg notification.Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + stripCRLF(msg.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

func stripCRLF(s string) string {
	return strings.NewReplacer("\r", "", "\n", " ").Replace(s)
}
