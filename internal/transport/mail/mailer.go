package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	netmail "net/mail"
	"net/smtp"
	"strings"

	"github.com/njprem/account-core/internal/repository/ports"
)

// Mailer delivers notifications over SMTP. The message's FromTag becomes the
// display name of the sender.
type Mailer struct {
	host     string
	port     string
	username string
	password string
	from     string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(host, port, username, password, from string) *Mailer {
	return &Mailer{
		host:     strings.TrimSpace(host),
		port:     strings.TrimSpace(port),
		username: username,
		password: password,
		from:     strings.TrimSpace(from),
		send:     smtp.SendMail,
	}
}

func (m *Mailer) Send(ctx context.Context, msg ports.Message) error {
	if m == nil {
		return errors.New("mailer not configured")
	}
	if m.host == "" || m.port == "" || m.from == "" {
		return errors.New("mailer missing configuration")
	}
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("mailer: empty recipient")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	var auth smtp.Auth
	if m.username != "" || m.password != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	addr := net.JoinHostPort(m.host, m.port)
	return m.send(addr, auth, m.from, []string{msg.To}, m.buildMessage(msg))
}

func (m *Mailer) buildMessage(msg ports.Message) []byte {
	sender := (&netmail.Address{Name: msg.FromTag, Address: m.from}).String()

	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", sender))
	b.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

var _ ports.Notifier = (*Mailer)(nil)
