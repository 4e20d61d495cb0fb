package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/njprem/account-core/internal/repository/ports"
)

type capturedMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
}

func newTestMailer(username string, sent *capturedMail, sendErr error) *Mailer {
	m := NewMailer(" smtp.example.com ", "587", username, "secret", "no-reply@example.com")
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		*sent = capturedMail{addr: addr, auth: a, from: from, to: to, msg: string(msg)}
		return sendErr
	}
	return m
}

func TestSendBuildsMessage(t *testing.T) {
	var sent capturedMail
	m := newTestMailer("mailer", &sent, nil)

	err := m.Send(context.Background(), ports.Message{
		FromTag: "Account Verification",
		To:      "a@x.com",
		Subject: "Your verification code",
		Body:    "line one\nline two",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if sent.addr != "smtp.example.com:587" || sent.from != "no-reply@example.com" {
		t.Fatalf("unexpected envelope %+v", sent)
	}
	if len(sent.to) != 1 || sent.to[0] != "a@x.com" {
		t.Fatalf("unexpected recipients %v", sent.to)
	}
	if sent.auth == nil {
		t.Fatal("expected plain auth when credentials are set")
	}
	for _, want := range []string{
		"From: \"Account Verification\" <no-reply@example.com>\r\n",
		"Subject: Your verification code\r\n",
		"line one\r\nline two\r\n",
	} {
		if !strings.Contains(sent.msg, want) {
			t.Fatalf("message missing %q:\n%s", want, sent.msg)
		}
	}
}

func TestSendWithoutCredentialsSkipsAuth(t *testing.T) {
	var sent capturedMail
	m := newTestMailer("", &sent, nil)
	m.password = ""

	if err := m.Send(context.Background(), ports.Message{To: "a@x.com"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if sent.auth != nil {
		t.Fatal("expected no auth")
	}
}

func TestSendPropagatesFailures(t *testing.T) {
	var sent capturedMail
	m := newTestMailer("mailer", &sent, errors.New("connection refused"))
	if err := m.Send(context.Background(), ports.Message{To: "a@x.com"}); err == nil {
		t.Fatal("expected transport error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Send(ctx, ports.Message{To: "a@x.com"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}

	unconfigured := NewMailer("", "", "", "", "")
	if err := unconfigured.Send(context.Background(), ports.Message{To: "a@x.com"}); err == nil {
		t.Fatal("expected configuration error")
	}
}
