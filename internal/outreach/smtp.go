// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package outreach

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// SMTPTransport delivers mail through an SMTP server. Port 465 uses
// implicit TLS; any other port connects in plain text and upgrades with
// STARTTLS.
type SMTPTransport struct {
	Host     string
	Port     int
	From     string
	Password string
}

// Send delivers one message. The context deadline bounds the dial; SMTP
// itself has no mid-conversation cancellation, matching the rule that an
// attempted send only ever ends in success or failure.
func (t *SMTPTransport) Send(ctx context.Context, to, subject, body string) error {
	addr := net.JoinHostPort(t.Host, strconv.Itoa(t.Port))

	client, err := t.dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer client.Close()

	if t.Password != "" {
		auth := smtp.PlainAuth("", t.From, t.Password, t.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth: %w", err)
		}
	}

	if err := client.Mail(t.From); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := wc.Write([]byte(message(t.From, to, subject, body))); err != nil {
		wc.Close()
		return fmt.Errorf("writing message: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("closing message: %w", err)
	}

	return client.Quit()
}

func (t *SMTPTransport) dial(ctx context.Context, addr string) (*smtp.Client, error) {
	dialer := &net.Dialer{}

	if t.Port == 465 {
		conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: t.Host})
		if err != nil {
			return nil, err
		}
		return smtp.NewClient(conn, t.Host)
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	client, err := smtp.NewClient(conn, t.Host)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: t.Host}); err != nil {
			client.Close()
			return nil, fmt.Errorf("STARTTLS: %w", err)
		}
	}
	return client, nil
}

// message assembles the RFC 5322 payload.
func message(from, to, subject, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return b.String()
}
