// Package mail delivers issued codes over SMTP.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"time"

	"github.com/rs/zerolog"
)

const dialTimeout = 10 * time.Second

// Config holds the SMTP relay settings.
type Config struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// Client is the subset of *smtp.Client the mailer drives.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Dialer opens an authenticated SMTP session.
type Dialer interface {
	Dial(ctx context.Context) (Client, error)
}

// Transport dials the configured relay, upgrading with STARTTLS when the
// server offers it and authenticating when credentials are set.
type Transport struct {
	cfg Config
	log zerolog.Logger
}

func NewTransport(cfg Config, log zerolog.Logger) *Transport {
	return &Transport{cfg: cfg, log: log}
}

func (t *Transport) Dial(ctx context.Context) (Client, error) {
	addr := net.JoinHostPort(t.cfg.Host, t.cfg.Port)

	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial smtp %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("smtp handshake: %w", err)
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{ServerName: t.cfg.Host, MinVersion: tls.VersionTLS12}
		if err := client.StartTLS(tlsConfig); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("smtp starttls: %w", err)
		}
	} else {
		t.log.Warn().Str("addr", addr).Msg("smtp server does not offer STARTTLS")
	}

	if t.cfg.User != "" {
		auth := smtp.PlainAuth("", t.cfg.User, t.cfg.Pass, t.cfg.Host)
		if err := client.Auth(auth); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("smtp auth: %w", err)
		}
	}

	return client, nil
}
