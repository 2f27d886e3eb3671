package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"time"

	"github.com/rs/zerolog"

	"github.com/qrforge/qr-service/internal/core/domain"
)

const sendTimeout = 30 * time.Second

// Mailer sends domain emails as multipart MIME messages.
type Mailer struct {
	dialer Dialer
	from   string
	log    zerolog.Logger
	now    func() time.Time
}

func NewMailer(dialer Dialer, from string, log zerolog.Logger) *Mailer {
	return &Mailer{dialer: dialer, from: from, log: log, now: time.Now}
}

// Send delivers email in one SMTP session. It does not retry.
func (m *Mailer) Send(ctx context.Context, email domain.Email) error {
	if email.To == "" {
		return errors.New("send mail: empty recipient")
	}

	msg, err := m.compose(email)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	client, err := m.dialer.Dial(ctx)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer client.Close()

	if err := client.Mail(m.from); err != nil {
		return fmt.Errorf("send mail: MAIL FROM: %w", err)
	}
	if err := client.Rcpt(email.To); err != nil {
		return fmt.Errorf("send mail: RCPT TO: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("send mail: DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return fmt.Errorf("send mail: write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("send mail: close body: %w", err)
	}

	if err := client.Quit(); err != nil {
		m.log.Warn().Err(err).Msg("smtp quit failed after delivery")
	}
	m.log.Debug().Str("to", email.To).Int("attachments", len(email.Attachments)).Msg("email sent")
	return nil
}

func (m *Mailer) compose(email domain.Email) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	htmlPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/html; charset=UTF-8"},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return nil, fmt.Errorf("compose mail: %w", err)
	}
	if err := writeBase64(htmlPart, []byte(email.HTMLBody)); err != nil {
		return nil, err
	}

	for _, a := range email.Attachments {
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {mime.FormatMediaType(a.ContentType, map[string]string{"name": a.Filename})},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename})},
		})
		if err != nil {
			return nil, fmt.Errorf("compose mail: %w", err)
		}
		if err := writeBase64(part, a.Data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("compose mail: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", email.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", email.Subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", m.now().UTC().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

// writeBase64 writes data base64-encoded in 76 character lines.
func writeBase64(w io.Writer, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		if _, err := fmt.Fprintf(w, "%s\r\n", encoded[:76]); err != nil {
			return fmt.Errorf("compose mail: %w", err)
		}
		encoded = encoded[76:]
	}
	if _, err := fmt.Fprintf(w, "%s\r\n", encoded); err != nil {
		return fmt.Errorf("compose mail: %w", err)
	}
	return nil
}
