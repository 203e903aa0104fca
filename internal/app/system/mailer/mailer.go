// internal/app/system/mailer/mailer.go
package mailer

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
}

// Email is one outgoing message. HTMLBody is optional.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends email over SMTP. With no host configured it logs the message
// instead, which is how development runs without a mail server.
type Mailer struct {
	cfg  Config
	log  *zap.Logger
	send sendFunc
}

var ErrNoRecipient = errors.New("mailer: no recipient")

// New creates a Mailer.
func New(cfg Config, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{cfg: cfg, log: logger, send: smtp.SendMail}
}

// Send delivers e. Delivery is synchronous.
func (m *Mailer) Send(e Email) error {
	to, err := mail.ParseAddress(strings.TrimSpace(e.To))
	if err != nil || to.Address == "" {
		return ErrNoRecipient
	}
	if m.cfg.Host == "" {
		m.log.Info("mail not sent (no smtp host configured)",
			zap.String("to", to.Address), zap.String("subject", e.Subject))
		return nil
	}

	msg, err := m.build(to.Address, e)
	if err != nil {
		return err
	}
	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}
	addr := m.cfg.Host + ":" + strconv.Itoa(m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.From, []string{to.Address}, msg); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", to.Address, err)
	}
	m.log.Debug("mail sent", zap.String("to", to.Address), zap.String("subject", e.Subject))
	return nil
}

func (m *Mailer) build(to string, e Email) ([]byte, error) {
	var buf bytes.Buffer
	from := (&mail.Address{Name: m.cfg.FromName, Address: m.cfg.From}).String()

	header := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }
	header("From", from)
	header("To", to)
	header("Subject", mime.QEncoding.Encode("utf-8", e.Subject))
	header("Date", time.Now().Format(time.RFC1123Z))
	header("MIME-Version", "1.0")

	if e.HTMLBody == "" {
		header("Content-Type", "text/plain; charset=utf-8")
		header("Content-Transfer-Encoding", "quoted-printable")
		buf.WriteString("\r\n")
		if err := writeQP(&buf, e.TextBody); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	header("Content-Type", "multipart/alternative; boundary="+mw.Boundary())
	buf.WriteString("\r\n")
	for _, part := range []struct{ ctype, body string }{
		{"text/plain; charset=utf-8", e.TextBody},
		{"text/html; charset=utf-8", e.HTMLBody},
	} {
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {part.ctype},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, err
		}
		if err := writeQP(w, part.body); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type writer interface{ Write([]byte) (int, error) }

func writeQP(w writer, body string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(body)); err != nil {
		return err
	}
	return qp.Close()
}
