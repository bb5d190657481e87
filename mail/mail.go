// Package mail is the mail-sending capability.
package mail

import (
	"context"
	"fmt"
	"mime"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/leeforge/support/errors"
	"github.com/leeforge/support/render"
)

// Sender delivers messages. An empty from selects the configured default
// sender.
type Sender interface {
	SendRaw(ctx context.Context, from string, to []string, subject, body string) error
	SendTemplated(ctx context.Context, templateID, from string, to []string, vars map[string]any) error
}

type null struct{}

// NewNull returns the sender that accepts every message and delivers none.
func NewNull() Sender { return null{} }

func (null) SendRaw(context.Context, string, []string, string, string) error { return nil }

func (null) SendTemplated(context.Context, string, string, []string, map[string]any) error {
	return nil
}

// Message is a fully addressed mail ready for delivery.
type Message struct {
	ID      string
	From    string
	To      []string
	Subject string
	Body    string
	Date    time.Time
	HTML    bool
}

// composer resolves defaults and renders templates for the concrete senders.
type composer struct {
	from     string
	renderer render.Renderer
	now      func() time.Time
}

func newComposer(from string, renderer render.Renderer) composer {
	return composer{from: from, renderer: renderer, now: time.Now}
}

func (c composer) raw(from string, to []string, subject, body string) (Message, error) {
	if from == "" {
		from = c.from
	}
	if from == "" {
		return Message{}, apperrors.NewValidation("mail: no sender and no default sender configured")
	}
	if _, err := mail.ParseAddress(from); err != nil {
		return Message{}, apperrors.NewInvalid("from", from, err.Error())
	}
	if len(to) == 0 {
		return Message{}, apperrors.NewValidation("mail: no recipients")
	}
	for _, addr := range to {
		if _, err := mail.ParseAddress(addr); err != nil {
			return Message{}, apperrors.NewInvalid("to", addr, err.Error())
		}
	}

	return Message{
		ID:      messageID(from),
		From:    from,
		To:      append([]string(nil), to...),
		Subject: subject,
		Body:    body,
		Date:    c.now(),
	}, nil
}

// templated renders templateID with vars. The subject is vars["subject"]
// when it is a string and the template id otherwise.
func (c composer) templated(ctx context.Context, templateID, from string, to []string, vars map[string]any) (Message, error) {
	if c.renderer == nil {
		return Message{}, apperrors.NewCapabilityUnavailable("renderer")
	}
	body, err := c.renderer.Render(ctx, templateID, vars)
	if err != nil {
		return Message{}, err
	}

	subject := templateID
	if s, ok := vars["subject"].(string); ok {
		subject = s
	}
	msg, err := c.raw(from, to, subject, body)
	if err != nil {
		return Message{}, err
	}
	msg.HTML = looksLikeHTML(body)
	return msg, nil
}

func messageID(from string) string {
	domain := "localhost"
	if addr, err := mail.ParseAddress(from); err == nil {
		if at := strings.LastIndex(addr.Address, "@"); at >= 0 {
			domain = addr.Address[at+1:]
		}
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

func looksLikeHTML(body string) bool {
	trimmed := strings.TrimSpace(body)
	return strings.HasPrefix(trimmed, "<")
}

// Bytes renders the message in RFC 5322 form with CRLF line endings.
func (m Message) Bytes() []byte {
	var b strings.Builder
	header := func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	}

	header("Message-ID", m.ID)
	header("Date", m.Date.Format(time.RFC1123Z))
	header("From", m.From)
	header("To", strings.Join(m.To, ", "))
	header("Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	header("MIME-Version", "1.0")
	if m.HTML {
		header("Content-Type", `text/html; charset="utf-8"`)
	} else {
		header("Content-Type", `text/plain; charset="utf-8"`)
	}
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(m.Body, "\r\n", "\n"), "\n", "\r\n"))
	return []byte(b.String())
}
