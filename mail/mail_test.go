package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	apperrors "github.com/leeforge/support/errors"
	"github.com/leeforge/support/logging"
	"github.com/leeforge/support/render"
)

func observedLogger() (logging.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logging.FromZap(zap.New(core)), logs
}

func templates() render.Renderer {
	return render.NewMapRenderer().
		MustAdd("welcome", "Hello {{.name}}").
		MustAdd("html", "<p>{{.name}}</p>")
}

func TestNullSender(t *testing.T) {
	s := NewNull()
	require.NoError(t, s.SendRaw(context.Background(), "", nil, "", ""))
	require.NoError(t, s.SendTemplated(context.Background(), "x", "", nil, nil))
}

func TestComposerRaw(t *testing.T) {
	c := newComposer("noreply@example.com", nil)

	tests := []struct {
		name     string
		from     string
		to       []string
		wantFrom string
		wantErr  apperrors.ErrorType
	}{
		{"default sender", "", []string{"a@example.com"}, "noreply@example.com", ""},
		{"explicit sender", "ops@example.org", []string{"a@example.com"}, "ops@example.org", ""},
		{"no recipients", "", nil, "", apperrors.ErrorTypeValidation},
		{"bad recipient", "", []string{"not-an-address"}, "", apperrors.ErrorTypeInvalid},
		{"bad sender", "nope", []string{"a@example.com"}, "", apperrors.ErrorTypeInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := c.raw(tt.from, tt.to, "s", "b")
			if tt.wantErr != "" {
				require.True(t, apperrors.IsType(err, tt.wantErr), "err = %v", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantFrom, msg.From)
			require.True(t, strings.HasPrefix(msg.ID, "<"))
		})
	}
}

func TestComposerNoDefaultSender(t *testing.T) {
	_, err := newComposer("", nil).raw("", []string{"a@example.com"}, "s", "b")
	require.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestComposerTemplated(t *testing.T) {
	c := newComposer("noreply@example.com", templates())
	ctx := context.Background()

	msg, err := c.templated(ctx, "welcome", "", []string{"a@example.com"}, map[string]any{"name": "Ada"})
	require.NoError(t, err)
	require.Equal(t, "welcome", msg.Subject)
	require.Equal(t, "Hello Ada", msg.Body)
	require.False(t, msg.HTML)

	msg, err = c.templated(ctx, "html", "", []string{"a@example.com"}, map[string]any{"name": "Ada", "subject": "Hi"})
	require.NoError(t, err)
	require.Equal(t, "Hi", msg.Subject)
	require.True(t, msg.HTML)

	msg, err = c.templated(ctx, "welcome", "", []string{"a@example.com"}, map[string]any{"subject": 42})
	require.NoError(t, err)
	require.Equal(t, "welcome", msg.Subject)

	_, err = c.templated(ctx, "missing", "", []string{"a@example.com"}, nil)
	require.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalid))

	_, err = newComposer("noreply@example.com", nil).templated(ctx, "welcome", "", []string{"a@example.com"}, nil)
	require.True(t, apperrors.IsType(err, apperrors.ErrorTypeCapabilityUnavailable))
}

func TestMessageBytes(t *testing.T) {
	msg := Message{
		ID:      "<id@example.com>",
		From:    "noreply@example.com",
		To:      []string{"a@example.com", "b@example.com"},
		Subject: "Grüße",
		Body:    "line1\nline2",
		Date:    time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
	}
	out := string(msg.Bytes())

	require.Contains(t, out, "Message-ID: <id@example.com>\r\n")
	require.Contains(t, out, "To: a@example.com, b@example.com\r\n")
	require.Contains(t, out, "Subject: =?utf-8?q?Gr=C3=BC=C3=9Fe?=\r\n")
	require.Contains(t, out, `Content-Type: text/plain; charset="utf-8"`)
	require.True(t, strings.HasSuffix(out, "\r\n\r\nline1\r\nline2"))
}

func TestMessageIDDomain(t *testing.T) {
	require.True(t, strings.HasSuffix(messageID("Ops <ops@example.org>"), "@example.org>"))
	require.True(t, strings.HasSuffix(messageID("broken"), "@localhost>"))
	require.NotEqual(t, messageID("a@b.c"), messageID("a@b.c"))
}

func TestLogSender(t *testing.T) {
	logger, logs := observedLogger()
	s := NewLogSender(logger, "noreply@example.com", templates())
	ctx := context.Background()

	require.NoError(t, s.SendRaw(ctx, "", []string{"a@example.com"}, "Subject", "Body"))
	require.NoError(t, s.SendTemplated(ctx, "welcome", "", []string{"a@example.com"}, map[string]any{"name": "Ada"}))

	sent := logs.FilterMessage("mail sent").All()
	require.Len(t, sent, 2)
	require.Equal(t, "Subject", sent[0].ContextMap()["subject"])
	require.Equal(t, "welcome", sent[1].ContextMap()["subject"])
	require.Len(t, logs.FilterMessage("mail body").All(), 2)

	require.Error(t, s.SendRaw(ctx, "", nil, "s", "b"))
}

func TestSMTPConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Driver: "smtp", Host: "smtp.example.com", Port: 587, From: "a@example.com"}, false},
		{"missing host", Config{Driver: "smtp"}, true},
		{"host optional for log driver", Config{Driver: "log"}, false},
		{"bad port", Config{Driver: "smtp", Host: "h", Port: 70000}, true},
		{"bad from", Config{Driver: "smtp", Host: "h", From: "nope"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
				return
			}
			require.NoError(t, err)
		})
	}
}

type capturedSend struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  []byte
}

func TestSMTPSenderDelivers(t *testing.T) {
	s, err := NewSMTPSender(Config{Host: "smtp.example.com", Port: 2525, From: "noreply@example.com", Username: "u", Password: "p"}, nil, templates())
	require.NoError(t, err)

	var got capturedSend
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		got = capturedSend{addr, a, from, to, msg}
		return nil
	}

	require.NoError(t, s.SendTemplated(context.Background(), "welcome", "", []string{"a@example.com"}, map[string]any{"name": "Ada", "subject": "Welcome"}))
	require.Equal(t, "smtp.example.com:2525", got.addr)
	require.NotNil(t, got.auth)
	require.Equal(t, "noreply@example.com", got.from)
	require.Equal(t, []string{"a@example.com"}, got.to)
	require.Contains(t, string(got.msg), "Subject: Welcome\r\n")
	require.Contains(t, string(got.msg), "Hello Ada")
}

func TestSMTPSenderEnvelopeUsesBareAddresses(t *testing.T) {
	s, err := NewSMTPSender(Config{Host: "smtp.example.com", From: "noreply@example.com"}, nil, nil)
	require.NoError(t, err)

	var got capturedSend
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		got = capturedSend{addr, a, from, to, msg}
		return nil
	}

	err = s.SendRaw(context.Background(), "Alice <alice@example.com>", []string{"Bob <bob@example.com>", "carol@example.com"}, "Hi", "body")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", got.from)
	require.Equal(t, []string{"bob@example.com", "carol@example.com"}, got.to)
	require.Contains(t, string(got.msg), "From: Alice <alice@example.com>\r\n")
}

func TestSMTPSenderFailures(t *testing.T) {
	_, err := NewSMTPSender(Config{}, nil, nil)
	require.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	s, err := NewSMTPSender(Config{Host: "localhost", From: "noreply@example.com"}, nil, nil)
	require.NoError(t, err)

	s.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("421 busy") }
	err = s.SendRaw(context.Background(), "", []string{"a@example.com"}, "s", "b")
	require.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))

	release := make(chan struct{})
	defer close(release)
	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		<-release
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.SendRaw(ctx, "", []string{"a@example.com"}, "s", "b")
	require.True(t, apperrors.IsType(err, apperrors.ErrorTypeTimeout))
	require.ErrorIs(t, err, context.Canceled)
}
