package mail

import (
	"context"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	apperrors "github.com/leeforge/support/errors"
	"github.com/leeforge/support/logging"
	"github.com/leeforge/support/render"
)

// Config is bound from the "mail" configuration subtree.
type Config struct {
	Driver   string `mapstructure:"driver"`
	From     string `mapstructure:"from" validate:"omitempty,email"`
	Host     string `mapstructure:"host" validate:"required_if=Driver smtp"`
	Port     int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

var validate = validator.New()

// Validate checks the SMTP-related fields.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeValidation, "mail: invalid config")
	}
	return nil
}

func (c Config) addr() string {
	port := c.Port
	if port == 0 {
		port = 25
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender delivers through an SMTP relay with PLAIN auth when a username
// is configured. net/smtp upgrades to STARTTLS when the server offers it.
type SMTPSender struct {
	composer
	cfg    Config
	logger logging.Logger
	send   sendFunc
}

func NewSMTPSender(cfg Config, logger logging.Logger, renderer render.Renderer) (*SMTPSender, error) {
	cfg.Driver = "smtp"
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SMTPSender{
		composer: newComposer(cfg.From, renderer),
		cfg:      cfg,
		logger:   logger,
		send:     smtp.SendMail,
	}, nil
}

func (s *SMTPSender) SendRaw(ctx context.Context, from string, to []string, subject, body string) error {
	msg, err := s.raw(from, to, subject, body)
	if err != nil {
		return err
	}
	return s.deliver(ctx, msg)
}

func (s *SMTPSender) SendTemplated(ctx context.Context, templateID, from string, to []string, vars map[string]any) error {
	msg, err := s.templated(ctx, templateID, from, to, vars)
	if err != nil {
		return err
	}
	return s.deliver(ctx, msg)
}

// deliver runs the blocking SMTP exchange in a goroutine so a cancelled
// context returns early; the exchange itself is not interrupted.
func (s *SMTPSender) deliver(ctx context.Context, msg Message) error {
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	from, to, err := envelope(msg)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- s.send(s.cfg.addr(), auth, from, to, msg.Bytes())
	}()

	select {
	case <-ctx.Done():
		return apperrors.WrapWithType(ctx.Err(), apperrors.ErrorTypeTimeout, "mail: delivery aborted")
	case err := <-done:
		if err != nil {
			s.logger.Error("smtp delivery failed", zap.String("message_id", msg.ID), zap.Error(err))
			return apperrors.WrapWithType(err, apperrors.ErrorTypeExternal, "mail: smtp delivery failed").
				WithDetail("message_id", msg.ID)
		}
		s.logger.Info("mail delivered", zap.String("message_id", msg.ID), zap.Strings("to", msg.To))
		return nil
	}
}

// envelope strips display names; the SMTP envelope carries bare addresses
// while the headers keep the form the caller supplied.
func envelope(msg Message) (string, []string, error) {
	from, err := mail.ParseAddress(msg.From)
	if err != nil {
		return "", nil, apperrors.NewInvalid("from", msg.From, err.Error())
	}
	to := make([]string, 0, len(msg.To))
	for _, raw := range msg.To {
		addr, err := mail.ParseAddress(raw)
		if err != nil {
			return "", nil, apperrors.NewInvalid("to", raw, err.Error())
		}
		to = append(to, addr.Address)
	}
	return from.Address, to, nil
}
