package mail

import (
	"context"

	"go.uber.org/zap"

	"github.com/leeforge/support/logging"
	"github.com/leeforge/support/render"
)

// LogSender writes each message to the logger instead of delivering it.
// Bodies are logged only at debug level.
type LogSender struct {
	composer
	logger logging.Logger
}

func NewLogSender(logger logging.Logger, from string, renderer render.Renderer) *LogSender {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LogSender{composer: newComposer(from, renderer), logger: logger}
}

func (s *LogSender) SendRaw(ctx context.Context, from string, to []string, subject, body string) error {
	msg, err := s.raw(from, to, subject, body)
	if err != nil {
		return err
	}
	s.log(msg)
	return nil
}

func (s *LogSender) SendTemplated(ctx context.Context, templateID, from string, to []string, vars map[string]any) error {
	msg, err := s.templated(ctx, templateID, from, to, vars)
	if err != nil {
		return err
	}
	s.log(msg)
	return nil
}

func (s *LogSender) log(msg Message) {
	s.logger.Info("mail sent",
		zap.String("message_id", msg.ID),
		zap.String("from", msg.From),
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	s.logger.Debug("mail body", zap.String("message_id", msg.ID), zap.String("body", msg.Body))
}
