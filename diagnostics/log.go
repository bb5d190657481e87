package diagnostics

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/leeforge/support/errors"
	"github.com/leeforge/support/logging"
)

// LogReporter writes reports to the logger at error level. Each report gets
// an incident id; context fields (trace_id, request_id, user_id) are added.
type LogReporter struct {
	logger logging.Logger
}

func NewLogReporter(logger logging.Logger) *LogReporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Report(ctx context.Context, message string, errType apperrors.ErrorType, info DebugInfo) {
	hash := info.Hash
	if hash == "" {
		hash = HashOf(info.Title, string(errType), message)
	}

	logging.WithContext(r.logger, ctx).Error(message,
		zap.String("incident_id", uuid.NewString()),
		zap.String("error_type", string(errType)),
		zap.String("title", info.Title),
		zap.String("detail", info.Message),
		zap.String("public_message", info.LowInfoMessage),
		zap.String("hash", hash),
	)
}
