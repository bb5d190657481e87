// Package diagnostics is the error-reporting capability.
package diagnostics

import (
	"context"
	"strconv"

	"github.com/cespare/xxhash/v2"

	apperrors "github.com/leeforge/support/errors"
)

// DebugInfo carries the detail attached to a report. LowInfoMessage is the
// variant safe to show to end users. Hash groups identical incidents.
type DebugInfo struct {
	Title          string
	Message        string
	LowInfoMessage string
	Hash           string
}

type Reporter interface {
	Report(ctx context.Context, message string, errType apperrors.ErrorType, info DebugInfo)
}

type null struct{}

// NewNull returns the reporter that drops every report.
func NewNull() Reporter { return null{} }

func (null) Report(context.Context, string, apperrors.ErrorType, DebugInfo) {}

// HashOf fingerprints the parts with xxhash so repeated incidents share a
// Hash.
func HashOf(parts ...string) string {
	d := xxhash.New()
	for _, p := range parts {
		_, _ = d.WriteString(p)
		_, _ = d.Write([]byte{0})
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

// ReportError reports err with its AppError type and a hash of its message.
func ReportError(ctx context.Context, r Reporter, title string, err error) {
	if err == nil {
		return
	}
	appErr := apperrors.FromError(err)
	r.Report(ctx, appErr.Error(), appErr.Type, DebugInfo{
		Title:          title,
		Message:        apperrors.NewErrorFormatter(true, true).Format(appErr),
		LowInfoMessage: appErr.Error(),
		Hash:           HashOf(title, string(appErr.Type), appErr.Error()),
	})
}

// Guard runs fn. A panic inside fn is recovered, reported through r and
// returned as an *AppError; an ordinary error from fn is returned unchanged
// and not reported.
func Guard(ctx context.Context, r Reporter, title string, fn func(context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			appErr := apperrors.Recover(rec)
			ReportError(ctx, r, title, appErr)
			err = appErr
		}
	}()
	return fn(ctx)
}
