package errors

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Validation errors
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeInvalid    ErrorType = "invalid"

	// Resolution errors raised by the capability core
	ErrorTypeConfigurationMissing  ErrorType = "configuration_missing"
	ErrorTypeUnknownRegistryKey    ErrorType = "unknown_registry_key"
	ErrorTypeCapabilityUnavailable ErrorType = "capability_unavailable"

	// System errors
	ErrorTypeTimeout  ErrorType = "timeout"
	ErrorTypeInternal ErrorType = "internal"
	ErrorTypeExternal ErrorType = "external"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// Error codes for specific scenarios
const (
	CodeConfigurationMissing  = "CONFIGURATION_MISSING"
	CodeUnknownRegistryKey    = "UNKNOWN_REGISTRY_KEY"
	CodeCapabilityUnavailable = "CAPABILITY_UNAVAILABLE"
	CodeInvalidField          = "INVALID_FIELD"
	CodeInternalError         = "INTERNAL_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType      `json:"type"`
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	InnerError error          `json:"-"`
	Stack      []string       `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.InnerError != nil {
		return e.InnerError.Error()
	}
	return string(e.Type)
}

// Unwrap returns the inner error
func (e *AppError) Unwrap() error {
	return e.InnerError
}

// WithMessage adds a message to the error
func (e *AppError) WithMessage(msg string) *AppError {
	e.Message = msg
	return e
}

// WithCode adds a code to the error
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithInnerError sets the inner error
func (e *AppError) WithInnerError(err error) *AppError {
	e.InnerError = err
	return e
}

// WithStack captures the call stack
func (e *AppError) WithStack() *AppError {
	e.Stack = captureStack(3)
	return e
}

// Detail returns a detail value as a string, or "" when absent.
func (e *AppError) Detail(key string) string {
	v, ok := e.Details[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Is reports whether target is an *AppError of the same type.
func (e *AppError) Is(target error) bool {
	if targetApp, ok := target.(*AppError); ok {
		return e.Type == targetApp.Type
	}
	return false
}

// New creates a new AppError
func New(errType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Code:    string(errType),
	}
}

// FromError converts a standard error to AppError
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return &AppError{
		Type:       ErrorTypeUnknown,
		Message:    err.Error(),
		InnerError: err,
	}
}

// Wrap wraps an error with additional context. The type of an inner
// *AppError is preserved.
func Wrap(err error, message string) *AppError {
	inner := FromError(err)
	if inner == nil {
		return New(ErrorTypeUnknown, message)
	}
	return &AppError{
		Type:       inner.Type,
		Code:       inner.Code,
		Message:    message,
		InnerError: err,
	}
}

// WrapWithType wraps an error with a specific type
func WrapWithType(err error, errType ErrorType, message string) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		InnerError: err,
		Code:       string(errType),
	}
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether any error in err's chain is an *AppError of errType.
func IsType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, &AppError{Type: errType})
}

// NewConfigurationMissing reports a dotted configuration path that does not resolve.
func NewConfigurationMissing(path string) *AppError {
	return New(ErrorTypeConfigurationMissing, fmt.Sprintf("configuration %q not found", path)).
		WithCode(CodeConfigurationMissing).
		WithDetail("path", path)
}

// NewUnknownRegistryKey reports a (category, variant) pair that was never registered.
func NewUnknownRegistryKey(category, variant string) *AppError {
	return New(ErrorTypeUnknownRegistryKey, fmt.Sprintf("no factory registered for %s/%s", category, variant)).
		WithCode(CodeUnknownRegistryKey).
		WithDetail("category", category).
		WithDetail("variant", variant)
}

// NewCapabilityUnavailable reports a capability that has no implementation and no fallback.
func NewCapabilityUnavailable(capability string) *AppError {
	return New(ErrorTypeCapabilityUnavailable, fmt.Sprintf("capability %s is not configured", capability)).
		WithCode(CodeCapabilityUnavailable).
		WithDetail("capability", capability)
}

func NewValidation(message string) *AppError {
	return New(ErrorTypeValidation, message)
}

func NewInvalid(field string, value any, reason string) *AppError {
	return New(ErrorTypeInvalid, fmt.Sprintf("invalid value for %s: %v", field, value)).
		WithCode(CodeInvalidField).
		WithDetail("field", field).
		WithDetail("value", value).
		WithDetail("reason", reason)
}

func NewTimeout(message string) *AppError {
	return New(ErrorTypeTimeout, message)
}

func NewInternal(message string) *AppError {
	return New(ErrorTypeInternal, message).WithCode(CodeInternalError)
}

func NewExternal(message string) *AppError {
	return New(ErrorTypeExternal, message)
}

// Recover converts a value obtained from recover() into an AppError.
// An *AppError panic value keeps its type; anything else becomes internal.
//
//	defer func() {
//	    if r := recover(); r != nil {
//	        err = errors.Recover(r)
//	    }
//	}()
func Recover(r any) *AppError {
	if r == nil {
		return nil
	}
	var appErr *AppError
	switch v := r.(type) {
	case *AppError:
		appErr = v
	case error:
		appErr = WrapWithType(v, TypeOf(v), "panic recovered: "+v.Error())
		if appErr.Type == ErrorTypeUnknown {
			appErr.Type = ErrorTypeInternal
			appErr.Code = string(ErrorTypeInternal)
		}
	case string:
		appErr = New(ErrorTypeInternal, v)
	default:
		appErr = New(ErrorTypeInternal, fmt.Sprintf("%v", v))
	}
	if len(appErr.Stack) == 0 {
		appErr.Stack = captureStack(3)
	}
	return appErr
}

// ErrorFormatter formats errors for logs and reports
type ErrorFormatter struct {
	showStack bool
	showInner bool
}

// NewErrorFormatter creates a new error formatter
func NewErrorFormatter(showStack bool, showInner bool) *ErrorFormatter {
	return &ErrorFormatter{
		showStack: showStack,
		showInner: showInner,
	}
}

// Format formats an error as a string
func (f *ErrorFormatter) Format(err error) string {
	if err == nil {
		return ""
	}

	appErr := FromError(err)

	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", appErr.Type, appErr.Error()))

	if appErr.Code != "" {
		parts = append(parts, fmt.Sprintf("code=%s", appErr.Code))
	}

	for _, k := range sortedKeys(appErr.Details) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, appErr.Details[k]))
	}

	if f.showStack && len(appErr.Stack) > 0 {
		parts = append(parts, "stack:")
		for _, s := range appErr.Stack {
			parts = append(parts, "  "+s)
		}
	}

	if f.showInner && appErr.InnerError != nil {
		parts = append(parts, "caused_by: "+appErr.InnerError.Error())
	}

	return strings.Join(parts, " | ")
}

// captureStack captures the call stack
func captureStack(skip int) []string {
	var stack []string
	for i := skip; i < skip+10; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		funcName := fn.Name()
		if idx := strings.LastIndex(funcName, "/"); idx >= 0 {
			funcName = funcName[idx+1:]
		}

		stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, funcName))
	}
	return stack
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
