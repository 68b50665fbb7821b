package errors

import (
	stderrors "errors"

	"github.com/louisbranch/cabinet/internal/platform/errors/i18n"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Domain is the error domain reported in gRPC error details.
const Domain = "cabinet.fiscal"

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Internal message (for logs/telemetry)
	Metadata map[string]string // Additional context for templating
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithMetadata creates a domain error with metadata for message templates.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf returns the code of the first domain error in err's chain, or
// CodeUnknown.
func CodeOf(err error) Code {
	var domainErr *Error
	if stderrors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeUnknown
}

// LocalizedMessage renders the user-facing message for locale.
func (e *Error) LocalizedMessage(locale string) (resolved string, message string) {
	catalog := i18n.GetCatalog(locale)
	return catalog.Locale(), catalog.Format(string(e.Code), e.Metadata)
}

// StatusFor converts any error to a gRPC status error. Domain errors carry
// their code and a localized message; other errors become Internal.
func StatusFor(err error, locale string) error {
	if err == nil {
		return nil
	}
	var domainErr *Error
	if !stderrors.As(err, &domainErr) {
		return status.Error(codes.Internal, err.Error())
	}
	resolved, message := domainErr.LocalizedMessage(locale)
	return domainErr.ToGRPCStatus(resolved, message)
}

// ToGRPCStatus converts the error to a gRPC status carrying ErrorInfo and
// LocalizedMessage details. The status message stays the internal message.
func (e *Error) ToGRPCStatus(locale string, userMessage string) error {
	grpcCode := e.Code.GRPCCode()
	st, err := status.New(grpcCode, e.Message).WithDetails(
		&errdetails.ErrorInfo{
			Reason:   string(e.Code),
			Domain:   Domain,
			Metadata: e.Metadata,
		},
		&errdetails.LocalizedMessage{
			Locale:  locale,
			Message: userMessage,
		},
	)
	if err != nil {
		return status.Error(grpcCode, e.Message)
	}
	return st.Err()
}

// FromStatus extracts the domain code and localized message from a gRPC
// status error produced by ToGRPCStatus. ok is false for other errors.
func FromStatus(err error) (code Code, message string, ok bool) {
	st, isStatus := status.FromError(err)
	if !isStatus || st == nil {
		return "", "", false
	}
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			if d.GetDomain() == Domain {
				code = Code(d.GetReason())
			}
		case *errdetails.LocalizedMessage:
			message = d.GetMessage()
		}
	}
	if code == "" {
		return "", "", false
	}
	if message == "" {
		message = st.Message()
	}
	return code, message, true
}
