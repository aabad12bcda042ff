package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/linearmcp/linear-mcp/internal/core/engine"
	"github.com/linearmcp/linear-mcp/internal/core/linear"
	"github.com/linearmcp/linear-mcp/internal/metrics"
	"github.com/linearmcp/linear-mcp/internal/observability"
	"github.com/linearmcp/linear-mcp/internal/server/middleware"
)

// Error codes
const (
	CodeInvalidInput     = "INVALID_INPUT"
	CodeValidation       = "VALIDATION_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeRateLimited      = "RATE_LIMITED"
	CodeExternalService  = "EXTERNAL_SERVICE_ERROR"
	CodeTimeout          = "TIMEOUT"
	CodeDatabase         = "DATABASE_ERROR"
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeInternal         = "INTERNAL_ERROR"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeUnavailable      = "SERVICE_UNAVAILABLE"
)

func NewInvalidInputError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeInvalidInput, message)
}

func NewValidationError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeValidation, message)
}

func NewNotFoundError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeNotFound, message)
}

func NewMethodNotAllowedError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeMethodNotAllowed, message)
}

func NewExternalServiceError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeExternalService, message)
}

func NewInternalError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeInternal, message)
}

func NewConfigInvalidError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeConfigInvalid, message)
}

// Wrap functions attach correlation ids from ctx and keep the underlying
// error text in the envelope context.

func WrapNotFound(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeNotFound, err, message)
}

func WrapRateLimited(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeRateLimited, err, message)
}

func WrapExternalService(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeExternalService, err, message)
}

func WrapTimeout(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeTimeout, err, message)
}

func WrapDatabaseError(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeDatabase, err, message)
}

func WrapInternal(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeInternal, err, message)
}

func WrapConfigInvalid(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeConfigInvalid, err, message)
}

func wrap(ctx context.Context, code string, err error, message string) *errors.ErrorEnvelope {
	envelope := errors.NewErrorEnvelope(code, message)
	correlationID := extractCorrelationID(ctx)
	envelope = envelope.WithCorrelationID(correlationID)
	envelope = envelope.WithTraceID(correlationID)
	return withWrappedError(envelope, err)
}

// Classify maps an error from the governor, the Linear client or the
// runtime onto an envelope. The envelope message is the error text.
func Classify(ctx context.Context, err error) *errors.ErrorEnvelope {
	if err == nil {
		return EnsureEnvelope(nil)
	}

	var envelope *errors.ErrorEnvelope
	if stderrors.As(err, &envelope) && envelope != nil {
		return EnsureCorrelationID(envelope, ctx)
	}

	var limitErr *engine.RateLimitError
	var apiErr *linear.APIError
	var env *errors.ErrorEnvelope
	switch {
	case stderrors.As(err, &limitErr):
		env = WrapRateLimited(ctx, nil, err.Error())
		env = withContext(env, map[string]interface{}{
			"limit":               limitErr.Limit,
			"window_seconds":      int(limitErr.Window / time.Second),
			"retry_after_seconds": int(limitErr.RetryAfter / time.Second),
		})
		env, _ = env.WithSeverity(errors.SeverityMedium)
	case stderrors.Is(err, engine.ErrRateLimitExceeded):
		env = WrapRateLimited(ctx, nil, err.Error())
		env, _ = env.WithSeverity(errors.SeverityMedium)
	case stderrors.Is(err, linear.ErrNotFound):
		// Not-found is an expected outcome; no severity keeps it at info.
		env = WrapNotFound(ctx, nil, err.Error())
	case stderrors.As(err, &apiErr):
		env = WrapExternalService(ctx, nil, err.Error())
		env = withContext(env, map[string]interface{}{
			"operation":   apiErr.Operation,
			"http_status": apiErr.StatusCode,
		})
		env, _ = env.WithSeverity(errors.SeverityMedium)
	case stderrors.Is(err, context.DeadlineExceeded):
		env = WrapTimeout(ctx, nil, err.Error())
		env, _ = env.WithSeverity(errors.SeverityMedium)
	default:
		env = WrapInternal(ctx, nil, err.Error())
		env, _ = env.WithSeverity(errors.SeverityHigh)
	}
	return env
}

// ToolMessage renders the text a tool caller sees for an envelope.
// Unclassified failures are prefixed so callers can tell them apart from
// upstream and validation errors.
func ToolMessage(envelope *errors.ErrorEnvelope) string {
	if envelope == nil {
		return "Internal error: unknown error"
	}
	if envelope.Code == CodeInternal {
		return "Internal error: " + envelope.Message
	}
	return envelope.Message
}

// ReportToolError logs the envelope and counts it against the tool.
func ReportToolError(tool string, envelope *errors.ErrorEnvelope) {
	if envelope == nil {
		return
	}
	logEnvelope(envelope, zap.String("tool", tool))
	metrics.RecordError(envelope.Code, HTTPStatusFromCode(envelope.Code))
	metrics.RecordErrorByEndpoint(tool, envelope.Code)
}

func extractCorrelationID(ctx context.Context) string {
	if requestID := middleware.GetRequestID(ctx); requestID != "" {
		return requestID
	}
	return uuid.New().String()
}

// EnsureEnvelope normalizes any error into a gofulmen ErrorEnvelope.
func EnsureEnvelope(err error) *errors.ErrorEnvelope {
	if err == nil {
		env := errors.NewErrorEnvelope(CodeInternal, "unexpected nil error")
		env, _ = env.WithSeverity(errors.SeverityCritical)
		return env
	}

	var envelope *errors.ErrorEnvelope
	if stderrors.As(err, &envelope) && envelope != nil {
		return envelope
	}

	env := withWrappedError(errors.NewErrorEnvelope(CodeInternal, "unexpected error"), err)
	env, _ = env.WithSeverity(errors.SeverityHigh)
	return env
}

// EnsureCorrelationID attaches a correlation ID to the envelope using the context when available.
func EnsureCorrelationID(envelope *errors.ErrorEnvelope, ctx context.Context) *errors.ErrorEnvelope {
	if envelope == nil || envelope.CorrelationID != "" {
		return envelope
	}

	correlationID := middleware.GetRequestID(ctx)
	if correlationID == "" {
		correlationID = "fallback-" + errors.GenerateCorrelationID()
	}
	return envelope.WithCorrelationID(correlationID)
}

// HTTPStatusFromCode resolves the HTTP status code corresponding to an error code.
func HTTPStatusFromCode(code string) int {
	switch code {
	case CodeInvalidInput, CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeExternalService:
		return http.StatusBadGateway
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func withWrappedError(envelope *errors.ErrorEnvelope, err error) *errors.ErrorEnvelope {
	if envelope == nil || err == nil {
		return envelope
	}

	return withContext(envelope, map[string]interface{}{
		"wrapped_error": err.Error(),
	})
}

// withContext merges fields into the envelope context. gofulmen's WithContext
// replaces the whole map and drops values that are not string, int, float64,
// bool or string slices; rejected keys are logged.
func withContext(envelope *errors.ErrorEnvelope, fields map[string]interface{}) *errors.ErrorEnvelope {
	if envelope == nil || len(fields) == 0 {
		return envelope
	}

	merged := make(map[string]interface{}, len(envelope.Context)+len(fields))
	for key, value := range envelope.Context {
		merged[key] = value
	}
	for key, value := range fields {
		merged[key] = value
	}

	updated, err := envelope.WithContext(merged)
	if err != nil && observability.ServerLogger != nil {
		observability.ServerLogger.Warn("Dropped invalid error context",
			zap.String("error_code", envelope.Code),
			zap.Error(err))
	}
	if updated == nil {
		return envelope
	}
	return updated
}

// HTTPErrorDetail captures the error body returned to status server callers.
type HTTPErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// HTTPErrorResponse wraps HTTPErrorDetail in the standard envelope structure.
type HTTPErrorResponse struct {
	Error HTTPErrorDetail `json:"error"`
}

// RespondWithError normalizes the supplied error and writes a JSON response.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	var ctx context.Context
	if r != nil {
		ctx = r.Context()
	}
	RespondWithEnvelope(w, r, Classify(ctx, err))
}

// RespondWithEnvelope finalizes the provided envelope, logging and emitting metrics.
func RespondWithEnvelope(w http.ResponseWriter, r *http.Request, envelope *errors.ErrorEnvelope) {
	if w == nil {
		return
	}

	var ctx context.Context
	if r != nil {
		ctx = r.Context()
	}
	envelope = EnsureCorrelationID(envelope, ctx)
	statusCode := HTTPStatusFromCode(envelope.Code)

	var details map[string]interface{}
	if len(envelope.Context) > 0 {
		details = envelope.Context
	}

	logEnvelope(envelope, zap.Int("http_status", statusCode))
	metrics.RecordError(envelope.Code, statusCode)
	if r != nil {
		metrics.RecordErrorByEndpoint(r.URL.Path, envelope.Code)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(HTTPErrorResponse{
		Error: HTTPErrorDetail{
			Code:      envelope.Code,
			Message:   envelope.Message,
			Details:   details,
			RequestID: envelope.CorrelationID,
		},
	})
}

func logEnvelope(envelope *errors.ErrorEnvelope, extra ...zap.Field) {
	if observability.ServerLogger == nil || envelope == nil {
		return
	}

	fields := append([]zap.Field{zap.String("error_code", envelope.Code)}, extra...)
	if envelope.Severity != "" {
		fields = append(fields, zap.String("severity", string(envelope.Severity)))
	}
	for key, value := range envelope.Context {
		fields = append(fields, zap.Any(key, value))
	}
	if envelope.CorrelationID != "" {
		fields = append(fields, zap.String("correlation_id", envelope.CorrelationID))
	}

	switch envelope.Severity {
	case errors.SeverityCritical, errors.SeverityHigh:
		observability.ServerLogger.Error(envelope.Message, fields...)
	case errors.SeverityMedium:
		observability.ServerLogger.Warn(envelope.Message, fields...)
	default:
		observability.ServerLogger.Info(envelope.Message, fields...)
	}
}

// Describe formats an envelope for CLI output.
func Describe(envelope *errors.ErrorEnvelope) string {
	if envelope == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", envelope.Code, envelope.Message)
}
