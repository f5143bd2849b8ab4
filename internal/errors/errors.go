package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketmux/marketmux/internal/core"
	"github.com/marketmux/marketmux/internal/core/curate"
	"github.com/marketmux/marketmux/internal/market"
	"github.com/marketmux/marketmux/internal/metrics"
	"github.com/marketmux/marketmux/internal/observability"
	"github.com/marketmux/marketmux/internal/server/middleware"
)

// Error codes returned in envelopes.
const (
	CodeInvalidInput        = "INVALID_INPUT"
	CodeNotFound            = "NOT_FOUND"
	CodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
	CodeInternal            = "INTERNAL_ERROR"
	CodeTimeout             = "TIMEOUT"
	CodeCanceled            = "REQUEST_CANCELED"
	CodeConfigInvalid       = "CONFIG_INVALID"
	CodeDataProcessing      = "DATA_PROCESSING_ERROR"
	CodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
	CodeAllProvidersFailed  = "ALL_PROVIDERS_FAILED"
	CodeRateLimited         = "RATE_LIMITED"
	CodeNoCapableProvider   = "NO_CAPABLE_PROVIDER"
	CodeExternalServiceFail = "EXTERNAL_SERVICE_ERROR"
)

func NewInvalidInputError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeInvalidInput, message)
}

func NewNotFoundError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeNotFound, message)
}

func NewMethodNotAllowedError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeMethodNotAllowed, message)
}

// Wrap builds an envelope for err carrying the request's correlation ID.
func Wrap(ctx context.Context, code string, err error, message string) *errors.ErrorEnvelope {
	envelope := errors.NewErrorEnvelope(code, message)
	envelope = envelope.WithCorrelationID(extractCorrelationID(ctx))
	envelope = withContext(envelope, map[string]any{"wrapped_error": err.Error()})
	return envelope
}

// FromDomainError maps engine and service errors to envelopes.
func FromDomainError(ctx context.Context, err error) *errors.ErrorEnvelope {
	var envelope *errors.ErrorEnvelope
	if stderrors.As(err, &envelope) && envelope != nil {
		return envelope
	}

	var (
		allFailed *core.AllProvidersFailedError
		noCapable *core.NoCapableProviderError
	)
	switch {
	case stderrors.Is(err, market.ErrInvalidArgument):
		return Wrap(ctx, CodeInvalidInput, err, err.Error())

	case stderrors.As(err, &noCapable):
		env := Wrap(ctx, CodeNoCapableProvider, err, noCapable.Error())
		return withContext(env, map[string]any{
			"operation":           noCapable.Operation,
			"capability":          noCapable.Capability.String(),
			"available_providers": noCapable.AvailableProviders,
		})

	case stderrors.As(err, &allFailed):
		code := CodeAllProvidersFailed
		if onlyRateLimited(allFailed.Failures) {
			code = CodeRateLimited
		}
		env := Wrap(ctx, code, err, "All providers failed for "+allFailed.Operation)
		env = withContext(env, map[string]any{
			"operation":        allFailed.Operation,
			"total_providers":  allFailed.TotalProviders,
			"failed_providers": allFailed.PerProvider(),
		})
		return withSeverity(env, errors.SeverityMedium)

	case stderrors.Is(err, context.DeadlineExceeded):
		return Wrap(ctx, CodeTimeout, err, "Request timed out")

	case stderrors.Is(err, context.Canceled):
		return Wrap(ctx, CodeCanceled, err, "Request canceled")

	case core.IsConfigurationError(err):
		return withSeverity(Wrap(ctx, CodeConfigInvalid, err, err.Error()), errors.SeverityHigh)

	case stderrors.Is(err, curate.ErrNoIndicatorData), stderrors.Is(err, curate.ErrNoUnderlyingPrice):
		return Wrap(ctx, CodeDataProcessing, err, err.Error())
	}

	return EnsureEnvelope(err)
}

// onlyRateLimited reports whether every attempt ran out of rate-limit budget.
func onlyRateLimited(failures []core.Failure) bool {
	if len(failures) == 0 {
		return false
	}
	for _, f := range failures {
		if f.Kind != core.FailureRateLimitTimeout {
			return false
		}
	}
	return true
}

// extractCorrelationID gets correlation ID from context, falls back to generating new UUID
func extractCorrelationID(ctx context.Context) string {
	if ctx != nil {
		if requestID := middleware.GetRequestID(ctx); requestID != "" {
			return requestID
		}
	}
	return uuid.New().String()
}

// EnsureEnvelope normalizes any error into a gofulmen ErrorEnvelope.
func EnsureEnvelope(err error) *errors.ErrorEnvelope {
	if err == nil {
		env := errors.NewErrorEnvelope(CodeInternal, "unexpected nil error")
		return withSeverity(env, errors.SeverityCritical)
	}

	var envelope *errors.ErrorEnvelope
	if stderrors.As(err, &envelope) && envelope != nil {
		return envelope
	}

	env := errors.NewErrorEnvelope(CodeInternal, "unexpected error")
	env = withContext(env, map[string]any{"wrapped_error": err.Error()})
	return withSeverity(env, errors.SeverityHigh)
}

// EnsureCorrelationID attaches a correlation ID to the envelope using the context when available.
func EnsureCorrelationID(envelope *errors.ErrorEnvelope, ctx context.Context) *errors.ErrorEnvelope {
	if envelope == nil {
		return nil
	}
	if envelope.CorrelationID != "" {
		return envelope
	}

	var correlationID string
	if ctx != nil {
		correlationID = middleware.GetRequestID(ctx)
	}
	if correlationID == "" {
		correlationID = "fallback-" + errors.GenerateCorrelationID()
	}
	return envelope.WithCorrelationID(correlationID)
}

// HTTPStatusFromEnvelope resolves the HTTP status code corresponding to an error envelope.
func HTTPStatusFromEnvelope(envelope *errors.ErrorEnvelope) int {
	if envelope == nil {
		return http.StatusInternalServerError
	}
	return HTTPStatusFromCode(envelope.Code)
}

// HTTPStatusFromCode resolves the HTTP status code corresponding to an error code.
func HTTPStatusFromCode(code string) int {
	switch code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case CodeCanceled:
		return http.StatusRequestTimeout
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeNoCapableProvider:
		return http.StatusNotImplemented
	case CodeAllProvidersFailed, CodeExternalServiceFail, CodeDataProcessing:
		return http.StatusBadGateway
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func withContext(envelope *errors.ErrorEnvelope, fields map[string]any) *errors.ErrorEnvelope {
	if envelope == nil || len(fields) == 0 {
		return envelope
	}
	merged := make(map[string]any, len(envelope.Context)+len(fields))
	for k, v := range envelope.Context {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	updated, err := envelope.WithContext(merged)
	if err != nil {
		return envelope
	}
	return updated
}

func withSeverity(envelope *errors.ErrorEnvelope, severity errors.Severity) *errors.ErrorEnvelope {
	updated, err := envelope.WithSeverity(severity)
	if err != nil {
		return envelope
	}
	return updated
}

// ResponseDetails constructs API-safe details map by merging envelope details and context.
func ResponseDetails(envelope *errors.ErrorEnvelope) map[string]any {
	if envelope == nil {
		return nil
	}

	details := make(map[string]any)
	for key, value := range envelope.Details {
		details[key] = value
	}
	for key, value := range envelope.Context {
		if _, exists := details[key]; !exists {
			details[key] = value
		}
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

// HTTPErrorDetail captures the error body returned to callers.
type HTTPErrorDetail struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// HTTPErrorResponse wraps HTTPErrorDetail in the standard envelope structure.
type HTTPErrorResponse struct {
	Error HTTPErrorDetail `json:"error"`
}

// RespondWithError maps err and writes a JSON response.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	var ctx context.Context
	if r != nil {
		ctx = r.Context()
	}
	RespondWithEnvelope(w, r, FromDomainError(ctx, err))
}

// RespondWithEnvelope finalizes the provided envelope, logging and emitting metrics.
func RespondWithEnvelope(w http.ResponseWriter, r *http.Request, envelope *errors.ErrorEnvelope) {
	if w == nil {
		return
	}
	if envelope == nil {
		envelope = EnsureEnvelope(nil)
	}

	if r != nil {
		envelope = EnsureCorrelationID(envelope, r.Context())
	} else {
		envelope = EnsureCorrelationID(envelope, nil)
	}

	statusCode := HTTPStatusFromEnvelope(envelope)
	response := HTTPErrorResponse{
		Error: HTTPErrorDetail{
			Code:      envelope.Code,
			Message:   envelope.Message,
			Details:   ResponseDetails(envelope),
			RequestID: envelope.CorrelationID,
		},
	}

	logHTTPError(envelope, statusCode)
	emitErrorMetrics(r, envelope, statusCode)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func logHTTPError(envelope *errors.ErrorEnvelope, statusCode int) {
	if observability.ServerLogger == nil || envelope == nil {
		return
	}

	fields := []zap.Field{
		zap.String("error_code", envelope.Code),
		zap.Int("http_status", statusCode),
	}
	if envelope.Severity != "" {
		fields = append(fields, zap.String("severity", string(envelope.Severity)))
	}
	for key, value := range envelope.Context {
		fields = append(fields, zap.Any(key, value))
	}
	if envelope.CorrelationID != "" {
		fields = append(fields, zap.String("request_id", envelope.CorrelationID))
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

func emitErrorMetrics(r *http.Request, envelope *errors.ErrorEnvelope, statusCode int) {
	if envelope == nil {
		return
	}

	metrics.RecordError(envelope.Code, statusCode)
	if r != nil {
		metrics.RecordErrorByEndpoint(middleware.EndpointPattern(r), envelope.Code)
	}
}
