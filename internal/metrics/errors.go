package metrics

import (
	"strconv"
	"time"
)

// Metric names
const (
	ErrorsTotalName      = "errors_total"
	PanicsTotalName      = "panics_total"
	ErrorsByEndpointName = "errors_by_endpoint"
	ServerStartTimeName  = "server_start_time_seconds"
)

// RecordError records an error with code and status
func RecordError(errorCode string, httpStatus int) {
	Default.Count(ErrorsTotalName, map[string]string{
		"error_code":  errorCode,
		"http_status": strconv.Itoa(httpStatus),
	})
}

// RecordPanic records a panic recovery
func RecordPanic() {
	Default.Count(PanicsTotalName, nil)
}

// RecordErrorByEndpoint records an error by route pattern.
func RecordErrorByEndpoint(endpoint string, errorCode string) {
	Default.Count(ErrorsByEndpointName, map[string]string{
		"endpoint":   endpoint,
		"error_code": errorCode,
	})
}

// SetServerStartTime records the server start time as a Unix timestamp.
func SetServerStartTime(t time.Time) {
	Default.Set(ServerStartTimeName, float64(t.Unix()), nil)
}
