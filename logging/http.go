package logging

import (
	"net/http"
	"time"
)

// LogHTTPRequest logs a completed HTTP request with level derived from the status code
func LogHTTPRequest(logger *Logger, r *http.Request, status int, elapsed time.Duration, requestID string) {
	fields := map[string]interface{}{
		"remote":  r.RemoteAddr,
		"method":  r.Method,
		"path":    r.URL.Path,
		"status":  status,
		"elapsed": elapsed.String(),
	}
	if requestID != "" {
		fields["request_id"] = requestID
	}

	switch {
	case status >= 500:
		logger.Error("HTTP request", fields)
	case status >= 400:
		logger.Warn("HTTP request", fields)
	default:
		logger.Info("HTTP request", fields)
	}
}
