package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	resumecanvasErrors "resumecanvas/internal/errors"
)

// healthHandler provides a health check endpoint including backend circuit
// breaker status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "resumecanvas",
		"version": s.Version,
	}

	// Backend circuit breaker status
	backendStats := s.Backend.Stats()
	response["backend"] = backendStats

	// Session store status
	response["sessions"] = map[string]any{
		"active": s.Sessions.Count(),
	}

	// Certificate watcher status if hot reload is running
	if s.CertReloader != nil {
		response["certificates"] = s.CertReloader.Status()
	}

	// Degrade when any backend breaker is open
	for _, stats := range backendStats {
		if info, ok := stats.(map[string]any); ok {
			if state, exists := info["state"]; exists && state == "open" {
				response["status"] = "degraded"
				w.WriteHeader(http.StatusServiceUnavailable)
				break
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode health response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "resumecanvas",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
		"sessions": map[string]any{
			"active": s.Sessions.Count(),
		},
	}

	// Add rate limiting stats if enabled
	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	// Add configuration info
	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode stats response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if r.Header.Get("Content-Type") != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   error,
		Message: message,
	}

	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode error response: %v", err)
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}

// writeAppErrorResponse maps domain errors onto HTTP statuses
func writeAppErrorResponse(w http.ResponseWriter, logger *resumecanvasErrors.Logger, err error) {
	var appErr *resumecanvasErrors.AppError
	if !errors.As(err, &appErr) {
		logger.LogError(err, "Unclassified error in request handler")
		writeErrorResponse(w, "Internal error", err.Error(), http.StatusInternalServerError)
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Code {
	case resumecanvasErrors.ErrCodeSessionNotFound, resumecanvasErrors.ErrCodeDocumentNotFound:
		status = http.StatusNotFound
	case resumecanvasErrors.ErrCodeSaveInFlight, resumecanvasErrors.ErrCodeNothingToSave:
		status = http.StatusConflict
	case resumecanvasErrors.ErrCodeUnauthorized, resumecanvasErrors.ErrCodeRefreshFailed:
		status = http.StatusBadGateway
	default:
		switch appErr.Type {
		case resumecanvasErrors.ErrorTypeValidation:
			status = http.StatusBadRequest
		case resumecanvasErrors.ErrorTypeNetwork:
			status = http.StatusBadGateway
		}
	}

	if status >= 500 {
		logger.LogError(appErr, "Request failed", "code", appErr.Code)
	}
	writeErrorResponse(w, appErr.Code, appErr.Message, status)
}
