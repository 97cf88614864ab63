package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"profile-service/logger"
	"profile-service/models"

	"go.uber.org/zap"
)

type AppHandler func(http.ResponseWriter, *http.Request) error

// FieldError describes one rejected request field.
type FieldError struct {
	Param string `json:"param"`
	Msg   string `json:"msg"`
}

type AppError struct {
	Status  int
	Message string
	Fields  []FieldError
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(status int, message string, err error) *AppError {
	return &AppError{Status: status, Message: message, Err: err}
}

func NewValidationError(fields ...FieldError) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: "Validation failed", Fields: fields}
}

type errorResponse struct {
	Error  string       `json:"error"`
	Errors []FieldError `json:"errors,omitempty"`
}

var sentinelResponses = []struct {
	err     error
	status  int
	message string
}{
	{models.ErrInvalidToken, http.StatusUnauthorized, "Token is not valid"},
	{models.ErrNotOwner, http.StatusUnauthorized, "User not authorized"},
	{models.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{models.ErrProfileNotFound, http.StatusNotFound, "There is no profile for this user"},
	{models.ErrIdentityNotFound, http.StatusNotFound, "User not found"},
	{models.ErrNotFound, http.StatusNotFound, "Not found"},
	{models.ErrConflict, http.StatusBadRequest, "User already exists"},
}

// StatusFromError maps domain errors to a status code and a message that is
// safe to show to clients. Unknown errors are internal server errors.
func StatusFromError(err error) (int, string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status, appErr.Message
	}
	for _, s := range sentinelResponses {
		if errors.Is(err, s.err) {
			return s.status, s.message
		}
	}
	return http.StatusInternalServerError, "Internal server error"
}

type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.wroteHeader {
		rw.status = statusCode
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func ErrorHandler(log logger.Logger, handler AppHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if recovered := recover(); recovered != nil {
				log.Error("panic recovered", fmt.Errorf("%v", recovered),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
				if !rw.wroteHeader {
					writeErrorResponse(rw, http.StatusInternalServerError, "Internal server error", nil)
				}
			}
		}()

		if err := handler(rw, r); err != nil {
			handleError(log, rw, r, err)
		}
	}
}

func handleError(log logger.Logger, w *responseWriter, r *http.Request, err error) {
	status, message := StatusFromError(err)

	var fields []FieldError
	var appErr *AppError
	if errors.As(err, &appErr) {
		fields = appErr.Fields
	}

	if status >= http.StatusInternalServerError {
		log.Error("request failed", err,
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
		)
	}

	if w.wroteHeader {
		return
	}

	writeErrorResponse(w, status, message, fields)
}

func writeErrorResponse(w http.ResponseWriter, status int, message string, fields []FieldError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Errors: fields})
}
