package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. Error is mapped via core.MapError to get a user-friendly message
//  4. The status code is derived from the message code
//  5. Technical error + context is logged with request and session ids
//  6. User message is rendered as JSON for /api, as an HTML page otherwise

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/sheetdash/internal/core"
	"github.com/JonMunkholm/sheetdash/internal/logging"
	"github.com/JonMunkholm/sheetdash/internal/web/templates"
)

var errRateLimited = errors.New("rate limit exceeded")

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusByCode maps user message codes to HTTP status codes.
var statusByCode = map[string]int{
	"FILE001": http.StatusRequestEntityTooLarge,
	"FILE004": http.StatusBadRequest,
	"FILE005": http.StatusBadRequest,
	"WB001":   http.StatusUnprocessableEntity,
	"WB002":   http.StatusUnsupportedMediaType,
	"WB003":   http.StatusNotFound,
	"WB004":   http.StatusUnprocessableEntity,
	"SHT001":  http.StatusNotFound,
	"COL001":  http.StatusUnprocessableEntity,
	"COL002":  http.StatusBadRequest,
	"CHT001":  http.StatusNotFound,
	"CHT002":  http.StatusBadRequest,
	"UPL002":  http.StatusServiceUnavailable,
	"UPL004":  http.StatusBadRequest,
	"UPL005":  http.StatusGatewayTimeout,
	"SES001":  http.StatusUnauthorized,
	"RATE001": http.StatusTooManyRequests,
}

// statusFor returns the HTTP status for a mapped error.
func statusFor(msg core.UserMessage) int {
	if code, ok := statusByCode[msg.Code]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// respondError logs the technical error server-side and returns the mapped
// user-friendly message in the format the client expects.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	userMsg := core.MapError(err)
	status := statusFor(userMsg)

	log := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if status >= http.StatusInternalServerError {
		log.Error("request error", attrs...)
	} else {
		log.Warn("request error", attrs...)
	}

	if wantsJSON(r) {
		respondErrorJSON(w, userMsg, status)
		return
	}
	respondErrorHTML(w, r, userMsg, status)
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// respondErrorHTML renders the error page.
func respondErrorHTML(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	templates.ErrorPage(msg).Render(r.Context(), w)
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
