package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/evcraddock/house-market/internal/alert"
	"github.com/evcraddock/house-market/internal/auth"
	"github.com/evcraddock/house-market/internal/bookmark"
	"github.com/evcraddock/house-market/internal/compare"
	"github.com/evcraddock/house-market/internal/geocode"
	"github.com/evcraddock/house-market/internal/notify"
	"github.com/evcraddock/house-market/internal/property"
	"github.com/evcraddock/house-market/internal/schema"
	"github.com/evcraddock/house-market/internal/upload"
)

// Error codes for failures that are not auth errors.
const (
	codeInvalidArgument = "invalid-argument"
	codeNotFound        = "not-found"
	codeForbidden       = "forbidden"
	codeConflict        = "conflict"
	codeUnavailable     = "unavailable"
	codeInternal        = "internal"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg, code string, status int) {
	apiJSON(w, errorResponse{Error: msg, Code: code}, status)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// writeError maps a service error onto a status code and error body.
// Unrecognized errors are logged and reported as internal.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var authErr *auth.Error
	if errors.As(err, &authErr) {
		apiError(w, authErr.Message, authErr.Code, authStatus(authErr.Code))
		return
	}

	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		apiError(w, "internal error", code, status)
		return
	}
	apiError(w, err.Error(), code, status)
}

func authStatus(code string) int {
	switch code {
	case auth.CodeUnauthenticated, auth.CodeWrongPassword:
		return http.StatusUnauthorized
	case auth.CodeUserNotFound:
		return http.StatusNotFound
	case auth.CodeEmailAlreadyInUse:
		return http.StatusConflict
	case auth.CodeTooManyRequests:
		return http.StatusTooManyRequests
	case auth.CodePasskeyUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, schema.ErrInvalid),
		errors.Is(err, property.ErrInvalid),
		errors.Is(err, alert.ErrInvalid):
		return http.StatusBadRequest, codeInvalidArgument
	case errors.Is(err, upload.ErrNotImage):
		return http.StatusUnsupportedMediaType, codeInvalidArgument
	case errors.Is(err, property.ErrForbidden):
		return http.StatusForbidden, codeForbidden
	case errors.Is(err, property.ErrNotFound),
		errors.Is(err, alert.ErrNotFound),
		errors.Is(err, bookmark.ErrNotFound),
		errors.Is(err, compare.ErrNotFound),
		errors.Is(err, notify.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, bookmark.ErrAlreadyBookmarked),
		errors.Is(err, compare.ErrDuplicate),
		errors.Is(err, compare.ErrFull):
		return http.StatusConflict, codeConflict
	case errors.Is(err, upload.ErrUnavailable),
		errors.Is(err, geocode.ErrUnavailable):
		return http.StatusServiceUnavailable, codeUnavailable
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

// readBody reads a capped request body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
}

// decodeJSON decodes a capped JSON request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		apiError(w, "invalid JSON", codeInvalidArgument, http.StatusBadRequest)
		return false
	}
	return true
}

// pathID parses a positive integer URL parameter.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		apiError(w, "invalid "+name, codeInvalidArgument, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// clientIP returns the caller address without its port. Forwarding
// headers are reflected only when the server trusts its proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
