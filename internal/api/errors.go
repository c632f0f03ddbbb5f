package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/kalambet/kvault/internal/storage"
)

const maxLimit = 100

// checkLimit rejects limits outside 1..maxLimit.
func checkLimit(limit int) error {
	if limit < 1 || limit > maxLimit {
		return &storage.ValidationError{Field: "limit", Msg: fmt.Sprintf("must be between 1 and %d", maxLimit)}
	}
	return nil
}

// errorKind classifies err for the adapters: validation failures and
// lookups that miss are caller problems, everything else is ours.
func errorKind(err error) (status int, errType string) {
	switch {
	case storage.IsValidation(err):
		return http.StatusBadRequest, "invalid_request_error"
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not_found_error"
	default:
		return http.StatusInternalServerError, "api_error"
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

// httpFailure writes err with the status its kind maps to.
func httpFailure(w http.ResponseWriter, op string, err error) {
	code, errType := errorKind(err)
	if code == http.StatusInternalServerError {
		httpError(w, code, errType, "%s failed: %v", op, err)
		return
	}
	httpError(w, code, errType, "%v", err)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

// parseLimitParam reads an integer query parameter, using def when absent.
func parseLimitParam(r *http.Request, key string, def int) (int, error) {
	s := strings.TrimSpace(r.URL.Query().Get(key))
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, &storage.ValidationError{Field: key, Msg: fmt.Sprintf("%q is not an integer", s)}
	}
	if err := checkLimit(v); err != nil {
		return 0, err
	}
	return v, nil
}
