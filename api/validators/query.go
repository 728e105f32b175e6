package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/marketdesk/marketdesk/pkg/errors"
)

const (
	maxQueryLen = 200
	// maxQueryInt bounds numeric query params; larger values are treated as malformed.
	maxQueryInt = 1_000_000
)

// QueryInt reads an integer query parameter. Missing, malformed or
// out-of-range values fall back to defaultVal so listing pages never fail on
// a bad link.
func QueryInt(r *http.Request, key string, defaultVal int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value > maxQueryInt || value < -maxQueryInt {
		return defaultVal
	}
	return value
}

// QueryString reads a trimmed, length-capped query parameter.
func QueryString(r *http.Request, key string) string {
	return SanitizeString(r.URL.Query().Get(key), maxQueryLen)
}

// URLParamID parses a positive integer route parameter. Anything else is
// reported as not found, matching how an unknown id would be answered.
func URLParamID(r *http.Request, key, notFoundMessage string) (uint, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage).WithDetails(map[string]any{"field": key})
	}
	return uint(value), nil
}
