package validators

import (
	"net/http"
	"strconv"
	"strings"
)

// QueryString returns the trimmed query value or the fallback when absent.
func QueryString(r *http.Request, key, fallback string) string {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return fallback
	}
	return value
}

// QueryInt parses a positive integer query value, clamped to max when
// max > 0. Invalid or missing values return the fallback.
func QueryInt(r *http.Request, key string, fallback, max int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	if max > 0 && value > max {
		return max
	}
	return value
}
