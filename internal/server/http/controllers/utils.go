package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON writes a JSON response with the given data.
func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

// writeNoContent writes a 204 No Content response.
func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// parseLimit returns 0 for empty or invalid values.
func parseLimit(limitStr string) int {
	if limitStr == "" {
		return 0
	}
	if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
		return limit
	}
	return 0
}

// parseTimestamp parses raw microseconds or RFC3339 into Unix microseconds.
// Returns ok=false for malformed input; empty input is zero.
func parseTimestamp(ts string) (uint64, bool) {
	if ts == "" {
		return 0, true
	}
	if us, err := strconv.ParseUint(ts, 10, 64); err == nil {
		return us, true
	}
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil && t.UnixMicro() >= 0 {
		return uint64(t.UnixMicro()), true
	}
	return 0, false
}
