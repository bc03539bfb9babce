package store

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// screenPayload is the JSON shape of a screen entry.
type screenPayload struct {
	Output *string `json:"output"`
}

// marshalScreenContent encodes a screen payload as JSON TEXT.
// HTML escaping is disabled so stored output reads back verbatim.
func marshalScreenContent(output *string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(screenPayload{Output: output}); err != nil {
		return "", fmt.Errorf("marshal screen content: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// formatTime renders t in TimeLayout (UTC).
func formatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// parseTime parses a TimeLayout timestamp. RFC 3339 is accepted as well
// since SQLite date functions can produce either.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
