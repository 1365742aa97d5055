package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Event is a campus event record owned by the external submission system.
// The worker only reads events; it never creates or mutates them.
type Event struct {
	ID          string
	Title       string
	Description string
	Tags        []string
	Subreddits  []string
	CreatedAt   time.Time
}

// DecodeList parses a serialized string list as stored by the submission
// system (a JSON array). A value that fails to parse is treated as a
// single-element list; an empty value yields nil.
func DecodeList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err == nil {
		return items
	}

	return []string{raw}
}
