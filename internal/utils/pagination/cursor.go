package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	svcErr "github.com/oggyb/muzz-match/internal/errors"
)

// Cursor is the opaque keyset pagination state we encode/decode.
// Nanos is the sort timestamp of the last row at full precision, Key its id
// tie-breaker. Anything coarser than what the DB stores skips rows that share
// the truncated timestamp.
type Cursor struct {
	Key   string `json:"k"`
	Nanos int64  `json:"n,omitempty"`
}

// At builds the cursor for a row sorted by t.
func At(key string, t time.Time) Cursor {
	return Cursor{Key: key, Nanos: t.UnixNano()}
}

// Time is the sort timestamp in UTC.
func (c Cursor) Time() time.Time { return time.Unix(0, c.Nanos).UTC() }

// IsZero reports a first-page cursor.
func (c Cursor) IsZero() bool { return c.Key == "" && c.Nanos == 0 }

// Encode converts a Cursor into a Base64 string.
func Encode(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Decode parses a Base64 string into a Cursor.
// Empty token → empty cursor (first page).
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}

	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, svcErr.InvalidArgument("invalid pagination token")
	}

	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil || c.Key == "" {
		return Cursor{}, svcErr.InvalidArgument("invalid pagination token")
	}
	return c, nil
}

// Trim takes rows fetched with limit+1 and returns at most limit of them plus
// the token for the next page, or nil when there is none.
func Trim[T any](rows []T, limit int, cursorOf func(T) Cursor) ([]T, *string) {
	if limit <= 0 || len(rows) <= limit {
		return rows, nil
	}
	token, err := Encode(cursorOf(rows[limit-1]))
	if err != nil {
		return rows[:limit], nil
	}
	return rows[:limit], &token
}

// Deref safely dereferences an optional page token.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
