package documents

import (
	"fmt"
	"strings"
	"time"
)

// ParseDateFrom reads an uploadDateFrom bound. A bare date means midnight UTC
// of that day. Blank input yields nil.
func ParseDateFrom(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		utc := t.UTC()
		return &utc, nil
	}
	return nil, fmt.Errorf("%w: uploadDateFrom must be YYYY-MM-DD or RFC3339, got %q", ErrInvalidInput, raw)
}
