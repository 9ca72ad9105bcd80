package extract

import (
	"context"
	"strings"
)

// extractText returns the payload as UTF-8, replacing invalid sequences.
func extractText(_ context.Context, _ string, data []byte) (string, error) {
	return strings.ToValidUTF8(string(data), "\uFFFD"), nil
}
