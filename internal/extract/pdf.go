package extract

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"docsearch-backend/internal/shared/telemetry"
)

// extractPDF concatenates page text in document order.
// Encrypted documents are still attempted; only a decode failure is an error.
func extractPDF(ctx context.Context, fileName string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty pdf data")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	encrypted := !pdfReader.Trailer().Key("Encrypt").IsNull()
	if encrypted {
		telemetry.Warn("extract.pdf.encrypted", map[string]any{
			"file_name": fileName,
			"pages":     pdfReader.NumPage(),
		})
	}

	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}

	text := buf.String()
	if encrypted && strings.TrimSpace(text) == "" {
		telemetry.Warn("extract.pdf.degraded", map[string]any{"file_name": fileName})
	}
	return text, nil
}
