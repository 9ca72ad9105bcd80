package extract

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"docsearch-backend/internal/shared/telemetry"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeText = "text/plain"
)

// Strategy turns a fully read payload into plain text.
type Strategy func(ctx context.Context, fileName string, data []byte) (string, error)

// Result is the outcome of a successful extraction.
type Result struct {
	Text        string
	ContentType string
}

// Registry maps normalized content types to extraction strategies.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
	order      []string
}

// NewRegistry returns a registry with the PDF, DOCX and plain text strategies registered.
func NewRegistry() *Registry {
	r := &Registry{strategies: make(map[string]Strategy)}
	r.Register(MimePDF, extractPDF)
	r.Register(MimeDOCX, extractDOCX)
	r.Register(MimeText, extractText)
	return r
}

// Register adds or replaces the strategy for a content type.
func (r *Registry) Register(contentType string, s Strategy) {
	key := Normalize(contentType)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.strategies[key]; !ok {
		r.order = append(r.order, key)
	}
	r.strategies[key] = s
}

// Supported lists the registered content types in registration order.
func (r *Registry) Supported() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Extract validates the content type, reads the payload and runs the matching strategy.
// The payload is not touched when the content type is rejected.
func (r *Registry) Extract(ctx context.Context, body io.Reader, fileName string, contentType string) (Result, error) {
	if strings.TrimSpace(contentType) == "" {
		telemetry.Warn("extract.missing_content_type", map[string]any{"file_name": fileName})
		return Result{}, &UnsupportedTypeError{Filename: fileName, ContentType: missingContentType, Supported: r.Supported()}
	}

	normalized := Normalize(contentType)
	r.mu.RLock()
	strategy, ok := r.strategies[normalized]
	r.mu.RUnlock()
	if !ok {
		telemetry.Warn("extract.unsupported_type", map[string]any{"file_name": fileName, "content_type": contentType})
		return Result{}, &UnsupportedTypeError{Filename: fileName, ContentType: contentType, Supported: r.Supported()}
	}

	if err := ctx.Err(); err != nil {
		return Result{}, &IOError{Filename: fileName, Err: err}
	}

	data, err := io.ReadAll(body)
	if err != nil {
		telemetry.Error("extract.read_failed", map[string]any{"file_name": fileName, "error": err.Error()})
		return Result{}, &IOError{Filename: fileName, Err: err}
	}

	text, err := run(ctx, strategy, fileName, data)
	if err != nil {
		telemetry.Error("extract.failed", map[string]any{
			"file_name":    fileName,
			"content_type": normalized,
			"error":        err.Error(),
		})
		return Result{}, &ExtractionError{Filename: fileName, ContentType: contentType, Err: err}
	}

	return Result{Text: text, ContentType: normalized}, nil
}

// run invokes the strategy and turns a decoder panic into an error.
func run(ctx context.Context, s Strategy, fileName string, data []byte) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("decoder panic: %v", rec)
		}
	}()
	return s(ctx, fileName, data)
}

// Normalize strips media type parameters and folds case.
func Normalize(contentType string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
}
