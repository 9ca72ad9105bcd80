package documents

import (
	"errors"
	"net/http"

	"docsearch-backend/internal/extract"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrEmptyFile    = errors.New("uploaded file is empty")
)

// ErrorKind classifies ingestion and query failures for the HTTP and CLI boundaries.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindUnsupportedType
	KindExtraction
	KindIO
	KindNotFound
	KindValidation
	KindTooLarge
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindUnsupportedType:
		return "unsupported_type"
	case KindExtraction:
		return "extraction"
	case KindIO:
		return "io"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindTooLarge:
		return "too_large"
	default:
		return "internal"
	}
}

// Classify maps an error onto its ErrorKind. Unrecognized errors are internal.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var unsupported *extract.UnsupportedTypeError
	var extraction *extract.ExtractionError
	var ioErr *extract.IOError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &unsupported):
		return KindUnsupportedType
	case errors.As(err, &extraction):
		return KindExtraction
	case errors.As(err, &tooLarge):
		return KindTooLarge
	case errors.As(err, &ioErr):
		return KindIO
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrEmptyFile):
		return KindValidation
	default:
		return KindInternal
	}
}
