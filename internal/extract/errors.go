package extract

import (
	"fmt"
	"strings"
)

// missingContentType is reported when the upload carried no content type.
const missingContentType = "Unknown/Missing"

// UnsupportedTypeError indicates the declared content type has no extraction strategy.
type UnsupportedTypeError struct {
	Filename    string
	ContentType string
	Supported   []string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("File '%s' has unsupported content type '%s'. Supported types are: %s",
		e.Filename, e.ContentType, strings.Join(e.Supported, ", "))
}

// ExtractionError indicates the payload was read but could not be decoded.
type ExtractionError struct {
	Filename    string
	ContentType string
	Err         error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("extraction error for file '%s' (type: %s)", e.Filename, e.ContentType)
	}
	return fmt.Sprintf("extraction error for file '%s' (type: %s): %v", e.Filename, e.ContentType, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// IOError indicates the underlying byte stream could not be read or written.
type IOError struct {
	Filename string
	Err      error
}

func (e *IOError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("io error for file '%s'", e.Filename)
	}
	return fmt.Sprintf("io error for file '%s': %v", e.Filename, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
