package documents

import "time"

// UnknownFilename is recorded when an upload carries no usable name.
const UnknownFilename = "unknown_file"

// Document is a stored upload together with its extracted text.
// Records are created once and never updated.
type Document struct {
	ID              int64
	Filename        string
	ContentType     string
	Author          *string
	Content         string
	UploadTimestamp time.Time
	// StorageKey points at the archived raw upload when an object store is configured.
	StorageKey string
}

// DocumentMetadata is a Document without its content.
type DocumentMetadata struct {
	ID              int64     `json:"id"`
	Filename        string    `json:"filename"`
	ContentType     string    `json:"contentType"`
	Author          *string   `json:"author"`
	UploadTimestamp time.Time `json:"uploadTimestamp"`
}

// SearchHit is one keyword search result.
type SearchHit struct {
	DocumentID      int64     `json:"documentId"`
	Filename        string    `json:"filename"`
	Snippet         string    `json:"snippet"`
	Author          *string   `json:"author"`
	UploadTimestamp time.Time `json:"uploadTimestamp"`
}

// Filter narrows a metadata listing. Zero-valued fields match everything.
type Filter struct {
	Author         string
	ContentType    string
	UploadDateFrom *time.Time
}

// Metadata strips the content from a document.
func (d Document) Metadata() DocumentMetadata {
	return DocumentMetadata{
		ID:              d.ID,
		Filename:        d.Filename,
		ContentType:     d.ContentType,
		Author:          d.Author,
		UploadTimestamp: d.UploadTimestamp,
	}
}
