package documents

import "time"

// DocumentResponse is the outward-facing representation of a stored document.
type DocumentResponse struct {
	ID              int64     `json:"id"`
	Filename        string    `json:"filename"`
	ContentType     string    `json:"contentType"`
	Author          *string   `json:"author"`
	UploadTimestamp time.Time `json:"uploadTimestamp"`
	Content         string    `json:"content"`
}

// NewDocumentResponse converts a stored document for output.
func NewDocumentResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		ID:              doc.ID,
		Filename:        doc.Filename,
		ContentType:     doc.ContentType,
		Author:          doc.Author,
		UploadTimestamp: doc.UploadTimestamp,
		Content:         doc.Content,
	}
}
