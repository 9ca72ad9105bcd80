package documents

import "context"

// Repo persists documents and answers the two paged queries.
// Implementations assign ID and UploadTimestamp on Create.
type Repo interface {
	Create(ctx context.Context, doc Document) (Document, error)
	GetByID(ctx context.Context, id int64) (Document, error)
	// SearchContent returns the requested page of documents whose content contains
	// keyword case-insensitively, plus the total number of matches.
	SearchContent(ctx context.Context, keyword string, req PageRequest) ([]Document, int64, error)
	// Find returns the requested page of documents matching every non-empty filter field.
	Find(ctx context.Context, filter Filter, req PageRequest) ([]DocumentMetadata, int64, error)
}
