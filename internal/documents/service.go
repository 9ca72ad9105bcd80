package documents

import (
	"context"
	"fmt"
	"strings"
)

// Service answers keyword searches and metadata listings over the stored corpus.
type Service struct {
	Repo Repo
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// Search returns one page of documents containing keyword, each with a snippet.
// A zero Size selects DefaultSearchPageSize; no sort means oldest upload first.
func (s *Service) Search(ctx context.Context, keyword string, req PageRequest) (Page[SearchHit], error) {
	if strings.TrimSpace(keyword) == "" {
		return Page[SearchHit]{}, fmt.Errorf("%w: query must not be blank", ErrInvalidInput)
	}
	req = withPageDefaults(req, DefaultSearchPageSize, SortOrder{Field: "uploadTimestamp"})
	if err := req.Validate(); err != nil {
		return Page[SearchHit]{}, err
	}

	docs, total, err := s.Repo.SearchContent(ctx, keyword, req)
	if err != nil {
		return Page[SearchHit]{}, fmt.Errorf("search content: %w", err)
	}

	hits := make([]SearchHit, 0, len(docs))
	for _, d := range docs {
		hits = append(hits, SearchHit{
			DocumentID:      d.ID,
			Filename:        d.Filename,
			Snippet:         Snippet(d.Content, keyword),
			Author:          d.Author,
			UploadTimestamp: d.UploadTimestamp,
		})
	}
	return NewPage(hits, req, total), nil
}

// Find lists document metadata matching every non-empty filter field.
// A zero Size selects DefaultFindPageSize; no sort means newest upload first.
func (s *Service) Find(ctx context.Context, filter Filter, req PageRequest) (Page[DocumentMetadata], error) {
	req = withPageDefaults(req, DefaultFindPageSize, SortOrder{Field: "uploadTimestamp", Desc: true})
	if err := req.Validate(); err != nil {
		return Page[DocumentMetadata]{}, err
	}

	rows, total, err := s.Repo.Find(ctx, filter, req)
	if err != nil {
		return Page[DocumentMetadata]{}, fmt.Errorf("find documents: %w", err)
	}
	return NewPage(rows, req, total), nil
}

// Get returns a stored document with its content.
func (s *Service) Get(ctx context.Context, id int64) (Document, error) {
	if id <= 0 {
		return Document{}, fmt.Errorf("%w: id must be positive", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, id)
}

func withPageDefaults(req PageRequest, size int, sort SortOrder) PageRequest {
	if req.Size == 0 {
		req.Size = size
	}
	req.Sort = withDefaultSort(req.Sort, sort)
	return req
}
