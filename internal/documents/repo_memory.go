package documents

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu     sync.RWMutex
	docs   []Document
	nextID int64
	now    func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{nextID: 1, now: time.Now}
}

// Create stores a document under the next id.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	doc.ID = r.nextID
	r.nextID++
	doc.UploadTimestamp = r.now().UTC()
	if doc.Author != nil {
		author := *doc.Author
		doc.Author = &author
	}
	r.docs = append(r.docs, doc)
	return doc, nil
}

// GetByID returns a document by id.
func (r *MemoryRepo) GetByID(ctx context.Context, id int64) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.docs {
		if r.docs[i].ID == id {
			return r.docs[i], nil
		}
	}
	return Document{}, ErrNotFound
}

// SearchContent scans every stored document for the keyword.
func (r *MemoryRepo) SearchContent(ctx context.Context, keyword string, req PageRequest) ([]Document, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	needle := strings.ToLower(keyword)
	matches := r.collect(func(d Document) bool {
		return strings.Contains(strings.ToLower(d.Content), needle)
	})
	sortDocuments(matches, withDefaultSort(req.Sort, SortOrder{Field: "id"}))
	return slicePage(matches, req), int64(len(matches)), nil
}

// Find filters stored documents conjunctively.
func (r *MemoryRepo) Find(ctx context.Context, filter Filter, req PageRequest) ([]DocumentMetadata, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	author := strings.ToLower(strings.TrimSpace(filter.Author))
	contentType := strings.TrimSpace(filter.ContentType)
	matches := r.collect(func(d Document) bool {
		if author != "" && (d.Author == nil || !strings.Contains(strings.ToLower(*d.Author), author)) {
			return false
		}
		if contentType != "" && !strings.EqualFold(d.ContentType, contentType) {
			return false
		}
		if filter.UploadDateFrom != nil && d.UploadTimestamp.Before(*filter.UploadDateFrom) {
			return false
		}
		return true
	})
	sortDocuments(matches, withDefaultSort(req.Sort, SortOrder{Field: "id"}))

	rows := slicePage(matches, req)
	out := make([]DocumentMetadata, 0, len(rows))
	for _, d := range rows {
		out = append(out, d.Metadata())
	}
	return out, int64(len(matches)), nil
}

func (r *MemoryRepo) collect(keep func(Document) bool) []Document {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Document
	for _, d := range r.docs {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

func slicePage(docs []Document, req PageRequest) []Document {
	offset := req.Offset()
	if offset < 0 || offset >= len(docs) {
		return []Document{}
	}
	end := len(docs)
	if req.Size > 0 && offset+req.Size < end {
		end = offset + req.Size
	}
	return docs[offset:end]
}

func sortDocuments(docs []Document, orders []SortOrder) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, o := range orders {
			c := compareField(docs[i], docs[j], o.Field)
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// compareField orders a missing author like an empty one, matching the SQL stores.
func compareField(a, b Document, field string) int {
	switch field {
	case "id":
		return compareInt64(a.ID, b.ID)
	case "filename":
		return strings.Compare(a.Filename, b.Filename)
	case "contentType":
		return strings.Compare(a.ContentType, b.ContentType)
	case "author":
		return strings.Compare(derefString(a.Author), derefString(b.Author))
	case "uploadTimestamp":
		return a.UploadTimestamp.Compare(b.UploadTimestamp)
	default:
		return 0
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ Repo = (*MemoryRepo)(nil)
