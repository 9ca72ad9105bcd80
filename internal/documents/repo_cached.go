package documents

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedRepo serves GetByID from an LRU in front of another Repo. Records never
// change after Create, so cached entries never go stale.
type CachedRepo struct {
	Repo
	cache *lru.Cache[int64, Document]
}

// NewCachedRepo wraps next with an LRU of the given size.
func NewCachedRepo(next Repo, size int) (*CachedRepo, error) {
	cache, err := lru.New[int64, Document](size)
	if err != nil {
		return nil, err
	}
	return &CachedRepo{Repo: next, cache: cache}, nil
}

// Create stores through and warms the cache.
func (r *CachedRepo) Create(ctx context.Context, doc Document) (Document, error) {
	created, err := r.Repo.Create(ctx, doc)
	if err != nil {
		return Document{}, err
	}
	r.cache.Add(created.ID, created)
	return created, nil
}

// GetByID checks the cache before the wrapped repo.
func (r *CachedRepo) GetByID(ctx context.Context, id int64) (Document, error) {
	if doc, ok := r.cache.Get(id); ok {
		return doc, nil
	}
	doc, err := r.Repo.GetByID(ctx, id)
	if err != nil {
		return Document{}, err
	}
	r.cache.Add(id, doc)
	return doc, nil
}

// Len reports the number of cached documents.
func (r *CachedRepo) Len() int { return r.cache.Len() }

var _ Repo = (*CachedRepo)(nil)
