package documents

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsearch-backend/internal/extract"
	"docsearch-backend/internal/queue"
	"docsearch-backend/internal/shared/storage/object/local"
	"docsearch-backend/internal/workerpool"
)

type countingCreateRepo struct {
	Repo
	creates atomic.Int32
	err     error
}

func (r *countingCreateRepo) Create(ctx context.Context, doc Document) (Document, error) {
	r.creates.Add(1)
	if r.err != nil {
		return Document{}, r.err
	}
	return r.Repo.Create(ctx, doc)
}

type trackedFile struct {
	io.Reader
	closed atomic.Bool
}

func (f *trackedFile) Close() error {
	f.closed.Store(true)
	return nil
}

func newFile(s string) *trackedFile {
	return &trackedFile{Reader: strings.NewReader(s)}
}

func newTestPipeline(t *testing.T, repo Repo) *Pipeline {
	t.Helper()
	pool := workerpool.New(2)
	t.Cleanup(func() { _ = pool.Close(context.Background()) })
	return &Pipeline{Extractor: extract.NewRegistry(), Repo: repo, Pool: pool}
}

func TestPipelineStoresPlainText(t *testing.T) {
	repo := &countingCreateRepo{Repo: NewMemoryRepo()}
	p := newTestPipeline(t, repo)
	file := newFile("The quick brown fox")

	meta, err := p.Submit(context.Background(), IngestRequest{
		File:        file,
		Filename:    "fox.txt",
		ContentType: "text/plain",
		Author:      "  Ada  ",
	}).Wait(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), repo.creates.Load())
	assert.True(t, file.closed.Load())
	assert.Equal(t, "fox.txt", meta.Filename)
	assert.Equal(t, extract.MimeText, meta.ContentType)
	require.NotNil(t, meta.Author)
	assert.Equal(t, "  Ada  ", *meta.Author)

	stored, err := repo.GetByID(context.Background(), meta.ID)
	require.NoError(t, err)
	assert.Equal(t, "The quick brown fox", stored.Content)
	assert.Equal(t, meta.UploadTimestamp, stored.UploadTimestamp)
}

func TestPipelineRejectsUnsupportedTypeWithoutStoring(t *testing.T) {
	repo := &countingCreateRepo{Repo: NewMemoryRepo()}
	p := newTestPipeline(t, repo)
	file := newFile(`{"a":1}`)

	_, err := p.Submit(context.Background(), IngestRequest{
		File:        file,
		Filename:    "data.json",
		ContentType: "application/json",
	}).Wait(context.Background())

	var unsupported *extract.UnsupportedTypeError
	require.True(t, errors.As(err, &unsupported))
	assert.Len(t, unsupported.Supported, 3)
	assert.Equal(t, KindUnsupportedType, Classify(err))
	assert.Equal(t, int32(0), repo.creates.Load())
	assert.True(t, file.closed.Load())
}

func TestPipelineExtractionFailureStoresNothing(t *testing.T) {
	repo := &countingCreateRepo{Repo: NewMemoryRepo()}
	p := newTestPipeline(t, repo)

	_, err := p.Ingest(context.Background(), IngestRequest{
		File:        newFile("not a pdf"),
		Filename:    "broken.pdf",
		ContentType: "application/pdf",
	})
	assert.Equal(t, KindExtraction, Classify(err))
	assert.Equal(t, int32(0), repo.creates.Load())
}

func TestPipelineDefaultsFilenameAndBlankAuthor(t *testing.T) {
	repo := &countingCreateRepo{Repo: NewMemoryRepo()}
	p := newTestPipeline(t, repo)

	meta, err := p.Ingest(context.Background(), IngestRequest{
		File:        newFile("   \n\t"),
		Filename:    " ",
		ContentType: "text/plain; charset=utf-8",
		Author:      "   ",
	})
	require.NoError(t, err)
	assert.Equal(t, UnknownFilename, meta.Filename)
	assert.Nil(t, meta.Author)

	stored, err := repo.GetByID(context.Background(), meta.ID)
	require.NoError(t, err)
	assert.Equal(t, "", stored.Content)
}

func TestPipelineSurfacesStoreFailure(t *testing.T) {
	boom := errors.New("disk full")
	repo := &countingCreateRepo{Repo: NewMemoryRepo(), err: boom}
	p := newTestPipeline(t, repo)

	_, err := p.Ingest(context.Background(), IngestRequest{File: newFile("x"), Filename: "a.txt", ContentType: "text/plain"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, KindInternal, Classify(err))
}

func TestPipelineArchivesAndPublishes(t *testing.T) {
	repo := &countingCreateRepo{Repo: NewMemoryRepo()}
	p := newTestPipeline(t, repo)
	store := local.New(t.TempDir())
	events := &queue.MemoryClient{}
	p.Archive = store
	p.Events = events

	ctx := WithRequestID(context.Background(), "req-1")
	meta, err := p.Submit(ctx, IngestRequest{File: newFile("archived body"), Filename: "keep.txt", ContentType: "text/plain"}).Wait(ctx)
	require.NoError(t, err)

	stored, err := repo.GetByID(context.Background(), meta.ID)
	require.NoError(t, err)
	require.NotEmpty(t, stored.StorageKey)

	rc, err := store.Open(context.Background(), stored.StorageKey)
	require.NoError(t, err)
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "archived body", string(raw))

	msgs := events.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, queue.EventDocumentIngested, msgs[0].Type)
	assert.Equal(t, meta.ID, msgs[0].DocumentID)
	assert.Equal(t, stored.StorageKey, msgs[0].StorageKey)
	assert.Equal(t, "req-1", msgs[0].RequestID)
	assert.Len(t, msgs[0].Checksum, 64)
}

func TestPipelineArchivesDottedFilename(t *testing.T) {
	repo := &countingCreateRepo{Repo: NewMemoryRepo()}
	p := newTestPipeline(t, repo)
	p.Archive = local.New(t.TempDir())

	meta, err := p.Ingest(context.Background(), IngestRequest{File: newFile("release notes"), Filename: "v1..2-notes.txt", ContentType: "text/plain"})
	require.NoError(t, err)
	assert.Equal(t, "v1..2-notes.txt", meta.Filename)
	assert.Equal(t, int32(1), repo.creates.Load())

	stored, err := repo.GetByID(context.Background(), meta.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(stored.StorageKey, "_v1..2-notes.txt"), stored.StorageKey)
}

func TestPipelineStoreFailureRemovesArchivedUpload(t *testing.T) {
	boom := errors.New("disk full")
	repo := &countingCreateRepo{Repo: NewMemoryRepo(), err: boom}
	p := newTestPipeline(t, repo)
	dir := t.TempDir()
	p.Archive = local.New(dir)

	_, err := p.Ingest(context.Background(), IngestRequest{File: newFile("x"), Filename: "a.txt", ContentType: "text/plain"})
	require.ErrorIs(t, err, boom)

	var files []string
	require.NoError(t, filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	}))
	assert.Empty(t, files)
}

func TestPipelinePublishFailureDoesNotFailIngest(t *testing.T) {
	repo := &countingCreateRepo{Repo: NewMemoryRepo()}
	p := newTestPipeline(t, repo)
	p.Events = &queue.MemoryClient{Err: errors.New("queue down")}

	_, err := p.Ingest(context.Background(), IngestRequest{File: newFile("x"), Filename: "a.txt", ContentType: "text/plain"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), repo.creates.Load())
}

func TestPipelineClosedPoolClosesFile(t *testing.T) {
	repo := &countingCreateRepo{Repo: NewMemoryRepo()}
	pool := workerpool.New(1)
	require.NoError(t, pool.Close(context.Background()))
	p := &Pipeline{Extractor: extract.NewRegistry(), Repo: repo, Pool: pool}
	file := newFile("x")

	_, err := p.Submit(context.Background(), IngestRequest{File: file, Filename: "a.txt", ContentType: "text/plain"}).Wait(context.Background())
	assert.ErrorIs(t, err, workerpool.ErrClosed)
	assert.True(t, file.closed.Load())
	assert.Equal(t, int32(0), repo.creates.Load())
}

func TestPipelineConcurrentIngestsGetDistinctIDs(t *testing.T) {
	repo := &countingCreateRepo{Repo: NewMemoryRepo()}
	p := newTestPipeline(t, repo)

	futures := make([]*workerpool.Future[DocumentMetadata], 0, 20)
	for i := 0; i < 20; i++ {
		futures = append(futures, p.Submit(context.Background(), IngestRequest{
			File:        newFile("same content"),
			Filename:    "same.txt",
			ContentType: "text/plain",
		}))
	}
	seen := map[int64]bool{}
	for _, f := range futures {
		meta, err := f.Wait(context.Background())
		require.NoError(t, err)
		assert.False(t, seen[meta.ID], "duplicate id %d", meta.ID)
		seen[meta.ID] = true
	}
	assert.Equal(t, int32(20), repo.creates.Load())
}
