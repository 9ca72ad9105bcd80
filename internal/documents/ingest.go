package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"docsearch-backend/internal/extract"
	"docsearch-backend/internal/queue"
	"docsearch-backend/internal/shared/metrics"
	"docsearch-backend/internal/shared/storage/object"
	"docsearch-backend/internal/shared/telemetry"
	"docsearch-backend/internal/shared/util"
	"docsearch-backend/internal/workerpool"
)

// Extractor turns an upload into text.
type Extractor interface {
	Extract(ctx context.Context, body io.Reader, fileName, contentType string) (extract.Result, error)
}

// IngestRequest is one uploaded file. The pipeline owns File and closes it.
type IngestRequest struct {
	File        io.ReadCloser
	Filename    string
	ContentType string
	Author      string
}

// Pipeline extracts an upload and stores the resulting document. Archive and
// Events are optional.
type Pipeline struct {
	Extractor Extractor
	Repo      Repo
	Pool      *workerpool.Pool
	Archive   object.ObjectStore
	Events    queue.Client
}

// Submit runs Ingest on the pool and returns a handle to its outcome.
func (p *Pipeline) Submit(ctx context.Context, req IngestRequest) *workerpool.Future[DocumentMetadata] {
	fut := workerpool.Submit(ctx, p.Pool, func(jobCtx context.Context) (DocumentMetadata, error) {
		return p.Ingest(jobCtx, req)
	})
	// A rejected job never runs, so nothing else will close the file.
	select {
	case <-fut.Done():
		if _, err := fut.Wait(ctx); errors.Is(err, workerpool.ErrClosed) && req.File != nil {
			_ = req.File.Close()
		}
	default:
	}
	return fut
}

// Ingest reads, extracts and stores one upload. Nothing is stored unless
// extraction succeeds.
func (p *Pipeline) Ingest(ctx context.Context, req IngestRequest) (DocumentMetadata, error) {
	if req.File == nil {
		return DocumentMetadata{}, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}
	defer req.File.Close()

	started := time.Now()
	filename := resolveFilename(req.Filename)
	fields := map[string]any{
		"filename":     filename,
		"content_type": req.ContentType,
		"request_id":   RequestIDFromContext(ctx),
	}
	metrics.IncIngestStarted()
	telemetry.Info("ingest.started", fields)

	// Keep the raw bytes only when something downstream needs them.
	var raw *bytes.Buffer
	var body io.Reader = req.File
	if p.Archive != nil || p.Events != nil {
		raw = &bytes.Buffer{}
		body = io.TeeReader(req.File, raw)
	}

	res, err := p.Extractor.Extract(ctx, body, filename, req.ContentType)
	if err != nil {
		return p.fail(started, fields, err)
	}

	content := res.Text
	if strings.TrimSpace(content) == "" {
		content = ""
		telemetry.Warn("ingest.empty_content", fields)
	}

	var storageKey string
	if p.Archive != nil {
		key, _, err := p.Archive.Save(ctx, filename, res.ContentType, bytes.NewReader(raw.Bytes()))
		if err != nil {
			return p.fail(started, fields, &extract.IOError{Filename: filename, Err: fmt.Errorf("archive upload: %w", err)})
		}
		storageKey = key
	}

	created, err := p.Repo.Create(ctx, Document{
		Filename:    filename,
		ContentType: res.ContentType,
		Author:      normalizeAuthor(req.Author),
		Content:     content,
		StorageKey:  storageKey,
	})
	if err != nil {
		if storageKey != "" {
			p.discardArchive(ctx, storageKey, fields)
		}
		return p.fail(started, fields, fmt.Errorf("store document: %w", err))
	}

	meta := created.Metadata()
	fields["document_id"] = meta.ID
	fields["content_type"] = meta.ContentType
	fields["duration_ms"] = time.Since(started).Milliseconds()
	metrics.IncIngestCompleted()
	metrics.ObserveIngestDuration(time.Since(started))
	telemetry.Info("ingest.completed", fields)

	if p.Events != nil {
		p.publish(ctx, created, raw.Bytes())
	}
	return meta, nil
}

func (p *Pipeline) fail(started time.Time, fields map[string]any, err error) (DocumentMetadata, error) {
	kind := Classify(err)
	fields["kind"] = kind.String()
	fields["error"] = err.Error()
	metrics.IncIngestFailed(kind.String())
	metrics.ObserveIngestDuration(time.Since(started))
	if kind == KindInternal || kind == KindIO {
		telemetry.Error("ingest.failed", fields)
	} else {
		telemetry.Warn("ingest.failed", fields)
	}
	return DocumentMetadata{}, err
}

// discardArchive removes an archived upload whose document was never stored.
func (p *Pipeline) discardArchive(ctx context.Context, storageKey string, fields map[string]any) {
	if err := p.Archive.Delete(context.WithoutCancel(ctx), storageKey); err != nil {
		telemetry.Warn("ingest.archive_orphaned", map[string]any{
			"filename":    fields["filename"],
			"storage_key": storageKey,
			"request_id":  fields["request_id"],
			"error":       err.Error(),
		})
	}
}

// publish reports a stored document downstream. Delivery failures are logged
// and counted; the document is already stored.
func (p *Pipeline) publish(ctx context.Context, doc Document, raw []byte) {
	msg := queue.Message{
		Type:        queue.EventDocumentIngested,
		DocumentID:  doc.ID,
		Filename:    doc.Filename,
		ContentType: doc.ContentType,
		StorageKey:  doc.StorageKey,
		Checksum:    util.Checksum(raw),
		RequestID:   RequestIDFromContext(ctx),
		EnqueuedAt:  time.Now().UTC().Format(time.RFC3339),
		Version:     queue.MessageVersion,
	}
	if err := p.Events.Send(ctx, msg); err != nil {
		metrics.IncEventPublishFailed()
		telemetry.Warn("ingest.event_failed", map[string]any{
			"document_id": doc.ID,
			"request_id":  msg.RequestID,
			"error":       err.Error(),
		})
	}
}

func resolveFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return UnknownFilename
	}
	return name
}

// normalizeAuthor maps blank input to nil and keeps anything else verbatim.
func normalizeAuthor(author string) *string {
	if strings.TrimSpace(author) == "" {
		return nil
	}
	return &author
}
