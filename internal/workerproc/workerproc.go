package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"docsearch-backend/internal/documents"
	"docsearch-backend/internal/queue"
	"docsearch-backend/internal/shared/storage/object"
	"docsearch-backend/internal/shared/util"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrInvalidEvent indicates a decoded message that is not a usable ingestion event.
type ErrInvalidEvent struct {
	Meta      MessageMeta
	RequestID string
	Reason    string
}

func (e ErrInvalidEvent) Error() string { return "invalid event: " + e.Reason }

// ErrMismatch indicates the stored document disagrees with its event.
type ErrMismatch struct {
	DocumentID int64
	Reason     string
}

func (e ErrMismatch) Error() string {
	return fmt.Sprintf("document %d mismatch: %s", e.DocumentID, e.Reason)
}

// ErrProcess indicates a retryable failure after successful parsing.
type ErrProcess struct {
	DocumentID int64
	RequestID  string
	Err        error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "verify document"
	}
	return "verify document: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// Retryable reports whether a message that failed with err should stay on the queue.
func Retryable(err error) bool {
	var proc ErrProcess
	return errors.As(err, &proc)
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if msg.Type != queue.EventDocumentIngested {
		return msg, meta, ErrInvalidEvent{Meta: meta, RequestID: msg.RequestID, Reason: fmt.Sprintf("unexpected type %q", msg.Type)}
	}
	if msg.DocumentID <= 0 {
		return msg, meta, ErrInvalidEvent{Meta: meta, RequestID: msg.RequestID, Reason: "missing document id"}
	}
	return msg, meta, nil
}

// Verifier checks an ingestion event against the stored document and its
// archived upload. Archive may be nil, which skips the checksum comparison.
type Verifier struct {
	Repo    documents.Repo
	Archive object.ObjectStore
}

// Verify confirms the document exists with the event's metadata and that the
// archived bytes still hash to the published checksum.
func (v *Verifier) Verify(ctx context.Context, msg queue.Message) error {
	doc, err := v.Repo.GetByID(ctx, msg.DocumentID)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return ErrMismatch{DocumentID: msg.DocumentID, Reason: "document not stored"}
		}
		return ErrProcess{DocumentID: msg.DocumentID, RequestID: msg.RequestID, Err: err}
	}
	if doc.Filename != msg.Filename || doc.StorageKey != msg.StorageKey {
		return ErrMismatch{DocumentID: msg.DocumentID, Reason: "metadata differs from event"}
	}
	if v.Archive == nil || msg.StorageKey == "" {
		return nil
	}

	rc, err := v.Archive.Open(ctx, msg.StorageKey)
	if err != nil {
		return ErrProcess{DocumentID: msg.DocumentID, RequestID: msg.RequestID, Err: fmt.Errorf("open archive: %w", err)}
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return ErrProcess{DocumentID: msg.DocumentID, RequestID: msg.RequestID, Err: fmt.Errorf("read archive: %w", err)}
	}
	if sum := util.Checksum(raw); sum != msg.Checksum {
		return ErrMismatch{DocumentID: msg.DocumentID, Reason: "archive checksum " + sum + " != " + msg.Checksum}
	}
	return nil
}

// HandleMessage parses and verifies a message payload.
func HandleMessage(ctx context.Context, v *Verifier, body string) error {
	if v == nil || v.Repo == nil {
		return errors.New("verifier not configured")
	}
	msg, _, err := ParseMessage(body)
	if err != nil {
		return err
	}
	return v.Verify(documents.WithRequestID(ctx, msg.RequestID), msg)
}
