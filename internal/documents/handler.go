package documents

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"docsearch-backend/internal/extract"
	"docsearch-backend/internal/shared/server/respond"
	"docsearch-backend/internal/shared/telemetry"
)

const defaultMaxUploadBytes = 10 << 20 // 10MB

// Handler wires HTTP handlers to the pipeline and query service.
type Handler struct {
	Pipeline       *Pipeline
	Svc            *Service
	MaxUploadBytes int64
	// WaitTimeout bounds how long an upload request waits for its job; zero waits until done.
	WaitTimeout time.Duration
}

// NewHandler constructs a Handler.
func NewHandler(pipeline *Pipeline, svc *Service, maxUploadBytes int64, waitTimeout time.Duration) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{Pipeline: pipeline, Svc: svc, MaxUploadBytes: maxUploadBytes, WaitTimeout: waitTimeout}
}

// RegisterRoutes attaches document routes to the router group. Extra handlers
// (for example a rate limiter) run in front of the upload route only.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, uploadMiddleware ...gin.HandlerFunc) {
	rg.POST("/documents/upload", append(uploadMiddleware, h.upload)...)
	rg.GET("/documents/search", h.search)
	rg.GET("/documents", h.find)
	rg.GET("/documents/:id", h.get)
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "Maximum upload size exceeded.", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "File is required for ingestion/blank file.", nil)
		return
	}
	if fileHeader.Size == 0 {
		writeError(c, ErrEmptyFile)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		writeError(c, &extract.IOError{Filename: fileHeader.Filename, Err: err})
		return
	}

	ctx := WithRequestID(c.Request.Context(), c.GetString("requestId"))
	fut := h.Pipeline.Submit(ctx, IngestRequest{
		File:        file,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Author:      c.PostForm("author"),
	})

	waitCtx := ctx
	if h.WaitTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, h.WaitTimeout)
		defer cancel()
	}

	meta, err := fut.Wait(waitCtx)
	if err != nil {
		if waitCtx.Err() != nil && errors.Is(err, waitCtx.Err()) {
			telemetry.Warn("ingest.wait_abandoned", map[string]any{
				"filename":   fileHeader.Filename,
				"request_id": c.GetString("requestId"),
				"error":      err.Error(),
			})
			respond.Error(c, http.StatusGatewayTimeout, "ingest_timeout", "Document is still being processed.", nil)
			return
		}
		writeError(c, err)
		return
	}

	respond.JSON(c, http.StatusAccepted, meta)
}

func (h *Handler) search(c *gin.Context) {
	query := c.Query("query")
	if strings.TrimSpace(query) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "query must not be blank", nil)
		return
	}
	req, err := pageRequestFromQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}

	page, err := h.Svc.Search(c.Request.Context(), query, req)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, page)
}

func (h *Handler) find(c *gin.Context) {
	req, err := pageRequestFromQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}

	filter := Filter{
		Author:      c.Query("author"),
		ContentType: c.Query("contentType"),
	}
	rawDate := c.Query("uploadDateFrom")
	if strings.TrimSpace(rawDate) == "" {
		rawDate = c.Query("uploadTimestamp")
	}
	from, err := ParseDateFrom(rawDate)
	if err != nil {
		writeError(c, err)
		return
	}
	filter.UploadDateFrom = from

	page, err := h.Svc.Find(c.Request.Context(), filter, req)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, page)
}

func (h *Handler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "id must be an integer", nil)
		return
	}

	doc, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, NewDocumentResponse(doc))
}

// writeError maps a classified failure onto its status and error code.
func writeError(c *gin.Context, err error) {
	switch Classify(err) {
	case KindUnsupportedType:
		var unsupported *extract.UnsupportedTypeError
		errors.As(err, &unsupported)
		respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_media_type", unsupported.Error(), gin.H{
			"contentType":    unsupported.ContentType,
			"supportedTypes": unsupported.Supported,
		})
	case KindExtraction:
		respond.Error(c, http.StatusInternalServerError, "document_processing_error", "Failed to process document content: "+err.Error(), nil)
	case KindIO:
		respond.Error(c, http.StatusInternalServerError, "io_error", "Failed to read document file: "+err.Error(), nil)
	case KindNotFound:
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case KindValidation:
		respond.Error(c, http.StatusBadRequest, "validation_error", validationMessage(err), nil)
	case KindTooLarge:
		respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "Maximum upload size exceeded.", nil)
	case KindInternal, KindNone:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "An unexpected error occurred.", nil)
	}
}

func validationMessage(err error) string {
	if errors.Is(err, ErrEmptyFile) {
		return "File is required for ingestion/blank file."
	}
	return err.Error()
}

func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large")
}

func pageRequestFromQuery(c *gin.Context) (PageRequest, error) {
	var req PageRequest
	var err error
	if req.Page, err = intQuery(c, "page"); err != nil {
		return PageRequest{}, err
	}
	if req.Size, err = intQuery(c, "size"); err != nil {
		return PageRequest{}, err
	}
	if req.Sort, err = ParseSort(c.QueryArray("sort")); err != nil {
		return PageRequest{}, err
	}
	return req, nil
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidInput, key)
	}
	return v, nil
}
