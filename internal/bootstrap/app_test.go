package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsearch-backend/internal/documents"
	"docsearch-backend/internal/shared/config"
	"docsearch-backend/internal/shared/storage/db"
)

func baseConfig() config.Config {
	return config.Config{
		Env:               "dev",
		AutoMigrate:       true,
		MaxUploadBytes:    1 << 20,
		IngestWorkers:     2,
		DocumentCacheSize: 16,
		ObjectStoreType:   config.StoreNone,
	}
}

func buildApp(t *testing.T, cfg config.Config) *App {
	t.Helper()
	app, err := Build(context.Background(), cfg, db.DefaultCLIOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	return app
}

func uploadText(t *testing.T, app *App, name, body string) *httptest.ResponseRecorder {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	header.Set("Content-Type", "text/plain")
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	return resp
}

func get(app *App, path string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
	return resp
}

func TestBuildInMemoryServesDocuments(t *testing.T) {
	app := buildApp(t, baseConfig())
	assert.Nil(t, app.DB)
	assert.Nil(t, app.Pipeline.Archive)
	assert.Nil(t, app.Pipeline.Events)

	resp := uploadText(t, app, "fox.txt", "The quick brown fox")
	require.Equal(t, http.StatusAccepted, resp.Code, resp.Body.String())
	assert.NotEmpty(t, resp.Header().Get("X-Request-Id"))

	resp = get(app, "/api/v1/documents/search?query=fox")
	require.Equal(t, http.StatusOK, resp.Code)
	var page documents.Page[documents.SearchHit]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	require.Len(t, page.Content, 1)
	assert.Equal(t, "fox.txt", page.Content[0].Filename)

	resp = get(app, "/api/v1/health")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"database":"memory"`)

	resp = get(app, "/metrics")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "ingest_completed_total")
}

func TestBuildSQLiteWithLocalArchive(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig()
	cfg.DatabaseURL = "sqlite::memory:"
	cfg.ObjectStoreType = config.StoreLocal
	cfg.LocalStoreDir = dir

	app := buildApp(t, cfg)
	require.NotNil(t, app.DB)
	assert.Equal(t, db.SQLite, app.Dialect)

	resp := uploadText(t, app, "notes.txt", "archived text")
	require.Equal(t, http.StatusAccepted, resp.Code, resp.Body.String())
	var meta documents.DocumentMetadata
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&meta))

	stored, err := app.Repo.GetByID(context.Background(), meta.ID)
	require.NoError(t, err)
	require.NotEmpty(t, stored.StorageKey)
	assert.True(t, strings.HasPrefix(stored.StorageKey, "uploads/"))

	raw, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(stored.StorageKey)))
	require.NoError(t, err)
	assert.Equal(t, "archived text", string(raw))

	resp = get(app, "/api/v1/health")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"dialect":"sqlite"`)
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := baseConfig()
	cfg.Env = "production"

	_, err := Build(context.Background(), cfg, db.DefaultServerOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := baseConfig()
	cfg.ObjectStoreType = config.StoreS3

	_, err := Build(context.Background(), cfg, db.DefaultServerOptions())
	require.Error(t, err)
}

func TestCloseRejectsLateUploads(t *testing.T) {
	app, err := Build(context.Background(), baseConfig(), db.DefaultCLIOptions())
	require.NoError(t, err)
	require.NoError(t, app.Close(context.Background()))

	resp := uploadText(t, app, "late.txt", "too late")
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}
