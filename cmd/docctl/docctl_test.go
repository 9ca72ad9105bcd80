package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsearch-backend/internal/documents"
	"docsearch-backend/internal/shared/config"
)

func testDeps(dbURL string) deps {
	return deps{loadConfig: func() (config.Config, error) {
		return config.Config{
			Env:             "dev",
			DatabaseURL:     dbURL,
			AutoMigrate:     true,
			MaxUploadBytes:  1 << 20,
			IngestWorkers:   2,
			ObjectStoreType: config.StoreNone,
		}, nil
	}}
}

func run(t *testing.T, d deps, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(d)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestIngestThenQueryAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	d := testDeps("sqlite:" + filepath.Join(dir, "docs.db"))

	fox := writeFile(t, dir, "fox.txt", "The quick brown fox jumps over the lazy dog")
	cat := writeFile(t, dir, "cat.md", "A cat sat on the mat")

	out, err := run(t, d, "ingest", "--author", "Ada", fox, cat)
	require.NoError(t, err)
	var results []ingestResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	for _, r := range results {
		require.Empty(t, r.Error)
		require.NotNil(t, r.Document)
		assert.Equal(t, "text/plain", r.Document.ContentType)
	}

	out, err = run(t, d, "search", "FOX")
	require.NoError(t, err)
	var hits documents.Page[documents.SearchHit]
	require.NoError(t, json.Unmarshal([]byte(out), &hits))
	require.Len(t, hits.Content, 1)
	assert.Equal(t, "fox.txt", hits.Content[0].Filename)
	assert.Contains(t, hits.Content[0].Snippet, "fox")

	out, err = run(t, d, "find", "--author", "ada", "--sort", "filename,asc")
	require.NoError(t, err)
	var listed documents.Page[documents.DocumentMetadata]
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	assert.Equal(t, int64(2), listed.TotalElements)
	assert.Equal(t, "cat.md", listed.Content[0].Filename)

	out, err = run(t, d, "get", "1")
	require.NoError(t, err)
	var doc documents.DocumentResponse
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.NotEmpty(t, doc.Content)
}

func TestIngestReportsUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	d := testDeps("")
	data := writeFile(t, dir, "data.json", `{"a":1}`)

	out, err := run(t, d, "ingest", data, filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 2 files failed")

	var results []ingestResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.True(t, strings.HasPrefix(results[0].Error, "unsupported type: "))
	assert.NotEmpty(t, results[1].Error)
}

func TestQueryValidation(t *testing.T) {
	d := testDeps("")

	_, err := run(t, d, "search", " ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")

	_, err = run(t, d, "find", "--sort", "content")
	require.Error(t, err)

	_, err = run(t, d, "find", "--from", "yesterday")
	require.Error(t, err)

	_, err = run(t, d, "get", "abc")
	require.Error(t, err)

	_, err = run(t, d, "get", "42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "application/pdf", contentTypeFor("a/B.PDF"))
	assert.Equal(t, "text/plain", contentTypeFor("notes.txt"))
	assert.Equal(t, "", contentTypeFor("archive.zip"))
}
