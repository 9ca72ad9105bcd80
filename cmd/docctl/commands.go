package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"docsearch-backend/internal/bootstrap"
	"docsearch-backend/internal/documents"
	"docsearch-backend/internal/extract"
	"docsearch-backend/internal/workerpool"
)

var extensionTypes = map[string]string{
	".pdf":  extract.MimePDF,
	".docx": extract.MimeDOCX,
	".txt":  extract.MimeText,
	".text": extract.MimeText,
	".md":   extract.MimeText,
}

func contentTypeFor(path string) string {
	return extensionTypes[strings.ToLower(filepath.Ext(path))]
}

type ingestResult struct {
	File     string                      `json:"file"`
	Document *documents.DocumentMetadata `json:"document,omitempty"`
	Error    string                      `json:"error,omitempty"`
}

func newIngestCmd(open openFunc) *cobra.Command {
	var author, contentType string
	cmd := &cobra.Command{
		Use:   "ingest FILE...",
		Short: "Extract and store one or more files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, app *bootstrap.App) error {
				futures := make([]*workerpool.Future[documents.DocumentMetadata], len(args))
				results := make([]ingestResult, len(args))
				for i, path := range args {
					results[i].File = path
					f, err := os.Open(path)
					if err != nil {
						results[i].Error = err.Error()
						continue
					}
					ct := contentType
					if ct == "" {
						ct = contentTypeFor(path)
					}
					futures[i] = app.Pipeline.Submit(ctx, documents.IngestRequest{
						File:        f,
						Filename:    filepath.Base(path),
						ContentType: ct,
						Author:      author,
					})
				}

				failed := 0
				for i, fut := range futures {
					if fut == nil {
						failed++
						continue
					}
					meta, err := fut.Wait(ctx)
					if err != nil {
						failed++
						results[i].Error = describe(err)
						continue
					}
					results[i].Document = &meta
				}

				if err := writeJSON(cmd.OutOrStdout(), results); err != nil {
					return err
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d files failed", failed, len(args))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&author, "author", "", "author recorded for every file")
	cmd.Flags().StringVar(&contentType, "content-type", "", "content type for every file (default: from extension)")
	return cmd
}

func newSearchCmd(open openFunc) *cobra.Command {
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "search KEYWORD",
		Short: "Search document content for a keyword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := pf.request()
			if err != nil {
				return err
			}
			return withApp(cmd, open, func(ctx context.Context, app *bootstrap.App) error {
				page, err := app.Service.Search(ctx, args[0], req)
				if err != nil {
					return errors.New(describe(err))
				}
				return writeJSON(cmd.OutOrStdout(), page)
			})
		},
	}
	pf.register(cmd)
	return cmd
}

func newFindCmd(open openFunc) *cobra.Command {
	var pf pageFlags
	var author, contentType, from string
	cmd := &cobra.Command{
		Use:   "find",
		Short: "List document metadata matching the given filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := pf.request()
			if err != nil {
				return err
			}
			since, err := documents.ParseDateFrom(from)
			if err != nil {
				return err
			}
			filter := documents.Filter{Author: author, ContentType: contentType, UploadDateFrom: since}
			return withApp(cmd, open, func(ctx context.Context, app *bootstrap.App) error {
				page, err := app.Service.Find(ctx, filter, req)
				if err != nil {
					return errors.New(describe(err))
				}
				return writeJSON(cmd.OutOrStdout(), page)
			})
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&author, "author", "", "author substring, case-insensitive")
	cmd.Flags().StringVar(&contentType, "content-type", "", "exact content type, case-insensitive")
	cmd.Flags().StringVar(&from, "from", "", "uploaded on or after (YYYY-MM-DD or RFC3339)")
	return cmd
}

func newGetCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Print one stored document with its content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("id must be an integer: %w", err)
			}
			return withApp(cmd, open, func(ctx context.Context, app *bootstrap.App) error {
				doc, err := app.Service.Get(ctx, id)
				if err != nil {
					return errors.New(describe(err))
				}
				return writeJSON(cmd.OutOrStdout(), documents.NewDocumentResponse(doc))
			})
		},
	}
}
