package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"docsearch-backend/internal/bootstrap"
	"docsearch-backend/internal/documents"
	"docsearch-backend/internal/shared/config"
	"docsearch-backend/internal/shared/storage/db"
)

// deps lets tests swap configuration loading.
type deps struct {
	loadConfig func() (config.Config, error)
}

func defaultDeps() deps {
	return deps{loadConfig: config.Load}
}

type rootOptions struct {
	databaseURL string
	workers     int
}

func newRootCmd(d deps) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "docctl",
		Short:         "Ingest and query documents from the command line",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.databaseURL, "database-url", "", "database URL (overrides DATABASE_URL)")
	root.PersistentFlags().IntVar(&opts.workers, "workers", 0, "concurrent ingestions (overrides INGEST_WORKERS)")

	open := func(ctx context.Context) (*bootstrap.App, error) {
		cfg, err := d.loadConfig()
		if err != nil {
			return nil, err
		}
		if opts.databaseURL != "" {
			cfg.DatabaseURL = opts.databaseURL
		}
		if opts.workers > 0 {
			cfg.IngestWorkers = opts.workers
		}
		return bootstrap.Build(ctx, cfg, db.DefaultCLIOptions())
	}

	root.AddCommand(
		newIngestCmd(open),
		newSearchCmd(open),
		newFindCmd(open),
		newGetCmd(open),
	)
	return root
}

type openFunc func(ctx context.Context) (*bootstrap.App, error)

// withApp builds the app for one command run and always releases it.
func withApp(cmd *cobra.Command, open openFunc, fn func(ctx context.Context, app *bootstrap.App) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(context.Background()); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(ctx, app)
}

type pageFlags struct {
	page int
	size int
	sort []string
}

func (p *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.page, "page", 0, "zero-based page number")
	cmd.Flags().IntVar(&p.size, "size", 0, "page size")
	cmd.Flags().StringArrayVar(&p.sort, "sort", nil, "sort order as field[,asc|desc]; repeatable")
}

func (p *pageFlags) request() (documents.PageRequest, error) {
	orders, err := documents.ParseSort(p.sort)
	if err != nil {
		return documents.PageRequest{}, err
	}
	return documents.PageRequest{Page: p.page, Size: p.size, Sort: orders}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func describe(err error) string {
	kind := documents.Classify(err)
	return fmt.Sprintf("%s: %s", strings.ReplaceAll(kind.String(), "_", " "), err.Error())
}
