package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"docsearch-backend/internal/shared/storage/db"
)

// sqliteTimeLayout is fixed width so that text comparison matches time order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

const documentColumns = "id, filename, content_type, author, content, upload_timestamp, storage_key"

const metadataColumns = "id, filename, content_type, author, upload_timestamp"

// SQLRepo implements Repo on Postgres or SQLite.
type SQLRepo struct {
	DB      *sql.DB
	Dialect db.Dialect
	now     func() time.Time
}

// NewSQLRepo constructs a SQLRepo for the given dialect.
func NewSQLRepo(database *sql.DB, dialect db.Dialect) *SQLRepo {
	return &SQLRepo{DB: database, Dialect: dialect, now: time.Now}
}

// Create inserts the document in a single transaction and returns it with its id
// and upload timestamp.
func (r *SQLRepo) Create(ctx context.Context, doc Document) (Document, error) {
	doc.UploadTimestamp = r.clock().UTC()

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Document{}, fmt.Errorf("begin create: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := r.rebind(`
INSERT INTO documents (filename, content_type, author, content, upload_timestamp, storage_key)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id`)

	var storageKey sql.NullString
	if doc.StorageKey != "" {
		storageKey = sql.NullString{String: doc.StorageKey, Valid: true}
	}
	if err := tx.QueryRowContext(
		ctx,
		query,
		doc.Filename,
		doc.ContentType,
		nullableString(doc.Author),
		doc.Content,
		r.timeArg(doc.UploadTimestamp),
		storageKey,
	).Scan(&doc.ID); err != nil {
		return Document{}, fmt.Errorf("insert document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Document{}, fmt.Errorf("commit create: %w", err)
	}
	return doc, nil
}

// GetByID fetches a document by id.
func (r *SQLRepo) GetByID(ctx context.Context, id int64) (Document, error) {
	query := r.rebind("SELECT " + documentColumns + " FROM documents WHERE id = ?")
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// SearchContent runs a case-insensitive LIKE over content.
func (r *SQLRepo) SearchContent(ctx context.Context, keyword string, req PageRequest) ([]Document, int64, error) {
	where := `LOWER(content) LIKE ? ESCAPE '\'`
	args := []any{"%" + escapeLike(strings.ToLower(keyword)) + "%"}

	total, err := r.count(ctx, where, args)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []Document{}, 0, nil
	}

	query := r.rebind("SELECT " + documentColumns + " FROM documents WHERE " + where +
		orderBy(req.Sort) + " LIMIT ? OFFSET ?")
	rows, err := r.DB.QueryContext(ctx, query, append(args, req.Size, req.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("search documents: %w", err)
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, doc)
	}
	return out, total, rows.Err()
}

// Find composes the non-empty filter fields with AND.
func (r *SQLRepo) Find(ctx context.Context, filter Filter, req PageRequest) ([]DocumentMetadata, int64, error) {
	var clauses []string
	var args []any
	if author := strings.TrimSpace(filter.Author); author != "" {
		clauses = append(clauses, `LOWER(author) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(author))+"%")
	}
	if contentType := strings.TrimSpace(filter.ContentType); contentType != "" {
		clauses = append(clauses, "LOWER(content_type) = ?")
		args = append(args, strings.ToLower(contentType))
	}
	if filter.UploadDateFrom != nil {
		clauses = append(clauses, "upload_timestamp >= ?")
		args = append(args, r.timeArg(filter.UploadDateFrom.UTC()))
	}
	where := "1 = 1"
	if len(clauses) > 0 {
		where = strings.Join(clauses, " AND ")
	}

	total, err := r.count(ctx, where, args)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []DocumentMetadata{}, 0, nil
	}

	query := r.rebind("SELECT " + metadataColumns + " FROM documents WHERE " + where +
		orderBy(req.Sort) + " LIMIT ? OFFSET ?")
	rows, err := r.DB.QueryContext(ctx, query, append(args, req.Size, req.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("find documents: %w", err)
	}
	defer rows.Close()

	out := []DocumentMetadata{}
	for rows.Next() {
		var meta DocumentMetadata
		var author sql.NullString
		var uploaded timeValue
		if err := rows.Scan(&meta.ID, &meta.Filename, &meta.ContentType, &author, &uploaded); err != nil {
			return nil, 0, err
		}
		meta.Author = stringPtr(author)
		meta.UploadTimestamp = uploaded.Time
		out = append(out, meta)
	}
	return out, total, rows.Err()
}

func (r *SQLRepo) count(ctx context.Context, where string, args []any) (int64, error) {
	var total int64
	query := r.rebind("SELECT COUNT(*) FROM documents WHERE " + where)
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return total, nil
}

func (r *SQLRepo) clock() time.Time {
	if r.now == nil {
		return time.Now()
	}
	return r.now()
}

// timeArg binds timestamps natively on Postgres and as sortable text on SQLite.
func (r *SQLRepo) timeArg(t time.Time) any {
	if r.Dialect == db.SQLite {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t.UTC()
}

// rebind rewrites ? placeholders to $n for Postgres.
func (r *SQLRepo) rebind(query string) string {
	if r.Dialect == db.SQLite {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func orderBy(orders []SortOrder) string {
	parts := make([]string, 0, len(orders)+1)
	for _, o := range withDefaultSort(orders, SortOrder{Field: "id"}) {
		column, ok := sortColumns[o.Field]
		if !ok {
			continue
		}
		if column == "author" {
			column = "COALESCE(author, '')"
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		parts = append(parts, column+" "+dir)
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var author sql.NullString
	var storageKey sql.NullString
	var uploaded timeValue
	if err := row.Scan(
		&doc.ID,
		&doc.Filename,
		&doc.ContentType,
		&author,
		&doc.Content,
		&uploaded,
		&storageKey,
	); err != nil {
		return Document{}, err
	}
	doc.Author = stringPtr(author)
	doc.UploadTimestamp = uploaded.Time
	if storageKey.Valid {
		doc.StorageKey = storageKey.String
	}
	return doc, nil
}

// timeValue scans timestamps stored natively or as text.
type timeValue struct {
	Time time.Time
}

func (t *timeValue) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		return errors.New("upload_timestamp is null")
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (t *timeValue) parse(s string) error {
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	t.Time = parsed.UTC()
	return nil
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

var _ Repo = (*SQLRepo)(nil)
