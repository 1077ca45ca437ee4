package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound - документа с таким именем или версией нет.
var ErrNotFound = errors.New("mapping document not found")

// Revision - сохранённая версия документа маппингов.
type Revision struct {
	Name      string `json:"name"`
	Version   int    `json:"version"`
	Document  string `json:"document,omitempty"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// Store хранит версии документов маппингов.
type Store interface {
	Save(ctx context.Context, name, document, comment string) (*Revision, error)
	Latest(ctx context.Context, name string) (*Revision, error)
	Get(ctx context.Context, name string, version int) (*Revision, error)
	List(ctx context.Context) ([]*Revision, error)
}

// SQLiteStore реализует Store поверх SQLite.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Save записывает новую версию. Номер версии на единицу больше последнего.
func (s *SQLiteStore) Save(ctx context.Context, name, document, comment string) (*Revision, error) {
	if name == "" {
		return nil, fmt.Errorf("save mapping document: empty name")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var version int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) + 1 FROM mapping_documents WHERE name = ?", name,
	).Scan(&version); err != nil {
		return nil, fmt.Errorf("next version of %q: %w", name, err)
	}

	rev := &Revision{Name: name, Version: version, Document: document, Comment: comment, CreatedAt: now()}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO mapping_documents (name, version, document, comment, created_at) VALUES (?, ?, ?, ?, ?)`,
		rev.Name, rev.Version, rev.Document, rev.Comment, rev.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert mapping document: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit save: %w", err)
	}
	return rev, nil
}

// Latest возвращает последнюю версию документа.
func (s *SQLiteStore) Latest(ctx context.Context, name string) (*Revision, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, version, document, comment, created_at FROM mapping_documents
		 WHERE name = ? ORDER BY version DESC LIMIT 1`, name)
	return scanRevision(row, name)
}

func (s *SQLiteStore) Get(ctx context.Context, name string, version int) (*Revision, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, version, document, comment, created_at FROM mapping_documents
		 WHERE name = ? AND version = ?`, name, version)
	return scanRevision(row, fmt.Sprintf("%s@%d", name, version))
}

// List возвращает последние версии всех документов без тела, по имени.
func (s *SQLiteStore) List(ctx context.Context) ([]*Revision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.name, d.version, d.comment, d.created_at FROM mapping_documents d
		 JOIN (SELECT name, MAX(version) AS version FROM mapping_documents GROUP BY name) l
		   ON d.name = l.name AND d.version = l.version
		 ORDER BY d.name`)
	if err != nil {
		return nil, fmt.Errorf("list mapping documents: %w", err)
	}
	defer rows.Close()

	var out []*Revision
	for rows.Next() {
		r := &Revision{}
		if err := rows.Scan(&r.Name, &r.Version, &r.Comment, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan mapping document: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRevision(row *sql.Row, key string) (*Revision, error) {
	r := &Revision{}
	err := row.Scan(&r.Name, &r.Version, &r.Document, &r.Comment, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("get mapping document %s: %w", key, err)
	}
	return r, nil
}
