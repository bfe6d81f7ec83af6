package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// MySQL implements Store on top of MySQL. Each collection maps to a table
// with an `id` primary key and a `doc` JSON column; field lookups go through
// JSON_EXTRACT. Collection names are validated before being interpolated
// into statements since placeholders cannot carry identifiers.
type MySQL struct {
	db *sql.DB
}

// NewMySQL returns a MySQL store bound to the given database handle.
func NewMySQL(db *sql.DB) *MySQL { return &MySQL{db: db} }

// EnsureCollections creates the backing table for every named collection if
// it does not exist yet. Call once at startup.
func (s *MySQL) EnsureCollections(ctx context.Context, names ...string) error {
	for _, name := range names {
		if err := validCollection(name); err != nil {
			return err
		}
		q := "CREATE TABLE IF NOT EXISTS `" + name + "` (" +
			"id VARCHAR(64) NOT NULL PRIMARY KEY, " +
			"doc JSON NOT NULL, " +
			"created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, " +
			"updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP" +
			") CHARACTER SET utf8mb4"
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure collection %s: %w", name, err)
		}
	}
	return nil
}

// FindByField returns the single document whose field equals value. It
// fetches up to two rows so a uniqueness violation can be reported as
// ErrDuplicate instead of silently returning an arbitrary row.
func (s *MySQL) FindByField(ctx context.Context, collection, field string, value any) (*Document, error) {
	if err := validCollection(collection); err != nil {
		return nil, err
	}
	q := "SELECT id, doc FROM `" + collection + "` WHERE JSON_UNQUOTE(JSON_EXTRACT(doc, ?)) = ? LIMIT 2"
	rows, err := s.db.QueryContext(ctx, q, "$."+field, fmt.Sprint(value))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []*Document
	for rows.Next() {
		d, err := scanDoc(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(docs) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return docs[0], nil
	default:
		return nil, ErrDuplicate
	}
}

// Get returns the document with the given ID.
func (s *MySQL) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := validCollection(collection); err != nil {
		return nil, err
	}
	q := "SELECT id, doc FROM `" + collection + "` WHERE id = ?"
	row := s.db.QueryRowContext(ctx, q, id)
	var docID string
	var raw []byte
	if err := row.Scan(&docID, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeDoc(docID, raw)
}

// Create inserts a new document.
func (s *MySQL) Create(ctx context.Context, collection, id string, fields map[string]any) (*Document, error) {
	if err := validCollection(collection); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	q := "INSERT INTO `" + collection + "` (id, doc) VALUES (?, ?)"
	if _, err := s.db.ExecContext(ctx, q, id, raw); err != nil {
		return nil, err
	}
	return &Document{ID: id, Fields: clone(fields)}, nil
}

// Update merges fields into an existing document. The read-modify-write is
// wrapped in a transaction with a row lock so concurrent updates to the
// same document do not lose fields.
func (s *MySQL) Update(ctx context.Context, collection, id string, fields map[string]any) (*Document, error) {
	if err := validCollection(collection); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	sel := "SELECT doc FROM `" + collection + "` WHERE id = ? FOR UPDATE"
	var raw []byte
	if err := tx.QueryRowContext(ctx, sel, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	existing := make(map[string]any)
	if err := json.Unmarshal(raw, &existing); err != nil {
		return nil, err
	}
	for k, v := range fields {
		existing[k] = v
	}
	merged, err := json.Marshal(existing)
	if err != nil {
		return nil, err
	}
	upd := "UPDATE `" + collection + "` SET doc = ? WHERE id = ?"
	if _, err := tx.ExecContext(ctx, upd, merged, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &Document{ID: id, Fields: existing}, nil
}

// Delete removes a document, returning ErrNotFound when no row matched.
func (s *MySQL) Delete(ctx context.Context, collection, id string) error {
	if err := validCollection(collection); err != nil {
		return err
	}
	q := "DELETE FROM `" + collection + "` WHERE id = ?"
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns every document in a collection ordered by ID.
func (s *MySQL) List(ctx context.Context, collection string) ([]*Document, error) {
	if err := validCollection(collection); err != nil {
		return nil, err
	}
	q := "SELECT id, doc FROM `" + collection + "` ORDER BY id"
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	docs := make([]*Document, 0)
	for rows.Next() {
		d, err := scanDoc(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func scanDoc(rows *sql.Rows) (*Document, error) {
	var id string
	var raw []byte
	if err := rows.Scan(&id, &raw); err != nil {
		return nil, err
	}
	return decodeDoc(id, raw)
}

func decodeDoc(id string, raw []byte) (*Document, error) {
	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return &Document{ID: id, Fields: fields}, nil
}

// validCollection restricts collection names to lowercase identifiers so
// they can be embedded into SQL safely.
func validCollection(name string) error {
	if name == "" {
		return errors.New("empty collection name")
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		if ch >= 'a' && ch <= 'z' || ch == '_' || (i > 0 && ch >= '0' && ch <= '9') {
			continue
		}
		return fmt.Errorf("invalid collection name: %q", name)
	}
	return nil
}
