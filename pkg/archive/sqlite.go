package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/agentstation/cvmap/pkg/constants"
	"github.com/agentstation/cvmap/pkg/errors"
	"github.com/agentstation/cvmap/pkg/logging"
	"github.com/agentstation/cvmap/pkg/vocab"
)

// SQLiteStore is a single-file archive. Save writes all pending authorities
// in one transaction.
type SQLiteStore struct {
	registry
	db   *sql.DB
	path string
}

// OpenSQLite opens the archive database at path and applies the embedded migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.NewValidationError("archive_path", path, "cannot be empty")
	}
	clean := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(clean), constants.DirPermissions); err != nil {
		return nil, errors.WrapPersistence("create", filepath.Dir(clean), err)
	}

	db, err := sql.Open("sqlite", clean+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.WrapPersistence("open", clean, err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.WrapPersistence("open", clean, err)
	}
	if err := applyMigrations(ctx, db, migrationsFS, "migrations"); err != nil {
		_ = db.Close()
		return nil, errors.WrapPersistence("migrate", clean, err)
	}
	return &SQLiteStore{db: db, path: clean}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Add registers an authority. Names must be unique among pending authorities.
func (s *SQLiteStore) Add(authority *vocab.Authority) error {
	return s.add(authority)
}

// Save replaces every pending authority in a single transaction. On error
// nothing is written and the authorities stay pending.
func (s *SQLiteStore) Save(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapPersistence("begin", s.path, err)
	}
	for _, authority := range s.pending {
		if err := saveTree(ctx, tx, NewTree(authority)); err != nil {
			_ = tx.Rollback()
			return errors.WrapPersistence("save", authority.Name(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.WrapPersistence("commit", s.path, err)
	}

	for _, authority := range s.pending {
		logging.FromContext(ctx).Info().
			Str("authority", authority.Name()).
			Str("archive", s.path).
			Msg("Saved authority")
	}
	s.pending = nil
	return nil
}

func saveTree(ctx context.Context, tx *sql.Tx, tree Tree) error {
	name := tree.Authority.Name
	if _, err := tx.ExecContext(ctx, `DELETE FROM archive_entities WHERE authority = ?`, name); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO archive_entities (
    uid, authority, kind, parent_uid, position, namespace, name, description, url, create_date, data
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	insert := func(r Record, parent sql.NullString, position int) error {
		data := sql.NullString{}
		if r.Data != nil {
			encoded, err := json.Marshal(r.Data)
			if err != nil {
				return fmt.Errorf("encode data of %s: %w", r.Namespace, err)
			}
			data = sql.NullString{String: string(encoded), Valid: true}
		}
		_, err := stmt.ExecContext(ctx, r.UID, name, r.Kind, parent, position,
			r.Namespace, r.Name, r.Description, r.URL, r.CreateDate, data)
		return err
	}
	parentOf := func(r Record) sql.NullString {
		return sql.NullString{String: r.UID, Valid: true}
	}

	if err := insert(tree.Authority, sql.NullString{}, 0); err != nil {
		return err
	}
	for i, st := range tree.Scopes {
		if err := insert(st.Scope, parentOf(tree.Authority), i); err != nil {
			return err
		}
		for j, ct := range st.Collections {
			if err := insert(ct.Collection, parentOf(st.Scope), j); err != nil {
				return err
			}
			for k, r := range ct.Terms {
				if err := insert(r, parentOf(ct.Collection), k); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

type entityRow struct {
	record   Record
	parent   string
	position int
}

// Load reads an authority from the archive.
func (s *SQLiteStore) Load(ctx context.Context, name string) (*vocab.Authority, error) {
	tree, err := s.LoadTree(ctx, name)
	if err != nil {
		return nil, err
	}
	return tree.Build()
}

// LoadTree reads the serialized form of an authority.
func (s *SQLiteStore) LoadTree(ctx context.Context, name string) (Tree, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT uid, kind, parent_uid, position, namespace, name, description, url, create_date, data
FROM archive_entities WHERE authority = ?`, name)
	if err != nil {
		return Tree{}, errors.WrapPersistence("query", name, err)
	}
	defer func() { _ = rows.Close() }()

	var root *entityRow
	children := make(map[string][]entityRow)
	for rows.Next() {
		var (
			row    entityRow
			parent sql.NullString
			data   sql.NullString
		)
		if err := rows.Scan(&row.record.UID, &row.record.Kind, &parent, &row.position,
			&row.record.Namespace, &row.record.Name, &row.record.Description, &row.record.URL,
			&row.record.CreateDate, &data); err != nil {
			return Tree{}, errors.WrapPersistence("scan", name, err)
		}
		if data.Valid {
			if err := json.Unmarshal([]byte(data.String), &row.record.Data); err != nil {
				return Tree{}, errors.WrapPersistence("decode", row.record.Namespace, err)
			}
		}
		if !parent.Valid {
			root = &row
			continue
		}
		row.parent = parent.String
		children[row.parent] = append(children[row.parent], row)
	}
	if err := rows.Err(); err != nil {
		return Tree{}, errors.WrapPersistence("query", name, err)
	}
	if root == nil {
		return Tree{}, &errors.NotFoundError{Resource: string(vocab.KindAuthority), ID: name}
	}

	ordered := func(parent string) []entityRow {
		list := children[parent]
		sort.Slice(list, func(i, j int) bool { return list[i].position < list[j].position })
		return list
	}

	tree := Tree{Authority: root.record}
	for _, scope := range ordered(root.record.UID) {
		st := ScopeTree{Scope: scope.record}
		for _, collection := range ordered(scope.record.UID) {
			ct := CollectionTree{Collection: collection.record}
			for _, term := range ordered(collection.record.UID) {
				ct.Terms = append(ct.Terms, term.record)
			}
			st.Collections = append(st.Collections, ct)
		}
		tree.Scopes = append(tree.Scopes, st)
	}
	return tree, nil
}

// Names lists the authorities in the archive.
func (s *SQLiteStore) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM archive_entities WHERE kind = ? ORDER BY name`, string(vocab.KindAuthority))
	if err != nil {
		return nil, errors.WrapPersistence("list", s.path, err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.WrapPersistence("list", s.path, err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
