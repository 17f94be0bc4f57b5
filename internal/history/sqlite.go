package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/koustreak/dbchat/internal/errs"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps items in a local SQLite file.
type SQLiteStore struct {
	conn *sql.DB
	now  func() time.Time
}

// OpenSQLite opens (or creates) the database at path. Use ":memory:" for a
// throwaway store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "open sqlite", err)
	}
	// One writer; for :memory: this also keeps every query on the same database.
	conn.SetMaxOpenConns(1)

	s := &SQLiteStore{conn: conn, now: time.Now}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "migrate history", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS history (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			name TEXT NOT NULL,
			connection_name TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL,
			tags TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_type_conn ON history(type, connection_name)`,
	}
	for _, m := range migrations {
		if _, err := s.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, item Item) (Item, error) {
	item, err := prepare(item, s.now())
	if err != nil {
		return Item{}, err
	}
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO history (id, query, name, connection_name, type, tags, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Query, item.Name, item.ConnectionName, string(item.Type), item.Tags,
		item.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Item{}, errs.Wrap(errs.ErrKindQueryFailed, "save history item", err)
	}
	return item, nil
}

func (s *SQLiteStore) List(ctx context.Context, connectionName string, t Type) ([]Item, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, query, name, connection_name, type, tags, created_at FROM history
		 WHERE type = ? AND (? = '' OR connection_name = ?)
		 ORDER BY created_at DESC, rowid DESC`,
		string(t), connectionName, connectionName)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "list history", err)
	}
	defer rows.Close()

	out := make([]Item, 0)
	for rows.Next() {
		var (
			it      Item
			typ     string
			created string
		)
		if err := rows.Scan(&it.ID, &it.Query, &it.Name, &it.ConnectionName, &typ, &it.Tags, &created); err != nil {
			return nil, errs.Wrap(errs.ErrKindQueryFailed, "scan history item", err)
		}
		it.Type = Type(typ)
		if it.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, errs.Wrap(errs.ErrKindQueryFailed, "parse history timestamp", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "list history", err)
	}
	return out, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	res, err := s.conn.ExecContext(ctx, `DELETE FROM history WHERE id = ?`, id)
	if err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, "delete history item", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(id)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.conn.PingContext(ctx); err != nil {
		return errs.Wrap(errs.ErrKindConnectionFailed, "ping history database", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
