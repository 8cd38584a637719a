package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// One connection serializes writers; SQLite would otherwise report busy.
	db.SetMaxOpenConns(1)
	s := &SQLiteStore{db: db}
	if err := s.Init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Init() error {
	if _, err := s.db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		return errors.Wrap(err, "enable wal")
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cache_entries (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			bucket TEXT NOT NULL,
			unique_field TEXT NOT NULL,
			unique_value TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			UNIQUE(bucket, unique_field, unique_value)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_cache_bucket ON cache_entries(bucket);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}

func (s *SQLiteStore) GetAll(ctx context.Context, key string) ([]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM cache_entries WHERE bucket=? ORDER BY seq ASC`, key)
	if err != nil {
		return nil, errors.Wrapf(err, "list bucket %s", key)
	}
	defer rows.Close()
	out := make([]json.RawMessage, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		out = append(out, json.RawMessage(payload))
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, key, field string, value any) (json.RawMessage, error) {
	row := s.db.QueryRowContext(ctx, `SELECT payload FROM cache_entries WHERE bucket=? AND unique_field=? AND unique_value=?`,
		key, field, uniqueValue(value))
	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "get %s.%s", key, field)
	}
	return json.RawMessage(payload), nil
}

func (s *SQLiteStore) SetIfAbsent(ctx context.Context, key string, value any, field string) (bool, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return false, errors.Wrapf(err, "marshal %s value", key)
	}
	res := gjson.GetBytes(payload, field)
	if !res.Exists() {
		return false, errors.Newf("value for bucket %s has no field %q", key, field)
	}
	result, err := s.db.ExecContext(ctx, `INSERT INTO cache_entries(bucket,unique_field,unique_value,payload,created_at)
	VALUES(?,?,?,?,?)
	ON CONFLICT(bucket,unique_field,unique_value) DO NOTHING`,
		key, field, uniqueValue(res.Value()), string(payload), time.Now().UTC())
	if err != nil {
		return false, errors.Wrapf(err, "insert into %s", key)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) Clear(ctx context.Context, key, field string, value any) error {
	var err error
	if field == "" {
		_, err = s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE bucket=?`, key)
	} else {
		_, err = s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE bucket=? AND unique_field=? AND unique_value=?`,
			key, field, uniqueValue(value))
	}
	return errors.Wrapf(err, "clear %s", key)
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return errors.New("store is nil")
	}
	return s.db.Close()
}

// uniqueValue normalizes lookup values so that 42 (int) and 42 (decoded
// JSON float64) address the same row.
func uniqueValue(v any) string {
	switch x := v.(type) {
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	case float32:
		return uniqueValue(float64(x))
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
