package session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/coaching"
)

// Dialect selects placeholder style and schema for SQLStore.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLStore keeps session documents in a coach_sessions table.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLite opens (and creates) a SQLite database at dbPath.
func NewSQLite(dbPath string) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// single writer avoids SQLITE_BUSY on concurrent turns
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	return newSQLStore(db, DialectSQLite)
}

// NewPostgres connects to Postgres through the pgx stdlib driver.
func NewPostgres(dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return newSQLStore(db, DialectPostgres)
}

func newSQLStore(db *sql.DB, dialect Dialect) (*SQLStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &SQLStore{db: db, dialect: dialect}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLStore) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS coach_sessions (
		user_id TEXT PRIMARY KEY,
		state_json TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// rebind turns ? placeholders into $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Ping verifies database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Exists(ctx context.Context, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM coach_sessions WHERE user_id = ?`), userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, wrap("exists", userID, err)
	}
	return true, nil
}

func (s *SQLStore) Load(ctx context.Context, userID string) (*coaching.SessionState, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT state_json FROM coach_sessions WHERE user_id = ?`), userID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("load", userID, fmt.Errorf("scan session row: %w", err))
	}
	state, err := decodeState([]byte(raw))
	if err != nil {
		return nil, wrap("load", userID, err)
	}
	return state, nil
}

func (s *SQLStore) Save(ctx context.Context, userID string, state *coaching.SessionState) error {
	raw, err := encodeForSave(userID, state)
	if err != nil {
		return wrap("save", userID, err)
	}
	now := time.Now().Unix()
	query := `
		INSERT INTO coach_sessions (user_id, state_json, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			state_json = excluded.state_json,
			updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, s.rebind(query), userID, string(raw), now, now); err != nil {
		return wrap("save", userID, fmt.Errorf("upsert session: %w", err))
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM coach_sessions WHERE user_id = ?`), userID)
	if err != nil {
		return wrap("delete", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("delete", userID, err)
	}
	if n == 0 {
		return wrap("delete", userID, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM coach_sessions ORDER BY user_id`)
	if err != nil {
		return nil, wrap("list", "", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrap("list", "", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list", "", err)
	}
	return ids, nil
}
