package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/yourorg/playground/pkg/types"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// Single writer; concurrent callers queue on the pool.
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
		return err
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS credentials (
			scope TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS history (
			id TEXT PRIMARY KEY,
			endpoint_id TEXT NOT NULL,
			method TEXT NOT NULL,
			url TEXT NOT NULL,
			request_headers TEXT,
			request_body TEXT,
			status_code INTEGER NOT NULL,
			response_body TEXT,
			error_msg TEXT NOT NULL,
			latency_ms INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_history_created ON history(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) GetCredential(scope string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM credentials WHERE scope=?`, scope).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SetCredential stores value under scope. An empty value removes the scope.
func (s *SQLiteStore) SetCredential(scope, value string) error {
	if value == "" {
		_, err := s.db.Exec(`DELETE FROM credentials WHERE scope=?`, scope)
		return err
	}
	_, err := s.db.Exec(`INSERT INTO credentials(scope,value,updated_at) VALUES(?,?,?)
	ON CONFLICT(scope) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		scope, value, time.Now().UTC())
	return err
}

func (s *SQLiteStore) SaveHistory(e *types.HistoryEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	rh, _ := json.Marshal(e.RequestHeaders)
	_, err := s.db.Exec(`INSERT INTO history(id,endpoint_id,method,url,request_headers,request_body,status_code,response_body,error_msg,latency_ms,created_at) VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.EndpointID, e.Method, e.URL, string(rh), e.RequestBody, e.StatusCode, e.ResponseBody, e.Error, e.LatencyMs, e.CreatedAt)
	return err
}

const historyColumns = `id,endpoint_id,method,url,request_headers,request_body,status_code,response_body,error_msg,latency_ms,created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanHistory(row scanner) (types.HistoryEntry, error) {
	var e types.HistoryEntry
	var rh string
	if err := row.Scan(&e.ID, &e.EndpointID, &e.Method, &e.URL, &rh, &e.RequestBody, &e.StatusCode, &e.ResponseBody, &e.Error, &e.LatencyMs, &e.CreatedAt); err != nil {
		return e, err
	}
	if rh != "" && rh != "null" {
		_ = json.Unmarshal([]byte(rh), &e.RequestHeaders)
	}
	return e, nil
}

// ListHistory returns the newest entries first. limit <= 0 means all.
func (s *SQLiteStore) ListHistory(limit int) ([]types.HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT `+historyColumns+` FROM history ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]types.HistoryEntry, 0)
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetHistory(id string) (*types.HistoryEntry, error) {
	e, err := scanHistory(s.db.QueryRow(`SELECT `+historyColumns+` FROM history WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *SQLiteStore) DeleteHistory(id string) error {
	res, err := s.db.Exec(`DELETE FROM history WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return errors.New("store is nil")
	}
	return s.db.Close()
}
