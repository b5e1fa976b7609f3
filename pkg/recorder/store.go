package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"gopkg.in/yaml.v3"

	"Lookout/pkg/locator"
	"Lookout/pkg/widget"
)

// ========================================
// Store - SQLite recording storage
// ========================================

type Store struct {
	db     *sql.DB
	dbPath string

	stmtInsertSession *sql.Stmt
	stmtInsertStep    *sql.Stmt
}

const schemaSQL = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA temp_store = MEMORY;

CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    start_time INTEGER NOT NULL,
    end_time INTEGER DEFAULT 0,
    status TEXT DEFAULT 'recording',
    step_count INTEGER DEFAULT 0,
    created_at INTEGER DEFAULT (strftime('%s', 'now') * 1000)
);

CREATE INDEX IF NOT EXISTS idx_sessions_time ON sessions(start_time DESC);

CREATE TABLE IF NOT EXISTS steps (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    action TEXT NOT NULL,
    step_key TEXT NOT NULL,
    locator TEXT NOT NULL,
    text TEXT,
    x INTEGER DEFAULT 0,
    y INTEGER DEFAULT 0,
    timestamp INTEGER NOT NULL,
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_steps_session_seq ON steps(session_id, seq);
`

// NewStore opens (or creates) recordings.db in dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "recordings.db")

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db, dbPath: dbPath}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}
	return s, nil
}

func (s *Store) prepareStatements() error {
	var err error
	s.stmtInsertSession, err = s.db.Prepare(`
		INSERT OR REPLACE INTO sessions (id, name, start_time, end_time, status, step_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert session: %w", err)
	}
	s.stmtInsertStep, err = s.db.Prepare(`
		INSERT INTO steps (id, session_id, seq, action, step_key, locator, text, x, y, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert step: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.dbPath }

func (s *Store) Close() error {
	if s.stmtInsertSession != nil {
		s.stmtInsertSession.Close()
	}
	if s.stmtInsertStep != nil {
		s.stmtInsertStep.Close()
	}
	return s.db.Close()
}

// ========================================
// Sessions
// ========================================

func (s *Store) CreateSession(session *Session) error {
	_, err := s.stmtInsertSession.Exec(
		session.ID, session.Name, session.StartTime, session.EndTime,
		session.Status, session.StepCount,
	)
	return err
}

// GetSession returns nil without error when id is unknown.
func (s *Store) GetSession(id string) (*Session, error) {
	row := s.db.QueryRow(`
		SELECT id, name, start_time, end_time, status, step_count
		FROM sessions WHERE id = ?
	`, id)
	var session Session
	err := row.Scan(&session.ID, &session.Name, &session.StartTime, &session.EndTime,
		&session.Status, &session.StepCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions returns sessions newest first. A limit <= 0 means all.
func (s *Store) ListSessions(limit int) ([]Session, error) {
	query := `
		SELECT id, name, start_time, end_time, status, step_count
		FROM sessions ORDER BY start_time DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var session Session
		if err := rows.Scan(&session.ID, &session.Name, &session.StartTime, &session.EndTime,
			&session.Status, &session.StepCount); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *Store) DeleteSession(id string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// ========================================
// Steps
// ========================================

// SaveSteps writes steps for a session in one transaction, keeping their order.
func (s *Store) SaveSteps(sessionID string, steps []Step) error {
	if len(steps) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt := tx.Stmt(s.stmtInsertStep)
	for i, step := range steps {
		loc, err := yaml.Marshal(step.Locator)
		if err != nil {
			return fmt.Errorf("encode locator of step %s: %w", step.ID, err)
		}
		_, err = stmt.Exec(
			step.ID, sessionID, i, string(step.Action), step.Key, string(loc),
			nullString(step.Text), step.X, step.Y, step.Time.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("insert step %s: %w", step.ID, err)
		}
	}
	return tx.Commit()
}

// LoadSteps returns a session's steps in recorded order with their locators
// rebuilt.
func (s *Store) LoadSteps(sessionID string) ([]Step, error) {
	rows, err := s.db.Query(`
		SELECT id, action, step_key, locator, text, x, y, timestamp
		FROM steps WHERE session_id = ? ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []Step
	for rows.Next() {
		var (
			step   Step
			action string
			loc    string
			text   sql.NullString
			ts     int64
		)
		if err := rows.Scan(&step.ID, &action, &step.Key, &loc, &text, &step.X, &step.Y, &ts); err != nil {
			return nil, err
		}
		step.Action = widget.EventType(action)
		step.Text = text.String
		step.Time = time.UnixMilli(ts)
		if step.Locator, err = locator.ParseYAML([]byte(loc)); err != nil {
			return nil, fmt.Errorf("decode locator of step %s: %w", step.ID, err)
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
