package episode

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // CGO-free sqlite driver

	"agentenv/pkg/logx"
)

// SQLiteEpisode stores steps as encoded blobs in a sqlite database, one row
// per step. The reward is kept in its own column so totals are a single
// aggregate query.
type SQLiteEpisode struct {
	mu       sync.Mutex
	db       *sql.DB
	encoding Encoding
	count    int
	logger   *logx.Logger
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS steps (
	idx    INTEGER PRIMARY KEY,
	reward REAL NOT NULL,
	data   BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS episode_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

func openSQLite(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=ON&_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open episode database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create episode schema: %w", err)
	}
	return db, nil
}

// NewSQLiteEpisode creates or opens an episode database at path. The step
// encoding is recorded in the database; opening with a different encoding
// than the one recorded is an error.
func NewSQLiteEpisode(path string, enc Encoding) (*SQLiteEpisode, error) {
	if !enc.Valid() {
		return nil, fmt.Errorf("unsupported step encoding %q", enc)
	}
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}

	var stored string
	err = db.QueryRow(`SELECT value FROM episode_meta WHERE key = 'encoding'`).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.Exec(`INSERT INTO episode_meta (key, value) VALUES ('encoding', ?)`, string(enc)); err != nil {
			db.Close()
			return nil, fmt.Errorf("record step encoding: %w", err)
		}
	case err != nil:
		db.Close()
		return nil, fmt.Errorf("read step encoding: %w", err)
	case Encoding(stored) != enc:
		db.Close()
		return nil, fmt.Errorf("episode database uses encoding %q, not %q", stored, enc)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM steps`).Scan(&count); err != nil {
		db.Close()
		return nil, fmt.Errorf("count steps: %w", err)
	}

	return &SQLiteEpisode{
		db:       db,
		encoding: enc,
		count:    count,
		logger:   logx.NewLogger("episode"),
	}, nil
}

// Close releases the database handle.
func (s *SQLiteEpisode) Close() error {
	return s.db.Close()
}

// Encoding returns the step blob encoding.
func (s *SQLiteEpisode) Encoding() Encoding { return s.encoding }

func (s *SQLiteEpisode) NumSteps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *SQLiteEpisode) Get(i int) (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= s.count {
		return Step{}, fmt.Errorf("get step %d of %d: %w", i, s.count, ErrIndexOutOfRange)
	}
	var data []byte
	if err := s.db.QueryRow(`SELECT data FROM steps WHERE idx = ?`, i).Scan(&data); err != nil {
		return Step{}, fmt.Errorf("read step %d: %w", i, err)
	}
	return UnmarshalStep(data, s.encoding)
}

func (s *SQLiteEpisode) Set(i int, step Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= s.count {
		return fmt.Errorf("set step %d of %d: %w", i, s.count, ErrIndexOutOfRange)
	}
	data, err := MarshalStep(step, s.encoding)
	if err != nil {
		return fmt.Errorf("encode step %d: %w", i, err)
	}
	if _, err := s.db.Exec(`UPDATE steps SET reward = ?, data = ? WHERE idx = ?`, step.Reward, data, i); err != nil {
		return fmt.Errorf("update step %d: %w", i, err)
	}
	return nil
}

func (s *SQLiteEpisode) Push(step Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := MarshalStep(step, s.encoding)
	if err != nil {
		return fmt.Errorf("encode step %d: %w", s.count, err)
	}
	if _, err := s.db.Exec(`INSERT INTO steps (idx, reward, data) VALUES (?, ?, ?)`, s.count, step.Reward, data); err != nil {
		return fmt.Errorf("insert step %d: %w", s.count, err)
	}
	s.count++
	return nil
}

func (s *SQLiteEpisode) Insert(i int, step Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i > s.count {
		return fmt.Errorf("insert step at %d of %d: %w", i, s.count, ErrIndexOutOfRange)
	}
	data, err := MarshalStep(step, s.encoding)
	if err != nil {
		return fmt.Errorf("encode step %d: %w", i, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	// Shift idx >= i up by one in two passes through negative values so the
	// primary key never collides mid-update.
	if _, err := tx.Exec(`UPDATE steps SET idx = -(idx + 2) WHERE idx >= ?`, i); err != nil {
		return fmt.Errorf("shift steps: %w", err)
	}
	if _, err := tx.Exec(`UPDATE steps SET idx = -idx - 1 WHERE idx < 0`); err != nil {
		return fmt.Errorf("shift steps: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO steps (idx, reward, data) VALUES (?, ?, ?)`, i, step.Reward, data); err != nil {
		return fmt.Errorf("insert step %d: %w", i, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	s.count++
	s.logger.Debug("insert at %d shifted %d rows", i, s.count-1-i)
	return nil
}

func (s *SQLiteEpisode) Pop() (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count == 0 {
		return Step{}, ErrEmptyEpisode
	}
	var data []byte
	if err := s.db.QueryRow(`SELECT data FROM steps WHERE idx = ?`, s.count-1).Scan(&data); err != nil {
		return Step{}, fmt.Errorf("read step %d: %w", s.count-1, err)
	}
	step, err := UnmarshalStep(data, s.encoding)
	if err != nil {
		return Step{}, err
	}
	if _, err := s.db.Exec(`DELETE FROM steps WHERE idx = ?`, s.count-1); err != nil {
		return Step{}, fmt.Errorf("delete step %d: %w", s.count-1, err)
	}
	s.count--
	return step, nil
}

func (s *SQLiteEpisode) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM steps`); err != nil {
		return fmt.Errorf("clear steps: %w", err)
	}
	s.count = 0
	return nil
}

func (s *SQLiteEpisode) TotalReward() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total float64
	if err := s.db.QueryRow(`SELECT COALESCE(SUM(reward), 0) FROM steps`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum rewards: %w", err)
	}
	return total, nil
}

func (s *SQLiteEpisode) IterSteps() *StepIter {
	return NewStepIter(s)
}
