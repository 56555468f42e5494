package arena

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

const resultsTable = "match_results"

// Result is one bot's line in a finished match.
type Result struct {
	ID           int
	MatchID      string
	MapName      string
	BotName      string
	Rank         int
	Score        int
	Phases       int
	Disqualified bool
	CreatedAt    time.Time
}

// ResultStore keeps finished matches in SQLite. Several SSH sessions may
// write at once, so writes retry while the database is locked.
type ResultStore struct {
	db       *sql.DB
	logger   *log.Logger
	attempts uint
	delay    time.Duration
}

func OpenResultStore(path string, logger *log.Logger) (*ResultStore, error) {
	if logger == nil {
		logger = log.Default()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results database %q: %w", path, err)
	}

	store := &ResultStore{db: db, logger: logger, attempts: 5, delay: 20 * time.Millisecond}
	if err := store.createTable(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *ResultStore) createTable() error {
	const createTableSQL = `
	CREATE TABLE IF NOT EXISTS ` + resultsTable + ` (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		match_id TEXT NOT NULL,
		map_name TEXT NOT NULL,
		bot_name TEXT NOT NULL,
		finish_rank INTEGER NOT NULL,
		score INTEGER NOT NULL,
		phases INTEGER NOT NULL,
		disqualified INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := s.db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to execute CREATE TABLE: %w", err)
	}
	s.logger.Debug("Results table ensured.")
	return nil
}

func (s *ResultStore) Close() error {
	return s.db.Close()
}

// Save records the final standings of a match in one transaction.
func (s *ResultStore) Save(ctx context.Context, matchID uuid.UUID, mapName string, phases int, standings []Entry) error {
	const insertSQL = `
	INSERT INTO ` + resultsTable + ` (match_id, map_name, bot_name, finish_rank, score, phases, disqualified)
	VALUES (?, ?, ?, ?, ?, ?, ?);`

	save := func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		for i, entry := range standings {
			_, err := tx.ExecContext(ctx, insertSQL,
				matchID.String(), mapName, entry.Name, i+1, entry.Score, phases, entry.Disqualified)
			if err != nil {
				return err
			}
		}
		return tx.Commit()
	}

	err := retry.Do(save,
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isLocked),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Warn("Results database busy, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to save results of match %s: %w", matchID, err)
	}
	return nil
}

func isLocked(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}

// Leaderboard pages through every saved result, best score first.
func (s *ResultStore) Leaderboard(limit, offset int) ([]Result, error) {
	const selectSQL = `
	SELECT id, match_id, map_name, bot_name, finish_rank, score, phases, disqualified, created_at
	FROM ` + resultsTable + `
	ORDER BY score DESC, finish_rank ASC, id ASC
	LIMIT ? OFFSET ?;`

	rows, err := s.db.Query(selectSQL, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		err := rows.Scan(&r.ID, &r.MatchID, &r.MapName, &r.BotName, &r.Rank, &r.Score, &r.Phases, &r.Disqualified, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	return results, nil
}

func (s *ResultStore) Count() (int, error) {
	const countSQL = `SELECT COUNT(*) FROM ` + resultsTable + `;`
	var count int
	if err := s.db.QueryRow(countSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get total result count: %w", err)
	}
	return count, nil
}

// SaveMatch records a finished match.
func (s *ResultStore) SaveMatch(ctx context.Context, a *Arena) error {
	return s.Save(ctx, a.ID(), a.Layout().Name, a.Phase(), a.Standings())
}
