package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"oto_scraper/models"
)

// SQLiteStore holds operational data: crawl runs, their logs, the dispatch
// audit trail and the command queue the daemon polls.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id INTEGER PRIMARY KEY,
		category TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		pages_total INTEGER,
		pages_fetched INTEGER,
		offers_seen INTEGER,
		offers_dispatched INTEGER,
		errors_count INTEGER
	);

	CREATE TABLE IF NOT EXISTS crawl_logs (
		id INTEGER PRIMARY KEY,
		run_id INTEGER,
		timestamp DATETIME,
		level TEXT,
		message TEXT,
		category TEXT
	);

	CREATE TABLE IF NOT EXISTS dispatched_jobs (
		id TEXT PRIMARY KEY,
		run_id INTEGER,
		kind TEXT,
		url TEXT,
		handle TEXT,
		submitted_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS commands (
		id INTEGER PRIMARY KEY,
		command TEXT,
		params JSON,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		processed_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_commands_pending ON commands(processed_at) WHERE processed_at IS NULL;
	CREATE INDEX IF NOT EXISTS idx_logs_run ON crawl_logs(run_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON crawl_runs(status, started_at);
	CREATE INDEX IF NOT EXISTS idx_jobs_run ON dispatched_jobs(run_id, submitted_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) CreateRun(run *models.CrawlRun) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO crawl_runs (category, started_at, status, pages_total, pages_fetched, offers_seen, offers_dispatched, errors_count)
		VALUES (?, ?, ?, 0, 0, 0, 0, 0)`,
		run.Category, run.StartedAt, run.Status)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) UpdateRun(run *models.CrawlRun) error {
	_, err := s.db.Exec(`
		UPDATE crawl_runs
		SET finished_at = ?, status = ?, pages_total = ?, pages_fetched = ?, offers_seen = ?, offers_dispatched = ?, errors_count = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.PagesTotal, run.PagesFetched,
		run.OffersSeen, run.OffersDispatched, run.ErrorsCount, run.ID)
	return err
}

func (s *SQLiteStore) Log(runID *int64, level models.LogLevel, message, category string) error {
	_, err := s.db.Exec(`
		INSERT INTO crawl_logs (run_id, timestamp, level, message, category)
		VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now(), level, message, category)
	return err
}

// RecordDispatch appends one row to the dispatch audit trail.
func (s *SQLiteStore) RecordDispatch(runID int64, jobID, kind, url, handle string, submittedAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO dispatched_jobs (id, run_id, kind, url, handle, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		jobID, runID, kind, url, handle, submittedAt)
	return err
}

func (s *SQLiteStore) GetPendingCommands() ([]models.Command, error) {
	rows, err := s.db.Query(`
		SELECT id, command, params, created_at
		FROM commands
		WHERE processed_at IS NULL
		ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cmds []models.Command
	for rows.Next() {
		var cmd models.Command
		var params sql.NullString
		if err := rows.Scan(&cmd.ID, &cmd.Command, &params, &cmd.CreatedAt); err != nil {
			return nil, err
		}
		if params.Valid {
			cmd.Params = json.RawMessage(params.String)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, rows.Err()
}

func (s *SQLiteStore) MarkCommandProcessed(id int64) error {
	_, err := s.db.Exec(`UPDATE commands SET processed_at = ? WHERE id = ?`, time.Now(), id)
	return err
}

func (s *SQLiteStore) EnqueueCommand(cmd models.CommandType, params *models.CommandParams) error {
	var raw []byte
	if params != nil {
		var err error
		if raw, err = json.Marshal(params); err != nil {
			return err
		}
	}
	_, err := s.db.Exec(`INSERT INTO commands (command, params) VALUES (?, ?)`, cmd, raw)
	return err
}

func (s *SQLiteStore) ParseCommandParams(cmd *models.Command) (*models.CommandParams, error) {
	params := &models.CommandParams{}
	if len(cmd.Params) == 0 {
		return params, nil
	}
	if err := json.Unmarshal(cmd.Params, params); err != nil {
		return nil, err
	}
	return params, nil
}

func (s *SQLiteStore) GetLastRunTime(category string) (time.Time, error) {
	var t sql.NullTime
	err := s.db.QueryRow(`
		SELECT MAX(started_at) FROM crawl_runs WHERE category = ?`, category).Scan(&t)
	if err != nil || !t.Valid {
		return time.Time{}, err
	}
	return t.Time, nil
}
