package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/jssift/internal/model"
)

// FileName is the name of the database file inside the data directory.
const FileName = "jssift.db"

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// HistoryDB is the SQLite store of past runs.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file when missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run 'jssift sift' first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}
	dsn += "&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	ctx := context.Background()
	if opts.EnableWAL {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := hdb.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target TEXT NOT NULL,
		mode TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		script_count INTEGER NOT NULL,
		failed_count INTEGER NOT NULL,
		string_count INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_target ON runs(target);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	CREATE TABLE IF NOT EXISTS scripts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		idx INTEGER NOT NULL,
		identifier TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		string_count INTEGER NOT NULL,
		artifact TEXT,
		elapsed_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scripts_run ON scripts(run_id);

	CREATE TABLE IF NOT EXISTS strings (
		script_id INTEGER NOT NULL REFERENCES scripts(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (script_id, position)
	);
	`

	_, err := h.db.ExecContext(ctx, schema)
	return err
}

// RunMetadata summarizes a stored run without its scripts.
type RunMetadata struct {
	ID          int64     `json:"id"`
	Target      string    `json:"target"`
	Mode        string    `json:"mode"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	ScriptCount int       `json:"script_count"`
	FailedCount int       `json:"failed_count"`
	StringCount int       `json:"string_count"`
}

// SaveRun stores summary with all of its scripts and strings in one
// transaction, sets summary.ID and returns it.
func (h *HistoryDB) SaveRun(ctx context.Context, summary *model.RunSummary) (id int64, err error) {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback() //nolint:errcheck // already failing
		}
	}()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (target, mode, started_at, finished_at, script_count, failed_count, string_count)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		summary.Target,
		summary.Mode,
		formatTimestamp(summary.StartedAt),
		formatTimestamp(summary.FinishedAt),
		len(summary.Scripts),
		summary.FailedCount(),
		summary.TotalStrings(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	scriptStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO scripts (run_id, url, idx, identifier, status, error, string_count, artifact, elapsed_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare script insert: %w", err)
	}
	defer scriptStmt.Close()

	stringStmt, err := tx.PrepareContext(ctx, `INSERT INTO strings (script_id, position, value) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare string insert: %w", err)
	}
	defer stringStmt.Close()

	for _, sc := range summary.Scripts {
		res, err := scriptStmt.ExecContext(ctx,
			runID, sc.URL, sc.Index, sc.Identifier, sc.Status, sc.Error,
			sc.StringCount, sc.Artifact, sc.ElapsedMillis,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert script %s: %w", sc.URL, err)
		}
		scriptID, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to get script id: %w", err)
		}
		for pos, value := range sc.Strings {
			if _, err := stringStmt.ExecContext(ctx, scriptID, pos, value); err != nil {
				return 0, fmt.Errorf("failed to insert string of %s: %w", sc.URL, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	summary.ID = runID
	return runID, nil
}

// ListRuns returns the runs against target, newest first.
func (h *HistoryDB) ListRuns(ctx context.Context, target string) ([]RunMetadata, error) {
	rows, err := h.db.QueryContext(ctx, `
	SELECT id, target, mode, started_at, finished_at, script_count, failed_count, string_count
	FROM runs
	WHERE target = ?
	ORDER BY started_at DESC, id DESC
	`, target)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunMetadata
	for rows.Next() {
		meta, err := scanRunMetadata(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

// ListTargets returns every target with at least one stored run.
func (h *HistoryDB) ListTargets(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT DISTINCT target FROM runs ORDER BY target`)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer rows.Close()

	var targets []string
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		targets = append(targets, target)
	}
	return targets, rows.Err()
}

// GetRun loads a run with its scripts (in discovery order) and strings.
// It returns ErrRunNotFound when id does not exist.
func (h *HistoryDB) GetRun(ctx context.Context, id int64) (*model.RunSummary, error) {
	row := h.db.QueryRowContext(ctx, `
	SELECT id, target, mode, started_at, finished_at, script_count, failed_count, string_count
	FROM runs
	WHERE id = ?
	`, id)
	meta, err := scanRunMetadata(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	summary := &model.RunSummary{
		ID:         meta.ID,
		Target:     meta.Target,
		Mode:       meta.Mode,
		StartedAt:  meta.StartedAt,
		FinishedAt: meta.FinishedAt,
		Scripts:    []model.ScriptSummary{},
	}

	scriptIDs, err := h.loadScripts(ctx, summary)
	if err != nil {
		return nil, err
	}
	for i, scriptID := range scriptIDs {
		values, err := h.loadStrings(ctx, scriptID)
		if err != nil {
			return nil, err
		}
		summary.Scripts[i].Strings = values
	}

	return summary, nil
}

func (h *HistoryDB) loadScripts(ctx context.Context, summary *model.RunSummary) ([]int64, error) {
	rows, err := h.db.QueryContext(ctx, `
	SELECT id, url, idx, identifier, status, error, string_count, artifact, elapsed_ms
	FROM scripts
	WHERE run_id = ?
	ORDER BY idx, id
	`, summary.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scripts: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var (
			id       int64
			sc       model.ScriptSummary
			errText  sql.NullString
			artifact sql.NullString
		)
		if err := rows.Scan(&id, &sc.URL, &sc.Index, &sc.Identifier, &sc.Status,
			&errText, &sc.StringCount, &artifact, &sc.ElapsedMillis); err != nil {
			return nil, fmt.Errorf("failed to scan script: %w", err)
		}
		sc.Error = errText.String
		sc.Artifact = artifact.String
		summary.Scripts = append(summary.Scripts, sc)
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (h *HistoryDB) loadStrings(ctx context.Context, scriptID int64) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, `
	SELECT value FROM strings WHERE script_id = ? ORDER BY position
	`, scriptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load strings: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan string: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// DeleteRun removes a run and everything stored with it.
func (h *HistoryDB) DeleteRun(ctx context.Context, id int64) error {
	res, err := h.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRunMetadata(row rowScanner) (RunMetadata, error) {
	var (
		meta     RunMetadata
		started  string
		finished string
	)
	err := row.Scan(&meta.ID, &meta.Target, &meta.Mode, &started, &finished,
		&meta.ScriptCount, &meta.FailedCount, &meta.StringCount)
	if errors.Is(err, sql.ErrNoRows) {
		return meta, err
	}
	if err != nil {
		return meta, fmt.Errorf("failed to scan run: %w", err)
	}
	meta.StartedAt = parseTimestamp(started)
	meta.FinishedAt = parseTimestamp(finished)
	return meta, nil
}

// formatTimestamp stores times in UTC with nanosecond precision so that
// lexical order matches chronological order.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}

// timestampFormats contains the timestamp formats that may be stored.
// More specific formats come first.
var timestampFormats = []string{
	"2006-01-02T15:04:05.000000000Z",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
