package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"streamer/internal/config"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	defaultListLimit = 50
)

// Journal manages exception and artifact history backed by SQLite.
type Journal struct {
	db   *sql.DB
	path string
}

// Exception is one journaled stage exception.
type Exception struct {
	ID             int64
	Stage          string
	Seq            uint64
	Type           string
	Code           int
	Category       string
	FailureKind    string
	Message        string
	ItemName       string
	RecordedAt     time.Time
	AcknowledgedAt *time.Time
}

// Artifact is one journaled generator output.
type Artifact struct {
	ID        int64
	Stage     string
	Kind      string
	Name      string
	AudioName string
	Path      string
	Duration  float64
	Frames    int
	CreatedAt time.Time
}

// Filter narrows list queries. Zero values match everything; Limit defaults to 50.
type Filter struct {
	Stage string
	Limit int
}

// Open initializes or connects to the journal database under the state directory.
func Open(cfg *config.Config) (*Journal, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.JournalPath())
}

// OpenPath opens the journal at an explicit path.
func OpenPath(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	j := &Journal{db: db, path: dbPath}
	if err := j.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// Path returns the database file location.
func (j *Journal) Path() string { return j.path }

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// RecordException stores exc. Recording the same stage and sequence twice
// keeps the first row.
func (j *Journal) RecordException(ctx context.Context, exc Exception) error {
	if strings.TrimSpace(exc.Stage) == "" {
		return errors.New("record exception: stage required")
	}
	if exc.RecordedAt.IsZero() {
		exc.RecordedAt = time.Now()
	}
	return j.execWithRetry(ctx,
		`INSERT INTO exceptions (
            stage, seq, exception_type, exception_code, category,
            failure_kind, message, item_name, recorded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (stage, seq) DO NOTHING`,
		exc.Stage,
		int64(exc.Seq),
		exc.Type,
		exc.Code,
		exc.Category,
		nullableString(exc.FailureKind),
		nullableString(exc.Message),
		nullableString(exc.ItemName),
		formatTime(exc.RecordedAt),
	)
}

// MarkAcknowledged stamps the exception identified by stage and seq.
func (j *Journal) MarkAcknowledged(ctx context.Context, stage string, seq uint64, at time.Time) error {
	return j.execWithRetry(ctx,
		`UPDATE exceptions SET acknowledged_at = ? WHERE stage = ? AND seq = ? AND acknowledged_at IS NULL`,
		formatTime(at), stage, int64(seq),
	)
}

// RecordArtifact stores a generated output.
func (j *Journal) RecordArtifact(ctx context.Context, art Artifact) error {
	if strings.TrimSpace(art.Stage) == "" || strings.TrimSpace(art.Name) == "" {
		return errors.New("record artifact: stage and name required")
	}
	if art.CreatedAt.IsZero() {
		art.CreatedAt = time.Now()
	}
	return j.execWithRetry(ctx,
		`INSERT INTO artifacts (stage, kind, name, audio_name, path, duration, frames, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		art.Stage,
		art.Kind,
		art.Name,
		nullableString(art.AudioName),
		nullableString(art.Path),
		art.Duration,
		art.Frames,
		formatTime(art.CreatedAt),
	)
}

// ListExceptions returns the newest exceptions first.
func (j *Journal) ListExceptions(ctx context.Context, filter Filter) ([]Exception, error) {
	query := `SELECT id, stage, seq, exception_type, exception_code, category, failure_kind,
        message, item_name, recorded_at, acknowledged_at FROM exceptions`
	query, args := applyFilter(query, filter)
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list exceptions: %w", err)
	}
	defer rows.Close()

	var out []Exception
	for rows.Next() {
		var (
			exc         Exception
			seq         int64
			failureKind sql.NullString
			message     sql.NullString
			itemName    sql.NullString
			recordedRaw string
			ackRaw      sql.NullString
		)
		if err := rows.Scan(&exc.ID, &exc.Stage, &seq, &exc.Type, &exc.Code, &exc.Category,
			&failureKind, &message, &itemName, &recordedRaw, &ackRaw); err != nil {
			return nil, fmt.Errorf("scan exception: %w", err)
		}
		exc.Seq = uint64(seq)
		exc.FailureKind = failureKind.String
		exc.Message = message.String
		exc.ItemName = itemName.String
		if recorded, err := parseTime(recordedRaw); err == nil {
			exc.RecordedAt = recorded
		}
		if ackRaw.Valid {
			if ack, err := parseTime(ackRaw.String); err == nil {
				exc.AcknowledgedAt = &ack
			}
		}
		out = append(out, exc)
	}
	return out, rows.Err()
}

// ListArtifacts returns the newest artifacts first.
func (j *Journal) ListArtifacts(ctx context.Context, filter Filter) ([]Artifact, error) {
	query := `SELECT id, stage, kind, name, audio_name, path, duration, frames, created_at FROM artifacts`
	query, args := applyFilter(query, filter)
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		var (
			art        Artifact
			audioName  sql.NullString
			path       sql.NullString
			createdRaw string
		)
		if err := rows.Scan(&art.ID, &art.Stage, &art.Kind, &art.Name, &audioName, &path,
			&art.Duration, &art.Frames, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		art.AudioName = audioName.String
		art.Path = path.String
		if created, err := parseTime(createdRaw); err == nil {
			art.CreatedAt = created
		}
		out = append(out, art)
	}
	return out, rows.Err()
}

// Clear removes every journaled row and returns how many were deleted.
func (j *Journal) Clear(ctx context.Context) (int64, error) {
	var total int64
	for _, table := range []string{"exceptions", "artifacts"} {
		var res sql.Result
		err := retryOnBusy(ctx, func() error {
			var execErr error
			res, execErr = j.db.ExecContext(ctx, "DELETE FROM "+table)
			return execErr
		})
		if err != nil {
			return total, fmt.Errorf("clear %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("clear %s: rows affected: %w", table, err)
		}
		total += n
	}
	return total, nil
}

func applyFilter(query string, filter Filter) (string, []any) {
	var args []any
	if stage := strings.TrimSpace(filter.Stage); stage != "" {
		query += " WHERE stage = ?"
		args = append(args, stage)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)
	return query, args
}

func (j *Journal) execWithRetry(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := j.db.ExecContext(ctx, query, args...)
		return err
	})
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
