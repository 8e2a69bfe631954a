package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	KindSummary    = "summary"
	KindExtraction = "extraction"
)

var ErrNotFound = errors.New("not found")

// Fixed width so created_at sorts lexically.
const tsLayout = "2006-01-02T15:04:05.000000Z07:00"

// Summary is one audited model exchange.
type Summary struct {
	ID         string          `json:"id"`
	ReportID   string          `json:"report_id"`
	ProspectID int64           `json:"prospect_id"`
	Kind       string          `json:"kind"`
	Model      string          `json:"model"`
	AsOf       string          `json:"as_of"`
	Transcript json.RawMessage `json:"transcript,omitempty"`
	Summary    string          `json:"summary"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

type SummaryInsert struct {
	ReportID   string
	ProspectID int64
	Kind       string
	Model      string
	AsOf       string
	Transcript any
	Summary    string
	Error      string
}

// InsertSummary stores a transcript and returns its new id.
func InsertSummary(ctx context.Context, db *sql.DB, s SummaryInsert) (string, error) {
	if s.Kind == "" {
		s.Kind = KindSummary
	}
	transcript, err := json.Marshal(s.Transcript)
	if err != nil {
		return "", fmt.Errorf("encode transcript: %w", err)
	}
	if string(transcript) == "null" {
		transcript = []byte("[]")
	}

	id := uuid.NewString()
	_, err = db.ExecContext(ctx, `
INSERT INTO summaries (id, report_id, prospect_id, kind, model, as_of, transcript, summary, error, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		id, s.ReportID, s.ProspectID, s.Kind, s.Model, s.AsOf, string(transcript), s.Summary, s.Error,
		time.Now().UTC().Format(tsLayout),
	)
	if err != nil {
		return "", fmt.Errorf("insert summary: %w", err)
	}
	return id, nil
}

func GetSummary(ctx context.Context, db *sql.DB, id string) (Summary, error) {
	row := db.QueryRowContext(ctx, `
SELECT id, report_id, prospect_id, kind, model, as_of, transcript, summary, error, created_at
FROM summaries
WHERE id = ?;`, id)

	s, err := scanSummary(row.Scan, true)
	if errors.Is(err, sql.ErrNoRows) {
		return Summary{}, fmt.Errorf("summary %s: %w", id, ErrNotFound)
	}
	return s, err
}

type ListSummariesOpts struct {
	ProspectID int64 // 0 lists all
	Limit      int
}

// ListSummaries returns newest first, without transcripts.
func ListSummaries(ctx context.Context, db *sql.DB, opts ListSummariesOpts) ([]Summary, error) {
	if opts.Limit <= 0 || opts.Limit > 500 {
		opts.Limit = 100
	}

	where, args := "", []any{}
	if opts.ProspectID != 0 {
		where = "WHERE prospect_id = ?"
		args = append(args, opts.ProspectID)
	}
	args = append(args, opts.Limit)

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`
SELECT id, report_id, prospect_id, kind, model, as_of, '', summary, error, created_at
FROM summaries
%s
ORDER BY created_at DESC
LIMIT ?;`, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		s, err := scanSummary(rows.Scan, false)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CleanupOldSummaries deletes summaries older than retention.
func CleanupOldSummaries(ctx context.Context, db *sql.DB, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention).Format(tsLayout)
	res, err := db.ExecContext(ctx, `DELETE FROM summaries WHERE created_at < ?;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup summaries: %w", err)
	}
	return res.RowsAffected()
}

func scanSummary(scan func(dest ...any) error, withTranscript bool) (Summary, error) {
	var (
		s          Summary
		transcript string
		created    string
	)
	if err := scan(&s.ID, &s.ReportID, &s.ProspectID, &s.Kind, &s.Model, &s.AsOf, &transcript, &s.Summary, &s.Error, &created); err != nil {
		return Summary{}, err
	}
	if withTranscript && transcript != "" {
		s.Transcript = json.RawMessage(transcript)
	}
	t, err := time.Parse(tsLayout, created)
	if err != nil {
		return Summary{}, fmt.Errorf("summary %s created_at: %w", s.ID, err)
	}
	s.CreatedAt = t
	return s, nil
}
