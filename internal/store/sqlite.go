package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	apperrors "skillmatch/internal/errors"
	"skillmatch/internal/types"
)

// Store persists scored matches in SQLite. A nil *Store is valid and means
// history is disabled; all methods are no-ops on it.
type Store struct {
	db     *sql.DB
	logger *apperrors.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS match_history (
	id                TEXT PRIMARY KEY,
	created_at        TEXT NOT NULL,
	source            TEXT NOT NULL,
	overall_score     INTEGER NOT NULL,
	required_coverage REAL NOT NULL,
	bonus_coverage    REAL NOT NULL,
	matching_skills   TEXT NOT NULL,
	missing_skills    TEXT NOT NULL,
	result            TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_match_history_created_at ON match_history(created_at DESC);
`

// Open opens (or creates) the match history database at path. An empty path
// disables history and returns a nil store. ":memory:" is supported for tests.
func Open(path string, logger *apperrors.Logger) (*Store, error) {
	if path == "" {
		logger.Debug("Match history disabled, no database path configured")
		return nil, nil
	}

	dsn := path
	if path != ":memory:" {
		// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperrors.NewStorageError(apperrors.ErrCodeStorageFailed,
			"Failed to open match history database", err).WithContext("path", path)
	}

	// sqlite typically wants 1 writer
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError(apperrors.ErrCodeStorageFailed,
			"Failed to ping match history database", err).WithContext("path", path)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError(apperrors.ErrCodeStorageFailed,
			"Failed to create match history schema", err).WithContext("path", path)
	}

	logger.Info("Match history database opened", "path", path)

	return &Store{db: db, logger: logger}, nil
}

// SaveMatch persists one scored match and returns its generated record.
// Source identifies the caller ("api" or "cli").
func (s *Store) SaveMatch(ctx context.Context, result *types.MatchResult, source string) (*types.MatchRecord, error) {
	if s == nil {
		return nil, nil
	}
	if result == nil {
		return nil, apperrors.NewValidationError(apperrors.ErrCodeInvalidArgument,
			"Cannot persist a nil match result", nil)
	}

	record := &types.MatchRecord{
		ID:               uuid.NewString(),
		CreatedAt:        time.Now().UTC().Format(time.RFC3339),
		Source:           source,
		OverallScore:     result.OverallScore,
		RequiredCoverage: result.RequiredCoverage,
		BonusCoverage:    result.BonusCoverage,
		MatchingSkills:   result.MatchingSkills,
		MissingSkills:    result.MissingSkills,
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, apperrors.NewStorageError(apperrors.ErrCodeStorageFailed,
			"Failed to encode match result", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO match_history
			(id, created_at, source, overall_score, required_coverage, bonus_coverage, matching_skills, missing_skills, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.CreatedAt,
		record.Source,
		record.OverallScore,
		record.RequiredCoverage,
		record.BonusCoverage,
		encodeSkills(record.MatchingSkills),
		encodeSkills(record.MissingSkills),
		string(resultJSON),
	)
	if err != nil {
		return nil, apperrors.NewStorageError(apperrors.ErrCodeStorageFailed,
			"Failed to insert match record", err).WithContext("id", record.ID)
	}

	s.logger.Debug("Match record saved",
		"id", record.ID,
		"source", record.Source,
		"overall_score", record.OverallScore)

	return record, nil
}

// ListRecent returns up to limit match records, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]types.MatchRecord, error) {
	if s == nil {
		return []types.MatchRecord{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, source, overall_score, required_coverage, bonus_coverage, matching_skills, missing_skills
		FROM match_history
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, apperrors.NewStorageError(apperrors.ErrCodeStorageFailed,
			"Failed to query match history", err)
	}
	defer rows.Close()

	records := []types.MatchRecord{}
	for rows.Next() {
		var r types.MatchRecord
		var matching, missing string
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Source, &r.OverallScore,
			&r.RequiredCoverage, &r.BonusCoverage, &matching, &missing); err != nil {
			return nil, apperrors.NewStorageError(apperrors.ErrCodeStorageFailed,
				"Failed to scan match record", err)
		}
		r.MatchingSkills = decodeSkills(matching)
		r.MissingSkills = decodeSkills(missing)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError(apperrors.ErrCodeStorageFailed,
			"Failed to iterate match history", err)
	}

	return records, nil
}

// GetResult loads the full stored MatchResult for one record.
func (s *Store) GetResult(ctx context.Context, id string) (*types.MatchResult, error) {
	if s == nil {
		return nil, nil
	}

	var resultJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT result FROM match_history WHERE id = ?`, id).Scan(&resultJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError(apperrors.ErrCodeStorageFailed,
			"Failed to load match result", err).WithContext("id", id)
	}

	var result types.MatchResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, apperrors.NewStorageError(apperrors.ErrCodeStorageFailed,
			"Failed to decode stored match result", err).WithContext("id", id)
	}
	return &result, nil
}

// Ping reports whether the database is reachable, for health checks.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// Skill lists are stored newline-joined; skill names are normalized
// single-line strings so the encoding is unambiguous.
func encodeSkills(skills []string) string {
	return strings.Join(skills, "\n")
}

func decodeSkills(encoded string) []string {
	if encoded == "" {
		return []string{}
	}
	return strings.Split(encoded, "\n")
}
