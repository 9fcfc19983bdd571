package sqlite

import (
	"database/sql"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/Baldarello/localization-pro-sub001/internal/domain"
)

// Repo provides a base for Squirrel-based repositories.
type Repo struct {
	DB *sql.DB
	SQ sq.StatementBuilderType
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db, SQ: sq.StatementBuilder}
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse time %q", s)
	}
	return t, nil
}

// encodeTerms serializes a snapshot for storage. Snapshots are stored
// whole so replace-wholesale and deep-copy semantics are single-row
// writes.
func encodeTerms(s domain.Snapshot) (string, error) {
	if s == nil {
		s = domain.Snapshot{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeTerms(raw string) (domain.Snapshot, error) {
	if raw == "" {
		return domain.Snapshot{}, nil
	}
	var s domain.Snapshot
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, err
	}
	return s, nil
}
