package sqlite

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/Baldarello/localization-pro-sub001/internal/domain"
)

type CommitRepo struct{ *Repo }

func NewCommitRepo(db *sql.DB) *CommitRepo { return &CommitRepo{NewRepo(db)} }

func (r *CommitRepo) Create(ctx context.Context, c *domain.Commit) error {
	raw, err := encodeTerms(c.Terms)
	if err != nil {
		return err
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	q := r.SQ.Insert("commits").
		Columns("branch_id", "message", "author_id", "terms", "created_at").
		Values(c.BranchID, c.Message, c.AuthorID, raw, fmtTime(c.CreatedAt))
	sqlStr, args, _ := q.ToSql()
	res, err := r.DB.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (r *CommitRepo) Get(ctx context.Context, id int64) (*domain.Commit, error) {
	q := r.selectCommit().Where(sq.Eq{"c.id": id})
	sqlStr, args, _ := q.ToSql()
	return r.scanCommit(r.DB.QueryRowContext(ctx, sqlStr, args...))
}

// ListByBranch returns commits newest-first. Insertion id breaks ties
// between commits sharing a timestamp.
func (r *CommitRepo) ListByBranch(ctx context.Context, branchID int64) ([]*domain.Commit, error) {
	q := r.selectCommit().Where(sq.Eq{"c.branch_id": branchID}).OrderBy("c.created_at DESC", "c.id DESC")
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Commit
	for rows.Next() {
		c, err := r.scanCommit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CommitRepo) Head(ctx context.Context, branchID int64) (*domain.Commit, error) {
	q := r.selectCommit().Where(sq.Eq{"c.branch_id": branchID}).OrderBy("c.created_at DESC", "c.id DESC").Limit(1)
	sqlStr, args, _ := q.ToSql()
	c, err := r.scanCommit(r.DB.QueryRowContext(ctx, sqlStr, args...))
	if err == domain.ErrCommitNotFound {
		return nil, nil
	}
	return c, err
}

func (r *CommitRepo) selectCommit() sq.SelectBuilder {
	return r.SQ.Select("c.id", "c.branch_id", "c.message", "c.author_id", "m.name", "c.terms", "c.created_at").
		From("commits c").LeftJoin("project_members m ON m.id = c.author_id")
}

func (r *CommitRepo) scanCommit(row rowScanner) (*domain.Commit, error) {
	var c domain.Commit
	var raw, created string
	var authorID sql.NullInt64
	var authorName sql.NullString
	if err := row.Scan(&c.ID, &c.BranchID, &c.Message, &authorID, &authorName, &raw, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrCommitNotFound
		}
		return nil, err
	}
	if authorID.Valid {
		v := authorID.Int64
		c.AuthorID = &v
	}
	if authorName.Valid {
		c.AuthorName = authorName.String
	}
	terms, err := decodeTerms(raw)
	if err != nil {
		return nil, err
	}
	c.Terms = terms
	if c.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &c, nil
}
