package sqlite

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/Baldarello/localization-pro-sub001/internal/domain"
)

type BranchRepo struct{ *Repo }

func NewBranchRepo(db *sql.DB) *BranchRepo { return &BranchRepo{NewRepo(db)} }

func (r *BranchRepo) Get(ctx context.Context, id int64) (*domain.Branch, error) {
	q := r.selectBranch().Where(sq.Eq{"id": id})
	sqlStr, args, _ := q.ToSql()
	return r.scanBranch(r.DB.QueryRowContext(ctx, sqlStr, args...))
}

func (r *BranchRepo) GetByName(ctx context.Context, projectID int64, name string) (*domain.Branch, error) {
	q := r.selectBranch().Where(sq.Eq{"project_id": projectID, "name": name})
	sqlStr, args, _ := q.ToSql()
	return r.scanBranch(r.DB.QueryRowContext(ctx, sqlStr, args...))
}

func (r *BranchRepo) List(ctx context.Context, projectID int64) ([]*domain.Branch, error) {
	q := r.selectBranch().Where(sq.Eq{"project_id": projectID}).OrderBy("name")
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Branch
	for rows.Next() {
		b, err := r.scanBranch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BranchRepo) UpdateWorkingTerms(ctx context.Context, branchID int64, terms domain.Snapshot) error {
	raw, err := encodeTerms(terms)
	if err != nil {
		return err
	}
	q := r.SQ.Update("branches").Set("working_terms", raw).Set("updated_at", fmtTime(time.Now())).
		Where(sq.Eq{"id": branchID})
	sqlStr, args, _ := q.ToSql()
	res, err := r.DB.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	return checkFound(res, domain.ErrBranchNotFound)
}

// MutateWorkingTerms re-reads the snapshot and writes the mutated one
// inside a single write transaction. Two concurrent mutations of the
// same branch serialize on the transaction; neither can overwrite the
// other's append.
func (r *BranchRepo) MutateWorkingTerms(ctx context.Context, branchID int64, mutate func(domain.Snapshot) (domain.Snapshot, bool, error)) (bool, error) {
	var wrote bool
	err := WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		q := r.SQ.Select("working_terms").From("branches").Where(sq.Eq{"id": branchID})
		sqlStr, args, _ := q.ToSql()
		var raw string
		if err := tx.QueryRowContext(ctx, sqlStr, args...).Scan(&raw); err != nil {
			if err == sql.ErrNoRows {
				return domain.ErrBranchNotFound
			}
			return err
		}
		terms, err := decodeTerms(raw)
		if err != nil {
			return err
		}
		next, changed, err := mutate(terms)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		out, err := encodeTerms(next)
		if err != nil {
			return err
		}
		uq := r.SQ.Update("branches").Set("working_terms", out).Set("updated_at", fmtTime(time.Now())).
			Where(sq.Eq{"id": branchID})
		sqlStr, args, _ = uq.ToSql()
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
		wrote = true
		return nil
	})
	return wrote, err
}

// CreateWithSeed inserts the branch and its seed commit in one
// transaction so every branch's log is non-empty from the moment the
// branch is visible.
func (r *BranchRepo) CreateWithSeed(ctx context.Context, b *domain.Branch, seed *domain.Commit) error {
	now := time.Now().UTC()
	working, err := encodeTerms(b.WorkingTerms)
	if err != nil {
		return err
	}
	seedTerms, err := encodeTerms(seed.Terms)
	if err != nil {
		return err
	}
	err = WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		q := r.SQ.Insert("branches").
			Columns("project_id", "name", "working_terms", "created_at", "updated_at").
			Values(b.ProjectID, b.Name, working, fmtTime(now), fmtTime(now))
		sqlStr, args, _ := q.ToSql()
		res, err := tx.ExecContext(ctx, sqlStr, args...)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		cq := r.SQ.Insert("commits").
			Columns("branch_id", "message", "author_id", "terms", "created_at").
			Values(id, seed.Message, seed.AuthorID, seedTerms, fmtTime(seed.CreatedAt))
		sqlStr, args, _ = cq.ToSql()
		cres, err := tx.ExecContext(ctx, sqlStr, args...)
		if err != nil {
			return err
		}
		cid, err := cres.LastInsertId()
		if err != nil {
			return err
		}
		b.ID = id
		b.CreatedAt = now
		b.UpdatedAt = now
		seed.ID = cid
		seed.BranchID = id
		return nil
	})
	if isUniqueViolation(err) {
		return domain.ErrBranchNameExists
	}
	return err
}

func (r *BranchRepo) Delete(ctx context.Context, branchID int64) error {
	q := r.SQ.Delete("branches").Where(sq.Eq{"id": branchID})
	sqlStr, args, _ := q.ToSql()
	res, err := r.DB.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	return checkFound(res, domain.ErrBranchNotFound)
}

// RestoreHead deletes the head commit and replaces the working terms in
// one transaction. Either both happen or neither does.
func (r *BranchRepo) RestoreHead(ctx context.Context, branchID, commitID int64, working domain.Snapshot) error {
	raw, err := encodeTerms(working)
	if err != nil {
		return err
	}
	now := fmtTime(time.Now())
	return WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		dq := r.SQ.Delete("commits").Where(sq.Eq{"id": commitID, "branch_id": branchID})
		sqlStr, args, _ := dq.ToSql()
		res, err := tx.ExecContext(ctx, sqlStr, args...)
		if err != nil {
			return err
		}
		if err := checkFound(res, domain.ErrCommitNotFound); err != nil {
			return err
		}
		uq := r.SQ.Update("branches").Set("working_terms", raw).Set("updated_at", now).
			Where(sq.Eq{"id": branchID})
		sqlStr, args, _ = uq.ToSql()
		res, err = tx.ExecContext(ctx, sqlStr, args...)
		if err != nil {
			return err
		}
		return checkFound(res, domain.ErrBranchNotFound)
	})
}

func (r *BranchRepo) selectBranch() sq.SelectBuilder {
	return r.SQ.Select("id", "project_id", "name", "working_terms", "created_at", "updated_at").From("branches")
}

func (r *BranchRepo) scanBranch(row rowScanner) (*domain.Branch, error) {
	var b domain.Branch
	var raw, created, updated string
	if err := row.Scan(&b.ID, &b.ProjectID, &b.Name, &raw, &created, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrBranchNotFound
		}
		return nil, err
	}
	terms, err := decodeTerms(raw)
	if err != nil {
		return nil, err
	}
	b.WorkingTerms = terms
	if b.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &b, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := err.(sqlite3.Error); ok {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
