package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/Baldarello/localization-pro-sub001/internal/domain"
)

type ProjectRepo struct{ *Repo }

func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{NewRepo(db)} }

func (r *ProjectRepo) CreateWithMainBranch(ctx context.Context, p *domain.Project) error {
	now := time.Now().UTC()
	langs, err := json.Marshal(langsOrEmpty(p.Languages))
	if err != nil {
		return errors.Wrap(err, "encode languages")
	}
	return WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		q := r.SQ.Insert("projects").
			Columns("name", "languages", "default_language", "current_branch", "created_at", "updated_at").
			Values(p.Name, string(langs), p.DefaultLanguage, domain.MainBranchName, fmtTime(now), fmtTime(now))
		sqlStr, args, _ := q.ToSql()
		res, err := tx.ExecContext(ctx, sqlStr, args...)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		bq := r.SQ.Insert("branches").
			Columns("project_id", "name", "working_terms", "created_at", "updated_at").
			Values(id, domain.MainBranchName, "[]", fmtTime(now), fmtTime(now))
		sqlStr, args, _ = bq.ToSql()
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
		p.ID = id
		p.CurrentBranch = domain.MainBranchName
		p.CreatedAt = now
		p.UpdatedAt = now
		return nil
	})
}

func (r *ProjectRepo) Get(ctx context.Context, id int64) (*domain.Project, error) {
	q := r.SQ.Select("id", "name", "languages", "default_language", "current_branch", "created_at", "updated_at").
		From("projects").Where(sq.Eq{"id": id})
	sqlStr, args, _ := q.ToSql()
	return r.scanProject(r.DB.QueryRowContext(ctx, sqlStr, args...))
}

func (r *ProjectRepo) List(ctx context.Context) ([]*domain.Project, error) {
	q := r.SQ.Select("id", "name", "languages", "default_language", "current_branch", "created_at", "updated_at").
		From("projects").OrderBy("id")
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Project
	for rows.Next() {
		p, err := r.scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProjectRepo) Rename(ctx context.Context, id int64, name string) error {
	q := r.SQ.Update("projects").Set("name", name).Set("updated_at", fmtTime(time.Now())).
		Where(sq.Eq{"id": id})
	sqlStr, args, _ := q.ToSql()
	res, err := r.DB.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	return checkFound(res, domain.ErrProjectNotFound)
}

func (r *ProjectRepo) Delete(ctx context.Context, id int64) error {
	q := r.SQ.Delete("projects").Where(sq.Eq{"id": id})
	sqlStr, args, _ := q.ToSql()
	_, err := r.DB.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ProjectRepo) SetCurrentBranch(ctx context.Context, id int64, name string) error {
	q := r.SQ.Update("projects").Set("current_branch", name).Set("updated_at", fmtTime(time.Now())).
		Where(sq.Eq{"id": id})
	sqlStr, args, _ := q.ToSql()
	res, err := r.DB.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	return checkFound(res, domain.ErrProjectNotFound)
}

// ReplaceLanguages rewrites the language set and prunes translations
// for removed codes from every branch's working terms. All writes share
// one transaction: either every branch is pruned or none is.
func (r *ProjectRepo) ReplaceLanguages(ctx context.Context, id int64, langs []domain.Language, defaultCode string, removedCodes []string) error {
	encoded, err := json.Marshal(langsOrEmpty(langs))
	if err != nil {
		return errors.Wrap(err, "encode languages")
	}
	now := fmtTime(time.Now())
	return WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		q := r.SQ.Update("projects").
			Set("languages", string(encoded)).
			Set("default_language", defaultCode).
			Set("updated_at", now).
			Where(sq.Eq{"id": id})
		sqlStr, args, _ := q.ToSql()
		res, err := tx.ExecContext(ctx, sqlStr, args...)
		if err != nil {
			return err
		}
		if err := checkFound(res, domain.ErrProjectNotFound); err != nil {
			return err
		}
		if len(removedCodes) == 0 {
			return nil
		}
		sel := r.SQ.Select("id", "working_terms").From("branches").Where(sq.Eq{"project_id": id})
		sqlStr, args, _ = sel.ToSql()
		rows, err := tx.QueryContext(ctx, sqlStr, args...)
		if err != nil {
			return err
		}
		type branchTerms struct {
			id    int64
			terms domain.Snapshot
		}
		var pending []branchTerms
		for rows.Next() {
			var bid int64
			var raw string
			if err := rows.Scan(&bid, &raw); err != nil {
				rows.Close()
				return err
			}
			terms, err := decodeTerms(raw)
			if err != nil {
				rows.Close()
				return err
			}
			if stripped, changed := terms.StripLanguages(removedCodes); changed {
				pending = append(pending, branchTerms{id: bid, terms: stripped})
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		for _, b := range pending {
			raw, err := encodeTerms(b.terms)
			if err != nil {
				return err
			}
			uq := r.SQ.Update("branches").Set("working_terms", raw).Set("updated_at", now).
				Where(sq.Eq{"id": b.id})
			sqlStr, args, _ := uq.ToSql()
			if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
				return err
			}
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ProjectRepo) scanProject(row rowScanner) (*domain.Project, error) {
	var p domain.Project
	var langs, created, updated string
	if err := row.Scan(&p.ID, &p.Name, &langs, &p.DefaultLanguage, &p.CurrentBranch, &created, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrProjectNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(langs), &p.Languages); err != nil {
		return nil, errors.Wrap(err, "decode languages")
	}
	var err error
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &p, nil
}

func langsOrEmpty(langs []domain.Language) []domain.Language {
	if langs == nil {
		return []domain.Language{}
	}
	return langs
}

func checkFound(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
