package sqlite

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/Baldarello/localization-pro-sub001/internal/domain"
)

type MemberRepo struct{ *Repo }

func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{NewRepo(db)} }

func (r *MemberRepo) Add(ctx context.Context, m *domain.Member) error {
	now := time.Now().UTC()
	q := r.SQ.Insert("project_members").
		Columns("project_id", "name", "email", "notify_commits", "created_at").
		Values(m.ProjectID, m.Name, m.Email, m.NotifyCommits, fmtTime(now))
	sqlStr, args, _ := q.ToSql()
	res, err := r.DB.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = id
	m.CreatedAt = now
	return nil
}

func (r *MemberRepo) Get(ctx context.Context, id int64) (*domain.Member, error) {
	q := r.selectMember().Where(sq.Eq{"id": id})
	sqlStr, args, _ := q.ToSql()
	return r.scanMember(r.DB.QueryRowContext(ctx, sqlStr, args...))
}

func (r *MemberRepo) ListByProject(ctx context.Context, projectID int64) ([]*domain.Member, error) {
	q := r.selectMember().Where(sq.Eq{"project_id": projectID}).OrderBy("name")
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Member
	for rows.Next() {
		m, err := r.scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MemberRepo) Remove(ctx context.Context, id int64) error {
	q := r.SQ.Delete("project_members").Where(sq.Eq{"id": id})
	sqlStr, args, _ := q.ToSql()
	_, err := r.DB.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *MemberRepo) selectMember() sq.SelectBuilder {
	return r.SQ.Select("id", "project_id", "name", "email", "notify_commits", "created_at").From("project_members")
}

func (r *MemberRepo) scanMember(row rowScanner) (*domain.Member, error) {
	var m domain.Member
	var created string
	if err := row.Scan(&m.ID, &m.ProjectID, &m.Name, &m.Email, &m.NotifyCommits, &created); err != nil {
		return nil, err
	}
	var err error
	if m.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &m, nil
}
