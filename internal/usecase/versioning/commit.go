package versioning

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Baldarello/localization-pro-sub001/internal/domain"
)

var commitMailTmpl = template.Must(template.New("commit").Parse(`<p>{{.Author}} committed to <b>{{.Branch}}</b> in project <b>{{.Project}}</b>:</p>
<blockquote>{{.Message}}</blockquote>`))

// CreateCommit freezes a deep copy of the branch's working terms into a
// new commit. The working terms are left unchanged and become the base
// for the next commit; committing with no changes since the last commit
// is permitted. Opted-in team members other than the author are
// notified by mail; mail failures never unwind the commit. actor is
// the caller-supplied identifier carried on the change event; authorID
// is the member recorded on the commit itself.
func (s *Service) CreateCommit(ctx context.Context, projectID int64, branchName, message string, authorID int64, actor string) (*domain.Commit, error) {
	p, err := s.d.Projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	b, err := s.d.Branches.GetByName(ctx, p.ID, branchName)
	if err != nil {
		return nil, err
	}
	c := &domain.Commit{
		BranchID:  b.ID,
		Message:   message,
		Terms:     b.WorkingTerms.Clone(),
		CreatedAt: time.Now().UTC(),
	}
	// A non-positive author id means an anonymous commit.
	if authorID > 0 {
		c.AuthorID = &authorID
	}
	if err := s.d.Commits.Create(ctx, c); err != nil {
		return nil, err
	}

	members, err := s.d.Members.ListByProject(ctx, p.ID)
	if err != nil {
		// Notification is best-effort once the commit is persisted.
		s.d.Log.Warn("commit mail: list members failed", zap.Int64("project_id", p.ID), zap.Error(err))
		members = nil
	}
	authorName := "anonymous"
	if authorID > 0 {
		authorName = fmt.Sprintf("member %d", authorID)
	}
	for _, m := range members {
		if m.ID == authorID {
			authorName = m.Name
			break
		}
	}
	c.AuthorName = authorName
	s.sendCommitMail(ctx, p, b, c, members, authorID)

	s.emitBranchChanged(p.ID, b.Name, actor)
	return c, nil
}

func (s *Service) sendCommitMail(ctx context.Context, p *domain.Project, b *domain.Branch, c *domain.Commit, members []*domain.Member, authorID int64) {
	if s.d.Mailer == nil {
		return
	}
	var body bytes.Buffer
	err := commitMailTmpl.Execute(&body, map[string]string{
		"Author":  c.AuthorName,
		"Branch":  b.Name,
		"Project": p.Name,
		"Message": c.Message,
	})
	if err != nil {
		s.d.Log.Warn("commit mail: render failed", zap.Error(err))
		return
	}
	subject := fmt.Sprintf("[%s] new commit on %s", p.Name, b.Name)
	for _, m := range members {
		if m.ID == authorID || !m.NotifyCommits {
			continue
		}
		if err := s.d.Mailer.Send(ctx, m.Email, subject, body.String()); err != nil {
			s.d.Log.Warn("commit mail: send failed",
				zap.String("to", m.Email), zap.Int64("commit_id", c.ID), zap.Error(err))
		}
	}
}

// RollbackLatestCommit deletes the branch's head commit and restores
// the working terms to the new head's terms, atomically. A branch with
// one or zero commits cannot be rolled back: the initial commit is
// never deletable.
func (s *Service) RollbackLatestCommit(ctx context.Context, projectID int64, branchName, actor string) error {
	p, err := s.d.Projects.Get(ctx, projectID)
	if err != nil {
		return err
	}
	b, err := s.d.Branches.GetByName(ctx, p.ID, branchName)
	if err != nil {
		return err
	}
	log, err := s.d.Commits.ListByBranch(ctx, b.ID)
	if err != nil {
		return err
	}
	if len(log) <= 1 {
		return errors.Wrapf(domain.ErrCannotRollback, "branch %q has %d commit(s)", b.Name, len(log))
	}
	head, prev := log[0], log[1]
	if err := s.d.Branches.RestoreHead(ctx, b.ID, head.ID, prev.Terms.Clone()); err != nil {
		return err
	}
	s.emitBranchChanged(p.ID, b.Name, actor)
	return nil
}
