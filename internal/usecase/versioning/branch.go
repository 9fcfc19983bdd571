package versioning

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/Baldarello/localization-pro-sub001/internal/domain"
)

// CreateBranch forks a new branch from the head commit of the source
// branch. The new branch starts with working terms equal to the head's
// terms and a seed commit duplicating that content, so its log is never
// empty. The seed preserves the head's message, author and timestamp
// under a fresh commit id.
func (s *Service) CreateBranch(ctx context.Context, projectID int64, newName, sourceName, actor string) (*domain.Branch, error) {
	p, err := s.d.Projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	src, err := s.d.Branches.GetByName(ctx, p.ID, sourceName)
	if err != nil {
		if errors.Is(err, domain.ErrBranchNotFound) {
			return nil, errors.Wrapf(domain.ErrSourceBranchNotFound, "branch %q", sourceName)
		}
		return nil, err
	}
	head, err := s.d.Commits.Head(ctx, src.ID)
	if err != nil {
		return nil, err
	}
	return s.createSeeded(ctx, p, newName, head, actor)
}

// CreateBranchFromCommit forks a new branch seeded from an arbitrary
// historical commit of the project rather than a branch head.
func (s *Service) CreateBranchFromCommit(ctx context.Context, projectID int64, commitID int64, newName, actor string) (*domain.Branch, error) {
	p, err := s.d.Projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	c, err := s.d.Commits.Get(ctx, commitID)
	if err != nil {
		return nil, err
	}
	owner, err := s.d.Branches.Get(ctx, c.BranchID)
	if err != nil {
		return nil, err
	}
	if owner.ProjectID != p.ID {
		return nil, errors.Wrapf(domain.ErrCommitNotFound, "commit %d does not belong to project %d", commitID, p.ID)
	}
	return s.createSeeded(ctx, p, newName, c, actor)
}

func (s *Service) createSeeded(ctx context.Context, p *domain.Project, newName string, from *domain.Commit, actor string) (*domain.Branch, error) {
	b := &domain.Branch{ProjectID: p.ID, Name: newName}
	seed := &domain.Commit{CreatedAt: time.Now().UTC()}
	if from != nil {
		b.WorkingTerms = from.Terms.Clone()
		seed.Message = from.Message
		seed.AuthorID = from.AuthorID
		seed.Terms = from.Terms.Clone()
		seed.CreatedAt = from.CreatedAt
	} else {
		// Invariants say a source log is never empty, but an untouched
		// branch can be. Fall back to an empty snapshot.
		b.WorkingTerms = domain.Snapshot{}
		seed.Message = "Initial commit"
		seed.Terms = domain.Snapshot{}
	}
	if err := s.d.Branches.CreateWithSeed(ctx, b, seed); err != nil {
		return nil, err
	}
	if s.d.Emitter != nil {
		s.d.Emitter.Emit("branch.created", map[string]any{
			"project_id": p.ID,
			"branch":     b.Name,
			"actor":      actor,
		})
	}
	return b, nil
}

// DeleteBranch removes the branch and, by cascade, its commits. The
// main branch can never be deleted. The project's current branch
// pointer is deliberately left untouched even when it names the deleted
// branch; selecting a new branch is the caller's move.
func (s *Service) DeleteBranch(ctx context.Context, projectID int64, name, actor string) error {
	if name == domain.MainBranchName {
		return domain.ErrCannotDeleteMain
	}
	p, err := s.d.Projects.Get(ctx, projectID)
	if err != nil {
		return err
	}
	b, err := s.d.Branches.GetByName(ctx, p.ID, name)
	if err != nil {
		return err
	}
	if err := s.d.Branches.Delete(ctx, b.ID); err != nil {
		return err
	}
	if s.d.Emitter != nil {
		s.d.Emitter.Emit("branch.deleted", map[string]any{
			"project_id": p.ID,
			"branch":     name,
			"actor":      actor,
		})
	}
	return nil
}

// SwitchCurrentBranch repoints the project's current branch name
// unconditionally. The name is not verified against existing branches;
// term operations against a dangling pointer fail with BranchNotFound.
func (s *Service) SwitchCurrentBranch(ctx context.Context, projectID int64, name, actor string) error {
	p, err := s.d.Projects.Get(ctx, projectID)
	if err != nil {
		return err
	}
	if err := s.d.Projects.SetCurrentBranch(ctx, p.ID, name); err != nil {
		return err
	}
	if s.d.Emitter != nil {
		s.d.Emitter.Emit("branch.switched", map[string]any{
			"project_id": p.ID,
			"branch":     name,
			"actor":      actor,
		})
	}
	return nil
}

// ListBranches returns the project's branches.
func (s *Service) ListBranches(ctx context.Context, projectID int64) ([]*domain.Branch, error) {
	p, err := s.d.Projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.d.Branches.List(ctx, p.ID)
}

// ListCommits returns a branch's commits, newest first.
func (s *Service) ListCommits(ctx context.Context, projectID int64, branchName string) ([]*domain.Commit, error) {
	p, err := s.d.Projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	b, err := s.d.Branches.GetByName(ctx, p.ID, branchName)
	if err != nil {
		return nil, err
	}
	return s.d.Commits.ListByBranch(ctx, b.ID)
}
