package ports

import (
	"context"

	"github.com/Baldarello/localization-pro-sub001/internal/domain"
)

// ProjectRepository persists project aggregates. Lookups return
// domain.ErrProjectNotFound when the id is unknown.
type ProjectRepository interface {
	// CreateWithMainBranch creates the project together with its main
	// branch (empty working terms) in one transaction and points
	// CurrentBranch at it.
	CreateWithMainBranch(ctx context.Context, p *domain.Project) error
	Get(ctx context.Context, id int64) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
	Rename(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
	// SetCurrentBranch repoints the project's current branch name. The
	// name is not validated against existing branches.
	SetCurrentBranch(ctx context.Context, id int64, name string) error
	// ReplaceLanguages swaps the supported language set and default
	// language, and strips translations for the removed codes from the
	// working terms of every branch of the project, all in one
	// transaction.
	ReplaceLanguages(ctx context.Context, id int64, langs []domain.Language, defaultCode string, removedCodes []string) error
}

// BranchRepository persists branches and their working snapshots.
// Lookups return domain.ErrBranchNotFound when absent.
type BranchRepository interface {
	Get(ctx context.Context, id int64) (*domain.Branch, error)
	GetByName(ctx context.Context, projectID int64, name string) (*domain.Branch, error)
	List(ctx context.Context, projectID int64) ([]*domain.Branch, error)
	// UpdateWorkingTerms replaces the working snapshot wholesale in a
	// single write. Use MutateWorkingTerms for read-modify-write
	// mutations.
	UpdateWorkingTerms(ctx context.Context, branchID int64, terms domain.Snapshot) error
	// MutateWorkingTerms applies mutate to the branch's current working
	// snapshot and persists the result, with the read and the write in
	// one write transaction so concurrent mutations of the same branch
	// serialize instead of overwriting each other. mutate reports
	// whether anything changed; unchanged snapshots are not written.
	// Returns whether a write happened.
	MutateWorkingTerms(ctx context.Context, branchID int64, mutate func(domain.Snapshot) (domain.Snapshot, bool, error)) (bool, error)
	// CreateWithSeed creates the branch and its seed commit in one
	// transaction. Returns domain.ErrBranchNameExists when the
	// (project, name) uniqueness constraint is violated.
	CreateWithSeed(ctx context.Context, b *domain.Branch, seed *domain.Commit) error
	Delete(ctx context.Context, branchID int64) error
	// RestoreHead deletes the given head commit and replaces the
	// branch's working terms in one transaction. Partial application is
	// never observable.
	RestoreHead(ctx context.Context, branchID, commitID int64, working domain.Snapshot) error
}

// CommitRepository persists immutable commits. Commits are ordered
// newest-first by timestamp (creation id breaks ties).
type CommitRepository interface {
	Create(ctx context.Context, c *domain.Commit) error
	Get(ctx context.Context, id int64) (*domain.Commit, error)
	ListByBranch(ctx context.Context, branchID int64) ([]*domain.Commit, error)
	// Head returns the newest commit of the branch, or nil when the log
	// is empty.
	Head(ctx context.Context, branchID int64) (*domain.Commit, error)
}

// MemberRepository manages the project team. The versioning core only
// reads it to resolve authors and mail recipients.
type MemberRepository interface {
	Add(ctx context.Context, m *domain.Member) error
	Get(ctx context.Context, id int64) (*domain.Member, error)
	ListByProject(ctx context.Context, projectID int64) ([]*domain.Member, error)
	Remove(ctx context.Context, id int64) error
}
