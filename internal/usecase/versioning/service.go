// Package versioning implements the branch/commit/merge engine over
// localization terms. All operations re-read authoritative state from
// the store before mutating it; working-snapshot mutations run their
// read and write in one store transaction so same-branch callers
// serialize. Change events are emitted only after the mutation has
// been persisted.
package versioning

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Baldarello/localization-pro-sub001/internal/domain"
	"github.com/Baldarello/localization-pro-sub001/internal/ports"
)

type Deps struct {
	Projects ports.ProjectRepository
	Branches ports.BranchRepository
	Commits  ports.CommitRepository
	Members  ports.MemberRepository
	Mailer   ports.Mailer
	Emitter  ports.EventEmitter
	Log      *zap.Logger
}

type Service struct{ d Deps }

func New(d Deps) *Service {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Service{d: d}
}

// resolveCurrentBranch loads the project and the branch its
// CurrentBranch pointer names. A missing branch is a data integrity
// fault surfaced as ErrBranchNotFound.
func (s *Service) resolveCurrentBranch(ctx context.Context, projectID int64) (*domain.Project, *domain.Branch, error) {
	p, err := s.d.Projects.Get(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.d.Branches.GetByName(ctx, p.ID, p.CurrentBranch)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "current branch %q", p.CurrentBranch)
	}
	return p, b, nil
}

func (s *Service) emitBranchChanged(projectID int64, branch, actor string) {
	if s.d.Emitter == nil {
		return
	}
	s.d.Emitter.Emit("branch.changed", map[string]any{
		"project_id": projectID,
		"branch":     branch,
		"actor":      actor,
	})
}

// ListTerms returns the working terms of the current branch.
func (s *Service) ListTerms(ctx context.Context, projectID int64) (domain.Snapshot, error) {
	_, b, err := s.resolveCurrentBranch(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return b.WorkingTerms, nil
}

// AddTerm appends a new term with a fresh id and empty translations to
// the current branch's working terms.
func (s *Service) AddTerm(ctx context.Context, projectID int64, actor, text string) (*domain.Term, error) {
	p, b, err := s.resolveCurrentBranch(ctx, projectID)
	if err != nil {
		return nil, err
	}
	t := domain.Term{ID: domain.NewTermID(), Text: text, Translations: map[string]string{}}
	_, err = s.d.Branches.MutateWorkingTerms(ctx, b.ID, func(terms domain.Snapshot) (domain.Snapshot, bool, error) {
		return append(terms.Clone(), t), true, nil
	})
	if err != nil {
		return nil, err
	}
	s.emitBranchChanged(p.ID, b.Name, actor)
	return &t, nil
}

// UpdateTermText replaces the text of the term with the given id. A
// missing id is a silent no-op: nothing is persisted and no event is
// emitted.
func (s *Service) UpdateTermText(ctx context.Context, projectID int64, actor, termID, text string) error {
	return s.updateTerm(ctx, projectID, actor, termID, func(t domain.Term) domain.Term {
		t.Text = text
		return t
	})
}

// UpdateTermContext replaces the context of the term with the given id.
// Missing ids no-op silently.
func (s *Service) UpdateTermContext(ctx context.Context, projectID int64, actor, termID, termContext string) error {
	return s.updateTerm(ctx, projectID, actor, termID, func(t domain.Term) domain.Term {
		t.Context = termContext
		return t
	})
}

// UpdateTranslation sets the translation of the term for the given
// language code. The code is not validated against the project's
// supported languages; that is the caller's responsibility. Missing
// term ids no-op silently.
func (s *Service) UpdateTranslation(ctx context.Context, projectID int64, actor, termID, langCode, value string) error {
	return s.updateTerm(ctx, projectID, actor, termID, func(t domain.Term) domain.Term {
		t = t.Clone()
		if t.Translations == nil {
			t.Translations = map[string]string{}
		}
		t.Translations[langCode] = value
		return t
	})
}

// UpdateTerm patches the term's text and/or context as one mutation
// with a single change event. Nil fields are left alone; missing ids
// no-op silently.
func (s *Service) UpdateTerm(ctx context.Context, projectID int64, actor, termID string, text, termContext *string) error {
	if text == nil && termContext == nil {
		return nil
	}
	return s.updateTerm(ctx, projectID, actor, termID, func(t domain.Term) domain.Term {
		if text != nil {
			t.Text = *text
		}
		if termContext != nil {
			t.Context = *termContext
		}
		return t
	})
}

func (s *Service) updateTerm(ctx context.Context, projectID int64, actor, termID string, apply func(domain.Term) domain.Term) error {
	p, b, err := s.resolveCurrentBranch(ctx, projectID)
	if err != nil {
		return err
	}
	changed, err := s.d.Branches.MutateWorkingTerms(ctx, b.ID, func(terms domain.Snapshot) (domain.Snapshot, bool, error) {
		idx, ok := terms.Index()[termID]
		if !ok {
			return terms, false, nil
		}
		next := terms.Clone()
		next[idx] = apply(next[idx])
		return next, true, nil
	})
	if err != nil {
		return err
	}
	if changed {
		s.emitBranchChanged(p.ID, b.Name, actor)
	}
	return nil
}

// DeleteTerm removes the term with the given id from the working terms.
// Missing ids no-op silently.
func (s *Service) DeleteTerm(ctx context.Context, projectID int64, actor, termID string) error {
	p, b, err := s.resolveCurrentBranch(ctx, projectID)
	if err != nil {
		return err
	}
	changed, err := s.d.Branches.MutateWorkingTerms(ctx, b.ID, func(terms domain.Snapshot) (domain.Snapshot, bool, error) {
		idx, ok := terms.Index()[termID]
		if !ok {
			return terms, false, nil
		}
		next := terms.Clone()
		return append(next[:idx], next[idx+1:]...), true, nil
	})
	if err != nil {
		return err
	}
	if changed {
		s.emitBranchChanged(p.ID, b.Name, actor)
	}
	return nil
}

// BulkReplaceTerms replaces the entire working snapshot atomically with
// the given sequence. No diffing against the prior state is performed.
// Terms without an id get a fresh one; duplicate ids are rejected.
func (s *Service) BulkReplaceTerms(ctx context.Context, projectID int64, actor string, terms []domain.Term) (domain.Snapshot, error) {
	p, b, err := s.resolveCurrentBranch(ctx, projectID)
	if err != nil {
		return nil, err
	}
	next := make(domain.Snapshot, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		t = t.Clone()
		if t.ID == "" {
			t.ID = domain.NewTermID()
		}
		if _, dup := seen[t.ID]; dup {
			return nil, errors.Wrapf(domain.ErrInvalidInput, "duplicate term id %q", t.ID)
		}
		seen[t.ID] = struct{}{}
		if t.Translations == nil {
			t.Translations = map[string]string{}
		}
		next = append(next, t)
	}
	if err := s.d.Branches.UpdateWorkingTerms(ctx, b.ID, next); err != nil {
		return nil, err
	}
	s.emitBranchChanged(p.ID, b.Name, actor)
	return next, nil
}
