package versioning

import (
	"context"

	"github.com/Baldarello/localization-pro-sub001/internal/domain"
)

// MergeBranches merges the source branch's head commit terms into the
// target branch's working terms: union with source precedence, keyed by
// term id. The target's order is preserved and source-only terms are
// appended. No conflict is ever detected; when both branches carry the
// same term id the source's version silently wins. The result lands in
// the target's working terms only and must be committed explicitly by
// the caller.
func (s *Service) MergeBranches(ctx context.Context, projectID int64, sourceName, targetName, actor string) error {
	p, err := s.d.Projects.Get(ctx, projectID)
	if err != nil {
		return err
	}
	src, err := s.d.Branches.GetByName(ctx, p.ID, sourceName)
	if err != nil {
		return err
	}
	tgt, err := s.d.Branches.GetByName(ctx, p.ID, targetName)
	if err != nil {
		return err
	}
	head, err := s.d.Commits.Head(ctx, src.ID)
	if err != nil {
		return err
	}
	_, err = s.d.Branches.MutateWorkingTerms(ctx, tgt.ID, func(terms domain.Snapshot) (domain.Snapshot, bool, error) {
		if head == nil {
			return terms, true, nil
		}
		return terms.Merge(head.Terms), true, nil
	})
	if err != nil {
		return err
	}
	s.emitBranchChanged(p.ID, tgt.Name, actor)
	return nil
}
