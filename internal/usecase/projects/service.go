// Package projects manages project aggregates, their language sets and
// their teams. The versioning engine consumes what this service
// maintains.
package projects

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Baldarello/localization-pro-sub001/internal/domain"
	"github.com/Baldarello/localization-pro-sub001/internal/ports"
)

type Deps struct {
	Projects ports.ProjectRepository
	Members  ports.MemberRepository
	Log      *zap.Logger
}

type Service struct{ d Deps }

func New(d Deps) *Service {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Service{d: d}
}

// Create creates a project together with its main branch and points the
// current branch at it.
func (s *Service) Create(ctx context.Context, name string, langs []domain.Language, defaultLang string) (*domain.Project, error) {
	if err := validateLanguages(langs, defaultLang); err != nil {
		return nil, err
	}
	p := &domain.Project{Name: name, Languages: langs, DefaultLanguage: defaultLang}
	if err := s.d.Projects.CreateWithMainBranch(ctx, p); err != nil {
		return nil, err
	}
	s.d.Log.Info("project created", zap.Int64("project_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Project, error) {
	return s.d.Projects.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*domain.Project, error) {
	return s.d.Projects.List(ctx)
}

func (s *Service) Rename(ctx context.Context, id int64, name string) (*domain.Project, error) {
	if err := s.d.Projects.Rename(ctx, id, name); err != nil {
		return nil, err
	}
	return s.d.Projects.Get(ctx, id)
}

// Delete removes the project; branches, commits and members go with it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.d.Projects.Get(ctx, id); err != nil {
		return err
	}
	return s.d.Projects.Delete(ctx, id)
}

// UpdateLanguages replaces the project's supported language set and
// default language. Translations for removed codes are stripped from
// the working terms of every branch in the same transaction: either the
// whole update lands or none of it does.
func (s *Service) UpdateLanguages(ctx context.Context, id int64, langs []domain.Language, defaultLang string) (*domain.Project, error) {
	if err := validateLanguages(langs, defaultLang); err != nil {
		return nil, err
	}
	p, err := s.d.Projects.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]struct{}, len(langs))
	for _, l := range langs {
		keep[l.Code] = struct{}{}
	}
	var removed []string
	for _, l := range p.Languages {
		if _, ok := keep[l.Code]; !ok {
			removed = append(removed, l.Code)
		}
	}
	if err := s.d.Projects.ReplaceLanguages(ctx, id, langs, defaultLang, removed); err != nil {
		return nil, err
	}
	if len(removed) > 0 {
		s.d.Log.Info("languages removed", zap.Int64("project_id", id), zap.Strings("codes", removed))
	}
	return s.d.Projects.Get(ctx, id)
}

func validateLanguages(langs []domain.Language, defaultLang string) error {
	seen := make(map[string]struct{}, len(langs))
	for _, l := range langs {
		if l.Code == "" {
			return errors.Wrap(domain.ErrInvalidInput, "language code must not be empty")
		}
		if _, dup := seen[l.Code]; dup {
			return errors.Wrapf(domain.ErrInvalidInput, "duplicate language code %q", l.Code)
		}
		seen[l.Code] = struct{}{}
	}
	if defaultLang == "" {
		if len(langs) > 0 {
			return errors.Wrap(domain.ErrInvalidInput, "default language is required when languages are set")
		}
		return nil
	}
	if _, ok := seen[defaultLang]; !ok {
		return errors.Wrapf(domain.ErrInvalidInput, "default language %q is not in the supported set", defaultLang)
	}
	return nil
}

// AddMember adds a team member to the project.
func (s *Service) AddMember(ctx context.Context, projectID int64, name, email string, notifyCommits bool) (*domain.Member, error) {
	if _, err := s.d.Projects.Get(ctx, projectID); err != nil {
		return nil, err
	}
	m := &domain.Member{ProjectID: projectID, Name: name, Email: email, NotifyCommits: notifyCommits}
	if err := s.d.Members.Add(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) ListMembers(ctx context.Context, projectID int64) ([]*domain.Member, error) {
	if _, err := s.d.Projects.Get(ctx, projectID); err != nil {
		return nil, err
	}
	return s.d.Members.ListByProject(ctx, projectID)
}

// RemoveMember removes a member. Historical commits authored by the
// member keep existing with a nulled author reference.
func (s *Service) RemoveMember(ctx context.Context, memberID int64) error {
	return s.d.Members.Remove(ctx, memberID)
}
