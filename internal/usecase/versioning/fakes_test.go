package versioning

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Baldarello/localization-pro-sub001/internal/domain"
)

// fakeStore is an in-memory stand-in for the sqlite adapter. It deep
// copies snapshots across its boundary the way a real store would, so
// immutability properties are actually exercised.
type fakeStore struct {
	mu       sync.Mutex
	projects map[int64]*domain.Project
	branches map[int64]*domain.Branch
	commits  map[int64]*domain.Commit
	members  map[int64]*domain.Member
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects: map[int64]*domain.Project{},
		branches: map[int64]*domain.Branch{},
		commits:  map[int64]*domain.Commit{},
		members:  map[int64]*domain.Member{},
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func copyBranch(b *domain.Branch) *domain.Branch {
	c := *b
	c.WorkingTerms = b.WorkingTerms.Clone()
	return &c
}

func copyCommit(c *domain.Commit) *domain.Commit {
	d := *c
	d.Terms = c.Terms.Clone()
	if c.AuthorID != nil {
		v := *c.AuthorID
		d.AuthorID = &v
	}
	return &d
}

type fakeProjects struct{ s *fakeStore }

func (r *fakeProjects) CreateWithMainBranch(ctx context.Context, p *domain.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p.ID = r.s.id()
	p.CurrentBranch = domain.MainBranchName
	cp := *p
	r.s.projects[p.ID] = &cp
	bid := r.s.id()
	r.s.branches[bid] = &domain.Branch{ID: bid, ProjectID: p.ID, Name: domain.MainBranchName, WorkingTerms: domain.Snapshot{}}
	return nil
}

func (r *fakeProjects) Get(ctx context.Context, id int64) (*domain.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProjects) List(ctx context.Context) ([]*domain.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Project
	for _, p := range r.s.projects {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeProjects) Rename(ctx context.Context, id int64, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[id]
	if !ok {
		return domain.ErrProjectNotFound
	}
	p.Name = name
	return nil
}

func (r *fakeProjects) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.projects, id)
	for bid, b := range r.s.branches {
		if b.ProjectID == id {
			delete(r.s.branches, bid)
			for cid, c := range r.s.commits {
				if c.BranchID == bid {
					delete(r.s.commits, cid)
				}
			}
		}
	}
	return nil
}

func (r *fakeProjects) SetCurrentBranch(ctx context.Context, id int64, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[id]
	if !ok {
		return domain.ErrProjectNotFound
	}
	p.CurrentBranch = name
	return nil
}

func (r *fakeProjects) ReplaceLanguages(ctx context.Context, id int64, langs []domain.Language, defaultCode string, removedCodes []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[id]
	if !ok {
		return domain.ErrProjectNotFound
	}
	p.Languages = langs
	p.DefaultLanguage = defaultCode
	for _, b := range r.s.branches {
		if b.ProjectID != id {
			continue
		}
		if stripped, changed := b.WorkingTerms.StripLanguages(removedCodes); changed {
			b.WorkingTerms = stripped
		}
	}
	return nil
}

type fakeBranches struct {
	s *fakeStore
	// failUpdate makes UpdateWorkingTerms fail, for checking that no
	// event is emitted when persistence fails.
	failUpdate error
}

func (r *fakeBranches) Get(ctx context.Context, id int64) (*domain.Branch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.branches[id]
	if !ok {
		return nil, domain.ErrBranchNotFound
	}
	return copyBranch(b), nil
}

func (r *fakeBranches) GetByName(ctx context.Context, projectID int64, name string) (*domain.Branch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.branches {
		if b.ProjectID == projectID && b.Name == name {
			return copyBranch(b), nil
		}
	}
	return nil, domain.ErrBranchNotFound
}

func (r *fakeBranches) List(ctx context.Context, projectID int64) ([]*domain.Branch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Branch
	for _, b := range r.s.branches {
		if b.ProjectID == projectID {
			out = append(out, copyBranch(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeBranches) UpdateWorkingTerms(ctx context.Context, branchID int64, terms domain.Snapshot) error {
	if r.failUpdate != nil {
		return r.failUpdate
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.branches[branchID]
	if !ok {
		return domain.ErrBranchNotFound
	}
	b.WorkingTerms = terms.Clone()
	return nil
}

func (r *fakeBranches) MutateWorkingTerms(ctx context.Context, branchID int64, mutate func(domain.Snapshot) (domain.Snapshot, bool, error)) (bool, error) {
	if r.failUpdate != nil {
		return false, r.failUpdate
	}
	// The lock spans the read and the write, mirroring the adapter's
	// single transaction.
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.branches[branchID]
	if !ok {
		return false, domain.ErrBranchNotFound
	}
	next, changed, err := mutate(b.WorkingTerms.Clone())
	if err != nil || !changed {
		return false, err
	}
	b.WorkingTerms = next.Clone()
	return true, nil
}

func (r *fakeBranches) CreateWithSeed(ctx context.Context, b *domain.Branch, seed *domain.Commit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.branches {
		if existing.ProjectID == b.ProjectID && existing.Name == b.Name {
			return domain.ErrBranchNameExists
		}
	}
	b.ID = r.s.id()
	r.s.branches[b.ID] = copyBranch(b)
	seed.ID = r.s.id()
	seed.BranchID = b.ID
	r.s.commits[seed.ID] = copyCommit(seed)
	return nil
}

func (r *fakeBranches) Delete(ctx context.Context, branchID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.branches[branchID]; !ok {
		return domain.ErrBranchNotFound
	}
	delete(r.s.branches, branchID)
	for cid, c := range r.s.commits {
		if c.BranchID == branchID {
			delete(r.s.commits, cid)
		}
	}
	return nil
}

func (r *fakeBranches) RestoreHead(ctx context.Context, branchID, commitID int64, working domain.Snapshot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.branches[branchID]
	if !ok {
		return domain.ErrBranchNotFound
	}
	if _, ok := r.s.commits[commitID]; !ok {
		return domain.ErrCommitNotFound
	}
	delete(r.s.commits, commitID)
	b.WorkingTerms = working.Clone()
	return nil
}

type fakeCommits struct{ s *fakeStore }

func (r *fakeCommits) Create(ctx context.Context, c *domain.Commit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = r.s.id()
	r.s.commits[c.ID] = copyCommit(c)
	return nil
}

func (r *fakeCommits) Get(ctx context.Context, id int64) (*domain.Commit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.commits[id]
	if !ok {
		return nil, domain.ErrCommitNotFound
	}
	return copyCommit(c), nil
}

func (r *fakeCommits) ListByBranch(ctx context.Context, branchID int64) ([]*domain.Commit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Commit
	for _, c := range r.s.commits {
		if c.BranchID == branchID {
			out = append(out, copyCommit(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *fakeCommits) Head(ctx context.Context, branchID int64) (*domain.Commit, error) {
	log, err := r.ListByBranch(ctx, branchID)
	if err != nil || len(log) == 0 {
		return nil, err
	}
	return log[0], nil
}

type fakeMembers struct{ s *fakeStore }

func (r *fakeMembers) Add(ctx context.Context, m *domain.Member) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = r.s.id()
	cp := *m
	r.s.members[m.ID] = &cp
	return nil
}

func (r *fakeMembers) Get(ctx context.Context, id int64) (*domain.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.members[id]
	if !ok {
		return nil, errors.New("member not found")
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMembers) ListByProject(ctx context.Context, projectID int64) ([]*domain.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Member
	for _, m := range r.s.members {
		if m.ProjectID == projectID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMembers) Remove(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.members, id)
	return nil
}

type recordedEvent struct {
	name    string
	payload map[string]any
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (e *recordingEmitter) Emit(name string, payload any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, _ := payload.(map[string]any)
	e.events = append(e.events, recordedEvent{name: name, payload: m})
}

func (e *recordingEmitter) named(name string) []recordedEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []recordedEvent
	for _, ev := range e.events {
		if ev.name == name {
			out = append(out, ev)
		}
	}
	return out
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail error
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}

type fixture struct {
	store    *fakeStore
	branches *fakeBranches
	emitter  *recordingEmitter
	mailer   *recordingMailer
	svc      *Service
}

func newFixture() *fixture {
	store := newFakeStore()
	branches := &fakeBranches{s: store}
	emitter := &recordingEmitter{}
	mailer := &recordingMailer{}
	svc := New(Deps{
		Projects: &fakeProjects{s: store},
		Branches: branches,
		Commits:  &fakeCommits{s: store},
		Members:  &fakeMembers{s: store},
		Mailer:   mailer,
		Emitter:  emitter,
	})
	return &fixture{store: store, branches: branches, emitter: emitter, mailer: mailer, svc: svc}
}

func (f *fixture) newProject(name string) *domain.Project {
	p := &domain.Project{Name: name, Languages: []domain.Language{{Code: "en", Name: "English"}, {Code: "de", Name: "German"}}, DefaultLanguage: "en"}
	if err := (&fakeProjects{s: f.store}).CreateWithMainBranch(context.Background(), p); err != nil {
		panic(err)
	}
	return p
}

func (f *fixture) newMember(projectID int64, name, email string, notify bool) *domain.Member {
	m := &domain.Member{ProjectID: projectID, Name: name, Email: email, NotifyCommits: notify}
	if err := (&fakeMembers{s: f.store}).Add(context.Background(), m); err != nil {
		panic(err)
	}
	return m
}
