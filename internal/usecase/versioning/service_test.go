package versioning

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Baldarello/localization-pro-sub001/internal/domain"
)

func TestAddTerm(t *testing.T) {
	f := newFixture()
	p := f.newProject("app")
	ctx := context.Background()

	term, err := f.svc.AddTerm(ctx, p.ID, "alice", "welcome_message")
	require.NoError(t, err)
	assert.NotEmpty(t, term.ID)
	assert.Equal(t, "welcome_message", term.Text)
	assert.Empty(t, term.Translations)

	terms, err := f.svc.ListTerms(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.Equal(t, term.ID, terms[0].ID)

	events := f.emitter.named("branch.changed")
	require.Len(t, events, 1)
	assert.Equal(t, p.ID, events[0].payload["project_id"])
	assert.Equal(t, "main", events[0].payload["branch"])
	assert.Equal(t, "alice", events[0].payload["actor"])
}

func TestAddTermUnknownProject(t *testing.T) {
	f := newFixture()

	_, err := f.svc.AddTerm(context.Background(), 42, "alice", "x")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
	assert.Empty(t, f.emitter.named("branch.changed"))
}

func TestAddTermDanglingCurrentBranch(t *testing.T) {
	f := newFixture()
	p := f.newProject("app")
	ctx := context.Background()
	require.NoError(t, f.svc.SwitchCurrentBranch(ctx, p.ID, "ghost", "alice"))

	_, err := f.svc.AddTerm(ctx, p.ID, "alice", "x")
	assert.ErrorIs(t, err, domain.ErrBranchNotFound)
}

func TestUpdateTermText(t *testing.T) {
	f := newFixture()
	p := f.newProject("app")
	ctx := context.Background()
	term, err := f.svc.AddTerm(ctx, p.ID, "alice", "old")
	require.NoError(t, err)

	require.NoError(t, f.svc.UpdateTermText(ctx, p.ID, "bob", term.ID, "new"))

	terms, err := f.svc.ListTerms(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", terms[0].Text)
	assert.Len(t, f.emitter.named("branch.changed"), 2)
}

func TestUpdateTermTextMissingIDIsNoOp(t *testing.T) {
	f := newFixture()
	p := f.newProject("app")
	ctx := context.Background()
	_, err := f.svc.AddTerm(ctx, p.ID, "alice", "keep")
	require.NoError(t, err)
	before, err := f.svc.ListTerms(ctx, p.ID)
	require.NoError(t, err)
	emitted := len(f.emitter.named("branch.changed"))

	require.NoError(t, f.svc.UpdateTermText(ctx, p.ID, "bob", "nonexistent-id", "x"))

	after, err := f.svc.ListTerms(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, f.emitter.named("branch.changed"), emitted, "no event on a no-op")
}

func TestUpdateTermContext(t *testing.T) {
	f := newFixture()
	p := f.newProject("app")
	ctx := context.Background()
	term, err := f.svc.AddTerm(ctx, p.ID, "alice", "greeting")
	require.NoError(t, err)

	require.NoError(t, f.svc.UpdateTermContext(ctx, p.ID, "alice", term.ID, "shown on the landing page"))

	terms, err := f.svc.ListTerms(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "shown on the landing page", terms[0].Context)
}

func TestDeleteTerm(t *testing.T) {
	f := newFixture()
	p := f.newProject("app")
	ctx := context.Background()
	t1, err := f.svc.AddTerm(ctx, p.ID, "alice", "one")
	require.NoError(t, err)
	t2, err := f.svc.AddTerm(ctx, p.ID, "alice", "two")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteTerm(ctx, p.ID, "alice", t1.ID))

	terms, err := f.svc.ListTerms(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.Equal(t, t2.ID, terms[0].ID)

	// Deleting again is a silent no-op.
	emitted := len(f.emitter.named("branch.changed"))
	require.NoError(t, f.svc.DeleteTerm(ctx, p.ID, "alice", t1.ID))
	assert.Len(t, f.emitter.named("branch.changed"), emitted)
}

func TestUpdateTranslation(t *testing.T) {
	f := newFixture()
	p := f.newProject("app")
	ctx := context.Background()
	term, err := f.svc.AddTerm(ctx, p.ID, "alice", "greeting")
	require.NoError(t, err)

	require.NoError(t, f.svc.UpdateTranslation(ctx, p.ID, "alice", term.ID, "de", "Hallo"))
	// Unknown codes are accepted; validation is the caller's concern.
	require.NoError(t, f.svc.UpdateTranslation(ctx, p.ID, "alice", term.ID, "xx", "???"))

	terms, err := f.svc.ListTerms(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hallo", terms[0].Translations["de"])
	assert.Equal(t, "???", terms[0].Translations["xx"])
}

func TestUpdateTranslationMissingTermIsNoOp(t *testing.T) {
	f := newFixture()
	p := f.newProject("app")
	ctx := context.Background()
	emitted := len(f.emitter.named("branch.changed"))

	require.NoError(t, f.svc.UpdateTranslation(ctx, p.ID, "alice", "ghost", "de", "Hallo"))
	assert.Len(t, f.emitter.named("branch.changed"), emitted)
}

func TestBulkReplaceTerms(t *testing.T) {
	f := newFixture()
	p := f.newProject("app")
	ctx := context.Background()
	_, err := f.svc.AddTerm(ctx, p.ID, "alice", "will_be_replaced")
	require.NoError(t, err)

	next, err := f.svc.BulkReplaceTerms(ctx, p.ID, "alice", []domain.Term{
		{ID: "t-1", Text: "one", Translations: map[string]string{"de": "eins"}},
		{Text: "two"},
	})
	require.NoError(t, err)
	require.Len(t, next, 2)
	assert.Equal(t, "t-1", next[0].ID)
	assert.NotEmpty(t, next[1].ID, "terms without an id get a fresh one")

	terms, err := f.svc.ListTerms(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, next, terms)
}

func TestBulkReplaceTermsRejectsDuplicateIDs(t *testing.T) {
	f := newFixture()
	p := f.newProject("app")

	_, err := f.svc.BulkReplaceTerms(context.Background(), p.ID, "alice", []domain.Term{
		{ID: "t-1", Text: "one"},
		{ID: "t-1", Text: "other"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateTermPatchesBothFieldsOnce(t *testing.T) {
	f := newFixture()
	p := f.newProject("app")
	ctx := context.Background()
	term, err := f.svc.AddTerm(ctx, p.ID, "alice", "old")
	require.NoError(t, err)
	emitted := len(f.emitter.named("branch.changed"))

	text, termContext := "new", "landing page"
	require.NoError(t, f.svc.UpdateTerm(ctx, p.ID, "alice", term.ID, &text, &termContext))

	terms, err := f.svc.ListTerms(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", terms[0].Text)
	assert.Equal(t, "landing page", terms[0].Context)
	assert.Len(t, f.emitter.named("branch.changed"), emitted+1, "both fields land in one event")

	// Patching nothing is a no-op without an event.
	require.NoError(t, f.svc.UpdateTerm(ctx, p.ID, "alice", term.ID, nil, nil))
	assert.Len(t, f.emitter.named("branch.changed"), emitted+1)
}

func TestConcurrentAddsAllSurvive(t *testing.T) {
	f := newFixture()
	p := f.newProject("app")
	ctx := context.Background()

	const adds = 16
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			<-start
			_, err := f.svc.AddTerm(ctx, p.ID, "alice", fmt.Sprintf("term %d", n))
			assert.NoError(t, err)
		}(i)
	}
	close(start)
	wg.Wait()

	terms, err := f.svc.ListTerms(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, terms, adds, "no concurrent add may be lost")
	assert.Len(t, f.emitter.named("branch.changed"), adds)
}

func TestNoEventWhenPersistFails(t *testing.T) {
	f := newFixture()
	p := f.newProject("app")
	ctx := context.Background()
	f.branches.failUpdate = errors.New("disk full")

	_, err := f.svc.AddTerm(ctx, p.ID, "alice", "x")
	require.Error(t, err)
	assert.Empty(t, f.emitter.named("branch.changed"))
}
