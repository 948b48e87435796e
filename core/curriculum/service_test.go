package curriculum

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/launchpad/core"
	"github.com/trezcool/launchpad/tests"
)

type fakeRepo struct {
	classes     []Class
	modules     []Module
	progress    []Progress
	submissions []Submission
	assignments []Assignment

	classesErr, modulesErr, progressErr, submissionsErr, assignmentsErr error
}

var _ Repository = (*fakeRepo)(nil)

func (r *fakeRepo) QueryClasses(context.Context) ([]Class, error) {
	return r.classes, r.classesErr
}

func (r *fakeRepo) QueryModules(_ context.Context, classIDs []string) ([]Module, error) {
	if r.modulesErr != nil {
		return nil, r.modulesErr
	}
	wanted := make(map[string]bool, len(classIDs))
	for _, id := range classIDs {
		wanted[id] = true
	}
	var mods []Module
	for _, m := range r.modules {
		if wanted[m.ClassID] {
			mods = append(mods, m)
		}
	}
	return mods, nil
}

func (r *fakeRepo) QueryProgress(context.Context, string, []string) ([]Progress, error) {
	return r.progress, r.progressErr
}

func (r *fakeRepo) QuerySubmissions(context.Context, string, []string) ([]Submission, error) {
	return r.submissions, r.submissionsErr
}

func (r *fakeRepo) QueryAssignments(context.Context, []string) ([]Assignment, error) {
	return r.assignments, r.assignmentsErr
}

func newTestService(repo Repository, logger core.Logger, excluded ...string) *Service {
	conf := testutil.NewConfig()
	conf.Curriculum.ExcludedClasses = excluded
	return NewService(repo, logger, conf)
}

func catalogRepo() *fakeRepo {
	return &fakeRepo{
		classes: []Class{
			{ID: "c2", Slug: "electives", Name: "Electives", Position: 2},
			{ID: "c0", Slug: "legacy", Name: "Legacy", Position: 0},
			{ID: "c1", Slug: "formation", Name: "Formation", Position: 1},
		},
		modules: []Module{
			{ID: "m4", ClassID: "c2", Slug: "grant-writing", Index: 2},
			{ID: "m3", ClassID: "c2", Slug: "fundraising-101", Index: 1},
			{ID: "m2", ClassID: "c1", Slug: "tax-exemption", Index: 1},
			{ID: "m1", ClassID: "c1", Slug: "incorporation", Index: 9},
			{ID: "m0", ClassID: "c0", Slug: "old-stuff"},
		},
	}
}

func cardsBySlug(o Overview) map[string]ModuleCard {
	cards := make(map[string]ModuleCard)
	for _, cls := range o.Classes {
		for _, c := range cls.Modules {
			cards[c.Module.Slug] = c
		}
	}
	return cards
}

func TestService_Catalog(t *testing.T) {
	svc := newTestService(catalogRepo(), testutil.NewLogger())

	classes, modules, err := svc.Catalog(context.Background())
	require.NoError(t, err)
	require.Len(t, classes, 2)
	assert.Equal(t, "formation", classes[0].Slug)
	assert.Equal(t, "electives", classes[1].Slug)
	assert.Len(t, modules, 4)
}

func TestService_Catalog_configuredExclusion(t *testing.T) {
	svc := newTestService(catalogRepo(), testutil.NewLogger(), "electives")

	classes, modules, err := svc.Catalog(context.Background())
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "formation", classes[0].Slug)
	assert.Len(t, modules, 2)
}

func TestService_Catalog_errors(t *testing.T) {
	missing := core.NewSchemaMissingError(errors.New(`relation "classes" does not exist`))
	boom := errors.New("connection refused")

	t.Run("missing classes table", func(t *testing.T) {
		svc := newTestService(&fakeRepo{classesErr: missing}, testutil.NewLogger())
		classes, modules, err := svc.Catalog(context.Background())
		require.NoError(t, err)
		assert.Empty(t, classes)
		assert.Empty(t, modules)
	})

	t.Run("missing modules table", func(t *testing.T) {
		repo := catalogRepo()
		repo.modulesErr = missing
		svc := newTestService(repo, testutil.NewLogger())
		classes, modules, err := svc.Catalog(context.Background())
		require.NoError(t, err)
		assert.Len(t, classes, 2)
		assert.Empty(t, modules)
	})

	t.Run("store failure", func(t *testing.T) {
		svc := newTestService(&fakeRepo{classesErr: boom}, testutil.NewLogger())
		_, _, err := svc.Catalog(context.Background())
		var storeErr *core.StoreError
		require.True(t, errors.As(err, &storeErr))
		assert.Equal(t, "querying classes", storeErr.Op)
		assert.Equal(t, boom, errors.Cause(err))
	})
}

func TestService_Overview(t *testing.T) {
	repo := catalogRepo()
	repo.progress = []Progress{
		{ModuleID: "m1", Status: StatusCompleted, Notes: "filed articles"},
		{ModuleID: "m2", Status: StatusNotStarted, Notes: "  "},
		{ModuleID: "m4", Status: StatusInProgress},
	}
	repo.submissions = []Submission{
		{ModuleID: "m2", Status: SubmissionSubmitted},
		{ModuleID: "m3", Status: SubmissionRevise},
		{ModuleID: "m4", Status: SubmissionAccepted},
	}
	repo.assignments = []Assignment{
		{ModuleID: "m2", CompleteOnSubmit: true},
		{ModuleID: "m3", CompleteOnSubmit: true},
		{ModuleID: "m4", CompleteOnSubmit: true},
	}
	svc := newTestService(repo, testutil.NewLogger())

	overview, err := svc.Overview(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, overview.Classes, 2)
	assert.Equal(t, []string{"incorporation", "tax-exemption"}, slugsOf(overview.Classes[0]))
	assert.Equal(t, []string{"fundraising-101", "grant-writing"}, slugsOf(overview.Classes[1]))

	cards := cardsBySlug(overview)
	assert.Equal(t, StatusCompleted, cards["incorporation"].Status)
	assert.True(t, cards["incorporation"].HasNotes)
	// not_started progress does not hide a submission
	assert.Equal(t, StatusCompleted, cards["tax-exemption"].Status)
	assert.False(t, cards["tax-exemption"].HasNotes)
	assert.Equal(t, StatusInProgress, cards["fundraising-101"].Status)
	// explicit progress wins over an accepted submission
	assert.Equal(t, StatusInProgress, cards["grant-writing"].Status)

	assert.Equal(t, Summary{TotalModules: 4, CompletedModules: 2, InProgressModules: 2, Percent: 50}, overview.Summary)
	assert.Equal(t, StatusCompleted, overview.Statuses()["incorporation"])
}

func TestService_Overview_coreInLaterClass(t *testing.T) {
	repo := &fakeRepo{
		classes: []Class{
			{ID: "acc", Slug: "accelerator", Position: 0},
			{ID: "ele", Slug: "electives", Position: 1},
			{ID: "ops", Slug: "operations", Position: 2},
		},
		modules: []Module{
			{ID: "m1", ClassID: "acc", Slug: "grant-writing", Index: 1},
			{ID: "m2", ClassID: "ele", Slug: "tax-exemption", Index: 1},
			{ID: "m3", ClassID: "ele", Slug: "intro-to-nonprofits", Index: 7},
			{ID: "m4", ClassID: "ele", Slug: "incorporation", Index: 3},
			{ID: "m5", ClassID: "ops", Slug: "bookkeeping", Index: 1},
		},
	}
	svc := newTestService(repo, testutil.NewLogger())

	overview, err := svc.Overview(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, overview.Classes, 3)
	assert.Equal(t, "electives", overview.Classes[0].Class.Slug)
	assert.Equal(t, []string{"intro-to-nonprofits", "incorporation", "tax-exemption"}, slugsOf(overview.Classes[0]))
	assert.Equal(t, "accelerator", overview.Classes[1].Class.Slug)
	assert.Equal(t, "operations", overview.Classes[2].Class.Slug)
}

func TestPresentationOrder_coreSplitAcrossClasses(t *testing.T) {
	classes := []Class{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	byClass := map[string][]Module{
		"a": {{Slug: "grant-writing"}},
		"b": {{Slug: "Tax-Exemption"}},
		"c": {{Slug: "intro-to-nonprofits"}},
	}

	ordered := presentationOrder(classes, byClass)
	ids := make([]string, 0, len(ordered))
	for _, cls := range ordered {
		ids = append(ids, cls.ID)
	}
	assert.Equal(t, []string{"c", "b", "a"}, ids)
	assert.Equal(t, "a", classes[0].ID, "input left untouched")
}

func TestService_Overview_submissionWithoutAutoComplete(t *testing.T) {
	repo := catalogRepo()
	repo.submissions = []Submission{{ModuleID: "m3", Status: SubmissionAccepted}}
	svc := newTestService(repo, testutil.NewLogger())

	overview, err := svc.Overview(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, cardsBySlug(overview)["fundraising-101"].Status)
	assert.Equal(t, 0, overview.Summary.Percent)
}

func TestService_Overview_percent(t *testing.T) {
	repo := &fakeRepo{
		classes: []Class{{ID: "c1", Slug: "formation"}},
		modules: []Module{
			{ID: "a", ClassID: "c1", Slug: "a"},
			{ID: "b", ClassID: "c1", Slug: "b"},
			{ID: "c", ClassID: "c1", Slug: "c"},
		},
	}
	svc := newTestService(repo, testutil.NewLogger())

	overview, err := svc.Overview(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, overview.Summary.Percent)

	repo.progress = []Progress{{ModuleID: "a", Status: StatusCompleted}, {ModuleID: "b", Status: StatusCompleted}}
	overview, err = svc.Overview(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 67, overview.Summary.Percent)

	repo.progress = append(repo.progress, Progress{ModuleID: "c", Status: StatusCompleted})
	overview, err = svc.Overview(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 100, overview.Summary.Percent)
}

func TestService_Overview_emptyCatalog(t *testing.T) {
	svc := newTestService(&fakeRepo{}, testutil.NewLogger())

	overview, err := svc.Overview(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, overview.Classes)
	assert.Equal(t, Summary{}, overview.Summary)
}

func TestService_Overview_degradation(t *testing.T) {
	missing := core.NewSchemaMissingError(errors.New(`relation "assignment_submissions" does not exist`))
	boom := errors.New("connection reset")

	repo := catalogRepo()
	repo.progressErr = boom
	repo.submissionsErr = missing
	repo.assignmentsErr = boom
	logger := testutil.NewLogger()
	svc := newTestService(repo, logger)

	overview, err := svc.Overview(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, overview.Summary.TotalModules)
	for _, card := range cardsBySlug(overview) {
		assert.Equal(t, StatusNotStarted, card.Status)
	}

	// schema-missing reads are silent; other failures are reported with the learner attached
	errs := logger.Entries("error")
	require.Len(t, errs, 2)
	for _, e := range errs {
		assert.Contains(t, e.Args, core.Actor{UserID: "u1"})
	}
}

func TestService_Overview_catalogFailure(t *testing.T) {
	boom := errors.New("connection refused")
	svc := newTestService(&fakeRepo{classesErr: boom}, testutil.NewLogger())

	_, err := svc.Overview(context.Background(), "u1")
	var storeErr *core.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, boom, errors.Cause(err))
}

func slugsOf(cls ClassProgress) []string {
	s := make([]string, 0, len(cls.Modules))
	for _, c := range cls.Modules {
		s = append(s, c.Module.Slug)
	}
	return s
}
