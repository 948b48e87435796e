package boiledrepos

import (
	"context"

	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/trezcool/launchpad/core"
	"github.com/trezcool/launchpad/core/curriculum"
	"github.com/trezcool/launchpad/storage/database"
)

type (
	classRow struct {
		ID       string      `boil:"id"`
		Slug     null.String `boil:"slug"`
		Name     null.String `boil:"name"`
		Position null.Int    `boil:"position"`
	}

	moduleRow struct {
		ID       string      `boil:"id"`
		ClassID  string      `boil:"class_id"`
		Slug     null.String `boil:"slug"`
		Title    null.String `boil:"title"`
		Index    null.Int    `boil:"module_index"`
		Sequence null.Int    `boil:"sequence"`
	}

	progressRow struct {
		UserID   string      `boil:"user_id"`
		ModuleID string      `boil:"module_id"`
		Status   null.String `boil:"status"`
		Notes    null.Bytes  `boil:"notes"`
	}

	submissionRow struct {
		UserID   string      `boil:"user_id"`
		ModuleID string      `boil:"module_id"`
		Status   null.String `boil:"status"`
	}

	assignmentRow struct {
		ModuleID         string    `boil:"module_id"`
		CompleteOnSubmit null.Bool `boil:"complete_on_submit"`
	}
)

type curriculumRepository struct {
	exec core.DBExecutor
}

var _ curriculum.Repository = (*curriculumRepository)(nil) // interface compliance check

func NewCurriculumRepository(exec core.DBExecutor) *curriculumRepository {
	return &curriculumRepository{exec: exec}
}

func (repo curriculumRepository) QueryClasses(ctx context.Context) ([]curriculum.Class, error) {
	var rows []classRow
	q := queries.Raw(`SELECT id, slug, name, position FROM classes`)
	if err := q.Bind(ctx, repo.exec, &rows); err != nil {
		return nil, database.TrapErr(err, "querying classes")
	}

	classes := make([]curriculum.Class, 0, len(rows))
	for _, r := range rows {
		classes = append(classes, curriculum.Class{
			ID:       r.ID,
			Slug:     r.Slug.String,
			Name:     r.Name.String,
			Position: r.Position.Int,
		})
	}
	return classes, nil
}

func (repo curriculumRepository) QueryModules(ctx context.Context, classIDs []string) ([]curriculum.Module, error) {
	if len(classIDs) == 0 {
		return []curriculum.Module{}, nil
	}

	var rows []moduleRow
	q := queries.Raw(
		`SELECT id, class_id, slug, title, module_index, sequence FROM modules WHERE class_id::text = ANY($1)`,
		pq.Array(classIDs),
	)
	if err := q.Bind(ctx, repo.exec, &rows); err != nil {
		return nil, database.TrapErr(err, "querying modules")
	}

	modules := make([]curriculum.Module, 0, len(rows))
	for _, r := range rows {
		modules = append(modules, curriculum.Module{
			ID:       r.ID,
			ClassID:  r.ClassID,
			Slug:     r.Slug.String,
			Title:    r.Title.String,
			Index:    r.Index.Int,
			Sequence: r.Sequence.Ptr(),
		})
	}
	return modules, nil
}

func (repo curriculumRepository) QueryProgress(ctx context.Context, userID string, moduleIDs []string) ([]curriculum.Progress, error) {
	if len(moduleIDs) == 0 {
		return []curriculum.Progress{}, nil
	}

	var rows []progressRow
	q := queries.Raw(
		`SELECT user_id, module_id, status, notes FROM module_progress WHERE user_id = $1 AND module_id::text = ANY($2)`,
		userID, pq.Array(moduleIDs),
	)
	if err := q.Bind(ctx, repo.exec, &rows); err != nil {
		return nil, database.TrapErr(err, "querying module progress")
	}

	progress := make([]curriculum.Progress, 0, len(rows))
	for _, r := range rows {
		progress = append(progress, curriculum.Progress{
			UserID:   r.UserID,
			ModuleID: r.ModuleID,
			Status:   core.CleanString(r.Status.String, true /* lower */),
			Notes:    curriculum.ParseNotes(r.Notes.Bytes),
		})
	}
	return progress, nil
}

func (repo curriculumRepository) QuerySubmissions(ctx context.Context, userID string, moduleIDs []string) ([]curriculum.Submission, error) {
	if len(moduleIDs) == 0 {
		return []curriculum.Submission{}, nil
	}

	var rows []submissionRow
	q := queries.Raw(
		`SELECT user_id, module_id, status FROM assignment_submissions WHERE user_id = $1 AND module_id::text = ANY($2)`,
		userID, pq.Array(moduleIDs),
	)
	if err := q.Bind(ctx, repo.exec, &rows); err != nil {
		return nil, database.TrapErr(err, "querying assignment submissions")
	}

	subs := make([]curriculum.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, curriculum.Submission{
			UserID:   r.UserID,
			ModuleID: r.ModuleID,
			Status:   core.CleanString(r.Status.String, true /* lower */),
		})
	}
	return subs, nil
}

func (repo curriculumRepository) QueryAssignments(ctx context.Context, moduleIDs []string) ([]curriculum.Assignment, error) {
	if len(moduleIDs) == 0 {
		return []curriculum.Assignment{}, nil
	}

	var rows []assignmentRow
	q := queries.Raw(
		`SELECT module_id, complete_on_submit FROM assignments WHERE module_id::text = ANY($1)`,
		pq.Array(moduleIDs),
	)
	if err := q.Bind(ctx, repo.exec, &rows); err != nil {
		return nil, database.TrapErr(err, "querying assignments")
	}

	assignments := make([]curriculum.Assignment, 0, len(rows))
	for _, r := range rows {
		assignments = append(assignments, curriculum.Assignment{
			ModuleID:         r.ModuleID,
			CompleteOnSubmit: r.CompleteOnSubmit.Bool,
		})
	}
	return assignments, nil
}
