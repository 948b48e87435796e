package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/launchpad/core/readiness"
	"github.com/trezcool/launchpad/storage/database"
)

type (
	roadmapRow struct {
		Slug    string      `db:"slug"`
		Status  null.String `db:"status"`
		Content null.String `db:"content"`
	}

	programRow struct {
		ID          string       `db:"id"`
		Name        null.String  `db:"name"`
		FundingGoal null.Float64 `db:"funding_goal"`
	}
)

type organizationRepository struct {
	db *sqlx.DB
}

var _ readiness.OrganizationRepository = (*organizationRepository)(nil) // interface compliance check

func NewOrganizationRepository(db *sql.DB) *organizationRepository {
	return &organizationRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo organizationRepository) GetProfile(ctx context.Context, orgID string) ([]byte, error) {
	var profile []byte
	err := repo.db.GetContext(ctx, &profile, `SELECT profile FROM organizations WHERE id = $1`, orgID)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return nil, readiness.ErrOrganizationNotFound
		}
		return nil, database.TrapErr(err, "getting organization profile")
	}
	return profile, nil
}

func (repo organizationRepository) QueryRoadmapSections(ctx context.Context, orgID string) ([]readiness.RoadmapSection, error) {
	var rows []roadmapRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT slug, status, content FROM roadmap_sections WHERE organization_id = $1`, orgID)
	if err != nil {
		return nil, database.TrapErr(err, "querying roadmap sections")
	}

	sections := make([]readiness.RoadmapSection, 0, len(rows))
	for _, r := range rows {
		sections = append(sections, readiness.RoadmapSection{
			Slug:    r.Slug,
			Status:  r.Status.String,
			Content: r.Content.String,
		})
	}
	return sections, nil
}

func (repo organizationRepository) QueryPrograms(ctx context.Context, orgID string) ([]readiness.Program, error) {
	var rows []programRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT id, name, funding_goal FROM programs WHERE organization_id = $1`, orgID)
	if err != nil {
		return nil, database.TrapErr(err, "querying programs")
	}

	programs := make([]readiness.Program, 0, len(rows))
	for _, r := range rows {
		programs = append(programs, readiness.Program{
			ID:          r.ID,
			Name:        r.Name.String,
			FundingGoal: r.FundingGoal.Float64,
		})
	}
	return programs, nil
}

func (repo organizationRepository) CountPeople(ctx context.Context, orgID string) (int, error) {
	var n int
	if err := repo.db.GetContext(ctx, &n, `SELECT count(*) FROM people WHERE organization_id = $1`, orgID); err != nil {
		return 0, database.TrapErr(err, "counting people")
	}
	return n, nil
}

// QueryOrganizationIDs returns the ids of the given owners' organizations.
func (repo organizationRepository) QueryOrganizationIDs(ctx context.Context, ownerIDs ...string) ([]string, error) {
	if len(ownerIDs) == 0 {
		return []string{}, nil
	}
	q, args, err := sqlx.In(`SELECT id FROM organizations WHERE owner_id IN (?) ORDER BY id`, ownerIDs)
	if err != nil {
		return nil, errors.Wrap(err, "building organization query")
	}

	ids := make([]string, 0, len(ownerIDs))
	if err = repo.db.SelectContext(ctx, &ids, repo.db.Rebind(q), args...); err != nil {
		return nil, database.TrapErr(err, "querying organizations")
	}
	return ids, nil
}
