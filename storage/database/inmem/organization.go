package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/launchpad/core/readiness"
)

type organizationRepository struct {
	db *DB
}

var _ readiness.OrganizationRepository = (*organizationRepository)(nil) // interface compliance check

func NewOrganizationRepository(db *DB) *organizationRepository {
	return &organizationRepository{db: db}
}

// get must be called with db.mu held.
func (repo *organizationRepository) get(table, orgID string) (*organization, error) {
	if err := repo.db.failure(table); err != nil {
		return nil, err
	}
	org, ok := repo.db.organizations[orgID]
	if !ok {
		return nil, readiness.ErrOrganizationNotFound
	}
	return org, nil
}

func (repo *organizationRepository) GetProfile(_ context.Context, orgID string) ([]byte, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	org, err := repo.get(TableOrganizations, orgID)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), org.profile...), nil
}

func (repo *organizationRepository) QueryRoadmapSections(_ context.Context, orgID string) ([]readiness.RoadmapSection, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	org, err := repo.get(TableRoadmap, orgID)
	if err != nil {
		return nil, err
	}
	sections := make([]readiness.RoadmapSection, 0, len(org.roadmap))
	for _, s := range org.roadmap {
		sections = append(sections, s)
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].Slug < sections[j].Slug })
	return sections, nil
}

func (repo *organizationRepository) QueryPrograms(_ context.Context, orgID string) ([]readiness.Program, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	org, err := repo.get(TablePrograms, orgID)
	if err != nil {
		return nil, err
	}
	return append([]readiness.Program{}, org.programs...), nil
}

func (repo *organizationRepository) CountPeople(_ context.Context, orgID string) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	org, err := repo.get(TablePeople, orgID)
	if err != nil {
		return 0, err
	}
	return org.people, nil
}

func (repo *organizationRepository) QueryOrganizationIDs(_ context.Context, ownerIDs ...string) ([]string, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if err := repo.db.failure(TableOrganizations); err != nil {
		return nil, err
	}
	owners := toSet(ownerIDs)
	ids := make([]string, 0)
	for id, org := range repo.db.organizations {
		if _, ok := owners[org.ownerID]; ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
