package inmemdb

import (
	"context"

	"github.com/trezcool/launchpad/core/curriculum"
)

type curriculumRepository struct {
	db *DB
}

var _ curriculum.Repository = (*curriculumRepository)(nil) // interface compliance check

func NewCurriculumRepository(db *DB) *curriculumRepository {
	return &curriculumRepository{db: db}
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (repo *curriculumRepository) QueryClasses(context.Context) ([]curriculum.Class, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if err := repo.db.failure(TableClasses); err != nil {
		return nil, err
	}
	return append([]curriculum.Class{}, repo.db.classes...), nil
}

func (repo *curriculumRepository) QueryModules(_ context.Context, classIDs []string) ([]curriculum.Module, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if err := repo.db.failure(TableModules); err != nil {
		return nil, err
	}
	ids := toSet(classIDs)
	modules := make([]curriculum.Module, 0)
	for _, m := range repo.db.modules {
		if _, ok := ids[m.ClassID]; ok {
			modules = append(modules, m)
		}
	}
	return modules, nil
}

func (repo *curriculumRepository) QueryProgress(_ context.Context, userID string, moduleIDs []string) ([]curriculum.Progress, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if err := repo.db.failure(TableProgress); err != nil {
		return nil, err
	}
	progress := make([]curriculum.Progress, 0)
	for _, id := range moduleIDs {
		if p, ok := repo.db.progress[progressKey{userID, id}]; ok {
			progress = append(progress, p)
		}
	}
	return progress, nil
}

func (repo *curriculumRepository) QuerySubmissions(_ context.Context, userID string, moduleIDs []string) ([]curriculum.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if err := repo.db.failure(TableSubmissions); err != nil {
		return nil, err
	}
	subs := make([]curriculum.Submission, 0)
	for _, id := range moduleIDs {
		if s, ok := repo.db.submissions[progressKey{userID, id}]; ok {
			subs = append(subs, s)
		}
	}
	return subs, nil
}

func (repo *curriculumRepository) QueryAssignments(_ context.Context, moduleIDs []string) ([]curriculum.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if err := repo.db.failure(TableAssignments); err != nil {
		return nil, err
	}
	assignments := make([]curriculum.Assignment, 0)
	for _, id := range moduleIDs {
		if a, ok := repo.db.assignments[id]; ok {
			assignments = append(assignments, a)
		}
	}
	return assignments, nil
}
