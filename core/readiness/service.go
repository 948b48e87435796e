package readiness

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/launchpad/core"
	"github.com/trezcool/launchpad/core/curriculum"
)

var (
	// errors
	ErrOrganizationNotFound = errors.New("organization not found")
	errOrgIDMissing         = errors.New("organization id or owner is required")
)

type (
	// OrganizationRepository reads the organization records readiness is computed from.
	// Failures caused by missing tables/columns are reported as *core.SchemaMissingError.
	OrganizationRepository interface {
		// GetProfile returns the raw profile document, or ErrOrganizationNotFound.
		GetProfile(ctx context.Context, orgID string) ([]byte, error)
		QueryRoadmapSections(ctx context.Context, orgID string) ([]RoadmapSection, error)
		QueryPrograms(ctx context.Context, orgID string) ([]Program, error)
		CountPeople(ctx context.Context, orgID string) (int, error)
		// QueryOrganizationIDs returns the ids of the organizations owned by any of ownerIDs, sorted.
		QueryOrganizationIDs(ctx context.Context, ownerIDs ...string) ([]string, error)
	}

	// ProgressProvider gives the learner's curriculum overview.
	ProgressProvider interface {
		Overview(ctx context.Context, userID string) (curriculum.Overview, error)
	}

	ServiceInterface interface {
		Compute(ctx context.Context, req Request) (Snapshot, error)
	}

	Service struct {
		repo     OrganizationRepository
		progress ProgressProvider
		logger   core.Logger
	}
)

var (
	_ ServiceInterface = (*Service)(nil) // interface compliance check
	_ ProgressProvider = (*curriculum.Service)(nil)
)

func NewService(repo OrganizationRepository, progress ProgressProvider, logger core.Logger) *Service {
	return &Service{
		repo:     repo,
		progress: progress,
		logger:   logger,
	}
}

// Compute loads the organization's records and the learner's module statuses, and scores them.
func (svc *Service) Compute(ctx context.Context, req Request) (Snapshot, error) {
	orgID, err := svc.organizationID(ctx, req)
	if err != nil {
		return Snapshot{}, err
	}

	in, err := svc.loadInputs(ctx, orgID)
	if err != nil {
		return Snapshot{}, err
	}

	if userID := core.CleanString(req.UserID); userID != "" {
		overview, err := svc.progress.Overview(ctx, userID)
		if err != nil {
			return Snapshot{}, err
		}
		in.ModuleStatuses = overview.Statuses()
	}
	return Score(in), nil
}

// organizationID returns the requested organization or, when none is given, the first one
// owned by the organization owner (defaulting to the learner).
func (svc *Service) organizationID(ctx context.Context, req Request) (string, error) {
	if id := core.CleanString(req.OrganizationID); id != "" {
		return id, nil
	}
	owner := core.CleanString(req.OrgOwnerID)
	if owner == "" {
		owner = core.CleanString(req.UserID)
	}
	if owner == "" {
		return "", core.NewValidationError(errOrgIDMissing)
	}

	ids, err := svc.repo.QueryOrganizationIDs(ctx, owner)
	if err != nil && !core.IsSchemaMissing(err) {
		return "", core.NewStoreError("querying organizations", err)
	}
	if len(ids) == 0 {
		return "", errors.Wrap(ErrOrganizationNotFound, owner)
	}
	return ids[0], nil
}

func (svc *Service) loadInputs(ctx context.Context, orgID string) (Inputs, error) {
	var in Inputs

	raw, err := svc.repo.GetProfile(ctx, orgID)
	if errors.Cause(err) == ErrOrganizationNotFound {
		return Inputs{}, err
	}
	if err = svc.tolerate("getting organization profile", orgID, err); err != nil {
		return Inputs{}, err
	}
	in.Profile = ParseProfile(raw)

	in.Roadmap, err = svc.repo.QueryRoadmapSections(ctx, orgID)
	if err = svc.tolerate("querying roadmap sections", orgID, err); err != nil {
		return Inputs{}, err
	}
	in.Programs, err = svc.repo.QueryPrograms(ctx, orgID)
	if err = svc.tolerate("querying programs", orgID, err); err != nil {
		return Inputs{}, err
	}
	in.PeopleCount, err = svc.repo.CountPeople(ctx, orgID)
	if err = svc.tolerate("counting people", orgID, err); err != nil {
		return Inputs{}, err
	}
	return in, nil
}

// tolerate swallows schema-missing errors (the organization tables are not migrated yet)
// and types every other failure.
func (svc *Service) tolerate(op, orgID string, err error) error {
	switch {
	case err == nil:
		return nil
	case core.IsSchemaMissing(err):
		svc.logger.Warn("readiness: "+op, err, map[string]interface{}{"organization_id": orgID})
		return nil
	default:
		return core.NewStoreError(op, err)
	}
}
