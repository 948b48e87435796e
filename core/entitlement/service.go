package entitlement

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/launchpad/core"
)

var (
	// errors
	ErrNotFound      = errors.New("subscription not found")
	errUserIDMissing = errors.New("user id is required")
)

type (
	// Repository reads (and, for reconciliation, writes) purchase and subscription records.
	// Failures caused by missing tables/columns are reported as *core.SchemaMissingError.
	Repository interface {
		HasActiveAcceleratorPurchase(ctx context.Context, userID string) (bool, error)
		// GetActiveSubscription returns the most recent active or trialing subscription keyed by ownerID,
		// or ErrNotFound.
		GetActiveSubscription(ctx context.Context, ownerID string) (Subscription, error)
		QueryActiveElectivePurchases(ctx context.Context, userID string) ([]Purchase, error)
		// UpsertSubscription creates or updates the subscription matching sub.ProviderSubscriptionID.
		UpsertSubscription(ctx context.Context, sub Subscription) (Subscription, error)
	}

	ServiceInterface interface {
		Resolve(ctx context.Context, req Request) (Snapshot, error)
		Catalog() Catalog
	}

	Service struct {
		repo       Repository
		catalog    Catalog
		reconciler *Reconciler // nil: reconciliation disabled
		logger     core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil) // interface compliance check

func NewService(repo Repository, catalog Catalog, reconciler *Reconciler, logger core.Logger) *Service {
	return &Service{
		repo:       repo,
		catalog:    catalog,
		reconciler: reconciler,
		logger:     logger,
	}
}

func (svc *Service) Catalog() Catalog { return svc.catalog }

// Resolve computes the learner's access rights from purchase and subscription records.
// Admins get everything without any lookup.
func (svc *Service) Resolve(ctx context.Context, req Request) (Snapshot, error) {
	if req.IsAdmin {
		return Snapshot{
			HasAcceleratorPurchase:   true,
			HasActiveSubscription:    true,
			HasAcceleratorAccess:     true,
			HasElectiveAccess:        true,
			OwnedElectiveModuleSlugs: svc.catalog.Slugs(),
		}, nil
	}

	userID := core.CleanString(req.UserID)
	if userID == "" {
		return Snapshot{}, core.NewValidationError(errUserIDMissing)
	}
	ownerID := req.ownerID()

	var snap Snapshot
	purchased, err := svc.repo.HasActiveAcceleratorPurchase(ctx, userID)
	if err != nil && !core.IsSchemaMissing(err) {
		return Snapshot{}, core.NewStoreError("checking accelerator purchase", err)
	}
	snap.HasAcceleratorPurchase = purchased

	found, err := svc.hasActiveSubscription(ctx, ownerID, userID)
	if err != nil {
		return Snapshot{}, err
	}
	if !found && svc.reconciler != nil {
		if svc.reconciler.Reconcile(ctx, ownerID, userID) {
			if found, err = svc.hasActiveSubscription(ctx, ownerID, userID); err != nil {
				return Snapshot{}, err
			}
		}
	}
	snap.HasActiveSubscription = found
	snap.HasAcceleratorAccess = snap.HasAcceleratorPurchase || snap.HasActiveSubscription

	if snap.HasAcceleratorAccess {
		snap.OwnedElectiveModuleSlugs = svc.catalog.Slugs()
	} else {
		purchases, err := svc.repo.QueryActiveElectivePurchases(ctx, userID)
		if err != nil && !core.IsSchemaMissing(err) {
			return Snapshot{}, core.NewStoreError("querying elective purchases", err)
		}
		slugs := make([]string, 0, len(purchases))
		for _, p := range purchases {
			slugs = append(slugs, p.ModuleSlug)
		}
		snap.OwnedElectiveModuleSlugs = svc.catalog.Owned(slugs)
	}
	snap.HasElectiveAccess = snap.HasAcceleratorAccess || len(snap.OwnedElectiveModuleSlugs) > 0

	return snap, nil
}

// hasActiveSubscription looks the subscription up by organization owner, then by the learner:
// legacy rows were sometimes written under the member's id.
func (svc *Service) hasActiveSubscription(ctx context.Context, ownerID, userID string) (bool, error) {
	ids := []string{ownerID}
	if userID != ownerID {
		ids = append(ids, userID)
	}
	for _, id := range ids {
		_, err := svc.repo.GetActiveSubscription(ctx, id)
		switch {
		case err == nil:
			return true, nil
		case errors.Cause(err) == ErrNotFound, core.IsSchemaMissing(err):
			continue
		default:
			return false, core.NewStoreError("finding active subscription", err)
		}
	}
	return false, nil
}
