package entitlement

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/launchpad/core"
)

// DefaultCooldownPrefix namespaces reconciliation cooldown keys in shared stores.
const DefaultCooldownPrefix = "entitlement:reconcile:"

type (
	// BillingProvider searches the external billing provider for subscriptions by metadata.
	BillingProvider interface {
		SearchSubscriptions(ctx context.Context, metadataKey, value string) ([]ProviderSubscription, error)
	}

	// Cooldown throttles reconciliation attempts per key.
	// Allow reports whether an attempt may run now and, if so, starts a new cooldown window for key.
	Cooldown interface {
		Allow(ctx context.Context, key string) (bool, error)
	}

	// Reconciler imports subscriptions that exist at the billing provider but were never synced locally.
	// It is best-effort: provider and cooldown failures are logged, never returned.
	Reconciler struct {
		repo     Repository
		provider BillingProvider
		cooldown Cooldown
		logger   core.Logger
		clock    core.Clock
	}
)

func NewReconciler(repo Repository, provider BillingProvider, cooldown Cooldown, logger core.Logger, clock core.Clock) *Reconciler {
	if clock == nil {
		clock = core.SystemClock
	}
	return &Reconciler{
		repo:     repo,
		provider: provider,
		cooldown: cooldown,
		logger:   logger,
		clock:    clock,
	}
}

// CooldownKey returns the throttling key for a set of ids: unique, non-blank, sorted and joined by ":".
func CooldownKey(ids ...string) string {
	return strings.Join(candidates(ids...), ":")
}

func candidates(ids ...string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = core.CleanString(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Reconcile searches the provider for an active or trialing subscription tagged with ownerID or userID
// and persists the most recently created one under ownerID.
// It reports whether a subscription was persisted. Attempts are throttled per id tuple.
func (r *Reconciler) Reconcile(ctx context.Context, ownerID, userID string) bool {
	ids := candidates(ownerID, userID)
	if len(ids) == 0 {
		return false
	}
	actor := core.Actor{UserID: userID, OrgOwnerID: ownerID}

	key := CooldownKey(ids...)
	allowed, err := r.cooldown.Allow(ctx, key)
	if err != nil {
		// the cooldown only protects the provider from bursts; keep going without it
		r.logger.Warn("entitlement: checking reconciliation cooldown", errors.Wrap(err, key), actor)
	} else if !allowed {
		return false
	}

	found := r.search(ctx, ids, actor)
	best, ok := mostRecentEligible(found)
	if !ok {
		return false
	}

	now := r.clock.Now()
	sub := Subscription{
		OwnerID:                core.CleanString(ownerID),
		Status:                 core.CleanString(best.Status, true /* lower */),
		ProviderSubscriptionID: best.ID,
		ProviderCustomerID:     best.CustomerID,
		Metadata:               best.Metadata,
		CreatedAt:              best.CreatedAt,
		UpdatedAt:              now,
	}
	if sub.OwnerID == "" {
		sub.OwnerID = core.CleanString(userID)
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	if _, err := r.repo.UpsertSubscription(ctx, sub); err != nil {
		r.logger.Error("entitlement: persisting reconciled subscription", errors.Wrap(err, best.ID), actor)
		return false
	}
	r.logger.Info(fmt.Sprintf("entitlement: reconciled subscription %s for owner %s", best.ID, sub.OwnerID), actor)
	return true
}

// search runs one provider query per (metadata key, id) pair concurrently.
// Each query is isolated: a failing one is logged and the others still count.
func (r *Reconciler) search(ctx context.Context, ids []string, actor core.Actor) []ProviderSubscription {
	var (
		mu    sync.Mutex
		found []ProviderSubscription
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, key := range metadataKeys {
		for _, id := range ids {
			key, id := key, id
			g.Go(func() error {
				subs, err := r.provider.SearchSubscriptions(gctx, key, id)
				if err != nil {
					r.logger.Warn(
						"entitlement: searching billing provider",
						errors.Wrapf(err, "metadata[%s]=%s", key, id),
						actor,
					)
					return nil
				}
				mu.Lock()
				found = append(found, subs...)
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait() // never fails: queries are isolated
	return found
}

func mostRecentEligible(subs []ProviderSubscription) (ProviderSubscription, bool) {
	var (
		best ProviderSubscription
		ok   bool
	)
	for _, s := range subs {
		if !IsActiveSubscriptionStatus(s.Status) {
			continue
		}
		if !ok || s.CreatedAt.After(best.CreatedAt) || (s.CreatedAt.Equal(best.CreatedAt) && s.ID > best.ID) {
			best, ok = s, true
		}
	}
	return best, ok
}
