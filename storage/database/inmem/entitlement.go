package inmemdb

import (
	"context"

	"github.com/trezcool/launchpad/core/entitlement"
)

type entitlementRepository struct {
	db *DB
}

var _ entitlement.Repository = (*entitlementRepository)(nil) // interface compliance check

func NewEntitlementRepository(db *DB) *entitlementRepository {
	return &entitlementRepository{db: db}
}

func (repo *entitlementRepository) HasActiveAcceleratorPurchase(_ context.Context, userID string) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if err := repo.db.failure(TablePurchases); err != nil {
		return false, err
	}
	for _, p := range repo.db.purchases {
		if p.UserID == userID && p.Kind == entitlement.PurchaseAccelerator && p.Status == entitlement.PurchaseActive {
			return true, nil
		}
	}
	return false, nil
}

func (repo *entitlementRepository) GetActiveSubscription(_ context.Context, ownerID string) (entitlement.Subscription, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if err := repo.db.failure(TableSubscriptions); err != nil {
		return entitlement.Subscription{}, err
	}
	var (
		found entitlement.Subscription
		ok    bool
	)
	for _, s := range repo.db.subscriptions {
		if s.OwnerID != ownerID || !s.IsActive() {
			continue
		}
		if !ok || s.CreatedAt.After(found.CreatedAt) {
			found, ok = s, true
		}
	}
	if !ok {
		return entitlement.Subscription{}, entitlement.ErrNotFound
	}
	return found, nil
}

func (repo *entitlementRepository) QueryActiveElectivePurchases(_ context.Context, userID string) ([]entitlement.Purchase, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if err := repo.db.failure(TablePurchases); err != nil {
		return nil, err
	}
	purchases := make([]entitlement.Purchase, 0)
	for _, p := range repo.db.purchases {
		if p.UserID == userID && p.Kind == entitlement.PurchaseElective && p.Status == entitlement.PurchaseActive {
			purchases = append(purchases, p)
		}
	}
	return purchases, nil
}

func (repo *entitlementRepository) UpsertSubscription(_ context.Context, sub entitlement.Subscription) (entitlement.Subscription, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.db.failure(TableSubscriptions); err != nil {
		return entitlement.Subscription{}, err
	}
	if sub.ProviderSubscriptionID != "" {
		for i, s := range repo.db.subscriptions {
			if s.ProviderSubscriptionID != sub.ProviderSubscriptionID {
				continue
			}
			sub.ID, sub.CreatedAt = s.ID, s.CreatedAt
			repo.db.subscriptions[i] = sub
			return sub, nil
		}
	}
	sub.ID = newID()
	repo.db.subscriptions = append(repo.db.subscriptions, sub)
	return sub, nil
}
