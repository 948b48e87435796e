package boiledrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/trezcool/launchpad/core"
	"github.com/trezcool/launchpad/core/entitlement"
	"github.com/trezcool/launchpad/storage/database"
)

const subscriptionColumns = `id, owner_id, status, provider_subscription_id, provider_customer_id, metadata, created_at, updated_at`

type (
	purchaseRow struct {
		ID         string      `boil:"id"`
		UserID     string      `boil:"user_id"`
		Kind       string      `boil:"kind"`
		ModuleSlug null.String `boil:"module_slug"`
		Status     string      `boil:"status"`
		CreatedAt  null.Time   `boil:"created_at"`
	}

	subscriptionRow struct {
		ID                     string      `boil:"id"`
		OwnerID                string      `boil:"owner_id"`
		Status                 string      `boil:"status"`
		ProviderSubscriptionID null.String `boil:"provider_subscription_id"`
		ProviderCustomerID     null.String `boil:"provider_customer_id"`
		Metadata               null.JSON   `boil:"metadata"`
		CreatedAt              null.Time   `boil:"created_at"`
		UpdatedAt              null.Time   `boil:"updated_at"`
	}
)

type entitlementRepository struct {
	exec core.DBExecutor
}

var _ entitlement.Repository = (*entitlementRepository)(nil) // interface compliance check

func NewEntitlementRepository(exec core.DBExecutor) *entitlementRepository {
	return &entitlementRepository{exec: exec}
}

func (repo entitlementRepository) unboilSubscription(r subscriptionRow) entitlement.Subscription {
	sub := entitlement.Subscription{
		ID:                     r.ID,
		OwnerID:                r.OwnerID,
		Status:                 r.Status,
		ProviderSubscriptionID: r.ProviderSubscriptionID.String,
		ProviderCustomerID:     r.ProviderCustomerID.String,
		CreatedAt:              r.CreatedAt.Time,
		UpdatedAt:              r.UpdatedAt.Time,
	}
	if r.Metadata.Valid {
		// free-form column: a malformed value only loses the metadata
		_ = r.Metadata.Unmarshal(&sub.Metadata)
	}
	return sub
}

// trapNoRowsErr maps psql "no rows" err to entitlement.ErrNotFound
func (repo entitlementRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return entitlement.ErrNotFound
	}
	return database.TrapErr(err, msg)
}

func (repo entitlementRepository) HasActiveAcceleratorPurchase(ctx context.Context, userID string) (bool, error) {
	var exists bool
	row := repo.exec.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM purchases WHERE user_id = $1 AND kind = $2 AND status = $3)`,
		userID, entitlement.PurchaseAccelerator, entitlement.PurchaseActive,
	)
	if err := row.Scan(&exists); err != nil {
		return false, database.TrapErr(err, "checking accelerator purchase")
	}
	return exists, nil
}

func (repo entitlementRepository) GetActiveSubscription(ctx context.Context, ownerID string) (entitlement.Subscription, error) {
	var row subscriptionRow
	q := queries.Raw(
		`SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE owner_id = $1 AND lower(status) = ANY($2)
		ORDER BY created_at DESC
		LIMIT 1`,
		ownerID, pq.Array([]string{entitlement.SubscriptionActive, entitlement.SubscriptionTrialing}),
	)
	if err := q.Bind(ctx, repo.exec, &row); err != nil {
		return entitlement.Subscription{}, repo.trapNoRowsErr(err, "finding active subscription")
	}
	return repo.unboilSubscription(row), nil
}

func (repo entitlementRepository) QueryActiveElectivePurchases(ctx context.Context, userID string) ([]entitlement.Purchase, error) {
	var rows []purchaseRow
	q := queries.Raw(
		`SELECT id, user_id, kind, module_slug, status, created_at FROM purchases
		WHERE user_id = $1 AND kind = $2 AND status = $3`,
		userID, entitlement.PurchaseElective, entitlement.PurchaseActive,
	)
	if err := q.Bind(ctx, repo.exec, &rows); err != nil {
		return nil, database.TrapErr(err, "querying elective purchases")
	}

	purchases := make([]entitlement.Purchase, 0, len(rows))
	for _, r := range rows {
		purchases = append(purchases, entitlement.Purchase{
			ID:         r.ID,
			UserID:     r.UserID,
			Kind:       r.Kind,
			ModuleSlug: r.ModuleSlug.String,
			Status:     r.Status,
			CreatedAt:  r.CreatedAt.Time,
		})
	}
	return purchases, nil
}

func (repo entitlementRepository) UpsertSubscription(ctx context.Context, sub entitlement.Subscription) (entitlement.Subscription, error) {
	meta := sub.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return entitlement.Subscription{}, errors.Wrap(err, "encoding subscription metadata")
	}

	now := time.Now().UTC()
	createdAt, updatedAt := sub.CreatedAt.UTC(), sub.UpdatedAt.UTC()
	if sub.CreatedAt.IsZero() {
		createdAt = now
	}
	if sub.UpdatedAt.IsZero() {
		updatedAt = now
	}

	var row subscriptionRow
	q := queries.Raw(
		`INSERT INTO subscriptions (owner_id, status, provider_subscription_id, provider_customer_id, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)
		ON CONFLICT (provider_subscription_id) DO UPDATE SET
			owner_id = EXCLUDED.owner_id,
			status = EXCLUDED.status,
			provider_customer_id = EXCLUDED.provider_customer_id,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at
		RETURNING `+subscriptionColumns,
		sub.OwnerID,
		sub.Status,
		null.NewString(sub.ProviderSubscriptionID, sub.ProviderSubscriptionID != ""),
		null.NewString(sub.ProviderCustomerID, sub.ProviderCustomerID != ""),
		string(metaJSON),
		createdAt,
		updatedAt,
	)
	if err = q.Bind(ctx, repo.exec, &row); err != nil {
		return entitlement.Subscription{}, database.TrapErr(err, "upserting subscription")
	}
	return repo.unboilSubscription(row), nil
}
