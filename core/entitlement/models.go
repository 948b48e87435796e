package entitlement

import (
	"time"

	"github.com/trezcool/launchpad/core"
)

// Purchase kinds
const (
	PurchaseAccelerator = "accelerator"
	PurchaseElective    = "elective"
)

// Purchase statuses
const (
	PurchaseActive   = "active"
	PurchaseInactive = "inactive"
)

// Subscription statuses (mirrors the billing provider's lifecycle)
const (
	SubscriptionTrialing          = "trialing"
	SubscriptionActive            = "active"
	SubscriptionPastDue           = "past_due"
	SubscriptionCanceled          = "canceled"
	SubscriptionIncomplete        = "incomplete"
	SubscriptionIncompleteExpired = "incomplete_expired"
)

// Provider metadata keys used to find a subscription that was never synced locally.
const (
	MetadataOrgOwnerID = "organization_owner_id"
	MetadataLearnerID  = "learner_id"
)

var (
	AllSubscriptionStatuses = []string{
		SubscriptionTrialing, SubscriptionActive, SubscriptionPastDue,
		SubscriptionCanceled, SubscriptionIncomplete, SubscriptionIncompleteExpired,
	}

	metadataKeys = []string{MetadataOrgOwnerID, MetadataLearnerID}
)

// IsActiveSubscriptionStatus reports whether a subscription in this status grants access.
func IsActiveSubscriptionStatus(status string) bool {
	switch core.CleanString(status, true /* lower */) {
	case SubscriptionActive, SubscriptionTrialing:
		return true
	default:
		return false
	}
}

// Purchase is a one-time grant: the accelerator bundle or a single elective module.
type Purchase struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Kind       string    `json:"kind"`
	ModuleSlug string    `json:"module_slug,omitempty"` // electives only
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Subscription is keyed by the organization owner's id.
// Legacy rows may be keyed by a member's (learner's) id instead.
type Subscription struct {
	ID                     string            `json:"id"`
	OwnerID                string            `json:"owner_id"`
	Status                 string            `json:"status"`
	ProviderSubscriptionID string            `json:"provider_subscription_id,omitempty"`
	ProviderCustomerID     string            `json:"provider_customer_id,omitempty"`
	Metadata               map[string]string `json:"metadata,omitempty"`
	CreatedAt              time.Time         `json:"created_at"`
	UpdatedAt              time.Time         `json:"updated_at"`
}

func (s Subscription) IsActive() bool {
	return IsActiveSubscriptionStatus(s.Status)
}

// ProviderSubscription is a subscription as reported by the external billing provider.
type ProviderSubscription struct {
	ID         string
	CustomerID string
	Status     string
	Metadata   map[string]string
	CreatedAt  time.Time
}

// Snapshot is the set of access rights of a learner. Derived per request, never persisted.
type Snapshot struct {
	HasAcceleratorPurchase   bool     `json:"has_accelerator_purchase"`
	HasActiveSubscription    bool     `json:"has_active_subscription"`
	HasAcceleratorAccess     bool     `json:"has_accelerator_access"`
	HasElectiveAccess        bool     `json:"has_elective_access"`
	OwnedElectiveModuleSlugs []string `json:"owned_elective_module_slugs"`
}

// OwnsElective reports whether the snapshot grants access to the elective with the given slug.
func (s Snapshot) OwnsElective(slug string) bool {
	slug = core.CleanString(slug, true /* lower */)
	for _, owned := range s.OwnedElectiveModuleSlugs {
		if owned == slug {
			return true
		}
	}
	return false
}

// Request identifies whose entitlements to resolve.
type Request struct {
	UserID     string
	OrgOwnerID string // defaults to UserID
	IsAdmin    bool
}

func (r Request) ownerID() string {
	if id := core.CleanString(r.OrgOwnerID); id != "" {
		return id
	}
	return core.CleanString(r.UserID)
}
