package billingsvc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/trezcool/launchpad/core/entitlement"
)

// searchLimit caps every search: an organization rarely has more than a couple of subscriptions.
const searchLimit = 10

type subscriptionIter interface {
	Next() bool
	Subscription() *stripe.Subscription
	Err() error
}

// StripeProvider finds subscriptions through the Stripe search API.
type StripeProvider struct {
	search func(params *stripe.SubscriptionSearchParams) subscriptionIter
}

var _ entitlement.BillingProvider = (*StripeProvider)(nil)

func NewStripeProvider(secretKey string) *StripeProvider {
	sc := client.New(secretKey, nil)
	return &StripeProvider{
		search: func(params *stripe.SubscriptionSearchParams) subscriptionIter {
			return sc.Subscriptions.Search(params)
		},
	}
}

func (p *StripeProvider) SearchSubscriptions(ctx context.Context, metadataKey, value string) ([]entitlement.ProviderSubscription, error) {
	params := &stripe.SubscriptionSearchParams{
		SearchParams: stripe.SearchParams{
			Context: ctx,
			Query:   metadataQuery(metadataKey, value),
			Limit:   stripe.Int64(searchLimit),
		},
	}

	var subs []entitlement.ProviderSubscription
	iter := p.search(params)
	for iter.Next() && len(subs) < searchLimit {
		subs = append(subs, toProviderSubscription(iter.Subscription()))
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrapf(err, "searching stripe subscriptions (%s)", params.Query)
	}
	return subs, nil
}

// metadataQuery builds a Stripe search clause matching one metadata value exactly.
func metadataQuery(key, value string) string {
	return fmt.Sprintf("metadata['%s']:'%s'", escapeQuery(key), escapeQuery(value))
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

func toProviderSubscription(s *stripe.Subscription) entitlement.ProviderSubscription {
	sub := entitlement.ProviderSubscription{
		ID:       s.ID,
		Status:   string(s.Status),
		Metadata: s.Metadata,
	}
	if s.Customer != nil {
		sub.CustomerID = s.Customer.ID
	}
	if s.Created > 0 {
		sub.CreatedAt = time.Unix(s.Created, 0).UTC()
	}
	return sub
}
