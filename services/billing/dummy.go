package billingsvc

import (
	"context"
	"sync"

	"github.com/trezcool/launchpad/core"
	"github.com/trezcool/launchpad/core/entitlement"
)

// DummyProvider stands in for Stripe when no secret key is configured (local dev, tests).
// It only knows the subscriptions added to it.
type DummyProvider struct {
	mu   sync.RWMutex
	subs []entitlement.ProviderSubscription
}

var _ entitlement.BillingProvider = (*DummyProvider)(nil)

func NewDummyProvider(subs ...entitlement.ProviderSubscription) *DummyProvider {
	return &DummyProvider{subs: subs}
}

func (p *DummyProvider) Add(sub entitlement.ProviderSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = append(p.subs, sub)
}

func (p *DummyProvider) SearchSubscriptions(_ context.Context, metadataKey, value string) ([]entitlement.ProviderSubscription, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var found []entitlement.ProviderSubscription
	for _, s := range p.subs {
		if v, ok := s.Metadata[metadataKey]; ok && core.CleanString(v) == value {
			found = append(found, s)
		}
	}
	return found, nil
}

// NewProvider returns the Stripe provider when a secret key is configured, the dummy otherwise.
func NewProvider(conf core.BillingConfig) entitlement.BillingProvider {
	if conf.StripeSecretKey == "" {
		return NewDummyProvider()
	}
	return NewStripeProvider(conf.StripeSecretKey)
}
