package entitlement

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

type fakeRepo struct {
	mu sync.Mutex

	accelerator map[string]bool
	subs        map[string]Subscription // by owner id
	electives   map[string][]Purchase

	purchaseErr  error
	subErr       error
	electivesErr error
	upsertErr    error

	subLookups []string
	upserts    []Subscription
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		accelerator: make(map[string]bool),
		subs:        make(map[string]Subscription),
		electives:   make(map[string][]Purchase),
	}
}

func (r *fakeRepo) HasActiveAcceleratorPurchase(_ context.Context, userID string) (bool, error) {
	if r.purchaseErr != nil {
		return false, r.purchaseErr
	}
	return r.accelerator[userID], nil
}

func (r *fakeRepo) GetActiveSubscription(_ context.Context, ownerID string) (Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subLookups = append(r.subLookups, ownerID)
	if r.subErr != nil {
		return Subscription{}, r.subErr
	}
	sub, ok := r.subs[ownerID]
	if !ok || !sub.IsActive() {
		return Subscription{}, errors.Wrap(ErrNotFound, ownerID)
	}
	return sub, nil
}

func (r *fakeRepo) QueryActiveElectivePurchases(_ context.Context, userID string) ([]Purchase, error) {
	if r.electivesErr != nil {
		return nil, r.electivesErr
	}
	return r.electives[userID], nil
}

func (r *fakeRepo) UpsertSubscription(_ context.Context, sub Subscription) (Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return Subscription{}, r.upsertErr
	}
	r.upserts = append(r.upserts, sub)
	r.subs[sub.OwnerID] = sub
	return sub, nil
}

type searchCall struct{ key, value string }

type fakeProvider struct {
	mu      sync.Mutex
	results map[searchCall][]ProviderSubscription
	errs    map[searchCall]error
	calls   []searchCall
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		results: make(map[searchCall][]ProviderSubscription),
		errs:    make(map[searchCall]error),
	}
}

func (p *fakeProvider) SearchSubscriptions(_ context.Context, key, value string) ([]ProviderSubscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	call := searchCall{key, value}
	p.calls = append(p.calls, call)
	if err := p.errs[call]; err != nil {
		return nil, err
	}
	return p.results[call], nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// fakeCooldown allows each key once.
type fakeCooldown struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newFakeCooldown() *fakeCooldown {
	return &fakeCooldown{seen: make(map[string]bool)}
}

func (c *fakeCooldown) Allow(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return false, c.err
	}
	if c.seen[key] {
		return false, nil
	}
	c.seen[key] = true
	return true, nil
}
