package server

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/blankon/cidash/internal/dashboard/usecase"
	"github.com/blankon/cidash/internal/entity"
)

var (
	ErrTenantMissing = errors.New("tenant should not be empty")
	ErrTenantUnknown = errors.New("tenant not found")
)

// tenantListTTL is how long the tenant list is trusted before an unknown
// name triggers a refresh.
const tenantListTTL = time.Minute

// Factory builds the usecase of one tenant.
type Factory func(tenant string) (*usecase.DashboardUsecase, error)

// Lister returns the tenants served by the API.
type Lister func(ctx context.Context) ([]entity.Tenant, error)

// Tenants hands out one usecase per tenant, creating it on first use. Only
// tenants the API lists get one. Each created usecase refreshes its status
// every interval until ctx is done.
type Tenants struct {
	mu       sync.Mutex
	ctx      context.Context
	factory  Factory
	list     Lister
	interval time.Duration
	usecases map[string]*usecase.DashboardUsecase
	known    map[string]bool
	knownAt  time.Time
	now      func() time.Time
}

// NewTenants returns a registry. A nil list accepts every tenant name.
func NewTenants(ctx context.Context, factory Factory, list Lister, interval time.Duration) *Tenants {
	return &Tenants{
		ctx:      ctx,
		factory:  factory,
		list:     list,
		interval: interval,
		usecases: map[string]*usecase.DashboardUsecase{},
		now:      time.Now,
	}
}

func (t *Tenants) Get(ctx context.Context, name string) (*usecase.DashboardUsecase, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTenantMissing
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if uc, ok := t.usecases[name]; ok {
		return uc, nil
	}
	if err := t.checkKnown(ctx, name); err != nil {
		return nil, err
	}
	uc, err := t.factory(name)
	if err != nil {
		return nil, err
	}
	t.usecases[name] = uc
	if t.interval > 0 {
		go uc.Run(t.ctx, t.interval)
	}
	return uc, nil
}

// checkKnown looks name up in the tenant list, refreshing the list when
// it is missing or older than tenantListTTL. Callers hold t.mu.
func (t *Tenants) checkKnown(ctx context.Context, name string) error {
	if t.list == nil {
		return nil
	}
	if t.known != nil && t.known[name] {
		return nil
	}
	if t.known != nil && t.now().Sub(t.knownAt) < tenantListTTL {
		return ErrTenantUnknown
	}

	tenants, err := t.list(ctx)
	var stale *usecase.StaleError
	if err != nil && !errors.As(err, &stale) {
		return err
	}
	t.known = make(map[string]bool, len(tenants))
	for _, tenant := range tenants {
		t.known[tenant.Name] = true
	}
	t.knownAt = t.now()

	if !t.known[name] {
		return ErrTenantUnknown
	}
	return nil
}

// Names lists the tenants served so far.
func (t *Tenants) Names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	names := make([]string, 0, len(t.usecases))
	for name := range t.usecases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
