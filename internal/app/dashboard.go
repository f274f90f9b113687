package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jyotishdesk/backoffice/internal/domain"
	"github.com/jyotishdesk/backoffice/internal/resource"
	"github.com/jyotishdesk/backoffice/pkg/metrics"
)

// ResourceCount is the collection size of one resource. Known is false when
// the backend could not be asked or the size could not be established.
type ResourceCount struct {
	Resource string `json:"resource"`
	Count    int    `json:"count"`
	Known    bool   `json:"known"`
	Error    string `json:"error,omitempty"`
}

type DashboardSnapshot struct {
	Counts      []ResourceCount `json:"counts"`
	RefreshedAt time.Time       `json:"refreshed_at"`
}

type dashboardCache struct {
	mu   sync.RWMutex
	snap DashboardSnapshot
}

func (d *dashboardCache) get() DashboardSnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snap
}

func (d *dashboardCache) set(s DashboardSnapshot) {
	d.mu.Lock()
	d.snap = s
	d.mu.Unlock()
}

// Dashboard returns the last cached counts.
func (a *Application) Dashboard() DashboardSnapshot {
	return a.dashboard.get()
}

// RefreshDashboard counts every resource with the token of operator and
// caches the result. The request context bounds the whole refresh.
func (a *Application) RefreshDashboard(ctx context.Context, operator string) DashboardSnapshot {
	var ts resource.TokenSource = resource.StaticToken("")
	if a.tokens != nil {
		ts = a.tokens.Source(operator)
	}
	counts := make([]ResourceCount, len(dashboardResources()))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())
	for i, name := range dashboardResources() {
		i, name := i, name
		g.Go(func() error {
			counts[i] = a.countResource(gctx, name, ts)
			return nil
		})
	}
	_ = g.Wait()
	return a.storeSnapshot(counts)
}

// refreshPooled is the background variant of RefreshDashboard; it shares
// the application worker pool with other jobs.
func (a *Application) refreshPooled(ctx context.Context, ts resource.TokenSource) DashboardSnapshot {
	names := dashboardResources()
	counts := make([]ResourceCount, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		i, name := i, name
		wg.Add(1)
		err := a.pool.Submit(func() {
			defer wg.Done()
			counts[i] = a.countResource(ctx, name, ts)
		})
		if err != nil {
			wg.Done()
			counts[i] = ResourceCount{Resource: name, Error: err.Error()}
		}
	}
	wg.Wait()
	return a.storeSnapshot(counts)
}

func (a *Application) storeSnapshot(counts []ResourceCount) DashboardSnapshot {
	snap := DashboardSnapshot{Counts: counts, RefreshedAt: time.Now()}
	a.dashboard.set(snap)
	for _, c := range counts {
		if c.Known {
			metrics.SetGauge("resource_count", int64(c.Count), "resource", c.Resource)
		}
	}
	return snap
}

const (
	countPageSize = 100
	maxCountPages = 50
)

// countResource asks for a one item page and reads the total from its
// pagination. Servers that send no total are counted page by page.
func (a *Application) countResource(ctx context.Context, name string, ts resource.TokenSource) ResourceCount {
	client := resource.NewClient[map[string]interface{}](name,
		a.appConfig.Backend.BaseURL,
		domain.ResourcePaths[name],
		resource.WithTimeout(a.appConfig.BackendTimeout()),
		resource.WithTokenSource(ts),
	)
	page, err := client.List(ctx, resource.ListQuery{Page: 1, PageSize: 1})
	if err != nil {
		zap.L().Warn("count resource failed", zap.String("resource", name), zap.Error(err))
		return ResourceCount{Resource: name, Error: resource.ErrorMessage(err)}
	}
	if page.Pagination.CountKnown {
		return ResourceCount{Resource: name, Count: page.Pagination.TotalCount, Known: true}
	}
	return walkCount(ctx, name, client)
}

// walkCount sums page lengths until a short page. The count stays unknown
// when the walk does not end within maxCountPages.
func walkCount(ctx context.Context, name string, client *resource.Client[map[string]interface{}]) ResourceCount {
	total := 0
	for p := 1; p <= maxCountPages; p++ {
		page, err := client.List(ctx, resource.ListQuery{Page: p, PageSize: countPageSize})
		if err != nil {
			zap.L().Warn("count resource failed", zap.String("resource", name), zap.Int("page", p), zap.Error(err))
			return ResourceCount{Resource: name, Error: resource.ErrorMessage(err)}
		}
		total += len(page.Results)
		if len(page.Results) < countPageSize {
			return ResourceCount{Resource: name, Count: total, Known: true}
		}
	}
	return ResourceCount{Resource: name, Count: total}
}

func (a *Application) workers() int {
	if a.appConfig.Jobs.Workers > 0 {
		return a.appConfig.Jobs.Workers
	}
	return 8
}

// dashboardResources lists every resource name in a stable order.
func dashboardResources() []string {
	names := make([]string, 0, len(domain.ResourcePaths))
	for name := range domain.ResourcePaths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
