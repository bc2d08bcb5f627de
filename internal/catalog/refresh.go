package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "vitalis/internal/log"
	"vitalis/internal/model"
)

// Holder is the shared, swappable current catalog.
type Holder struct {
	mu       sync.RWMutex
	current  *model.Catalog
	loadedAt time.Time
}

func NewHolder(cat *model.Catalog) *Holder {
	return &Holder{current: cat, loadedAt: time.Now()}
}

// Get returns the current catalog.
func (h *Holder) Get() *model.Catalog {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// LoadedAt is when the current catalog was installed.
func (h *Holder) LoadedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loadedAt
}

// Set replaces the catalog wholesale.
func (h *Holder) Set(cat *model.Catalog) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = cat
	h.loadedAt = time.Now()
}

// Refresher reloads the catalog on a cron schedule. A failed reload keeps
// the previous catalog.
type Refresher struct {
	loader *Loader
	holder *Holder
	cron   *cron.Cron
}

// NewRefresher schedules reloads with a standard five-field cron spec
// (e.g. "*/15 * * * *").
func NewRefresher(loader *Loader, holder *Holder, spec string) (*Refresher, error) {
	r := &Refresher{
		loader: loader,
		holder: holder,
		cron:   cron.New(),
	}
	if _, err := r.cron.AddFunc(spec, func() { r.Refresh(context.Background()) }); err != nil {
		return nil, fmt.Errorf("catalog: invalid refresh schedule %q: %w", spec, err)
	}
	return r, nil
}

// Refresh reloads once and reports whether the catalog was replaced.
func (r *Refresher) Refresh(ctx context.Context) bool {
	cat, err := r.loader.Load(ctx)
	if err != nil {
		appLog.Error("catalog refresh failed; keeping previous catalog", err,
			"seminars", r.holder.Get().Len())
		return false
	}
	r.holder.Set(cat)
	return true
}

// Run starts the schedule and blocks until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	r.cron.Start()
	appLog.Info("catalog refresh scheduled", "entries", len(r.cron.Entries()))
	<-ctx.Done()
	stopped := r.cron.Stop()
	<-stopped.Done()
}
