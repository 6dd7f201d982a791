package services

import (
	"context"
	"log/slog"
	"sync"

	"expensetracker/internal/kv"
	applog "expensetracker/internal/log"
	"expensetracker/internal/metrics"
)

// Preferences holds the onboarding flag. It defaults to showing the welcome
// screen until it is explicitly dismissed.
type Preferences struct {
	mu     sync.Mutex
	kv     kv.Store
	loaded bool
	show   bool
}

func NewPreferences(store kv.Store) *Preferences {
	return &Preferences{kv: store}
}

func (p *Preferences) ShowWelcome(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		p.show = kv.Load(ctx, p.kv, kv.KeyShowWelcome, true)
		p.loaded = true
	}
	return p.show
}

// DismissWelcome clears the flag.
func (p *Preferences) DismissWelcome(ctx context.Context) {
	p.SetShowWelcome(ctx, false)
}

func (p *Preferences) SetShowWelcome(ctx context.Context, show bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.show, p.loaded = show, true
	if err := kv.Save(ctx, p.kv, kv.KeyShowWelcome, show); err != nil {
		metrics.PersistenceFailures.WithLabelValues(applog.OpWrite).Inc()
		slog.ErrorContext(ctx, "Failed to persist onboarding flag",
			applog.FieldComponent, applog.ComponentStorage,
			applog.FieldKey, kv.KeyShowWelcome,
			applog.FieldError, err)
	}
}
