package services

import (
	"context"
	"testing"

	"expensetracker/internal/kv"
	"expensetracker/internal/kv/memory"
)

func TestPreferencesDefaultAndDismiss(t *testing.T) {
	ctx := context.Background()
	backing := memory.New()
	p := NewPreferences(backing)
	if !p.ShowWelcome(ctx) {
		t.Fatalf("welcome should show by default")
	}
	p.DismissWelcome(ctx)
	if p.ShowWelcome(ctx) {
		t.Fatalf("welcome should be hidden after dismiss")
	}
	if NewPreferences(backing).ShowWelcome(ctx) {
		t.Fatalf("dismissal should persist")
	}
	if got := kv.Load(ctx, backing, kv.KeyShowWelcome, true); got {
		t.Fatalf("stored flag = %v, want false", got)
	}
}

func TestPreferencesWriteFailureKeepsSessionState(t *testing.T) {
	ctx := context.Background()
	p := NewPreferences(failingKV{memory.New()})
	p.DismissWelcome(ctx)
	if p.ShowWelcome(ctx) {
		t.Fatalf("session state should survive a failed write")
	}
}
