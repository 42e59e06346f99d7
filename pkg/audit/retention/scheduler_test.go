package retention

import (
	"context"
	"testing"

	"guionesreels/ideagate/pkg/audit/storage"
)

func TestScheduler_StartStop(t *testing.T) {
	p := NewPruner(storage.NewMemoryStorage(), Config{RetentionDays: 30, PruneSchedule: "0 3 * * *"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !p.scheduler.IsRunning() {
		t.Fatal("scheduler not running")
	}
	if next := p.NextPruning(); next == nil || next.IsZero() {
		t.Errorf("NextPruning() = %v, want a scheduled time", next)
	}

	p.Stop()
	if p.scheduler.IsRunning() {
		t.Error("scheduler still running after Stop")
	}
}

func TestScheduler_EmptySchedule(t *testing.T) {
	p := NewPruner(storage.NewMemoryStorage(), Config{})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if p.scheduler.IsRunning() {
		t.Error("scheduler should stay idle without a schedule")
	}
	if p.NextPruning() != nil {
		t.Error("NextPruning() should be nil when idle")
	}
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	p := NewPruner(storage.NewMemoryStorage(), Config{PruneSchedule: "every day"})
	if err := p.Start(context.Background()); err == nil {
		t.Error("expected error for invalid schedule")
	}
}
