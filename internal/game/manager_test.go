package game

import (
	"context"
	"testing"

	"skyhigh/internal/settings"
	"skyhigh/internal/txlog"
	"skyhigh/internal/wallet"
)

func newTestManager() *Manager {
	ledger := wallet.NewMemory()
	ledger.SetBalance(context.Background(), "alice", 100)
	return NewManager(NewHub(), ledger, txlog.NewMemory(), settings.Static{Settings: settings.Defaults()})
}

func TestManager_EnginePerAccount(t *testing.T) {
	m := newTestManager()
	defer m.Stop()

	t.Run("same account reuses the engine", func(t *testing.T) {
		if m.Engine("alice") != m.Engine("alice") {
			t.Error("repeated lookups created distinct engines")
		}
	})

	t.Run("accounts are isolated", func(t *testing.T) {
		if m.Engine("alice") == m.Engine("bob") {
			t.Error("distinct accounts share an engine")
		}
	})
}

func TestManager_EngineUsesSharedLedger(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	defer m.Stop()

	snap := m.Engine("alice").Snapshot(ctx)
	if snap.Balance != 100 {
		t.Errorf("balance = %v, want 100 from the shared ledger", snap.Balance)
	}
	if snap.Account != "alice" {
		t.Errorf("account = %q, want alice", snap.Account)
	}
}

func TestManager_StopClosesEngines(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	e := m.Engine("alice")
	m.Stop()

	// A closed engine declines new rounds rather than starting timers.
	assertDecline(t, e.PlaceBet(ctx, 10, BetOptions{}), DeclineBadPhase)
	assertDecline(t, e.StartAutoBet(ctx, validAutoSettings()), DeclineBadPhase)
}
