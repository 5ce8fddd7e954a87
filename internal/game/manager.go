package game

import (
	"log"
	"sync"

	"skyhigh/internal/settings"
	"skyhigh/internal/txlog"
	"skyhigh/internal/wallet"
)

// Manager owns one Engine per player session. Each engine runs its own round
// simulation; there is no shared round. Engine snapshots are forwarded to the
// hub for realtime delivery.
type Manager struct {
	mu      sync.Mutex
	engines map[string]*Engine

	hub      *Hub
	wallet   wallet.Ledger
	txlog    txlog.Recorder
	settings settings.Source
	cfg      Config
	odds     OddsConfig

	done chan struct{}
}

func NewManager(hub *Hub, ledger wallet.Ledger, recorder txlog.Recorder, source settings.Source) *Manager {
	return &Manager{
		engines:  make(map[string]*Engine),
		hub:      hub,
		wallet:   ledger,
		txlog:    recorder,
		settings: source,
		cfg:      DefaultConfig(),
		odds:     DefaultOdds(),
		done:     make(chan struct{}),
	}
}

// Engine returns the session engine for an account, creating it on first use.
func (m *Manager) Engine(account string) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()

	if engine, ok := m.engines[account]; ok {
		return engine
	}

	engine := New(account, m.wallet, m.txlog, m.settings, m.cfg, m.odds)
	m.engines[account] = engine
	go m.forward(account, engine)

	log.Printf("[GAME] Engine created for %s (total: %d)", account, len(m.engines))
	return engine
}

// forward pumps engine snapshots to the account's websocket connections.
func (m *Manager) forward(account string, engine *Engine) {
	snapshots, cancel := engine.Subscribe()
	defer cancel()

	for {
		select {
		case <-m.done:
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			if m.hub != nil {
				m.hub.SendToUser(account, map[string]interface{}{
					"type": "state",
					"data": snap,
				})
			}
		}
	}
}

// Stop tears down every session engine.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	close(m.done)
	for account, engine := range m.engines {
		engine.Close()
		delete(m.engines, account)
	}
	log.Println("[GAME] All session engines stopped")
}
