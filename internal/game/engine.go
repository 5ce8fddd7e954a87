package game

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"skyhigh/internal/settings"
	"skyhigh/internal/txlog"
	"skyhigh/internal/wallet"
)

const (
	TICK_INTERVAL              = 1000 / 30 * time.Millisecond
	COUNTDOWN_SECONDS          = 3
	AUTO_BET_INITIAL_DELAY     = 5 * time.Second
	AUTO_BET_INTER_ROUND_DELAY = 1500 * time.Millisecond
	DEMO_INITIAL_BALANCE       = 1000.0
	MAX_HISTORY_ENTRIES        = 50

	AUTO_CASHOUT_MIN    = 0.05
	AUTO_CASHOUT_MAX    = 10.00
	AUTO_BET_MIN_ROUNDS = 1
	AUTO_BET_MAX_ROUNDS = 99
)

// Config controls engine timing and randomness. Tests inject Now and Roll to
// make rounds deterministic; production uses the defaults.
type Config struct {
	TickInterval           time.Duration
	CountdownSeconds       int
	AutoBetInitialDelay    time.Duration
	AutoBetInterRoundDelay time.Duration
	DemoInitialBalance     float64
	MaxHistoryEntries      int

	// Now supplies timestamps for elapsed-time computation. Elapsed time is
	// always measured from the round start timestamp, never from tick
	// counts, so scheduler jitter cannot skew the multiplier.
	Now func() time.Time

	// Roll returns a uniform [0,1) sample for the per-tick crash decision.
	Roll func() float64
}

func DefaultConfig() Config {
	return Config{
		TickInterval:           TICK_INTERVAL,
		CountdownSeconds:       COUNTDOWN_SECONDS,
		AutoBetInitialDelay:    AUTO_BET_INITIAL_DELAY,
		AutoBetInterRoundDelay: AUTO_BET_INTER_ROUND_DELAY,
		DemoInitialBalance:     DEMO_INITIAL_BALANCE,
		MaxHistoryEntries:      MAX_HISTORY_ENTRIES,
		Now:                    time.Now,
		Roll:                   rand.Float64,
	}
}

// Engine drives the crash game for a single player session: one live round at
// a time, an optional auto-bet session above it, and a separate demo balance
// pool. All public methods are safe for concurrent use; internally a single
// mutex serializes every state transition, so tick effects apply in a fixed
// per-tick order.
type Engine struct {
	mu sync.Mutex

	cfg  Config
	odds OddsConfig

	account  string
	wallet   wallet.Ledger
	demo     wallet.Ledger
	txlog    txlog.Recorder
	settings settings.Source

	demoMode bool

	// round state, owned exclusively by the engine
	phase           Phase
	betAmount       float64
	autoTarget      float64
	betWasAuto      bool
	startedAt       time.Time
	multiplier      float64
	lastMultiplier  float64
	profit          float64
	countdownLeft   int
	roundSettings   settings.Settings
	roundDifficulty float64
	roundHighStakes bool

	// roundSeq increments on every bet placement and reset. Timer callbacks
	// capture the sequence at schedule time and no-op when it has moved on,
	// which is the only defense needed against a cancel racing a fired timer.
	roundSeq uint64

	countdownTimer *time.Timer
	tickerStop     chan struct{}

	auto      *autoSession
	autoTimer *time.Timer

	history []HistoryEntry

	subs   map[chan Snapshot]struct{}
	closed bool
}

// New builds an engine for one account. The real ledger is only touched by
// real-money play; demo play is confined to the demo ledger, which is seeded
// with the configured demo balance.
func New(account string, realLedger wallet.Ledger, recorder txlog.Recorder, source settings.Source, cfg Config, odds OddsConfig) *Engine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Roll == nil {
		cfg.Roll = rand.Float64
	}
	demo := wallet.NewMemory()
	demo.SetBalance(context.Background(), account, cfg.DemoInitialBalance)

	return &Engine{
		cfg:      cfg,
		odds:     odds,
		account:  account,
		wallet:   realLedger,
		demo:     demo,
		txlog:    recorder,
		settings: source,
		phase:    PhaseIdle,
		subs:     make(map[chan Snapshot]struct{}),
	}
}

// Subscribe returns a channel receiving state snapshots after every
// transition and tick. Slow consumers drop updates rather than stalling the
// engine. Call the returned cancel func when done.
func (e *Engine) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 64)
	e.mu.Lock()
	e.subs[ch] = struct{}{}
	e.mu.Unlock()

	cancel := func() {
		e.mu.Lock()
		delete(e.subs, ch)
		e.mu.Unlock()
	}
	return ch, cancel
}

// Snapshot returns the current authoritative state.
func (e *Engine) Snapshot(ctx context.Context) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(ctx)
}

// History returns the retained real-money round history, newest first.
func (e *Engine) History() []HistoryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]HistoryEntry, len(e.history))
	copy(out, e.history)
	return out
}

// PlaceBet validates and opens a round: debits the stake from the active
// balance pool, then runs the betting countdown into the live phase. On any
// decline nothing is mutated and no funds move.
func (e *Engine) PlaceBet(ctx context.Context, amount float64, opts BetOptions) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.placeBetLocked(ctx, amount, opts)
}

func (e *Engine) placeBetLocked(ctx context.Context, amount float64, opts BetOptions) error {
	if e.closed {
		return declinef(DeclineBadPhase, "session is closed")
	}
	if !startable(e.phase) {
		return declinef(DeclineBadPhase, "cannot bet while round is %s", e.phase)
	}

	// Fresh settings snapshot per round; operator changes apply next round.
	snap := e.settings.Snapshot(ctx)

	if snap.MaintenanceMode && !e.demoMode {
		return declinef(DeclineMaintenance, "game is under maintenance")
	}
	if amount <= 0 {
		return declinef(DeclineInvalidAmount, "bet amount must be positive")
	}
	if amount < snap.MinBet {
		return declinef(DeclineBelowMinimum, "minimum bet is %.2f", snap.MinBet)
	}
	if snap.MaxBet > 0 && amount > snap.MaxBet {
		return declinef(DeclineAboveMaximum, "maximum bet is %.2f", snap.MaxBet)
	}
	if opts.AutoCashOutAt != 0 && (opts.AutoCashOutAt < AUTO_CASHOUT_MIN || opts.AutoCashOutAt > AUTO_CASHOUT_MAX) {
		return declinef(DeclineTargetOutOfRange, "auto cash-out must be between %.2fx and %.2fx", AUTO_CASHOUT_MIN, AUTO_CASHOUT_MAX)
	}

	ledger := e.activeLedger()
	if _, err := ledger.Debit(ctx, e.account, amount); err != nil {
		if err == wallet.ErrInsufficientFunds {
			return declinef(DeclineInsufficientFunds, "insufficient balance for bet of %.2f", amount)
		}
		log.Printf("[GAME] Debit failed for %s: %v", e.account, err)
		return declinef(DeclineInsufficientFunds, "balance unavailable")
	}

	if !e.demoMode {
		e.txlog.Record(ctx, txlog.Entry{
			Account: e.account,
			Type:    txlog.EntryBet,
			Amount:  amount,
		})
	}

	e.roundSeq++
	e.phase = PhaseBetting
	e.betAmount = amount
	e.autoTarget = opts.AutoCashOutAt
	e.betWasAuto = opts.autoRound
	e.multiplier = 0.00
	e.profit = -amount
	e.roundSettings = snap
	e.countdownLeft = e.cfg.CountdownSeconds

	log.Printf("[GAME] %s bet %.2f (auto=%v target=%.2f)", e.account, amount, opts.autoRound, opts.AutoCashOutAt)

	if e.countdownLeft <= 0 {
		e.launchLocked()
	} else {
		e.scheduleCountdownLocked(e.roundSeq)
	}
	e.notifyLocked()
	return nil
}

func (e *Engine) scheduleCountdownLocked(seq uint64) {
	e.countdownTimer = time.AfterFunc(time.Second, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		// A reset or mode switch may have landed while this timer was in
		// flight; validate against live state before acting.
		if e.closed || e.roundSeq != seq || e.phase != PhaseBetting {
			return
		}
		e.countdownLeft--
		if e.countdownLeft <= 0 {
			e.launchLocked()
		} else {
			e.scheduleCountdownLocked(seq)
		}
		e.notifyLocked()
	})
}

// launchLocked transitions Betting -> Running and starts the tick loop.
func (e *Engine) launchLocked() {
	e.phase = PhaseRunning
	e.startedAt = e.cfg.Now()
	e.multiplier = 0.00
	e.countdownLeft = 0

	snap := e.roundSettings
	e.roundHighStakes = !e.demoMode && e.betAmount >= snap.HighStakesThreshold
	e.roundDifficulty = e.odds.EffectiveDifficulty(
		e.betAmount, e.demoMode,
		snap.GameDifficultyPercent, snap.HighStakesThreshold, snap.HighStakesDifficultyPercent,
	)

	stop := make(chan struct{})
	e.tickerStop = stop
	go e.runTicks(e.roundSeq, stop)
}

func (e *Engine) runTicks(seq uint64, stop chan struct{}) {
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !e.tick(seq) {
				return
			}
		}
	}
}

// tick applies one simulation step: advance the multiplier off the start
// timestamp, check the auto cash-out target, then roll for a crash. The
// auto cash-out check deliberately runs before the crash roll, so a tick
// where both would fire settles as a cash-out at exactly the target.
func (e *Engine) tick(seq uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.roundSeq != seq || e.phase != PhaseRunning {
		return false
	}

	elapsed := e.cfg.Now().Sub(e.startedAt).Seconds()
	m := e.odds.Multiplier(elapsed)
	if m < e.multiplier {
		m = e.multiplier
	}

	if e.autoTarget > 0 && m >= e.autoTarget {
		e.settleCashOutLocked(e.autoTarget)
		return false
	}

	p := e.odds.CrashProbability(m, e.roundDifficulty)
	if e.roundHighStakes {
		p += e.odds.HighStakesHazard(elapsed, e.roundDifficulty)
	}
	// The opening tick can never crash the round at 0x.
	if m >= e.odds.MinHazardMultiplier && e.cfg.Roll() < p {
		e.settleCrashLocked(m)
		return false
	}

	e.multiplier = m
	e.profit = e.betAmount*m - e.betAmount
	e.notifyLocked()
	return true
}

// CashOut settles the live round at the multiplier observed right now.
// It is declined unless a bet is running with a positive multiplier.
func (e *Engine) CashOut(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseRunning || e.betAmount <= 0 || e.multiplier <= 0 {
		return declinef(DeclineBadPhase, "nothing to cash out")
	}
	e.settleCashOutLocked(e.multiplier)
	return nil
}

// Reset returns a settled round to idle. Valid only from a terminal phase.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !terminal(e.phase) {
		return declinef(DeclineBadPhase, "cannot reset while round is %s", e.phase)
	}
	e.resetRoundLocked()
	e.notifyLocked()
	return nil
}

// SetDemoMode switches balance pools. A live round is torn down and any
// auto-bet session is force-stopped first: a session never straddles a
// balance-pool switch.
func (e *Engine) SetDemoMode(ctx context.Context, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.demoMode == enabled {
		return nil
	}
	e.stopAutoLocked(StopManual)
	e.resetRoundLocked()
	e.demoMode = enabled

	if enabled {
		if bal, _ := e.demo.Balance(ctx, e.account); bal <= 0 {
			e.demo.SetBalance(ctx, e.account, e.cfg.DemoInitialBalance)
		}
	}
	log.Printf("[GAME] %s demo mode: %v", e.account, enabled)
	e.notifyLocked()
	return nil
}

// SetBalance overwrites the active pool's balance. Exposed for the admin
// surface; demo mode writes only the demo pool.
func (e *Engine) SetBalance(ctx context.Context, amount float64) error {
	if amount < 0 {
		return declinef(DeclineInvalidAmount, "balance cannot be negative")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.activeLedger().SetBalance(ctx, e.account, amount); err != nil {
		return err
	}
	e.notifyLocked()
	return nil
}

// Close stops all timers and the tick loop. The engine is unusable after.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.stopTimersLocked()
}

func (e *Engine) settleCrashLocked(finalMultiplier float64) {
	e.stopRoundTimersLocked()
	e.phase = PhaseCrashed
	e.multiplier = finalMultiplier
	e.lastMultiplier = finalMultiplier
	profit := -e.betAmount
	e.profit = profit

	// The stake was debited at placement; a crash moves no further funds.
	if !e.demoMode {
		e.txlog.Record(context.Background(), txlog.Entry{
			Account:    e.account,
			Type:       txlog.EntryBetLost,
			Amount:     e.betAmount,
			Multiplier: finalMultiplier,
		})
		e.appendHistoryLocked(PhaseCrashed, finalMultiplier, profit)
	}

	log.Printf("[GAME] %s crashed at %.2fx, lost %.2f", e.account, finalMultiplier, e.betAmount)
	e.roundSettledLocked(profit)
	e.notifyLocked()
}

func (e *Engine) settleCashOutLocked(atMultiplier float64) {
	e.stopRoundTimersLocked()
	e.phase = PhaseCashedOut
	e.multiplier = atMultiplier
	e.lastMultiplier = atMultiplier

	payout := e.betAmount * atMultiplier
	profit := payout - e.betAmount
	e.profit = profit

	// The stake was debited up front, so the credit is the full payout.
	if _, err := e.activeLedger().Credit(context.Background(), e.account, payout); err != nil {
		log.Printf("[GAME] Credit failed for %s: %v", e.account, err)
	}

	if !e.demoMode {
		e.txlog.Record(context.Background(), txlog.Entry{
			Account:    e.account,
			Type:       txlog.EntryWin,
			Amount:     profit,
			Multiplier: atMultiplier,
		})
		e.appendHistoryLocked(PhaseCashedOut, atMultiplier, profit)
	}

	log.Printf("[GAME] %s cashed out at %.2fx, payout %.2f", e.account, atMultiplier, payout)
	e.roundSettledLocked(profit)
	e.notifyLocked()
}

func (e *Engine) resetRoundLocked() {
	e.roundSeq++
	e.stopRoundTimersLocked()
	e.phase = PhaseIdle
	e.betAmount = 0
	e.autoTarget = 0
	e.betWasAuto = false
	e.multiplier = 0.00
	e.profit = 0
	e.countdownLeft = 0
}

func (e *Engine) stopRoundTimersLocked() {
	if e.countdownTimer != nil {
		e.countdownTimer.Stop()
		e.countdownTimer = nil
	}
	if e.tickerStop != nil {
		close(e.tickerStop)
		e.tickerStop = nil
	}
}

func (e *Engine) stopTimersLocked() {
	e.stopRoundTimersLocked()
	if e.autoTimer != nil {
		e.autoTimer.Stop()
		e.autoTimer = nil
	}
}

func (e *Engine) activeLedger() wallet.Ledger {
	if e.demoMode {
		return e.demo
	}
	return e.wallet
}

func (e *Engine) appendHistoryLocked(outcome Phase, multiplier, profit float64) {
	entry := HistoryEntry{
		ID:                uuid.NewString(),
		BetAmount:         e.betAmount,
		Outcome:           outcome,
		OutcomeMultiplier: multiplier,
		Profit:            profit,
		Timestamp:         e.cfg.Now().UnixMilli(),
	}
	e.history = append([]HistoryEntry{entry}, e.history...)
	if max := e.cfg.MaxHistoryEntries; max > 0 && len(e.history) > max {
		e.history = e.history[:max]
	}
}

func (e *Engine) snapshotLocked(ctx context.Context) Snapshot {
	balance, err := e.activeLedger().Balance(ctx, e.account)
	if err != nil {
		log.Printf("[GAME] Balance read failed for %s: %v", e.account, err)
	}
	snap := Snapshot{
		Account:          e.account,
		Phase:            e.phase,
		Multiplier:       e.multiplier,
		LastMultiplier:   e.lastMultiplier,
		BetAmount:        e.betAmount,
		Profit:           e.profit,
		CountdownSeconds: e.countdownLeft,
		Balance:          balance,
		DemoMode:         e.demoMode,
		Timestamp:        e.cfg.Now(),
	}
	if e.auto != nil {
		snap.AutoBet = &AutoBetSnapshot{
			Active:          e.auto.status == autoActive,
			Starting:        e.auto.status == autoStarting,
			Settings:        e.auto.settings,
			RoundsRemaining: e.auto.roundsRemaining,
			SessionProfit:   e.auto.sessionProfit,
			StopReason:      e.auto.stopReason,
		}
	}
	return snap
}

func (e *Engine) notifyLocked() {
	snap := e.snapshotLocked(context.Background())
	for ch := range e.subs {
		select {
		case ch <- snap:
		default:
			// Slow subscriber; drop rather than stall the loop.
		}
	}
}
