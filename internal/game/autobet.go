package game

import (
	"context"
	"log"
	"time"
)

type autoStatus int

const (
	autoStarting autoStatus = iota
	autoActive
	autoStopped
)

// autoSession supervises a sequence of rounds played with fixed parameters.
// It exists only while status is starting/active; a stop is terminal.
type autoSession struct {
	settings        AutoBetSettings
	roundsRemaining int
	sessionProfit   float64
	status          autoStatus
	stopReason      StopReason
}

// StartAutoBet begins an auto-bet session. Rejected while another session is
// starting or active. The first bet waits for the round machine to be
// startable plus the initial delay; subsequent rounds are paced by the
// inter-round delay.
func (e *Engine) StartAutoBet(ctx context.Context, s AutoBetSettings) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return declinef(DeclineBadPhase, "session is closed")
	}
	if e.auto != nil && e.auto.status != autoStopped {
		return declinef(DeclineSessionActive, "auto-bet is already active or initializing")
	}
	if s.NumberOfBets < AUTO_BET_MIN_ROUNDS || s.NumberOfBets > AUTO_BET_MAX_ROUNDS {
		return declinef(DeclineRoundsOutOfRange, "number of rounds must be between %d and %d", AUTO_BET_MIN_ROUNDS, AUTO_BET_MAX_ROUNDS)
	}
	if s.BetAmount <= 0 {
		return declinef(DeclineInvalidAmount, "bet amount must be positive")
	}
	if s.CashOutAtMultiplier < AUTO_CASHOUT_MIN || s.CashOutAtMultiplier > AUTO_CASHOUT_MAX {
		return declinef(DeclineTargetOutOfRange, "cash-out multiplier must be between %.2fx and %.2fx", AUTO_CASHOUT_MIN, AUTO_CASHOUT_MAX)
	}
	if s.StopOnProfit <= 0 || s.StopOnLoss <= 0 {
		return declinef(DeclineStopOutOfRange, "stop-on-profit and stop-on-loss must be positive")
	}

	e.auto = &autoSession{
		settings:        s,
		roundsRemaining: s.NumberOfBets,
		status:          autoStarting,
	}
	log.Printf("[AUTO] %s session started: %d rounds of %.2f, cash out at %.2fx", e.account, s.NumberOfBets, s.BetAmount, s.CashOutAtMultiplier)

	// If a round is in flight the first bet is scheduled when it settles.
	if startable(e.phase) {
		e.scheduleAutoLocked(e.cfg.AutoBetInitialDelay)
	}
	e.notifyLocked()
	return nil
}

// StopAutoBet ends the session with the given reason. Always accepted; a
// no-op when no session is live. Any pending scheduled round is cancelled
// before it fires.
func (e *Engine) StopAutoBet(ctx context.Context, reason StopReason) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopAutoLocked(reason)
	e.notifyLocked()
}

func (e *Engine) stopAutoLocked(reason StopReason) {
	if e.auto == nil || e.auto.status == autoStopped {
		return
	}
	if e.autoTimer != nil {
		e.autoTimer.Stop()
		e.autoTimer = nil
	}
	e.auto.status = autoStopped
	e.auto.stopReason = reason

	// A session that ran to a stop condition keeps its counters visible as a
	// summary; manual and error stops tear everything down.
	if reason == StopManual || reason == StopError {
		e.auto = nil
	}
	log.Printf("[AUTO] %s session stopped: %s", e.account, reason)
}

func (e *Engine) scheduleAutoLocked(delay time.Duration) {
	if e.autoTimer != nil {
		e.autoTimer.Stop()
	}
	sess := e.auto
	e.autoTimer = time.AfterFunc(delay, func() {
		e.autoFire(sess)
	})
}

// autoFire places the next scheduled auto round. It runs in a timer
// goroutine, so it re-reads live state first: the session may have been
// stopped or replaced since the timer was armed.
func (e *Engine) autoFire(sess *autoSession) {
	ctx := context.Background()
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.auto != sess || sess.status == autoStopped {
		return
	}
	if !startable(e.phase) {
		// Round still in flight; settlement will reschedule.
		return
	}

	balance, err := e.activeLedger().Balance(ctx, e.account)
	if err != nil || sess.settings.BetAmount > balance {
		e.stopAutoLocked(StopError)
		e.notifyLocked()
		return
	}

	err = e.placeBetLocked(ctx, sess.settings.BetAmount, BetOptions{
		AutoCashOutAt: sess.settings.CashOutAtMultiplier,
		autoRound:     true,
	})
	if err != nil {
		log.Printf("[AUTO] %s scheduled bet declined: %v", e.account, err)
		e.stopAutoLocked(StopError)
		e.notifyLocked()
		return
	}
	sess.status = autoActive
}

// roundSettledLocked runs once per completed round, after funds have moved.
// For auto rounds it updates the session ledger exactly once and then either
// stops on a fired condition — rounds, then profit target, then loss limit —
// or paces the next round.
func (e *Engine) roundSettledLocked(profit float64) {
	wasAuto := e.betWasAuto
	e.betWasAuto = false

	sess := e.auto
	if sess == nil || sess.status == autoStopped {
		return
	}

	if sess.status == autoStarting {
		// A manual round just cleared the way for the first auto bet.
		e.scheduleAutoLocked(e.cfg.AutoBetInitialDelay)
		return
	}

	if !wasAuto {
		// A manual round interleaved with the session; pace the next auto
		// round without touching the session ledger.
		e.scheduleAutoLocked(e.cfg.AutoBetInterRoundDelay)
		return
	}

	sess.roundsRemaining--
	sess.sessionProfit += profit

	switch {
	case sess.roundsRemaining <= 0:
		e.stopAutoLocked(StopRoundsCompleted)
	case sess.sessionProfit >= sess.settings.StopOnProfit:
		e.stopAutoLocked(StopProfitTarget)
	case sess.sessionProfit <= -sess.settings.StopOnLoss:
		e.stopAutoLocked(StopLossLimit)
	default:
		e.scheduleAutoLocked(e.cfg.AutoBetInterRoundDelay)
	}
}
