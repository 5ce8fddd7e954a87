package game

import (
	"fmt"
	"time"
)

// Phase is the round lifecycle state. Exactly one round is live per engine.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseBetting   Phase = "betting"
	PhaseRunning   Phase = "running"
	PhaseCrashed   Phase = "crashed"
	PhaseCashedOut Phase = "cashed_out"
)

// startable reports whether a new bet may be placed from this phase.
func startable(p Phase) bool {
	return p == PhaseIdle || p == PhaseCrashed || p == PhaseCashedOut
}

// terminal reports whether the round has settled.
func terminal(p Phase) bool {
	return p == PhaseCrashed || p == PhaseCashedOut
}

// DeclineCode classifies why an action was rejected. Every public engine
// operation that declines returns one of these inside a *Decline.
type DeclineCode string

const (
	DeclineInvalidAmount     DeclineCode = "invalid_amount"
	DeclineBelowMinimum      DeclineCode = "below_minimum"
	DeclineAboveMaximum      DeclineCode = "above_maximum"
	DeclineInsufficientFunds DeclineCode = "insufficient_funds"
	DeclineBadPhase          DeclineCode = "bad_phase"
	DeclineTargetOutOfRange  DeclineCode = "target_out_of_range"
	DeclineRoundsOutOfRange  DeclineCode = "rounds_out_of_range"
	DeclineStopOutOfRange    DeclineCode = "stop_out_of_range"
	DeclineSessionActive     DeclineCode = "session_active"
	DeclineMaintenance       DeclineCode = "maintenance"
)

// Decline is a structured rejection: no state was mutated, and Code tells the
// caller why. It satisfies error so engine methods can return it directly.
type Decline struct {
	Code    DeclineCode
	Message string
}

func (d *Decline) Error() string {
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}

func declinef(code DeclineCode, format string, args ...interface{}) *Decline {
	return &Decline{Code: code, Message: fmt.Sprintf(format, args...)}
}

// StopReason records why an auto-bet session ended.
type StopReason string

const (
	StopRoundsCompleted StopReason = "rounds_completed"
	StopProfitTarget    StopReason = "profit_target"
	StopLossLimit       StopReason = "loss_limit"
	StopManual          StopReason = "manual"
	StopError           StopReason = "error"
)

// AutoBetSettings are fixed for the lifetime of a session.
type AutoBetSettings struct {
	BetAmount           float64 `json:"bet_amount"`
	NumberOfBets        int     `json:"number_of_bets"`
	CashOutAtMultiplier float64 `json:"cash_out_at_multiplier"`
	StopOnProfit        float64 `json:"stop_on_profit"`
	StopOnLoss          float64 `json:"stop_on_loss"`
}

// BetOptions carries the optional per-round parameters of a bet.
type BetOptions struct {
	AutoCashOutAt float64 `json:"auto_cash_out_at,omitempty"`

	// set internally when the bet was scheduled by an auto-bet session
	autoRound bool
}

// HistoryEntry is one settled round, kept for the last 50 real-money rounds.
type HistoryEntry struct {
	ID                string  `json:"id"`
	BetAmount         float64 `json:"bet_amount"`
	Outcome           Phase   `json:"outcome"`
	OutcomeMultiplier float64 `json:"outcome_multiplier"`
	Profit            float64 `json:"profit"`
	Timestamp         int64   `json:"timestamp"`
}

// AutoBetSnapshot summarizes the session for display.
type AutoBetSnapshot struct {
	Active          bool            `json:"active"`
	Starting        bool            `json:"starting"`
	Settings        AutoBetSettings `json:"settings"`
	RoundsRemaining int             `json:"rounds_remaining"`
	SessionProfit   float64         `json:"session_profit"`
	StopReason      StopReason      `json:"stop_reason,omitempty"`
}

// Snapshot is the authoritative engine state handed to callers. The UI layer
// renders it; it never owns or mutates engine state.
type Snapshot struct {
	Account          string           `json:"account"`
	Phase            Phase            `json:"phase"`
	Multiplier       float64          `json:"multiplier"`
	LastMultiplier   float64          `json:"last_multiplier,omitempty"`
	BetAmount        float64          `json:"bet_amount,omitempty"`
	Profit           float64          `json:"profit"`
	CountdownSeconds int              `json:"countdown_seconds,omitempty"`
	Balance          float64          `json:"balance"`
	DemoMode         bool             `json:"demo_mode"`
	AutoBet          *AutoBetSnapshot `json:"auto_bet,omitempty"`
	Timestamp        time.Time        `json:"timestamp"`
}
