package game

import "math"

// OddsConfig holds the tunable constants of the payout/odds model. The
// defaults reproduce the production tuning; every hazard term is a named
// parameter so the pieces can be tested and re-tuned independently.
type OddsConfig struct {
	// Multiplier curve: linear below CurveKneeSeconds, then
	// 1.00 + t*CurveLinearRate + t^2*CurveQuadraticRate with t measured
	// from the knee. Clamped to MaxMultiplier.
	CurveKneeSeconds   float64
	CurveLinearRate    float64
	CurveQuadraticRate float64
	MaxMultiplier      float64

	// Base hazard: a small constant crash chance per tick, scaled by
	// difficulty. p = BaseHazard + BaseHazardDifficultyScale * (d/100).
	BaseHazard                float64
	BaseHazardDifficultyScale float64

	// Multiplier-driven hazard: grows super-linearly with the multiplier.
	// p = max(MinHazardMultiplier, m)^HazardExponent / HazardDivisor * (d/HazardDifficultyNorm).
	HazardExponent      float64
	HazardDivisor       float64
	HazardDifficultyNorm float64
	MinHazardMultiplier float64

	// High-stakes overlay: an extra hazard for large bets, rising linearly
	// across a fixed window after launch. Per-tick probability is
	// (HighStakesWindowHazard / TickRate) * (timeIntoWindow / windowDuration)
	// * (d / HighStakesDifficultyNorm), zero outside the window.
	HighStakesWindowStart    float64
	HighStakesWindowEnd      float64
	HighStakesWindowHazard   float64
	HighStakesDifficultyNorm float64
	TickRate                 float64

	// Difficulty bounds and the fixed demo-mode difficulty.
	MinDifficultyPercent  float64
	MaxDifficultyPercent  float64
	DemoDifficultyPercent float64
}

func DefaultOdds() OddsConfig {
	return OddsConfig{
		CurveKneeSeconds:   1.0,
		CurveLinearRate:    0.10,
		CurveQuadraticRate: 0.02,
		MaxMultiplier:      10000,

		BaseHazard:                0.0001,
		BaseHazardDifficultyScale: 0.0005,

		HazardExponent:       1.5,
		HazardDivisor:        5000,
		HazardDifficultyNorm: 70,
		MinHazardMultiplier:  0.01,

		HighStakesWindowStart:    0.5,
		HighStakesWindowEnd:      4.0,
		HighStakesWindowHazard:   0.10,
		HighStakesDifficultyNorm: 50,
		TickRate:                 30,

		MinDifficultyPercent:  10,
		MaxDifficultyPercent:  90,
		DemoDifficultyPercent: 50,
	}
}

// Multiplier maps elapsed seconds since launch to the current multiplier,
// rounded to 2 decimal places. It is 0.00 at launch and never decreases.
func (c OddsConfig) Multiplier(elapsedSeconds float64) float64 {
	if elapsedSeconds <= 0 {
		return 0.00
	}
	var m float64
	if elapsedSeconds < c.CurveKneeSeconds {
		m = elapsedSeconds * 1.00
	} else {
		t := elapsedSeconds - c.CurveKneeSeconds
		m = 1.00 + t*c.CurveLinearRate + t*t*c.CurveQuadraticRate
	}
	m = round2(m)
	if m > c.MaxMultiplier {
		return c.MaxMultiplier
	}
	return m
}

// EffectiveDifficulty resolves the difficulty percent for one round. Demo
// rounds always use the fixed demo difficulty. Real bets at or above the
// high-stakes threshold are forced to the override difficulty regardless of
// the configured value; smaller bets use the configured value clamped to the
// allowed band.
func (c OddsConfig) EffectiveDifficulty(betAmount float64, demo bool, configured, highStakesThreshold, highStakesDifficulty float64) float64 {
	if demo {
		return c.DemoDifficultyPercent
	}
	if betAmount >= highStakesThreshold {
		return highStakesDifficulty
	}
	if configured < c.MinDifficultyPercent {
		return c.MinDifficultyPercent
	}
	if configured > c.MaxDifficultyPercent {
		return c.MaxDifficultyPercent
	}
	return configured
}

// CrashProbability is the per-tick chance the round terminates at the given
// multiplier: the constant base hazard plus the multiplier-driven hazard,
// both scaled by difficulty.
func (c OddsConfig) CrashProbability(multiplier, difficultyPercent float64) float64 {
	base := c.BaseHazard + c.BaseHazardDifficultyScale*(difficultyPercent/100)
	m := math.Max(c.MinHazardMultiplier, multiplier)
	driven := math.Pow(m, c.HazardExponent) / c.HazardDivisor * (difficultyPercent / c.HazardDifficultyNorm)
	return base + driven
}

// HighStakesHazard is the additional per-tick crash chance applied to
// high-stakes rounds. It ramps linearly across the configured window and is
// zero before and after it. This overlays CrashProbability, it does not
// replace it.
func (c OddsConfig) HighStakesHazard(elapsedSeconds, difficultyPercent float64) float64 {
	if elapsedSeconds <= c.HighStakesWindowStart {
		return 0
	}
	window := c.HighStakesWindowEnd - c.HighStakesWindowStart
	into := elapsedSeconds - c.HighStakesWindowStart
	if into >= window {
		return 0
	}
	return (c.HighStakesWindowHazard / c.TickRate) * (into / window) * (difficultyPercent / c.HighStakesDifficultyNorm)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
