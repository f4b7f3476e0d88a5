package finance

import (
	"math"
	"strings"
)

// Tier is the contractor tier snapshotted onto a job at completion time.
// Later tier changes on the contractor record never touch an already
// computed job.
type Tier string

const (
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
)

// ParseTier normalizes a raw tier value. Unrecognized values fall back to
// bronze, which carries the highest platform-fee rate.
func ParseTier(raw string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(raw))) {
	case TierSilver:
		return TierSilver
	case TierGold:
		return TierGold
	default:
		return TierBronze
	}
}

// FeeSchedule carries the rates used by Compute. It is loaded from the fee
// config holder in production and constructed inline in tests.
type FeeSchedule struct {
	TierRates       map[Tier]float64
	ProcessingRate  float64
	ProcessingFixed float64
}

// DefaultFeeSchedule returns the launch fee schedule: 20/15/10 percent
// platform fee by tier and a 2.9% + $0.30 processing cost model.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		TierRates: map[Tier]float64{
			TierBronze: 0.20,
			TierSilver: 0.15,
			TierGold:   0.10,
		},
		ProcessingRate:  0.029,
		ProcessingFixed: 0.30,
	}
}

// TierRate resolves the platform-fee rate for a tier, falling back to the
// bronze rate for anything unrecognized.
func (s FeeSchedule) TierRate(tier Tier) float64 {
	if rate, ok := s.TierRates[tier]; ok {
		return rate
	}
	return s.TierRates[TierBronze]
}

// Breakdown is the money split attached to a completed job. All fields are
// nil when the job has no final price yet.
type Breakdown struct {
	NetAmount          *float64 `json:"net_amount"`
	ProcessingFee      *float64 `json:"processing_fee"`
	PlatformFee        *float64 `json:"platform_fee"`
	ContractorPayout   *float64 `json:"contractor_payout"`
	NetPlatformRevenue *float64 `json:"net_platform_revenue"`
}

// Priced reports whether the breakdown carries financial data.
func (b Breakdown) Priced() bool {
	return b.NetAmount != nil
}

// Compute derives the platform fee, processing fee and contractor payout for
// a completed job. It is a pure function: no lookups, no side effects.
//
// The contractor payout subtracts the processing fee. The invariant
// contractorPayout + platformFee <= netAmount <= finalPrice holds for all
// inputs within rounding tolerance.
//
// A nil finalPrice means the job has not been priced; the result is an empty
// breakdown, not an error. Negative material fees are clamped to zero.
func Compute(finalPrice *float64, materialFees float64, tier Tier, sched FeeSchedule) Breakdown {
	if finalPrice == nil {
		return Breakdown{}
	}

	if materialFees < 0 {
		materialFees = 0
	}

	netAmount := *finalPrice - materialFees
	if netAmount < 0 {
		netAmount = 0
	}
	netAmount = Round2(netAmount)

	processingFee := Round2(*finalPrice*sched.ProcessingRate + sched.ProcessingFixed)
	platformFee := Round2(netAmount * sched.TierRate(tier))

	payout := netAmount - processingFee - platformFee
	if payout < 0 {
		payout = 0
	}
	payout = Round2(payout)

	revenue := platformFee

	return Breakdown{
		NetAmount:          &netAmount,
		ProcessingFee:      &processingFee,
		PlatformFee:        &platformFee,
		ContractorPayout:   &payout,
		NetPlatformRevenue: &revenue,
	}
}

// Round2 rounds a non-negative amount to 2 decimal places, half-up.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
