package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestComputeGoldTier(t *testing.T) {
	got := Compute(f(450.00), 85.00, TierGold, DefaultFeeSchedule())

	require.True(t, got.Priced())
	assert.Equal(t, 365.00, *got.NetAmount)
	assert.Equal(t, 36.50, *got.PlatformFee)
	assert.Equal(t, 13.35, *got.ProcessingFee)
	assert.Equal(t, 315.15, *got.ContractorPayout)
	assert.Equal(t, 36.50, *got.NetPlatformRevenue)
}

func TestComputeBronzeTier(t *testing.T) {
	got := Compute(f(450.00), 85.00, TierBronze, DefaultFeeSchedule())

	require.True(t, got.Priced())
	assert.Equal(t, 73.00, *got.PlatformFee)
	assert.Equal(t, 278.65, *got.ContractorPayout)
}

func TestComputeUnpricedJob(t *testing.T) {
	got := Compute(nil, 85.00, TierGold, DefaultFeeSchedule())

	assert.False(t, got.Priced())
	assert.Nil(t, got.NetAmount)
	assert.Nil(t, got.ProcessingFee)
	assert.Nil(t, got.PlatformFee)
	assert.Nil(t, got.ContractorPayout)
	assert.Nil(t, got.NetPlatformRevenue)
}

func TestComputeClampsNegativeMaterialFees(t *testing.T) {
	got := Compute(f(100.00), -25.00, TierSilver, DefaultFeeSchedule())

	require.True(t, got.Priced())
	assert.Equal(t, 100.00, *got.NetAmount)
}

func TestComputeMaterialFeesExceedPrice(t *testing.T) {
	got := Compute(f(50.00), 80.00, TierBronze, DefaultFeeSchedule())

	require.True(t, got.Priced())
	assert.Equal(t, 0.00, *got.NetAmount)
	assert.Equal(t, 0.00, *got.PlatformFee)
	// Processing fee is charged on the transaction even when nothing nets out.
	assert.Equal(t, 1.75, *got.ProcessingFee)
	assert.Equal(t, 0.00, *got.ContractorPayout)
}

func TestComputeInvariants(t *testing.T) {
	sched := DefaultFeeSchedule()
	prices := []float64{0, 12.34, 99.99, 450, 1234.56, 10000}
	fees := []float64{0, 10, 85, 120.55}

	for _, tier := range []Tier{TierBronze, TierSilver, TierGold} {
		for _, price := range prices {
			for _, material := range fees {
				if material > price {
					continue
				}
				got := Compute(&price, material, tier, sched)
				require.True(t, got.Priced())

				net := price - material
				assert.InDelta(t, Round2(net*sched.TierRate(tier)), *got.PlatformFee, 0.001,
					"platform fee for tier %s price %.2f", tier, price)
				assert.GreaterOrEqual(t, *got.ContractorPayout, 0.0)
				assert.LessOrEqual(t, *got.ContractorPayout+*got.PlatformFee, net+0.01)
				assert.LessOrEqual(t, *got.NetAmount, price)
			}
		}
	}
}

func TestParseTier(t *testing.T) {
	assert.Equal(t, TierGold, ParseTier(" Gold "))
	assert.Equal(t, TierSilver, ParseTier("silver"))
	assert.Equal(t, TierBronze, ParseTier("bronze"))
	assert.Equal(t, TierBronze, ParseTier("platinum"))
	assert.Equal(t, TierBronze, ParseTier(""))
}

func TestRound2HalfUp(t *testing.T) {
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, 13.35, Round2(13.351))
	assert.Equal(t, 13.35, Round2(13.345000001))
	assert.Equal(t, 450.0, Round2(450))
}
