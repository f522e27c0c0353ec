package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rk-goldtrade/internal/types"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func lot(id string, remaining, cost string, createdAt time.Time) Lot {
	return Lot{
		ID:           id,
		Owner:        "u1",
		GoldType:     types.GoldType965,
		OriginalQty:  dec(remaining),
		RemainingQty: dec(remaining),
		UnitCost:     dec(cost),
		CreatedAt:    createdAt,
	}
}

var baseTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestAggregate(t *testing.T) {
	t.Parallel()

	t.Run("empty lots yield zero position", func(t *testing.T) {
		t.Parallel()
		pos := Aggregate(types.GoldType965, nil)
		assert.True(t, pos.Quantity.IsZero())
		assert.True(t, pos.TotalCost.IsZero())
		assert.True(t, pos.AverageCost.IsZero())
	})

	t.Run("weighted average over open lots", func(t *testing.T) {
		t.Parallel()
		lots := []Lot{
			lot("a", "10", "100", baseTime),
			lot("b", "5", "200", baseTime.Add(time.Hour)),
		}
		pos := Aggregate(types.GoldType965, lots)
		assert.True(t, pos.Quantity.Equal(dec("15")))
		assert.True(t, pos.TotalCost.Equal(dec("2000")))
		assert.True(t, pos.AverageCost.Equal(dec("2000").Div(dec("15"))))
	})

	t.Run("drained lots are ignored", func(t *testing.T) {
		t.Parallel()
		drained := lot("a", "10", "100", baseTime)
		drained.RemainingQty = decimal.Zero
		lots := []Lot{drained, lot("b", "5", "200", baseTime.Add(time.Hour))}
		pos := Aggregate(types.GoldType965, lots)
		assert.True(t, pos.Quantity.Equal(dec("5")))
		assert.True(t, pos.TotalCost.Equal(dec("1000")))
		assert.True(t, pos.AverageCost.Equal(dec("200")))
	})
}

func TestPlanConsumption(t *testing.T) {
	t.Parallel()

	t.Run("partial sell walks oldest lot first", func(t *testing.T) {
		t.Parallel()
		lots := []Lot{
			lot("a", "10", "100", baseTime),
			lot("b", "5", "200", baseTime.Add(time.Hour)),
		}
		plan, costBasis, err := PlanConsumption(lots, dec("12"))
		require.NoError(t, err)
		require.Len(t, plan, 2)
		assert.Equal(t, "a", plan[0].LotID)
		assert.True(t, plan[0].Qty.Equal(dec("10")))
		assert.True(t, plan[0].NewRemaining.IsZero())
		assert.Equal(t, "b", plan[1].LotID)
		assert.True(t, plan[1].Qty.Equal(dec("2")))
		assert.True(t, plan[1].NewRemaining.Equal(dec("3")))
		assert.True(t, costBasis.Equal(dec("1400")))
	})

	t.Run("realized profit against consumed lot basis", func(t *testing.T) {
		t.Parallel()
		lots := []Lot{
			lot("a", "10", "100", baseTime),
			lot("b", "5", "200", baseTime.Add(time.Hour)),
		}
		qty := dec("12")
		price := dec("150")
		_, costBasis, err := PlanConsumption(lots, qty)
		require.NoError(t, err)
		proceeds := qty.Mul(price)
		profit := proceeds.Sub(costBasis)
		assert.True(t, profit.Equal(dec("400")), "got %s", profit)
	})

	t.Run("round trip sells at cost for zero profit", func(t *testing.T) {
		t.Parallel()
		lots := []Lot{lot("a", "7.5", "41000", baseTime)}
		qty := dec("7.5")
		plan, costBasis, err := PlanConsumption(lots, qty)
		require.NoError(t, err)
		require.Len(t, plan, 1)
		assert.True(t, plan[0].NewRemaining.IsZero())
		proceeds := qty.Mul(dec("41000"))
		assert.True(t, proceeds.Sub(costBasis).IsZero())
	})

	t.Run("untouched lot keeps its cost", func(t *testing.T) {
		t.Parallel()
		lots := []Lot{
			lot("a", "10", "100", baseTime),
			lot("b", "5", "200", baseTime.Add(time.Hour)),
		}
		plan, _, err := PlanConsumption(lots, dec("4"))
		require.NoError(t, err)
		require.Len(t, plan, 1)
		assert.Equal(t, "a", plan[0].LotID)
		assert.True(t, plan[0].NewRemaining.Equal(dec("6")))
		assert.True(t, lots[1].UnitCost.Equal(dec("200")))
		assert.True(t, lots[1].RemainingQty.Equal(dec("5")))
	})

	t.Run("full liquidation drains every lot to exact zero", func(t *testing.T) {
		t.Parallel()
		lots := []Lot{
			lot("a", "10", "100", baseTime),
			lot("b", "5", "200", baseTime.Add(time.Hour)),
		}
		plan, costBasis, err := PlanConsumption(lots, dec("15"))
		require.NoError(t, err)
		require.Len(t, plan, 2)
		for _, c := range plan {
			assert.True(t, c.NewRemaining.IsZero(), "lot %s left %s", c.LotID, c.NewRemaining)
		}
		assert.True(t, costBasis.Equal(dec("2000")))
	})

	t.Run("oversell fails without a plan", func(t *testing.T) {
		t.Parallel()
		lots := []Lot{
			lot("a", "10", "100", baseTime),
			lot("b", "5", "200", baseTime.Add(time.Hour)),
		}
		plan, _, err := PlanConsumption(lots, dec("16"))
		assert.ErrorIs(t, err, ErrInsufficientHolding)
		assert.Nil(t, plan)
		// Input lots untouched.
		assert.True(t, lots[0].RemainingQty.Equal(dec("10")))
		assert.True(t, lots[1].RemainingQty.Equal(dec("5")))
	})

	t.Run("equal timestamps break ties by id", func(t *testing.T) {
		t.Parallel()
		lots := []Lot{
			lot("b", "5", "200", baseTime),
			lot("a", "5", "100", baseTime),
		}
		plan, _, err := PlanConsumption(lots, dec("6"))
		require.NoError(t, err)
		require.Len(t, plan, 2)
		assert.Equal(t, "a", plan[0].LotID)
		assert.Equal(t, "b", plan[1].LotID)
	})

	t.Run("near-drained residue collapses to zero", func(t *testing.T) {
		t.Parallel()
		lots := []Lot{lot("a", "5", "100", baseTime)}
		plan, _, err := PlanConsumption(lots, dec("4.99999999"))
		require.NoError(t, err)
		require.Len(t, plan, 1)
		assert.True(t, plan[0].Qty.Equal(dec("5")))
		assert.True(t, plan[0].NewRemaining.IsZero())
	})

	t.Run("sell within epsilon over holdings succeeds", func(t *testing.T) {
		t.Parallel()
		lots := []Lot{lot("a", "5", "100", baseTime)}
		_, _, err := PlanConsumption(lots, dec("5.00000001"))
		assert.NoError(t, err)
	})

	t.Run("non-positive quantity is rejected", func(t *testing.T) {
		t.Parallel()
		lots := []Lot{lot("a", "5", "100", baseTime)}
		_, _, err := PlanConsumption(lots, decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		_, _, err = PlanConsumption(lots, dec("-1"))
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("quantity conserved across the plan", func(t *testing.T) {
		t.Parallel()
		lots := []Lot{
			lot("a", "3.5", "2400", baseTime),
			lot("b", "1.25", "2500", baseTime.Add(time.Minute)),
			lot("c", "0.75", "2600", baseTime.Add(2*time.Minute)),
		}
		sold := dec("4.1")
		plan, _, err := PlanConsumption(lots, sold)
		require.NoError(t, err)
		taken := decimal.Zero
		for _, c := range plan {
			taken = taken.Add(c.Qty)
		}
		assert.True(t, taken.Equal(sold), "took %s, wanted %s", taken, sold)
	})
}

func TestAggregateAll(t *testing.T) {
	t.Parallel()

	typed := func(l Lot, gt types.GoldType) Lot {
		l.GoldType = gt
		return l
	}

	t.Run("groups by gold type in fixed order", func(t *testing.T) {
		t.Parallel()
		lots := []Lot{
			typed(lot("c", "3", "38000", baseTime), types.GoldType965),
			typed(lot("a", "1.5", "2400", baseTime), types.GoldTypeSpot),
			typed(lot("b", "2", "40000", baseTime), types.GoldType9999),
			typed(lot("d", "1", "39000", baseTime.Add(time.Hour)), types.GoldType965),
		}
		positions := AggregateAll(lots)
		require.Len(t, positions, 3)
		assert.Equal(t, types.GoldTypeSpot, positions[0].GoldType)
		assert.Equal(t, types.GoldType9999, positions[1].GoldType)
		assert.Equal(t, types.GoldType965, positions[2].GoldType)
		assert.True(t, positions[2].Quantity.Equal(dec("4")))
		assert.True(t, positions[2].TotalCost.Equal(dec("153000")))
	})

	t.Run("fully drained types are omitted", func(t *testing.T) {
		t.Parallel()
		drained := typed(lot("a", "5", "2400", baseTime), types.GoldTypeSpot)
		drained.RemainingQty = decimal.Zero
		positions := AggregateAll([]Lot{
			drained,
			typed(lot("b", "1", "38000", baseTime), types.GoldType965),
		})
		require.Len(t, positions, 1)
		assert.Equal(t, types.GoldType965, positions[0].GoldType)
	})

	t.Run("no lots yields no positions", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, AggregateAll(nil))
	})
}

func TestNormalizeQty(t *testing.T) {
	t.Parallel()
	assert.True(t, NormalizeQty(dec("1.123456789")).Equal(dec("1.12345678")))
	assert.True(t, NormalizeQty(dec("2")).Equal(dec("2")))
}
