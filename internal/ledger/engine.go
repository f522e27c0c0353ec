package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"rk-goldtrade/internal/types"
)

// Lot is a single purchase that has not been fully consumed. Sells and
// approved gold withdrawals drain remaining oldest-first; a drained lot
// stays on record and is never selected again.
type Lot struct {
	ID           string
	Owner        string
	GoldType     types.GoldType
	OriginalQty  decimal.Decimal
	RemainingQty decimal.Decimal
	UnitCost     decimal.Decimal
	CreatedAt    time.Time
}

// Position is the derived view over open lots. It is recomputed from
// lots on every read and never persisted: the lot log is the only
// source of truth for holdings.
type Position struct {
	GoldType    types.GoldType  `json:"gold_type"`
	Quantity    decimal.Decimal `json:"quantity"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	AverageCost decimal.Decimal `json:"average_cost"`
}

// Consumption is one lot decrement inside a sell or withdrawal plan.
type Consumption struct {
	LotID        string
	Qty          decimal.Decimal
	UnitCost     decimal.Decimal
	NewRemaining decimal.Decimal
}

// Quantities are decimals, so our own arithmetic is exact. Inputs arrive
// from float-based clients though, and fractional gram weights amplify
// binary-float error, so availability and drained-lot checks treat
// anything within 1e-8 as equal. Inputs are truncated to 8 fractional
// digits on the way in (NormalizeQty).
var epsilon = decimal.New(1, -8)

const qtyScale = 8

func NormalizeQty(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(qtyScale)
}

func isZeroish(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(epsilon)
}

// sortFIFO orders lots oldest-first; lots sharing a timestamp fall back
// to id order so consumption is deterministic.
func sortFIFO(lots []Lot) {
	sort.SliceStable(lots, func(i, j int) bool {
		if lots[i].CreatedAt.Equal(lots[j].CreatedAt) {
			return lots[i].ID < lots[j].ID
		}
		return lots[i].CreatedAt.Before(lots[j].CreatedAt)
	})
}

// Aggregate sums the open lots into a Position. Zero open quantity
// yields a zero average cost rather than a division by zero.
func Aggregate(goldType types.GoldType, lots []Lot) Position {
	qty := decimal.Zero
	totalCost := decimal.Zero
	for _, lot := range lots {
		if lot.RemainingQty.LessThanOrEqual(decimal.Zero) {
			continue
		}
		qty = qty.Add(lot.RemainingQty)
		totalCost = totalCost.Add(lot.RemainingQty.Mul(lot.UnitCost))
	}
	avg := decimal.Zero
	if qty.GreaterThan(decimal.Zero) {
		avg = totalCost.Div(qty)
	}
	return Position{GoldType: goldType, Quantity: qty, TotalCost: totalCost, AverageCost: avg}
}

// AggregateAll groups lots by gold type and aggregates each group,
// returning positions with open quantity in AllGoldTypes order.
func AggregateAll(lots []Lot) []Position {
	byType := make(map[types.GoldType][]Lot)
	for _, lot := range lots {
		byType[lot.GoldType] = append(byType[lot.GoldType], lot)
	}
	out := make([]Position, 0, len(byType))
	for _, gt := range types.AllGoldTypes() {
		group, ok := byType[gt]
		if !ok {
			continue
		}
		pos := Aggregate(gt, group)
		if pos.Quantity.GreaterThan(decimal.Zero) {
			out = append(out, pos)
		}
	}
	return out
}

// PlanConsumption walks open lots oldest-first and plans the decrements
// needed to consume qty. It mutates nothing; callers apply the plan
// inside their transaction. Returns ErrInsufficientHolding when the
// open lots cannot cover qty (within epsilon).
func PlanConsumption(lots []Lot, qty decimal.Decimal) ([]Consumption, decimal.Decimal, error) {
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, decimal.Zero, ErrInvalidQuantity
	}
	sortFIFO(lots)
	available := decimal.Zero
	for _, lot := range lots {
		available = available.Add(lot.RemainingQty)
	}
	if available.Add(epsilon).LessThan(qty) {
		return nil, decimal.Zero, ErrInsufficientHolding
	}
	remaining := qty
	costBasis := decimal.Zero
	var plan []Consumption
	for _, lot := range lots {
		if isZeroish(remaining) {
			break
		}
		if lot.RemainingQty.LessThanOrEqual(decimal.Zero) {
			continue
		}
		take := decimal.Min(lot.RemainingQty, remaining)
		newRemaining := lot.RemainingQty.Sub(take)
		if isZeroish(newRemaining) {
			// Absorb float residue so a full liquidation drains the lot
			// to exactly zero.
			take = lot.RemainingQty
			newRemaining = decimal.Zero
		}
		plan = append(plan, Consumption{
			LotID:        lot.ID,
			Qty:          take,
			UnitCost:     lot.UnitCost,
			NewRemaining: newRemaining,
		})
		costBasis = costBasis.Add(take.Mul(lot.UnitCost))
		remaining = remaining.Sub(take)
	}
	return plan, costBasis, nil
}
