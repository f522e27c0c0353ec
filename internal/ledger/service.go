package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"rk-goldtrade/internal/types"
)

type Service struct {
	pool  *pgxpool.Pool
	store *Store
}

func NewService(pool *pgxpool.Pool, store *Store) *Service {
	return &Service{pool: pool, store: store}
}

type TradeResult struct {
	Position            Position
	CashBalance         decimal.Decimal
	PreviousAverageCost decimal.Decimal
	PreviousTotalCost   decimal.Decimal
	ProfitOrLoss        decimal.Decimal
}

const (
	conflictRetries = 3
	conflictBackoff = 50 * time.Millisecond
)

// runTradeTx executes fn inside a serializable transaction, retrying on
// serialization conflicts. Retry lives here in the service layer; the
// engine itself stays single-shot.
func (s *Service) runTradeTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * conflictBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err := s.tradeTxOnce(ctx, fn)
		if err == nil {
			return nil
		}
		lastErr = err
		if !isConflict(err) {
			return err
		}
	}
	return lastErr
}

func (s *Service) tradeTxOnce(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return classifyStorageErr(err)
	}
	defer tx.Rollback(ctx)
	if err := fn(tx); err != nil {
		return classifyStorageErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return classifyStorageErr(err)
	}
	return nil
}

func isConflict(err error) bool {
	return errors.Is(err, ErrStorageConflict)
}

func validateTradeInput(qty, price decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidQuantity
	}
	if price.IsNegative() {
		return ErrInvalidPrice
	}
	return nil
}

// ExecuteBuy opens a fresh lot, debits cash by qty*price and journals
// the trade, all in one transaction. Buys never merge into an existing
// lot: per-lot attribution is what keeps partial-sell cost basis and
// the audit trail honest. Funds sufficiency is primarily the caller's
// pre-check, but it is re-checked here inside the same transaction.
func (s *Service) ExecuteBuy(ctx context.Context, owner string, goldType types.GoldType, qty, price decimal.Decimal) (TradeResult, error) {
	qty = NormalizeQty(qty)
	if err := validateTradeInput(qty, price); err != nil {
		return TradeResult{}, err
	}
	totalCost := qty.Mul(price)
	var res TradeResult
	err := s.runTradeTx(ctx, func(tx pgx.Tx) error {
		balance, err := s.store.GetCashBalanceForUpdate(ctx, tx, owner)
		if err != nil {
			return err
		}
		if balance.LessThan(totalCost) {
			return ErrInsufficientFunds
		}
		if _, err := s.store.CreateLot(ctx, tx, owner, goldType, qty, price); err != nil {
			return err
		}
		newBalance, err := s.store.AdjustCashBalance(ctx, tx, owner, totalCost.Neg())
		if err != nil {
			return err
		}
		if _, err := s.store.AppendTradeRecord(ctx, tx, TradeRecord{
			Owner:        owner,
			GoldType:     goldType,
			Amount:       qty,
			PricePerUnit: price,
			TotalPrice:   totalCost,
			Direction:    types.TradeDirectionBuy,
		}); err != nil {
			return err
		}
		lots, err := s.store.ListOpenLots(ctx, tx, owner, goldType)
		if err != nil {
			return err
		}
		res = TradeResult{Position: Aggregate(goldType, lots), CashBalance: newBalance}
		return nil
	})
	if err != nil {
		return TradeResult{}, err
	}
	return res, nil
}

// ExecuteSell consumes open lots FIFO, credits the proceeds and journals
// the trade. Realized profit is proceeds minus the cost basis of the
// lots actually consumed, not the position-wide average. Oversells
// reject with ErrInsufficientHolding before any mutation; any later
// failure rolls the whole transaction back.
func (s *Service) ExecuteSell(ctx context.Context, owner string, goldType types.GoldType, qty, price decimal.Decimal) (TradeResult, error) {
	qty = NormalizeQty(qty)
	if err := validateTradeInput(qty, price); err != nil {
		return TradeResult{}, err
	}
	proceeds := qty.Mul(price)
	var res TradeResult
	err := s.runTradeTx(ctx, func(tx pgx.Tx) error {
		lots, err := s.store.ListOpenLotsForUpdate(ctx, tx, owner, goldType)
		if err != nil {
			return err
		}
		before := Aggregate(goldType, lots)
		plan, costBasis, err := PlanConsumption(lots, qty)
		if err != nil {
			return err
		}
		for _, c := range plan {
			if err := s.store.ConsumeLot(ctx, tx, c.LotID, c.NewRemaining); err != nil {
				return err
			}
		}
		if _, err := s.store.GetCashBalanceForUpdate(ctx, tx, owner); err != nil {
			return err
		}
		newBalance, err := s.store.AdjustCashBalance(ctx, tx, owner, proceeds)
		if err != nil {
			return err
		}
		if _, err := s.store.AppendTradeRecord(ctx, tx, TradeRecord{
			Owner:        owner,
			GoldType:     goldType,
			Amount:       qty,
			PricePerUnit: price,
			TotalPrice:   proceeds,
			Direction:    types.TradeDirectionSell,
		}); err != nil {
			return err
		}
		after, err := s.store.ListOpenLots(ctx, tx, owner, goldType)
		if err != nil {
			return err
		}
		res = TradeResult{
			Position:            Aggregate(goldType, after),
			CashBalance:         newBalance,
			PreviousAverageCost: before.AverageCost,
			PreviousTotalCost:   before.TotalCost,
			ProfitOrLoss:        proceeds.Sub(costBasis),
		}
		return nil
	})
	if err != nil {
		return TradeResult{}, err
	}
	return res, nil
}

// ConsumeHolding drains qty from the owner's open lots FIFO with no
// cash movement, journaling a withdraw record. It runs inside the
// caller's transaction (gold withdrawal approval).
func (s *Service) ConsumeHolding(ctx context.Context, tx pgx.Tx, owner string, goldType types.GoldType, qty decimal.Decimal) error {
	qty = NormalizeQty(qty)
	if qty.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidQuantity
	}
	lots, err := s.store.ListOpenLotsForUpdate(ctx, tx, owner, goldType)
	if err != nil {
		return err
	}
	plan, _, err := PlanConsumption(lots, qty)
	if err != nil {
		return err
	}
	for _, c := range plan {
		if err := s.store.ConsumeLot(ctx, tx, c.LotID, c.NewRemaining); err != nil {
			return err
		}
	}
	_, err = s.store.AppendTradeRecord(ctx, tx, TradeRecord{
		Owner:        owner,
		GoldType:     goldType,
		Amount:       qty,
		PricePerUnit: decimal.Zero,
		TotalPrice:   decimal.Zero,
		Direction:    types.TradeDirectionWithdraw,
	})
	return err
}

func (s *Service) Position(ctx context.Context, owner string, goldType types.GoldType) (Position, error) {
	lots, err := s.store.ListOpenLots(ctx, s.pool, owner, goldType)
	if err != nil {
		return Position{}, err
	}
	return Aggregate(goldType, lots), nil
}

// Positions reads the owner's open lots across all gold types in one
// query, so the cross-type view is a consistent snapshot even with
// trades running concurrently.
func (s *Service) Positions(ctx context.Context, owner string) ([]Position, error) {
	lots, err := s.store.ListAllOpenLots(ctx, s.pool, owner)
	if err != nil {
		return nil, err
	}
	return AggregateAll(lots), nil
}

func (s *Service) CashBalance(ctx context.Context, owner string) (decimal.Decimal, error) {
	return s.store.GetCashBalance(ctx, s.pool, owner)
}

func (s *Service) History(ctx context.Context, owner string, limit int) ([]TradeRecord, error) {
	return s.store.ListTradeRecords(ctx, s.pool, owner, limit)
}

// Pool exposes the underlying pool for collaborators that open their
// own transactions around ConsumeHolding.
func (s *Service) Pool() *pgxpool.Pool {
	return s.pool
}
