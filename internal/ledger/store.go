package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"rk-goldtrade/internal/types"
)

type Store struct{}

func NewStore() *Store {
	return &Store{}
}

type TradeRecord struct {
	ID           string               `json:"id"`
	Owner        string               `json:"-"`
	GoldType     types.GoldType       `json:"gold_type"`
	Amount       decimal.Decimal      `json:"amount"`
	PricePerUnit decimal.Decimal      `json:"price_per_unit"`
	TotalPrice   decimal.Decimal      `json:"total_price"`
	Direction    types.TradeDirection `json:"direction"`
	CreatedAt    time.Time            `json:"created_at"`
}

func (s *Store) CreateLot(ctx context.Context, tx pgx.Tx, owner string, goldType types.GoldType, qty, unitCost decimal.Decimal) (string, error) {
	var id string
	err := tx.QueryRow(ctx,
		"insert into gold_lots (user_id, gold_type, original_amount, remaining_amount, unit_cost, created_at) values ($1,$2,$3,$3,$4,$5) returning id",
		owner, string(goldType), qty, unitCost, time.Now().UTC()).Scan(&id)
	return id, err
}

// ListOpenLotsForUpdate locks the owner's open lots for the duration of
// the transaction. The FIFO order (created_at asc, id asc) is fixed here
// so two concurrent sells walk and lock lots in the same order.
func (s *Store) ListOpenLotsForUpdate(ctx context.Context, tx pgx.Tx, owner string, goldType types.GoldType) ([]Lot, error) {
	rows, err := tx.Query(ctx,
		"select id, user_id, gold_type, original_amount, remaining_amount, unit_cost, created_at from gold_lots where user_id = $1 and gold_type = $2 and remaining_amount > 0 order by created_at asc, id asc for update",
		owner, string(goldType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLots(rows)
}

func (s *Store) ListOpenLots(ctx context.Context, q Querier, owner string, goldType types.GoldType) ([]Lot, error) {
	rows, err := q.Query(ctx,
		"select id, user_id, gold_type, original_amount, remaining_amount, unit_cost, created_at from gold_lots where user_id = $1 and gold_type = $2 and remaining_amount > 0 order by created_at asc, id asc",
		owner, string(goldType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLots(rows)
}

// ListAllOpenLots reads every open lot the owner holds across gold
// types in one query, so a cross-type view is a single snapshot.
func (s *Store) ListAllOpenLots(ctx context.Context, q Querier, owner string) ([]Lot, error) {
	rows, err := q.Query(ctx,
		"select id, user_id, gold_type, original_amount, remaining_amount, unit_cost, created_at from gold_lots where user_id = $1 and remaining_amount > 0 order by gold_type asc, created_at asc, id asc",
		owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLots(rows)
}

func scanLots(rows pgx.Rows) ([]Lot, error) {
	var out []Lot
	for rows.Next() {
		var lot Lot
		var goldType string
		if err := rows.Scan(&lot.ID, &lot.Owner, &goldType, &lot.OriginalQty, &lot.RemainingQty, &lot.UnitCost, &lot.CreatedAt); err != nil {
			return nil, err
		}
		lot.GoldType = types.GoldType(goldType)
		out = append(out, lot)
	}
	return out, rows.Err()
}

func (s *Store) ConsumeLot(ctx context.Context, tx pgx.Tx, lotID string, newRemaining decimal.Decimal) error {
	tag, err := tx.Exec(ctx, "update gold_lots set remaining_amount = $1 where id = $2", newRemaining, lotID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("lot not found: " + lotID)
	}
	return nil
}

func (s *Store) EnsureCashBalance(ctx context.Context, tx pgx.Tx, owner string) error {
	_, err := tx.Exec(ctx, "insert into user_balances (user_id, balance) values ($1, 0) on conflict (user_id) do nothing", owner)
	return err
}

func (s *Store) GetCashBalanceForUpdate(ctx context.Context, tx pgx.Tx, owner string) (decimal.Decimal, error) {
	if err := s.EnsureCashBalance(ctx, tx, owner); err != nil {
		return decimal.Zero, err
	}
	var balance decimal.Decimal
	err := tx.QueryRow(ctx, "select balance from user_balances where user_id = $1 for update", owner).Scan(&balance)
	return balance, err
}

func (s *Store) GetCashBalance(ctx context.Context, q Querier, owner string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := q.QueryRow(ctx, "select balance from user_balances where user_id = $1", owner).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, nil
	}
	return balance, err
}

// AdjustCashBalance applies delta (negative on buy, positive on sell)
// and returns the new balance. Callers hold the row lock already.
func (s *Store) AdjustCashBalance(ctx context.Context, tx pgx.Tx, owner string, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.QueryRow(ctx,
		"update user_balances set balance = balance + $1, updated_at = $2 where user_id = $3 returning balance",
		delta, time.Now().UTC(), owner).Scan(&balance)
	return balance, err
}

func (s *Store) AppendTradeRecord(ctx context.Context, tx pgx.Tx, rec TradeRecord) (string, error) {
	var id string
	err := tx.QueryRow(ctx,
		"insert into gold_trades (user_id, gold_type, amount, price_per_unit, total_price, direction, created_at) values ($1,$2,$3,$4,$5,$6,$7) returning id",
		rec.Owner, string(rec.GoldType), rec.Amount, rec.PricePerUnit, rec.TotalPrice, string(rec.Direction), time.Now().UTC()).Scan(&id)
	return id, err
}

func (s *Store) ListTradeRecords(ctx context.Context, q Querier, owner string, limit int) ([]TradeRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := q.Query(ctx,
		"select id, user_id, gold_type, amount, price_per_unit, total_price, direction, created_at from gold_trades where user_id = $1 order by created_at desc, id desc limit $2",
		owner, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		var goldType, direction string
		if err := rows.Scan(&rec.ID, &rec.Owner, &goldType, &rec.Amount, &rec.PricePerUnit, &rec.TotalPrice, &direction, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.GoldType = types.GoldType(goldType)
		rec.Direction = types.TradeDirection(direction)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Querier covers both pgxpool.Pool and pgx.Tx for read paths.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
