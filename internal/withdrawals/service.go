package withdrawals

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"rk-goldtrade/internal/ledger"
	"rk-goldtrade/internal/types"
)

var ErrRequestNotPending = errors.New("request is not pending")

// Service manages physical gold withdrawal requests. A request is just
// a pending row until an admin approves it; approval is the moment the
// bars leave custody, so that is when the user's lots are consumed
// (FIFO, through the same consumption path sells use) and the journal
// gets its withdraw record. Rejection mutates nothing.
type Service struct {
	pool      *pgxpool.Pool
	ledgerSvc *ledger.Service
}

func NewService(pool *pgxpool.Pool, ledgerSvc *ledger.Service) *Service {
	return &Service{pool: pool, ledgerSvc: ledgerSvc}
}

type Request struct {
	ID        string              `json:"id"`
	UserID    string              `json:"user_id"`
	GoldType  types.GoldType      `json:"gold_type"`
	Amount    decimal.Decimal     `json:"amount"`
	Name      string              `json:"name"`
	Tel       string              `json:"tel"`
	Address   string              `json:"address"`
	Status    types.RequestStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func (s *Service) Create(ctx context.Context, userID string, goldType types.GoldType, amount decimal.Decimal, name, tel, address string) (string, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return "", ledger.ErrInvalidQuantity
	}
	// Pre-check for a friendly rejection; the binding check happens at
	// approval time inside the consumption transaction.
	pos, err := s.ledgerSvc.Position(ctx, userID, goldType)
	if err != nil {
		return "", err
	}
	if pos.Quantity.LessThan(amount) {
		return "", ledger.ErrInsufficientHolding
	}
	var id string
	err = s.pool.QueryRow(ctx,
		"insert into withdrawal_requests (user_id, gold_type, amount, name, tel, address, status, created_at, updated_at) values ($1,$2,$3,$4,$5,$6,'pending',$7,$7) returning id",
		userID, string(goldType), amount, name, tel, address, time.Now().UTC()).Scan(&id)
	return id, err
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Request, error) {
	rows, err := s.pool.Query(ctx,
		"select id, user_id, gold_type, amount, name, tel, address, status, created_at, updated_at from withdrawal_requests where user_id = $1 order by created_at desc",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (s *Service) ListAll(ctx context.Context) ([]Request, error) {
	rows, err := s.pool.Query(ctx,
		"select id, user_id, gold_type, amount, name, tel, address, status, created_at, updated_at from withdrawal_requests order by created_at desc")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (s *Service) Review(ctx context.Context, requestID string, approve bool) (Request, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return Request{}, err
	}
	defer tx.Rollback(ctx)
	var req Request
	var goldType, status string
	err = tx.QueryRow(ctx,
		"select id, user_id, gold_type, amount, name, tel, address, status, created_at, updated_at from withdrawal_requests where id = $1 for update",
		requestID).Scan(&req.ID, &req.UserID, &goldType, &req.Amount, &req.Name, &req.Tel, &req.Address, &status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return Request{}, err
	}
	req.GoldType = types.GoldType(goldType)
	req.Status = types.RequestStatus(status)
	if req.Status != types.RequestStatusPending {
		return Request{}, ErrRequestNotPending
	}
	newStatus := types.RequestStatusRejected
	if approve {
		newStatus = types.RequestStatusApproved
		if err := s.ledgerSvc.ConsumeHolding(ctx, tx, req.UserID, req.GoldType, req.Amount); err != nil {
			return Request{}, err
		}
	}
	_, err = tx.Exec(ctx, "update withdrawal_requests set status = $1, updated_at = $2 where id = $3",
		string(newStatus), time.Now().UTC(), requestID)
	if err != nil {
		return Request{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}
	req.Status = newStatus
	return req, nil
}

func scanRequests(rows pgx.Rows) ([]Request, error) {
	var out []Request
	for rows.Next() {
		var r Request
		var goldType, status string
		if err := rows.Scan(&r.ID, &r.UserID, &goldType, &r.Amount, &r.Name, &r.Tel, &r.Address, &status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.GoldType = types.GoldType(goldType)
		r.Status = types.RequestStatus(status)
		out = append(out, r)
	}
	return out, rows.Err()
}
