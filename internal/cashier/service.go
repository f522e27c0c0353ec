package cashier

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"rk-goldtrade/internal/types"
)

var (
	ErrSlipAlreadyUsed   = errors.New("slip already used")
	ErrInsufficientCash  = errors.New("insufficient cash balance")
	ErrRequestNotPending = errors.New("request is not pending")
)

type Service struct {
	pool     *pgxpool.Pool
	verifier SlipVerifier
}

func NewService(pool *pgxpool.Pool, verifier SlipVerifier) *Service {
	return &Service{pool: pool, verifier: verifier}
}

type MoneyWithdrawal struct {
	ID            string              `json:"id"`
	UserID        string              `json:"user_id"`
	Amount        decimal.Decimal     `json:"amount"`
	Bank          string              `json:"bank"`
	AccountNumber string              `json:"account_number"`
	AccountName   string              `json:"account_name"`
	Status        types.RequestStatus `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// DepositFromSlip verifies the slip with the external provider, then in
// one transaction burns the slip reference (unique row, one-time use)
// and credits the user's cash balance. A duplicate reference fails the
// insert and the whole deposit rolls back.
func (s *Service) DepositFromSlip(ctx context.Context, userID, payload string) (VerifiedSlip, decimal.Decimal, error) {
	slip, err := s.verifier.Verify(ctx, payload)
	if err != nil {
		return VerifiedSlip{}, decimal.Zero, err
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return VerifiedSlip{}, decimal.Zero, err
	}
	defer tx.Rollback(ctx)
	_, err = tx.Exec(ctx, "insert into verified_slips (trans_ref, amount, user_id, verified_at) values ($1, $2, $3, $4)",
		slip.TransRef, slip.Amount, userID, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return VerifiedSlip{}, decimal.Zero, ErrSlipAlreadyUsed
		}
		return VerifiedSlip{}, decimal.Zero, err
	}
	_, err = tx.Exec(ctx, "insert into user_balances (user_id, balance) values ($1, 0) on conflict (user_id) do nothing", userID)
	if err != nil {
		return VerifiedSlip{}, decimal.Zero, err
	}
	var newBalance decimal.Decimal
	err = tx.QueryRow(ctx, "update user_balances set balance = balance + $1, updated_at = $2 where user_id = $3 returning balance",
		slip.Amount, time.Now().UTC(), userID).Scan(&newBalance)
	if err != nil {
		return VerifiedSlip{}, decimal.Zero, err
	}
	if err := tx.Commit(ctx); err != nil {
		return VerifiedSlip{}, decimal.Zero, err
	}
	return slip, newBalance, nil
}

func (s *Service) RequestMoneyWithdrawal(ctx context.Context, userID string, amount decimal.Decimal, bank, accountNumber, accountName string) (string, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return "", errors.New("amount must be positive")
	}
	var balance decimal.Decimal
	err := s.pool.QueryRow(ctx, "select balance from user_balances where user_id = $1", userID).Scan(&balance)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	if balance.LessThan(amount) {
		return "", ErrInsufficientCash
	}
	var id string
	err = s.pool.QueryRow(ctx,
		"insert into withdrawal_money_requests (user_id, amount, bank, account_number, account_name, status, created_at, updated_at) values ($1,$2,$3,$4,$5,'pending',$6,$6) returning id",
		userID, amount, bank, accountNumber, accountName, time.Now().UTC()).Scan(&id)
	return id, err
}

func (s *Service) ListMoneyWithdrawals(ctx context.Context, userID string) ([]MoneyWithdrawal, error) {
	rows, err := s.pool.Query(ctx,
		"select id, user_id, amount, bank, account_number, account_name, status, created_at, updated_at from withdrawal_money_requests where user_id = $1 order by created_at desc",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMoneyWithdrawals(rows)
}

func (s *Service) ListAllMoneyWithdrawals(ctx context.Context) ([]MoneyWithdrawal, error) {
	rows, err := s.pool.Query(ctx,
		"select id, user_id, amount, bank, account_number, account_name, status, created_at, updated_at from withdrawal_money_requests order by created_at desc")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMoneyWithdrawals(rows)
}

// ReviewMoneyWithdrawal settles an admin decision. Approval debits the
// cash balance in the same transaction that flips the status, so a
// request can never pay out twice or pay out more than the user holds.
func (s *Service) ReviewMoneyWithdrawal(ctx context.Context, requestID string, approve bool) (MoneyWithdrawal, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return MoneyWithdrawal{}, err
	}
	defer tx.Rollback(ctx)
	var req MoneyWithdrawal
	var status string
	err = tx.QueryRow(ctx,
		"select id, user_id, amount, bank, account_number, account_name, status, created_at, updated_at from withdrawal_money_requests where id = $1 for update",
		requestID).Scan(&req.ID, &req.UserID, &req.Amount, &req.Bank, &req.AccountNumber, &req.AccountName, &status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return MoneyWithdrawal{}, err
	}
	req.Status = types.RequestStatus(status)
	if req.Status != types.RequestStatusPending {
		return MoneyWithdrawal{}, ErrRequestNotPending
	}
	newStatus := types.RequestStatusRejected
	if approve {
		newStatus = types.RequestStatusApproved
		var balance decimal.Decimal
		err = tx.QueryRow(ctx, "select balance from user_balances where user_id = $1 for update", req.UserID).Scan(&balance)
		if err != nil {
			return MoneyWithdrawal{}, err
		}
		if balance.LessThan(req.Amount) {
			return MoneyWithdrawal{}, ErrInsufficientCash
		}
		_, err = tx.Exec(ctx, "update user_balances set balance = balance - $1, updated_at = $2 where user_id = $3",
			req.Amount, time.Now().UTC(), req.UserID)
		if err != nil {
			return MoneyWithdrawal{}, err
		}
	}
	_, err = tx.Exec(ctx, "update withdrawal_money_requests set status = $1, updated_at = $2 where id = $3",
		string(newStatus), time.Now().UTC(), requestID)
	if err != nil {
		return MoneyWithdrawal{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return MoneyWithdrawal{}, err
	}
	req.Status = newStatus
	return req, nil
}

func scanMoneyWithdrawals(rows pgx.Rows) ([]MoneyWithdrawal, error) {
	var out []MoneyWithdrawal
	for rows.Next() {
		var m MoneyWithdrawal
		var status string
		if err := rows.Scan(&m.ID, &m.UserID, &m.Amount, &m.Bank, &m.AccountNumber, &m.AccountName, &status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		m.Status = types.RequestStatus(status)
		out = append(out, m)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
