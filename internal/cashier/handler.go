package cashier

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"rk-goldtrade/internal/cache"
	"rk-goldtrade/internal/httputil"
	"rk-goldtrade/internal/notify"
)

type Handler struct {
	svc      *Service
	cache    *cache.Cache
	notifier *notify.Telegram
}

func NewHandler(svc *Service, c *cache.Cache, notifier *notify.Telegram) *Handler {
	return &Handler{svc: svc, cache: c, notifier: notifier}
}

type depositSlipRequest struct {
	Payload string `json:"payload"`
}

type depositSlipResponse struct {
	TransRef string          `json:"trans_ref"`
	Amount   decimal.Decimal `json:"amount"`
	Balance  decimal.Decimal `json:"balance"`
}

func (h *Handler) DepositSlip(w http.ResponseWriter, r *http.Request, userID string) {
	var req depositSlipRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	if strings.TrimSpace(req.Payload) == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "payload is required"})
		return
	}
	slip, balance, err := h.svc.DepositFromSlip(r.Context(), userID, req.Payload)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrSlipAlreadyUsed) || errors.Is(err, ErrSlipRejected) {
			status = http.StatusBadRequest
		}
		httputil.WriteJSON(w, status, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	h.cache.Delete(r.Context(), cache.UserBalanceKey(userID))
	h.notifier.DepositVerified(userID, slip.TransRef, slip.Amount.String())
	httputil.WriteJSON(w, http.StatusOK, depositSlipResponse{TransRef: slip.TransRef, Amount: slip.Amount, Balance: balance})
}

type moneyWithdrawalRequest struct {
	Amount        string `json:"amount"`
	Bank          string `json:"bank"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

func (h *Handler) RequestMoneyWithdrawal(w http.ResponseWriter, r *http.Request, userID string) {
	var req moneyWithdrawalRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "invalid amount"})
		return
	}
	if strings.TrimSpace(req.Bank) == "" || strings.TrimSpace(req.AccountNumber) == "" || strings.TrimSpace(req.AccountName) == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "bank, account_number and account_name are required"})
		return
	}
	id, err := h.svc.RequestMoneyWithdrawal(r.Context(), userID, amount, req.Bank, req.AccountNumber, req.AccountName)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrInsufficientCash) {
			status = http.StatusBadRequest
		}
		httputil.WriteJSON(w, status, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	h.notifier.WithdrawalRequested(userID, "Money", "💵 Amount: ฿"+amount.String())
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"id": id, "status": "pending"})
}

func (h *Handler) ListMoneyWithdrawals(w http.ResponseWriter, r *http.Request, userID string) {
	items, err := h.svc.ListMoneyWithdrawals(r.Context(), userID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}
