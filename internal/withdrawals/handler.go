package withdrawals

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"rk-goldtrade/internal/httputil"
	"rk-goldtrade/internal/ledger"
	"rk-goldtrade/internal/notify"
	"rk-goldtrade/internal/types"
)

type Handler struct {
	svc      *Service
	notifier *notify.Telegram
}

func NewHandler(svc *Service, notifier *notify.Telegram) *Handler {
	return &Handler{svc: svc, notifier: notifier}
}

type createRequest struct {
	GoldType string `json:"gold_type"`
	Amount   string `json:"amount"`
	Name     string `json:"name"`
	Tel      string `json:"tel"`
	Address  string `json:"address"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request, userID string) {
	var req createRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	goldType, ok := types.ParseGoldType(strings.TrimSpace(req.GoldType))
	if !ok {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "invalid gold_type"})
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "invalid amount"})
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Tel) == "" || strings.TrimSpace(req.Address) == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "name, tel and address are required"})
		return
	}
	id, err := h.svc.Create(r.Context(), userID, goldType, amount, req.Name, req.Tel, req.Address)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ledger.ErrInsufficientHolding) || errors.Is(err, ledger.ErrInvalidQuantity) {
			status = http.StatusBadRequest
		}
		httputil.WriteJSON(w, status, httputil.ErrorResponse{Error: err.Error(), Kind: ledger.Kind(err)})
		return
	}
	h.notifier.WithdrawalRequested(userID, "Gold", fmt.Sprintf("🏷 Type: %s\n⚖️ Amount: %s", goldType, amount))
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"id": id, "status": "pending"})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request, userID string) {
	items, err := h.svc.ListByUser(r.Context(), userID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}
