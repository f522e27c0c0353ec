package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"rk-goldtrade/internal/cache"
	"rk-goldtrade/internal/cashier"
	"rk-goldtrade/internal/httputil"
	"rk-goldtrade/internal/notify"
	"rk-goldtrade/internal/pricefeed"
	"rk-goldtrade/internal/types"
	"rk-goldtrade/internal/withdrawals"
)

type Handler struct {
	pool        *pgxpool.Pool
	markupStore *pricefeed.Store
	goldSvc     *withdrawals.Service
	cashierSvc  *cashier.Service
	cache       *cache.Cache
	notifier    *notify.Telegram
}

func NewHandler(pool *pgxpool.Pool, markupStore *pricefeed.Store, goldSvc *withdrawals.Service, cashierSvc *cashier.Service, c *cache.Cache, notifier *notify.Telegram) *Handler {
	return &Handler{pool: pool, markupStore: markupStore, goldSvc: goldSvc, cashierSvc: cashierSvc, cache: c, notifier: notifier}
}

func (h *Handler) GetMarkup(w http.ResponseWriter, r *http.Request) {
	if cached, ok := h.cache.Get(r.Context(), cache.KeyMarkupSettings); ok {
		var m pricefeed.MarkupSettings
		if err := json.Unmarshal([]byte(cached), &m); err == nil {
			httputil.WriteJSON(w, http.StatusOK, m)
			return
		}
	}
	m, err := h.markupStore.GetMarkup(r.Context())
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	if raw, err := json.Marshal(m); err == nil {
		h.cache.Set(r.Context(), cache.KeyMarkupSettings, string(raw), cache.TTLMarkupSettings)
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

type markupPair struct {
	Bid string `json:"bid"`
	Ask string `json:"ask"`
}

type setMarkupRequest struct {
	Spot        markupPair `json:"spot"`
	Gold9999    markupPair `json:"9999"`
	Gold965     markupPair `json:"965"`
	Association markupPair `json:"association"`
}

func parseMarkupPair(p markupPair) (pricefeed.Markup, error) {
	bid, err := decimal.NewFromString(strings.TrimSpace(p.Bid))
	if err != nil {
		return pricefeed.Markup{}, errors.New("invalid bid markup")
	}
	ask, err := decimal.NewFromString(strings.TrimSpace(p.Ask))
	if err != nil {
		return pricefeed.Markup{}, errors.New("invalid ask markup")
	}
	return pricefeed.Markup{Bid: bid, Ask: ask}, nil
}

func (h *Handler) SetMarkup(w http.ResponseWriter, r *http.Request, userID string) {
	var req setMarkupRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	var m pricefeed.MarkupSettings
	var err error
	if m.Spot, err = parseMarkupPair(req.Spot); err == nil {
		if m.Gold9999, err = parseMarkupPair(req.Gold9999); err == nil {
			if m.Gold965, err = parseMarkupPair(req.Gold965); err == nil {
				m.Association, err = parseMarkupPair(req.Association)
			}
		}
	}
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	if err := h.markupStore.SetMarkup(r.Context(), m, userID); err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	// Quotes are derived from markup; both caches go stale together.
	h.cache.Delete(r.Context(), cache.KeyMarkupSettings, cache.KeyGoldPrices)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type holdingSummary struct {
	GoldType     types.GoldType  `json:"gold_type"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	TotalValue   decimal.Decimal `json:"total_value"`
	AveragePrice decimal.Decimal `json:"average_price"`
}

type userHoldingSummary struct {
	UserID      string          `json:"user_id"`
	UserName    string          `json:"user_name"`
	UserEmail   string          `json:"user_email"`
	GoldType    types.GoldType  `json:"gold_type"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalValue  decimal.Decimal `json:"total_value"`
}

type savingsSummaryResponse struct {
	Holdings []holdingSummary     `json:"holdings"`
	Users    []userHoldingSummary `json:"users"`
}

// SavingsSummary aggregates every user's open lots, the shop-wide view
// of custody. Aggregation runs over the lot log itself, never over any
// cached balance.
func (h *Handler) SavingsSummary(w http.ResponseWriter, r *http.Request) {
	rows, err := h.pool.Query(r.Context(), `
		select gold_type,
		       coalesce(sum(remaining_amount), 0),
		       coalesce(sum(remaining_amount * unit_cost), 0),
		       case when sum(remaining_amount) > 0
		            then sum(remaining_amount * unit_cost) / sum(remaining_amount)
		            else 0 end
		from gold_lots
		where remaining_amount > 0
		group by gold_type
		order by gold_type`)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	defer rows.Close()
	resp := savingsSummaryResponse{Holdings: []holdingSummary{}, Users: []userHoldingSummary{}}
	for rows.Next() {
		var hs holdingSummary
		var goldType string
		if err := rows.Scan(&goldType, &hs.TotalAmount, &hs.TotalValue, &hs.AveragePrice); err != nil {
			httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
			return
		}
		hs.GoldType = types.GoldType(goldType)
		resp.Holdings = append(resp.Holdings, hs)
	}
	if err := rows.Err(); err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	userRows, err := h.pool.Query(r.Context(), `
		select u.id, coalesce(u.name, ''), u.email, l.gold_type,
		       coalesce(sum(l.remaining_amount), 0),
		       coalesce(sum(l.remaining_amount * l.unit_cost), 0)
		from gold_lots l
		join users u on u.id = l.user_id
		where l.remaining_amount > 0
		group by u.id, u.name, u.email, l.gold_type
		order by u.email, l.gold_type`)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	defer userRows.Close()
	for userRows.Next() {
		var us userHoldingSummary
		var goldType string
		if err := userRows.Scan(&us.UserID, &us.UserName, &us.UserEmail, &goldType, &us.TotalAmount, &us.TotalValue); err != nil {
			httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
			return
		}
		us.GoldType = types.GoldType(goldType)
		resp.Users = append(resp.Users, us)
	}
	if err := userRows.Err(); err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

type customer struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	Name      string          `json:"name"`
	Role      string          `json:"role"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

func (h *Handler) Customers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.pool.Query(r.Context(), `
		select u.id, u.email, coalesce(u.name, ''), u.role, coalesce(b.balance, 0), u.created_at
		from users u
		left join user_balances b on b.user_id = u.id
		order by u.created_at desc`)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	defer rows.Close()
	out := []customer{}
	for rows.Next() {
		var c customer
		if err := rows.Scan(&c.ID, &c.Email, &c.Name, &c.Role, &c.Balance, &c.CreatedAt); err != nil {
			httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
			return
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) ListGoldWithdrawals(w http.ResponseWriter, r *http.Request) {
	items, err := h.goldSvc.ListAll(r.Context())
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) ListMoneyWithdrawals(w http.ResponseWriter, r *http.Request) {
	items, err := h.cashierSvc.ListAllMoneyWithdrawals(r.Context())
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

type reviewRequest struct {
	Status string `json:"status"`
}

func parseReviewStatus(raw string) (bool, error) {
	switch types.RequestStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case types.RequestStatusApproved:
		return true, nil
	case types.RequestStatusRejected:
		return false, nil
	}
	return false, errors.New("status must be approved or rejected")
}

func (h *Handler) ReviewGoldWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	approve, err := parseReviewStatus(req.Status)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	result, err := h.goldSvc.Review(r.Context(), chi.URLParam(r, "id"), approve)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, withdrawals.ErrRequestNotPending) {
			status = http.StatusConflict
		}
		httputil.WriteJSON(w, status, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	h.cache.Delete(r.Context(), cache.UserAssetsKey(result.UserID))
	h.notifier.WithdrawalReviewed(result.UserID, "Gold", string(result.Status))
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) ReviewMoneyWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	approve, err := parseReviewStatus(req.Status)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	result, err := h.cashierSvc.ReviewMoneyWithdrawal(r.Context(), chi.URLParam(r, "id"), approve)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, cashier.ErrRequestNotPending):
			status = http.StatusConflict
		case errors.Is(err, cashier.ErrInsufficientCash):
			status = http.StatusBadRequest
		}
		httputil.WriteJSON(w, status, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	h.cache.Delete(r.Context(), cache.UserBalanceKey(result.UserID))
	h.notifier.WithdrawalReviewed(result.UserID, "Money", string(result.Status))
	httputil.WriteJSON(w, http.StatusOK, result)
}
