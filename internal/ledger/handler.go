package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"rk-goldtrade/internal/cache"
	"rk-goldtrade/internal/httputil"
	"rk-goldtrade/internal/notify"
	"rk-goldtrade/internal/types"
)

type Handler struct {
	svc      *Service
	cache    *cache.Cache
	notifier *notify.Telegram
}

func NewHandler(svc *Service, c *cache.Cache, notifier *notify.Telegram) *Handler {
	return &Handler{svc: svc, cache: c, notifier: notifier}
}

type tradeRequest struct {
	GoldType     string `json:"gold_type"`
	Amount       string `json:"amount"`
	PricePerUnit string `json:"price_per_unit"`
	Direction    string `json:"direction"`
}

type tradeResponse struct {
	GoldType     types.GoldType   `json:"gold_type"`
	Quantity     decimal.Decimal  `json:"quantity"`
	AverageCost  decimal.Decimal  `json:"average_cost"`
	TotalCost    decimal.Decimal  `json:"total_cost"`
	CashBalance  decimal.Decimal  `json:"cash_balance"`
	ProfitOrLoss *decimal.Decimal `json:"profit_or_loss,omitempty"`
}

type parsedTrade struct {
	goldType  types.GoldType
	qty       decimal.Decimal
	price     decimal.Decimal
	direction types.TradeDirection
}

func parseTradeRequest(req tradeRequest) (parsedTrade, error) {
	var p parsedTrade
	goldType, ok := types.ParseGoldType(strings.ToLower(strings.TrimSpace(req.GoldType)))
	if !ok {
		return p, errors.New("invalid gold_type")
	}
	qty, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return p, ErrInvalidQuantity
	}
	price, err := decimal.NewFromString(strings.TrimSpace(req.PricePerUnit))
	if err != nil {
		return p, ErrInvalidPrice
	}
	direction := types.TradeDirection(strings.ToLower(strings.TrimSpace(req.Direction)))
	if direction != types.TradeDirectionBuy && direction != types.TradeDirectionSell {
		return p, errors.New("direction must be buy or sell")
	}
	p.goldType = goldType
	p.qty = qty
	p.price = price
	p.direction = direction
	return p, nil
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrInsufficientHolding),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidPrice):
		return http.StatusBadRequest
	case errors.Is(err, ErrStorageConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	httputil.WriteJSON(w, statusForError(err), httputil.ErrorResponse{Error: err.Error(), Kind: Kind(err)})
}

func (h *Handler) ExecuteTrade(w http.ResponseWriter, r *http.Request, userID string) {
	var req tradeRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	p, err := parseTradeRequest(req)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error(), Kind: Kind(err)})
		return
	}
	var res TradeResult
	if p.direction == types.TradeDirectionBuy {
		res, err = h.svc.ExecuteBuy(r.Context(), userID, p.goldType, p.qty, p.price)
	} else {
		res, err = h.svc.ExecuteSell(r.Context(), userID, p.goldType, p.qty, p.price)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.cache.Delete(r.Context(), cache.UserBalanceKey(userID), cache.UserAssetsKey(userID))
	h.notifier.TradeExecuted(userID, string(p.goldType), p.direction == types.TradeDirectionBuy, p.qty.String(), p.price.String(), p.qty.Mul(p.price).String())
	resp := tradeResponse{
		GoldType:    res.Position.GoldType,
		Quantity:    res.Position.Quantity,
		AverageCost: res.Position.AverageCost,
		TotalCost:   res.Position.TotalCost,
		CashBalance: res.CashBalance,
	}
	if p.direction == types.TradeDirectionSell {
		pl := res.ProfitOrLoss
		resp.ProfitOrLoss = &pl
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetPosition(w http.ResponseWriter, r *http.Request, userID string) {
	goldType, ok := types.ParseGoldType(strings.TrimSpace(r.URL.Query().Get("gold_type")))
	if !ok {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "invalid gold_type"})
		return
	}
	pos, err := h.svc.Position(r.Context(), userID, goldType)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pos)
}

// decodeCachedPositions tolerates corrupt cache entries; a bad payload
// is a miss, not an error.
func decodeCachedPositions(raw string) ([]Position, bool) {
	var out []Position
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, false
	}
	return out, true
}

func (h *Handler) GetPositions(w http.ResponseWriter, r *http.Request, userID string) {
	if cached, ok := h.cache.Get(r.Context(), cache.UserAssetsKey(userID)); ok {
		if positions, ok := decodeCachedPositions(cached); ok {
			httputil.WriteJSON(w, http.StatusOK, positions)
			return
		}
	}
	positions, err := h.svc.Positions(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if raw, err := json.Marshal(positions); err == nil {
		h.cache.Set(r.Context(), cache.UserAssetsKey(userID), string(raw), cache.TTLUserAssets)
	}
	httputil.WriteJSON(w, http.StatusOK, positions)
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request, userID string) {
	if cached, ok := h.cache.Get(r.Context(), cache.UserBalanceKey(userID)); ok {
		if balance, err := decimal.NewFromString(cached); err == nil {
			httputil.WriteJSON(w, http.StatusOK, map[string]decimal.Decimal{"balance": balance})
			return
		}
	}
	balance, err := h.svc.CashBalance(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.cache.Set(r.Context(), cache.UserBalanceKey(userID), balance.String(), cache.TTLUserBalance)
	httputil.WriteJSON(w, http.StatusOK, map[string]decimal.Decimal{"balance": balance})
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request, userID string) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}
	records, err := h.svc.History(r.Context(), userID, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}
