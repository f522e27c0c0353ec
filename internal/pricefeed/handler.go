package pricefeed

import (
	"encoding/json"
	"net/http"

	"rk-goldtrade/internal/cache"
	"rk-goldtrade/internal/httputil"
)

type Handler struct {
	client *Client
	store  *Store
	cache  *cache.Cache
	ws     *QuoteWS
}

func NewHandler(client *Client, store *Store, c *cache.Cache, ws *QuoteWS) *Handler {
	return &Handler{client: client, store: store, cache: c, ws: ws}
}

func (h *Handler) WS() http.Handler {
	return h.ws
}

// Prices returns the current marked-up quotes, cached for a minute so a
// dashboard full of polling clients doesn't hammer the upstream feed.
func (h *Handler) Prices(w http.ResponseWriter, r *http.Request) {
	if cached, ok := h.cache.Get(r.Context(), cache.KeyGoldPrices); ok {
		var quotes []Quote
		if err := json.Unmarshal([]byte(cached), &quotes); err == nil {
			httputil.WriteJSON(w, http.StatusOK, quotes)
			return
		}
	}
	quotes, err := h.client.Fetch(r.Context())
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadGateway, httputil.ErrorResponse{Error: "failed to fetch gold prices"})
		return
	}
	markup, err := h.store.GetMarkup(r.Context())
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	marked := ApplyMarkup(quotes, markup)
	if raw, err := json.Marshal(marked); err == nil {
		h.cache.Set(r.Context(), cache.KeyGoldPrices, string(raw), cache.TTLGoldPrices)
	}
	httputil.WriteJSON(w, http.StatusOK, marked)
}
