package httpserver

import (
	"net/http"
	"os"
	"path/filepath"

	"rk-goldtrade/internal/admin"
	"rk-goldtrade/internal/auth"
	"rk-goldtrade/internal/cashier"
	"rk-goldtrade/internal/health"
	"rk-goldtrade/internal/httputil"
	"rk-goldtrade/internal/ledger"
	"rk-goldtrade/internal/pricefeed"
	"rk-goldtrade/internal/withdrawals"

	"github.com/go-chi/chi/v5"
)

type RouterDeps struct {
	AuthHandler        *auth.Handler
	LedgerHandler      *ledger.Handler
	MarketHandler      *pricefeed.Handler
	CashierHandler     *cashier.Handler
	WithdrawalsHandler *withdrawals.Handler
	AdminHandler       *admin.Handler
	HealthHandler      *health.Handler
	AuthService        *auth.Service
	InternalToken      string
	UIDist             string
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS middleware for development
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				origin = "*"
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	// Security Middleware
	r.Use(SecurityHeaders)
	r.Use(RateLimitMiddleware)

	r.Get("/health", d.HealthHandler.Ready)
	r.Get("/health/live", d.HealthHandler.Live)
	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", d.AuthHandler.Register)
			r.Post("/login", d.AuthHandler.Login)
		})
		r.Get("/market/prices", d.MarketHandler.Prices)
		r.Get("/market/ws", d.MarketHandler.WS().ServeHTTP)
		r.Group(func(r chi.Router) {
			r.Use(WithAuth(d.AuthService))
			r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
				userID, ok := UserID(r)
				if !ok {
					httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
					return
				}
				d.AuthHandler.Me(w, r, userID)
			})
			r.Get("/balance", func(w http.ResponseWriter, r *http.Request) {
				userID, ok := UserID(r)
				if !ok {
					httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
					return
				}
				d.LedgerHandler.GetBalance(w, r, userID)
			})
			r.Post("/trade", func(w http.ResponseWriter, r *http.Request) {
				userID, ok := UserID(r)
				if !ok {
					httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
					return
				}
				d.LedgerHandler.ExecuteTrade(w, r, userID)
			})
			r.Get("/positions", func(w http.ResponseWriter, r *http.Request) {
				userID, ok := UserID(r)
				if !ok {
					httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
					return
				}
				d.LedgerHandler.GetPositions(w, r, userID)
			})
			r.Get("/position", func(w http.ResponseWriter, r *http.Request) {
				userID, ok := UserID(r)
				if !ok {
					httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
					return
				}
				d.LedgerHandler.GetPosition(w, r, userID)
			})
			r.Get("/transactions", func(w http.ResponseWriter, r *http.Request) {
				userID, ok := UserID(r)
				if !ok {
					httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
					return
				}
				d.LedgerHandler.GetHistory(w, r, userID)
			})
			r.Post("/deposits/slip", func(w http.ResponseWriter, r *http.Request) {
				userID, ok := UserID(r)
				if !ok {
					httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
					return
				}
				d.CashierHandler.DepositSlip(w, r, userID)
			})
			r.Post("/withdrawals/gold", func(w http.ResponseWriter, r *http.Request) {
				userID, ok := UserID(r)
				if !ok {
					httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
					return
				}
				d.WithdrawalsHandler.Create(w, r, userID)
			})
			r.Get("/withdrawals/gold", func(w http.ResponseWriter, r *http.Request) {
				userID, ok := UserID(r)
				if !ok {
					httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
					return
				}
				d.WithdrawalsHandler.List(w, r, userID)
			})
			r.Post("/withdrawals/money", func(w http.ResponseWriter, r *http.Request) {
				userID, ok := UserID(r)
				if !ok {
					httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
					return
				}
				d.CashierHandler.RequestMoneyWithdrawal(w, r, userID)
			})
			r.Get("/withdrawals/money", func(w http.ResponseWriter, r *http.Request) {
				userID, ok := UserID(r)
				if !ok {
					httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
					return
				}
				d.CashierHandler.ListMoneyWithdrawals(w, r, userID)
			})
		})
		r.Group(func(r chi.Router) {
			r.Use(InternalAuth(d.InternalToken))
			r.Get("/internal/health", d.HealthHandler.Full)
			r.Get("/internal/metrics", d.HealthHandler.Metrics)
		})
		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(WithAuth(d.AuthService))
			r.Use(RequireAdmin(d.AuthService))
			r.Get("/markup", d.AdminHandler.GetMarkup)
			r.Post("/markup", func(w http.ResponseWriter, r *http.Request) {
				userID, ok := UserID(r)
				if !ok {
					httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
					return
				}
				d.AdminHandler.SetMarkup(w, r, userID)
			})
			r.Get("/savings-summary", d.AdminHandler.SavingsSummary)
			r.Get("/customers", d.AdminHandler.Customers)
			r.Get("/withdrawals/gold", d.AdminHandler.ListGoldWithdrawals)
			r.Post("/withdrawals/gold/{id}/review", d.AdminHandler.ReviewGoldWithdrawal)
			r.Get("/withdrawals/money", d.AdminHandler.ListMoneyWithdrawals)
			r.Post("/withdrawals/money/{id}/review", d.AdminHandler.ReviewMoneyWithdrawal)
		})
	})
	if d.UIDist != "" {
		r.NotFound(spaHandler(d.UIDist).ServeHTTP)
	}
	return r
}

func spaHandler(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/" {
			path = "/index.html"
		}
		clean := filepath.Clean(path)
		full := filepath.Join(dir, clean)
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			http.ServeFile(w, r, full)
			return
		}
		index := filepath.Join(dir, "index.html")
		if _, err := os.Stat(index); err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, index)
	})
}
