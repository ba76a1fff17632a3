package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cambial/cambio/internal/auth"
	"github.com/cambial/cambio/internal/service"
	"github.com/cambial/cambio/internal/store"
)

// Services bundles everything the router needs.
type Services struct {
	Accounts      *service.AccountService
	Exchange      *service.ExchangeService
	Market        *service.MarketService
	Rates         *service.RateService
	Alerts        *service.AlertService
	Watchlist     *service.WatchlistService
	Notifications *service.NotificationService
	Audit         *service.AuditService
	Admin         *service.AdminService
}

// RouterConfig carries router-level settings.
type RouterConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter creates a chi router with all routes registered, request
// logging, metrics, rate limiting, and Content-Type validation
// middleware.
func NewRouter(
	svcs Services,
	tokens *auth.Manager,
	accounts *store.AccountStore,
	cfg RouterConfig,
	logger *slog.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(requestLogging(logger))
	r.Use(metrics)
	r.Use(rateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	r.Use(contentTypeJSON)

	// Create handlers.
	authH := NewAuthHandler(svcs.Accounts)
	accountH := NewAccountHandler(svcs.Accounts, svcs.Audit)
	exchangeH := NewExchangeHandler(svcs.Exchange)
	marketH := NewMarketHandler(svcs.Market)
	rateH := NewRateHandler(svcs.Rates)
	alertH := NewAlertHandler(svcs.Alerts)
	watchlistH := NewWatchlistHandler(svcs.Watchlist)
	notifH := NewNotificationHandler(svcs.Notifications)
	adminH := NewAdminHandler(svcs.Admin)

	// Health check.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Public routes.
	r.Post("/auth/register", authH.Register)
	r.Post("/auth/login", authH.Login)
	r.Get("/rate", rateH.Current)
	r.Get("/rate/stats", rateH.Stats)
	r.Get("/rate/snapshots", rateH.Snapshots)

	// Authenticated routes.
	r.Group(func(r chi.Router) {
		r.Use(Authenticator(tokens, accounts))

		r.Get("/me", accountH.Me)
		r.Get("/me/prefs", accountH.GetPrefs)
		r.Put("/me/prefs", accountH.UpdatePrefs)
		r.Get("/me/balances", accountH.Balances)
		r.Get("/me/audit", accountH.Audit)

		r.Post("/transactions", exchangeH.CreateDirectSwap)
		r.Get("/transactions", exchangeH.ListTransactions)
		r.Get("/transactions/export", exchangeH.ExportTransactions)

		r.Post("/offers", marketH.PostOffer)
		r.Get("/offers", marketH.ListOpen)
		r.Get("/offers/mine", marketH.MyOffers)
		r.Delete("/offers/{offer_id}", marketH.CancelOffer)
		r.Post("/offers/{offer_id}/accept", marketH.AcceptOffer)
		r.Get("/trades", marketH.MyTrades)

		r.Post("/alerts", alertH.Create)
		r.Get("/alerts", alertH.List)
		r.Delete("/alerts/{alert_id}", alertH.Delete)

		r.Post("/watchlist", watchlistH.Add)
		r.Get("/watchlist", watchlistH.List)
		r.Delete("/watchlist/{item_id}", watchlistH.Delete)

		r.Get("/notifications", notifH.List)
		r.Post("/notifications/{notification_id}/read", notifH.MarkRead)
		r.Delete("/notifications/{notification_id}", notifH.Delete)

		// Admin routes.
		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin)

			r.Get("/admin/users", adminH.ListUsers)
			r.Put("/admin/users/{user_id}/status", adminH.UpdateUserStatus)
			r.Get("/admin/stats", adminH.Stats)
			r.Get("/admin/reports", adminH.Reports)
			r.Get("/admin/audit", adminH.Audit)
			r.Post("/admin/backup", adminH.Backup)
			r.Post("/admin/restore", adminH.Restore)
			r.Get("/admin/backup/status", adminH.BackupStatus)
		})
	})

	return r
}
