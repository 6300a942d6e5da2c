// Package app wires the ordering core into a servable HTTP handler.
package app

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/cart"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/config"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/menu"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/middleware"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/order"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/pricing"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/service/payment"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/service/tracker"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/storage"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/timing"
	httptransport "github.com/mrnaveenwoodworks/bistro-deluxe/internal/transport/http"
)

// App is the wired application. Cart is exposed so the entrypoint can
// flush pending writes on shutdown.
type App struct {
	Handler        http.Handler
	Cart           *cart.Store
	Orders         *order.Service
	Payments       *tracker.Tracker
	RequestTimeout time.Duration
}

// New builds the application from cfg. The cart is kept on disk when
// cfg.DataDir is set; the order confirmation always lives in an
// expiring in-memory session.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var kv storage.Store = storage.NewMemory(0)
	if cfg.DataDir != "" {
		f, err := storage.NewFile(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("app: cart storage: %w", err)
		}
		kv = f
	}

	calc := pricing.New(pricing.DefaultPolicy())
	c := cart.New(kv, calc, cart.WithLogger(logger.Named("cart")))

	tr := &tracker.Tracker{}
	sim := payment.New(payment.Config{
		ApproveDelay:  simulatorDelay(cfg.ApproveDelay),
		DeclineDelay:  simulatorDelay(cfg.DeclineDelay),
		MaxConcurrent: cfg.PaymentConcurrency,
	},
		payment.WithTracker(tr),
		payment.WithLogger(logger.Named("payment")),
	)

	est := timing.New(timing.DefaultPolicy())
	orders := order.New(c, calc, sim, est, storage.NewMemory(cfg.SessionTTL),
		order.WithLogger(logger.Named("order")),
		order.WithDefaultDistance(cfg.DeliveryDistance),
	)

	h := httptransport.New(httptransport.Deps{
		Menu:     menu.Default(),
		Cart:     c,
		Orders:   orders,
		Timing:   est,
		Payments: tr,
	}, cfg.RequestTimeout, logger)

	return &App{
		Handler:        middleware.Logging(logger)(h.Routes()),
		Cart:           c,
		Orders:         orders,
		Payments:       tr,
		RequestTimeout: cfg.RequestTimeout,
	}, nil
}

// simulatorDelay maps a configured delay onto the simulator's convention,
// where zero selects the default and a negative value disables the wait.
func simulatorDelay(d time.Duration) time.Duration {
	if d == 0 {
		return -1
	}
	return d
}
