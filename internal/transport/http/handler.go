// Package httptransport exposes the ordering core over JSON HTTP.
package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/cart"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/menu"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/model"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/order"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/service/tracker"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/timing"
)

const maxBodyBytes = 1 << 20

type orderSubmitter interface {
	Submit(ctx context.Context, req order.SubmitRequest) (model.SubmitResult, error)
	LoadConfirmation() (model.OrderConfirmation, error)
	InFlight() bool
}

// Deps are the collaborators the handler serves.
type Deps struct {
	Menu     *menu.Catalog
	Cart     *cart.Store
	Orders   orderSubmitter
	Timing   *timing.Estimator
	Payments *tracker.Tracker // in-flight authorizations, reported on /healthz
}

// Handler serves the HTTP routes.
type Handler struct {
	deps           Deps
	validate       *validator.Validate
	requestTimeout time.Duration
	logger         *zap.Logger
}

// New returns a Handler over deps.
//
// It panics if a required dependency is nil. If requestTimeout is non-positive,
// a default timeout is applied.
func New(deps Deps, requestTimeout time.Duration, logger *zap.Logger) *Handler {
	if deps.Menu == nil || deps.Cart == nil || deps.Orders == nil || deps.Timing == nil {
		panic("httptransport.New: nil dependency")
	}
	if deps.Payments == nil {
		deps.Payments = &tracker.Tracker{}
	}
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{
		deps:           deps,
		validate:       v,
		requestTimeout: requestTimeout,
		logger:         logger,
	}
}

// Routes returns the route table.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("GET /menu", h.handleMenu)

	mux.HandleFunc("GET /cart", h.handleGetCart)
	mux.HandleFunc("POST /cart/items", h.handleAddItem)
	mux.HandleFunc("PATCH /cart/items/{id}", h.handleUpdateItem)
	mux.HandleFunc("DELETE /cart/items/{id}", h.handleRemoveItem)
	mux.HandleFunc("DELETE /cart", h.handleClearCart)

	mux.HandleFunc("POST /checkout/validate", h.handleValidateCheckout)
	mux.HandleFunc("POST /checkout", h.handleCheckout)
	mux.HandleFunc("GET /orders/confirmation", h.handleConfirmation)
	mux.HandleFunc("POST /orders/{number}/status", h.handleOrderStatus)

	mux.HandleFunc("GET /timeslots", h.handleTimeSlots)
	mux.HandleFunc("GET /delivery/availability", h.handleDeliveryAvailability)

	return h.withTimeout(mux)
}

// withTimeout runs every request under the configured deadline.
func (h *Handler) withTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "ok",
		"paymentsInFlight":   h.deps.Payments.Running(),
		"paymentsTotal":      h.deps.Payments.Total(),
		"submissionInFlight": h.deps.Orders.InFlight(),
	})
}

type menuResponse struct {
	Categories []model.Category `json:"categories"`
	Items      []model.MenuItem `json:"items"`
	Featured   []model.MenuItem `json:"featured"`
}

func (h *Handler) handleMenu(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, menuResponse{
		Categories: menu.Categories,
		Items:      h.deps.Menu.All(),
		Featured:   h.deps.Menu.Featured(),
	})
}

// decodeJSON reads exactly one JSON value into dst and validates it.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return badRequest("invalid JSON")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return badRequest("invalid JSON")
	}
	if err := h.validate.Struct(dst); err != nil {
		return badRequest(validationMessage(err))
	}
	return nil
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, errorResponse{Error: errorPayload(err)})
}

type errorResponse struct {
	Error model.ErrorPayload `json:"error"`
}

// writeJSON writes v as a JSON response with the given status code.
// The Content-Type is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
