package httptransport

import (
	"net/http"
	"strings"

	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/checkout"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/model"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/order"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/timing"
)

type checkoutRequest struct {
	model.CheckoutForm
	DistanceMiles float64 `json:"distanceMiles" validate:"gte=0,lte=50"`
}

type validateResponse struct {
	Valid        bool                 `json:"valid"`
	FieldErrors  checkout.FieldErrors `json:"fieldErrors"`
	FirstInvalid string               `json:"firstInvalid,omitempty"`
}

type statusRequest struct {
	Status  model.OrderStatus `json:"status" validate:"required"`
	Details map[string]string `json:"details"`
}

func (h *Handler) handleValidateCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	fe := checkout.Validate(req.CheckoutForm)
	writeJSON(w, http.StatusOK, validateResponse{
		Valid:        fe.Valid(),
		FieldErrors:  fe,
		FirstInvalid: fe.First(),
	})
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.deps.Orders.Submit(r.Context(), order.SubmitRequest{
		Form:          req.CheckoutForm,
		DistanceMiles: req.DistanceMiles,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, submitToStatus[res.Status], res)
}

func (h *Handler) handleConfirmation(w http.ResponseWriter, r *http.Request) {
	conf, err := h.deps.Orders.LoadConfirmation()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conf)
}

func (h *Handler) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	up, err := h.deps.Timing.UpdateOrderStatus(r.PathValue("number"), req.Status, req.Details)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, up)
}

func (h *Handler) handleTimeSlots(w http.ResponseWriter, r *http.Request) {
	ot, err := orderTypeParam(r, "type")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	slots := h.deps.Timing.AvailableTimeSlots(ot)
	if slots == nil {
		slots = []timing.TimeSlot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"type": ot, "slots": slots})
}

func (h *Handler) handleDeliveryAvailability(w http.ResponseWriter, r *http.Request) {
	zip := strings.TrimSpace(r.URL.Query().Get("zip"))
	if zip == "" {
		h.writeError(w, r, badRequest("zip is required"))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Timing.CheckDeliveryAvailability(zip))
}
