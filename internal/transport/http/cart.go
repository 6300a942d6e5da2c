package httptransport

import (
	"net/http"

	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/model"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/pricing"
)

type addItemRequest struct {
	ItemID              int    `json:"itemId" validate:"required,gt=0"`
	Quantity            int    `json:"quantity" validate:"omitempty,min=1,max=99"`
	SpecialInstructions string `json:"specialInstructions" validate:"max=500"`
}

type updateItemRequest struct {
	Quantity            *int    `json:"quantity" validate:"required_without=SpecialInstructions"`
	SpecialInstructions *string `json:"specialInstructions" validate:"omitempty,max=500"`
}

type formattedBreakdown struct {
	Subtotal    string `json:"subtotal"`
	Tax         string `json:"tax"`
	DeliveryFee string `json:"deliveryFee"`
	Total       string `json:"total"`
}

type cartResponse struct {
	Items        []model.LineItem   `json:"items"`
	ItemCount    int                `json:"itemCount"`
	OrderType    model.OrderType    `json:"orderType"`
	Breakdown    pricing.Breakdown  `json:"breakdown"`
	Formatted    formattedBreakdown `json:"formatted"`
	PersistError string             `json:"persistError,omitempty"`
}

// orderTypeParam reads ?orderType=, defaulting to delivery.
func orderTypeParam(r *http.Request, key string) (model.OrderType, error) {
	switch ot := model.OrderType(r.URL.Query().Get(key)); ot {
	case "":
		return model.OrderTypeDelivery, nil
	case model.OrderTypeDelivery, model.OrderTypePickup:
		return ot, nil
	default:
		return "", badRequest(key + " must be delivery or pickup")
	}
}

func (h *Handler) cartView(orderType model.OrderType) cartResponse {
	c := h.deps.Cart
	items := c.Items()
	b := c.Breakdown(orderType)
	resp := cartResponse{
		Items:     items,
		ItemCount: c.TotalItemCount(),
		OrderType: orderType,
		Breakdown: b.Rounded(),
		Formatted: formattedBreakdown{
			Subtotal:    pricing.FormatCurrency(b.Subtotal),
			Tax:         pricing.FormatCurrency(b.Tax),
			DeliveryFee: pricing.FormatCurrency(b.DeliveryFee),
			Total:       pricing.FormatCurrency(b.Total),
		},
	}
	if err := c.PersistError(); err != nil {
		resp.PersistError = err.Error()
	}
	return resp
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	ot, err := orderTypeParam(r, "orderType")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartView(ot))
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	item, err := h.deps.Menu.Lookup(req.ItemID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, err := h.deps.Cart.AddItem(item, req.Quantity, req.SpecialInstructions); err != nil {
		h.writeError(w, r, err)
		return
	}

	ot, err := orderTypeParam(r, "orderType")
	if err != nil {
		ot = model.OrderTypeDelivery
	}
	writeJSON(w, http.StatusCreated, h.cartView(ot))
}

func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	id := r.PathValue("id")

	if req.Quantity != nil {
		if err := h.deps.Cart.SetQuantity(id, *req.Quantity); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	if req.SpecialInstructions != nil {
		h.deps.Cart.SetInstructions(id, *req.SpecialInstructions)
	}

	ot, err := orderTypeParam(r, "orderType")
	if err != nil {
		ot = model.OrderTypeDelivery
	}
	writeJSON(w, http.StatusOK, h.cartView(ot))
}

func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	h.deps.Cart.RemoveItem(r.PathValue("id"))
	writeJSON(w, http.StatusOK, h.cartView(model.OrderTypeDelivery))
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	h.deps.Cart.Clear()
	w.WriteHeader(http.StatusNoContent)
}
