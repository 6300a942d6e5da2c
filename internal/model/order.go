package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderConfirmation is the immutable record handed to the confirmation view.
// Money fields are rounded to cents.
type OrderConfirmation struct {
	OrderNumber             string          `json:"orderNumber"`
	OrderTime               time.Time       `json:"orderTime"`
	EstimatedCompletionTime time.Time       `json:"estimatedCompletionTime"`
	CustomerName            string          `json:"customerName"`
	OrderType               OrderType       `json:"orderType"`
	PreferredTime           PreferredTime   `json:"preferredTime"`
	PrepMinutes             int             `json:"prepMinutes"`
	DeliveryMinutes         int             `json:"deliveryMinutes"`
	Items                   []LineItem      `json:"items"`
	Subtotal                decimal.Decimal `json:"subtotal"`
	Tax                     decimal.Decimal `json:"tax"`
	DeliveryFee             decimal.Decimal `json:"deliveryFee"`
	Total                   decimal.Decimal `json:"total"`
	PaymentMethod           PaymentMethod   `json:"paymentMethod"`
	PaymentTransactionID    string          `json:"paymentTransactionId,omitempty"`
	CardLast4               string          `json:"cardLast4,omitempty"`
	SpecialInstructions     string          `json:"specialInstructions"`
}

// OrderStatus is a fulfillment status of a placed order.
type OrderStatus string

const (
	StatusReceived         OrderStatus = "received"
	StatusPreparing        OrderStatus = "preparing"
	StatusReadyForDelivery OrderStatus = "ready_for_delivery"
	StatusOutForDelivery   OrderStatus = "out_for_delivery"
	StatusReadyForPickup   OrderStatus = "ready_for_pickup"
	StatusCompleted        OrderStatus = "completed"
	StatusCancelled        OrderStatus = "cancelled"
)

// StatusUpdate records one status transition of an order.
type StatusUpdate struct {
	OrderNumber string            `json:"orderNumber"`
	Status      OrderStatus       `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Details     map[string]string `json:"details,omitempty"`
	IsCompleted bool              `json:"isCompleted"`
}

// SubmitStatus classifies the outcome of an order submission.
type SubmitStatus string

const (
	SubmitOK       SubmitStatus = "ok"
	SubmitInvalid  SubmitStatus = "invalid"  // checkout form violations
	SubmitRejected SubmitStatus = "rejected" // order rules or delivery zone
	SubmitDeclined SubmitStatus = "declined" // payment failed
)

// SubmitResult is what an order submission returns to the presentation layer.
type SubmitResult struct {
	Status       SubmitStatus       `json:"status"`
	FieldErrors  map[string]string  `json:"fieldErrors,omitempty"`
	OrderErrors  []string           `json:"orderErrors,omitempty"`
	Steps        []StepResult       `json:"steps,omitempty"`
	Payment      *PaymentResult     `json:"payment,omitempty"`
	Confirmation *OrderConfirmation `json:"confirmation,omitempty"`
	Notices      []string           `json:"notices,omitempty"`
}

// StepResult captures the outcome of a submission step.
type StepResult struct {
	Name       string `json:"name"`
	Status     string `json:"status"` // "ok" | "error" | "canceled"
	DurationMS int64  `json:"duration_ms"`
	Detail     string `json:"detail,omitempty"` // error kind when Status is "error"
}

// ErrorPayload describes an error response.
type ErrorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}
