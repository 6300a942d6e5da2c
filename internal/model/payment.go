package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CardType is the card network detected from the number prefix.
type CardType string

const (
	CardVisa       CardType = "visa"
	CardMastercard CardType = "mastercard"
	CardAmex       CardType = "amex"
	CardDiscover   CardType = "discover"
	CardUnknown    CardType = "unknown"
)

// PaymentRequest carries the card details for one authorization.
type PaymentRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	CardNumber string          `json:"cardNumber"`
	Expiry     string          `json:"cardExpiry"`
	CVC        string          `json:"cardCvc"`
	NameOnCard string          `json:"nameOnCard"`
}

// PaymentResult is the outcome of an authorization attempt.
// A decline is a normal result with Success false and a DeclineCode.
type PaymentResult struct {
	Success       bool            `json:"success"`
	TransactionID string          `json:"transactionId,omitempty"`
	DeclineCode   string          `json:"declineCode,omitempty"`
	Error         string          `json:"error,omitempty"`
	CardType      CardType        `json:"cardType,omitempty"`
	Last4         string          `json:"last4,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Timestamp     time.Time       `json:"timestamp"`
}
