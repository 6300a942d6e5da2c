package model

// OrderType is the fulfillment type of an order.
type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypePickup   OrderType = "pickup"
)

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentCreditCard     PaymentMethod = "creditCard"
	PaymentCashOnDelivery PaymentMethod = "cashOnDelivery"
)

// PreferredTime selects between ASAP and a scheduled time.
type PreferredTime string

const (
	PreferredASAP      PreferredTime = "asap"
	PreferredScheduled PreferredTime = "scheduled"
)

// CheckoutForm is the raw checkout input as typed by the customer.
type CheckoutForm struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`

	OrderType OrderType `json:"orderType"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	ZipCode   string    `json:"zipCode"`

	PaymentMethod PaymentMethod `json:"paymentMethod"`
	CardNumber    string        `json:"cardNumber"`
	CardExpiry    string        `json:"cardExpiry"`
	CardCVC       string        `json:"cardCvc"`
	NameOnCard    string        `json:"nameOnCard"`

	PreferredTime       PreferredTime `json:"preferredTime"`
	ScheduledTime       string        `json:"scheduledTime"` // HH:MM, local time
	SpecialInstructions string        `json:"specialInstructions"`
}

// CustomerName joins first and last name.
func (f CheckoutForm) CustomerName() string {
	switch {
	case f.FirstName == "":
		return f.LastName
	case f.LastName == "":
		return f.FirstName
	}
	return f.FirstName + " " + f.LastName
}

// CustomerInfo is the subset of customer data order rules look at.
type CustomerInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	ZipCode string `json:"zipCode"`
}

// CustomerInfo extracts the customer data from the form.
func (f CheckoutForm) CustomerInfo() CustomerInfo {
	return CustomerInfo{
		Name:    f.CustomerName(),
		Email:   f.Email,
		Phone:   f.Phone,
		Address: f.Address,
		ZipCode: f.ZipCode,
	}
}
