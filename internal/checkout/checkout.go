// Package checkout validates the checkout form before an order is placed.
package checkout

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/model"
)

// Field names, in form order.
const (
	FieldFirstName     = "firstName"
	FieldLastName      = "lastName"
	FieldEmail         = "email"
	FieldPhone         = "phone"
	FieldOrderType     = "orderType"
	FieldAddress       = "address"
	FieldCity          = "city"
	FieldZipCode       = "zipCode"
	FieldPaymentMethod = "paymentMethod"
	FieldCardNumber    = "cardNumber"
	FieldNameOnCard    = "nameOnCard"
	FieldCardExpiry    = "cardExpiry"
	FieldCardCVC       = "cardCvc"
	FieldPreferredTime = "preferredTime"
	FieldScheduledTime = "scheduledTime"
)

var formOrder = []string{
	FieldFirstName, FieldLastName, FieldEmail, FieldPhone,
	FieldOrderType, FieldAddress, FieldCity, FieldZipCode,
	FieldPaymentMethod, FieldCardNumber, FieldNameOnCard, FieldCardExpiry, FieldCardCVC,
	FieldPreferredTime, FieldScheduledTime,
}

// rules is the form as the validator sees it. Values are trimmed, and
// fields that do not apply to the chosen order type, payment method or
// preferred time are left empty.
type rules struct {
	FirstName     string `json:"firstName" validate:"required"`
	LastName      string `json:"lastName" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone" validate:"required"`
	OrderType     string `json:"orderType" validate:"required,oneof=delivery pickup"`
	Address       string `json:"address" validate:"required_if=OrderType delivery"`
	City          string `json:"city" validate:"required_if=OrderType delivery"`
	ZipCode       string `json:"zipCode" validate:"required_if=OrderType delivery"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=creditCard cashOnDelivery"`
	CardNumber    string `json:"cardNumber" validate:"required_if=PaymentMethod creditCard,omitempty,cardnumber"`
	NameOnCard    string `json:"nameOnCard" validate:"required_if=PaymentMethod creditCard"`
	CardExpiry    string `json:"cardExpiry" validate:"required_if=PaymentMethod creditCard,omitempty,len=5,datetime=01/06"`
	CardCVC       string `json:"cardCvc" validate:"required_if=PaymentMethod creditCard,omitempty,number,min=3,max=4"`
	PreferredTime string `json:"preferredTime" validate:"omitempty,oneof=asap scheduled"`
	ScheduledTime string `json:"scheduledTime" validate:"required_if=PreferredTime scheduled,omitempty,len=5,datetime=15:04"`
}

// messages is keyed by field and failed tag; required_if reports as required.
var messages = map[string]string{
	"firstName.required":     "First name is required",
	"lastName.required":      "Last name is required",
	"email.required":         "Email is required",
	"email.email":            "Email is invalid",
	"phone.required":         "Phone number is required",
	"orderType.required":     "Order type is required",
	"orderType.oneof":        "Order type must be delivery or pickup",
	"address.required":       "Address is required",
	"city.required":          "City is required",
	"zipCode.required":       "ZIP code is required",
	"paymentMethod.required": "Payment method is required",
	"paymentMethod.oneof":    "Payment method must be creditCard or cashOnDelivery",
	"cardNumber.required":    "Card number is required",
	"cardNumber.cardnumber":  "Card number must be 16 digits",
	"nameOnCard.required":    "Name on card is required",
	"cardExpiry.required":    "Expiry date is required",
	"cardExpiry.len":         "Expiry date must be in MM/YY format",
	"cardExpiry.datetime":    "Expiry date must be in MM/YY format",
	"cardCvc.required":       "CVC is required",
	"cardCvc.number":         "CVC must be 3 or 4 digits",
	"cardCvc.min":            "CVC must be 3 or 4 digits",
	"cardCvc.max":            "CVC must be 3 or 4 digits",
	"preferredTime.oneof":    "Preferred time must be asap or scheduled",
	"scheduledTime.required": "Scheduled time is required",
	"scheduledTime.len":      "Scheduled time must be in HH:MM format",
	"scheduledTime.datetime": "Scheduled time must be in HH:MM format",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	if err := v.RegisterValidation("cardnumber", isCardNumber); err != nil {
		panic(err)
	}
	return v
}

// isCardNumber accepts exactly 16 digits once whitespace is removed.
func isCardNumber(fl validator.FieldLevel) bool {
	n := 0
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsSpace(r):
		case r >= '0' && r <= '9':
			n++
		default:
			return false
		}
	}
	return n == 16
}

// FieldErrors maps a form field to its message.
type FieldErrors map[string]string

// Valid reports whether there are no errors.
func (fe FieldErrors) Valid() bool { return len(fe) == 0 }

// First returns the first invalid field in form order, or "" when valid.
func (fe FieldErrors) First() string {
	for _, f := range formOrder {
		if _, ok := fe[f]; ok {
			return f
		}
	}
	return ""
}

// Validate checks the form and reports every violated field. Address
// fields are checked only for delivery, card fields only for credit card
// payment and the scheduled time only when one was requested.
func Validate(form model.CheckoutForm) FieldErrors {
	errs := FieldErrors{}

	err := validate.Struct(rulesFor(form))
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		panic(err)
	}
	for _, fe := range verrs {
		errs[fe.Field()] = message(fe)
	}
	return errs
}

func rulesFor(form model.CheckoutForm) rules {
	r := rules{
		FirstName:     strings.TrimSpace(form.FirstName),
		LastName:      strings.TrimSpace(form.LastName),
		Email:         strings.TrimSpace(form.Email),
		Phone:         strings.TrimSpace(form.Phone),
		OrderType:     string(form.OrderType),
		PaymentMethod: string(form.PaymentMethod),
		PreferredTime: string(form.PreferredTime),
	}
	if form.OrderType == model.OrderTypeDelivery {
		r.Address = strings.TrimSpace(form.Address)
		r.City = strings.TrimSpace(form.City)
		r.ZipCode = strings.TrimSpace(form.ZipCode)
	}
	if form.PaymentMethod == model.PaymentCreditCard {
		r.CardNumber = strings.TrimSpace(form.CardNumber)
		r.NameOnCard = strings.TrimSpace(form.NameOnCard)
		r.CardExpiry = strings.TrimSpace(form.CardExpiry)
		r.CardCVC = strings.TrimSpace(form.CardCVC)
	}
	if form.PreferredTime == model.PreferredScheduled {
		r.ScheduledTime = strings.TrimSpace(form.ScheduledTime)
	}
	return r
}

func message(fe validator.FieldError) string {
	tag := fe.Tag()
	if tag == "required_if" {
		tag = "required"
	}
	if m, ok := messages[fe.Field()+"."+tag]; ok {
		return m
	}
	return fe.Field() + " is invalid"
}
