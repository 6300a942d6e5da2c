// Package timing estimates preparation and delivery times and applies the
// restaurant's order rules: opening hours, delivery zones and time slots.
package timing

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/apperr"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/model"
)

// ErrInvalidStatus is returned by UpdateOrderStatus for an unknown status.
var ErrInvalidStatus = apperr.New("invalid_status", "Invalid order status")

// Order rule messages.
const (
	MsgClosed        = "Restaurant is currently closed. Operating hours are 11 AM - 10 PM"
	MsgNoItems       = "Order must contain at least one item"
	MsgNoAddress     = "Delivery address is required"
	MsgNoPhone       = "Phone number is required for delivery"
	MsgNoNameOrEmail = "Customer name and email are required"
	MsgOutsideZone   = "Delivery is not available for this ZIP code"
	MsgBelowMinimum  = "Delivery orders must be at least %s"
)

const defaultPrepMinutes = 10

var basePrepMinutes = map[model.Category]int{
	model.CategoryStarters:    8,
	model.CategoryMainCourses: 15,
	model.CategoryPasta:       12,
	model.CategorySides:       8,
	model.CategoryDesserts:    10,
	model.CategoryBeverages:   3,
}

var validStatuses = []model.OrderStatus{
	model.StatusReceived,
	model.StatusPreparing,
	model.StatusReadyForDelivery,
	model.StatusOutForDelivery,
	model.StatusReadyForPickup,
	model.StatusCompleted,
	model.StatusCancelled,
}

// Policy holds the restaurant's schedule and delivery rules.
type Policy struct {
	OpenHour      int
	CloseHour     int
	DeliveryLead  time.Duration
	PickupLead    time.Duration
	SlotInterval  time.Duration
	DeliveryZips  []string
	MaxDistance   float64 // miles
	MinOrder      decimal.Decimal
	DeliveryFee   decimal.Decimal
	TrafficWindow [][2]int // inclusive hour ranges
}

// DefaultPolicy returns the current opening hours and delivery zone.
func DefaultPolicy() Policy {
	return Policy{
		OpenHour:      11,
		CloseHour:     22,
		DeliveryLead:  45 * time.Minute,
		PickupLead:    25 * time.Minute,
		SlotInterval:  30 * time.Minute,
		DeliveryZips:  []string{"10001", "10002", "10003", "10004", "10005"},
		MaxDistance:   5,
		MinOrder:      decimal.NewFromInt(15),
		DeliveryFee:   decimal.RequireFromString("5.99"),
		TrafficWindow: [][2]int{{11, 14}, {17, 19}},
	}
}

// EstimatedTimes is the timing estimate of one order.
type EstimatedTimes struct {
	PrepMinutes     int       `json:"prepTime"`
	DeliveryMinutes int       `json:"deliveryTime"`
	TotalMinutes    int       `json:"totalTime"`
	CompletionTime  time.Time `json:"completionTime"`
	HighTraffic     bool      `json:"isHighTraffic"`
}

// DeliveryAvailability describes whether a ZIP code is served.
type DeliveryAvailability struct {
	Available   bool            `json:"available"`
	MaxDistance float64         `json:"maxDistance"`
	MinOrder    decimal.Decimal `json:"minOrder"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
}

// TimeSlot is a selectable delivery or pickup time.
type TimeSlot struct {
	Label string    `json:"time"`
	Value time.Time `json:"value"`
}

// Estimator applies a Policy against an injectable clock.
type Estimator struct {
	policy Policy
	now    func() time.Time
	rnd    func(n int) int
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Estimator) { e.now = now }
}

// WithRand sets the source used for order numbers.
func WithRand(r *rand.Rand) Option {
	return func(e *Estimator) { e.rnd = r.IntN }
}

// New returns an Estimator for p.
func New(p Policy, opts ...Option) *Estimator {
	e := &Estimator{policy: p, now: time.Now, rnd: rand.IntN}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the rules in effect.
func (e *Estimator) Policy() Policy { return e.policy }

// Now returns the estimator's current time.
func (e *Estimator) Now() time.Time { return e.now() }

// GenerateOrderNumber returns YYYYMMDD-NNNN with a random four-digit suffix.
// Uniqueness is not guaranteed.
func (e *Estimator) GenerateOrderNumber() string {
	return fmt.Sprintf("%s-%04d", e.now().Format("20060102"), 1000+e.rnd(9000))
}

// CalculatePrepTime is the slowest item's base time plus five minutes for
// every four items ordered. An empty order takes no time.
func CalculatePrepTime(items []model.LineItem) int {
	if len(items) == 0 {
		return 0
	}
	slowest, qty := 0, 0
	for _, it := range items {
		base, ok := basePrepMinutes[it.Category]
		if !ok {
			base = defaultPrepMinutes
		}
		slowest = max(slowest, base)
		qty += it.Quantity
	}
	return slowest + (qty/4)*5
}

// EstimateDeliveryTime maps distance in miles to minutes on the road.
func EstimateDeliveryTime(distance float64, highTraffic bool) int {
	var minutes int
	switch {
	case distance <= 2:
		minutes = 15
	case distance <= 4:
		minutes = 25
	default:
		minutes = 35
	}
	if highTraffic {
		minutes += 10
	}
	return minutes
}

// IsHighTrafficTime reports whether at falls in a rush hour window.
func (e *Estimator) IsHighTrafficTime(at time.Time) bool {
	h := at.Hour()
	for _, w := range e.policy.TrafficWindow {
		if h >= w[0] && h <= w[1] {
			return true
		}
	}
	return false
}

// IsOpen reports whether the restaurant takes orders at the given time.
func (e *Estimator) IsOpen(at time.Time) bool {
	h := at.Hour()
	return h >= e.policy.OpenHour && h < e.policy.CloseHour
}

// CalculateEstimatedTimes estimates an order placed now.
func (e *Estimator) CalculateEstimatedTimes(items []model.LineItem, orderType model.OrderType, distance float64) EstimatedTimes {
	now := e.now()
	prep := CalculatePrepTime(items)
	traffic := e.IsHighTrafficTime(now)

	delivery := 0
	if orderType == model.OrderTypeDelivery {
		delivery = EstimateDeliveryTime(distance, traffic)
	}
	total := prep + delivery
	return EstimatedTimes{
		PrepMinutes:     prep,
		DeliveryMinutes: delivery,
		TotalMinutes:    total,
		CompletionTime:  now.Add(time.Duration(total) * time.Minute),
		HighTraffic:     traffic,
	}
}

// ValidateOrder applies the business rules and returns every violation.
func (e *Estimator) ValidateOrder(items []model.LineItem, orderType model.OrderType, customer model.CustomerInfo) []string {
	var errs []string
	if !e.IsOpen(e.now()) {
		errs = append(errs, MsgClosed)
	}
	if len(items) == 0 {
		errs = append(errs, MsgNoItems)
	}
	if orderType == model.OrderTypeDelivery {
		if customer.Address == "" {
			errs = append(errs, MsgNoAddress)
		}
		if customer.Phone == "" {
			errs = append(errs, MsgNoPhone)
		}
	}
	if customer.Name == "" || customer.Email == "" {
		errs = append(errs, MsgNoNameOrEmail)
	}
	return errs
}

// CheckDeliveryAvailability looks up zip in the delivery zone.
func (e *Estimator) CheckDeliveryAvailability(zip string) DeliveryAvailability {
	return DeliveryAvailability{
		Available:   slices.Contains(e.policy.DeliveryZips, strings.TrimSpace(zip)),
		MaxDistance: e.policy.MaxDistance,
		MinOrder:    e.policy.MinOrder,
		DeliveryFee: e.policy.DeliveryFee,
	}
}

// CheckDelivery returns the reasons a delivery order cannot be accepted.
func (e *Estimator) CheckDelivery(zip string, subtotal decimal.Decimal) []string {
	var errs []string
	avail := e.CheckDeliveryAvailability(zip)
	if !avail.Available {
		errs = append(errs, MsgOutsideZone)
	}
	if subtotal.LessThan(avail.MinOrder) {
		errs = append(errs, fmt.Sprintf(MsgBelowMinimum, "$"+avail.MinOrder.StringFixed(2)))
	}
	return errs
}

// AvailableTimeSlots lists slots from the next half hour plus the lead
// time for orderType, every interval, until closing today.
func (e *Estimator) AvailableTimeSlots(orderType model.OrderType) []TimeSlot {
	now := e.now()
	closing := time.Date(now.Year(), now.Month(), now.Day(), e.policy.CloseHour, 0, 0, 0, now.Location())

	interval := e.policy.SlotInterval
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	step := int(interval / time.Minute)

	start := now.Truncate(time.Minute)
	if rem := start.Minute() % step; rem != 0 {
		start = start.Add(time.Duration(step-rem) * time.Minute)
	}
	if orderType == model.OrderTypeDelivery {
		start = start.Add(e.policy.DeliveryLead)
	} else {
		start = start.Add(e.policy.PickupLead)
	}

	var slots []TimeSlot
	for cur := start; cur.Before(closing); cur = cur.Add(interval) {
		slots = append(slots, TimeSlot{Label: cur.Format("03:04 PM"), Value: cur})
	}
	return slots
}

// UpdateOrderStatus records a status transition.
func (e *Estimator) UpdateOrderStatus(orderNumber string, status model.OrderStatus, details map[string]string) (model.StatusUpdate, error) {
	if !slices.Contains(validStatuses, status) {
		return model.StatusUpdate{}, fmt.Errorf("status %q: %w", status, ErrInvalidStatus)
	}
	if details == nil {
		details = map[string]string{}
	}
	return model.StatusUpdate{
		OrderNumber: orderNumber,
		Status:      status,
		Timestamp:   e.now().UTC(),
		Details:     details,
		IsCompleted: status == model.StatusCompleted || status == model.StatusCancelled,
	}, nil
}
