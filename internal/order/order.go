// Package order places orders: it validates the checkout and the delivery
// zone, authorizes payment and estimates timing concurrently, then records
// the confirmation and takes the ordered lines out of the cart.
package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/apperr"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/cart"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/checkout"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/model"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/pricing"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/service/payment"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/service/pool"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/storage"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/timing"
)

var (
	ErrSubmissionInFlight = apperr.New("submission_in_flight", "an order is already being submitted")
	ErrEmptyCart          = apperr.New("empty_cart", "cart is empty")
	ErrNoConfirmation     = apperr.New("no_confirmation", "no order confirmation found")
)

// NoticeConfirmationNotSaved is added to a successful result whose
// confirmation record could not be written.
const NoticeConfirmationNotSaved = "Your order was placed, but the confirmation could not be saved. Please note your order number."

// Authorizer charges a card.
type Authorizer interface {
	Authorize(ctx context.Context, req model.PaymentRequest) (model.PaymentResult, error)
}

// SubmitRequest is one checkout attempt.
type SubmitRequest struct {
	Form          model.CheckoutForm
	DistanceMiles float64 // zero uses the service default
}

// Service submits the cart as an order.
type Service struct {
	cart     *cart.Store
	calc     *pricing.Calculator
	payments Authorizer
	est      *timing.Estimator
	session  storage.Store
	guard    *pool.Pool
	logger   *zap.Logger

	defaultDistance float64
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaultDistance sets the distance assumed when a request has none.
func WithDefaultDistance(miles float64) Option {
	return func(s *Service) { s.defaultDistance = miles }
}

// New creates a Service. It panics on a nil collaborator.
func New(c *cart.Store, calc *pricing.Calculator, payments Authorizer, est *timing.Estimator, session storage.Store, opts ...Option) *Service {
	if c == nil || calc == nil || payments == nil || est == nil || session == nil {
		panic("order.New: nil dependency")
	}
	s := &Service{
		cart:     c,
		calc:     calc,
		payments: payments,
		est:      est,
		session:  session,
		guard:    pool.New(1),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit places the current cart as an order. Form violations, order rule
// violations and declines are reported in the result, not as errors.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (model.SubmitResult, error) {
	if !s.guard.TryAcquire() {
		return model.SubmitResult{}, ErrSubmissionInFlight
	}
	defer s.guard.Release()

	items := s.cart.Items()
	if len(items) == 0 {
		return model.SubmitResult{}, ErrEmptyCart
	}

	form := req.Form
	if fe := checkout.Validate(form); !fe.Valid() {
		return model.SubmitResult{Status: model.SubmitInvalid, FieldErrors: fe}, nil
	}
	breakdown := s.calc.Breakdown(items, form.OrderType)
	if errs := s.ruleViolations(items, form, breakdown); len(errs) > 0 {
		return model.SubmitResult{Status: model.SubmitRejected, OrderErrors: errs}, nil
	}

	distance := req.DistanceMiles
	if distance <= 0 {
		distance = s.defaultDistance
	}
	charged := breakdown.Rounded()

	var (
		payRes *model.PaymentResult
		times  timing.EstimatedTimes
	)

	var steps []Step
	if form.PaymentMethod == model.PaymentCreditCard {
		steps = append(steps, Step{Name: "payment", Run: func(ctx context.Context) error {
			res, err := s.payments.Authorize(ctx, model.PaymentRequest{
				Amount:     charged.Total,
				CardNumber: form.CardNumber,
				Expiry:     form.CardExpiry,
				CVC:        form.CardCVC,
				NameOnCard: form.NameOnCard,
			})
			if err != nil {
				return err
			}
			payRes = &res
			return payment.ResultError(res)
		}})
	}
	steps = append(steps, Step{Name: "estimate", Run: func(context.Context) error {
		times = s.est.CalculateEstimatedTimes(items, form.OrderType, distance)
		return nil
	}})

	results, err := NewPipeline(steps...).Run(ctx)
	if err != nil {
		res := model.SubmitResult{Steps: results, Payment: payRes}
		if payRes != nil && !payRes.Success {
			res.Status = model.SubmitDeclined
			s.logger.Info("order declined", zap.String("reason", payRes.Error))
			return res, nil
		}
		return res, fmt.Errorf("submit order: %w", err)
	}

	conf := s.confirmation(form, items, charged, times, payRes)
	out := model.SubmitResult{
		Status:       model.SubmitOK,
		Steps:        results,
		Payment:      payRes,
		Confirmation: &conf,
	}

	if err := s.saveConfirmation(conf); err != nil {
		s.logger.Warn("confirmation not saved", zap.String("order_number", conf.OrderNumber), zap.Error(err))
		out.Notices = append(out.Notices, NoticeConfirmationNotSaved)
	}
	s.cart.RemoveOrdered(items)

	s.logger.Info("order placed",
		zap.String("order_number", conf.OrderNumber),
		zap.String("order_type", string(conf.OrderType)),
		zap.String("total", conf.Total.StringFixed(2)),
	)
	return out, nil
}

// ruleViolations applies the business rules and, for delivery, the zone
// and minimum order. All of them run before any payment is attempted.
func (s *Service) ruleViolations(items []model.LineItem, form model.CheckoutForm, b pricing.Breakdown) []string {
	errs := s.est.ValidateOrder(items, form.OrderType, form.CustomerInfo())
	if form.OrderType == model.OrderTypeDelivery {
		errs = append(errs, s.est.CheckDelivery(form.ZipCode, b.Subtotal)...)
	}
	return errs
}

func (s *Service) confirmation(form model.CheckoutForm, items []model.LineItem, b pricing.Breakdown, times timing.EstimatedTimes, pay *model.PaymentResult) model.OrderConfirmation {
	now := s.est.Now()
	completion := times.CompletionTime
	if form.PreferredTime == model.PreferredScheduled {
		if at, err := scheduledAt(now, form.ScheduledTime); err == nil {
			completion = at
		}
	}

	conf := model.OrderConfirmation{
		OrderNumber:             s.est.GenerateOrderNumber(),
		OrderTime:               now,
		EstimatedCompletionTime: completion,
		CustomerName:            form.CustomerName(),
		OrderType:               form.OrderType,
		PreferredTime:           form.PreferredTime,
		PrepMinutes:             times.PrepMinutes,
		DeliveryMinutes:         times.DeliveryMinutes,
		Items:                   items,
		Subtotal:                b.Subtotal,
		Tax:                     b.Tax,
		DeliveryFee:             b.DeliveryFee,
		Total:                   b.Total,
		PaymentMethod:           form.PaymentMethod,
		SpecialInstructions:     form.SpecialInstructions,
	}
	if pay != nil {
		conf.PaymentTransactionID = pay.TransactionID
		conf.CardLast4 = pay.Last4
	}
	return conf
}

// scheduledAt places an HH:MM clock time on the day of now.
func scheduledAt(now time.Time, clock string) (time.Time, error) {
	t, err := time.ParseInLocation("15:04", clock, now.Location())
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location()), nil
}

func (s *Service) saveConfirmation(conf model.OrderConfirmation) error {
	data, err := json.Marshal(conf)
	if err != nil {
		return err
	}
	return s.session.Set(storage.KeyOrderConfirmation, string(data))
}

// LoadConfirmation reads the last saved confirmation from store.
func LoadConfirmation(store storage.Store) (model.OrderConfirmation, error) {
	raw, err := store.Get(storage.KeyOrderConfirmation)
	if errors.Is(err, storage.ErrNotFound) {
		return model.OrderConfirmation{}, ErrNoConfirmation
	}
	if err != nil {
		return model.OrderConfirmation{}, fmt.Errorf("load confirmation: %w", err)
	}
	var conf model.OrderConfirmation
	if err := json.Unmarshal([]byte(raw), &conf); err != nil {
		return model.OrderConfirmation{}, fmt.Errorf("load confirmation: %w", err)
	}
	return conf, nil
}

// LoadConfirmation reads back the confirmation this service last saved.
func (s *Service) LoadConfirmation() (model.OrderConfirmation, error) {
	return LoadConfirmation(s.session)
}

// InFlight reports whether a submission is running.
func (s *Service) InFlight() bool { return s.guard.InUse() > 0 }
