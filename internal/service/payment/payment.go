// Package payment simulates a card processor.
//
// Authorize validates card details, waits a simulated network delay and
// either approves or declines. Declines are ordinary results; the only
// errors Authorize returns come from the context.
package payment

import (
	"context"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/apperr"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/model"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/service/pool"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/service/shared"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/service/tracker"
)

var (
	// ErrDeclined classifies a declined authorization for callers that turn
	// results into errors.
	ErrDeclined = apperr.New("payment_declined", "payment declined")
	// ErrInvalidCard classifies a result that failed card validation.
	ErrInvalidCard = apperr.New("invalid_card", "invalid card details")
)

// Messages carried in PaymentResult.Error.
const (
	MsgInvalidNumber = "Invalid card number"
	MsgInvalidExpiry = "Invalid expiry date"
	MsgInvalidCVC    = "Invalid CVC"
	MsgDeclined      = "Your card was declined. Please try a different payment method."

	DeclineCardDeclined = "card_declined"
)

var (
	declineAmount = decimal.RequireFromString("11.11")
	amountEpsilon = decimal.RequireFromString("0.001")
)

var (
	reCardDigits = regexp.MustCompile(`^\d{15,16}$`)
	reExpiry     = regexp.MustCompile(`^(0[1-9]|1[0-2])/(\d{2})$`)
	reCVC        = regexp.MustCompile(`^\d{3,4}$`)

	reVisa       = regexp.MustCompile(`^4\d{12}(\d{3})?$`)
	reMastercard = regexp.MustCompile(`^5[1-5]\d{14}$`)
	reAmex       = regexp.MustCompile(`^3[47]\d{13}$`)
	reDiscover   = regexp.MustCompile(`^6(?:011|5\d{2})\d{12}$`)
)

// Config holds the simulated processor latencies and how many
// authorizations it processes at once.
type Config struct {
	ApproveDelay  time.Duration
	DeclineDelay  time.Duration
	MaxConcurrent int
}

// DefaultConfig returns the processor's usual latencies.
func DefaultConfig() Config {
	return Config{
		ApproveDelay:  1500 * time.Millisecond,
		DeclineDelay:  2000 * time.Millisecond,
		MaxConcurrent: 4,
	}
}

// Simulator is a fake payment processor. It is safe for concurrent use
// as long as the injected random source is.
type Simulator struct {
	cfg    Config
	slots  *pool.Pool
	rnd    func(n int) int
	now    func() time.Time
	tr     *tracker.Tracker
	logger *zap.Logger
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithRand sets the source used for transaction ids.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) { s.rnd = r.IntN }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// WithTracker counts in-flight authorizations.
func WithTracker(tr *tracker.Tracker) Option {
	return func(s *Simulator) { s.tr = tr }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a Simulator. Zero values in cfg fall back to DefaultConfig;
// negative delays disable the wait.
func New(cfg Config, opts ...Option) *Simulator {
	def := DefaultConfig()
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	s := &Simulator{
		cfg: Config{
			ApproveDelay:  shared.Delay(cfg.ApproveDelay, def.ApproveDelay),
			DeclineDelay:  shared.Delay(cfg.DeclineDelay, def.DeclineDelay),
			MaxConcurrent: cfg.MaxConcurrent,
		},
		slots:  pool.New(cfg.MaxConcurrent),
		rnd:    rand.IntN,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authorize runs one simulated authorization. When MaxConcurrent
// authorizations are already running it waits for a slot or for ctx.
func (s *Simulator) Authorize(ctx context.Context, req model.PaymentRequest) (model.PaymentResult, error) {
	if err := s.slots.Acquire(ctx); err != nil {
		return model.PaymentResult{}, fmt.Errorf("payment: %w", err)
	}
	defer s.slots.Release()

	if s.tr != nil {
		done := s.tr.Start()
		defer done()
	}

	number := stripSpace(req.CardNumber)
	now := s.now()

	fail := func(msg string) model.PaymentResult {
		return model.PaymentResult{Success: false, Error: msg, Amount: req.Amount, Timestamp: now}
	}
	switch {
	case !ValidateCardNumber(req.CardNumber):
		return fail(MsgInvalidNumber), nil
	case !ValidateExpiry(req.Expiry, now):
		return fail(MsgInvalidExpiry), nil
	case !ValidateCVC(req.CVC):
		return fail(MsgInvalidCVC), nil
	}

	if isDeclineTrigger(req.Amount, number) {
		if err := shared.SleepOrDone(ctx, s.cfg.DeclineDelay); err != nil {
			return model.PaymentResult{}, fmt.Errorf("payment: %w", err)
		}
		s.logger.Info("payment declined",
			zap.String("amount", req.Amount.StringFixed(2)),
			zap.String("last4", last4(number)),
		)
		return model.PaymentResult{
			Success:     false,
			DeclineCode: DeclineCardDeclined,
			Error:       MsgDeclined,
			Amount:      req.Amount,
			Timestamp:   s.now(),
		}, nil
	}

	if err := shared.SleepOrDone(ctx, s.cfg.ApproveDelay); err != nil {
		return model.PaymentResult{}, fmt.Errorf("payment: %w", err)
	}
	done := s.now()
	res := model.PaymentResult{
		Success:       true,
		TransactionID: s.transactionID(done),
		CardType:      DetectCardType(number),
		Last4:         last4(number),
		Amount:        req.Amount,
		Timestamp:     done,
	}
	s.logger.Info("payment approved",
		zap.String("transaction_id", res.TransactionID),
		zap.String("card_type", string(res.CardType)),
	)
	return res, nil
}

// ResultError converts a failed result into a kinded error; nil on success.
func ResultError(res model.PaymentResult) error {
	switch {
	case res.Success:
		return nil
	case res.DeclineCode != "":
		return fmt.Errorf("payment: %s: %w", res.DeclineCode, ErrDeclined)
	default:
		return fmt.Errorf("payment: %s: %w", res.Error, ErrInvalidCard)
	}
}

func isDeclineTrigger(amount decimal.Decimal, number string) bool {
	return amount.Sub(declineAmount).Abs().LessThan(amountEpsilon) || strings.HasSuffix(number, "1111")
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// transactionID is "tr_", nine random base-36 characters and the last four
// digits of the millisecond clock.
func (s *Simulator) transactionID(at time.Time) string {
	var b strings.Builder
	b.WriteString("tr_")
	for i := 0; i < 9; i++ {
		b.WriteByte(base36[s.rnd(len(base36))])
	}
	ms := strconv.FormatInt(at.UnixMilli(), 10)
	if len(ms) > 4 {
		ms = ms[len(ms)-4:]
	}
	b.WriteString(ms)
	return b.String()
}

// ValidateCardNumber reports whether number, ignoring whitespace, is 15 or 16
// digits and passes the Luhn checksum.
func ValidateCardNumber(number string) bool {
	digits := stripSpace(number)
	if !reCardDigits.MatchString(digits) {
		return false
	}
	return luhn(digits)
}

func luhn(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// ValidateExpiry reports whether expiry is MM/YY and not before the month of now.
// A card is valid through the last day of its expiry month.
func ValidateExpiry(expiry string, now time.Time) bool {
	m := reExpiry.FindStringSubmatch(expiry)
	if m == nil {
		return false
	}
	month, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[2])
	year += 2000

	cy, cm := now.Year(), int(now.Month())
	return year > cy || (year == cy && month >= cm)
}

// ValidateCVC reports whether cvc is 3 or 4 digits.
func ValidateCVC(cvc string) bool {
	return reCVC.MatchString(cvc)
}

// DetectCardType classifies a card number by network prefix.
func DetectCardType(number string) model.CardType {
	digits := stripSpace(number)
	switch {
	case reVisa.MatchString(digits):
		return model.CardVisa
	case reMastercard.MatchString(digits):
		return model.CardMastercard
	case reAmex.MatchString(digits):
		return model.CardAmex
	case reDiscover.MatchString(digits):
		return model.CardDiscover
	default:
		return model.CardUnknown
	}
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func last4(digits string) string {
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}
