package timing

import (
	"math/rand/v2"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/apperr"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/model"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, time.March, 9, hour, minute, 0, 0, time.UTC)
}

func estimatorAt(now time.Time) *Estimator {
	return New(DefaultPolicy(),
		WithClock(func() time.Time { return now }),
		WithRand(rand.New(rand.NewPCG(9, 9))),
	)
}

func lines(specs ...any) []model.LineItem {
	var out []model.LineItem
	for i := 0; i+1 < len(specs); i += 2 {
		out = append(out, model.LineItem{Category: specs[i].(model.Category), Quantity: specs[i+1].(int)})
	}
	return out
}

func TestCalculatePrepTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		items []model.LineItem
		want  int
	}{
		{name: "empty", items: nil, want: 0},
		{name: "single_beverage", items: lines(model.CategoryBeverages, 1), want: 3},
		{name: "slowest_wins", items: lines(model.CategoryStarters, 1, model.CategoryMainCourses, 1), want: 15},
		{name: "volume_four", items: lines(model.CategoryPasta, 4), want: 17},
		{name: "volume_seven", items: lines(model.CategoryPasta, 3, model.CategorySides, 4), want: 17},
		{name: "volume_eight", items: lines(model.CategoryDesserts, 8), want: 20},
		{name: "unknown_category", items: lines(model.Category("specials"), 1), want: 10},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CalculatePrepTime(tt.items))
		})
	}
}

func TestEstimateDeliveryTime(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 15, EstimateDeliveryTime(0, false))
	assert.Equal(t, 15, EstimateDeliveryTime(2, false))
	assert.Equal(t, 25, EstimateDeliveryTime(2.1, false))
	assert.Equal(t, 25, EstimateDeliveryTime(4, false))
	assert.Equal(t, 35, EstimateDeliveryTime(4.5, false))
	assert.Equal(t, 45, EstimateDeliveryTime(9, true))
	assert.Equal(t, 25, EstimateDeliveryTime(1, true))
}

func TestIsHighTrafficTime(t *testing.T) {
	t.Parallel()

	e := New(DefaultPolicy())
	for hour, want := range map[int]bool{10: false, 11: true, 14: true, 15: false, 16: false, 17: true, 19: true, 20: false} {
		assert.Equal(t, want, e.IsHighTrafficTime(at(hour, 30)), "hour %d", hour)
	}
}

func TestCalculateEstimatedTimes(t *testing.T) {
	t.Parallel()

	now := at(12, 0)
	e := estimatorAt(now)
	items := lines(model.CategoryMainCourses, 2)

	got := e.CalculateEstimatedTimes(items, model.OrderTypeDelivery, 3)
	assert.Equal(t, 15, got.PrepMinutes)
	assert.Equal(t, 35, got.DeliveryMinutes)
	assert.Equal(t, 50, got.TotalMinutes)
	assert.True(t, got.HighTraffic)
	assert.Equal(t, now.Add(50*time.Minute), got.CompletionTime)

	pickup := e.CalculateEstimatedTimes(items, model.OrderTypePickup, 3)
	assert.Equal(t, 0, pickup.DeliveryMinutes)
	assert.Equal(t, 15, pickup.TotalMinutes)
}

func TestValidateOrder(t *testing.T) {
	t.Parallel()

	full := model.CustomerInfo{Name: "Ada Lovelace", Email: "ada@example.com", Phone: "555", Address: "1 Way"}
	items := lines(model.CategoryPasta, 1)

	tests := []struct {
		name      string
		now       time.Time
		items     []model.LineItem
		orderType model.OrderType
		customer  model.CustomerInfo
		want      []string
	}{
		{name: "open_valid", now: at(12, 0), items: items, orderType: model.OrderTypeDelivery, customer: full},
		{name: "before_open", now: at(10, 59), items: items, orderType: model.OrderTypePickup, customer: full, want: []string{MsgClosed}},
		{name: "at_close", now: at(22, 0), items: items, orderType: model.OrderTypePickup, customer: full, want: []string{MsgClosed}},
		{name: "last_hour", now: at(21, 59), items: items, orderType: model.OrderTypePickup, customer: full},
		{name: "empty", now: at(12, 0), items: nil, orderType: model.OrderTypePickup, customer: full, want: []string{MsgNoItems}},
		{
			name:      "delivery_missing_contact",
			now:       at(12, 0),
			items:     items,
			orderType: model.OrderTypeDelivery,
			customer:  model.CustomerInfo{Name: "Ada", Email: "ada@example.com"},
			want:      []string{MsgNoAddress, MsgNoPhone},
		},
		{
			name:      "pickup_missing_name",
			now:       at(12, 0),
			items:     items,
			orderType: model.OrderTypePickup,
			customer:  model.CustomerInfo{Email: "ada@example.com"},
			want:      []string{MsgNoNameOrEmail},
		},
		{
			name:      "everything_wrong",
			now:       at(23, 0),
			orderType: model.OrderTypeDelivery,
			want:      []string{MsgClosed, MsgNoItems, MsgNoAddress, MsgNoPhone, MsgNoNameOrEmail},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := estimatorAt(tt.now).ValidateOrder(tt.items, tt.orderType, tt.customer)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateOrderNumber(t *testing.T) {
	t.Parallel()

	e := estimatorAt(at(12, 0))
	pattern := regexp.MustCompile(`^20240309-[1-9]\d{3}$`)
	for i := 0; i < 200; i++ {
		n := e.GenerateOrderNumber()
		require.Regexp(t, pattern, n)
	}
}

func TestCheckDeliveryAvailability(t *testing.T) {
	t.Parallel()

	e := New(DefaultPolicy())

	avail := e.CheckDeliveryAvailability("10003")
	assert.True(t, avail.Available)
	assert.Equal(t, 5.0, avail.MaxDistance)
	assert.True(t, avail.MinOrder.Equal(decimal.NewFromInt(15)))
	assert.True(t, avail.DeliveryFee.Equal(decimal.RequireFromString("5.99")))

	assert.False(t, e.CheckDeliveryAvailability("90210").Available)
	assert.False(t, e.CheckDeliveryAvailability("").Available)
}

func TestCheckDelivery(t *testing.T) {
	t.Parallel()

	e := New(DefaultPolicy())
	assert.Empty(t, e.CheckDelivery("10001", decimal.NewFromInt(15)))
	assert.Equal(t, []string{MsgOutsideZone}, e.CheckDelivery("90210", decimal.NewFromInt(40)))
	assert.Equal(t, []string{"Delivery orders must be at least $15.00"}, e.CheckDelivery("10001", decimal.RequireFromString("14.99")))
}

func TestAvailableTimeSlots(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		now       time.Time
		orderType model.OrderType
		want      []string
	}{
		{name: "delivery_evening", now: at(20, 10), orderType: model.OrderTypeDelivery, want: []string{"09:15 PM", "09:45 PM"}},
		{name: "pickup_evening", now: at(20, 10), orderType: model.OrderTypePickup, want: []string{"08:55 PM", "09:25 PM", "09:55 PM"}},
		{name: "on_the_half_hour", now: at(20, 30), orderType: model.OrderTypePickup, want: []string{"08:55 PM", "09:25 PM", "09:55 PM"}},
		{name: "on_the_hour", now: at(20, 0), orderType: model.OrderTypePickup, want: []string{"08:25 PM", "08:55 PM", "09:25 PM", "09:55 PM"}},
		{name: "too_late", now: at(21, 40), orderType: model.OrderTypeDelivery, want: nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got []string
			for _, s := range estimatorAt(tt.now).AvailableTimeSlots(tt.orderType) {
				got = append(got, s.Label)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAvailableTimeSlotsSpacing(t *testing.T) {
	t.Parallel()

	slots := estimatorAt(at(11, 7)).AvailableTimeSlots(model.OrderTypeDelivery)
	require.NotEmpty(t, slots)
	assert.Equal(t, at(12, 15), slots[0].Value)
	for i := 1; i < len(slots); i++ {
		assert.Equal(t, 30*time.Minute, slots[i].Value.Sub(slots[i-1].Value))
	}
	assert.True(t, slots[len(slots)-1].Value.Before(at(22, 0)))
}

func TestUpdateOrderStatus(t *testing.T) {
	t.Parallel()

	now := at(18, 45)
	e := estimatorAt(now)

	up, err := e.UpdateOrderStatus("20240309-1234", model.StatusOutForDelivery, map[string]string{"driver": "Sam"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusOutForDelivery, up.Status)
	assert.False(t, up.IsCompleted)
	assert.Equal(t, now, up.Timestamp)
	assert.Equal(t, "Sam", up.Details["driver"])

	for _, s := range []model.OrderStatus{model.StatusCompleted, model.StatusCancelled} {
		up, err := e.UpdateOrderStatus("20240309-1234", s, nil)
		require.NoError(t, err)
		assert.True(t, up.IsCompleted)
		assert.NotNil(t, up.Details)
	}

	_, err = e.UpdateOrderStatus("20240309-1234", "lost", nil)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Equal(t, "invalid_status", apperr.Kind(err))
}
