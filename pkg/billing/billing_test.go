package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appetiteclub/tableside/pkg/ticket"
)

func mustCoupon(t *testing.T, code string) *Coupon {
	t.Helper()
	c, err := Lookup(code)
	require.NoError(t, err)
	return c
}

func TestComputeWithoutCoupon(t *testing.T) {
	bill, err := Compute([]Line{{Price: 100, Quantity: 2}, {Price: 50, Quantity: 1}}, nil)
	require.NoError(t, err)

	assert.Equal(t, 250.0, bill.Subtotal)
	assert.Equal(t, 13.0, bill.Tax)
	assert.Equal(t, 6.0, bill.ServiceCharge)
	assert.Equal(t, 269.0, bill.Total)
	assert.Empty(t, bill.CouponCode)
}

func TestComputeRoundsEachStageIndependently(t *testing.T) {
	// 30 * 0.05 = 1.5 -> 2, 30 * 0.025 = 0.75 -> 1
	bill, err := Compute([]Line{{Price: 30, Quantity: 1}}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2.0, bill.Tax)
	assert.Equal(t, 1.0, bill.ServiceCharge)
	assert.Equal(t, 33.0, bill.Total)
}

func TestComputeCoupons(t *testing.T) {
	tests := []struct {
		name         string
		lines        []Line
		code         string
		wantErr      error
		wantDiscount float64
		wantTotal    float64
	}{
		{
			name:      "flatBelowMinimum",
			lines:     []Line{{Price: 200, Quantity: 2}},
			code:      "WELCOME100",
			wantErr:   ErrMinimumNotMet,
			wantTotal: 430,
		},
		{
			name:         "flatApplied",
			lines:        []Line{{Price: 320, Quantity: 2}},
			code:         "WELCOME100",
			wantDiscount: 100,
			wantTotal:    581,
		},
		{
			name:         "percentRounded",
			lines:        []Line{{Price: 250, Quantity: 1}},
			code:         "hdfc5",
			wantDiscount: 13,
			wantTotal:    255,
		},
		{
			name: "freeCheapestDessert",
			lines: []Line{
				{Name: "Beef Fry", Category: "Mains", Price: 380, Quantity: 1},
				{Name: "Palada Payasam", Category: "Dessert", Price: 180, Quantity: 1},
				{Name: "Kulfi", Category: "dessert", Price: 90, Quantity: 2},
			},
			code:         "SWEETTOOTH",
			wantDiscount: 90,
			wantTotal:    699,
		},
		{
			name:      "freeItemWithoutDessert",
			lines:     []Line{{Category: "Mains", Price: 380, Quantity: 1}},
			code:      "SWEETTOOTH",
			wantErr:   ErrNoEligibleItem,
			wantTotal: 409,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bill, err := Compute(tt.lines, mustCoupon(t, tt.code))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, bill.Discount)
				assert.Empty(t, bill.CouponCode)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, bill.CouponCode)
			}
			assert.Equal(t, tt.wantDiscount, bill.Discount)
			assert.Equal(t, tt.wantTotal, bill.Total)
		})
	}
}

func TestCouponRejectionLeavesBillUnchanged(t *testing.T) {
	lines := []Line{{Price: 400, Quantity: 1}}

	plain, err := Compute(lines, nil)
	require.NoError(t, err)

	withCoupon, err := Compute(lines, mustCoupon(t, "WELCOME100"))
	require.ErrorIs(t, err, ErrMinimumNotMet)
	assert.Equal(t, plain, withCoupon)
}

func TestDiscountNeverDropsBelowZero(t *testing.T) {
	c := Coupon{Code: "BIG", Kind: KindFlat, Value: 1000}
	bill, err := Compute([]Line{{Price: 100, Quantity: 1}}, &c)
	require.NoError(t, err)

	assert.Equal(t, 0.0, bill.EffectiveSubtotal)
	assert.Equal(t, 0.0, bill.Total)
}

func TestZeroDiscountRejected(t *testing.T) {
	c := Coupon{Code: "NOTHING", Kind: KindPercent, Value: 5}
	_, err := Discount([]Line{{Price: 4, Quantity: 1}}, c)
	assert.ErrorIs(t, err, ErrNoDiscount)
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("FREEFOOD")
	assert.ErrorIs(t, err, ErrUnknownCoupon)
}

func TestLinesFromTickets(t *testing.T) {
	food := ticket.NewFoodOrder(1, "A", []ticket.Item{{Name: "Beef Fry", Price: 380, Quantity: 1}})
	cancelled := ticket.NewFoodOrder(1, "A", []ticket.Item{{Name: "Butter Chicken", Price: 280, Quantity: 1}})
	cancelled.Status = "cancelled"

	lines := LinesFromTickets([]ticket.Ticket{*food, *cancelled})
	require.Len(t, lines, 1)
	assert.Equal(t, "Beef Fry", lines[0].Name)
}
