// Package billing derives what a table owes from its line items.
//
// Tax and service charge are computed independently on the discounted
// subtotal and each is rounded half-up to a whole currency unit. Computing
// tax on an already rounded running total would drift by one unit on some
// carts, so callers must not reorder these steps.
package billing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/appetiteclub/tableside/pkg/ticket"
)

var (
	TaxRate     = decimal.RequireFromString("0.05")
	ServiceRate = decimal.RequireFromString("0.025")
)

type Line struct {
	Name     string  `json:"name"`
	Category string  `json:"category,omitempty"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type Bill struct {
	Subtotal          float64 `json:"subtotal"`
	Discount          float64 `json:"discount"`
	EffectiveSubtotal float64 `json:"effectiveSubtotal"`
	Tax               float64 `json:"tax"`
	ServiceCharge     float64 `json:"serviceCharge"`
	Total             float64 `json:"total"`
	CouponCode        string  `json:"couponCode,omitempty"`
}

// LinesFromTickets flattens the items of food tickets that are not cancelled.
func LinesFromTickets(tickets []ticket.Ticket) []Line {
	var lines []Line
	for _, t := range tickets {
		if !t.IsFood() || t.Status == "cancelled" {
			continue
		}
		for _, item := range t.Items {
			lines = append(lines, Line{
				Name:     item.Name,
				Category: item.Category,
				Price:    item.Price,
				Quantity: item.Quantity,
			})
		}
	}
	return lines
}

// Compute returns the bill for lines with at most one coupon applied. When
// the coupon is rejected the returned bill carries no discount and the error
// explains why.
func Compute(lines []Line, coupon *Coupon) (Bill, error) {
	subtotal := Subtotal(lines)

	discount := decimal.Zero
	var couponErr error
	if coupon != nil {
		discount, couponErr = Discount(lines, *coupon)
		if couponErr != nil {
			discount = decimal.Zero
		}
	}

	effective := subtotal.Sub(discount)
	if effective.IsNegative() {
		effective = decimal.Zero
	}

	tax := roundHalfUp(effective.Mul(TaxRate))
	service := roundHalfUp(effective.Mul(ServiceRate))

	bill := Bill{
		Subtotal:          subtotal.InexactFloat64(),
		Discount:          discount.InexactFloat64(),
		EffectiveSubtotal: effective.InexactFloat64(),
		Tax:               tax.InexactFloat64(),
		ServiceCharge:     service.InexactFloat64(),
		Total:             effective.Add(tax).Add(service).InexactFloat64(),
	}
	if coupon != nil && couponErr == nil {
		bill.CouponCode = coupon.Code
	}

	return bill, couponErr
}

// Subtotal sums price by quantity.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// Discount validates coupon against lines and returns the amount it takes off.
func Discount(lines []Line, coupon Coupon) (decimal.Decimal, error) {
	subtotal := Subtotal(lines)

	if subtotal.LessThan(decimal.NewFromFloat(coupon.MinOrder)) {
		return decimal.Zero, fmt.Errorf("%w: %s needs %.0f", ErrMinimumNotMet, coupon.Code, coupon.MinOrder)
	}

	var discount decimal.Decimal
	switch coupon.Kind {
	case KindFlat:
		discount = decimal.NewFromFloat(coupon.Value)
	case KindPercent:
		discount = roundHalfUp(subtotal.Mul(decimal.NewFromFloat(coupon.Value)).Div(decimal.NewFromInt(100)))
	case KindFreeItem:
		cheapest, ok := cheapestIn(lines, coupon.Category)
		if !ok {
			return decimal.Zero, fmt.Errorf("%w: %s requires a %s item", ErrNoEligibleItem, coupon.Code, coupon.Category)
		}
		discount = decimal.Min(cheapest, decimal.NewFromFloat(coupon.Value))
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported kind %q", ErrUnknownCoupon, coupon.Kind)
	}

	if !discount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNoDiscount, coupon.Code)
	}

	return discount, nil
}

func cheapestIn(lines []Line, category string) (decimal.Decimal, bool) {
	var cheapest decimal.Decimal
	found := false
	for _, l := range lines {
		if l.Quantity < 1 || !strings.EqualFold(l.Category, category) {
			continue
		}
		price := decimal.NewFromFloat(l.Price)
		if !found || price.LessThan(cheapest) {
			cheapest = price
			found = true
		}
	}
	return cheapest, found
}

// roundHalfUp rounds to a whole unit. Amounts are never negative here, so
// rounding half away from zero is half-up.
func roundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}
