package billing

import (
	"errors"
	"fmt"
	"strings"
)

type CouponKind string

const (
	KindFlat     CouponKind = "flat"
	KindPercent  CouponKind = "percent"
	KindFreeItem CouponKind = "free_item"
)

var (
	ErrUnknownCoupon  = errors.New("unknown coupon code")
	ErrMinimumNotMet  = errors.New("order does not reach the coupon minimum")
	ErrNoEligibleItem = errors.New("no item qualifies for this coupon")
	ErrNoDiscount     = errors.New("coupon yields no discount")
)

// Coupon describes one promotion. Value is the flat amount, the percentage,
// or the cap of the free item depending on Kind.
type Coupon struct {
	Code        string     `json:"code" yaml:"code"`
	Kind        CouponKind `json:"kind" yaml:"kind"`
	Value       float64    `json:"value" yaml:"value"`
	MinOrder    float64    `json:"minOrder" yaml:"min_order"`
	Category    string     `json:"category,omitempty" yaml:"category,omitempty"`
	Description string     `json:"description" yaml:"description"`
}

// Catalog is the set of coupons accepted at the table.
var Catalog = []Coupon{
	{
		Code:        "WELCOME100",
		Kind:        KindFlat,
		Value:       100,
		MinOrder:    500,
		Description: "Flat 100 off on orders above 500",
	},
	{
		Code:        "SWEETTOOTH",
		Kind:        KindFreeItem,
		Value:       180,
		MinOrder:    300,
		Category:    "Dessert",
		Description: "One dessert on the house with orders above 300",
	},
	{
		Code:        "HDFC5",
		Kind:        KindPercent,
		Value:       5,
		MinOrder:    0,
		Description: "5% off with HDFC cards",
	},
}

// Lookup finds a coupon by code, ignoring case and surrounding spaces.
func Lookup(code string) (*Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range Catalog {
		if c.Code == code {
			found := c
			return &found, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCoupon, code)
}
