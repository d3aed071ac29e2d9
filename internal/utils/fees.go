package utils

import (
	"time"

	"rental-contracts-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fractional digits kept on every monetary value.
const MoneyPlaces = 3

var hundred = decimal.NewFromInt(100)

// Round3 rounds half away from zero to three places.
func Round3(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// PercentOf returns round3(amount * percent / 100).
func PercentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return Round3(amount.Mul(percent).Div(hundred))
}

type FeeInput struct {
	Subtotal   decimal.Decimal
	CouponCode string
	// Coupon is nil when CouponCode did not match a stored coupon.
	Coupon *domain.Coupon
	// FeePercent overrides DefaultPercent when set.
	FeePercent     *decimal.Decimal
	DefaultPercent decimal.Decimal
	At             time.Time
}

type FeeBreakdown struct {
	Subtotal            decimal.Decimal
	Discount            decimal.Decimal
	ServiceFee          decimal.Decimal
	Amount              decimal.Decimal
	EffectiveFeePercent decimal.Decimal
	CouponApplied       bool
	// Warning is domain.ErrInvalidCoupon when a coupon was requested but could not be applied.
	Warning error
}

// ComputeFees derives discount, service fee and amount from the subtotal.
// Discount and fee are both computed on the subtotal; the amount never goes
// below zero.
func ComputeFees(in FeeInput) FeeBreakdown {
	subtotal := Round3(in.Subtotal)
	out := FeeBreakdown{
		Subtotal:            subtotal,
		Discount:            decimal.Zero,
		EffectiveFeePercent: in.DefaultPercent,
	}

	if in.CouponCode != "" {
		if in.Coupon.Usable(in.At) {
			out.Discount = PercentOf(subtotal, in.Coupon.Percent)
			out.CouponApplied = true
		} else {
			out.Warning = domain.ErrInvalidCoupon
		}
	}

	if in.FeePercent != nil {
		out.EffectiveFeePercent = *in.FeePercent
	}
	out.ServiceFee = PercentOf(subtotal, out.EffectiveFeePercent)

	amount := Round3(subtotal.Sub(out.Discount).Add(out.ServiceFee))
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	out.Amount = amount
	return out
}
