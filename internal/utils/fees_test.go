package utils

import (
	"testing"
	"time"

	"rental-contracts-backend/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func pct(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestComputeFees(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	coupon := &domain.Coupon{Code: "SAVE10", Percent: decimal.NewFromInt(10), Active: true}

	t.Run("Coupon and fee", func(t *testing.T) {
		fb := ComputeFees(FeeInput{
			Subtotal:       decimal.NewFromInt(1200),
			CouponCode:     "SAVE10",
			Coupon:         coupon,
			FeePercent:     pct("5"),
			DefaultPercent: decimal.NewFromInt(3),
			At:             now,
		})
		assert.Equal(t, "120.000", fb.Discount.StringFixed(3))
		assert.Equal(t, "60.000", fb.ServiceFee.StringFixed(3))
		assert.Equal(t, "1140.000", fb.Amount.StringFixed(3))
		assert.True(t, fb.CouponApplied)
		assert.NoError(t, fb.Warning)
	})

	t.Run("Default fee percent", func(t *testing.T) {
		fb := ComputeFees(FeeInput{Subtotal: decimal.NewFromInt(1000), DefaultPercent: decimal.RequireFromString("2.5"), At: now})
		assert.Equal(t, "25.000", fb.ServiceFee.StringFixed(3))
		assert.Equal(t, "2.5", fb.EffectiveFeePercent.String())
		assert.Equal(t, "1025.000", fb.Amount.StringFixed(3))
	})

	t.Run("Unknown coupon warns", func(t *testing.T) {
		fb := ComputeFees(FeeInput{Subtotal: decimal.NewFromInt(100), CouponCode: "BOGUS", DefaultPercent: decimal.Zero, At: now})
		assert.ErrorIs(t, fb.Warning, domain.ErrInvalidCoupon)
		assert.True(t, fb.Discount.IsZero())
		assert.Equal(t, "100.000", fb.Amount.StringFixed(3))
	})

	t.Run("Expired coupon warns", func(t *testing.T) {
		expired := now.Add(-time.Minute)
		c := &domain.Coupon{Code: "OLD", Percent: decimal.NewFromInt(50), Active: true, ExpiresAt: &expired}
		fb := ComputeFees(FeeInput{Subtotal: decimal.NewFromInt(100), CouponCode: "OLD", Coupon: c, DefaultPercent: decimal.Zero, At: now})
		assert.ErrorIs(t, fb.Warning, domain.ErrInvalidCoupon)
		assert.False(t, fb.CouponApplied)
	})

	t.Run("Discount larger than subtotal clamps to zero", func(t *testing.T) {
		c := &domain.Coupon{Code: "ALL", Percent: decimal.NewFromInt(150), Active: true}
		fb := ComputeFees(FeeInput{Subtotal: decimal.NewFromInt(100), CouponCode: "ALL", Coupon: c, FeePercent: pct("5"), At: now})
		assert.True(t, fb.Amount.IsZero())
	})

	t.Run("Half up rounding", func(t *testing.T) {
		fb := ComputeFees(FeeInput{Subtotal: decimal.RequireFromString("0.01"), FeePercent: pct("5"), At: now})
		// 0.01 * 5% = 0.0005 -> 0.001
		assert.Equal(t, "0.001", fb.ServiceFee.StringFixed(3))
	})
}

func TestComputeFees_Invariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		subtotal := decimal.New(rapid.Int64Range(0, 100_000_000).Draw(t, "subtotal_thousandths"), -3)
		couponPct := decimal.New(rapid.Int64Range(0, 20_000).Draw(t, "coupon_hundredths"), -2)
		feePct := decimal.New(rapid.Int64Range(0, 5_000).Draw(t, "fee_hundredths"), -2)
		withCoupon := rapid.Bool().Draw(t, "with_coupon")

		in := FeeInput{Subtotal: subtotal, FeePercent: &feePct, At: time.Now()}
		if withCoupon {
			in.CouponCode = "X"
			in.Coupon = &domain.Coupon{Code: "X", Percent: couponPct, Active: true}
		}
		fb := ComputeFees(in)

		if fb.Amount.IsNegative() {
			t.Fatalf("negative amount %s", fb.Amount)
		}
		want := Round3(subtotal.Sub(fb.Discount).Add(fb.ServiceFee))
		if want.IsNegative() {
			want = decimal.Zero
		}
		if !fb.Amount.Equal(want) {
			t.Fatalf("amount %s != round3(%s - %s + %s)", fb.Amount, subtotal, fb.Discount, fb.ServiceFee)
		}
		if !fb.Discount.Equal(Round3(fb.Discount)) {
			t.Fatalf("discount %s has more than three places", fb.Discount)
		}
		if !fb.ServiceFee.Equal(Round3(fb.ServiceFee)) {
			t.Fatalf("service fee %s has more than three places", fb.ServiceFee)
		}
		again := ComputeFees(in)
		if !again.Amount.Equal(fb.Amount) {
			t.Fatalf("not deterministic: %s vs %s", again.Amount, fb.Amount)
		}
	})
}
