// Package pricing holds the money arithmetic shared by the order builder,
// the payment engine and the pedidos service.
package pricing

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)
)

// Round2 rounds to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// RoundQuantity rounds a line quantity to the three decimals it is stored with.
func RoundQuantity(q decimal.Decimal) decimal.Decimal {
	return q.Round(3)
}

// LineSubtotal returns round2(quantity * unitPrice).
func LineSubtotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return Round2(quantity.Mul(unitPrice))
}

// ClampPct bounds a percentage to [0, 100].
func ClampPct(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

// Breakdown is the result of applying percentage discount and surcharge to a
// base amount.
type Breakdown struct {
	Base         decimal.Decimal
	DiscountPct  decimal.Decimal
	SurchargePct decimal.Decimal
	Discount     decimal.Decimal // absolute
	Surcharge    decimal.Decimal // absolute
	Net          decimal.Decimal
}

// Forward computes net = base - base*d/100 + base*s/100.
// Absolute values and the net are rounded to cents.
func Forward(base, discountPct, surchargePct decimal.Decimal) Breakdown {
	discount := Round2(base.Mul(discountPct).Div(hundred))
	surcharge := Round2(base.Mul(surchargePct).Div(hundred))
	return Breakdown{
		Base:         base,
		DiscountPct:  discountPct,
		SurchargePct: surchargePct,
		Discount:     discount,
		Surcharge:    surcharge,
		Net:          Round2(base.Sub(discount).Add(surcharge)),
	}
}

// Inverse reconstructs base and percentages from a stored net amount plus
// absolute discount and surcharge. It is exact only when at most one of
// discount and surcharge is non-zero; exact reports that condition.
func Inverse(net, discount, surcharge decimal.Decimal) (b Breakdown, exact bool) {
	base := net.Add(discount).Sub(surcharge)
	b = Breakdown{
		Base:         base,
		DiscountPct:  decimal.Zero,
		SurchargePct: decimal.Zero,
		Discount:     discount,
		Surcharge:    surcharge,
		Net:          net,
	}
	if base.IsPositive() {
		if discount.IsPositive() {
			b.DiscountPct = Round2(discount.Div(base).Mul(hundred))
		}
		if surcharge.IsPositive() {
			b.SurchargePct = Round2(surcharge.Div(base).Mul(hundred))
		}
	}
	exact = discount.IsZero() || surcharge.IsZero()
	return b, exact
}

// Max0 floors d at zero.
func Max0(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
