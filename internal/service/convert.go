package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/comandas-pos/pos/internal/database"
	"github.com/comandas-pos/pos/internal/order"
	"github.com/comandas-pos/pos/internal/payment"
	"github.com/comandas-pos/pos/internal/pricing"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func numericToNullDecimal(n pgtype.Numeric) decimal.NullDecimal {
	if !n.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(numericToDecimal(n))
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

// quantityToNumeric keeps three decimals so fractional quantities survive.
func quantityToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(3))
	return n
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (pgtype.Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return pgtype.Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return pgtype.Date{Time: t, Valid: true}, nil
}

func formatDate(d pgtype.Date) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(time.DateOnly)
}

// parseClock accepts "HH:MM" or "HH:MM:SS". Empty means no time.
func parseClock(s *string) (pgtype.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return pgtype.Time{}, nil
	}
	v := strings.TrimSpace(*s)
	t, err := time.Parse("15:04", v)
	if err != nil {
		t, err = time.Parse(time.TimeOnly, v)
		if err != nil {
			return pgtype.Time{}, ErrInvalidTime
		}
	}
	us := int64(t.Hour())*int64(time.Hour/time.Microsecond) +
		int64(t.Minute())*int64(time.Minute/time.Microsecond) +
		int64(t.Second())*int64(time.Second/time.Microsecond)
	return pgtype.Time{Microseconds: us, Valid: true}, nil
}

func formatClock(t pgtype.Time) *string {
	if !t.Valid {
		return nil
	}
	d := time.Duration(t.Microseconds) * time.Microsecond
	s := fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
	return &s
}

func uuidToPg(s string) (pgtype.UUID, error) {
	if s == "" {
		return pgtype.UUID{}, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}, err
	}
	return pgtype.UUID{Bytes: id, Valid: true}, nil
}

func int8OrNull(v int64) pgtype.Int8 {
	if v == 0 {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: v, Valid: true}
}

func int8Ptr(v pgtype.Int8) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

func ptrToInt8(p *int64) pgtype.Int8 {
	if p == nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: *p, Valid: true}
}

// toOrder builds the wire order from its row, its lines and the sum of its
// active payments.
func toOrder(o database.Order, items []database.OrderItem, paid decimal.Decimal) order.Order {
	total := numericToDecimal(o.Total)
	out := order.Order{
		ID:            o.ID,
		Number:        int(o.Number),
		Date:          formatDate(o.Date),
		Customer:      o.Customer,
		RequestedTime: formatClock(o.RequestedTime),
		Status:        o.Status,
		Notified:      o.Notified,
		Paid:          o.Paid,
		Delivered:     o.Delivered,
		Total:         total,
		TotalPaid:     paid,
		BalanceDue:    pricing.Max0(total.Sub(paid)),
		Items:         make([]order.Item, 0, len(items)),
	}
	for _, it := range items {
		out.Items = append(out.Items, order.Item{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    numericToDecimal(it.Quantity),
			UnitPrice:   numericToDecimal(it.UnitPrice),
			Notes:       it.Notes,
			Subtotal:    numericToDecimal(it.Subtotal),
		})
	}
	return out
}

func toPayment(p database.Payment) payment.Payment {
	out := payment.Payment{
		ID:           p.ID,
		OrderID:      p.OrderID,
		Method:       p.Method,
		MethodID:     int8Ptr(p.MethodID),
		Amount:       numericToDecimal(p.Amount),
		BaseAmount:   numericToNullDecimal(p.BaseAmount),
		Currency:     p.Currency,
		Discount:     numericToDecimal(p.Discount),
		Surcharge:    numericToDecimal(p.Surcharge),
		DiscountPct:  numericToDecimal(p.DiscountPct),
		SurchargePct: numericToDecimal(p.SurchargePct),
		Bank:         p.Bank,
		Reference:    p.Reference,
		Installments: int(p.Installments),
		Status:       p.Status,
	}
	if p.CreatedAt.Valid {
		out.CreatedAt = p.CreatedAt.Time
	}
	return out
}
