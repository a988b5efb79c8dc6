// Package payment reconciles partial payments (cobros) against an order
// total and converts between stored net amounts and editable base amounts.
package payment

import (
	"time"

	"github.com/comandas-pos/pos/internal/enum"
	"github.com/comandas-pos/pos/internal/pricing"
	"github.com/shopspring/decimal"
)

// Payment is a stored cobro as returned by the pedidos service. Amount is
// the net charged; Discount and Surcharge are absolute values. BaseAmount is
// only present on payments recorded since the base started being persisted.
type Payment struct {
	ID           int64               `json:"id"`
	OrderID      int64               `json:"pedido"`
	Method       string              `json:"metodo_cobro"`
	MethodID     *int64              `json:"id_metodo_cobro,omitempty"`
	Amount       decimal.Decimal     `json:"monto"`
	BaseAmount   decimal.NullDecimal `json:"monto_base"`
	Currency     string              `json:"moneda"`
	Discount     decimal.Decimal     `json:"descuento"`
	Surcharge    decimal.Decimal     `json:"recargo"`
	DiscountPct  decimal.Decimal     `json:"descuento_porcentual"`
	SurchargePct decimal.Decimal     `json:"recargo_porcentual"`
	Bank         string              `json:"banco,omitempty"`
	Reference    string              `json:"referencia,omitempty"`
	Installments int                 `json:"cuotas,omitempty"`
	Status       string              `json:"estado"`
	CreatedAt    time.Time           `json:"fecha_cobro"`

	// Set by the service on create/list responses.
	Remaining decimal.NullDecimal `json:"monto_restante"`
	FullyPaid bool                `json:"pagado_completo"`
}

// Active reports whether the payment counts towards the order.
func (p Payment) Active() bool {
	return p.Status != enum.PaymentStatusCancelled
}

// Ledger is the payment state of one order.
type Ledger struct {
	OrderTotal decimal.Decimal
	Payments   []Payment
}

// NewLedger creates a Ledger.
func NewLedger(orderTotal decimal.Decimal, payments []Payment) Ledger {
	return Ledger{OrderTotal: orderTotal, Payments: payments}
}

// TotalPaid sums the net amount of active payments.
func (l Ledger) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range l.Payments {
		if p.Active() {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// BalanceDue is the unpaid part of the order, never negative.
func (l Ledger) BalanceDue() decimal.Decimal {
	return pricing.Max0(l.OrderTotal.Sub(l.TotalPaid()))
}

// IsFullyPaid reports whether nothing remains to be paid.
func (l Ledger) IsFullyPaid() bool {
	return !l.BalanceDue().IsPositive()
}

// CanAddPayment reports whether a new payment may be created.
func (l Ledger) CanAddPayment() bool {
	return !l.IsFullyPaid()
}
