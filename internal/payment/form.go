package payment

import (
	"github.com/comandas-pos/pos/internal/enum"
	"github.com/comandas-pos/pos/internal/fielderr"
	"github.com/comandas-pos/pos/internal/order"
	"github.com/comandas-pos/pos/internal/pricing"
	"github.com/shopspring/decimal"
)

// SubmitPayload is the body of POST /api/pedidos/cobros/ and
// PUT /api/pedidos/cobros/{id}/. Amount is the base amount; Discount and
// Surcharge are percentages of it. The server computes the net.
type SubmitPayload struct {
	OrderID      int64           `json:"pedido"`
	Method       string          `json:"metodo_cobro"`
	MethodID     *int64          `json:"id_metodo_cobro,omitempty"`
	Amount       decimal.Decimal `json:"monto"`
	DiscountPct  decimal.Decimal `json:"descuento"`
	SurchargePct decimal.Decimal `json:"recargo"`
	Currency     string          `json:"moneda"`
	Bank         string          `json:"banco,omitempty"`
	Reference    string          `json:"referencia,omitempty"`
	Installments int             `json:"cuotas,omitempty"`
	Status       string          `json:"estado,omitempty"`
}

// Details rebuilds the method variant from the payload, validating it.
func (p SubmitPayload) Details() (Details, error) {
	return DetailsFor(p.Method, p.Bank, p.Reference, p.Installments)
}

// Normalize drops the fields that do not belong to the payment method.
func (p SubmitPayload) Normalize() (SubmitPayload, error) {
	d, err := p.Details()
	if err != nil {
		return SubmitPayload{}, err
	}
	out := p
	out.Method = d.Method()
	out.Bank, out.Reference, out.Installments = "", "", 0
	d.apply(&out)
	return out, nil
}

// Validate checks the payload the same way BuildSubmitPayload does. The
// pedidos service runs it on every request body.
func (p SubmitPayload) Validate() error {
	if p.OrderID <= 0 {
		return fielderr.New("pedido", "Pedido inválido.")
	}
	if !pricing.Round2(p.Amount).IsPositive() {
		return fielderr.New("monto", "El monto es requerido y debe ser mayor a cero.")
	}
	if p.DiscountPct.IsNegative() || p.DiscountPct.GreaterThan(decimal.NewFromInt(100)) {
		return fielderr.New("descuento", "El descuento debe estar entre 0 y 100.")
	}
	if p.SurchargePct.IsNegative() || p.SurchargePct.GreaterThan(decimal.NewFromInt(100)) {
		return fielderr.New("recargo", "El recargo debe estar entre 0 y 100.")
	}
	if p.Status != "" && p.Status != enum.PaymentStatusActive && p.Status != enum.PaymentStatusCancelled {
		return fielderr.New("estado", "Estado de cobro inválido.")
	}
	_, err := p.Details()
	return err
}

// Form is the create/edit state of one payment.
type Form struct {
	PaymentID int64 // zero when creating
	OrderID   int64
	Amount    decimal.Decimal // base amount
	Currency  string
	MethodID  *int64
	Details   Details
	Status    string

	// Approximate is set when the base and percentages were reconstructed
	// from a payment that carried both a discount and a surcharge.
	Approximate bool

	discountPct  decimal.Decimal
	surchargePct decimal.Decimal
}

// NewForm starts a create form prefilled with the balance due, paid in cash.
func NewForm(orderID int64, balanceDue decimal.Decimal) *Form {
	return &Form{
		OrderID:  orderID,
		Amount:   balanceDue,
		Currency: enum.CurrencyARS,
		Details:  Cash{},
		Status:   enum.PaymentStatusActive,
	}
}

// SetDiscountPct sets the discount percentage, clamped to [0, 100].
func (f *Form) SetDiscountPct(p decimal.Decimal) { f.discountPct = pricing.ClampPct(p) }

// SetSurchargePct sets the surcharge percentage, clamped to [0, 100].
func (f *Form) SetSurchargePct(p decimal.Decimal) { f.surchargePct = pricing.ClampPct(p) }

func (f *Form) DiscountPct() decimal.Decimal  { return f.discountPct }
func (f *Form) SurchargePct() decimal.Decimal { return f.surchargePct }

// Preview shows what the server will compute for the current values.
func (f *Form) Preview() pricing.Breakdown {
	return pricing.Forward(f.Amount, f.discountPct, f.surchargePct)
}

// PrefillEditForm loads a stored payment into an edit form. Payments that
// carry their base amount are restored exactly; older ones have the base
// reconstructed as net + discount - surcharge.
func PrefillEditForm(p Payment) (*Form, error) {
	details, err := DetailsFor(p.Method, p.Bank, p.Reference, p.Installments)
	if err != nil {
		return nil, err
	}
	f := &Form{
		PaymentID: p.ID,
		OrderID:   p.OrderID,
		Currency:  p.Currency,
		MethodID:  p.MethodID,
		Details:   details,
		Status:    p.Status,
	}
	if f.Currency == "" {
		f.Currency = enum.CurrencyARS
	}

	if p.BaseAmount.Valid && p.BaseAmount.Decimal.IsPositive() {
		f.Amount = p.BaseAmount.Decimal
		f.SetDiscountPct(p.DiscountPct)
		f.SetSurchargePct(p.SurchargePct)
		return f, nil
	}

	inv, exact := pricing.Inverse(p.Amount, p.Discount, p.Surcharge)
	f.Amount = inv.Base
	f.SetDiscountPct(inv.DiscountPct)
	f.SetSurchargePct(inv.SurchargePct)
	f.Approximate = !exact
	return f, nil
}

// BuildSubmitPayload validates the form and emits the wire payload.
func BuildSubmitPayload(f *Form) (SubmitPayload, error) {
	if f.Details == nil {
		return SubmitPayload{}, fielderr.New("metodo_cobro", "Seleccione un método de cobro.")
	}
	if err := f.Details.validate(); err != nil {
		return SubmitPayload{}, err
	}
	p := SubmitPayload{
		OrderID:      f.OrderID,
		Method:       f.Details.Method(),
		MethodID:     f.MethodID,
		Amount:       f.Amount,
		DiscountPct:  f.discountPct,
		SurchargePct: f.surchargePct,
		Currency:     f.Currency,
		Status:       f.Status,
	}
	f.Details.apply(&p)
	if err := p.Validate(); err != nil {
		return SubmitPayload{}, err
	}
	return p, nil
}

// CreateFullSettlementPayment pays the whole remaining balance of o with no
// discount or surcharge.
func CreateFullSettlementPayment(o order.Order, method Details) (SubmitPayload, error) {
	if !o.BalanceDue.IsPositive() {
		return SubmitPayload{}, fielderr.New("monto", "El pedido ya está pagado.")
	}
	f := NewForm(o.ID, o.BalanceDue)
	f.Details = method
	return BuildSubmitPayload(f)
}
