package payment_test

import (
	"encoding/json"
	"testing"

	"github.com/comandas-pos/pos/internal/fielderr"
	"github.com/comandas-pos/pos/internal/order"
	"github.com/comandas-pos/pos/internal/payment"
	"github.com/comandas-pos/pos/internal/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func active(amount string) payment.Payment {
	return payment.Payment{Amount: dec(amount), Status: "activo", Method: "efectivo"}
}

func TestLedger_TotalsExcludeCancelled(t *testing.T) {
	cancelled := active("1000")
	cancelled.Status = "cancelado"
	l := payment.NewLedger(dec("1500"), []payment.Payment{active("300"), cancelled, active("200")})

	assert.True(t, l.TotalPaid().Equal(dec("500")))
	assert.True(t, l.BalanceDue().Equal(dec("1000")))
	assert.False(t, l.IsFullyPaid())
	assert.True(t, l.CanAddPayment())
}

func TestLedger_BalanceNeverNegative(t *testing.T) {
	l := payment.NewLedger(dec("500"), []payment.Payment{active("400"), active("300")})
	assert.True(t, l.BalanceDue().IsZero())
	assert.True(t, l.IsFullyPaid())
	assert.False(t, l.CanAddPayment())
}

func TestLedger_EndToEndFullPayment(t *testing.T) {
	l := payment.NewLedger(dec("1000"), nil)
	require.True(t, l.CanAddPayment())

	b := pricing.Forward(dec("1000"), decimal.Zero, decimal.Zero)
	l.Payments = append(l.Payments, active(b.Net.String()))
	assert.True(t, l.BalanceDue().IsZero())
	assert.True(t, l.IsFullyPaid())
	assert.False(t, l.CanAddPayment())
}

func TestPrefillEditForm_LegacyRoundTrip(t *testing.T) {
	p := payment.Payment{ID: 3, OrderID: 9, Method: "efectivo", Amount: dec("900"), Discount: dec("100"), Status: "activo"}
	f, err := payment.PrefillEditForm(p)
	require.NoError(t, err)
	assert.True(t, f.Amount.Equal(dec("1000")), "base %s", f.Amount)
	assert.True(t, f.DiscountPct().Equal(dec("10")), "pct %s", f.DiscountPct())
	assert.True(t, f.SurchargePct().IsZero())
	assert.False(t, f.Approximate)
	assert.Equal(t, "ARS", f.Currency)

	// Forward again reproduces the stored net.
	assert.True(t, f.Preview().Net.Equal(dec("900")))
}

func TestPrefillEditForm_LegacyBothAdjustmentsFlagged(t *testing.T) {
	p := payment.Payment{Method: "debito", Amount: dec("190"), Discount: dec("20"), Surcharge: dec("10")}
	f, err := payment.PrefillEditForm(p)
	require.NoError(t, err)
	assert.True(t, f.Approximate)
	assert.True(t, f.Amount.Equal(dec("200")))
}

func TestPrefillEditForm_StoredBaseIsExact(t *testing.T) {
	p := payment.Payment{
		Method:       "credito",
		Amount:       dec("190"),
		BaseAmount:   decimal.NewNullDecimal(dec("200")),
		Discount:     dec("20"),
		Surcharge:    dec("10"),
		DiscountPct:  dec("10"),
		SurchargePct: dec("5"),
		Bank:         "Galicia",
		Installments: 3,
	}
	f, err := payment.PrefillEditForm(p)
	require.NoError(t, err)
	assert.False(t, f.Approximate)
	assert.True(t, f.Amount.Equal(dec("200")))
	assert.True(t, f.DiscountPct().Equal(dec("10")))
	assert.True(t, f.SurchargePct().Equal(dec("5")))
	assert.Equal(t, payment.Credit{Bank: "Galicia", Installments: 3}, f.Details)
}

func TestPrefillEditForm_UnknownMethod(t *testing.T) {
	_, err := payment.PrefillEditForm(payment.Payment{Method: "cheque", Amount: dec("10")})
	ve, ok := fielderr.As(err)
	require.True(t, ok)
	assert.Equal(t, "metodo_cobro", ve.Field)
}

func TestForm_ClampsPercentages(t *testing.T) {
	f := payment.NewForm(1, dec("100"))
	f.SetDiscountPct(dec("150"))
	f.SetSurchargePct(dec("-3"))
	assert.True(t, f.DiscountPct().Equal(dec("100")))
	assert.True(t, f.SurchargePct().IsZero())
}

func TestBuildSubmitPayload_CashOmitsBankFields(t *testing.T) {
	f := payment.NewForm(7, dec("1000"))
	f.SetDiscountPct(dec("10"))
	p, err := payment.BuildSubmitPayload(f)
	require.NoError(t, err)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))

	assert.Equal(t, "efectivo", m["metodo_cobro"])
	assert.Equal(t, "1000", m["monto"])
	assert.Equal(t, "10", m["descuento"])
	assert.NotContains(t, m, "banco")
	assert.NotContains(t, m, "referencia")
	assert.NotContains(t, m, "cuotas")
}

func TestBuildSubmitPayload_MethodVariants(t *testing.T) {
	tests := []struct {
		name         string
		details      payment.Details
		bank         string
		installments int
	}{
		{"debit", payment.Debit{Bank: " Nación ", Reference: "123"}, "Nación", 0},
		{"credit with installments", payment.Credit{Bank: "BBVA", Installments: 6}, "BBVA", 6},
		{"credit without installments", payment.Credit{Bank: "BBVA"}, "BBVA", 0},
		{"mercadopago", payment.MercadoPago{Bank: "MP", Reference: "op-1"}, "MP", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := payment.NewForm(1, dec("50"))
			f.Details = tt.details
			p, err := payment.BuildSubmitPayload(f)
			require.NoError(t, err)
			assert.Equal(t, tt.details.Method(), p.Method)
			assert.Equal(t, tt.bank, p.Bank)
			assert.Equal(t, tt.installments, p.Installments)
		})
	}
}

func TestBuildSubmitPayload_Validation(t *testing.T) {
	f := payment.NewForm(1, decimal.Zero)
	_, err := payment.BuildSubmitPayload(f)
	ve, ok := fielderr.As(err)
	require.True(t, ok)
	assert.Equal(t, "monto", ve.Field)

	f = payment.NewForm(1, dec("10"))
	f.Details = payment.Credit{Installments: -2}
	_, err = payment.BuildSubmitPayload(f)
	ve, ok = fielderr.As(err)
	require.True(t, ok)
	assert.Equal(t, "cuotas", ve.Field)

	f = payment.NewForm(1, dec("10"))
	f.Details = nil
	_, err = payment.BuildSubmitPayload(f)
	assert.Error(t, err)
}

func TestSubmitPayload_ValidateRejectsOutOfRange(t *testing.T) {
	p := payment.SubmitPayload{OrderID: 1, Method: "efectivo", Amount: dec("10"), DiscountPct: dec("120")}
	ve, ok := fielderr.As(p.Validate())
	require.True(t, ok)
	assert.Equal(t, "descuento", ve.Field)

	p = payment.SubmitPayload{OrderID: 1, Method: "efectivo", Amount: dec("10"), Status: "borrado"}
	ve, ok = fielderr.As(p.Validate())
	require.True(t, ok)
	assert.Equal(t, "estado", ve.Field)
}

func TestCreateFullSettlementPayment(t *testing.T) {
	o := order.Order{ID: 4, Total: dec("1000"), TotalPaid: dec("400"), BalanceDue: dec("600")}
	p, err := payment.CreateFullSettlementPayment(o, payment.MercadoPago{Reference: "x"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), p.OrderID)
	assert.True(t, p.Amount.Equal(dec("600")))
	assert.True(t, p.DiscountPct.IsZero())
	assert.True(t, p.SurchargePct.IsZero())
	assert.Equal(t, "mercadopago", p.Method)

	o.BalanceDue = decimal.Zero
	_, err = payment.CreateFullSettlementPayment(o, payment.Cash{})
	assert.Error(t, err)
}

func TestMethodLabel(t *testing.T) {
	assert.Equal(t, "Mercado Pago", payment.MethodLabel("mercadopago"))
	assert.Equal(t, "otro", payment.MethodLabel("otro"))
	assert.Len(t, payment.Methods(), 4)
}
