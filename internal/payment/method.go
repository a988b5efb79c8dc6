package payment

import (
	"strings"

	"github.com/comandas-pos/pos/internal/enum"
	"github.com/comandas-pos/pos/internal/fielderr"
)

// Details carries the method-specific fields of a payment. Each payment
// method has its own variant; only the variant's fields reach the wire.
type Details interface {
	Method() string
	validate() error
	apply(p *SubmitPayload)
}

// Cash has no extra fields.
type Cash struct{}

// Debit carries the issuing bank and an operation reference.
type Debit struct {
	Bank      string
	Reference string
}

// Credit carries the bank, reference and an optional installment count.
type Credit struct {
	Bank         string
	Reference    string
	Installments int
}

// MercadoPago carries the wallet bank and transaction reference.
type MercadoPago struct {
	Bank      string
	Reference string
}

func (Cash) Method() string        { return enum.PaymentMethodCash }
func (Debit) Method() string       { return enum.PaymentMethodDebit }
func (Credit) Method() string      { return enum.PaymentMethodCredit }
func (MercadoPago) Method() string { return enum.PaymentMethodMercadoPago }

func (Cash) validate() error        { return nil }
func (Debit) validate() error       { return nil }
func (MercadoPago) validate() error { return nil }

func (c Credit) validate() error {
	if c.Installments < 0 {
		return fielderr.New("cuotas", "Las cuotas deben ser un número positivo.")
	}
	return nil
}

func (Cash) apply(*SubmitPayload) {}

func (d Debit) apply(p *SubmitPayload) {
	p.Bank = strings.TrimSpace(d.Bank)
	p.Reference = strings.TrimSpace(d.Reference)
}

func (c Credit) apply(p *SubmitPayload) {
	p.Bank = strings.TrimSpace(c.Bank)
	p.Reference = strings.TrimSpace(c.Reference)
	if c.Installments > 0 {
		p.Installments = c.Installments
	}
}

func (m MercadoPago) apply(p *SubmitPayload) {
	p.Bank = strings.TrimSpace(m.Bank)
	p.Reference = strings.TrimSpace(m.Reference)
}

// DetailsFor builds the variant for method from loosely typed fields, as
// read from a stored payment or a request body. Fields that do not belong
// to the method are dropped.
func DetailsFor(method, bank, reference string, installments int) (Details, error) {
	switch method {
	case enum.PaymentMethodCash:
		return Cash{}, nil
	case enum.PaymentMethodDebit:
		return Debit{Bank: bank, Reference: reference}, nil
	case enum.PaymentMethodCredit:
		c := Credit{Bank: bank, Reference: reference, Installments: installments}
		if err := c.validate(); err != nil {
			return nil, err
		}
		return c, nil
	case enum.PaymentMethodMercadoPago:
		return MercadoPago{Bank: bank, Reference: reference}, nil
	}
	return nil, fielderr.New("metodo_cobro", "Método de cobro inválido.")
}

// Methods lists the supported payment methods in display order.
func Methods() []string {
	return []string{
		enum.PaymentMethodCash,
		enum.PaymentMethodDebit,
		enum.PaymentMethodCredit,
		enum.PaymentMethodMercadoPago,
	}
}

// MethodLabel is the display name of a payment method.
func MethodLabel(method string) string {
	switch method {
	case enum.PaymentMethodCash:
		return "Efectivo"
	case enum.PaymentMethodDebit:
		return "Débito"
	case enum.PaymentMethodCredit:
		return "Crédito"
	case enum.PaymentMethodMercadoPago:
		return "Mercado Pago"
	}
	return method
}
