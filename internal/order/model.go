// Package order builds draft orders from the catalog and submits them to
// the pedidos service.
package order

import (
	"github.com/comandas-pos/pos/internal/enum"
	"github.com/shopspring/decimal"
)

// Order is a persisted order as returned by the pedidos service.
type Order struct {
	ID            int64           `json:"id"`
	Number        int             `json:"numero_pedido"`
	Date          string          `json:"fecha_pedido"`
	Customer      string          `json:"cliente"`
	RequestedTime *string         `json:"para_hora"`
	Status        string          `json:"estado"`
	Notified      bool            `json:"avisado"`
	Paid          bool            `json:"pagado"`
	Delivered     bool            `json:"entregado"`
	Total         decimal.Decimal `json:"total"`
	TotalPaid     decimal.Decimal `json:"total_pagado"`
	BalanceDue    decimal.Decimal `json:"saldo_pendiente"`
	Items         []Item          `json:"productos_detalle"`
}

// Item is a persisted order line.
type Item struct {
	ProductID   int64           `json:"id_producto"`
	ProductName string          `json:"nombre_producto"`
	Quantity    decimal.Decimal `json:"cantidad_producto"`
	UnitPrice   decimal.Decimal `json:"precio_unitario"`
	Notes       string          `json:"aclaraciones"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// CreatePayload is the body of POST /crear/.
type CreatePayload struct {
	Number        int           `json:"numero_pedido,omitempty"`
	Date          string        `json:"fecha_pedido"`
	Customer      string        `json:"cliente"`
	RequestedTime *string       `json:"para_hora"`
	Status        string        `json:"estado"`
	Notified      bool          `json:"avisado"`
	Paid          bool          `json:"pagado"`
	Delivered     bool          `json:"entregado"`
	DraftRef      string        `json:"referencia_borrador,omitempty"`
	Products      []PayloadLine `json:"productos"`
}

// PayloadLine is one product in a create or edit payload.
type PayloadLine struct {
	ProductID   int64           `json:"id_producto"`
	ProductName string          `json:"nombre_producto"`
	Quantity    decimal.Decimal `json:"cantidad_producto"`
	UnitPrice   decimal.Decimal `json:"precio_unitario"`
	Notes       string          `json:"aclaraciones"`
}

// UpdatePayload is the body of PUT /editar/. Nil fields are left unchanged.
type UpdatePayload struct {
	Customer      *string       `json:"cliente,omitempty"`
	RequestedTime *string       `json:"para_hora,omitempty"`
	Status        *string       `json:"estado,omitempty"`
	Notified      *bool         `json:"avisado,omitempty"`
	Delivered     *bool         `json:"entregado,omitempty"`
	Products      []PayloadLine `json:"productos,omitempty"`
}

// IsValidStatus reports whether s is a known order status.
func IsValidStatus(s string) bool {
	switch s {
	case enum.OrderStatusPending, enum.OrderStatusReady, enum.OrderStatusDelivered:
		return true
	}
	return false
}

// NextOrderNumber returns max(existing)+1, or 1 when there are none.
// Only meaningful against servers that do not assign numbers themselves.
func NextOrderNumber(existing []Order) int {
	next := 1
	for _, o := range existing {
		if o.Number >= next {
			next = o.Number + 1
		}
	}
	return next
}

// Balance is the payment summary of one order (GET /saldo_pendiente/).
type Balance struct {
	OrderID    int64           `json:"pedido"`
	Total      decimal.Decimal `json:"total"`
	TotalPaid  decimal.Decimal `json:"total_pagado"`
	BalanceDue decimal.Decimal `json:"saldo_pendiente"`
	Paid       bool            `json:"pagado"`
}
