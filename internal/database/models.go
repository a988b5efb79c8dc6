package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Order struct {
	ID            int64              `json:"id"`
	Number        int32              `json:"numero_pedido"`
	Date          pgtype.Date        `json:"fecha_pedido"`
	Customer      string             `json:"cliente"`
	RequestedTime pgtype.Time        `json:"para_hora"`
	Status        string             `json:"estado"`
	Notified      bool               `json:"avisado"`
	Paid          bool               `json:"pagado"`
	Delivered     bool               `json:"entregado"`
	Total         pgtype.Numeric     `json:"total"`
	DraftRef      pgtype.UUID        `json:"referencia_borrador"`
	CreatedBy     pgtype.Int8        `json:"created_by"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	UpdatedAt     pgtype.Timestamptz `json:"updated_at"`
}

type OrderItem struct {
	ID          int64          `json:"id"`
	OrderID     int64          `json:"pedido_id"`
	ProductID   int64          `json:"id_producto"`
	ProductName string         `json:"nombre_producto"`
	Quantity    pgtype.Numeric `json:"cantidad"`
	UnitPrice   pgtype.Numeric `json:"precio_unitario"`
	Subtotal    pgtype.Numeric `json:"subtotal"`
	Notes       string         `json:"aclaraciones"`
}

type Payment struct {
	ID           int64              `json:"id"`
	OrderID      int64              `json:"pedido_id"`
	Method       string             `json:"metodo_cobro"`
	MethodID     pgtype.Int8        `json:"id_metodo_cobro"`
	Amount       pgtype.Numeric     `json:"monto"`
	BaseAmount   pgtype.Numeric     `json:"monto_base"`
	Discount     pgtype.Numeric     `json:"descuento"`
	Surcharge    pgtype.Numeric     `json:"recargo"`
	DiscountPct  pgtype.Numeric     `json:"descuento_porcentual"`
	SurchargePct pgtype.Numeric     `json:"recargo_porcentual"`
	Currency     string             `json:"moneda"`
	Bank         string             `json:"banco"`
	Reference    string             `json:"referencia"`
	Installments int32              `json:"cuotas"`
	Status       string             `json:"estado"`
	CreatedBy    pgtype.Int8        `json:"created_by"`
	CreatedAt    pgtype.Timestamptz `json:"fecha_cobro"`
}

type PaymentMethod struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}
