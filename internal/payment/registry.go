package payment

import "github.com/shopspring/decimal"

// MethodRecord is an entry of the payment method registry
// (/api/pedidos/cobros/metodos/).
type MethodRecord struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}

// MethodTotal is the per-method line of a daily total.
type MethodTotal struct {
	Method string          `json:"metodo_cobro"`
	Count  int             `json:"cantidad"`
	Total  decimal.Decimal `json:"total"`
}

// DailyTotal sums the active payments recorded on one date.
type DailyTotal struct {
	Date     string          `json:"fecha"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"cantidad"`
	ByMethod []MethodTotal   `json:"por_metodo"`
}
