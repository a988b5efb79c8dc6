package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const paymentColumns = `id, pedido_id, metodo_cobro, id_metodo_cobro, monto, monto_base, descuento, recargo, descuento_porcentual, recargo_porcentual, moneda, banco, referencia, cuotas, estado, created_by, fecha_cobro`

func scanPayment(row pgx.Row) (Payment, error) {
	var i Payment
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.Method,
		&i.MethodID,
		&i.Amount,
		&i.BaseAmount,
		&i.Discount,
		&i.Surcharge,
		&i.DiscountPct,
		&i.SurchargePct,
		&i.Currency,
		&i.Bank,
		&i.Reference,
		&i.Installments,
		&i.Status,
		&i.CreatedBy,
		&i.CreatedAt,
	)
	return i, err
}

const createPayment = `-- name: CreatePayment :one
INSERT INTO cobros (pedido_id, metodo_cobro, id_metodo_cobro, monto, monto_base, descuento, recargo, descuento_porcentual, recargo_porcentual, moneda, banco, referencia, cuotas, estado, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING ` + paymentColumns

type CreatePaymentParams struct {
	OrderID      int64          `json:"pedido_id"`
	Method       string         `json:"metodo_cobro"`
	MethodID     pgtype.Int8    `json:"id_metodo_cobro"`
	Amount       pgtype.Numeric `json:"monto"`
	BaseAmount   pgtype.Numeric `json:"monto_base"`
	Discount     pgtype.Numeric `json:"descuento"`
	Surcharge    pgtype.Numeric `json:"recargo"`
	DiscountPct  pgtype.Numeric `json:"descuento_porcentual"`
	SurchargePct pgtype.Numeric `json:"recargo_porcentual"`
	Currency     string         `json:"moneda"`
	Bank         string         `json:"banco"`
	Reference    string         `json:"referencia"`
	Installments int32          `json:"cuotas"`
	Status       string         `json:"estado"`
	CreatedBy    pgtype.Int8    `json:"created_by"`
}

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	row := q.db.QueryRow(ctx, createPayment,
		arg.OrderID,
		arg.Method,
		arg.MethodID,
		arg.Amount,
		arg.BaseAmount,
		arg.Discount,
		arg.Surcharge,
		arg.DiscountPct,
		arg.SurchargePct,
		arg.Currency,
		arg.Bank,
		arg.Reference,
		arg.Installments,
		arg.Status,
		arg.CreatedBy,
	)
	return scanPayment(row)
}

const updatePayment = `-- name: UpdatePayment :one
UPDATE cobros
SET metodo_cobro = $2, id_metodo_cobro = $3, monto = $4, monto_base = $5, descuento = $6, recargo = $7,
    descuento_porcentual = $8, recargo_porcentual = $9, moneda = $10, banco = $11, referencia = $12,
    cuotas = $13, estado = $14
WHERE id = $1
RETURNING ` + paymentColumns

type UpdatePaymentParams struct {
	ID           int64          `json:"id"`
	Method       string         `json:"metodo_cobro"`
	MethodID     pgtype.Int8    `json:"id_metodo_cobro"`
	Amount       pgtype.Numeric `json:"monto"`
	BaseAmount   pgtype.Numeric `json:"monto_base"`
	Discount     pgtype.Numeric `json:"descuento"`
	Surcharge    pgtype.Numeric `json:"recargo"`
	DiscountPct  pgtype.Numeric `json:"descuento_porcentual"`
	SurchargePct pgtype.Numeric `json:"recargo_porcentual"`
	Currency     string         `json:"moneda"`
	Bank         string         `json:"banco"`
	Reference    string         `json:"referencia"`
	Installments int32          `json:"cuotas"`
	Status       string         `json:"estado"`
}

func (q *Queries) UpdatePayment(ctx context.Context, arg UpdatePaymentParams) (Payment, error) {
	row := q.db.QueryRow(ctx, updatePayment,
		arg.ID,
		arg.Method,
		arg.MethodID,
		arg.Amount,
		arg.BaseAmount,
		arg.Discount,
		arg.Surcharge,
		arg.DiscountPct,
		arg.SurchargePct,
		arg.Currency,
		arg.Bank,
		arg.Reference,
		arg.Installments,
		arg.Status,
	)
	return scanPayment(row)
}

const getPayment = `-- name: GetPayment :one
SELECT ` + paymentColumns + ` FROM cobros WHERE id = $1
`

func (q *Queries) GetPayment(ctx context.Context, id int64) (Payment, error) {
	return scanPayment(q.db.QueryRow(ctx, getPayment, id))
}

const deletePayment = `-- name: DeletePayment :execrows
DELETE FROM cobros WHERE id = $1
`

func (q *Queries) DeletePayment(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.Exec(ctx, deletePayment, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listPaymentsByOrder = `-- name: ListPaymentsByOrder :many
SELECT ` + paymentColumns + ` FROM cobros WHERE pedido_id = $1 ORDER BY fecha_cobro, id
`

func (q *Queries) ListPaymentsByOrder(ctx context.Context, orderID int64) ([]Payment, error) {
	rows, err := q.db.Query(ctx, listPaymentsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Payment{}
	for rows.Next() {
		i, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const sumActivePaymentsByOrder = `-- name: SumActivePaymentsByOrder :one
SELECT COALESCE(SUM(monto), 0)::numeric(12,2) FROM cobros
WHERE pedido_id = $1 AND estado = 'activo' AND id <> $2
`

type SumActivePaymentsByOrderParams struct {
	OrderID   int64 `json:"pedido_id"`
	ExcludeID int64 `json:"exclude_id"`
}

// SumActivePaymentsByOrder sums the net of active payments, leaving out
// ExcludeID (zero excludes nothing).
func (q *Queries) SumActivePaymentsByOrder(ctx context.Context, arg SumActivePaymentsByOrderParams) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, sumActivePaymentsByOrder, arg.OrderID, arg.ExcludeID)
	var total pgtype.Numeric
	err := row.Scan(&total)
	return total, err
}

const listPaidTotalsByDate = `-- name: ListPaidTotalsByDate :many
SELECT p.id, COALESCE(SUM(c.monto) FILTER (WHERE c.estado = 'activo'), 0)::numeric(12,2) AS total_pagado
FROM pedidos p
LEFT JOIN cobros c ON c.pedido_id = p.id
WHERE p.fecha_pedido = $1
GROUP BY p.id
`

type ListPaidTotalsByDateRow struct {
	OrderID   int64          `json:"pedido_id"`
	TotalPaid pgtype.Numeric `json:"total_pagado"`
}

func (q *Queries) ListPaidTotalsByDate(ctx context.Context, fecha pgtype.Date) ([]ListPaidTotalsByDateRow, error) {
	rows, err := q.db.Query(ctx, listPaidTotalsByDate, fecha)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListPaidTotalsByDateRow{}
	for rows.Next() {
		var i ListPaidTotalsByDateRow
		if err := rows.Scan(&i.OrderID, &i.TotalPaid); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const dailyTotalsByMethod = `-- name: DailyTotalsByMethod :many
SELECT metodo_cobro, COUNT(*)::bigint AS cantidad, COALESCE(SUM(monto), 0)::numeric(12,2) AS total
FROM cobros
WHERE estado = 'activo' AND fecha_cobro >= $1 AND fecha_cobro < $2
GROUP BY metodo_cobro
ORDER BY metodo_cobro
`

type DailyTotalsByMethodParams struct {
	From pgtype.Timestamptz `json:"from"`
	To   pgtype.Timestamptz `json:"to"`
}

type DailyTotalsByMethodRow struct {
	Method string         `json:"metodo_cobro"`
	Count  int64          `json:"cantidad"`
	Total  pgtype.Numeric `json:"total"`
}

func (q *Queries) DailyTotalsByMethod(ctx context.Context, arg DailyTotalsByMethodParams) ([]DailyTotalsByMethodRow, error) {
	rows, err := q.db.Query(ctx, dailyTotalsByMethod, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []DailyTotalsByMethodRow{}
	for rows.Next() {
		var i DailyTotalsByMethodRow
		if err := rows.Scan(&i.Method, &i.Count, &i.Total); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
