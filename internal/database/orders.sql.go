package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, numero_pedido, fecha_pedido, cliente, para_hora, estado, avisado, pagado, entregado, total, referencia_borrador, created_by, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.Number,
		&i.Date,
		&i.Customer,
		&i.RequestedTime,
		&i.Status,
		&i.Notified,
		&i.Paid,
		&i.Delivered,
		&i.Total,
		&i.DraftRef,
		&i.CreatedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanOrders(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		i, err := scanOrder(rows)
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

const nextOrderNumber = `-- name: NextOrderNumber :one
INSERT INTO contador_pedidos (fecha, ultimo)
VALUES ($1, 1)
ON CONFLICT (fecha) DO UPDATE SET ultimo = contador_pedidos.ultimo + 1
RETURNING ultimo
`

// NextOrderNumber atomically hands out the next number for a date.
func (q *Queries) NextOrderNumber(ctx context.Context, fecha pgtype.Date) (int32, error) {
	row := q.db.QueryRow(ctx, nextOrderNumber, fecha)
	var ultimo int32
	err := row.Scan(&ultimo)
	return ultimo, err
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO pedidos (numero_pedido, fecha_pedido, cliente, para_hora, estado, avisado, pagado, entregado, total, referencia_borrador, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	Number        int32          `json:"numero_pedido"`
	Date          pgtype.Date    `json:"fecha_pedido"`
	Customer      string         `json:"cliente"`
	RequestedTime pgtype.Time    `json:"para_hora"`
	Status        string         `json:"estado"`
	Notified      bool           `json:"avisado"`
	Paid          bool           `json:"pagado"`
	Delivered     bool           `json:"entregado"`
	Total         pgtype.Numeric `json:"total"`
	DraftRef      pgtype.UUID    `json:"referencia_borrador"`
	CreatedBy     pgtype.Int8    `json:"created_by"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.Number,
		arg.Date,
		arg.Customer,
		arg.RequestedTime,
		arg.Status,
		arg.Notified,
		arg.Paid,
		arg.Delivered,
		arg.Total,
		arg.DraftRef,
		arg.CreatedBy,
	)
	return scanOrder(row)
}

const getOrder = `-- name: GetOrder :one
SELECT ` + orderColumns + ` FROM pedidos WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id int64) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderForUpdate = `-- name: GetOrderForUpdate :one
SELECT ` + orderColumns + ` FROM pedidos WHERE id = $1 FOR NO KEY UPDATE
`

// GetOrderForUpdate locks the order row so concurrent payments serialize.
func (q *Queries) GetOrderForUpdate(ctx context.Context, id int64) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, id))
}

const getOrderByDraftRef = `-- name: GetOrderByDraftRef :one
SELECT ` + orderColumns + ` FROM pedidos WHERE referencia_borrador = $1
`

func (q *Queries) GetOrderByDraftRef(ctx context.Context, ref pgtype.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderByDraftRef, ref))
}

const getOrderByNumber = `-- name: GetOrderByNumber :one
SELECT ` + orderColumns + ` FROM pedidos WHERE fecha_pedido = $1 AND numero_pedido = $2
`

type GetOrderByNumberParams struct {
	Date   pgtype.Date `json:"fecha_pedido"`
	Number int32       `json:"numero_pedido"`
}

func (q *Queries) GetOrderByNumber(ctx context.Context, arg GetOrderByNumberParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderByNumber, arg.Date, arg.Number))
}

const getOrderByNumberForUpdate = `-- name: GetOrderByNumberForUpdate :one
SELECT ` + orderColumns + ` FROM pedidos WHERE fecha_pedido = $1 AND numero_pedido = $2 FOR NO KEY UPDATE
`

func (q *Queries) GetOrderByNumberForUpdate(ctx context.Context, arg GetOrderByNumberParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderByNumberForUpdate, arg.Date, arg.Number))
}

const listOrdersByDate = `-- name: ListOrdersByDate :many
SELECT ` + orderColumns + ` FROM pedidos WHERE fecha_pedido = $1 ORDER BY numero_pedido
`

func (q *Queries) ListOrdersByDate(ctx context.Context, fecha pgtype.Date) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByDate, fecha)
	if err != nil {
		return nil, err
	}
	return scanOrders(rows)
}

const updateOrder = `-- name: UpdateOrder :one
UPDATE pedidos
SET cliente = $2, para_hora = $3, estado = $4, avisado = $5, entregado = $6, total = $7, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderParams struct {
	ID            int64          `json:"id"`
	Customer      string         `json:"cliente"`
	RequestedTime pgtype.Time    `json:"para_hora"`
	Status        string         `json:"estado"`
	Notified      bool           `json:"avisado"`
	Delivered     bool           `json:"entregado"`
	Total         pgtype.Numeric `json:"total"`
}

func (q *Queries) UpdateOrder(ctx context.Context, arg UpdateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrder,
		arg.ID,
		arg.Customer,
		arg.RequestedTime,
		arg.Status,
		arg.Notified,
		arg.Delivered,
		arg.Total,
	)
	return scanOrder(row)
}

const setOrderPaid = `-- name: SetOrderPaid :exec
UPDATE pedidos SET pagado = $2, updated_at = now() WHERE id = $1
`

type SetOrderPaidParams struct {
	ID   int64 `json:"id"`
	Paid bool  `json:"pagado"`
}

func (q *Queries) SetOrderPaid(ctx context.Context, arg SetOrderPaidParams) error {
	_, err := q.db.Exec(ctx, setOrderPaid, arg.ID, arg.Paid)
	return err
}

const deleteOrder = `-- name: DeleteOrder :execrows
DELETE FROM pedidos WHERE id = $1
`

func (q *Queries) DeleteOrder(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.Exec(ctx, deleteOrder, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const createOrderItem = `-- name: CreateOrderItem :one
INSERT INTO pedido_productos (pedido_id, id_producto, nombre_producto, cantidad, precio_unitario, subtotal, aclaraciones)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, pedido_id, id_producto, nombre_producto, cantidad, precio_unitario, subtotal, aclaraciones
`

type CreateOrderItemParams struct {
	OrderID     int64          `json:"pedido_id"`
	ProductID   int64          `json:"id_producto"`
	ProductName string         `json:"nombre_producto"`
	Quantity    pgtype.Numeric `json:"cantidad"`
	UnitPrice   pgtype.Numeric `json:"precio_unitario"`
	Subtotal    pgtype.Numeric `json:"subtotal"`
	Notes       string         `json:"aclaraciones"`
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.ProductID,
		arg.ProductName,
		arg.Quantity,
		arg.UnitPrice,
		arg.Subtotal,
		arg.Notes,
	)
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.ProductID,
		&i.ProductName,
		&i.Quantity,
		&i.UnitPrice,
		&i.Subtotal,
		&i.Notes,
	)
	return i, err
}

const deleteOrderItems = `-- name: DeleteOrderItems :exec
DELETE FROM pedido_productos WHERE pedido_id = $1
`

func (q *Queries) DeleteOrderItems(ctx context.Context, orderID int64) error {
	_, err := q.db.Exec(ctx, deleteOrderItems, orderID)
	return err
}

const listOrderItemsByOrder = `-- name: ListOrderItemsByOrder :many
SELECT id, pedido_id, id_producto, nombre_producto, cantidad, precio_unitario, subtotal, aclaraciones
FROM pedido_productos WHERE pedido_id = $1 ORDER BY id
`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderItem{}
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.ProductID,
			&i.ProductName,
			&i.Quantity,
			&i.UnitPrice,
			&i.Subtotal,
			&i.Notes,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
