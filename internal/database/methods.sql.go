package database

import (
	"context"
)

const listPaymentMethods = `-- name: ListPaymentMethods :many
SELECT id, nombre FROM metodos_cobros ORDER BY id
`

func (q *Queries) ListPaymentMethods(ctx context.Context) ([]PaymentMethod, error) {
	rows, err := q.db.Query(ctx, listPaymentMethods)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []PaymentMethod{}
	for rows.Next() {
		var i PaymentMethod
		if err := rows.Scan(&i.ID, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getPaymentMethod = `-- name: GetPaymentMethod :one
SELECT id, nombre FROM metodos_cobros WHERE id = $1
`

func (q *Queries) GetPaymentMethod(ctx context.Context, id int64) (PaymentMethod, error) {
	row := q.db.QueryRow(ctx, getPaymentMethod, id)
	var i PaymentMethod
	err := row.Scan(&i.ID, &i.Name)
	return i, err
}

const createPaymentMethod = `-- name: CreatePaymentMethod :one
INSERT INTO metodos_cobros (nombre) VALUES ($1) RETURNING id, nombre
`

func (q *Queries) CreatePaymentMethod(ctx context.Context, name string) (PaymentMethod, error) {
	row := q.db.QueryRow(ctx, createPaymentMethod, name)
	var i PaymentMethod
	err := row.Scan(&i.ID, &i.Name)
	return i, err
}

const upsertPaymentMethod = `-- name: UpsertPaymentMethod :one
INSERT INTO metodos_cobros (nombre) VALUES ($1)
ON CONFLICT (nombre) DO UPDATE SET nombre = EXCLUDED.nombre
RETURNING id, nombre
`

func (q *Queries) UpsertPaymentMethod(ctx context.Context, name string) (PaymentMethod, error) {
	row := q.db.QueryRow(ctx, upsertPaymentMethod, name)
	var i PaymentMethod
	err := row.Scan(&i.ID, &i.Name)
	return i, err
}

const updatePaymentMethod = `-- name: UpdatePaymentMethod :one
UPDATE metodos_cobros SET nombre = $2 WHERE id = $1 RETURNING id, nombre
`

type UpdatePaymentMethodParams struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}

func (q *Queries) UpdatePaymentMethod(ctx context.Context, arg UpdatePaymentMethodParams) (PaymentMethod, error) {
	row := q.db.QueryRow(ctx, updatePaymentMethod, arg.ID, arg.Name)
	var i PaymentMethod
	err := row.Scan(&i.ID, &i.Name)
	return i, err
}

const deletePaymentMethod = `-- name: DeletePaymentMethod :execrows
DELETE FROM metodos_cobros WHERE id = $1
`

func (q *Queries) DeletePaymentMethod(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.Exec(ctx, deletePaymentMethod, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
