package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/comandas-pos/pos/internal/database"
	"github.com/comandas-pos/pos/internal/enum"
	"github.com/comandas-pos/pos/internal/fielderr"
	"github.com/comandas-pos/pos/internal/order"
	"github.com/comandas-pos/pos/internal/pricing"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const maxOrderNumberRetries = 3

// Errors returned by the order service.
var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidTime   = errors.New("invalid para_hora")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed by the order service.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	NextOrderNumber(ctx context.Context, fecha pgtype.Date) (int32, error)
	GetOrderByDraftRef(ctx context.Context, ref pgtype.UUID) (database.Order, error)
	GetOrder(ctx context.Context, id int64) (database.Order, error)
	GetOrderByNumber(ctx context.Context, arg database.GetOrderByNumberParams) (database.Order, error)
	GetOrderByNumberForUpdate(ctx context.Context, arg database.GetOrderByNumberParams) (database.Order, error)
	ListOrdersByDate(ctx context.Context, fecha pgtype.Date) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID int64) ([]database.OrderItem, error)
	ListPaidTotalsByDate(ctx context.Context, fecha pgtype.Date) ([]database.ListPaidTotalsByDateRow, error)
	SumActivePaymentsByOrder(ctx context.Context, arg database.SumActivePaymentsByOrderParams) (pgtype.Numeric, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	UpdateOrder(ctx context.Context, arg database.UpdateOrderParams) (database.Order, error)
	DeleteOrderItems(ctx context.Context, orderID int64) error
	DeleteOrder(ctx context.Context, id int64) (int64, error)
	SetOrderPaid(ctx context.Context, arg database.SetOrderPaidParams) error
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// OrderService handles order business logic.
type OrderService struct {
	pool     TxBeginner
	store    OrderStore
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService. store serves reads outside a
// transaction.
func NewOrderService(pool TxBeginner, store OrderStore, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, store: store, newStore: newStore}
}

// CreateOrderResult is the stored order. Created is false when the draft
// reference had already been used and the earlier order is returned.
type CreateOrderResult struct {
	Order   order.Order
	Created bool
}

type preparedLine struct {
	params database.CreateOrderItemParams
}

// CreateOrder validates the payload, assigns the next number of its date and
// stores the order with its lines. Any numero_pedido in the payload is
// ignored. Retries up to maxOrderNumberRetries times on a number conflict.
func (s *OrderService) CreateOrder(ctx context.Context, p order.CreatePayload, createdBy int64) (*CreateOrderResult, error) {
	customer := strings.ToUpper(strings.TrimSpace(p.Customer))
	if customer == "" {
		return nil, fielderr.New("cliente", "El nombre del cliente es obligatorio.")
	}
	fecha, err := ParseDate(p.Date)
	if err != nil {
		return nil, fielderr.New("fecha_pedido", "Fecha inválida, use AAAA-MM-DD.")
	}
	requested, err := parseClock(p.RequestedTime)
	if err != nil {
		return nil, fielderr.New("para_hora", "Hora inválida, use HH:MM.")
	}
	status := p.Status
	if status == "" {
		status = enum.OrderStatusPending
	}
	if !order.IsValidStatus(status) {
		return nil, fielderr.New("estado", "Estado de pedido inválido.")
	}
	draftRef, err := uuidToPg(p.DraftRef)
	if err != nil {
		return nil, fielderr.New("referencia_borrador", "Referencia de borrador inválida.")
	}
	lines, total, err := prepareLines(p.Products)
	if err != nil {
		return nil, err
	}

	params := database.CreateOrderParams{
		Date:          fecha,
		Customer:      customer,
		RequestedTime: requested,
		Status:        status,
		Notified:      p.Notified,
		Delivered:     p.Delivered,
		Total:         decimalToNumeric(total),
		DraftRef:      draftRef,
		CreatedBy:     int8OrNull(createdBy),
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.createOrderTx(ctx, params, lines)
		if err == nil {
			return result, nil
		}
		if isDraftRefConflict(err) {
			// A concurrent submit of the same draft won the race.
			existing, err := s.store.GetOrderByDraftRef(ctx, draftRef)
			if err != nil {
				return nil, fmt.Errorf("get order by draft ref: %w", err)
			}
			o, err := s.load(ctx, s.store, existing)
			if err != nil {
				return nil, err
			}
			return &CreateOrderResult{Order: o}, nil
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

func prepareLines(products []order.PayloadLine) ([]preparedLine, decimal.Decimal, error) {
	if len(products) == 0 {
		return nil, decimal.Zero, fielderr.New("productos", "El pedido debe tener al menos un producto.")
	}
	total := decimal.Zero
	lines := make([]preparedLine, 0, len(products))
	for i, l := range products {
		qty := pricing.RoundQuantity(l.Quantity)
		price := pricing.Round2(l.UnitPrice)
		if !qty.IsPositive() {
			return nil, decimal.Zero, fielderr.New("productos", fmt.Sprintf("Producto %d: la cantidad debe ser mayor a cero.", i+1))
		}
		if price.IsNegative() {
			return nil, decimal.Zero, fielderr.New("productos", fmt.Sprintf("Producto %d: el precio no puede ser negativo.", i+1))
		}
		if l.ProductID <= 0 {
			return nil, decimal.Zero, fielderr.New("productos", fmt.Sprintf("Producto %d: id_producto inválido.", i+1))
		}
		sub := pricing.LineSubtotal(qty, price)
		total = total.Add(sub)
		lines = append(lines, preparedLine{
			params: database.CreateOrderItemParams{
				ProductID:   l.ProductID,
				ProductName: strings.TrimSpace(l.ProductName),
				Quantity:    quantityToNumeric(qty),
				UnitPrice:   decimalToNumeric(price),
				Subtotal:    decimalToNumeric(sub),
				Notes:       strings.TrimSpace(l.Notes),
			},
		})
	}
	return lines, total, nil
}

// isOrderNumberConflict checks if the error is a unique constraint violation
// on the per-date order number (pgconn error code 23505).
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "pedidos_fecha_numero_key"
	}
	return false
}

func isDraftRefConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "pedidos_referencia_borrador_key"
	}
	return false
}

// createOrderTx executes the full order creation in a single transaction.
func (s *OrderService) createOrderTx(ctx context.Context, params database.CreateOrderParams, lines []preparedLine) (*CreateOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if params.DraftRef.Valid {
		existing, err := store.GetOrderByDraftRef(ctx, params.DraftRef)
		switch {
		case err == nil:
			o, err := s.load(ctx, store, existing)
			if err != nil {
				return nil, err
			}
			return &CreateOrderResult{Order: o}, nil
		case !errors.Is(err, pgx.ErrNoRows):
			return nil, fmt.Errorf("get order by draft ref: %w", err)
		}
	}

	num, err := store.NextOrderNumber(ctx, params.Date)
	if err != nil {
		return nil, fmt.Errorf("next order number: %w", err)
	}
	params.Number = num

	created, err := store.CreateOrder(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	items := make([]database.OrderItem, 0, len(lines))
	for _, l := range lines {
		l.params.OrderID = created.ID
		item, err := store.CreateOrderItem(ctx, l.params)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &CreateOrderResult{Order: toOrder(created, items, decimal.Zero), Created: true}, nil
}

// load fetches the lines and paid total of o.
func (s *OrderService) load(ctx context.Context, store OrderStore, o database.Order) (order.Order, error) {
	items, err := store.ListOrderItemsByOrder(ctx, o.ID)
	if err != nil {
		return order.Order{}, fmt.Errorf("list order items: %w", err)
	}
	paid, err := store.SumActivePaymentsByOrder(ctx, database.SumActivePaymentsByOrderParams{OrderID: o.ID})
	if err != nil {
		return order.Order{}, fmt.Errorf("sum payments: %w", err)
	}
	return toOrder(o, items, numericToDecimal(paid)), nil
}

func orderKey(date string, number int) (database.GetOrderByNumberParams, error) {
	fecha, err := ParseDate(date)
	if err != nil {
		return database.GetOrderByNumberParams{}, err
	}
	if number <= 0 {
		return database.GetOrderByNumberParams{}, fmt.Errorf("%w: numero %d", ErrOrderNotFound, number)
	}
	return database.GetOrderByNumberParams{Date: fecha, Number: int32(number)}, nil
}

// GetOrder returns one order by id.
func (s *OrderService) GetOrder(ctx context.Context, id int64) (order.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, ErrOrderNotFound
		}
		return order.Order{}, fmt.Errorf("get order: %w", err)
	}
	return s.load(ctx, s.store, o)
}

// SearchOrders lists the orders of a date with their lines and payment
// totals. A positive number narrows the result to that order.
func (s *OrderService) SearchOrders(ctx context.Context, date string, number int) ([]order.Order, error) {
	fecha, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListOrdersByDate(ctx, fecha)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	paidRows, err := s.store.ListPaidTotalsByDate(ctx, fecha)
	if err != nil {
		return nil, fmt.Errorf("list paid totals: %w", err)
	}
	paid := make(map[int64]decimal.Decimal, len(paidRows))
	for _, p := range paidRows {
		paid[p.OrderID] = numericToDecimal(p.TotalPaid)
	}

	out := make([]order.Order, 0, len(rows))
	for _, o := range rows {
		if number > 0 && int(o.Number) != number {
			continue
		}
		items, err := s.store.ListOrderItemsByOrder(ctx, o.ID)
		if err != nil {
			return nil, fmt.Errorf("list order items: %w", err)
		}
		out = append(out, toOrder(o, items, paid[o.ID]))
	}
	return out, nil
}

// GetOrderByNumber returns the order identified by date and number.
func (s *OrderService) GetOrderByNumber(ctx context.Context, date string, number int) (order.Order, error) {
	key, err := orderKey(date, number)
	if err != nil {
		return order.Order{}, err
	}
	o, err := s.store.GetOrderByNumber(ctx, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, ErrOrderNotFound
		}
		return order.Order{}, fmt.Errorf("get order: %w", err)
	}
	return s.load(ctx, s.store, o)
}

// Balance returns the payment summary of an order.
func (s *OrderService) Balance(ctx context.Context, date string, number int) (order.Balance, error) {
	o, err := s.GetOrderByNumber(ctx, date, number)
	if err != nil {
		return order.Balance{}, err
	}
	return order.Balance{
		OrderID:    o.ID,
		Total:      o.Total,
		TotalPaid:  o.TotalPaid,
		BalanceDue: o.BalanceDue,
		Paid:       !o.BalanceDue.IsPositive(),
	}, nil
}

// UpdateOrder applies a partial update. Replacing the products recomputes
// the total and the paid flag. The order number never changes.
func (s *OrderService) UpdateOrder(ctx context.Context, date string, number int, p order.UpdatePayload) (order.Order, error) {
	key, err := orderKey(date, number)
	if err != nil {
		return order.Order{}, err
	}

	var lines []preparedLine
	var newTotal decimal.Decimal
	if p.Products != nil {
		lines, newTotal, err = prepareLines(p.Products)
		if err != nil {
			return order.Order{}, err
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return order.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	current, err := store.GetOrderByNumberForUpdate(ctx, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, ErrOrderNotFound
		}
		return order.Order{}, fmt.Errorf("get order for update: %w", err)
	}

	params := database.UpdateOrderParams{
		ID:            current.ID,
		Customer:      current.Customer,
		RequestedTime: current.RequestedTime,
		Status:        current.Status,
		Notified:      current.Notified,
		Delivered:     current.Delivered,
		Total:         current.Total,
	}
	if p.Customer != nil {
		c := strings.ToUpper(strings.TrimSpace(*p.Customer))
		if c == "" {
			return order.Order{}, fielderr.New("cliente", "El nombre del cliente es obligatorio.")
		}
		params.Customer = c
	}
	if p.RequestedTime != nil {
		t, err := parseClock(p.RequestedTime)
		if err != nil {
			return order.Order{}, fielderr.New("para_hora", "Hora inválida, use HH:MM.")
		}
		params.RequestedTime = t
	}
	if p.Status != nil {
		if !order.IsValidStatus(*p.Status) {
			return order.Order{}, fielderr.New("estado", "Estado de pedido inválido.")
		}
		params.Status = *p.Status
	}
	if p.Notified != nil {
		params.Notified = *p.Notified
	}
	if p.Delivered != nil {
		params.Delivered = *p.Delivered
	}
	if lines != nil {
		params.Total = decimalToNumeric(newTotal)
	}

	updated, err := store.UpdateOrder(ctx, params)
	if err != nil {
		return order.Order{}, fmt.Errorf("update order: %w", err)
	}

	if lines != nil {
		if err := store.DeleteOrderItems(ctx, current.ID); err != nil {
			return order.Order{}, fmt.Errorf("delete order items: %w", err)
		}
		for _, l := range lines {
			l.params.OrderID = current.ID
			if _, err := store.CreateOrderItem(ctx, l.params); err != nil {
				return order.Order{}, fmt.Errorf("create order item: %w", err)
			}
		}
		paid, err := store.SumActivePaymentsByOrder(ctx, database.SumActivePaymentsByOrderParams{OrderID: current.ID})
		if err != nil {
			return order.Order{}, fmt.Errorf("sum payments: %w", err)
		}
		updated.Paid = numericToDecimal(paid).GreaterThanOrEqual(newTotal)
		if err := store.SetOrderPaid(ctx, database.SetOrderPaidParams{ID: current.ID, Paid: updated.Paid}); err != nil {
			return order.Order{}, fmt.Errorf("set order paid: %w", err)
		}
	}

	result, err := s.load(ctx, store, updated)
	if err != nil {
		return order.Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return order.Order{}, fmt.Errorf("commit tx: %w", err)
	}
	return result, nil
}

// DeleteOrder removes an order; its lines and payments cascade. The deleted
// order is returned so callers can announce it.
func (s *OrderService) DeleteOrder(ctx context.Context, date string, number int) (order.Order, error) {
	o, err := s.GetOrderByNumber(ctx, date, number)
	if err != nil {
		return order.Order{}, err
	}
	n, err := s.store.DeleteOrder(ctx, o.ID)
	if err != nil {
		return order.Order{}, fmt.Errorf("delete order: %w", err)
	}
	if n == 0 {
		return order.Order{}, ErrOrderNotFound
	}
	return o, nil
}
