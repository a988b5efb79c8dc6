package service

import (
	"context"

	"github.com/comandas-pos/pos/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr   error
	rollbackErr error
	committed   bool
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitErr == nil {
		m.committed = true
	}
	return m.commitErr
}
func (m *mockTx) Rollback(ctx context.Context) error { return m.rollbackErr }
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements TxBeginner.
type mockTxBeginner struct {
	tx  pgx.Tx
	err error
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.tx, m.err
}

// mockStore implements OrderStore and PaymentStore. A nil func field makes
// Get* methods report pgx.ErrNoRows and the rest succeed with zero values.
type mockStore struct {
	nextOrderNumberFn           func(ctx context.Context, fecha pgtype.Date) (int32, error)
	getOrderByDraftRefFn        func(ctx context.Context, ref pgtype.UUID) (database.Order, error)
	getOrderFn                  func(ctx context.Context, id int64) (database.Order, error)
	getOrderForUpdateFn         func(ctx context.Context, id int64) (database.Order, error)
	getOrderByNumberFn          func(ctx context.Context, arg database.GetOrderByNumberParams) (database.Order, error)
	getOrderByNumberForUpdateFn func(ctx context.Context, arg database.GetOrderByNumberParams) (database.Order, error)
	listOrdersByDateFn          func(ctx context.Context, fecha pgtype.Date) ([]database.Order, error)
	listOrderItemsByOrderFn     func(ctx context.Context, orderID int64) ([]database.OrderItem, error)
	listPaidTotalsByDateFn      func(ctx context.Context, fecha pgtype.Date) ([]database.ListPaidTotalsByDateRow, error)
	sumActivePaymentsFn         func(ctx context.Context, arg database.SumActivePaymentsByOrderParams) (pgtype.Numeric, error)
	createOrderFn               func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	createOrderItemFn           func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	updateOrderFn               func(ctx context.Context, arg database.UpdateOrderParams) (database.Order, error)
	deleteOrderItemsFn          func(ctx context.Context, orderID int64) error
	deleteOrderFn               func(ctx context.Context, id int64) (int64, error)
	setOrderPaidFn              func(ctx context.Context, arg database.SetOrderPaidParams) error

	getPaymentFn          func(ctx context.Context, id int64) (database.Payment, error)
	getPaymentMethodFn    func(ctx context.Context, id int64) (database.PaymentMethod, error)
	listPaymentsByOrderFn func(ctx context.Context, orderID int64) ([]database.Payment, error)
	createPaymentFn       func(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error)
	updatePaymentFn       func(ctx context.Context, arg database.UpdatePaymentParams) (database.Payment, error)
	deletePaymentFn       func(ctx context.Context, id int64) (int64, error)
	dailyTotalsByMethodFn func(ctx context.Context, arg database.DailyTotalsByMethodParams) ([]database.DailyTotalsByMethodRow, error)
}

func (m *mockStore) NextOrderNumber(ctx context.Context, fecha pgtype.Date) (int32, error) {
	if m.nextOrderNumberFn == nil {
		return 1, nil
	}
	return m.nextOrderNumberFn(ctx, fecha)
}
func (m *mockStore) GetOrderByDraftRef(ctx context.Context, ref pgtype.UUID) (database.Order, error) {
	if m.getOrderByDraftRefFn == nil {
		return database.Order{}, pgx.ErrNoRows
	}
	return m.getOrderByDraftRefFn(ctx, ref)
}
func (m *mockStore) GetOrder(ctx context.Context, id int64) (database.Order, error) {
	if m.getOrderFn == nil {
		return database.Order{}, pgx.ErrNoRows
	}
	return m.getOrderFn(ctx, id)
}
func (m *mockStore) GetOrderForUpdate(ctx context.Context, id int64) (database.Order, error) {
	if m.getOrderForUpdateFn == nil {
		return database.Order{}, pgx.ErrNoRows
	}
	return m.getOrderForUpdateFn(ctx, id)
}
func (m *mockStore) GetOrderByNumber(ctx context.Context, arg database.GetOrderByNumberParams) (database.Order, error) {
	if m.getOrderByNumberFn == nil {
		return database.Order{}, pgx.ErrNoRows
	}
	return m.getOrderByNumberFn(ctx, arg)
}
func (m *mockStore) GetOrderByNumberForUpdate(ctx context.Context, arg database.GetOrderByNumberParams) (database.Order, error) {
	if m.getOrderByNumberForUpdateFn == nil {
		return database.Order{}, pgx.ErrNoRows
	}
	return m.getOrderByNumberForUpdateFn(ctx, arg)
}
func (m *mockStore) ListOrdersByDate(ctx context.Context, fecha pgtype.Date) ([]database.Order, error) {
	if m.listOrdersByDateFn == nil {
		return nil, nil
	}
	return m.listOrdersByDateFn(ctx, fecha)
}
func (m *mockStore) ListOrderItemsByOrder(ctx context.Context, orderID int64) ([]database.OrderItem, error) {
	if m.listOrderItemsByOrderFn == nil {
		return nil, nil
	}
	return m.listOrderItemsByOrderFn(ctx, orderID)
}
func (m *mockStore) ListPaidTotalsByDate(ctx context.Context, fecha pgtype.Date) ([]database.ListPaidTotalsByDateRow, error) {
	if m.listPaidTotalsByDateFn == nil {
		return nil, nil
	}
	return m.listPaidTotalsByDateFn(ctx, fecha)
}
func (m *mockStore) SumActivePaymentsByOrder(ctx context.Context, arg database.SumActivePaymentsByOrderParams) (pgtype.Numeric, error) {
	if m.sumActivePaymentsFn == nil {
		return makeNumeric("0"), nil
	}
	return m.sumActivePaymentsFn(ctx, arg)
}
func (m *mockStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	return m.createOrderFn(ctx, arg)
}
func (m *mockStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	if m.createOrderItemFn == nil {
		return database.OrderItem{
			OrderID:     arg.OrderID,
			ProductID:   arg.ProductID,
			ProductName: arg.ProductName,
			Quantity:    arg.Quantity,
			UnitPrice:   arg.UnitPrice,
			Subtotal:    arg.Subtotal,
			Notes:       arg.Notes,
		}, nil
	}
	return m.createOrderItemFn(ctx, arg)
}
func (m *mockStore) UpdateOrder(ctx context.Context, arg database.UpdateOrderParams) (database.Order, error) {
	return m.updateOrderFn(ctx, arg)
}
func (m *mockStore) DeleteOrderItems(ctx context.Context, orderID int64) error {
	if m.deleteOrderItemsFn == nil {
		return nil
	}
	return m.deleteOrderItemsFn(ctx, orderID)
}
func (m *mockStore) DeleteOrder(ctx context.Context, id int64) (int64, error) {
	if m.deleteOrderFn == nil {
		return 1, nil
	}
	return m.deleteOrderFn(ctx, id)
}
func (m *mockStore) SetOrderPaid(ctx context.Context, arg database.SetOrderPaidParams) error {
	if m.setOrderPaidFn == nil {
		return nil
	}
	return m.setOrderPaidFn(ctx, arg)
}
func (m *mockStore) GetPayment(ctx context.Context, id int64) (database.Payment, error) {
	if m.getPaymentFn == nil {
		return database.Payment{}, pgx.ErrNoRows
	}
	return m.getPaymentFn(ctx, id)
}
func (m *mockStore) GetPaymentMethod(ctx context.Context, id int64) (database.PaymentMethod, error) {
	if m.getPaymentMethodFn == nil {
		return database.PaymentMethod{}, pgx.ErrNoRows
	}
	return m.getPaymentMethodFn(ctx, id)
}
func (m *mockStore) ListPaymentsByOrder(ctx context.Context, orderID int64) ([]database.Payment, error) {
	if m.listPaymentsByOrderFn == nil {
		return nil, nil
	}
	return m.listPaymentsByOrderFn(ctx, orderID)
}
func (m *mockStore) CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error) {
	return m.createPaymentFn(ctx, arg)
}
func (m *mockStore) UpdatePayment(ctx context.Context, arg database.UpdatePaymentParams) (database.Payment, error) {
	return m.updatePaymentFn(ctx, arg)
}
func (m *mockStore) DeletePayment(ctx context.Context, id int64) (int64, error) {
	if m.deletePaymentFn == nil {
		return 1, nil
	}
	return m.deletePaymentFn(ctx, id)
}
func (m *mockStore) DailyTotalsByMethod(ctx context.Context, arg database.DailyTotalsByMethodParams) ([]database.DailyTotalsByMethodRow, error) {
	if m.dailyTotalsByMethodFn == nil {
		return nil, nil
	}
	return m.dailyTotalsByMethodFn(ctx, arg)
}

// --- Test helpers ---

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	d := numericToDecimal(n)
	exp, _ := decimal.NewFromString(expected)
	return d.Equal(exp)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustDate(s string) pgtype.Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// newTestOrderService creates an OrderService whose reads and transactions
// both go to store.
func newTestOrderService(store *mockStore) (*OrderService, *mockTx) {
	tx := &mockTx{}
	pool := &mockTxBeginner{tx: tx}
	newStore := func(db database.DBTX) OrderStore { return store }
	return NewOrderService(pool, store, newStore), tx
}

func newTestPaymentService(store *mockStore) (*PaymentService, *mockTx) {
	tx := &mockTx{}
	pool := &mockTxBeginner{tx: tx}
	newStore := func(db database.DBTX) PaymentStore { return store }
	return NewPaymentService(pool, store, newStore), tx
}
