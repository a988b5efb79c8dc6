package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/comandas-pos/pos/internal/database"
	"github.com/comandas-pos/pos/internal/enum"
	"github.com/comandas-pos/pos/internal/fielderr"
	"github.com/comandas-pos/pos/internal/payment"
	"github.com/comandas-pos/pos/internal/pricing"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Errors returned by the payment service.
var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrOrderFullyPaid  = errors.New("order is already fully paid")
)

// PaymentStore defines the DB methods needed by the payment service.
type PaymentStore interface {
	GetOrder(ctx context.Context, id int64) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id int64) (database.Order, error)
	GetPayment(ctx context.Context, id int64) (database.Payment, error)
	GetPaymentMethod(ctx context.Context, id int64) (database.PaymentMethod, error)
	ListPaymentsByOrder(ctx context.Context, orderID int64) ([]database.Payment, error)
	SumActivePaymentsByOrder(ctx context.Context, arg database.SumActivePaymentsByOrderParams) (pgtype.Numeric, error)
	CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error)
	UpdatePayment(ctx context.Context, arg database.UpdatePaymentParams) (database.Payment, error)
	DeletePayment(ctx context.Context, id int64) (int64, error)
	SetOrderPaid(ctx context.Context, arg database.SetOrderPaidParams) error
	DailyTotalsByMethod(ctx context.Context, arg database.DailyTotalsByMethodParams) ([]database.DailyTotalsByMethodRow, error)
}

// NewPaymentStore creates a PaymentStore from a DBTX (pool or tx).
type NewPaymentStore func(db database.DBTX) PaymentStore

// PaymentService records payments against orders. The net amount is always
// computed here from the base amount and the percentages.
type PaymentService struct {
	pool     TxBeginner
	store    PaymentStore
	newStore NewPaymentStore
	loc      *time.Location
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(pool TxBeginner, store PaymentStore, newStore NewPaymentStore) *PaymentService {
	return &PaymentService{pool: pool, store: store, newStore: newStore, loc: time.Local}
}

// PaymentResult is a stored payment and the order it belongs to, after the
// change.
type PaymentResult struct {
	Payment payment.Payment
	OrderID int64
}

type preparedPayment struct {
	breakdown pricing.Breakdown
	payload   payment.SubmitPayload
	status    string
	currency  string
}

func (s *PaymentService) prepare(ctx context.Context, store PaymentStore, p payment.SubmitPayload) (preparedPayment, error) {
	if err := p.Validate(); err != nil {
		return preparedPayment{}, err
	}
	norm, err := p.Normalize()
	if err != nil {
		return preparedPayment{}, err
	}
	if p.MethodID != nil {
		if _, err := store.GetPaymentMethod(ctx, *p.MethodID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return preparedPayment{}, fielderr.New("id_metodo_cobro", "Método de cobro no encontrado.")
			}
			return preparedPayment{}, fmt.Errorf("get payment method: %w", err)
		}
	}
	status := p.Status
	if status == "" {
		status = enum.PaymentStatusActive
	}
	currency := p.Currency
	if currency == "" {
		currency = enum.CurrencyARS
	}
	return preparedPayment{
		breakdown: pricing.Forward(pricing.Round2(p.Amount), pricing.Round2(p.DiscountPct), pricing.Round2(p.SurchargePct)),
		payload:   norm,
		status:    status,
		currency:  currency,
	}, nil
}

func (s *PaymentService) lockOrder(ctx context.Context, store PaymentStore, id int64) (database.Order, error) {
	o, err := store.GetOrderForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order for update: %w", err)
	}
	return o, nil
}

func exceedsMessage() error {
	return fielderr.New("monto", "El monto total de los cobros no puede exceder el total del pedido.")
}

// CreatePayment records a payment. Active payments are rejected once the
// order is fully paid or when they would exceed its total.
func (s *PaymentService) CreatePayment(ctx context.Context, p payment.SubmitPayload, createdBy int64) (*PaymentResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	prep, err := s.prepare(ctx, store, p)
	if err != nil {
		return nil, err
	}

	// Lock the order row to serialize concurrent payment inserts.
	o, err := s.lockOrder(ctx, store, p.OrderID)
	if err != nil {
		return nil, err
	}
	total := numericToDecimal(o.Total)
	paidNum, err := store.SumActivePaymentsByOrder(ctx, database.SumActivePaymentsByOrderParams{OrderID: o.ID})
	if err != nil {
		return nil, fmt.Errorf("sum payments: %w", err)
	}
	paid := numericToDecimal(paidNum)

	if prep.status == enum.PaymentStatusActive {
		if paid.GreaterThanOrEqual(total) {
			return nil, ErrOrderFullyPaid
		}
		if paid.Add(prep.breakdown.Net).GreaterThan(total) {
			return nil, exceedsMessage()
		}
	}

	w := prep.payload
	created, err := store.CreatePayment(ctx, database.CreatePaymentParams{
		OrderID:      o.ID,
		Method:       w.Method,
		MethodID:     ptrToInt8(p.MethodID),
		Amount:       decimalToNumeric(prep.breakdown.Net),
		BaseAmount:   decimalToNumeric(prep.breakdown.Base),
		Discount:     decimalToNumeric(prep.breakdown.Discount),
		Surcharge:    decimalToNumeric(prep.breakdown.Surcharge),
		DiscountPct:  decimalToNumeric(prep.breakdown.DiscountPct),
		SurchargePct: decimalToNumeric(prep.breakdown.SurchargePct),
		Currency:     prep.currency,
		Bank:         w.Bank,
		Reference:    w.Reference,
		Installments: int32(w.Installments),
		Status:       prep.status,
		CreatedBy:    int8OrNull(createdBy),
	})
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	if prep.status == enum.PaymentStatusActive {
		paid = paid.Add(prep.breakdown.Net)
	}
	if err := store.SetOrderPaid(ctx, database.SetOrderPaidParams{ID: o.ID, Paid: paid.GreaterThanOrEqual(total)}); err != nil {
		return nil, fmt.Errorf("set order paid: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &PaymentResult{Payment: withRemaining(toPayment(created), total, paid), OrderID: o.ID}, nil
}

// UpdatePayment replaces a payment. The payment's own amount is left out of
// the prior sum; setting estado to cancelado always succeeds.
func (s *PaymentService) UpdatePayment(ctx context.Context, id int64, p payment.SubmitPayload) (*PaymentResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	existing, err := store.GetPayment(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if p.OrderID == 0 {
		p.OrderID = existing.OrderID
	}
	if p.OrderID != existing.OrderID {
		return nil, fielderr.New("pedido", "No se puede mover un cobro a otro pedido.")
	}
	prep, err := s.prepare(ctx, store, p)
	if err != nil {
		return nil, err
	}

	o, err := s.lockOrder(ctx, store, existing.OrderID)
	if err != nil {
		return nil, err
	}
	total := numericToDecimal(o.Total)
	priorNum, err := store.SumActivePaymentsByOrder(ctx, database.SumActivePaymentsByOrderParams{OrderID: o.ID, ExcludeID: id})
	if err != nil {
		return nil, fmt.Errorf("sum payments: %w", err)
	}
	paid := numericToDecimal(priorNum)
	if prep.status == enum.PaymentStatusActive {
		if paid.Add(prep.breakdown.Net).GreaterThan(total) {
			return nil, exceedsMessage()
		}
		paid = paid.Add(prep.breakdown.Net)
	}

	w := prep.payload
	updated, err := store.UpdatePayment(ctx, database.UpdatePaymentParams{
		ID:           id,
		Method:       w.Method,
		MethodID:     ptrToInt8(p.MethodID),
		Amount:       decimalToNumeric(prep.breakdown.Net),
		BaseAmount:   decimalToNumeric(prep.breakdown.Base),
		Discount:     decimalToNumeric(prep.breakdown.Discount),
		Surcharge:    decimalToNumeric(prep.breakdown.Surcharge),
		DiscountPct:  decimalToNumeric(prep.breakdown.DiscountPct),
		SurchargePct: decimalToNumeric(prep.breakdown.SurchargePct),
		Currency:     prep.currency,
		Bank:         w.Bank,
		Reference:    w.Reference,
		Installments: int32(w.Installments),
		Status:       prep.status,
	})
	if err != nil {
		return nil, fmt.Errorf("update payment: %w", err)
	}

	if err := store.SetOrderPaid(ctx, database.SetOrderPaidParams{ID: o.ID, Paid: paid.GreaterThanOrEqual(total)}); err != nil {
		return nil, fmt.Errorf("set order paid: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &PaymentResult{Payment: withRemaining(toPayment(updated), total, paid), OrderID: o.ID}, nil
}

// DeletePayment removes a payment and returns the id of its order.
func (s *PaymentService) DeletePayment(ctx context.Context, id int64) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	existing, err := store.GetPayment(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrPaymentNotFound
		}
		return 0, fmt.Errorf("get payment: %w", err)
	}
	o, err := s.lockOrder(ctx, store, existing.OrderID)
	if err != nil {
		return 0, err
	}
	if _, err := store.DeletePayment(ctx, id); err != nil {
		return 0, fmt.Errorf("delete payment: %w", err)
	}
	paid, err := store.SumActivePaymentsByOrder(ctx, database.SumActivePaymentsByOrderParams{OrderID: o.ID})
	if err != nil {
		return 0, fmt.Errorf("sum payments: %w", err)
	}
	isPaid := numericToDecimal(paid).GreaterThanOrEqual(numericToDecimal(o.Total))
	if err := store.SetOrderPaid(ctx, database.SetOrderPaidParams{ID: o.ID, Paid: isPaid}); err != nil {
		return 0, fmt.Errorf("set order paid: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return o.ID, nil
}

// ListPayments returns every payment of an order, each annotated with the
// order's remaining balance.
func (s *PaymentService) ListPayments(ctx context.Context, orderID int64) ([]payment.Payment, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	rows, err := s.store.ListPaymentsByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	out := make([]payment.Payment, len(rows))
	for i, r := range rows {
		out[i] = toPayment(r)
	}
	ledger := payment.NewLedger(numericToDecimal(o.Total), out)
	paid := ledger.TotalPaid()
	for i := range out {
		out[i] = withRemaining(out[i], ledger.OrderTotal, paid)
	}
	return out, nil
}

// DailyTotal sums the active payments recorded on date, by method.
func (s *PaymentService) DailyTotal(ctx context.Context, date string) (payment.DailyTotal, error) {
	d, err := time.ParseInLocation(time.DateOnly, date, s.loc)
	if err != nil {
		return payment.DailyTotal{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	rows, err := s.store.DailyTotalsByMethod(ctx, database.DailyTotalsByMethodParams{
		From: pgtype.Timestamptz{Time: d, Valid: true},
		To:   pgtype.Timestamptz{Time: d.AddDate(0, 0, 1), Valid: true},
	})
	if err != nil {
		return payment.DailyTotal{}, fmt.Errorf("daily totals: %w", err)
	}
	out := payment.DailyTotal{Date: date, Total: decimal.Zero, ByMethod: make([]payment.MethodTotal, 0, len(rows))}
	for _, r := range rows {
		t := numericToDecimal(r.Total)
		out.Total = out.Total.Add(t)
		out.Count += int(r.Count)
		out.ByMethod = append(out.ByMethod, payment.MethodTotal{Method: r.Method, Count: int(r.Count), Total: t})
	}
	return out, nil
}

func withRemaining(p payment.Payment, total, paid decimal.Decimal) payment.Payment {
	remaining := pricing.Max0(total.Sub(paid))
	p.Remaining = decimal.NewNullDecimal(remaining)
	p.FullyPaid = !remaining.IsPositive()
	return p
}
