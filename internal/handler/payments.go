package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/comandas-pos/pos/internal/enum"
	"github.com/comandas-pos/pos/internal/order"
	"github.com/comandas-pos/pos/internal/payment"
	"github.com/comandas-pos/pos/internal/service"
	"github.com/comandas-pos/pos/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// PaymentServicer defines the service methods needed by payment handlers.
// Satisfied by *service.PaymentService.
type PaymentServicer interface {
	CreatePayment(ctx context.Context, p payment.SubmitPayload, createdBy int64) (*service.PaymentResult, error)
	UpdatePayment(ctx context.Context, id int64, p payment.SubmitPayload) (*service.PaymentResult, error)
	DeletePayment(ctx context.Context, id int64) (int64, error)
	ListPayments(ctx context.Context, orderID int64) ([]payment.Payment, error)
	DailyTotal(ctx context.Context, date string) (payment.DailyTotal, error)
}

// OrderGetter loads the order a payment changed, for the push event.
type OrderGetter interface {
	GetOrder(ctx context.Context, id int64) (order.Order, error)
}

// PaymentHandler handles payment endpoints.
type PaymentHandler struct {
	svc    PaymentServicer
	orders OrderGetter
	events Broadcaster
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(svc PaymentServicer, orders OrderGetter, events Broadcaster) *PaymentHandler {
	return &PaymentHandler{svc: svc, orders: orders, events: events}
}

// RegisterRoutes registers payment endpoints on the given Chi router.
// Expected to be mounted at /api/pedidos/cobros
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/listar/{orderId}", h.List)
	r.Get("/total/{fecha}", h.DailyTotal)
	r.Put("/{id}/", h.Update)
	r.Delete("/{id}/", h.Delete)
}

// --- Request types ---

type paymentRequest struct {
	OrderID      int64           `json:"pedido" validate:"gt=0"`
	Method       string          `json:"metodo_cobro" validate:"required,oneof=efectivo debito credito mercadopago"`
	MethodID     *int64          `json:"id_metodo_cobro" validate:"omitempty,gt=0"`
	Amount       decimal.Decimal `json:"monto" validate:"gt=0"`
	DiscountPct  decimal.Decimal `json:"descuento" validate:"gte=0,lte=100"`
	SurchargePct decimal.Decimal `json:"recargo" validate:"gte=0,lte=100"`
	Currency     string          `json:"moneda"`
	Bank         string          `json:"banco"`
	Reference    string          `json:"referencia"`
	Installments int             `json:"cuotas" validate:"gte=0"`
	Status       string          `json:"estado" validate:"omitempty,oneof=activo cancelado"`
}

func (req paymentRequest) payload() payment.SubmitPayload {
	return payment.SubmitPayload{
		OrderID:      req.OrderID,
		Method:       req.Method,
		MethodID:     req.MethodID,
		Amount:       req.Amount,
		DiscountPct:  req.DiscountPct,
		SurchargePct: req.SurchargePct,
		Currency:     req.Currency,
		Bank:         req.Bank,
		Reference:    req.Reference,
		Installments: req.Installments,
		Status:       req.Status,
	}
}

// --- Handlers ---

// Create handles POST /api/pedidos/cobros/.
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	res, err := h.svc.CreatePayment(r.Context(), req.payload(), userID(r))
	if err != nil {
		writeServiceError(w, "create payment", err)
		return
	}
	h.announce(r.Context(), res.OrderID)
	writeJSON(w, http.StatusCreated, res.Payment)
}

// List handles GET /api/pedidos/cobros/listar/{orderId}.
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}
	payments, err := h.svc.ListPayments(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, "list payments", err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

// Update handles PUT /api/pedidos/cobros/{id}/.
func (h *PaymentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req paymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	res, err := h.svc.UpdatePayment(r.Context(), id, req.payload())
	if err != nil {
		writeServiceError(w, "update payment", err)
		return
	}
	h.announce(r.Context(), res.OrderID)
	writeJSON(w, http.StatusOK, res.Payment)
}

// Delete handles DELETE /api/pedidos/cobros/{id}/.
func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	orderID, err := h.svc.DeletePayment(r.Context(), id)
	if err != nil {
		writeServiceError(w, "delete payment", err)
		return
	}
	h.announce(r.Context(), orderID)
	w.WriteHeader(http.StatusNoContent)
}

// DailyTotal handles GET /api/pedidos/cobros/total/{fecha}.
func (h *PaymentHandler) DailyTotal(w http.ResponseWriter, r *http.Request) {
	total, err := h.svc.DailyTotal(r.Context(), chi.URLParam(r, "fecha"))
	if err != nil {
		writeServiceError(w, "daily total", err)
		return
	}
	writeJSON(w, http.StatusOK, total)
}

// announce pushes the order a payment belongs to, since its balance changed.
func (h *PaymentHandler) announce(ctx context.Context, orderID int64) {
	o, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		return
	}
	h.events.Publish(ctx, ws.OrderEvent(enum.FeedActionUpdate, o))
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusBadRequest, "ID inválido.")
		return 0, false
	}
	return id, true
}
