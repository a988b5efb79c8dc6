package handler

import (
	"bytes"
	"context"
	"net/http"
	"strconv"

	"github.com/comandas-pos/pos/internal/enum"
	"github.com/comandas-pos/pos/internal/order"
	"github.com/comandas-pos/pos/internal/payment"
	"github.com/comandas-pos/pos/internal/service"
	"github.com/comandas-pos/pos/internal/ticket"
	"github.com/comandas-pos/pos/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, p order.CreatePayload, createdBy int64) (*service.CreateOrderResult, error)
	SearchOrders(ctx context.Context, date string, number int) ([]order.Order, error)
	GetOrderByNumber(ctx context.Context, date string, number int) (order.Order, error)
	Balance(ctx context.Context, date string, number int) (order.Balance, error)
	UpdateOrder(ctx context.Context, date string, number int, p order.UpdatePayload) (order.Order, error)
	DeleteOrder(ctx context.Context, date string, number int) (order.Order, error)
}

// PaymentLister lists the payments printed on a ticket.
type PaymentLister interface {
	ListPayments(ctx context.Context, orderID int64) ([]payment.Payment, error)
}

// Broadcaster delivers push events. Satisfied by *ws.Hub and *ws.Relay.
type Broadcaster interface {
	Publish(ctx context.Context, ev ws.Event)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc          OrderServicer
	payments     PaymentLister
	events       Broadcaster
	businessName string
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, payments PaymentLister, events Broadcaster, businessName string) *OrderHandler {
	return &OrderHandler{svc: svc, payments: payments, events: events, businessName: businessName}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted at /api/pedidos
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/crear/", h.Create)
	r.Get("/buscar/", h.Search)
	r.Put("/editar/", h.Update)
	r.Post("/eliminar/", h.Delete)
	r.Post("/imprimir/", h.Print)
	r.Get("/saldo_pendiente/", h.Balance)
}

// --- Request types ---

type orderLineRequest struct {
	ProductID   int64           `json:"id_producto" validate:"gt=0"`
	ProductName string          `json:"nombre_producto"`
	Quantity    decimal.Decimal `json:"cantidad_producto" validate:"gt=0"`
	UnitPrice   decimal.Decimal `json:"precio_unitario" validate:"gte=0"`
	Notes       string          `json:"aclaraciones"`
}

type createOrderRequest struct {
	Date          string             `json:"fecha_pedido" validate:"required,datetime=2006-01-02"`
	Customer      string             `json:"cliente" validate:"required"`
	RequestedTime *string            `json:"para_hora"`
	Status        string             `json:"estado" validate:"omitempty,oneof=PENDIENTE LISTO ENTREGADO"`
	Notified      bool               `json:"avisado"`
	Delivered     bool               `json:"entregado"`
	DraftRef      string             `json:"referencia_borrador" validate:"omitempty,uuid"`
	Products      []orderLineRequest `json:"productos" validate:"required,min=1,dive"`
}

type updateOrderRequest struct {
	Customer      *string            `json:"cliente"`
	RequestedTime *string            `json:"para_hora"`
	Status        *string            `json:"estado" validate:"omitempty,oneof=PENDIENTE LISTO ENTREGADO"`
	Notified      *bool              `json:"avisado"`
	Delivered     *bool              `json:"entregado"`
	Products      []orderLineRequest `json:"productos" validate:"omitempty,min=1,dive"`
}

func toPayloadLines(lines []orderLineRequest) []order.PayloadLine {
	if lines == nil {
		return nil
	}
	out := make([]order.PayloadLine, len(lines))
	for i, l := range lines {
		out[i] = order.PayloadLine{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Notes:       l.Notes,
		}
	}
	return out
}

// --- Handlers ---

// Create handles POST /api/pedidos/crear/. A repeated draft reference returns
// the order created the first time with 200 instead of 201.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.svc.CreateOrder(r.Context(), order.CreatePayload{
		Date:          req.Date,
		Customer:      req.Customer,
		RequestedTime: req.RequestedTime,
		Status:        req.Status,
		Notified:      req.Notified,
		Delivered:     req.Delivered,
		DraftRef:      req.DraftRef,
		Products:      toPayloadLines(req.Products),
	}, userID(r))
	if err != nil {
		writeServiceError(w, "create order", err)
		return
	}

	if !result.Created {
		writeJSON(w, http.StatusOK, result.Order)
		return
	}
	h.events.Publish(r.Context(), ws.OrderEvent(enum.FeedActionCreate, result.Order))
	writeJSON(w, http.StatusCreated, result.Order)
}

// Search handles GET /api/pedidos/buscar/?fecha=&numero_pedido=.
func (h *OrderHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date := q.Get("fecha")
	if date == "" {
		writeFields(w, map[string]string{"fecha": "Este campo es obligatorio."})
		return
	}
	number := 0
	if s := q.Get("numero_pedido"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeFields(w, map[string]string{"numero_pedido": "Número de pedido inválido."})
			return
		}
		number = n
	}

	orders, err := h.svc.SearchOrders(r.Context(), date, number)
	if err != nil {
		writeServiceError(w, "search orders", err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// Update handles PUT /api/pedidos/editar/?fecha=&numero=.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	date, number, ok := orderKeyFromQuery(w, r)
	if !ok {
		return
	}
	var req updateOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := h.svc.UpdateOrder(r.Context(), date, number, order.UpdatePayload{
		Customer:      req.Customer,
		RequestedTime: req.RequestedTime,
		Status:        req.Status,
		Notified:      req.Notified,
		Delivered:     req.Delivered,
		Products:      toPayloadLines(req.Products),
	})
	if err != nil {
		writeServiceError(w, "update order", err)
		return
	}
	h.events.Publish(r.Context(), ws.OrderEvent(enum.FeedActionUpdate, updated))
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles POST /api/pedidos/eliminar/?fecha=&numero=.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	date, number, ok := orderKeyFromQuery(w, r)
	if !ok {
		return
	}
	deleted, err := h.svc.DeleteOrder(r.Context(), date, number)
	if err != nil {
		writeServiceError(w, "delete order", err)
		return
	}
	h.events.Publish(r.Context(), ws.OrderEvent(enum.FeedActionDelete, deleted))
	writeJSON(w, http.StatusOK, errorResponse{Detail: "Pedido eliminado."})
}

// Print handles POST /api/pedidos/imprimir/?fecha=&numero= and streams the
// ticket as a PDF.
func (h *OrderHandler) Print(w http.ResponseWriter, r *http.Request) {
	date, number, ok := orderKeyFromQuery(w, r)
	if !ok {
		return
	}
	o, err := h.svc.GetOrderByNumber(r.Context(), date, number)
	if err != nil {
		writeServiceError(w, "print order", err)
		return
	}
	payments, err := h.payments.ListPayments(r.Context(), o.ID)
	if err != nil {
		writeServiceError(w, "print order", err)
		return
	}

	// Render fully before writing so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := ticket.Write(&buf, h.businessName, o, payments); err != nil {
		writeServiceError(w, "print order", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=\"pedido_"+date+"_"+strconv.Itoa(number)+".pdf\"")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck
}

// Balance handles GET /api/pedidos/saldo_pendiente/?fecha=&numero=.
func (h *OrderHandler) Balance(w http.ResponseWriter, r *http.Request) {
	date, number, ok := orderKeyFromQuery(w, r)
	if !ok {
		return
	}
	b, err := h.svc.Balance(r.Context(), date, number)
	if err != nil {
		writeServiceError(w, "order balance", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
