package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/comandas-pos/pos/internal/database"
	"github.com/comandas-pos/pos/internal/payment"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

// PaymentMethodStore defines the database methods needed by payment method
// handlers. Satisfied by *database.Queries; narrow interface for testability.
type PaymentMethodStore interface {
	ListPaymentMethods(ctx context.Context) ([]database.PaymentMethod, error)
	CreatePaymentMethod(ctx context.Context, name string) (database.PaymentMethod, error)
	UpdatePaymentMethod(ctx context.Context, arg database.UpdatePaymentMethodParams) (database.PaymentMethod, error)
	DeletePaymentMethod(ctx context.Context, id int64) (int64, error)
}

// PaymentMethodHandler handles the payment method registry.
type PaymentMethodHandler struct {
	store PaymentMethodStore
}

// NewPaymentMethodHandler creates a new PaymentMethodHandler.
func NewPaymentMethodHandler(store PaymentMethodStore) *PaymentMethodHandler {
	return &PaymentMethodHandler{store: store}
}

// RegisterRoutes registers the read endpoints.
// Expected to be mounted at /api/pedidos/cobros/metodos
func (h *PaymentMethodHandler) RegisterRoutes(r chi.Router) {
	r.Get("/listar/", h.List)
	r.Get("/buscar/", h.Search)
}

// RegisterAdminRoutes registers the mutations; mount behind RequireRole.
func (h *PaymentMethodHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/crear/", h.Create)
	r.Put("/editar/", h.Update)
	r.Post("/eliminar/", h.Delete)
}

type paymentMethodRequest struct {
	Name string `json:"nombre" validate:"required,max=50"`
}

func toMethodRecord(m database.PaymentMethod) payment.MethodRecord {
	return payment.MethodRecord{ID: m.ID, Name: m.Name}
}

// List returns every payment method.
func (h *PaymentMethodHandler) List(w http.ResponseWriter, r *http.Request) {
	methods, err := h.store.ListPaymentMethods(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list payment methods")
		writeDetail(w, http.StatusInternalServerError, internalError)
		return
	}
	resp := make([]payment.MethodRecord, len(methods))
	for i, m := range methods {
		resp[i] = toMethodRecord(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Search filters by ?id= or by ?nombre= (case-insensitive).
func (h *PaymentMethodHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var id int64
	if s := q.Get("id"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "ID inválido.")
			return
		}
		id = v
	}
	name := strings.TrimSpace(q.Get("nombre"))

	methods, err := h.store.ListPaymentMethods(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("search payment methods")
		writeDetail(w, http.StatusInternalServerError, internalError)
		return
	}
	resp := []payment.MethodRecord{}
	for _, m := range methods {
		if id != 0 && m.ID != id {
			continue
		}
		if name != "" && !strings.EqualFold(m.Name, name) {
			continue
		}
		resp = append(resp, toMethodRecord(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create adds a payment method.
func (h *PaymentMethodHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req paymentMethodRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	m, err := h.store.CreatePaymentMethod(r.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		writeMethodError(w, "create payment method", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMethodRecord(m))
}

// Update renames the payment method given by ?id=.
func (h *PaymentMethodHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	var req paymentMethodRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	m, err := h.store.UpdatePaymentMethod(r.Context(), database.UpdatePaymentMethodParams{
		ID:   id,
		Name: strings.TrimSpace(req.Name),
	})
	if err != nil {
		writeMethodError(w, "update payment method", err)
		return
	}
	writeJSON(w, http.StatusOK, toMethodRecord(m))
}

// Delete removes the payment method given by ?id=.
func (h *PaymentMethodHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	n, err := h.store.DeletePaymentMethod(r.Context(), id)
	if err != nil {
		writeMethodError(w, "delete payment method", err)
		return
	}
	if n == 0 {
		writeDetail(w, http.StatusNotFound, "Método de cobro no encontrado.")
		return
	}
	writeJSON(w, http.StatusOK, errorResponse{Detail: "Método de cobro eliminado exitosamente."})
}

func queryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	s := r.URL.Query().Get("id")
	if s == "" {
		writeDetail(w, http.StatusBadRequest, "Falta proporcionar el ID del método de cobro.")
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusBadRequest, "ID inválido.")
		return 0, false
	}
	return id, true
}

func writeMethodError(w http.ResponseWriter, op string, err error) {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		writeDetail(w, http.StatusNotFound, "Método de cobro no encontrado.")
	case errors.As(err, &pgErr) && pgErr.Code == "23505":
		writeFields(w, map[string]string{"nombre": "Ya existe un método de cobro con este nombre."})
	case errors.As(err, &pgErr) && pgErr.Code == "23503":
		writeDetail(w, http.StatusConflict, "El método de cobro está en uso.")
	default:
		log.Error().Err(err).Msg(op)
		writeDetail(w, http.StatusInternalServerError, internalError)
	}
}
