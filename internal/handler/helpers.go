package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/comandas-pos/pos/internal/fielderr"
	"github.com/comandas-pos/pos/internal/middleware"
	"github.com/comandas-pos/pos/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Report fields by their JSON name so the client can place the message.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Register decimal.Decimal as a numeric type so that tags like gt=0 work.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// errorResponse is the envelope of every 4xx/5xx response.
type errorResponse struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
}

const internalError = "Error interno del servidor."

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeFields(w http.ResponseWriter, fields map[string]string) {
	detail := "Error de validación."
	if len(fields) == 1 {
		for _, msg := range fields {
			detail = msg
		}
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{Detail: detail, Fields: fields})
}

// decodeAndValidate decodes the JSON body into req and runs its validator
// tags. It writes the error response and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON inválido.")
		return false
	}
	if err := validate.Struct(req); err != nil {
		var ves validator.ValidationErrors
		if !errors.As(err, &ves) {
			writeDetail(w, http.StatusBadRequest, "Solicitud inválida.")
			return false
		}
		fields := make(map[string]string, len(ves))
		for _, fe := range ves {
			fields[fieldPath(fe)] = tagMessage(fe)
		}
		writeFields(w, fields)
		return false
	}
	return true
}

// fieldPath drops the root struct name: "createOrderRequest.productos[0].cantidad_producto"
// becomes "productos[0].cantidad_producto".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Este campo es obligatorio."
	case "gt":
		return "Debe ser mayor a " + fe.Param() + "."
	case "gte":
		return "Debe ser mayor o igual a " + fe.Param() + "."
	case "lte":
		return "Debe ser menor o igual a " + fe.Param() + "."
	case "min":
		return "Debe tener al menos " + fe.Param() + " elemento(s)."
	case "oneof":
		return "Valor inválido, opciones: " + fe.Param() + "."
	case "datetime":
		return "Formato inválido, use " + fe.Param() + "."
	}
	return "Valor inválido."
}

// writeServiceError maps service errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	if ve, ok := fielderr.As(err); ok {
		writeFields(w, map[string]string{ve.Field: ve.Message})
		return
	}
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		writeDetail(w, http.StatusNotFound, "Pedido no encontrado.")
	case errors.Is(err, service.ErrPaymentNotFound):
		writeDetail(w, http.StatusNotFound, "Cobro no encontrado.")
	case errors.Is(err, service.ErrInvalidDate):
		writeFields(w, map[string]string{"fecha": "Fecha inválida, use AAAA-MM-DD."})
	case errors.Is(err, service.ErrOrderFullyPaid):
		writeDetail(w, http.StatusConflict, "El pedido ya está pagado en su totalidad.")
	default:
		log.Error().Err(err).Msg(op)
		writeDetail(w, http.StatusInternalServerError, internalError)
	}
}

// orderKeyFromQuery reads the fecha/numero pair that identifies an order.
func orderKeyFromQuery(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	q := r.URL.Query()
	date := q.Get("fecha")
	if date == "" {
		writeFields(w, map[string]string{"fecha": "Este campo es obligatorio."})
		return "", 0, false
	}
	number, err := strconv.Atoi(q.Get("numero"))
	if err != nil || number <= 0 {
		writeFields(w, map[string]string{"numero": "Número de pedido inválido."})
		return "", 0, false
	}
	return date, number, true
}

func userID(r *http.Request) int64 {
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		return claims.UserID
	}
	return 0
}
