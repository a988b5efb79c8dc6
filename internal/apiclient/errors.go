package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/comandas-pos/pos/internal/fielderr"
)

// ErrSessionExpired is returned when a 401 could not be recovered by a token
// refresh. The session has been cleared.
var ErrSessionExpired = errors.New("session expired")

// GenericMessage is shown when neither the server nor the client has a more
// specific message.
const GenericMessage = "No se pudo completar la operación. Intente nuevamente."

// APIError is a 4xx/5xx response.
type APIError struct {
	Status int
	Detail string
	Fields map[string]string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Detail)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return fmt.Sprintf("api error %d: %s: %s", e.Status, keys[0], e.Fields[keys[0]])
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// Field returns the server message for a form field, if any.
func (e *APIError) Field(name string) (string, bool) {
	msg, ok := e.Fields[name]
	return msg, ok
}

// NetworkError is a transport failure: the request never got a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return "network error: " + e.Op + ": " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}

// UserMessage renders err for inline display next to a form. Preferred
// fields are consulted in order; the first one present wins.
func UserMessage(err error, preferred ...string) string {
	if err == nil {
		return ""
	}
	if ve, ok := fielderr.As(err); ok {
		return ve.Message
	}
	if errors.Is(err, ErrSessionExpired) {
		return "La sesión expiró. Inicie sesión nuevamente."
	}
	var ae *APIError
	if errors.As(err, &ae) {
		for _, f := range preferred {
			if msg, ok := ae.Field(f); ok {
				return msg
			}
		}
		if ae.Detail != "" {
			return ae.Detail
		}
		if len(ae.Fields) == 1 {
			for _, msg := range ae.Fields {
				return msg
			}
		}
	}
	return GenericMessage
}

// decodeAPIError accepts the body shapes the services produce:
// {"detail": "..."}, {"error": "..."}, {"detail": "...", "fields": {...}}
// and field maps such as {"monto": ["..."]}.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Fields: map[string]string{}}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || len(raw) == 0 {
		return apiErr
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		apiErr.Detail = strings.TrimSpace(string(raw))
		if len(apiErr.Detail) > 200 {
			apiErr.Detail = ""
		}
		return apiErr
	}
	for key, val := range body {
		switch key {
		case "detail", "error", "message", "non_field_errors":
			if msg := firstMessage(val); msg != "" && apiErr.Detail == "" {
				apiErr.Detail = msg
			}
		case "fields":
			var fields map[string]json.RawMessage
			if json.Unmarshal(val, &fields) == nil {
				for f, v := range fields {
					if msg := firstMessage(v); msg != "" {
						apiErr.Fields[f] = msg
					}
				}
			}
		default:
			if msg := firstMessage(val); msg != "" {
				apiErr.Fields[key] = msg
			}
		}
	}
	return apiErr
}

func firstMessage(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}
