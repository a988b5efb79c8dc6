// Package feed consumes the live order/product push channel and keeps a
// local board of the current state.
package feed

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/comandas-pos/pos/internal/catalog"
	"github.com/comandas-pos/pos/internal/enum"
	"github.com/comandas-pos/pos/internal/order"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrUnknownSource = errors.New("unknown source")
	ErrMissingEntity = errors.New("message carries no entity or id")
)

// Message is one push event. Legacy messages ({action, pedido}) decode with
// Source set to pedidos.
type Message struct {
	Source  string           `json:"source"`
	Action  string           `json:"action"`
	ID      *int64           `json:"id,omitempty"`
	Order   *order.Order     `json:"pedido,omitempty"`
	Product *catalog.Product `json:"producto,omitempty"`
}

// EntityID is the id the message refers to.
func (m Message) EntityID() (int64, bool) {
	if m.ID != nil {
		return *m.ID, true
	}
	switch m.Source {
	case enum.FeedSourceOrders:
		if m.Order != nil {
			return m.Order.ID, true
		}
	case enum.FeedSourceProducts:
		if m.Product != nil {
			return m.Product.ID, true
		}
	}
	return 0, false
}

// Decode parses and validates a raw push message.
func Decode(raw []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if m.Source == "" {
		m.Source = enum.FeedSourceOrders
	}
	switch m.Source {
	case enum.FeedSourceOrders, enum.FeedSourceProducts:
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownSource, m.Source)
	}
	switch m.Action {
	case enum.FeedActionCreate, enum.FeedActionUpdate, enum.FeedActionDelete:
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownAction, m.Action)
	}
	if _, ok := m.EntityID(); !ok {
		return Message{}, ErrMissingEntity
	}
	if m.Action != enum.FeedActionDelete {
		if (m.Source == enum.FeedSourceOrders && m.Order == nil) ||
			(m.Source == enum.FeedSourceProducts && m.Product == nil) {
			return Message{}, ErrMissingEntity
		}
	}
	return m, nil
}
