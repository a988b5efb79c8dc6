package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/comandas-pos/pos/internal/customer"
	"github.com/comandas-pos/pos/internal/order"
	"github.com/comandas-pos/pos/internal/payment"
)

func orderQuery(date string, number int) url.Values {
	return url.Values{"fecha": {date}, "numero": {strconv.Itoa(number)}}
}

// CreateOrder submits a new order. The service assigns its number.
func (c *Client) CreateOrder(ctx context.Context, sess *Session, p order.CreatePayload) (order.Order, error) {
	var out order.Order
	err := c.do(ctx, sess, http.MethodPost, c.endpoints.Pedidos+"/crear/", p, &out)
	return out, err
}

// SearchOrders lists the orders of a date ("YYYY-MM-DD"). A non-zero number
// narrows the result to that order.
func (c *Client) SearchOrders(ctx context.Context, sess *Session, date string, number int) ([]order.Order, error) {
	q := url.Values{"fecha": {date}}
	if number > 0 {
		q.Set("numero_pedido", strconv.Itoa(number))
	}
	var out []order.Order
	if err := c.do(ctx, sess, http.MethodGet, withQuery(c.endpoints.Pedidos+"/buscar/", q), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateOrder applies a partial update to the order identified by date and number.
func (c *Client) UpdateOrder(ctx context.Context, sess *Session, date string, number int, p order.UpdatePayload) (order.Order, error) {
	var out order.Order
	err := c.do(ctx, sess, http.MethodPut, withQuery(c.endpoints.Pedidos+"/editar/", orderQuery(date, number)), p, &out)
	return out, err
}

// DeleteOrder removes an order and its payments.
func (c *Client) DeleteOrder(ctx context.Context, sess *Session, date string, number int) error {
	return c.do(ctx, sess, http.MethodPost, withQuery(c.endpoints.Pedidos+"/eliminar/", orderQuery(date, number)), nil, nil)
}

// PrintOrder writes the PDF ticket of an order to w.
func (c *Client) PrintOrder(ctx context.Context, sess *Session, date string, number int, w io.Writer) error {
	return c.do(ctx, sess, http.MethodPost, withQuery(c.endpoints.Pedidos+"/imprimir/", orderQuery(date, number)), nil, w)
}

// OrderBalance fetches the payment summary of an order.
func (c *Client) OrderBalance(ctx context.Context, sess *Session, date string, number int) (order.Balance, error) {
	var out order.Balance
	err := c.do(ctx, sess, http.MethodGet, withQuery(c.endpoints.Pedidos+"/saldo_pendiente/", orderQuery(date, number)), nil, &out)
	return out, err
}

// CreatePayment records a payment against an order.
func (c *Client) CreatePayment(ctx context.Context, sess *Session, p payment.SubmitPayload) (payment.Payment, error) {
	var out payment.Payment
	err := c.do(ctx, sess, http.MethodPost, c.endpoints.Pedidos+"/cobros/", p, &out)
	return out, err
}

// ListPayments returns every payment of an order, cancelled ones included.
func (c *Client) ListPayments(ctx context.Context, sess *Session, orderID int64) ([]payment.Payment, error) {
	var out []payment.Payment
	if err := c.do(ctx, sess, http.MethodGet, fmt.Sprintf("%s/cobros/listar/%d", c.endpoints.Pedidos, orderID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdatePayment replaces a payment.
func (c *Client) UpdatePayment(ctx context.Context, sess *Session, id int64, p payment.SubmitPayload) (payment.Payment, error) {
	var out payment.Payment
	err := c.do(ctx, sess, http.MethodPut, fmt.Sprintf("%s/cobros/%d/", c.endpoints.Pedidos, id), p, &out)
	return out, err
}

// DeletePayment removes a payment.
func (c *Client) DeletePayment(ctx context.Context, sess *Session, id int64) error {
	return c.do(ctx, sess, http.MethodDelete, fmt.Sprintf("%s/cobros/%d/", c.endpoints.Pedidos, id), nil, nil)
}

// DailyTotal sums the active payments of a date.
func (c *Client) DailyTotal(ctx context.Context, sess *Session, date string) (payment.DailyTotal, error) {
	var out payment.DailyTotal
	err := c.do(ctx, sess, http.MethodGet, c.endpoints.Pedidos+"/cobros/total/"+url.PathEscape(date), nil, &out)
	return out, err
}

// Ledger loads an order's payments into a payment.Ledger.
func (c *Client) Ledger(ctx context.Context, sess *Session, o order.Order) (payment.Ledger, error) {
	payments, err := c.ListPayments(ctx, sess, o.ID)
	if err != nil {
		return payment.Ledger{}, err
	}
	return payment.NewLedger(o.Total, payments), nil
}

// PaymentMethods is the payment method registry.
func (c *Client) PaymentMethods() Resource[payment.MethodRecord] {
	return Resource[payment.MethodRecord]{c: c, base: c.endpoints.Pedidos + "/cobros/metodos"}
}

// ListClients returns every registered client.
func (c *Client) ListClients(ctx context.Context, sess *Session) ([]customer.Client, error) {
	var out []customer.Client
	if err := c.do(ctx, sess, http.MethodGet, c.endpoints.Clientes+"/listar/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateClient registers a client.
func (c *Client) CreateClient(ctx context.Context, sess *Session, cl customer.Client) (customer.Client, error) {
	var out customer.Client
	err := c.do(ctx, sess, http.MethodPost, c.endpoints.Clientes+"/crear/", cl, &out)
	return out, err
}

// SearchClients looks clients up by name.
func (c *Client) SearchClients(ctx context.Context, sess *Session, name string) ([]customer.Client, error) {
	var out []customer.Client
	q := url.Values{"nombre": {name}}
	if err := c.do(ctx, sess, http.MethodGet, withQuery(c.endpoints.Clientes+"/buscar/", q), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Bound binds a Client to one session so it can serve the narrow interfaces
// the order builder and the client suggester consume.
type Bound struct {
	c    *Client
	sess *Session
}

// For returns c bound to sess.
func (c *Client) For(sess *Session) *Bound {
	return &Bound{c: c, sess: sess}
}

func (b *Bound) CreateOrder(ctx context.Context, p order.CreatePayload) (order.Order, error) {
	return b.c.CreateOrder(ctx, b.sess, p)
}

func (b *Bound) CreateClient(ctx context.Context, cl customer.Client) (customer.Client, error) {
	return b.c.CreateClient(ctx, b.sess, cl)
}

func (b *Bound) SearchClients(ctx context.Context, name string) ([]customer.Client, error) {
	return b.c.SearchClients(ctx, b.sess, name)
}
