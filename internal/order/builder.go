package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/comandas-pos/pos/internal/catalog"
	"github.com/comandas-pos/pos/internal/customer"
	"github.com/comandas-pos/pos/internal/enum"
	"github.com/comandas-pos/pos/internal/fielderr"
	"github.com/comandas-pos/pos/internal/pricing"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Submitter sends a creation payload to the pedidos service.
type Submitter interface {
	CreateOrder(ctx context.Context, payload CreatePayload) (Order, error)
}

// ClientCreator registers the typed customer as a client.
type ClientCreator interface {
	CreateClient(ctx context.Context, c customer.Client) (customer.Client, error)
}

// Line is a draft order line. Subtotal is always derived from Quantity and
// the UnitPrice captured when the product was first added.
type Line struct {
	ProductID   int64
	ProductName string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
	Notes       string
}

func (l *Line) recompute() {
	l.Subtotal = pricing.LineSubtotal(l.Quantity, l.UnitPrice)
}

// Builder holds a draft order.
type Builder struct {
	index   *catalog.Index
	submit  Submitter
	clients ClientCreator
	now     func() time.Time

	// OnCreated runs after a successful Confirm.
	OnCreated func(Order)

	category      string
	customer      string
	requestedTime *string
	search        string
	lines         []Line
	draftRef      uuid.UUID
	clientCreated string // customer already registered for draftRef
}

// NewBuilder creates an empty draft over idx. clients may be nil.
func NewBuilder(idx *catalog.Index, submit Submitter, clients ClientCreator) *Builder {
	if idx == nil {
		idx = catalog.NewIndex(nil)
	}
	b := &Builder{
		index:   idx,
		submit:  submit,
		clients: clients,
		now:     time.Now,
	}
	b.reset()
	return b
}

func (b *Builder) reset() {
	b.category = b.index.DefaultCategory()
	b.customer = ""
	b.requestedTime = nil
	b.search = ""
	b.lines = nil
	b.draftRef = uuid.New()
	b.clientCreated = ""
}

// --- Catalog views ---

// FilterByCategory selects the category to browse and returns its available
// products.
func (b *Builder) FilterByCategory(name string) []catalog.Product {
	b.category = name
	return b.index.ByCategory(name)
}

// FilterBySearchTerm sets the search term and returns matching products.
func (b *Builder) FilterBySearchTerm(term string) []catalog.Product {
	b.search = term
	return b.index.Search(term)
}

// VisibleProducts is the selected category narrowed by the search term.
func (b *Builder) VisibleProducts() []catalog.Product {
	return b.index.Visible(b.category, b.search)
}

// Category returns the selected category.
func (b *Builder) Category() string { return b.category }

// --- Draft header ---

// SetCustomer sets the free-text customer name.
func (b *Builder) SetCustomer(name string) { b.customer = name }

// Customer returns the typed customer name.
func (b *Builder) Customer() string { return b.customer }

// SetRequestedTime sets the delivery time as HH:MM. An empty string clears it.
func (b *Builder) SetRequestedTime(hhmm string) error {
	hhmm = strings.TrimSpace(hhmm)
	if hhmm == "" {
		b.requestedTime = nil
		return nil
	}
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return fielderr.New("para_hora", "Hora inválida, use HH:MM.")
	}
	s := t.Format("15:04")
	b.requestedTime = &s
	return nil
}

// --- Lines ---

// AddProduct adds one unit of p. An existing line keeps its original price.
func (b *Builder) AddProduct(p catalog.Product) {
	if i := b.find(p.ID); i >= 0 {
		l := &b.lines[i]
		l.Quantity = l.Quantity.Add(decimal.NewFromInt(1))
		l.recompute()
		return
	}
	l := Line{
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   pricing.Round2(p.UnitPrice),
	}
	l.recompute()
	b.lines = append(b.lines, l)
}

// SetQuantity updates a line's quantity, rounded to three decimals. A
// quantity that rounds to zero or below removes the line.
func (b *Builder) SetQuantity(productID int64, qty decimal.Decimal) {
	i := b.find(productID)
	if i < 0 {
		return
	}
	qty = pricing.RoundQuantity(qty)
	if !qty.IsPositive() {
		b.removeAt(i)
		return
	}
	b.lines[i].Quantity = qty
	b.lines[i].recompute()
}

// RemoveLine drops the line for productID.
func (b *Builder) RemoveLine(productID int64) {
	if i := b.find(productID); i >= 0 {
		b.removeAt(i)
	}
}

// SetLineNotes sets free-text notes on a line.
func (b *Builder) SetLineNotes(productID int64, text string) {
	if i := b.find(productID); i >= 0 {
		b.lines[i].Notes = text
	}
}

// Lines returns a copy of the draft lines.
func (b *Builder) Lines() []Line {
	out := make([]Line, len(b.lines))
	copy(out, b.lines)
	return out
}

// Total is the sum of line subtotals. The server recomputes it.
func (b *Builder) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range b.lines {
		total = total.Add(l.Subtotal)
	}
	return total
}

// Shortages reports lines that exceed current stock. It never blocks Confirm.
func (b *Builder) Shortages(inv *catalog.Inventory) ([]catalog.Shortage, error) {
	var out []catalog.Shortage
	for _, l := range b.lines {
		p, ok := b.index.Product(l.ProductID)
		if !ok {
			continue
		}
		s, err := inv.Check(p, l.Quantity)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", l.ProductName, err)
		}
		out = append(out, s...)
	}
	return out, nil
}

func (b *Builder) find(productID int64) int {
	for i, l := range b.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (b *Builder) removeAt(i int) {
	b.lines = append(b.lines[:i], b.lines[i+1:]...)
}

// --- Submission ---

// Validate checks the draft can be submitted.
func (b *Builder) Validate() error {
	if strings.TrimSpace(b.customer) == "" {
		return fielderr.New("cliente", "Ingrese el nombre del cliente.")
	}
	if len(b.lines) == 0 {
		return fielderr.New("productos", "El pedido debe tener al menos un producto.")
	}
	return nil
}

// Payload serializes the draft. The order number is left to the server.
func (b *Builder) Payload() CreatePayload {
	products := make([]PayloadLine, len(b.lines))
	for i, l := range b.lines {
		products[i] = PayloadLine{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Notes:       l.Notes,
		}
	}
	return CreatePayload{
		Date:          b.now().Format(time.DateOnly),
		Customer:      strings.TrimSpace(b.customer),
		RequestedTime: b.requestedTime,
		Status:        enum.OrderStatusPending,
		DraftRef:      b.draftRef.String(),
		Products:      products,
	}
}

// Confirm validates and submits the draft. On success the builder is reset
// and OnCreated runs; on failure the draft is kept so it can be resubmitted.
// Resubmitting the same draft carries the same draft reference, which the
// server uses to avoid creating duplicates.
func (b *Builder) Confirm(ctx context.Context) (Order, error) {
	if err := b.Validate(); err != nil {
		return Order{}, err
	}
	payload := b.Payload()

	if b.clients != nil && b.clientCreated != payload.Customer {
		if _, err := b.clients.CreateClient(ctx, customer.Client{Name: payload.Customer}); err != nil {
			log.Debug().Err(err).Str("cliente", payload.Customer).Msg("client not created")
		} else {
			b.clientCreated = payload.Customer
		}
	}

	created, err := b.submit.CreateOrder(ctx, payload)
	if err != nil {
		return Order{}, fmt.Errorf("submit order: %w", err)
	}

	b.reset()
	if b.OnCreated != nil {
		b.OnCreated(created)
	}
	return created, nil
}
