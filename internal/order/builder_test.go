package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/comandas-pos/pos/internal/catalog"
	"github.com/comandas-pos/pos/internal/customer"
	"github.com/comandas-pos/pos/internal/fielderr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeSubmitter struct {
	payloads []CreatePayload
	err      error
}

func (f *fakeSubmitter) CreateOrder(_ context.Context, p CreatePayload) (Order, error) {
	f.payloads = append(f.payloads, p)
	if f.err != nil {
		return Order{}, f.err
	}
	total := decimal.Zero
	for _, l := range p.Products {
		total = total.Add(l.Quantity.Mul(l.UnitPrice))
	}
	return Order{ID: 1, Number: 1, Date: p.Date, Customer: p.Customer, Total: total}, nil
}

type fakeClients struct {
	created []customer.Client
	err     error
}

func (f *fakeClients) CreateClient(_ context.Context, c customer.Client) (customer.Client, error) {
	f.created = append(f.created, c)
	return c, f.err
}

var (
	empanada = catalog.Product{ID: 1, Name: "Empanada", UnitPrice: dec("250"), Available: true, Category: &catalog.Category{Name: "Comidas"}}
	pizza    = catalog.Product{ID: 2, Name: "Pizza", UnitPrice: dec("500"), Available: true, Category: &catalog.Category{Name: "Comidas"}}
	gaseosa  = catalog.Product{ID: 3, Name: "Gaseosa", UnitPrice: dec("333.33"), Available: true, Category: &catalog.Category{Name: "Bebidas"}}
)

func newTestBuilder(sub Submitter, clients ClientCreator) *Builder {
	idx := catalog.NewIndex([]catalog.Product{empanada, pizza, gaseosa})
	b := NewBuilder(idx, sub, clients)
	b.now = func() time.Time { return time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC) }
	return b
}

func assertLineInvariant(t *testing.T, b *Builder) {
	t.Helper()
	sum := decimal.Zero
	for _, l := range b.Lines() {
		assert.True(t, l.Subtotal.Equal(l.Quantity.Mul(l.UnitPrice).Round(2)),
			"line %d: subtotal %s != %s * %s", l.ProductID, l.Subtotal, l.Quantity, l.UnitPrice)
		sum = sum.Add(l.Subtotal)
	}
	assert.True(t, b.Total().Equal(sum))
}

func TestAddProduct_SameProductIncrementsQuantity(t *testing.T) {
	b := newTestBuilder(&fakeSubmitter{}, nil)
	b.AddProduct(empanada)
	b.AddProduct(empanada)

	lines := b.Lines()
	require.Len(t, lines, 1)
	assert.True(t, lines[0].Quantity.Equal(dec("2")))
	assert.True(t, lines[0].Subtotal.Equal(dec("500")))
	assertLineInvariant(t, b)
}

func TestAddProduct_KeepsSnapshotPrice(t *testing.T) {
	b := newTestBuilder(&fakeSubmitter{}, nil)
	b.AddProduct(empanada)

	repriced := empanada
	repriced.UnitPrice = dec("300")
	b.AddProduct(repriced)

	lines := b.Lines()
	require.Len(t, lines, 1)
	assert.True(t, lines[0].UnitPrice.Equal(dec("250")))
	assert.True(t, lines[0].Subtotal.Equal(dec("500")))
}

func TestSetQuantity_Fractional(t *testing.T) {
	b := newTestBuilder(&fakeSubmitter{}, nil)
	b.AddProduct(gaseosa)
	b.SetQuantity(gaseosa.ID, dec("1.5"))

	lines := b.Lines()
	require.Len(t, lines, 1)
	// 333.33 * 1.5 = 499.995
	assert.True(t, lines[0].Subtotal.Equal(dec("500")), "subtotal %s", lines[0].Subtotal)
	assertLineInvariant(t, b)
}

func TestSetQuantity_ZeroOrNegativeRemoves(t *testing.T) {
	for _, qty := range []string{"0", "-1"} {
		t.Run(qty, func(t *testing.T) {
			b := newTestBuilder(&fakeSubmitter{}, nil)
			b.AddProduct(empanada)
			b.AddProduct(pizza)
			b.SetQuantity(empanada.ID, dec(qty))

			lines := b.Lines()
			require.Len(t, lines, 1)
			assert.Equal(t, pizza.ID, lines[0].ProductID)
			assert.True(t, b.Total().Equal(dec("500")))
		})
	}
}

func TestSetQuantity_RoundsToThreeDecimals(t *testing.T) {
	b := newTestBuilder(&fakeSubmitter{}, nil)
	b.AddProduct(pizza)
	b.SetQuantity(pizza.ID, dec("1.0005"))

	lines := b.Lines()
	require.Len(t, lines, 1)
	assert.True(t, lines[0].Quantity.Equal(dec("1.001")), "quantity %s", lines[0].Quantity)
	assert.True(t, lines[0].Subtotal.Equal(dec("500.5")), "subtotal %s", lines[0].Subtotal)
	assertLineInvariant(t, b)

	b.SetQuantity(pizza.ID, dec("0.0004"))
	assert.Empty(t, b.Lines())
}

func TestSetQuantity_UnknownProductIsNoop(t *testing.T) {
	b := newTestBuilder(&fakeSubmitter{}, nil)
	b.AddProduct(empanada)
	b.SetQuantity(99, dec("4"))
	assert.Len(t, b.Lines(), 1)
}

func TestRemoveLineAndNotes(t *testing.T) {
	b := newTestBuilder(&fakeSubmitter{}, nil)
	b.AddProduct(empanada)
	b.AddProduct(pizza)
	b.SetLineNotes(pizza.ID, "sin aceitunas")
	b.RemoveLine(empanada.ID)

	lines := b.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "sin aceitunas", lines[0].Notes)
}

func TestLineInvariant_RandomSequence(t *testing.T) {
	b := newTestBuilder(&fakeSubmitter{}, nil)
	steps := []func(){
		func() { b.AddProduct(gaseosa) },
		func() { b.AddProduct(empanada) },
		func() { b.SetQuantity(gaseosa.ID, dec("2.75")) },
		func() { b.AddProduct(gaseosa) },
		func() { b.SetQuantity(empanada.ID, dec("0.1")) },
		func() { b.AddProduct(pizza) },
		func() { b.SetQuantity(pizza.ID, dec("-3")) },
		func() { b.AddProduct(empanada) },
	}
	for _, step := range steps {
		step()
		assertLineInvariant(t, b)
	}
}

func TestTotal_EndToEndExample(t *testing.T) {
	b := newTestBuilder(&fakeSubmitter{}, nil)
	b.AddProduct(empanada)
	b.AddProduct(empanada)
	b.AddProduct(pizza)
	assert.True(t, b.Total().Equal(dec("1000")))
}

func TestFilterByCategory_UnavailableKeepsExistingLine(t *testing.T) {
	off := empanada
	off.Available = false
	idx := catalog.NewIndex([]catalog.Product{off, pizza})
	b := NewBuilder(idx, &fakeSubmitter{}, nil)

	b.AddProduct(empanada)
	visible := b.FilterByCategory("Comidas")
	require.Len(t, visible, 1)
	assert.Equal(t, pizza.ID, visible[0].ID)
	assert.Len(t, b.Lines(), 1)
}

func TestVisibleProducts(t *testing.T) {
	b := newTestBuilder(&fakeSubmitter{}, nil)
	b.FilterByCategory("Comidas")
	b.FilterBySearchTerm("piz")
	got := b.VisibleProducts()
	require.Len(t, got, 1)
	assert.Equal(t, pizza.ID, got[0].ID)
}

func TestConfirm_Validation(t *testing.T) {
	sub := &fakeSubmitter{}
	b := newTestBuilder(sub, nil)

	_, err := b.Confirm(context.Background())
	ve, ok := fielderr.As(err)
	require.True(t, ok)
	assert.Equal(t, "cliente", ve.Field)

	b.SetCustomer("  Ana ")
	_, err = b.Confirm(context.Background())
	ve, ok = fielderr.As(err)
	require.True(t, ok)
	assert.Equal(t, "productos", ve.Field)
	assert.Empty(t, sub.payloads)
}

func TestConfirm_SubmitsAndResets(t *testing.T) {
	sub := &fakeSubmitter{}
	clients := &fakeClients{}
	b := newTestBuilder(sub, clients)
	var notified *Order
	b.OnCreated = func(o Order) { notified = &o }

	b.SetCustomer(" Ana ")
	require.NoError(t, b.SetRequestedTime("21:30"))
	b.AddProduct(empanada)
	b.SetLineNotes(empanada.ID, "de carne")

	created, err := b.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	require.NotNil(t, notified)

	require.Len(t, sub.payloads, 1)
	p := sub.payloads[0]
	assert.Equal(t, 0, p.Number)
	assert.Equal(t, "2025-03-14", p.Date)
	assert.Equal(t, "Ana", p.Customer)
	require.NotNil(t, p.RequestedTime)
	assert.Equal(t, "21:30", *p.RequestedTime)
	assert.Equal(t, "PENDIENTE", p.Status)
	assert.NotEmpty(t, p.DraftRef)
	require.Len(t, p.Products, 1)
	assert.Equal(t, "de carne", p.Products[0].Notes)

	require.Len(t, clients.created, 1)
	assert.Equal(t, "Ana", clients.created[0].Name)

	assert.Empty(t, b.Lines())
	assert.Equal(t, "", b.Customer())
}

func TestConfirm_ClientCreationFailureIsTolerated(t *testing.T) {
	sub := &fakeSubmitter{}
	b := newTestBuilder(sub, &fakeClients{err: errors.New("duplicate")})
	b.SetCustomer("Ana")
	b.AddProduct(pizza)

	_, err := b.Confirm(context.Background())
	require.NoError(t, err)
	assert.Len(t, sub.payloads, 1)
}

func TestConfirm_FailureKeepsDraft(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("connection refused")}
	b := newTestBuilder(sub, nil)
	b.SetCustomer("Ana")
	b.AddProduct(pizza)

	_, err := b.Confirm(context.Background())
	require.Error(t, err)
	assert.Len(t, b.Lines(), 1)
	assert.Equal(t, "Ana", b.Customer())

	// The retry carries the same draft reference.
	_, _ = b.Confirm(context.Background())
	require.Len(t, sub.payloads, 2)
	assert.Equal(t, sub.payloads[0].DraftRef, sub.payloads[1].DraftRef)
}

func TestConfirm_RetryDoesNotRecreateClient(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("connection refused")}
	clients := &fakeClients{}
	b := newTestBuilder(sub, clients)
	b.SetCustomer("Ana")
	b.AddProduct(pizza)

	_, err := b.Confirm(context.Background())
	require.Error(t, err)
	_, err = b.Confirm(context.Background())
	require.Error(t, err)
	assert.Len(t, clients.created, 1)

	// A different customer on the same draft is still registered.
	b.SetCustomer("Beto")
	sub.err = nil
	_, err = b.Confirm(context.Background())
	require.NoError(t, err)
	assert.Len(t, clients.created, 2)

	// The next draft starts over.
	b.SetCustomer("Beto")
	b.AddProduct(pizza)
	_, err = b.Confirm(context.Background())
	require.NoError(t, err)
	assert.Len(t, clients.created, 3)
}

func TestSetRequestedTime_Invalid(t *testing.T) {
	b := newTestBuilder(&fakeSubmitter{}, nil)
	err := b.SetRequestedTime("25:99")
	_, ok := fielderr.As(err)
	assert.True(t, ok)
	require.NoError(t, b.SetRequestedTime(""))
	assert.Nil(t, b.Payload().RequestedTime)
}

func TestShortages(t *testing.T) {
	stock := dec("1")
	limited := catalog.Product{ID: 4, Name: "Flan", UnitPrice: dec("100"), Available: true, Stock: &stock}
	idx := catalog.NewIndex([]catalog.Product{limited})
	b := NewBuilder(idx, &fakeSubmitter{}, nil)
	b.AddProduct(limited)
	b.AddProduct(limited)

	short, err := b.Shortages(catalog.NewInventory(nil, nil))
	require.NoError(t, err)
	require.Len(t, short, 1)
	assert.Equal(t, int64(4), short[0].ProductID)
}

func TestNextOrderNumber(t *testing.T) {
	assert.Equal(t, 1, NextOrderNumber(nil))
	assert.Equal(t, 8, NextOrderNumber([]Order{{Number: 3}, {Number: 7}, {Number: 5}}))
}
