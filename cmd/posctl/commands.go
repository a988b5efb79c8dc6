package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/comandas-pos/pos/internal/catalog"
	"github.com/comandas-pos/pos/internal/customer"
	"github.com/comandas-pos/pos/internal/enum"
	"github.com/comandas-pos/pos/internal/feed"
	"github.com/comandas-pos/pos/internal/order"
	"github.com/comandas-pos/pos/internal/payment"
	"github.com/comandas-pos/pos/internal/suggest"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var errOrderNumber = errors.New("indique el número de pedido con -numero")

func runOrders(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("pedidos", flag.ContinueOnError)
	date, number := a.orderFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	orders, err := a.client.SearchOrders(ctx, a.sess, *date, *number)
	if err != nil {
		return err
	}
	printOrders(a, orders)
	return nil
}

func printOrders(a *app, orders []order.Order) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "N°\tCLIENTE\tHORA\tESTADO\tTOTAL\tSALDO\tPAGADO")
	for _, o := range orders {
		hour := "-"
		if o.RequestedTime != nil {
			hour = *o.RequestedTime
		}
		paid := "no"
		if o.Paid {
			paid = "sí"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			o.Number, o.Customer, hour, o.Status, o.Total.StringFixed(2), o.BalanceDue.StringFixed(2), paid)
	}
	tw.Flush() //nolint:errcheck
}

// draftLine is one ID:CANT[:NOTA] argument of the nuevo command.
type draftLine struct {
	ProductID int64
	Quantity  decimal.Decimal
	Notes     string
}

func parseDraftLine(s string) (draftLine, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return draftLine{}, fmt.Errorf("línea %q: use ID:CANT[:NOTA]", s)
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		return draftLine{}, fmt.Errorf("línea %q: producto inválido", s)
	}
	qty, err := decimal.NewFromString(strings.Replace(parts[1], ",", ".", 1))
	if err != nil || !qty.IsPositive() {
		return draftLine{}, fmt.Errorf("línea %q: cantidad inválida", s)
	}
	line := draftLine{ProductID: id, Quantity: qty}
	if len(parts) == 3 {
		line.Notes = parts[2]
	}
	return line, nil
}

func runNewOrder(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("nuevo", flag.ContinueOnError)
	name := fs.String("cliente", "", "nombre del cliente")
	hour := fs.String("hora", "", "hora de entrega (HH:MM)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	lines := make([]draftLine, 0, fs.NArg())
	for _, arg := range fs.Args() {
		l, err := parseDraftLine(arg)
		if err != nil {
			return err
		}
		lines = append(lines, l)
	}

	idx, inv, err := a.client.LoadCatalog(ctx, a.sess)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	bound := a.client.For(a.sess)
	b := order.NewBuilder(idx, bound, bound)

	b.SetCustomer(suggestCustomer(ctx, a, *name))
	if *hour != "" {
		if err := b.SetRequestedTime(*hour); err != nil {
			return err
		}
	}
	for _, l := range lines {
		p, ok := idx.Product(l.ProductID)
		if !ok {
			return fmt.Errorf("producto %d no encontrado o no disponible", l.ProductID)
		}
		b.AddProduct(p)
		b.SetQuantity(p.ID, l.Quantity)
		if l.Notes != "" {
			b.SetLineNotes(p.ID, l.Notes)
		}
	}

	shortages, err := b.Shortages(inv)
	if err != nil {
		log.Warn().Err(err).Msg("stock check failed")
	}
	for _, s := range shortages {
		fmt.Fprintln(a.out, "aviso: "+s.String())
	}

	created, err := b.Confirm(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Pedido N° %d creado para %s. Total %s\n", created.Number, created.Customer, created.Total.StringFixed(2))
	return nil
}

// suggestCustomer replaces a typed name with the single registered client
// it matches. Lookup failures keep the typed name.
func suggestCustomer(ctx context.Context, a *app, typed string) string {
	if strings.TrimSpace(typed) == "" {
		return typed
	}
	clients, err := a.client.SearchClients(ctx, a.sess, typed)
	if err != nil {
		log.Debug().Err(err).Msg("client lookup failed")
		return typed
	}
	res := suggest.NewMatcher(clients).Match(typed)
	switch res.Status {
	case suggest.Matched:
		if !strings.EqualFold(res.Client.Name, typed) {
			fmt.Fprintf(a.out, "Cliente: %s\n", res.Client.Name)
		}
		return res.Client.Name
	case suggest.Ambiguous:
		fmt.Fprintf(a.out, "Varios clientes coinciden: %s\n", candidateNames(res.Candidates))
	}
	return typed
}

func candidateNames(cs []customer.Client) string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}

func (a *app) findOrder(ctx context.Context, date string, number int) (order.Order, error) {
	if number <= 0 {
		return order.Order{}, errOrderNumber
	}
	orders, err := a.client.SearchOrders(ctx, a.sess, date, number)
	if err != nil {
		return order.Order{}, err
	}
	if len(orders) == 0 {
		return order.Order{}, fmt.Errorf("no existe el pedido %d del %s", number, date)
	}
	return orders[0], nil
}

func runBalance(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("saldo", flag.ContinueOnError)
	date, number := a.orderFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	o, err := a.findOrder(ctx, *date, *number)
	if err != nil {
		return err
	}
	ledger, err := a.client.Ledger(ctx, a.sess, o)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMÉTODO\tMONTO\tESTADO")
	for _, p := range ledger.Payments {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", p.ID, payment.MethodLabel(p.Method), p.Amount.StringFixed(2), p.Status)
	}
	tw.Flush() //nolint:errcheck
	fmt.Fprintf(a.out, "Total %s  Pagado %s  Saldo %s\n",
		ledger.OrderTotal.StringFixed(2), ledger.TotalPaid().StringFixed(2), ledger.BalanceDue().StringFixed(2))
	return nil
}

func runCharge(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("cobrar", flag.ContinueOnError)
	date, number := a.orderFlags(fs)
	method := fs.String("metodo", enum.PaymentMethodCash, "efectivo, debito, credito o mercadopago")
	amount := fs.String("monto", "", "monto base; vacío cobra el saldo completo")
	discount := fs.String("descuento", "0", "descuento en porcentaje")
	surcharge := fs.String("recargo", "0", "recargo en porcentaje")
	bank := fs.String("banco", "", "banco (débito y crédito)")
	installments := fs.Int("cuotas", 1, "cuotas (crédito)")
	reference := fs.String("referencia", "", "referencia (mercadopago)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	o, err := a.findOrder(ctx, *date, *number)
	if err != nil {
		return err
	}
	details, err := payment.DetailsFor(*method, *bank, *reference, *installments)
	if err != nil {
		return err
	}

	var payload payment.SubmitPayload
	if *amount == "" && *discount == "0" && *surcharge == "0" {
		payload, err = payment.CreateFullSettlementPayment(o, details)
	} else {
		payload, err = chargeForm(o, details, *amount, *discount, *surcharge)
	}
	if err != nil {
		return err
	}

	created, err := a.client.CreatePayment(ctx, a.sess, payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Cobro %d registrado: %s %s\n", created.ID, payment.MethodLabel(created.Method), created.Amount.StringFixed(2))
	if created.Remaining.Valid {
		fmt.Fprintf(a.out, "Saldo pendiente: %s\n", created.Remaining.Decimal.StringFixed(2))
	}
	return nil
}

func chargeForm(o order.Order, details payment.Details, amount, discount, surcharge string) (payment.SubmitPayload, error) {
	f := payment.NewForm(o.ID, o.BalanceDue)
	f.Details = details
	if amount != "" {
		v, err := decimal.NewFromString(amount)
		if err != nil {
			return payment.SubmitPayload{}, fmt.Errorf("monto inválido: %q", amount)
		}
		f.Amount = v
	}
	d, err := decimal.NewFromString(discount)
	if err != nil {
		return payment.SubmitPayload{}, fmt.Errorf("descuento inválido: %q", discount)
	}
	s, err := decimal.NewFromString(surcharge)
	if err != nil {
		return payment.SubmitPayload{}, fmt.Errorf("recargo inválido: %q", surcharge)
	}
	f.SetDiscountPct(d)
	f.SetSurchargePct(s)
	return payment.BuildSubmitPayload(f)
}

func runPrint(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("imprimir", flag.ContinueOnError)
	date, number := a.orderFlags(fs)
	path := fs.String("o", "", "archivo de salida (por defecto pedido_FECHA_N.pdf)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *number <= 0 {
		return errOrderNumber
	}
	if *path == "" {
		*path = fmt.Sprintf("pedido_%s_%d.pdf", *date, *number)
	}

	f, err := os.Create(*path)
	if err != nil {
		return err
	}
	if err := a.client.PrintOrder(ctx, a.sess, *date, *number, f); err != nil {
		f.Close()
		os.Remove(*path)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Ticket guardado en "+*path)
	return nil
}

func runDailyTotal(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("total", flag.ContinueOnError)
	date := fs.String("fecha", a.now().Format(time.DateOnly), "fecha (AAAA-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	total, err := a.client.DailyTotal(ctx, a.sess, *date)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MÉTODO\tCANT.\tTOTAL")
	for _, m := range total.ByMethod {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", payment.MethodLabel(m.Method), m.Count, m.Total.StringFixed(2))
	}
	fmt.Fprintf(tw, "TOTAL\t%d\t%s\n", total.Count, total.Total.StringFixed(2))
	return tw.Flush()
}

func runWatch(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	board := feed.NewBoard()
	c := feed.NewConsumer(a.cfg.WSURL, a.sess.AccessToken, board)
	c.Resync = func(ctx context.Context) error {
		orders, err := a.client.SearchOrders(ctx, a.sess, a.now().Format(time.DateOnly), 0)
		if err != nil {
			return err
		}
		products, err := a.client.Products().List(ctx, a.sess)
		if err != nil {
			log.Warn().Err(err).Msg("products not loaded")
			products = []catalog.Product{}
		}
		board.Replace(orders, products)
		printOrders(a, board.Orders())
		return nil
	}
	c.OnMessage = func(m feed.Message) {
		id, _ := m.EntityID()
		fmt.Fprintf(a.out, "[%s] %s %s %d\n", a.now().Format(time.TimeOnly), m.Source, m.Action, id)
		if m.Source == enum.FeedSourceOrders {
			printOrders(a, board.Orders())
		}
	}

	err := c.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
