// Command posctl is the terminal client of the pedidos service.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/comandas-pos/pos/internal/apiclient"
	"github.com/comandas-pos/pos/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type app struct {
	cfg    *config.ClientConfig
	client *apiclient.Client
	sess   *apiclient.Session
	out    io.Writer
	now    func() time.Time
}

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"pedidos":  {"pedidos [-fecha AAAA-MM-DD] [-numero N]  lista los pedidos del día", runOrders},
	"nuevo":    {"nuevo -cliente NOMBRE [-hora HH:MM] ID:CANT[:NOTA]...  carga un pedido", runNewOrder},
	"saldo":    {"saldo [-fecha F] -numero N  muestra cobros y saldo pendiente", runBalance},
	"cobrar":   {"cobrar [-fecha F] -numero N [-metodo M] [-monto X] [-descuento P] [-recargo P]  registra un cobro", runCharge},
	"imprimir": {"imprimir [-fecha F] -numero N [-o archivo.pdf]  descarga el ticket", runPrint},
	"total":    {"total [-fecha F]  total cobrado por método", runDailyTotal},
	"watch":    {"watch  sigue los pedidos en vivo", runWatch},
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && level != zerolog.NoLevel {
		zerolog.SetGlobalLevel(level)
	}

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		usage(os.Stderr)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{
		cfg: cfg,
		client: apiclient.New(apiclient.Endpoints{
			Pedidos:   cfg.BaseURL + "/api/pedidos",
			Productos: cfg.ProductosURL + "/api/productos",
			Clientes:  cfg.ClientesURL + "/api/clientes",
			Usuarios:  cfg.UsuariosURL,
		}),
		sess: apiclient.NewSession(cfg.AccessToken, cfg.RefreshToken, apiclient.User{}),
		out:  os.Stdout,
		now:  time.Now,
	}
	if err := cmd.run(ctx, a, os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, apiclient.UserMessage(err))
		log.Debug().Err(err).Str("command", os.Args[1]).Msg("command failed")
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "uso: posctl <comando> [opciones]")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(w, "  "+commands[name].usage)
	}
}

// orderFlags registers the -fecha/-numero pair shared by order commands.
func (a *app) orderFlags(fs *flag.FlagSet) (*string, *int) {
	date := fs.String("fecha", a.now().Format(time.DateOnly), "fecha del pedido (AAAA-MM-DD)")
	number := fs.Int("numero", 0, "número de pedido")
	return date, number
}
