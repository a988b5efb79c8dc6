package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/comandas-pos/pos/internal/auth"
	"github.com/comandas-pos/pos/internal/config"
	"github.com/comandas-pos/pos/internal/database"
	"github.com/comandas-pos/pos/internal/enum"
	"github.com/comandas-pos/pos/internal/payment"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// CLI flags
	issueToken := flag.Bool("token", false, "Print a superuser access token for local testing")
	userID := flag.Int64("user", 1, "User ID carried by the token")
	ttl := flag.Duration("ttl", 12*time.Hour, "Token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to connect to database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("unable to ping database")
	}
	log.Info().Msg("connected to database")

	// Seed in a transaction: all methods or none
	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := seedPaymentMethods(ctx, tx); err != nil {
		log.Fatal().Err(err).Msg("failed to seed payment methods")
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to commit")
	}
	log.Info().Msg("seed completed successfully")

	if *issueToken {
		token, err := auth.GenerateToken(cfg.JWTSecret, *userID, enum.UserRoleAdmin, true, *ttl)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to issue token")
		}
		fmt.Println(token)
	}
}

// seedPaymentMethods registers one method per known payment kind. Existing
// names are left as they are.
func seedPaymentMethods(ctx context.Context, tx pgx.Tx) error {
	q := database.New(tx)
	for _, m := range payment.Methods() {
		rec, err := q.UpsertPaymentMethod(ctx, payment.MethodLabel(m))
		if err != nil {
			return fmt.Errorf("upsert %s: %w", m, err)
		}
		log.Info().Int64("id", rec.ID).Str("nombre", rec.Name).Msg("payment method ready")
	}
	return nil
}
