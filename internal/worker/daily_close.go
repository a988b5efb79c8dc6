// Package worker runs the scheduled jobs of the pedidos service.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/comandas-pos/pos/internal/payment"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DailyTotaler is satisfied by *service.PaymentService.
type DailyTotaler interface {
	DailyTotal(ctx context.Context, date string) (payment.DailyTotal, error)
}

// DailyClose logs the day's payment totals by method.
type DailyClose struct {
	totals DailyTotaler
	now    func() time.Time
}

// NewDailyClose creates a DailyClose.
func NewDailyClose(totals DailyTotaler) *DailyClose {
	return &DailyClose{totals: totals, now: time.Now}
}

// Run computes and logs today's close.
func (d *DailyClose) Run(ctx context.Context) (payment.DailyTotal, error) {
	date := d.now().Format(time.DateOnly)
	total, err := d.totals.DailyTotal(ctx, date)
	if err != nil {
		return payment.DailyTotal{}, fmt.Errorf("daily close %s: %w", date, err)
	}
	for _, m := range total.ByMethod {
		log.Info().
			Str("fecha", date).
			Str("metodo_cobro", m.Method).
			Int("cantidad", m.Count).
			Str("total", m.Total.StringFixed(2)).
			Msg("daily close by method")
	}
	log.Info().
		Str("fecha", date).
		Int("cantidad", total.Count).
		Str("total", total.Total.StringFixed(2)).
		Msg("daily close")
	return total, nil
}

// Start schedules the close with a standard five-field cron expression and
// starts the scheduler. Stop the returned cron on shutdown.
func (d *DailyClose) Start(ctx context.Context, schedule string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if _, err := d.Run(ctx); err != nil {
			log.Error().Err(err).Msg("daily close")
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule daily close %q: %w", schedule, err)
	}
	c.Start()
	log.Info().Str("schedule", schedule).Msg("daily close scheduled")
	return c, nil
}
