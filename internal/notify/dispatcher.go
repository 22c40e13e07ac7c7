package notify

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/infra/mail"
)

var (
	emailsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_emails_delivered_total",
		Help: "Outbox messages delivered, by kind.",
	}, []string{"kind"})
	emailsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_emails_failed_total",
		Help: "Outbox messages that failed delivery, by kind.",
	}, []string{"kind"})
)

// Dispatcher drains the notification outbox. It polls for pending messages
// and hands each one to the mail sender; failures are recorded on the row
// and never retried within the same batch.
type Dispatcher struct {
	outbox    domain.OutboxRepository
	sender    mail.Sender
	logger    zerolog.Logger
	interval  time.Duration
	batchSize int
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(outbox domain.OutboxRepository, sender mail.Sender, logger zerolog.Logger, interval time.Duration, batchSize int) *Dispatcher {
	return &Dispatcher{
		outbox:    outbox,
		sender:    sender,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
	}
}

// RunOnce processes one batch of pending messages and returns how many were
// delivered.
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	pending, err := d.outbox.ListPending(ctx, d.batchSize)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, msg := range pending {
		if err := d.sender.Send(ctx, msg.Recipients, msg.Subject, msg.Body); err != nil {
			d.logger.Error().Err(err).Str("email_id", msg.ID).Str("kind", string(msg.Kind)).Msg("email delivery failed")
			emailsFailed.WithLabelValues(string(msg.Kind)).Inc()
			if markErr := d.outbox.MarkFailed(ctx, msg.ID); markErr != nil {
				d.logger.Error().Err(markErr).Str("email_id", msg.ID).Msg("mark failed")
			}
			continue
		}
		emailsDelivered.WithLabelValues(string(msg.Kind)).Inc()
		if err := d.outbox.MarkSent(ctx, msg.ID); err != nil {
			d.logger.Error().Err(err).Str("email_id", msg.ID).Msg("mark sent")
			continue
		}
		delivered++
	}
	return delivered, nil
}

// Run polls the outbox until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info().Dur("interval", d.interval).Int("batch_size", d.batchSize).Msg("outbox dispatcher started")
	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("outbox dispatcher stopping")
			return ctx.Err()
		case <-ticker.C:
			if n, err := d.RunOnce(ctx); err != nil {
				d.logger.Error().Err(err).Msg("outbox poll failed")
			} else if n > 0 {
				d.logger.Info().Int("delivered", n).Msg("outbox batch delivered")
			}
		}
	}
}
