package repo

import (
	"context"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// OutboxRepositoryPG implements OutboxRepository using PostgreSQL.
type OutboxRepositoryPG struct {
	runner infra.SQLExecutor
}

// NewOutboxRepository creates a new outbox repo.
func NewOutboxRepository(runner infra.SQLExecutor) *OutboxRepositoryPG {
	return &OutboxRepositoryPG{runner: runner}
}

// Enqueue inserts a pending notification message.
func (r *OutboxRepositoryPG) Enqueue(ctx context.Context, msg *domain.EmailMessage) error {
	_, err := r.runner.Exec(ctx, sqlinline.QEnqueueEmail,
		msg.ID, string(msg.Kind), msg.Recipients, msg.Subject, msg.Body)
	return err
}

// ListPending returns the oldest pending messages up to limit.
func (r *OutboxRepositoryPG) ListPending(ctx context.Context, limit int) ([]domain.EmailMessage, error) {
	rows, err := r.runner.Query(ctx, sqlinline.QListPendingEmails, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.EmailMessage
	for rows.Next() {
		var msg domain.EmailMessage
		var kind, status string
		if err := rows.Scan(&msg.ID, &kind, &msg.Recipients, &msg.Subject, &msg.Body,
			&status, &msg.Attempts, &msg.CreatedAt, &msg.SentAt); err != nil {
			return nil, err
		}
		msg.Kind = domain.EmailKind(kind)
		msg.Status = domain.EmailStatus(status)
		items = append(items, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// MarkSent records a successful delivery.
func (r *OutboxRepositoryPG) MarkSent(ctx context.Context, id string) error {
	_, err := r.runner.Exec(ctx, sqlinline.QMarkEmailSent, id)
	return err
}

// MarkFailed records a delivery failure.
func (r *OutboxRepositoryPG) MarkFailed(ctx context.Context, id string) error {
	_, err := r.runner.Exec(ctx, sqlinline.QMarkEmailFailed, id)
	return err
}

var _ domain.OutboxRepository = (*OutboxRepositoryPG)(nil)
