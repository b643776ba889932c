package workflow

import (
	"context"

	"bitbucket.org/qsrfocus/audits_backend/models"
	"gorm.io/gorm"
)

// CompletionNotifier receives the completion event of an audit. Notification
// is best effort: a failing notifier is logged and never rolls back the
// completing transaction.
type CompletionNotifier interface {
	NotifyCompleted(ctx context.Context, tx *gorm.DB, audit *models.Audit, payload *models.AuditCompletedPayload) error
}

// outboxNotifier writes the transactional outbox row; the dispatcher does
// the actual Pub/Sub publish after commit.
type outboxNotifier struct{}

func (outboxNotifier) NotifyCompleted(ctx context.Context, tx *gorm.DB, audit *models.Audit, payload *models.AuditCompletedPayload) error {
	return models.PublishAuditCompleted(ctx, tx, audit, payload)
}

var completionNotifier CompletionNotifier = outboxNotifier{}
