package models

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/qsrfocus/audits_backend/config"
	"bitbucket.org/qsrfocus/audits_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditEventRecord implements the transactional outbox: the event row is
// written inside the caller's DB transaction but NOT published. Publishing
// is performed asynchronously by the outbox dispatcher after commit, so a
// notification failure can never fail the completion transaction.
type AuditEventRecord struct {
	ID               int            `gorm:"primary_key" json:"id"`
	BusinessId       string         `gorm:"index;not null" json:"business_id"`
	AuditId          int            `gorm:"index;not null" json:"audit_id"`
	EventType        AuditEventType `gorm:"size:50;not null" json:"event_type"`
	OccurredAt       time.Time      `gorm:"not null" json:"occurred_at"`
	Payload          []byte         `gorm:"type:blob" json:"payload"`
	IsProcessed      bool           `gorm:"index;default:false" json:"is_processed"`
	PublishStatus    string         `gorm:"size:20;default:PENDING;index" json:"publish_status"`
	PublishAttempts  int            `gorm:"default:0" json:"publish_attempts"`
	LastPublishError *string        `gorm:"type:text" json:"last_publish_error"`
	NextAttemptAt    *time.Time     `json:"next_attempt_at"`
	LockedAt         *time.Time     `json:"locked_at"`
	LockedBy         *string        `gorm:"size:64" json:"locked_by"`
	PublishedAt      *time.Time     `json:"published_at"`
	PubSubMessageId  *string        `gorm:"size:64" json:"pub_sub_message_id"`
	CorrelationId    string         `gorm:"size:64" json:"correlation_id"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// AuditCompletedPayload is the event body consumed by the notification and
// scheduling collaborators.
type AuditCompletedPayload struct {
	AuditId            int   `json:"audit_id"`
	Score              int   `json:"score"`
	WeightedScore      int   `json:"weighted_score"`
	HasCriticalFailure bool  `json:"has_critical_failure"`
	ScheduledAuditId   *int  `json:"scheduled_audit_id,omitempty"`
	ActionItemsCreated int   `json:"action_items_created"`
	PlanEntryIds       []int `json:"plan_entry_ids,omitempty"`
}

func PublishAuditCompleted(ctx context.Context, tx *gorm.DB, audit *Audit, payload *AuditCompletedPayload) error {

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	record := AuditEventRecord{
		BusinessId:    audit.BusinessId,
		AuditId:       audit.ID,
		EventType:     AuditEventTypeCompleted,
		OccurredAt:    time.Now().UTC(),
		Payload:       body,
		IsProcessed:   false,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	return tx.Create(&record).Error
}

// ConvertToPubSubMessage maps an outbox row to the wire payload.
func ConvertToPubSubMessage(rec AuditEventRecord) config.AuditEventMessage {
	return config.AuditEventMessage{
		ID:            rec.ID,
		BusinessId:    rec.BusinessId,
		AuditId:       rec.AuditId,
		EventType:     string(rec.EventType),
		OccurredAt:    rec.OccurredAt,
		Payload:       rec.Payload,
		CorrelationId: rec.CorrelationId,
	}
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
