package config

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

// AuditEventMessage is the wire payload published for audit lifecycle events.
// Consumers: scheduling sync, notification/email service, reporting ETL.
type AuditEventMessage struct {
	ID            int       `json:"id"`
	BusinessId    string    `json:"business_id"`
	AuditId       int       `json:"audit_id"`
	EventType     string    `json:"event_type"`
	OccurredAt    time.Time `json:"occurred_at"`
	Payload       []byte    `json:"payload"`
	CorrelationId string    `json:"correlation_id"`
}

var (
	pubsubClient   *pubsub.Client
	pubsubClientMu sync.Mutex
)

func init() {
	godotenv.Load()
}

func getPubSubProjectID() string {
	if v := os.Getenv("PUBSUB_PROJECT_ID"); v != "" {
		return v
	}
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		return v
	}
	return ""
}

// GetPubSubClient returns a Pub/Sub client, initializing it lazily.
// Uses Application Default Credentials unless PUBSUB_CREDENTIALS_JSON is set.
func GetPubSubClient(ctx context.Context) (*pubsub.Client, error) {
	pubsubClientMu.Lock()
	defer pubsubClientMu.Unlock()

	if pubsubClient != nil {
		return pubsubClient, nil
	}

	projectID := getPubSubProjectID()
	if projectID == "" {
		return nil, errors.New("pubsub project id is not configured")
	}

	var opts []option.ClientOption
	if creds := os.Getenv("PUBSUB_CREDENTIALS_JSON"); creds != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, err
	}
	pubsubClient = client
	return pubsubClient, nil
}

func GetAuditEventTopicID() string {
	if v := os.Getenv("PUBSUB_AUDIT_EVENT_TOPIC"); v != "" {
		return v
	}
	return "audit-events"
}

// PublishAuditEventWithResult publishes one event and blocks for the server
// ack, returning the Pub/Sub message id. Callers (the outbox dispatcher)
// own retry and dead-lettering.
func PublishAuditEventWithResult(ctx context.Context, msg AuditEventMessage) (string, error) {
	client, err := GetPubSubClient(ctx)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}

	topic := client.Topic(GetAuditEventTopicID())
	result := topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"business_id":    msg.BusinessId,
			"event_type":     msg.EventType,
			"correlation_id": msg.CorrelationId,
		},
	})
	return result.Get(ctx)
}
