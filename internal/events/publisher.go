package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"social-go/internal/config"
	"social-go/internal/kafka"
	"social-go/internal/models"
)

// Publisher emits state-change envelopes onto the fan-out bus.
type Publisher interface {
	PublishFriendRequestUpdate(ctx context.Context, fr *models.FriendRequestWithUsers, change ChangeType) error
	PublishUserUpdate(ctx context.Context, user *models.UserBasicInfo, change ChangeType) error
	PublishUserStatusUpdate(ctx context.Context, username string, status models.UserStatus, scope models.MuteScope) error
}

// kafkaPublisher publishes envelopes to the configured fan-out topic.
type kafkaPublisher struct {
	producer kafka.MessageProducer
	cfg      config.KafkaConfig
}

// NewKafkaPublisher creates a Publisher backed by a Kafka producer.
func NewKafkaPublisher(producer kafka.MessageProducer, cfg config.KafkaConfig) Publisher {
	return &kafkaPublisher{producer: producer, cfg: cfg}
}

// PublishFriendRequestUpdate targets only the two parties of the request.
// Friend-request traffic is never broadcast.
func (p *kafkaPublisher) PublishFriendRequestUpdate(ctx context.Context, fr *models.FriendRequestWithUsers, change ChangeType) error {
	recipients := make([]string, 0, 2)
	if fr.Requester != nil {
		recipients = append(recipients, fr.Requester.Username)
	}
	if fr.Recipient != nil {
		recipients = append(recipients, fr.Recipient.Username)
	}
	return p.publish(ctx, EventFriendRequestUpdate, change, FriendRequestUpdate{FriendRequest: fr}, recipients)
}

// PublishUserUpdate broadcasts a change to a user's public record.
func (p *kafkaPublisher) PublishUserUpdate(ctx context.Context, user *models.UserBasicInfo, change ChangeType) error {
	return p.publish(ctx, EventUserUpdate, change, UserUpdate{User: user}, nil)
}

// PublishUserStatusUpdate broadcasts a presence transition.
func (p *kafkaPublisher) PublishUserStatusUpdate(ctx context.Context, username string, status models.UserStatus, scope models.MuteScope) error {
	payload := UserStatusUpdate{Username: username, Status: status, MuteScope: scope}
	return p.publish(ctx, EventUserStatusUpdate, ChangeUpdated, payload, nil)
}

func (p *kafkaPublisher) publish(ctx context.Context, event EventName, change ChangeType, payload interface{}, recipients []string) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", event, err)
	}

	env := Envelope{
		ID:         uuid.NewString(),
		Event:      event,
		Type:       change,
		Payload:    raw,
		Recipients: recipients,
		EmittedAt:  time.Now(),
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal %s envelope: %w", event, err)
	}

	return p.producer.SendMessage(ctx, p.cfg.FanoutTopic, []byte(event), value)
}
