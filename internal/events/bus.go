// internal/events/bus.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	TopicPrincipalRegistered  = "principal.registered"
	TopicVerificationRecorded = "verification.recorded"

	metadataEvent = "event"
)

type PrincipalRegistered struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	DisplayName string    `json:"displayName"`
	PublicID    string    `json:"publicId,omitempty"`
	At          time.Time `json:"at"`
}

type VerificationRecorded struct {
	RecordID       string    `json:"recordId"`
	EmployerID     string    `json:"employerId"`
	EmployerName   string    `json:"employerName"`
	TalentID       string    `json:"talentId"`
	TalentPublicID string    `json:"talentPublicId"`
	TalentName     string    `json:"talentName"`
	SearchedAt     time.Time `json:"searchedAt"`
}

// Bus delivers domain events to in-process subscribers and, when brokers
// are configured, mirrors them to a single Kafka topic.
type Bus struct {
	local    *gochannel.GoChannel
	external message.Publisher
	topic    string
}

func NewBus(brokers []string, kafkaTopic string) (*Bus, error) {
	logger := watermill.NewStdLogger(false, false)
	b := &Bus{
		local: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger),
		topic: kafkaTopic,
	}
	if len(brokers) == 0 {
		return b, nil
	}

	pub, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, logger)
	if err != nil {
		b.local.Close()
		return nil, fmt.Errorf("kafka publisher init failed: %w", err)
	}
	b.external = pub
	log.Printf("✅ [EVENTS] Mirroring events to kafka topic %s", kafkaTopic)
	return b, nil
}

// Publish never blocks on subscribers. A failed Kafka mirror is logged and
// does not fail the call.
func (b *Bus) Publish(ctx context.Context, topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}
	msg := message.NewMessageWithContext(ctx, watermill.NewUUID(), data)
	msg.Metadata.Set(metadataEvent, topic)

	if err := b.local.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	if b.external != nil {
		mirrored := message.NewMessage(msg.UUID, data)
		mirrored.Metadata.Set(metadataEvent, topic)
		if err := b.external.Publish(b.topic, mirrored); err != nil {
			log.Printf("⚠️ [EVENTS] kafka mirror of %s failed: %v", topic, err)
		}
	}
	return nil
}

func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.local.Subscribe(ctx, topic)
}

func (b *Bus) Close() error {
	if b.external != nil {
		if err := b.external.Close(); err != nil {
			log.Printf("⚠️ [EVENTS] kafka publisher close: %v", err)
		}
	}
	return b.local.Close()
}

// Decode unmarshals a message payload into dest.
func Decode(msg *message.Message, dest interface{}) error {
	return json.Unmarshal(msg.Payload, dest)
}
