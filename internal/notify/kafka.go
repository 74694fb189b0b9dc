package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/dealwatch/backend/internal/apperror"
	"github.com/dealwatch/backend/internal/model"
	"github.com/dealwatch/backend/pkg/currency"
)

// DropNotification is the message published for one user and one drop.
type DropNotification struct {
	UserID int64           `json:"userId"`
	Event  model.DropEvent `json:"event"`
	Text   string          `json:"text"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaChannel publishes drop notifications for a separate bot process to send.
type KafkaChannel struct {
	writer messageWriter
	quoter *currency.Quoter
	logger *slog.Logger
}

// NewKafkaChannel creates a channel writing to topic on brokers
func NewKafkaChannel(brokers []string, topic string, quoter *currency.Quoter, log *slog.Logger) *KafkaChannel {
	if log == nil {
		log = slog.Default()
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &KafkaChannel{writer: writer, quoter: quoter, logger: log}
}

// Deliver publishes one notification keyed by the user ID
func (c *KafkaChannel) Deliver(ctx context.Context, userID int64, event model.DropEvent) error {
	// Users on the wire message are the single recipient.
	event.Users = []int64{userID}
	data, err := json.Marshal(DropNotification{
		UserID: userID,
		Event:  event,
		Text:   FormatDropMessage(event, quoteFor(ctx, c.quoter, c.logger)),
	})
	if err != nil {
		return apperror.NewDeliveryError("kafka", userID, err)
	}

	err = c.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(userID, 10)),
		Value: data,
		Time:  time.Now(),
	})
	if err != nil {
		return apperror.NewDeliveryError("kafka", userID, err)
	}
	return nil
}

// Close flushes and closes the writer
func (c *KafkaChannel) Close() error {
	return c.writer.Close()
}
