package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/RezaEskandarii/gohire/internal/logger"
	"github.com/RezaEskandarii/gohire/internal/message_broaker"
	"github.com/RezaEskandarii/gohire/types"
	"github.com/sirupsen/logrus"
)

// Notifier delivers notifications produced by item handlers.
type Notifier interface {
	Notify(ctx context.Context, n types.Notification) error
}

// BrokerNotifier publishes notifications as JSON to a queue for an external delivery service.
type BrokerNotifier struct {
	broker message_broaker.MessageBroker
	queue  string
}

func NewBrokerNotifier(broker message_broaker.MessageBroker, queue string) *BrokerNotifier {
	return &BrokerNotifier{broker: broker, queue: queue}
}

func (n *BrokerNotifier) Notify(ctx context.Context, msg types.Notification) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := n.broker.Publish(ctx, n.queue, payload); err != nil {
		return fmt.Errorf("failed to publish notification %s: %w", msg.ID, err)
	}
	return nil
}

// LogNotifier only logs notifications. It is used when no broker is configured.
type LogNotifier struct {
	log logrus.FieldLogger
}

func NewLogNotifier(log logrus.FieldLogger) *LogNotifier {
	return &LogNotifier{log: logger.OrDiscard(log)}
}

func (n *LogNotifier) Notify(_ context.Context, msg types.Notification) error {
	n.log.WithFields(logrus.Fields{
		"notification_id": msg.ID,
		"operation_id":    msg.OperationID,
		"recipient_id":    msg.RecipientID,
		"channel":         msg.Channel,
	}).Info("notification")
	return nil
}
