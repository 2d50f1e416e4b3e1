package message_broaker

import (
	"context"
	"errors"
	"sync"

	"github.com/RezaEskandarii/gohire/types/config"
	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitMQ struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	mu          sync.Mutex // amqp channels are not safe for concurrent publishing
	queueName   string
	exchange    string
	routingKey  string
	contentType string
}

// NewRabbitMQ connects, declares the exchange and binds the dispatch queue to it.
// The notification queue, when configured, is declared on the default exchange.
func NewRabbitMQ(cfg config.RabbitMQConfig) (*RabbitMQ, error) {
	if cfg.URL == "" || cfg.Queue == "" {
		return nil, errors.New("rabbitmq: url and queue are required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	fail := func(err error) (*RabbitMQ, error) {
		ch.Close()
		conn.Close()
		return nil, err
	}

	if cfg.Exchange != "" {
		if err := ch.ExchangeDeclare(cfg.Exchange, "direct", true, false, false, false, nil); err != nil {
			return fail(err)
		}
	}

	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		return fail(err)
	}

	routingKey := cfg.RoutingKey
	if routingKey == "" {
		routingKey = cfg.Queue
	}
	if cfg.Exchange != "" {
		if err := ch.QueueBind(cfg.Queue, routingKey, cfg.Exchange, false, nil); err != nil {
			return fail(err)
		}
	}

	if cfg.NotificationQueue != "" {
		if _, err := ch.QueueDeclare(cfg.NotificationQueue, true, false, false, false, nil); err != nil {
			return fail(err)
		}
	}

	contentType := cfg.ContentType
	if contentType == "" {
		contentType = "application/json"
	}

	return &RabbitMQ{
		conn:        conn,
		channel:     ch,
		queueName:   cfg.Queue,
		exchange:    cfg.Exchange,
		routingKey:  routingKey,
		contentType: contentType,
	}, nil
}

// Publish sends to the dispatch queue through the configured exchange,
// and to any other queue directly through the default exchange.
func (r *RabbitMQ) Publish(ctx context.Context, queue string, message []byte) error {
	exchange, key := r.exchange, r.routingKey
	if queue != r.queueName || r.exchange == "" {
		exchange, key = "", queue
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.channel.PublishWithContext(
		ctx,
		exchange,
		key,
		false,
		false,
		amqp.Publishing{
			ContentType:  r.contentType,
			DeliveryMode: amqp.Persistent,
			Body:         message,
		},
	)
}

func (r *RabbitMQ) Consume(ctx context.Context, queue string) (<-chan []byte, error) {
	msgs, err := r.channel.Consume(
		queue,
		"",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, err
	}

	out := make(chan []byte, 1000)

	go func() {
		defer close(out)

		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- msg.Body:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (r *RabbitMQ) Close() error {
	if err := r.channel.Close(); err != nil {
		_ = r.conn.Close()
		return err
	}
	return r.conn.Close()
}
