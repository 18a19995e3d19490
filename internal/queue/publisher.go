package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// exchangeName is the topic exchange all todo events flow through. The
// routing key of a message is the todo's id, so a subscriber binds the id
// of the item it watches (or "#" for everything).
const exchangeName = "todo.events"

// Publisher is the publish contract consumed by handlers. Publishing is
// best-effort by convention: callers log a returned error and move on, the
// triggering mutation has already committed.
type Publisher interface {
	Publish(ctx context.Context, topic string, event TodoEvent) error
}

// AMQPPublisher publishes events to RabbitMQ. It dials per publish, which
// keeps it robust against broker restarts at the cost of connection churn;
// event volume here is one message per mutation, so the trade is fine.
// The publisher never panics; any error is logged and returned so the
// caller can choose to ignore it.
type AMQPPublisher struct {
	URL    string
	Logger *zap.SugaredLogger
}

func NewAMQPPublisher(url string, logger *zap.SugaredLogger) *AMQPPublisher {
	return &AMQPPublisher{URL: url, Logger: logger}
}

// Publish sends one event to the todo.events exchange with the given topic
// as routing key. Messages are marked persistent so they survive broker
// restarts once routed to a durable queue.
func (p *AMQPPublisher) Publish(ctx context.Context, topic string, event TodoEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Logger.Warnw("event publish: dial failed", "error", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Logger.Warnw("event publish: channel open failed", "error", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare so publisher and consumers can start in any order.
	if err := ch.ExchangeDeclare(
		exchangeName, // name
		"topic",      // kind
		true,         // durable
		false,        // autoDelete
		false,        // internal
		false,        // noWait
		nil,          // args
	); err != nil {
		p.Logger.Warnw("event publish: exchange declare failed", "error", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.Logger.Warnw("event publish: marshal failed", "error", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, exchangeName, topic, false, false, pub); err != nil {
		p.Logger.Warnw("event publish: publish failed", "topic", topic, "error", err)
		return err
	}
	return nil
}
