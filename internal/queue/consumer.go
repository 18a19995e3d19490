package queue

import (
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const logQueueName = "todo.events.log"

// StartEventConsumer connects to RabbitMQ, binds a durable queue to the
// todo.events exchange with a catch-all key, and writes every event to the
// structured log. It runs a reconnect loop with backoff and never returns
// under normal operation; processing errors reject the offending message
// and keep the loop alive.
func StartEventConsumer(url string, logger *zap.SugaredLogger) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			logger.Warnw("event consumer: dial failed", "error", err, "retry_in", backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, logger); err != nil {
			logger.Warnw("event consumer: consume loop ended", "error", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, logger *zap.SugaredLogger) error {
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Warnw("event consumer: set QoS failed", "error", err)
	}

	if err := ch.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := ch.QueueDeclare(logQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(logQueueName, "#", exchangeName, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}

	msgs, err := ch.Consume(logQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		var ev TodoEvent
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			logger.Warnw("event consumer: bad payload", "error", err)
			_ = d.Reject(false)
			continue
		}
		logger.Infow("todo event",
			"type", ev.Type,
			"topic", d.RoutingKey,
			"id", ev.Message.ID,
		)
		_ = d.Ack(false)
	}
	return fmt.Errorf("delivery channel closed")
}
