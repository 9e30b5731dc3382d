package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	RoutingKeyGenerate = "trailer.generate"
	RoutingKeyStatus   = "trailer.status"
)

type Topology struct {
	Exchange    string
	Queue       string
	DLQ         string
	StatusQueue string
}

// Declare creates the exchange and the durable queues and binds them. It is
// idempotent, so both the API and the worker run it on startup.
func (t Topology) Declare(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(t.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, q := range []string{t.Queue, t.DLQ, t.StatusQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
	}

	if err := ch.QueueBind(t.Queue, RoutingKeyGenerate, t.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind trailer queue: %w", err)
	}
	if err := ch.QueueBind(t.StatusQueue, RoutingKeyStatus, t.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind status queue: %w", err)
	}
	return nil
}
