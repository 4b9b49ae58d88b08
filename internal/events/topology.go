package events

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// ExchangeFlows — единственный обменник для событий маршрутов.
const ExchangeFlows Exchange = "autoeda.flows"

// Queues — имена очередей.
const (
	QueueStageCompleted Queue = "flows.stage.completed"
	QueueFlowFinished   Queue = "flows.finished"
)

// Routing keys.
const (
	RoutingKeyStageCompleted RoutingKey = "stage.completed"
	RoutingKeyFlowFinished   RoutingKey = "flow.finished"
)

func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.ExchangeDeclare(
			string(ExchangeFlows), // name
			"direct",              // type
			true,                  // durable
			false,                 // auto-deleted
			false,                 // internal
			false,                 // no-wait
			nil,                   // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ExchangeFlows, err)
		}

		if err := declareQueues(ch); err != nil {
			return err
		}

		return bindQueues(ch)
	})
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	queues := []Queue{
		QueueStageCompleted,
		QueueFlowFinished,
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q), // name
			true,      // durable
			false,     // delete when unused
			false,     // exclusive
			false,     // no-wait
			nil,       // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
	}

	return nil
}

// bindQueues привязывает очереди к обменнику.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
	}{
		{QueueStageCompleted, RoutingKeyStageCompleted},
		{QueueFlowFinished, RoutingKeyFlowFinished},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),       // queue name
			string(b.routingKey),  // routing key
			string(ExchangeFlows), // exchange
			false,                 // no-wait
			nil,                   // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, ExchangeFlows, err)
		}
	}

	return nil
}
