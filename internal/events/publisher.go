package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Duke-CEI-Center/AutoEDA/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeStageCompleted MessageType = "stage.completed"
	MessageTypeFlowFinished   MessageType = "flow.finished"
)

// Publisher публикует события выполнения маршрутов в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// StageCompletedPayload — payload для события завершения этапа.
type StageCompletedPayload struct {
	RunID      uuid.UUID    `json:"run_id"`
	SessionID  string       `json:"session_id,omitempty"`
	Design     string       `json:"design"`
	Stage      domain.Stage `json:"stage"`
	Status     string       `json:"status"` // ok или текст ошибки
	Checkpoint string       `json:"checkpoint,omitempty"`
	Detail     string       `json:"detail,omitempty"`
}

// FlowFinishedPayload — payload для события завершения маршрута.
type FlowFinishedPayload struct {
	RunID           uuid.UUID        `json:"run_id"`
	SessionID       string           `json:"session_id,omitempty"`
	Flow            domain.FlowID    `json:"flow"`
	Design          string           `json:"design"`
	State           domain.FlowState `json:"state"` // COMPLETED или HALTED
	HaltStage       domain.Stage     `json:"halt_stage,omitempty"`
	HaltReason      string           `json:"halt_reason,omitempty"`
	FinalCheckpoint string           `json:"final_checkpoint,omitempty"`
	StagesRun       int              `json:"stages_run"`
}

// Publish публикует сообщение в обменник с указанным routing key.
func (p *Publisher) Publish(ctx context.Context, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(ExchangeFlows), // exchange
			string(routingKey),    // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", ExchangeFlows, routingKey, err)
		}

		p.logger.Debug("published message",
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishStageCompleted публикует событие о завершённом этапе маршрута.
func (p *Publisher) PublishStageCompleted(ctx context.Context, payload StageCompletedPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeStageCompleted,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, RoutingKeyStageCompleted, msg)
}

// PublishFlowFinished публикует событие о завершении маршрута целиком.
func (p *Publisher) PublishFlowFinished(ctx context.Context, payload FlowFinishedPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeFlowFinished,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, RoutingKeyFlowFinished, msg)
}
