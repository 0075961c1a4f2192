package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GoArmGo/ContactsApp/internal/config"
	"github.com/GoArmGo/ContactsApp/internal/messaging/payloads"
	"github.com/GoArmGo/ContactsApp/internal/metrics"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// Client представляет собой клиент RabbitMQ
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	logger  *slog.Logger
	metrics *metrics.Metrics

	publishMu sync.Mutex
	closeOnce sync.Once
}

// NewClient подключается к брокеру, открывает канал и объявляет очередь событий.
func NewClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*Client, error) {
	conn, err := amqp.Dial(cfg.RabbitMQ.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	// durable: очередь переживает перезапуск брокера
	q, err := ch.QueueDeclare(
		cfg.RabbitMQ.RabbitMQQueueName, // name
		true,                           // durable
		false,                          // delete when unused
		false,                          // exclusive
		false,                          // no-wait
		nil,                            // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare a queue: %w", err)
	}

	logger.Info("connected to RabbitMQ", "queue", q.Name, "messages", q.Messages)

	return &Client{
		conn:    conn,
		channel: ch,
		queue:   q,
		logger:  logger,
		metrics: m,
	}, nil
}

// Close закрывает канал и соединение. Повторный вызов ничего не делает.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.channel != nil {
			if chErr := c.channel.Close(); chErr != nil && !errors.Is(chErr, amqp.ErrClosed) {
				err = errors.Join(err, fmt.Errorf("close channel: %w", chErr))
			}
		}
		if c.conn != nil {
			if connErr := c.conn.Close(); connErr != nil && !errors.Is(connErr, amqp.ErrClosed) {
				err = errors.Join(err, fmt.Errorf("close connection: %w", connErr))
			}
		}
		c.logger.Info("RabbitMQ connection closed")
	})
	return err
}

// PublishContactEvent публикует событие в очередь как persistent JSON-сообщение.
func (c *Client) PublishContactEvent(ctx context.Context, event payloads.ContactEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal contact event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	c.publishMu.Lock()
	err = c.channel.PublishWithContext(
		publishCtx,
		"",           // exchange
		c.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID.String(),
			Type:         string(event.Type),
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
	c.publishMu.Unlock()

	c.metrics.EventPublished(string(event.Type), err)
	if err != nil {
		return fmt.Errorf("failed to publish contact event %s: %w", event.ID, err)
	}

	c.logger.Debug("contact event published", "event_id", event.ID, "type", event.Type, "queue", c.queue.Name)
	return nil
}

// StartConsumingContactEvents регистрирует потребителя и обрабатывает сообщения
// в отдельной горутине до отмены ctx или закрытия канала.
func (c *Client) StartConsumingContactEvents(ctx context.Context, handler func(context.Context, payloads.ContactEvent) error) error {
	msgs, err := c.channel.Consume(
		c.queue.Name, // queue
		"",           // consumer
		false,        // auto-ack: подтверждаем вручную
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,          // args
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	c.logger.Info("consumer registered", "queue", c.queue.Name)

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					c.logger.Info("RabbitMQ delivery channel closed, stopping consumer")
					return
				}
				c.handleDelivery(ctx, msg, handler)
			case <-ctx.Done():
				c.logger.Info("context cancelled, stopping RabbitMQ consumer")
				return
			}
		}
	}()

	return nil
}

// handleDelivery: битое сообщение отбрасывается без возврата в очередь,
// ошибка обработчика возвращает сообщение в очередь, успех — ack.
func (c *Client) handleDelivery(ctx context.Context, msg amqp.Delivery, handler func(context.Context, payloads.ContactEvent) error) {
	var event payloads.ContactEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.logger.Warn("dropping malformed contact event", "error", err, "body", string(msg.Body))
		c.metrics.EventArchived("dropped")
		if err := msg.Nack(false, false); err != nil {
			c.logger.Error("failed to nack malformed message", "error", err)
		}
		return
	}

	if err := handler(ctx, event); err != nil {
		c.logger.Error("failed to process contact event", "event_id", event.ID, "type", event.Type, "error", err)
		c.metrics.EventArchived("requeued")
		if err := msg.Nack(false, true); err != nil {
			c.logger.Error("failed to nack message", "event_id", event.ID, "error", err)
		}
		return
	}

	c.metrics.EventArchived("ok")
	if err := msg.Ack(false); err != nil {
		c.logger.Error("failed to ack message", "event_id", event.ID, "error", err)
		return
	}
	c.logger.Debug("contact event processed", "event_id", event.ID, "type", event.Type)
}
