package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Message type names carried in the AMQP Type property.
const (
	TypeEntrySync   = "entry.sync"
	TypeEntryDelete = "entry.delete"
)

// Client wraps a single AMQP connection and channel bound to the
// worklog sync exchange and queue.
type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = c.channel.QueueBind(
		c.queueName,    // queue name
		c.queueName,    // routing key (same as queue name for direct exchange)
		c.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishEntrySync publishes a sync message for a saved or updated entry.
func (c *Client) PublishEntrySync(ctx context.Context, id, version int64) error {
	msg := NewEntrySyncMessage(id, version)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal sync message: %w", err)
	}
	if err := c.publish(ctx, TypeEntrySync, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published entry sync message",
		"id", id,
		"version", version,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// PublishEntryDelete publishes a delete message for a removed entry.
func (c *Client) PublishEntryDelete(ctx context.Context, id int64, date string) error {
	msg := NewEntryDeleteMessage(id, date)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal delete message: %w", err)
	}
	if err := c.publish(ctx, TypeEntryDelete, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published entry delete message",
		"id", id,
		"date", date,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

func (c *Client) publish(ctx context.Context, msgType string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Type:         msgType,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s message: %w", msgType, err)
	}
	return nil
}

// ConsumeMessages delivers queued messages to the matching handler
// until ctx is cancelled. Handler failures nack with requeue; malformed
// payloads are dropped.
func (c *Client) ConsumeMessages(
	ctx context.Context,
	syncHandler func(context.Context, *EntrySyncMessage) error,
	deleteHandler func(context.Context, *EntryDeleteMessage) error,
) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming timesheet sync messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			c.dispatch(ctx, delivery, syncHandler, deleteHandler)
		}
	}
}

func (c *Client) dispatch(
	ctx context.Context,
	delivery amqp091.Delivery,
	syncHandler func(context.Context, *EntrySyncMessage) error,
	deleteHandler func(context.Context, *EntryDeleteMessage) error,
) {
	var handlerErr error
	switch delivery.Type {
	case TypeEntryDelete:
		msg, err := EntryDeleteMessageFromJSON(delivery.Body)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to unmarshal delete message", "error", err)
			_ = delivery.Nack(false, false) // drop malformed payloads
			return
		}
		handlerErr = deleteHandler(ctx, msg)
	default:
		// Older producers did not set the Type property; treat those
		// deliveries as sync messages.
		msg, err := EntrySyncMessageFromJSON(delivery.Body)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to unmarshal sync message", "error", err, "type", delivery.Type)
			_ = delivery.Nack(false, false)
			return
		}
		handlerErr = syncHandler(ctx, msg)
	}

	if handlerErr != nil {
		slog.ErrorContext(ctx, "Failed to handle message", "error", handlerErr, "type", delivery.Type)
		_ = delivery.Nack(false, true) // requeue for retry
		return
	}
	_ = delivery.Ack(false)
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
