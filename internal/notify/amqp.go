package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"auction-escrow/internal/events"
	"auction-escrow/utils"

	"github.com/rabbitmq/amqp091-go"
)

const (
	publishTimeout = 5 * time.Second
	dialTimeout    = 5 * time.Second
)

// amqpChannel is the part of *amqp091.Channel the publisher uses
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// AMQPPublisher forwards engine events to a RabbitMQ topic exchange.
// The routing key is the event kind, the body is the same Envelope the websocket hub sends.
type AMQPPublisher struct {
	conn     *amqp091.Connection
	channel  amqpChannel
	exchange string
}

// DialAMQP connects to url and declares exchange as a durable topic exchange
func DialAMQP(url, exchange string) (*AMQPPublisher, error) {
	dialer := &net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}
	conn, err := amqp091.DialConfig(url, amqp091.Config{
		Dial: func(network, addr string) (net.Conn, error) {
			return dialer.DialContext(context.Background(), network, addr)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("amqp: failed to connect: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp: failed to open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("amqp: failed to declare exchange %s: %w", exchange, err)
	}

	utils.Info("amqp: event exchange ready", map[string]any{"exchange": exchange})
	p := newAMQPPublisher(channel, exchange)
	p.conn = conn
	return p, nil
}

func newAMQPPublisher(ch amqpChannel, exchange string) *AMQPPublisher {
	return &AMQPPublisher{channel: ch, exchange: exchange}
}

// Notify implements events.Notifier. A failed publish is logged and dropped.
func (p *AMQPPublisher) Notify(ctx context.Context, ev events.Event) {
	body, err := json.Marshal(Envelope{Kind: ev.Kind(), At: ev.OccurredAt(), AuctionID: auctionOf(ev), Event: ev})
	if err != nil {
		utils.Error("amqp: failed to marshal event", map[string]any{"kind": string(ev.Kind()), "error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(ctx, p.exchange, string(ev.Kind()), false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    ev.OccurredAt(),
		Body:         body,
	})
	if err != nil {
		utils.Error("amqp: failed to publish event", map[string]any{
			"kind":     string(ev.Kind()),
			"exchange": p.exchange,
			"error":    err.Error(),
		})
	}
}

// Close closes the channel, then the connection
func (p *AMQPPublisher) Close() error {
	err := p.channel.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
