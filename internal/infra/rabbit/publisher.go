package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"quiz-session-service/internal/domain"
)

// RoutingKeyPrefix is followed by the progress event, e.g. session.progress.answered.
const RoutingKeyPrefix = "session.progress."

// Publisher sends session progress events to a topic exchange.
type Publisher struct {
	conn     *amqp.Connection
	exchange string

	mu sync.Mutex
	ch *amqp.Channel
}

// Dial connects to url and declares exchange as a durable topic exchange.
func Dial(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Publisher{conn: conn, exchange: exchange, ch: ch}, nil
}

// Publish sends progress as JSON. Channels are not safe for concurrent publishing, so calls are serialized.
func (p *Publisher) Publish(ctx context.Context, progress domain.SessionProgress) error {
	body, err := json.Marshal(progress)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, RoutingKeyPrefix+progress.Event, false, false, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   progress.SessionID,
		Timestamp:   progress.UpdatedAt,
		Body:        body,
	})
}

// Close shuts the channel and the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
