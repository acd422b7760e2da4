// Package events publishes domain events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DonationConfirmedQueue is the durable queue donation events are routed to.
const DonationConfirmedQueue = "donation.confirmed"

// DonationConfirmedEvent is emitted after a donation is committed.
type DonationConfirmedEvent struct {
	DonationID     uint            `json:"donationId"`
	CampaignID     uint            `json:"campaignId"`
	DonorID        uint            `json:"donorId"`
	Amount         decimal.Decimal `json:"amount"`
	TxHash         string          `json:"txHash"`
	CampaignStatus string          `json:"campaignStatus"`
	CurrentAmount  decimal.Decimal `json:"currentAmount"`
	ConfirmedAt    time.Time       `json:"confirmedAt"`
}

// Publisher sends events over one broker connection. A nil *Publisher is a
// disabled publisher: every publish is a no-op.
type Publisher struct {
	conn *amqp.Connection
	log  *zap.Logger

	mu sync.Mutex
	ch *amqp.Channel
}

// Dial connects to the broker and declares the donation queue.
func Dial(url string, log *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	p := &Publisher{conn: conn, log: log}
	if _, err := p.channel(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return p, nil
}

// channel returns the open channel, reopening it after a broker-side close.
// Callers hold p.mu, except Dial which runs before the publisher is shared.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		DonationConfirmedQueue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	p.ch = ch
	return ch, nil
}

// PublishDonationConfirmed publishes event as a persistent JSON message.
func (p *Publisher) PublishDonationConfirmed(ctx context.Context, event DonationConfirmedEvent) error {
	if p == nil {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx,
		"",                     // default exchange
		DonationConfirmedQueue, // routing key = queue name
		false,                  // mandatory
		false,                  // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	return p.conn.Close()
}
