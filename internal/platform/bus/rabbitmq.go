package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/fatflowers/creditd/pkg/config"
	"github.com/fatflowers/creditd/pkg/types"
)

// Publisher emits billing events to the ledger bus. Fire-and-forget beyond
// awaiting broker confirmation of the publish itself.
type Publisher interface {
	Publish(ctx context.Context, ev *types.BillingEvent) error
}

const routingKeyPrefix = "billing.ledger."

// EventProducer publishes billing events to a durable topic exchange.
type EventProducer struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	log      *zap.SugaredLogger
}

func NewEventProducer(cfg *cfgpkg.Config, l *zap.SugaredLogger) (*EventProducer, error) {
	conn, err := amqp091.DialConfig(cfg.AMQP.URL, amqp091.Config{
		Dial: amqp091.DefaultDial(10 * time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.AMQP.Exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", cfg.AMQP.Exchange, err)
	}

	l.Infow("connected to amqp broker", "exchange", cfg.AMQP.Exchange)
	return &EventProducer{conn: conn, channel: ch, exchange: cfg.AMQP.Exchange, log: l}, nil
}

// Publish sends one billing event. The routing key carries the entry type
// ("billing.ledger.DonationGiven" etc.) so downstream consumers can bind
// selectively.
func (p *EventProducer) Publish(ctx context.Context, ev *types.BillingEvent) error {
	if p.channel == nil {
		return errors.New("amqp channel not initialized")
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal billing event: %w", err)
	}

	return p.channel.PublishWithContext(ctx,
		p.exchange,
		routingKeyPrefix+string(ev.EntryType),
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    ev.ID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

// Close tears down the channel then the connection.
func (p *EventProducer) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

func registerProducerClose(lc fx.Lifecycle, l *zap.SugaredLogger, p *EventProducer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			l.Infow("closing amqp producer")
			p.Close()
			return nil
		},
	})
}

var Module = fx.Options(
	fx.Provide(NewEventProducer),
	fx.Provide(func(p *EventProducer) Publisher { return p }),
	fx.Invoke(registerProducerClose),
)
