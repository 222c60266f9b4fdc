package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"taskManager/internal/logger"
	"taskManager/internal/models/notification"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitPublisher кладёт каждое событие отдельным persistent сообщением в durable очередь
type RabbitPublisher struct {
	conn    *amqp.Connection
	channel amqpChannel
	queue   string
	mtx     sync.Mutex
}

func NewRabbitPublisher(url, queue string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("подключение к RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("открытие канала RabbitMQ: %w", err)
	}

	q, err := channel.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("объявление очереди %s: %w", queue, err)
	}

	logger.Info("Notify: Подключение к RabbitMQ", zap.String("queue", q.Name))
	return &RabbitPublisher{conn: conn, channel: channel, queue: q.Name}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, events []notification.Event) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	for _, e := range events {
		body, err := json.Marshal(e)
		if err != nil {
			return err
		}

		err = p.channel.PublishWithContext(
			ctx,
			"",      // exchange
			p.queue, // routing key
			false,   // mandatory
			false,   // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				Body:         body,
				DeliveryMode: amqp.Persistent,
				Type:         string(e.Kind),
			},
		)
		if err != nil {
			return fmt.Errorf("публикация в RabbitMQ: %w", err)
		}
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
