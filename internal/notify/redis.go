package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"taskManager/internal/logger"
	"taskManager/internal/models/notification"

	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// RedisPublisher шлёт события в канал владельца (prefix+ownerId), его слушает интерфейс для toast
type RedisPublisher struct {
	client rueidis.Client
	prefix string
}

func NewRedisPublisher(addr, prefix string) (*RedisPublisher, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("подключение к Redis: %w", err)
	}

	logger.Info("Notify: Подключение к Redis", zap.String("addr", addr))
	return &RedisPublisher{client: client, prefix: prefix}, nil
}

// Channel - имя канала владельца
func (p *RedisPublisher) Channel(ownerID string) string {
	return p.prefix + ownerID
}

func (p *RedisPublisher) Publish(ctx context.Context, events []notification.Event) error {
	if len(events) == 0 {
		return nil
	}

	cmds := make(rueidis.Commands, 0, len(events))
	for _, e := range events {
		body, err := json.Marshal(e)
		if err != nil {
			return err
		}
		cmds = append(cmds, p.client.B().Publish().Channel(p.Channel(e.OwnerID)).Message(string(body)).Build())
	}

	for _, res := range p.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return fmt.Errorf("публикация в Redis: %w", err)
		}
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	p.client.Close()
	return nil
}
