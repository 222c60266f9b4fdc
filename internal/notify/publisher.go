// Package notify доставляет события сканера во внешние транспорты.
package notify

import (
	"context"
	"errors"
	"taskManager/internal/logger"
	"taskManager/internal/models/notification"

	"go.uber.org/zap"
)

type Publisher interface {
	Publish(ctx context.Context, events []notification.Event) error
}

// LogPublisher пишет события в лог, включён всегда
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, events []notification.Event) error {
	for _, e := range events {
		logger.Info("Notify: Уведомление",
			zap.String("task_id", e.TaskID.String()),
			zap.String("owner_id", e.OwnerID),
			zap.String("kind", string(e.Kind)),
			zap.String("message", e.Message))
	}
	return nil
}

// Multi раздаёт события всем публикаторам; ошибка одного не мешает остальным
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, events []notification.Event) error {
	if len(events) == 0 {
		return nil
	}

	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
