package worker

import (
	"context"
	"errors"
	"sync"
	"taskManager/internal/logger"
	"taskManager/internal/models/notification"
	"taskManager/internal/models/task"
	"taskManager/internal/notify"
	"taskManager/internal/repository"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

type TaskStore interface {
	// FindDue отдаёт страницу задач с созревшими уведомлениями, упорядоченную по uuid, строго после after
	FindDue(ctx context.Context, now time.Time, after uuid.UUID, limit int) ([]*task.Task, error)
	MarkNotified(ctx context.Context, t *task.Task) error
}

type Options struct {
	Interval     time.Duration
	BatchSize    int
	Concurrency  int
	WriteTimeout time.Duration
	Clock        func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = time.Minute
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 500
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 8
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// NotificationWorker - сканер уведомлений: находит созревшие дедлайны и напоминания,
// выпускает события и записывает флаги доставки обратно.
type NotificationWorker struct {
	store     TaskStore
	publisher notify.Publisher
	opts      Options

	// один цикл за раз, и по таймеру, и по ручному вызову
	cycle sync.Mutex

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewNotificationWorker(store TaskStore, publisher notify.Publisher, opts Options) *NotificationWorker {
	return &NotificationWorker{
		store:     store,
		publisher: publisher,
		opts:      opts.withDefaults(),
	}
}

// Start запускает цикл по таймеру и сразу возвращается
func (w *NotificationWorker) Start(ctx context.Context) {
	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()

	if w.cancel != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.loop(loopCtx, w.done)
	logger.Info("Worker: Сканер уведомлений запущен", zap.Duration("interval", w.opts.Interval))
}

func (w *NotificationWorker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.ScanOnce(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Сканер уведомлений останавливается")
			return
		}
	}
}

// Stop останавливает таймер и ждёт, пока текущий цикл допишет флаги
func (w *NotificationWorker) Stop() {
	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()

	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
	w.cancel = nil
	w.done = nil
}

// ScanOnce - один цикл сканирования. Никогда не падает: при недоступном хранилище
// возвращает пустой список, упавшая запись одной задачи не мешает остальным.
// Задачи читаются страницами по BatchSize, пока не кончатся, так что задачи с
// постоянно падающей записью не заслоняют остальные.
func (w *NotificationWorker) ScanOnce(ctx context.Context) []notification.Event {
	w.cycle.Lock()
	defer w.cycle.Unlock()

	start := time.Now()
	now := w.opts.Clock()

	// запись не прерываем при остановке: флаги должны совпасть с тем, что уже выпущено
	writeCtx := context.WithoutCancel(ctx)

	events := []notification.Event{}
	var checked, pages int
	var stats writeStats
	after := uuid.Nil

	for {
		tasks, err := w.store.FindDue(ctx, now, after, w.opts.BatchSize)
		if err != nil {
			if pages == 0 {
				logger.Error("Worker: Хранилище недоступно, цикл пропущен", err)
				return []notification.Event{}
			}
			logger.Error("Worker: Ошибка чтения страницы, остаток цикла пропущен", err, zap.Int("page", pages))
			break
		}
		pages++
		checked += len(tasks)

		changed := make([]*task.Task, 0, len(tasks))
		for _, t := range tasks {
			if fired := collect(t, now); len(fired) > 0 {
				events = append(events, fired...)
				changed = append(changed, t)
			}
		}
		w.write(writeCtx, changed, &stats)

		if len(tasks) < w.opts.BatchSize || ctx.Err() != nil {
			break
		}
		after = tasks[len(tasks)-1].UUID
	}

	if w.publisher != nil && len(events) > 0 {
		if err := w.publisher.Publish(writeCtx, events); err != nil {
			logger.Error("Worker: Ошибка публикации уведомлений", err, zap.Int("events", len(events)))
		}
	}

	logger.Info("Worker: Завершение сканирования",
		zap.Duration("ms", time.Since(start)),
		zap.Int("pages", pages),
		zap.Int("checked", checked),
		zap.Int("events", len(events)),
		zap.Int("written", stats.written),
		zap.Int("conflicts", stats.conflicts),
		zap.Int("failed", stats.failed))

	return events
}

type writeStats struct {
	mtx       sync.Mutex
	written   int
	conflicts int
	failed    int
}

// write параллельно записывает флаги изменённых задач одной страницы
func (w *NotificationWorker) write(ctx context.Context, changed []*task.Task, stats *writeStats) {
	p := pool.New().WithMaxGoroutines(w.opts.Concurrency)
	for _, t := range changed {
		p.Go(func() {
			opCtx, cancel := context.WithTimeout(ctx, w.opts.WriteTimeout)
			defer cancel()

			err := w.store.MarkNotified(opCtx, t)

			stats.mtx.Lock()
			defer stats.mtx.Unlock()
			switch {
			case err == nil:
				stats.written++
			case errors.Is(err, repository.ErrVersionConflict):
				stats.conflicts++
				logger.Warn("Worker: Задача изменена после чтения, повтор в следующем цикле",
					zap.String("task_id", t.UUID.String()))
			default:
				stats.failed++
				logger.Warn("Worker: Не удалось записать флаги, повтор в следующем цикле",
					zap.String("task_id", t.UUID.String()),
					zap.Error(err))
			}
		})
	}
	p.Wait()
}

// collect выпускает события задачи и помечает их отправленными в памяти
func collect(t *task.Task, now time.Time) []notification.Event {
	if t.Status != task.StatusPending {
		return nil
	}

	var events []notification.Event
	if t.DueNow(now) {
		events = append(events, notification.Event{
			TaskID:  t.UUID,
			OwnerID: t.OwnerID,
			Message: notification.DueMessage(t.Title),
			Kind:    notification.KindDue,
		})
		t.DueNotificationSent = true
	}

	for i := range t.Reminders {
		if !t.Reminders[i].Elapsed(now) {
			continue
		}
		events = append(events, notification.Event{
			TaskID:  t.UUID,
			OwnerID: t.OwnerID,
			Message: notification.ReminderMessage(t.Title, t.DueDate, now),
			Kind:    notification.KindReminder,
		})
		t.Reminders[i].Sent = true
	}
	return events
}
