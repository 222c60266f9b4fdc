package task

import (
	"errors"
	"time"
)

var (
	ErrInvalidPriority = errors.New("неизвестный приоритет")
	ErrInvalidStatus   = errors.New("неизвестный статус")
)

// Apply применяет патч к копии задачи и пересчитывает флаги уведомлений.
// Исходная задача не меняется. Флаги - производная от (статус, дедлайн, напоминания):
//   - новый дедлайн взводит все уведомления заново;
//   - pending -> completed гасит все уведомления;
//   - completed -> pending взводит все уведомления;
//   - выполненная задача никогда не остаётся со взведёнными уведомлениями.
func Apply(current *Task, patch Patch, now time.Time) (*Task, error) {
	if patch.Priority != nil && !patch.Priority.Valid() {
		return nil, ErrInvalidPriority
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	next := current.Clone()

	if patch.Title != nil {
		next.Title = *patch.Title
	}
	if patch.Description != nil {
		next.Description = *patch.Description
	}
	if patch.Category != nil {
		next.Category = *patch.Category
	}
	if patch.Priority != nil {
		next.Priority = *patch.Priority
	}
	if patch.Reminders != nil {
		next.Reminders = NormalizeReminders(*patch.Reminders)
	}

	if patch.DueDate != nil && !patch.DueDate.Equal(current.DueDate) {
		next.DueDate = *patch.DueDate
		arm(next)
	}

	if patch.Status != nil {
		next.Status = *patch.Status
	}

	switch {
	case current.Status == StatusPending && next.Status == StatusCompleted:
		disarm(next)
	case current.Status == StatusCompleted && next.Status == StatusPending:
		arm(next)
	case next.Status == StatusCompleted:
		// completed -> completed: новый дедлайн или новые напоминания не должны взвестись
		disarm(next)
	}

	next.UpdatedAt = now
	return next, nil
}

func arm(t *Task) {
	t.DueNotificationSent = false
	for i := range t.Reminders {
		t.Reminders[i].Sent = false
	}
}

func disarm(t *Task) {
	t.DueNotificationSent = true
	for i := range t.Reminders {
		t.Reminders[i].Sent = true
	}
}
