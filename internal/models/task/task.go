package task

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	UUID                uuid.UUID  `json:"uuid" db:"uuid"`
	OwnerID             string     `json:"owner_id" db:"owner_id"`
	Title               string     `json:"title" db:"title"`
	Description         string     `json:"description" db:"description"`
	Status              Status     `json:"status" db:"status"`
	DueDate             time.Time  `json:"due_date" db:"due_date"`
	Category            string     `json:"category" db:"category"`
	Priority            Priority   `json:"priority" db:"priority"`
	DueNotificationSent bool       `json:"due_notification_sent" db:"due_notification_sent"`
	Reminders           []Reminder `json:"reminders" db:"reminders"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
	// Version растёт на каждой записи; запись сканера условна по версии прочитанной копии
	Version             int        `json:"version" db:"version"`
}

type Reminder struct {
	Time time.Time `json:"time"`
	Sent bool      `json:"sent"`
}

type Status string
type Priority string

const StatusPending Status = "pending"
const StatusCompleted Status = "completed"

const PriorityHigh Priority = "high"
const PriorityMedium Priority = "medium"
const PriorityLow Priority = "low"

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

func (p Priority) Valid() bool {
	return p.Weight() > 0
}

// Weight - числовой вес приоритета для сортировки, 0 для неизвестного значения
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Clone - глубокая копия, хранилища не должны делить слайс напоминаний с вызывающим
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.Reminders != nil {
		c.Reminders = make([]Reminder, len(t.Reminders))
		copy(c.Reminders, t.Reminders)
	}
	return &c
}

// DueNow - пора ли отправлять уведомление о дедлайне
func (t *Task) DueNow(now time.Time) bool {
	return t.Status == StatusPending && !t.DueNotificationSent && !t.DueDate.After(now)
}

// Elapsed - наступило ли время напоминания, которое ещё не отправлялось
func (r Reminder) Elapsed(now time.Time) bool {
	return !r.Sent && !r.Time.After(now)
}

// HasArmed - есть ли у задачи уведомления, которые должны сработать к моменту now
func (t *Task) HasArmed(now time.Time) bool {
	if t.Status != StatusPending {
		return false
	}
	if t.DueNow(now) {
		return true
	}
	for _, r := range t.Reminders {
		if r.Elapsed(now) {
			return true
		}
	}
	return false
}

// NormalizeReminders сбрасывает отметку об отправке: снаружи напоминание нельзя пометить доставленным
func NormalizeReminders(in []Reminder) []Reminder {
	out := make([]Reminder, 0, len(in))
	for _, r := range in {
		out = append(out, Reminder{Time: r.Time})
	}
	return out
}
