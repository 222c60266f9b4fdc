package notification

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Kind string

const KindDue Kind = "Due"
const KindReminder Kind = "Reminder"

// Event - единственный контракт для доставщиков (почта, push, toast в интерфейсе)
type Event struct {
	TaskID  uuid.UUID `json:"taskId"`
	OwnerID string    `json:"ownerId"`
	Message string    `json:"message"`
	Kind    Kind      `json:"kind"`
}

func DueMessage(title string) string {
	return fmt.Sprintf("Task \"%s\" is due now!", title)
}

func ReminderMessage(title string, dueDate, now time.Time) string {
	return fmt.Sprintf("Reminder: Task \"%s\" is due in %s", title, Humanize(dueDate.Sub(now)))
}

// Humanize округляет только вниз: меньше часа - минуты, меньше суток - часы, иначе дни
func Humanize(diff time.Duration) string {
	ms := diff.Milliseconds()
	hours := floorDiv(ms, int64(time.Hour/time.Millisecond))

	if hours < 1 {
		return fmt.Sprintf("%d minutes", floorDiv(ms, int64(time.Minute/time.Millisecond)))
	}
	if hours < 24 {
		return fmt.Sprintf("%d hours", hours)
	}
	return fmt.Sprintf("%d days", floorDiv(hours, 24))
}

// целочисленное деление в Go усекает к нулю, а нам нужен floor и для отрицательных
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
