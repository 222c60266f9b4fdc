package dto

import (
	"taskManager/internal/models/category"
	"taskManager/internal/models/notification"
	"taskManager/internal/models/task"
	"time"

	"github.com/google/uuid"
)

// ReminderRequest: поле sent принимается, но всегда сбрасывается сервисом
type ReminderRequest struct {
	Time time.Time `json:"time"`
	Sent bool      `json:"sent,omitempty"`
}

type CreateTaskRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	DueDate     time.Time         `json:"due_date"`
	Category    string            `json:"category"`
	Priority    task.Priority     `json:"priority"`
	Reminders   []ReminderRequest `json:"reminders"`
}

func (r CreateTaskRequest) ReminderTimes() []time.Time {
	res := make([]time.Time, 0, len(r.Reminders))
	for _, rem := range r.Reminders {
		res = append(res, rem.Time)
	}
	return res
}

type UpdateTaskRequest struct {
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	Status      *task.Status       `json:"status,omitempty"`
	DueDate     *time.Time         `json:"due_date,omitempty"`
	Category    *string            `json:"category,omitempty"`
	Priority    *task.Priority     `json:"priority,omitempty"`
	Reminders   *[]ReminderRequest `json:"reminders,omitempty"`
}

// Patch переводит запрос в патч: отсутствующее поле не меняется
func (r UpdateTaskRequest) Patch() task.Patch {
	p := task.Patch{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		DueDate:     r.DueDate,
		Category:    r.Category,
		Priority:    r.Priority,
	}
	if r.Reminders != nil {
		list := make([]task.Reminder, 0, len(*r.Reminders))
		for _, rem := range *r.Reminders {
			list = append(list, task.Reminder{Time: rem.Time, Sent: rem.Sent})
		}
		p.Reminders = &list
	}
	return p
}

type ReminderResponse struct {
	Time time.Time `json:"time"`
	Sent bool      `json:"sent"`
}

type TaskResponse struct {
	UUID                uuid.UUID          `json:"id"`
	Title               string             `json:"title"`
	Description         string             `json:"description"`
	Status              string             `json:"status"`
	DueDate             time.Time          `json:"due_date"`
	Category            string             `json:"category"`
	Priority            string             `json:"priority"`
	DueNotificationSent bool               `json:"due_notification_sent"`
	Reminders           []ReminderResponse `json:"reminders"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
	IsOverdue           bool               `json:"is_overdue"`
}

func FromTask(t *task.Task, now time.Time) TaskResponse {
	reminders := make([]ReminderResponse, 0, len(t.Reminders))
	for _, r := range t.Reminders {
		reminders = append(reminders, ReminderResponse{Time: r.Time, Sent: r.Sent})
	}
	return TaskResponse{
		UUID:                t.UUID,
		Title:               t.Title,
		Description:         t.Description,
		Status:              string(t.Status),
		DueDate:             t.DueDate,
		Category:            t.Category,
		Priority:            string(t.Priority),
		DueNotificationSent: t.DueNotificationSent,
		Reminders:           reminders,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
		IsOverdue:           t.Status == task.StatusPending && t.DueDate.Before(now),
	}
}

func FromTaskList(tasks []*task.Task, now time.Time) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t, now)
	}
	return result
}

// CategoryRequest: все поля необязательны, owner_id принимается и игнорируется
type CategoryRequest struct {
	Name        *string        `json:"name,omitempty"`
	Color       *string        `json:"color,omitempty"`
	Icon        *category.Icon `json:"icon,omitempty"`
	Description *string        `json:"description,omitempty"`
	Priority    *int           `json:"priority,omitempty"`
	IsDefault   *bool          `json:"is_default,omitempty"`
	OwnerID     *string        `json:"owner_id,omitempty"`
}

func (r CategoryRequest) Fields() category.Fields {
	return category.Fields{
		Name:         r.Name,
		Color:        r.Color,
		Icon:         r.Icon,
		Description:  r.Description,
		PriorityTier: r.Priority,
		IsDefault:    r.IsDefault,
		OwnerID:      r.OwnerID,
	}
}

type CategoryResponse struct {
	UUID        uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Color       string    `json:"color"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
	Priority    int       `json:"priority"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func FromCategory(c *category.Category) CategoryResponse {
	return CategoryResponse{
		UUID:        c.UUID,
		Name:        c.Name,
		Color:       c.Color,
		Icon:        string(c.Icon),
		Description: c.Description,
		Priority:    c.PriorityTier,
		IsDefault:   c.IsDefault,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func FromCategoryList(list []*category.Category) []CategoryResponse {
	result := make([]CategoryResponse, len(list))
	for i, c := range list {
		result[i] = FromCategory(c)
	}
	return result
}

type ScanResponse struct {
	Count  int                  `json:"count"`
	Events []notification.Event `json:"events"`
}
