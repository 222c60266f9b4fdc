package task

import (
	"time"
)

// Patch - частичное обновление задачи, nil означает "поле не передано"
type Patch struct {
	Title       *string
	Description *string
	Status      *Status
	DueDate     *time.Time
	Category    *string
	Priority    *Priority
	Reminders   *[]Reminder
}

type PatchOption func(*Patch)

func NewPatch(options ...PatchOption) Patch {
	var p Patch
	for _, opt := range options {
		if opt != nil {
			opt(&p)
		}
	}
	return p
}

func WithTitle(title string) PatchOption {
	return func(p *Patch) {
		p.Title = &title
	}
}

func WithDescription(description string) PatchOption {
	return func(p *Patch) {
		p.Description = &description
	}
}

func WithStatus(status Status) PatchOption {
	if status == "" {
		return nil
	}
	return func(p *Patch) {
		p.Status = &status
	}
}

func WithDueDate(dueDate time.Time) PatchOption {
	if dueDate.IsZero() {
		return nil
	}
	return func(p *Patch) {
		p.DueDate = &dueDate
	}
}

func WithCategory(category string) PatchOption {
	return func(p *Patch) {
		p.Category = &category
	}
}

func WithPriority(priority Priority) PatchOption {
	if priority == "" {
		return nil
	}
	return func(p *Patch) {
		p.Priority = &priority
	}
}

// WithReminders полностью заменяет список напоминаний, пустой слайс удаляет все
func WithReminders(reminders []Reminder) PatchOption {
	return func(p *Patch) {
		list := reminders
		if list == nil {
			list = []Reminder{}
		}
		p.Reminders = &list
	}
}

// WithReminderTimes - то же самое, но из голых времён, как их присылает клиент
func WithReminderTimes(times []time.Time) PatchOption {
	list := make([]Reminder, 0, len(times))
	for _, t := range times {
		list = append(list, Reminder{Time: t})
	}
	return WithReminders(list)
}
