package service

import (
	"slices"
	"taskManager/internal/models/task"
)

type SortMode string

const SortByDueDate SortMode = "dueDate"
const SortByPriority SortMode = "priority"

// OrderFilters - предфильтр перед сортировкой, пустое значение не фильтрует
type OrderFilters struct {
	Priority task.Priority
	Category string
}

// ParseSortMode: пустая строка означает сортировку по дедлайну
func ParseSortMode(raw string) (SortMode, error) {
	switch SortMode(raw) {
	case "", SortByDueDate:
		return SortByDueDate, nil
	case SortByPriority:
		return SortByPriority, nil
	default:
		return "", NewValidationError("sortBy", "ожидается dueDate или priority")
	}
}

// OrderTasks возвращает новый отсортированный слайс, входной не меняется.
// Сортировка стабильная: при равных ключах сохраняется порядок входа.
func OrderTasks(tasks []*task.Task, mode SortMode, filters OrderFilters) []*task.Task {
	res := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		if filters.Priority != "" && t.Priority != filters.Priority {
			continue
		}
		if filters.Category != "" && t.Category != filters.Category {
			continue
		}
		res = append(res, t)
	}

	switch mode {
	case SortByPriority:
		slices.SortStableFunc(res, func(a, b *task.Task) int {
			// вес приоритета по убыванию, затем дедлайн по возрастанию
			if a.Priority.Weight() != b.Priority.Weight() {
				return b.Priority.Weight() - a.Priority.Weight()
			}
			return a.DueDate.Compare(b.DueDate)
		})
	default:
		slices.SortStableFunc(res, func(a, b *task.Task) int {
			return a.DueDate.Compare(b.DueDate)
		})
	}
	return res
}
