package repository

import (
	"errors"
	"strings"
)

var (
	ErrNotFound = errors.New("запись не найдена")
	// ErrDuplicate - нарушена уникальность (владелец, название)
	ErrDuplicate = errors.New("запись с таким ключом уже существует")
	// ErrDefaultConflict - у владельца уже есть другая категория по умолчанию
	ErrDefaultConflict = errors.New("у владельца уже есть категория по умолчанию")
	// ErrOwnerRequired - ошибка программиста: запрос без владельца в фильтре
	ErrOwnerRequired = errors.New("owner id обязателен для операции")
	ErrUnavailable   = errors.New("хранилище недоступно")
	// ErrVersionConflict - документ изменился после чтения, запись отклонена
	ErrVersionConflict = errors.New("конфликт версий: документ изменён после чтения")
)

func RequireOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return ErrOwnerRequired
	}
	return nil
}
