package service

import (
	"errors"
	"fmt"
	"taskManager/internal/logger"
	"taskManager/internal/repository"

	"go.uber.org/zap"
)

const (
	CodeNotFound         = "NOT_FOUND"
	CodeDuplicateName    = "DUPLICATE_NAME"
	CodeInvalidPriority  = "INVALID_PRIORITY"
	CodeValidation       = "VALIDATION_ERROR"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
)

// сравнение через errors.Is идёт по коду
var (
	ErrNotFound         = &BusinessError{Code: CodeNotFound}
	ErrDuplicateName    = &BusinessError{Code: CodeDuplicateName}
	ErrInvalidPriority  = &BusinessError{Code: CodeInvalidPriority}
	ErrValidation       = &BusinessError{Code: CodeValidation}
	ErrStoreUnavailable = &BusinessError{Code: CodeStoreUnavailable}
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Is(target error) bool {
	t, ok := target.(*BusinessError)
	return ok && t.Code == b.Code
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

// Retryable - повтор запроса имеет смысл только при сбое хранилища
func (b *BusinessError) Retryable() bool {
	return b.Code == CodeStoreUnavailable
}

func NewNotFound(resource, id string) *BusinessError {
	return &BusinessError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s не найден(а)", resource, id),
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func NewDuplicateName(name string) *BusinessError {
	return &BusinessError{
		Code:    CodeDuplicateName,
		Message: fmt.Sprintf("категория '%s' уже существует", name),
		Details: map[string]any{"name": name},
	}
}

func NewInvalidPriority(value string) *BusinessError {
	return &BusinessError{
		Code:    CodeInvalidPriority,
		Message: fmt.Sprintf("недопустимый приоритет '%s', ожидается high, medium или low", value),
		Details: map[string]any{"priority": value},
	}
}

func NewValidationError(field, reason string) *BusinessError {
	return &BusinessError{
		Code:    CodeValidation,
		Message: fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		Details: map[string]any{
			"field":  field,
			"reason": reason,
		},
	}
}

func NewStoreUnavailable(err error) *BusinessError {
	return &BusinessError{
		Code:    CodeStoreUnavailable,
		Message: "хранилище временно недоступно, повторите запрос",
		Err:     err,
	}
}

// storeError переводит ошибку хранилища в бизнес-ошибку
func storeError(err error, resource, id string) error {
	var busErr *BusinessError
	switch {
	case errors.As(err, &busErr):
		return busErr
	case errors.Is(err, repository.ErrNotFound):
		return NewNotFound(resource, id)
	case errors.Is(err, repository.ErrOwnerRequired):
		// ошибка программиста, наружу не маскируем
		logger.Error("Service: Запрос к хранилищу без владельца", err, zap.String("resource", resource))
		return err
	default:
		logger.Error("Service: Ошибка хранилища", err, zap.String("resource", resource), zap.String("id", id))
		return NewStoreUnavailable(err)
	}
}
