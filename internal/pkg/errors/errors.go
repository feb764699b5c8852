package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда контест, задача, пользователь или запись не найдены (или не видны).
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется, когда запрос не аутентифицирован.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав
	// (например, запрос чужих нарушений без прав администратора контеста).
	ErrForbidden = errors.New("permission denied")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrExpiredToken используется, когда срок действия токена истек.
	ErrExpiredToken = errors.New("token is expired")

	// ErrConflict используется для конфликтов состояния (например, гонка при вставке уникальной записи).
	ErrConflict = errors.New("resource state conflict")
)
