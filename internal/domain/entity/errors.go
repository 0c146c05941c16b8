package entity

import "errors"

var (
	// ErrNotFound возвращается, если инспекции или аномалии с указанным идентификатором нет.
	ErrNotFound = errors.New("not found")

	// ErrValidation сообщает о некорректных входных данных (например, неверный бокс).
	ErrValidation = errors.New("validation failed")

	// ErrGateway означает, что внешний детектор недоступен или вернул неразборчивый ответ.
	ErrGateway = errors.New("detector gateway failure")

	// ErrExhaustedRetries возвращается, если не удалось подобрать свободный номер за отведённое число попыток.
	ErrExhaustedRetries = errors.New("exhausted retries")

	// ErrConflict означает, что документ изменился между чтением и записью.
	ErrConflict = errors.New("version conflict")
)
