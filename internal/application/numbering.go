package app

import (
	"context"
	"fmt"
	"math/rand/v2"

	"vision-inspector/internal/domain/entity"
	"vision-inspector/internal/domain/port"
)

// InspectionPrefix префикс номера осмотра.
const InspectionPrefix = "I"

const (
	// DefaultMaxAttempts ограничивает перебор при патологической частоте коллизий.
	DefaultMaxAttempts = 10000
	numberSpace        = 1_000_000
)

// NumberGenerator выдаёт номера вида <prefix>-NNNNNN, проверяя занятость в хранилище.
// Проверка и последующая запись не атомарны: параллельно генераторы не запускать,
// уникальность дополнительно держит ограничение UNIQUE в хранилище.
// Пространство в миллион номеров начинает заметно конфликтовать с тысячами записей.
type NumberGenerator struct {
	Prefix      string
	MaxAttempts int
	Intn        func(n int) int
	Exists      func(ctx context.Context, number string) (bool, error)
	Metrics     port.Metrics
}

// NewNumberGenerator создаёт генератор со случайным источником по умолчанию.
func NewNumberGenerator(prefix string, exists func(ctx context.Context, number string) (bool, error)) *NumberGenerator {
	return &NumberGenerator{
		Prefix:      prefix,
		MaxAttempts: DefaultMaxAttempts,
		Intn:        rand.IntN,
		Exists:      exists,
	}
}

// Next возвращает свободный номер или entity.ErrExhaustedRetries.
// Ошибка проверки занятости прерывает подбор сразу.
func (g *NumberGenerator) Next(ctx context.Context) (string, error) {
	maxAttempts := g.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	intn := g.Intn
	if intn == nil {
		intn = rand.IntN
	}
	metrics := metricsOrNop(g.Metrics)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidate := fmt.Sprintf("%s-%06d", g.Prefix, intn(numberSpace))
		if g.Exists == nil {
			metrics.ObserveNumberAttempts(g.Prefix, attempt)
			return candidate, nil
		}

		taken, err := g.Exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check number %s: %w", candidate, err)
		}
		if !taken {
			metrics.ObserveNumberAttempts(g.Prefix, attempt)
			return candidate, nil
		}
	}

	metrics.ObserveNumberAttempts(g.Prefix, maxAttempts)
	return "", fmt.Errorf("%w: no free %s number after %d attempts", entity.ErrExhaustedRetries, g.Prefix, maxAttempts)
}
