package port

import (
	"context"

	"vision-inspector/internal/domain/entity"
)

// InspectionRepository интерфейс хранилища осмотров.
// Поля anomalies и anomaliesLog всегда заменяются целиком.
type InspectionRepository interface {
	// Create сохраняет новый осмотр и проставляет IID, Version и CreatedAt
	Create(ctx context.Context, inspection *entity.Inspection) error

	// Get возвращает осмотр по IID или entity.ErrNotFound
	Get(ctx context.Context, iid int64) (*entity.Inspection, error)

	// List возвращает все осмотры по возрастанию IID
	List(ctx context.Context) ([]*entity.Inspection, error)

	// Update заменяет снимок, аномалии и журнал, если версия не изменилась.
	// При несовпадении версии возвращает entity.ErrConflict, при успехе увеличивает Version.
	Update(ctx context.Context, inspection *entity.Inspection) error

	// ExistsNumber проверяет, занят ли бизнес-номер
	ExistsNumber(ctx context.Context, number string) (bool, error)
}
