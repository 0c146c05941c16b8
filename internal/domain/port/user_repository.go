package port

import (
	"context"

	"vision-inspector/internal/domain/entity"
)

// UserRepository хранит сессии пользователей бота: текущий осмотр, порог детектора
// и состояние диалога. Возвращаются копии, изменения видны только после Save.
type UserRepository interface {
	// Get возвращает сессию пользователя, создаёт новую если не найдена
	Get(ctx context.Context, userID, chatID int64) (*entity.User, error)

	// Save сохраняет сессию целиком
	Save(ctx context.Context, user *entity.User) error

	// UpdateState меняет только состояние диалога и возвращает обновлённую сессию
	UpdateState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error)
}
