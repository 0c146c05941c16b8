package storage

import (
	"context"
	"sync"

	"vision-inspector/internal/domain/entity"
	"vision-inspector/internal/domain/port"
)

// MemoryUserRepository in-memory хранилище сессий пользователей бота
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[int64]*entity.User
}

// NewMemoryUserRepository создаёт новое in-memory хранилище
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[int64]*entity.User),
	}
}

// Get возвращает копию пользователя, создаёт нового если не найден
func (r *MemoryUserRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	r.mu.RLock()
	user, exists := r.users[userID]
	r.mu.RUnlock()

	if exists {
		return cloneUser(user), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Между RUnlock и Lock пользователя мог создать другой апдейт
	if user, exists := r.users[userID]; exists {
		return cloneUser(user), nil
	}
	newUser := entity.NewUser(userID, chatID)
	r.users[userID] = newUser

	return cloneUser(newUser), nil
}

// Save сохраняет состояние пользователя
func (r *MemoryUserRepository) Save(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	r.users[user.ID] = cloneUser(user)
	r.mu.Unlock()

	return nil
}

// UpdateState обновляет состояние пользователя, создаёт нового если не найден
func (r *MemoryUserRepository) UpdateState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[userID]
	if !exists {
		user = entity.NewUser(userID, chatID)
	}
	updated := cloneUser(user)
	updated.SetState(state)
	r.users[userID] = updated

	return cloneUser(updated), nil
}

func cloneUser(u *entity.User) *entity.User {
	out := *u
	if u.Threshold != nil {
		out.Threshold = entity.Float(*u.Threshold)
	}
	return &out
}

// Проверка реализации интерфейса
var _ port.UserRepository = (*MemoryUserRepository)(nil)
