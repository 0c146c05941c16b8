package app

import (
	"context"
	"math"

	"vision-inspector/internal/domain/entity"
	"vision-inspector/internal/domain/port"
)

type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

// SetState меняет только состояние диалога, не трогая остальную сессию.
func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	return s.repo.UpdateState(ctx, userID, chatID, state)
}

// SelectInspection делает осмотр текущим для пользователя.
func (s *UserService) SelectInspection(ctx context.Context, userID, chatID, iid int64) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) error {
		u.SelectInspection(iid)
		return nil
	})
}

// SetThreshold запоминает порог детектора пользователя. Значение вне [0, 1]
// сбрасывает порог, и детектор получает значение по умолчанию.
func (s *UserService) SetThreshold(ctx context.Context, userID, chatID int64, threshold float64) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) error {
		u.Threshold = nil
		if !math.IsNaN(threshold) && threshold >= 0 && threshold <= 1 {
			u.Threshold = entity.Float(threshold)
		}
		return nil
	})
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}

func (s *UserService) update(ctx context.Context, userID, chatID int64, fn func(*entity.User) error) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	if err := fn(user); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
