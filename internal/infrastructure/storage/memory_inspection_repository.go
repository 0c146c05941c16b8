package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"vision-inspector/internal/domain/entity"
	"vision-inspector/internal/domain/port"
)

// MemoryInspectionRepository in-memory хранилище осмотров
type MemoryInspectionRepository struct {
	mu          sync.RWMutex
	inspections map[int64]*entity.Inspection
	numbers     map[string]int64
	nextIID     int64
	now         func() time.Time
}

// NewMemoryInspectionRepository создаёт новое in-memory хранилище
func NewMemoryInspectionRepository() *MemoryInspectionRepository {
	return &MemoryInspectionRepository{
		inspections: make(map[int64]*entity.Inspection),
		numbers:     make(map[string]int64),
		now:         time.Now,
	}
}

// Create сохраняет новый осмотр
func (r *MemoryInspectionRepository) Create(ctx context.Context, insp *entity.Inspection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.numbers[insp.Number]; taken {
		return fmt.Errorf("%w: inspection number %s already exists", entity.ErrValidation, insp.Number)
	}

	r.nextIID++
	insp.IID = r.nextIID
	insp.Version = 1
	insp.CreatedAt = r.now().UTC()

	r.inspections[insp.IID] = cloneInspection(insp)
	r.numbers[insp.Number] = insp.IID
	return nil
}

// Get возвращает копию осмотра
func (r *MemoryInspectionRepository) Get(ctx context.Context, iid int64) (*entity.Inspection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	insp, exists := r.inspections[iid]
	if !exists {
		return nil, fmt.Errorf("%w: inspection %d", entity.ErrNotFound, iid)
	}
	return cloneInspection(insp), nil
}

// List возвращает копии всех осмотров по возрастанию IID
func (r *MemoryInspectionRepository) List(ctx context.Context) ([]*entity.Inspection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.Inspection, 0, len(r.inspections))
	for _, insp := range r.inspections {
		out = append(out, cloneInspection(insp))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IID < out[j].IID })
	return out, nil
}

// Update заменяет снимок, аномалии и журнал при совпадении версии
func (r *MemoryInspectionRepository) Update(ctx context.Context, insp *entity.Inspection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.inspections[insp.IID]
	if !exists {
		return fmt.Errorf("%w: inspection %d", entity.ErrNotFound, insp.IID)
	}
	if stored.Version != insp.Version {
		return fmt.Errorf("%w: inspection %d has version %d, got %d",
			entity.ErrConflict, insp.IID, stored.Version, insp.Version)
	}

	fresh := cloneInspection(insp)
	next := cloneInspection(stored)
	next.RefImage = fresh.RefImage
	next.Anomalies, next.AnomaliesLog = fresh.Anomalies, fresh.AnomaliesLog
	next.Version++

	r.inspections[insp.IID] = next
	insp.Version = next.Version
	return nil
}

// ExistsNumber проверяет, занят ли номер
func (r *MemoryInspectionRepository) ExistsNumber(ctx context.Context, number string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, taken := r.numbers[number]
	return taken, nil
}

// Проверка реализации интерфейса
var _ port.InspectionRepository = (*MemoryInspectionRepository)(nil)
