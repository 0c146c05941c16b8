package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"vision-inspector/internal/domain/entity"
	"vision-inspector/internal/domain/port"
)

const (
	maxWriteAttempts        = 3
	DefaultAuditWarnEntries = 5000
	defaultImageContentType = "application/octet-stream"
)

// ImageUpload представляет снимок, загруженный пользователем.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (u *ImageUpload) empty() bool {
	return u == nil || len(u.Data) == 0
}

// InspectionService управляет осмотрами: создание, смена снимка и правка аномалий.
// Каждое изменение читает документ целиком, меняет его в памяти и записывает
// аномалии и журнал одной условной записью по версии.
type InspectionService struct {
	repo      port.InspectionRepository
	images    port.ImageStore
	registry  *Registry
	importer  *DetectionImporter
	numbers   *NumberGenerator
	logger    *slog.Logger
	metrics   port.Metrics
	warnAfter int
}

// NewInspectionService создаёт сервис осмотров.
func NewInspectionService(repo port.InspectionRepository, images port.ImageStore, registry *Registry, importer *DetectionImporter, logger *slog.Logger) *InspectionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InspectionService{
		repo:      repo,
		images:    images,
		registry:  registry,
		importer:  importer,
		numbers:   NewNumberGenerator(InspectionPrefix, repo.ExistsNumber),
		logger:    logger,
		metrics:   nopMetrics{},
		warnAfter: DefaultAuditWarnEntries,
	}
}

// SetMetrics подключает сбор метрик.
func (s *InspectionService) SetMetrics(m port.Metrics) {
	s.metrics = metricsOrNop(m)
	s.numbers.Metrics = m
}

// SetAuditWarnThreshold задаёт размер журнала, после которого сервис предупреждает о росте.
func (s *InspectionService) SetAuditWarnThreshold(entries int) {
	s.warnAfter = entries
}

// Create создаёт осмотр. Пустой номер генерируется, снимок загружается и
// сразу проходит через детектор.
func (s *InspectionService) Create(ctx context.Context, in entity.NewInspection, image *ImageUpload, threshold *float64) (*entity.Inspection, error) {
	number := strings.TrimSpace(in.Number)
	if number == "" {
		generated, err := s.numbers.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("generate inspection number: %w", err)
		}
		number = generated
	} else {
		taken, err := s.repo.ExistsNumber(ctx, number)
		if err != nil {
			return nil, fmt.Errorf("check inspection number: %w", err)
		}
		if taken {
			return nil, fmt.Errorf("%w: inspection number %s already exists", entity.ErrValidation, number)
		}
	}

	insp := &entity.Inspection{
		Number:            number,
		TransformerNumber: in.TransformerNumber,
		InspectionDate:    in.InspectionDate,
		MaintenanceDate:   in.MaintenanceDate,
		Status:            in.Status,
		Inspector:         in.Inspector,
		Anomalies:         []entity.Anomaly{},
		AnomaliesLog:      []entity.LogEntry{},
	}

	var uploaded string
	if !image.empty() {
		url, err := s.upload(ctx, image)
		if err != nil {
			return nil, err
		}
		uploaded = url

		set, result := s.importer.Import(ctx, AnomalySet{Anomalies: insp.Anomalies, Log: insp.AnomaliesLog}, image.Data, threshold)
		insp.RefImage = url
		if result.ImageURL != "" {
			insp.RefImage = result.ImageURL
		}
		insp.Anomalies, insp.AnomaliesLog = set.Anomalies, set.Log
	}

	if err := s.repo.Create(ctx, insp); err != nil {
		if uploaded != "" {
			s.logger.Warn("inspection not stored, reference image left in store",
				"number", insp.Number, "ref_image", uploaded, "error", err)
		}
		return nil, fmt.Errorf("create inspection: %w", err)
	}
	s.observeMutations(insp.AnomaliesLog)

	s.logger.Info("inspection created",
		"iid", insp.IID, "number", insp.Number, "anomalies", len(insp.Anomalies))
	return insp, nil
}

// Get возвращает осмотр по IID.
func (s *InspectionService) Get(ctx context.Context, iid int64) (*entity.Inspection, error) {
	return s.repo.Get(ctx, iid)
}

// List возвращает все осмотры.
func (s *InspectionService) List(ctx context.Context) ([]*entity.Inspection, error) {
	return s.repo.List(ctx)
}

// ReplaceRefImage загружает новый эталонный снимок и добавляет найденные на нём
// аномалии к уже существующим. Детектор вызывается один раз, даже если запись повторяется.
func (s *InspectionService) ReplaceRefImage(ctx context.Context, iid int64, image *ImageUpload, threshold *float64) (*entity.Inspection, ImportResult, error) {
	if image.empty() {
		return nil, ImportResult{}, fmt.Errorf("%w: reference image is empty", entity.ErrValidation)
	}
	if _, err := s.repo.Get(ctx, iid); err != nil {
		return nil, ImportResult{}, err
	}

	url, err := s.upload(ctx, image)
	if err != nil {
		return nil, ImportResult{}, err
	}

	candidates := s.importer.Detect(ctx, image.Data, threshold)
	if candidates.ImageURL != "" {
		url = candidates.ImageURL
	}

	var result ImportResult
	insp, err := s.mutate(ctx, iid, func(insp *entity.Inspection) error {
		var set AnomalySet
		set, result = s.importer.Merge(setOf(insp), candidates.Anomalies)
		result.ImageURL = candidates.ImageURL
		insp.RefImage = url
		insp.Anomalies, insp.AnomaliesLog = set.Anomalies, set.Log
		return nil
	})
	if err != nil {
		s.importer.Report(candidates, 0)
		return nil, ImportResult{}, err
	}
	s.importer.Report(candidates, len(result.Anomalies))

	s.logger.Info("reference image replaced",
		"iid", iid, "detections", len(result.Anomalies), "anomalies", len(insp.Anomalies))
	return insp, result, nil
}

// Anomalies возвращает текущие аномалии осмотра.
func (s *InspectionService) Anomalies(ctx context.Context, iid int64) ([]entity.Anomaly, error) {
	insp, err := s.repo.Get(ctx, iid)
	if err != nil {
		return nil, err
	}
	return s.registry.Get(setOf(insp)), nil
}

// AuditLog возвращает журнал изменений аномалий осмотра.
func (s *InspectionService) AuditLog(ctx context.Context, iid int64) ([]entity.LogEntry, error) {
	insp, err := s.repo.Get(ctx, iid)
	if err != nil {
		return nil, err
	}
	out := make([]entity.LogEntry, len(insp.AnomaliesLog))
	copy(out, insp.AnomaliesLog)
	return out, nil
}

// AddAnomaly добавляет аномалию, размеченную пользователем.
func (s *InspectionService) AddAnomaly(ctx context.Context, iid int64, anomaly entity.Anomaly) (entity.Anomaly, error) {
	var stored entity.Anomaly
	_, err := s.mutate(ctx, iid, func(insp *entity.Inspection) error {
		set, a, err := s.registry.Add(setOf(insp), anomaly)
		if err != nil {
			return err
		}
		stored = a
		insp.Anomalies, insp.AnomaliesLog = set.Anomalies, set.Log
		return nil
	})
	if err != nil {
		return entity.Anomaly{}, err
	}
	return stored, nil
}

// UpdateAnomaly правит аномалию; ID и источник не меняются.
func (s *InspectionService) UpdateAnomaly(ctx context.Context, iid int64, id string, changes entity.Anomaly) (entity.Anomaly, error) {
	var stored entity.Anomaly
	_, err := s.mutate(ctx, iid, func(insp *entity.Inspection) error {
		set, a, err := s.registry.Update(setOf(insp), id, changes)
		if err != nil {
			return err
		}
		stored = a
		insp.Anomalies, insp.AnomaliesLog = set.Anomalies, set.Log
		return nil
	})
	if err != nil {
		return entity.Anomaly{}, err
	}
	return stored, nil
}

// DeleteAnomaly удаляет аномалию и возвращает её последнее состояние.
func (s *InspectionService) DeleteAnomaly(ctx context.Context, iid int64, id string) (entity.Anomaly, error) {
	var removed entity.Anomaly
	_, err := s.mutate(ctx, iid, func(insp *entity.Inspection) error {
		set, a, err := s.registry.Delete(setOf(insp), id)
		if err != nil {
			return err
		}
		removed = a
		insp.Anomalies, insp.AnomaliesLog = set.Anomalies, set.Log
		return nil
	})
	if err != nil {
		return entity.Anomaly{}, err
	}
	return removed, nil
}

// mutate выполняет цикл чтение-изменение-запись. При конфликте версий цикл
// повторяется на свежем чтении. Метрики изменений пишутся только после успешной записи.
func (s *InspectionService) mutate(ctx context.Context, iid int64, apply func(*entity.Inspection) error) (*entity.Inspection, error) {
	var lastErr error
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		insp, err := s.repo.Get(ctx, iid)
		if err != nil {
			return nil, err
		}
		committed := len(insp.AnomaliesLog)
		if err := apply(insp); err != nil {
			return nil, err
		}

		err = s.repo.Update(ctx, insp)
		if err == nil {
			s.observeMutations(insp.AnomaliesLog[committed:])
			s.observeLog(insp)
			return insp, nil
		}
		if !errors.Is(err, entity.ErrConflict) {
			return nil, fmt.Errorf("update inspection %d: %w", iid, err)
		}

		lastErr = err
		s.logger.Warn("concurrent inspection update, retrying", "iid", iid, "attempt", attempt)
	}
	return nil, fmt.Errorf("update inspection %d: %w", iid, lastErr)
}

func (s *InspectionService) upload(ctx context.Context, image *ImageUpload) (string, error) {
	if s.images == nil {
		return "", errors.New("image store is not configured")
	}
	contentType := image.ContentType
	if contentType == "" {
		contentType = defaultImageContentType
	}
	url, err := s.images.Put(ctx, image.Filename, contentType, image.Data)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return url, nil
}

// observeMutations учитывает в метриках только записи журнала, которые уже сохранены.
func (s *InspectionService) observeMutations(entries []entity.LogEntry) {
	for _, e := range entries {
		s.metrics.ObserveMutation(e.Action, e.MadeBy)
	}
}

func (s *InspectionService) observeLog(insp *entity.Inspection) {
	n := len(insp.AnomaliesLog)
	s.metrics.ObserveLogSize(n)
	if s.warnAfter > 0 && n >= s.warnAfter {
		s.logger.Warn("anomaly audit log is not compacted and keeps growing",
			"iid", insp.IID, "entries", n, "warn_after", s.warnAfter)
	}
}
