package app

import (
	"context"
	"log/slog"
	"math"
	"time"

	"vision-inspector/internal/domain/entity"
	"vision-inspector/internal/domain/port"
)

const (
	DefaultThreshold     = 0.1
	DefaultIoUThreshold  = 0.2
	DefaultDetectTimeout = 30 * time.Second
)

const (
	importOutcomeOK       = "ok"
	importOutcomeEmpty    = "empty"
	importOutcomeGateway  = "gateway_failure"
	importOutcomeDisabled = "disabled"
)

// ImporterConfig настройки конвейера импорта детекций.
type ImporterConfig struct {
	DefaultThreshold float64
	IoUThreshold     float64
	Timeout          time.Duration
}

// ImportResult содержит то, что конвейер добавил за один проход.
type ImportResult struct {
	Anomalies  []entity.Anomaly  `json:"anomalies"`
	LogEntries []entity.LogEntry `json:"logEntries"`
	ImageURL   string            `json:"imageUrl,omitempty"`
}

// Candidates возвращает нормализованные детекции, ещё не слитые в набор осмотра.
type Candidates struct {
	Anomalies []entity.Anomaly
	ImageURL  string

	outcome string
	elapsed time.Duration
}

// DetectionImporter вызывает детектор, нормализует боксы и проводит каждую детекцию
// через Registry.Add, так что на каждую детекцию появляется одна запись журнала.
type DetectionImporter struct {
	detector port.Detector
	registry *Registry
	cfg      ImporterConfig
	logger   *slog.Logger
	metrics  port.Metrics
}

// NewDetectionImporter создаёт конвейер. Порог вне [0, 1] заменяется значением по умолчанию.
func NewDetectionImporter(detector port.Detector, registry *Registry, cfg ImporterConfig, logger *slog.Logger, metrics port.Metrics) *DetectionImporter {
	cfg.DefaultThreshold = ResolveThreshold(&cfg.DefaultThreshold, DefaultThreshold)
	cfg.IoUThreshold = ResolveThreshold(&cfg.IoUThreshold, DefaultIoUThreshold)
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultDetectTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DetectionImporter{
		detector: detector,
		registry: registry,
		cfg:      cfg,
		logger:   logger,
		metrics:  metricsOrNop(metrics),
	}
}

// ResolveThreshold возвращает порог, если он задан и лежит в [0, 1], иначе fallback.
func ResolveThreshold(threshold *float64, fallback float64) float64 {
	if threshold == nil || math.IsNaN(*threshold) || *threshold < 0 || *threshold > 1 {
		return fallback
	}
	return *threshold
}

// Import прогоняет изображение через детектор и сливает результат в набор.
// При сбое детектора набор возвращается без изменений, а результат пуст.
func (i *DetectionImporter) Import(ctx context.Context, set AnomalySet, image []byte, threshold *float64) (AnomalySet, ImportResult) {
	candidates := i.Detect(ctx, image, threshold)
	next, result := i.Merge(set, candidates.Anomalies)
	result.ImageURL = candidates.ImageURL
	i.Report(candidates, len(result.Anomalies))
	return next, result
}

// Detect вызывает детектор и нормализует его боксы. Ошибки не возвращаются:
// изображение сохраняется, даже если детекция не удалась. Метрика импорта
// пишется позже через Report, когда известно число сохранённых аномалий.
func (i *DetectionImporter) Detect(ctx context.Context, image []byte, threshold *float64) Candidates {
	if len(image) == 0 {
		return Candidates{Anomalies: []entity.Anomaly{}}
	}
	if i.detector == nil {
		i.logger.Warn("detector is not configured, skipping detection")
		return Candidates{Anomalies: []entity.Anomaly{}, outcome: importOutcomeDisabled}
	}

	req := port.DetectionRequest{
		Image:        image,
		Threshold:    ResolveThreshold(threshold, i.cfg.DefaultThreshold),
		IoUThreshold: i.cfg.IoUThreshold,
	}

	ctx, cancel := context.WithTimeout(ctx, i.cfg.Timeout)
	defer cancel()

	started := time.Now()
	resp, err := i.detector.Detect(ctx, req)
	if err != nil {
		i.logger.Warn("detection failed, continuing without detections",
			"error", err, "threshold", req.Threshold, "iou_threshold", req.IoUThreshold)
		return Candidates{Anomalies: []entity.Anomaly{}, outcome: importOutcomeGateway, elapsed: time.Since(started)}
	}

	out := Candidates{
		Anomalies: make([]entity.Anomaly, 0, len(resp.Detections)),
		ImageURL:  resp.ImageURL,
		outcome:   importOutcomeOK,
		elapsed:   time.Since(started),
	}
	for _, d := range resp.Detections {
		out.Anomalies = append(out.Anomalies, entity.Anomaly{
			Box:        entity.NormalizeBox(d.Box),
			ClassName:  d.ClassName,
			Confidence: entity.Float(d.Confidence),
			MadeBy:     entity.ProvenanceAI,
		})
	}

	i.logger.Debug("detector responded", "detections", len(out.Anomalies), "threshold", req.Threshold)
	return out
}

// Report пишет метрику импорта: stored это число аномалий, реально попавших в осмотр.
// Кандидаты без вызова детектора (пустой снимок) не учитываются.
func (i *DetectionImporter) Report(c Candidates, stored int) {
	if c.outcome == "" {
		return
	}
	outcome := c.outcome
	if outcome == importOutcomeOK && stored == 0 {
		outcome = importOutcomeEmpty
	}
	i.metrics.ObserveImport(outcome, stored, c.elapsed)
}

// Merge добавляет кандидатов в набор через реестр: новый ID и источник AI у каждого.
// Кандидаты с некорректной геометрией пропускаются.
func (i *DetectionImporter) Merge(set AnomalySet, candidates []entity.Anomaly) (AnomalySet, ImportResult) {
	result := ImportResult{
		Anomalies:  make([]entity.Anomaly, 0, len(candidates)),
		LogEntries: make([]entity.LogEntry, 0, len(candidates)),
	}

	cur := set
	for _, c := range candidates {
		c.ID = ""
		c.MadeBy = entity.ProvenanceAI

		next, stored, err := i.registry.Add(cur, c)
		if err != nil {
			i.logger.Warn("skipping detection", "error", err, "class", c.ClassName, "box", []float64(c.Box))
			continue
		}
		cur = next
		result.Anomalies = append(result.Anomalies, stored)
		result.LogEntries = append(result.LogEntries, next.Log[len(next.Log)-1])
	}
	return cur, result
}
