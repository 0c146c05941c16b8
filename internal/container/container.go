package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"vision-inspector/config"
	app "vision-inspector/internal/application"
	"vision-inspector/internal/domain/port"
	"vision-inspector/internal/infrastructure/detector"
	"vision-inspector/internal/infrastructure/imagestore"
	"vision-inspector/internal/infrastructure/metrics"
	"vision-inspector/internal/infrastructure/storage"
	"vision-inspector/internal/infrastructure/vision"
)

type Container struct {
	UserService       *app.UserService
	InspectionService *app.InspectionService
	Highlighter       port.Highlighter
	Metrics           *metrics.Prometheus

	closers []io.Closer
}

// New собирает сервисы приложения по конфигурации
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{Metrics: metrics.NewPrometheus(reg)}

	repo, err := c.inspectionRepository(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	images, err := imageStore(ctx, cfg.Images)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	det, highlighter := detectorFor(cfg.Detector, logger)
	c.Highlighter = highlighter

	registry := app.NewRegistry(app.NewAuditRecorder(nil), nil)
	importer := app.NewDetectionImporter(det, registry, app.ImporterConfig{
		DefaultThreshold: cfg.Detector.Threshold,
		IoUThreshold:     cfg.Detector.IoUThreshold,
		Timeout:          cfg.Detector.Timeout.Std(),
	}, logger.With("component", "importer"), c.Metrics)

	inspections := app.NewInspectionService(repo, images, registry, importer, logger.With("component", "inspections"))
	inspections.SetMetrics(c.Metrics)
	inspections.SetAuditWarnThreshold(cfg.AuditLogWarnEntries)

	c.InspectionService = inspections
	c.UserService = app.NewUserService(storage.NewMemoryUserRepository())

	logger.Info("container ready",
		"storage", cfg.Storage.Driver, "images", cfg.Images.Driver, "detector", cfg.Detector.Driver)
	return c, nil
}

// Close освобождает соединения с хранилищами
func (c *Container) Close() error {
	var errs []error
	for _, cl := range c.closers {
		errs = append(errs, cl.Close())
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Container) inspectionRepository(ctx context.Context, cfg config.StorageConfig) (port.InspectionRepository, error) {
	switch cfg.Driver {
	case "", "memory":
		return storage.NewMemoryInspectionRepository(), nil
	case "sqlite":
		repo, err := storage.NewSQLiteInspectionRepository(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, repo)
		return repo, nil
	case "postgres":
		repo, err := storage.NewPostgresInspectionRepository(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, repo)
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func imageStore(ctx context.Context, cfg config.ImageConfig) (port.ImageStore, error) {
	switch cfg.Driver {
	case "", "memory":
		return imagestore.NewMemoryStore(cfg.PublicBaseURL), nil
	case "s3":
		return imagestore.NewS3Store(ctx, imagestore.S3Config{
			Bucket:          cfg.Bucket,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			PathStyle:       cfg.PathStyle,
			PublicBaseURL:   cfg.PublicBaseURL,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unknown image store driver %q", cfg.Driver)
	}
}

// detectorFor возвращает nil, если детектор не настроен: импорт детекций тогда пропускается
func detectorFor(cfg config.DetectorConfig, logger *slog.Logger) (port.Detector, port.Highlighter) {
	switch cfg.Driver {
	case "http":
		if cfg.URL == "" {
			logger.Warn("DETECTOR_URL is empty, detection import disabled")
			return nil, nil
		}
		return detector.NewHTTPDetector(cfg.URL, nil, cfg.Timeout.Std()), nil
	case "gocv":
		d := vision.NewGoCVDetector()
		return d, d
	default:
		return nil, nil
	}
}
