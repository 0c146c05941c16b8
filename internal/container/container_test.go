package container

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"vision-inspector/config"
	"vision-inspector/internal/domain/entity"
)

func testConfig() *config.Config {
	return &config.Config{
		Storage:  config.StorageConfig{Driver: "memory"},
		Images:   config.ImageConfig{Driver: "memory"},
		Detector: config.DetectorConfig{Driver: "http", Threshold: 0.1, IoUThreshold: 0.2, Timeout: config.Duration(time.Second)},
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_MemoryStack(t *testing.T) {
	ctx := context.Background()
	c, err := New(ctx, testConfig(), discard(), prometheus.NewRegistry())
	require.NoError(t, err)
	defer c.Close()

	require.Nil(t, c.Highlighter)

	insp, err := c.InspectionService.Create(ctx, entity.NewInspection{TransformerNumber: "T-000001"}, nil, nil)
	require.NoError(t, err)

	_, err = c.InspectionService.AddAnomaly(ctx, insp.IID, entity.Anomaly{Box: entity.Box{1, 1, 2, 2}, ClassName: "wear"})
	require.NoError(t, err)

	user, err := c.UserService.SelectInspection(ctx, 1, 1, insp.IID)
	require.NoError(t, err)
	require.True(t, user.HasInspection())
}

func TestNew_SQLite(t *testing.T) {
	cfg := testConfig()
	cfg.Storage = config.StorageConfig{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "vi.db")}

	c, err := New(context.Background(), cfg, discard(), prometheus.NewRegistry())
	require.NoError(t, err)
	require.Len(t, c.closers, 1)
	require.NoError(t, c.Close())
}

func TestNew_GoCVProvidesHighlighter(t *testing.T) {
	cfg := testConfig()
	cfg.Detector.Driver = "gocv"

	c, err := New(context.Background(), cfg, discard(), prometheus.NewRegistry())
	require.NoError(t, err)
	require.NotNil(t, c.Highlighter)
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Driver = "mongo"

	_, err := New(context.Background(), cfg, discard(), prometheus.NewRegistry())
	require.Error(t, err)
}
