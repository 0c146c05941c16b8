package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"vision-inspector/config"
	app "vision-inspector/internal/application"
	"vision-inspector/internal/container"
	"vision-inspector/internal/domain/entity"
	"vision-inspector/internal/logging"
)

// withContainer загружает конфигурацию и собирает сервисы для одной команды
func withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *container.Container, logger *slog.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)

	c, err := container.New(cmd.Context(), cfg, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer c.Close()

	return fn(cmd.Context(), c, logger)
}

func newCmd() *cobra.Command {
	var (
		in        entity.NewInspection
		imagePath string
		threshold float64
	)
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create an inspection, optionally with a reference image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(ctx context.Context, c *container.Container, _ *slog.Logger) error {
				var upload *app.ImageUpload
				if imagePath != "" {
					u, err := readImage(imagePath)
					if err != nil {
						return err
					}
					upload = u
				}
				insp, err := c.InspectionService.Create(ctx, in, upload, thresholdFlag(cmd, threshold))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), insp)
			})
		},
	}
	cmd.Flags().StringVar(&in.Number, "number", "", "inspection number (generated when empty)")
	cmd.Flags().StringVar(&in.TransformerNumber, "transformer", "", "transformer number")
	cmd.Flags().StringVar(&in.InspectionDate, "date", "", "inspection date")
	cmd.Flags().StringVar(&in.Inspector, "inspector", "", "inspector name")
	cmd.Flags().StringVar(&in.Status, "status", "open", "inspection status")
	cmd.Flags().StringVar(&imagePath, "image", "", "reference image file")
	cmd.Flags().Float64Var(&threshold, "threshold", app.DefaultThreshold, "detector confidence threshold")
	return cmd
}

func importCmd() *cobra.Command {
	var threshold float64
	cmd := &cobra.Command{
		Use:   "import <iid> <image>",
		Short: "Replace the reference image and import detections",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			iid, err := parseIID(args[0])
			if err != nil {
				return err
			}
			upload, err := readImage(args[1])
			if err != nil {
				return err
			}
			return withContainer(cmd, func(ctx context.Context, c *container.Container, logger *slog.Logger) error {
				insp, result, err := c.InspectionService.ReplaceRefImage(ctx, iid, upload, thresholdFlag(cmd, threshold))
				if err != nil {
					return err
				}
				logger.Info("detections imported", "iid", iid, "added", len(result.Anomalies), "total", len(insp.Anomalies))
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", app.DefaultThreshold, "detector confidence threshold")
	return cmd
}

func anomaliesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "anomalies <iid>",
		Short: "Print current anomalies of an inspection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			iid, err := parseIID(args[0])
			if err != nil {
				return err
			}
			return withContainer(cmd, func(ctx context.Context, c *container.Container, _ *slog.Logger) error {
				anomalies, err := c.InspectionService.Anomalies(ctx, iid)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), anomalies)
			})
		},
	}
}

func logCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "log <iid>",
		Short: "Print the anomaly audit log of an inspection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			iid, err := parseIID(args[0])
			if err != nil {
				return err
			}
			return withContainer(cmd, func(ctx context.Context, c *container.Container, _ *slog.Logger) error {
				entries, err := c.InspectionService.AuditLog(ctx, iid)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), entries)
			})
		},
	}
}

// thresholdFlag возвращает порог, только если флаг задан явно
func thresholdFlag(cmd *cobra.Command, v float64) *float64 {
	if !cmd.Flags().Changed("threshold") {
		return nil
	}
	return entity.Float(v)
}

func parseIID(s string) (int64, error) {
	iid, err := strconv.ParseInt(s, 10, 64)
	if err != nil || iid <= 0 {
		return 0, fmt.Errorf("%w: invalid inspection id %q", entity.ErrValidation, s)
	}
	return iid, nil
}

func readImage(path string) (*app.ImageUpload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return &app.ImageUpload{
		Filename:    filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Data:        data,
	}, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
