package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"vision-inspector/config"
	telegram "vision-inspector/internal/api"
	"vision-inspector/internal/container"
	"vision-inspector/internal/logging"
)

func botCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.TelegramToken == "" {
				return errors.New("TELEGRAM_TOKEN is required")
			}
			logger := logging.New(cfg.Log.Level, cfg.Log.Format)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

			c, err := container.New(ctx, cfg, logger, reg)
			if err != nil {
				return err
			}
			defer c.Close()

			if cfg.MetricsAddr != "" {
				srv := &http.Server{
					Addr:              cfg.MetricsAddr,
					Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					logger.Info("metrics listening", "addr", cfg.MetricsAddr)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("metrics server", "error", err)
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			bot, err := telegram.NewBot(cfg.TelegramToken, c.UserService, c.InspectionService, c.Highlighter, logger)
			if err != nil {
				return err
			}

			logger.Info("bot is running")
			return bot.Run(ctx)
		},
	}
}
