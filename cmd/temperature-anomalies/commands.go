package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	httpapi "github.com/i474232898/temperature-anomalies/internal/api/http"
	"github.com/i474232898/temperature-anomalies/internal/config"
	"github.com/i474232898/temperature-anomalies/internal/report"
	"github.com/i474232898/temperature-anomalies/internal/scheduler"
)

func newRunCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate data, export the snapshot, analyze it under both engines and compare with a live reading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			app, err := loadApp(v)
			if err != nil {
				return err
			}

			ctx, cancel := runContext(cmd.Context(), app.cfg.RunTimeout)
			defer cancel()

			records, err := app.service.Generate()
			if err != nil {
				return err
			}
			if err := app.exportCSV(records); err != nil {
				return err
			}

			snap, err := app.service.Analyze(ctx, records)
			if err != nil {
				return err
			}
			return report.Write(os.Stdout, format, snap, app.cfg.ReportRows)
		},
	}
	addOutputFlag(cmd)
	return cmd
}

func newExportCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Generate synthetic data and write the CSV snapshot only",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(v)
			if err != nil {
				return err
			}
			records, err := app.service.Generate()
			if err != nil {
				return err
			}
			return app.exportCSV(records)
		},
	}
}

func newAnalyzeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <csv>",
		Short: "Analyze an existing CSV snapshot under both engines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			app, err := loadApp(v)
			if err != nil {
				return err
			}

			ctx, cancel := runContext(cmd.Context(), app.cfg.RunTimeout)
			defer cancel()

			records, err := app.importCSV(args[0])
			if err != nil {
				return err
			}
			snap, err := app.service.Analyze(ctx, records)
			if err != nil {
				return err
			}
			return report.Write(os.Stdout, format, snap, app.cfg.ReportRows)
		},
	}
	addOutputFlag(cmd)
	return cmd
}

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the latest results over HTTP and refresh them periodically",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(v)
			if err != nil {
				return err
			}
			return serve(app)
		},
	}
	cmd.Flags().String("port", "8080", "HTTP listen port")
	_ = v.BindPFlag(config.KeyPort, cmd.Flags().Lookup("port"))
	return cmd
}

func serve(app *application) error {
	log := app.logger

	// Scheduler that periodically regenerates and re-analyzes the data.
	sched := scheduler.New(app.service, app.cfg.RefreshInterval, app.cfg.RunTimeout, log)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	server := fiber.New(fiber.Config{
		AppName:               "temperature-anomalies",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	server.Use(logger.New(logger.Config{Output: log.Writer()}))
	server.Use(recover.New())
	httpapi.RegisterMetrics(server, app.metrics)

	server.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "temperature-anomalies",
		})
	})

	httpapi.RegisterRoutes(server, app.service)

	go func() {
		log.WithField("port", app.cfg.Port).Info("http server listening")
		if err := server.Listen(":" + app.cfg.Port); err != nil {
			log.WithError(err).Error("fiber server stopped")
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithError(err).Error("error during shutdown")
		return err
	}
	return nil
}

// runContext bounds a command by the run timeout and cancels it on SIGINT/SIGTERM.
func runContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
