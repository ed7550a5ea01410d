package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/urfave/cli/v2"

	consolecli "github.com/coopsales/console/cmd/console/cli"
	"github.com/coopsales/console/internal/app"
	"github.com/coopsales/console/internal/console"
	"github.com/coopsales/console/internal/sales/customers"
	"github.com/coopsales/console/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		slog.Default().Error("console", slog.Any("error", err))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "console",
		Usage: "cooperative sales console",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the console HTTP API",
				Action: serve,
			},
			{
				Name:  "convert",
				Usage: "convert one order into a sale",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "order", Usage: "order id", Required: true},
					&cli.StringFlag{Name: "payment", Usage: "payment method (cash, transfer, debit)", Value: "cash"},
					&cli.BoolFlag{Name: "json", Usage: "print a JSON summary"},
				},
				Action: convert,
			},
			{
				Name:  "jobs",
				Usage: "manage background jobs",
				Subcommands: []*cli.Command{
					{
						Name:      "trigger",
						Usage:     "enqueue a job by name",
						ArgsUsage: "<job>",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "reason", Value: "cli"},
						},
						Action: triggerJob,
					},
					{
						Name:   "stats",
						Usage:  "show default queue counters",
						Action: queueStats,
					},
				},
			},
		},
	}
}

func loadConfig() (*app.Config, *slog.Logger, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	return cfg, app.NewLogger(cfg), nil
}

func serve(c *cli.Context) error {
	ctx := c.Context
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	rt, err := newRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.productCache.ListenForInvalidation(ctx); err != nil {
		logger.Warn("catalog invalidation listener", slog.Any("error", err))
	}
	warmup := jobs.NewCatalogWarmupJob(rt.catalog, logger, rt.metrics.Jobs())
	go func() {
		if err := warmup.Run(ctx, "startup"); err != nil {
			logger.Warn("initial catalog warmup", slog.Any("error", err))
		}
	}()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() { _ = jobClient.Close() }()
	inspector := asynq.NewInspector(redisOpts)
	defer func() { _ = inspector.Close() }()

	handler := console.NewHandler(console.Params{
		Logger:      logger,
		Orders:      rt.orders,
		Customers:   rt.customers,
		Locations:   rt.locations,
		List:        rt.list,
		Directory:   customers.NewDirectory(nil),
		Conversions: rt.coordinator,
		Locale:      cfg.Locale(),
	})
	router := app.NewRouter(app.RouterParams{
		Logger:  logger,
		Config:  cfg,
		Metrics: rt.metrics,
		Console: handler,
		Jobs:    jobs.NewHandler(inspector, jobClient, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error("http server", slog.Any("error", err))
			return err
		}
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	return nil
}

func convert(c *cli.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	rt, err := newRuntime(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	conv, err := consolecli.NewConversionCLI(rt.coordinator)
	if err != nil {
		return err
	}
	code := conv.ConvertCommand(c.Context, consolecli.ConvertOptions{
		OrderID:       c.Int64("order"),
		PaymentMethod: c.String("payment"),
		JSONOutput:    c.Bool("json"),
		Stdout:        c.App.Writer,
		Stderr:        c.App.ErrWriter,
	})
	if code != consolecli.ExitOK {
		return cli.Exit("", code)
	}
	return nil
}

func triggerJob(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("jobs trigger: expected exactly one job name", 1)
	}
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	helper := consolecli.NewJobsCLI(cfg.RedisAddr)
	defer func() { _ = helper.Close() }()
	if code := helper.TriggerCommand(c.Context, c.Args().First(), c.String("reason"), c.App.Writer, c.App.ErrWriter); code != 0 {
		return cli.Exit("", code)
	}
	return nil
}

func queueStats(c *cli.Context) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	helper := consolecli.NewJobsCLI(cfg.RedisAddr)
	defer func() { _ = helper.Close() }()
	stats, err := helper.InspectQueue(c.Context)
	if err != nil {
		return cli.Exit("jobs stats: "+err.Error(), 1)
	}
	_, _ = fmt.Fprintf(c.App.Writer, "queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
		stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
	return nil
}
