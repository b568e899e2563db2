package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alexflint/go-filemutex"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	appauth "github.com/jw6ventures/timeclock/internal/auth"
	"github.com/jw6ventures/timeclock/internal/config"
	httpserver "github.com/jw6ventures/timeclock/internal/http"
	"github.com/jw6ventures/timeclock/internal/logging"
	"github.com/jw6ventures/timeclock/internal/push"
	"github.com/jw6ventures/timeclock/internal/store"
)

func main() {
	if err := run(os.Args); err != nil {
		log.Fatalf("timeclock: %v", err)
	}
}

func run(args []string) error {
	app := &cli.App{
		Name:  "timeclock",
		Usage: "time tracking with break and rest period checks",
		Commands: []*cli.Command{
			serveCommand,
			migrateCommand,
			notifyCommand,
			reportCommand,
		},
	}
	return app.Run(args)
}

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "run the HTTP API",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "migrate", Value: true, Usage: "apply pending migrations before serving"},
	},
	Action: func(c *cli.Context) error {
		log.Println("Starting timeclock server...")
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pool, err := pgxpool.New(ctx, cfg.DB.DSN)
		if err != nil {
			return fmt.Errorf("create db pool: %w", err)
		}
		defer pool.Close()

		if c.Bool("migrate") {
			applied, err := store.ApplyMigrations(ctx, pool)
			if err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
			for _, name := range applied {
				log.Printf("applied migration %s", name)
			}
		}

		stor := store.New(pool)
		authService := appauth.NewService(cfg, stor, appauth.NewSessionManager(cfg))

		var sender push.Sender
		if cfg.PushEnabled() {
			sender = push.NewWebPushSender(cfg)
		}
		r := httpserver.NewRouter(cfg, stor, authService, sender)

		srv := &http.Server{
			Addr:         cfg.ListenAddr,
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Printf("server listening on %s", cfg.ListenAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return fmt.Errorf("server: %w", err)
		case <-ctx.Done():
		}
		log.Printf("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("graceful shutdown failed: %v", err)
		}
		return nil
	},
}

var migrateCommand = &cli.Command{
	Name:  "migrate",
	Usage: "apply pending database migrations",
	Action: func(c *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		pool, err := pgxpool.New(c.Context, cfg.DB.DSN)
		if err != nil {
			return fmt.Errorf("create db pool: %w", err)
		}
		defer pool.Close()

		applied, err := store.ApplyMigrations(c.Context, pool)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			log.Println("schema is up to date")
			return nil
		}
		for _, name := range applied {
			log.Printf("applied migration %s", name)
		}
		return nil
	},
}

var notifyCommand = &cli.Command{
	Name:  "notify",
	Usage: "send work and break threshold push notifications",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn or error"},
		&cli.BoolFlag{Name: "once", Usage: "run a single pass and exit"},
	},
	Action: func(c *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if !cfg.PushEnabled() {
			return fmt.Errorf("push is not configured: set APP_VAPID_PUBLIC_KEY and APP_VAPID_PRIVATE_KEY")
		}

		logger := logging.New(os.Stderr, c.String("log-level"))
		ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx = logging.ContextWithLogger(ctx, logger)

		fm, err := newFileMutex(cfg.LockDir)
		if err != nil {
			return err
		}
		if err := fm.TryLock(); err != nil {
			return fmt.Errorf("another notifier holds %s: %w", filepath.Join(cfg.LockDir, lockFileName), err)
		}
		defer fm.Unlock()

		pool, err := pgxpool.New(ctx, cfg.DB.DSN)
		if err != nil {
			return fmt.Errorf("create db pool: %w", err)
		}
		defer pool.Close()

		notifier := push.NewNotifier(store.New(pool), push.NewWebPushSender(cfg))
		if c.Bool("once") {
			return notifier.Tick(ctx)
		}
		logger.Info("push notifier started", "interval", cfg.Push.Interval.String())
		return notifier.Run(ctx, cfg.Push.Interval)
	},
}

const lockFileName = "timeclock-notify.lock"

func newFileMutex(dir string) (*filemutex.FileMutex, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	fm, err := filemutex.New(filepath.Join(dir, lockFileName))
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	return fm, nil
}
