package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crucial707/hci-todo/internal/auth"
	"github.com/crucial707/hci-todo/internal/config"
	"github.com/crucial707/hci-todo/internal/db"
	"github.com/crucial707/hci-todo/internal/logger"
	"github.com/crucial707/hci-todo/internal/metrics"
	"github.com/crucial707/hci-todo/internal/middleware"
	"github.com/crucial707/hci-todo/internal/models"
	"github.com/crucial707/hci-todo/internal/repo"
	"github.com/crucial707/hci-todo/internal/scheduler"
	"github.com/crucial707/hci-todo/internal/session"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 15 * time.Second
	limiterIdle     = 10 * time.Minute
)

func main() {

	// Load configuration
	cfg := config.Load()

	flush, err := logger.Install(cfg.Env, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	if err := run(cfg); err != nil {
		slog.Error("server exited", "error", err)
		flush()
		os.Exit(1)
	}
	flush()
}

func run(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage FIRST
	users, todos, database, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	if database != nil {
		defer database.Close()
	}

	passwords, err := auth.NewHasher(cfg.PasswordHash)
	if err != nil {
		return fmt.Errorf("password hasher: %w", err)
	}

	revoker, memRevoker, err := openRevoker(ctx, cfg)
	if err != nil {
		return err
	}

	sessions := session.NewManager(session.Options{
		Secret:     []byte(cfg.SessionSecret),
		CookieName: cfg.SessionCookieName,
		TTL:        cfg.SessionTTL(),
		Secure:     cfg.CookieSecure,
		Revoker:    revoker,
	})

	if err := seedAdmin(ctx, users, passwords, cfg); err != nil {
		return err
	}

	limiter := middleware.AuthRateLimiter(cfg.AuthRatePerMinute, cfg.AuthRateBurst)

	jobs := []scheduler.Job{{
		Name: "rate-limiter-prune",
		Run:  func() int { return limiter.Prune(limiterIdle) },
	}}
	if memRevoker != nil {
		jobs = append(jobs, scheduler.Job{
			Name: "revoked-session-prune",
			Run: func() int {
				n := memRevoker.Prune()
				metrics.AddPruned(n)
				return n
			},
		})
	}
	janitor, err := scheduler.New(scheduler.DefaultSpec, jobs...)
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	janitor.Start()

	d := deps{
		Cfg:       cfg,
		Users:     users,
		Todos:     todos,
		Passwords: passwords,
		Sessions:  sessions,
		Limiter:   limiter,
	}
	if database != nil {
		d.DB = database
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// Start server LAST
	g.Go(func() error {
		slog.Info("starting server",
			"addr", srv.Addr,
			"env", cfg.Env,
			"storage", cfg.Storage,
			"tls", cfg.TLSEnabled())
		var err error
		if cfg.TLSEnabled() {
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if jerr := janitor.Stop(shutdownCtx); jerr != nil && err == nil {
			err = jerr
		}
		return err
	})

	return g.Wait()
}

// openStores returns the memory stores, or the postgres ones after running
// migrations. The *sql.DB is nil for memory storage.
func openStores(ctx context.Context, cfg config.Config) (repo.UserStore, repo.TodoStore, *sql.DB, error) {
	if cfg.Storage != config.StoragePostgres {
		slog.Info("using in-memory storage; data is lost on restart")
		return repo.NewMemoryUserRepo(), repo.NewMemoryTodoRepo(), nil, nil
	}

	database, err := db.Connect(ctx,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBUser,
		cfg.DBPass,
		cfg.DBSSLMode,
		db.Options{MaxOpenConns: cfg.DBMaxOpenConns, MaxIdleConns: cfg.DBMaxIdleConns},
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	slog.Info("connected to the database", "host", cfg.DBHost, "name", cfg.DBName)

	if err := db.Run(cfg.DatabaseURL()); err != nil {
		database.Close()
		return nil, nil, nil, err
	}

	return repo.NewUserRepo(database), repo.NewTodoRepo(database), database, nil
}

// openRevoker uses redis when REDIS_ADDR is set. The memory revoker is also
// returned so the janitor can prune it.
func openRevoker(ctx context.Context, cfg config.Config) (session.Revoker, *session.MemoryRevoker, error) {
	if cfg.RedisAddr == "" {
		mem := session.NewMemoryRevoker()
		return mem, mem, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	slog.Info("session revocation list in redis", "addr", cfg.RedisAddr)
	return session.NewRedisRevoker(client), nil, nil
}

// seedAdmin creates the configured Admin account if it does not exist yet.
func seedAdmin(ctx context.Context, users repo.UserStore, passwords *auth.Hasher, cfg config.Config) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}

	hash, err := passwords.Hash(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	_, err = users.Create(ctx, cfg.AdminUsername, hash, models.RoleAdmin)
	switch {
	case errors.Is(err, repo.ErrConflict):
		slog.Info("admin account already exists", "username", cfg.AdminUsername)
		return nil
	case err != nil:
		return fmt.Errorf("seed admin: %w", err)
	}
	slog.Info("seeded admin account", "username", cfg.AdminUsername)
	return nil
}
