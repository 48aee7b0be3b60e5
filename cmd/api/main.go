package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/safar/store-admin/internal/approval"
	"github.com/safar/store-admin/internal/auth"
	"github.com/safar/store-admin/internal/config"
	"github.com/safar/store-admin/internal/database"
	"github.com/safar/store-admin/internal/events"
	"github.com/safar/store-admin/internal/logger"
	"github.com/safar/store-admin/internal/metrics"
	"github.com/safar/store-admin/internal/store"
	"github.com/safar/store-admin/internal/store/memory"
	"github.com/safar/store-admin/internal/tracing"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	lg, err := logger.New(cfg.Log.Level, cfg.Env)
	if err != nil {
		log.Fatalf("Init logger: %v", err)
	}
	defer lg.Sync()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			lg.Warn("shutdown tracing", zap.Error(err))
		}
	}()

	m := metrics.New(prometheus.DefaultRegisterer)

	var (
		b  backends
		db *sql.DB
	)
	switch cfg.Store.Driver {
	case "memory":
		b = backends{
			orders:   memory.NewOrders(),
			products: memory.NewProducts(),
			updates:  memory.NewUpdates(),
			admins:   memory.NewAdmins(),
		}
		lg.Info("using in-memory store")
	default:
		db, err = database.NewConnection(ctx, &cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		b = backends{
			orders:   store.NewOrders(db),
			products: store.NewProducts(db),
			updates:  store.NewUpdates(db),
			admins:   store.NewAdmins(db),
		}
		lg.Info("connected to database")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}

	var publisher events.Publisher = events.Nop{}
	if brokers := events.ParseBrokers(cfg.Kafka.Brokers); len(brokers) > 0 {
		kp := events.NewKafkaPublisher(brokers, cfg.Kafka.Topic)
		defer kp.Close()
		publisher = kp
		lg.Info("publishing order events", zap.Strings("brokers", brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	mode, err := approval.ParseMode(cfg.Approval.Mode)
	if err != nil {
		return err
	}

	workflow := approval.New(b.orders, b.products,
		approval.WithMode(mode),
		approval.WithPublisher(publisher),
		approval.WithLogger(lg.Named("approval")),
		approval.WithMetrics(m),
	)

	authSvc := auth.NewService(b.admins, auth.NewRedisSessions(rdb, cfg.Session.TTL))

	srv := newServer(b, authSvc, workflow, lg.Named("http"), m,
		withCookieSecure(cfg.Session.CookieSecure),
		withHealth(func(ctx context.Context) error {
			if db != nil {
				if err := db.PingContext(ctx); err != nil {
					return fmt.Errorf("database: %w", err)
				}
			}
			if err := rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			return nil
		}),
	)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv.routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("approval_mode", string(mode)))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	lg.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(sctx)
}
