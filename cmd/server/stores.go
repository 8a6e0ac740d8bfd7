package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"

	"github.com/example/belanjain/internal/config"
	"github.com/example/belanjain/internal/repository"
	"github.com/example/belanjain/internal/services"
)

// stores holds the backends chosen at startup.
type stores struct {
	Orders   repository.OrderRepository
	Ledger   repository.KV
	Notifier services.OrderNotifier

	closers []func(context.Context) error
}

func openStores(ctx context.Context, cfg *config.Config, db *gorm.DB) (*stores, error) {
	s := &stores{Notifier: services.NoopNotifier{}}

	switch cfg.OrderStore {
	case config.StoreMongo:
		client, err := connectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, client.Disconnect)

		repo := repository.NewMongoOrderRepository(client, cfg.MongoDatabase)
		if err := repo.EnsureIndexes(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		s.Orders = repo
	case config.StoreMemory:
		s.Orders = repository.NewMemoryOrderRepository()
	default:
		s.Orders = repository.NewGormOrderRepository(db)
	}

	switch cfg.LedgerStore {
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			s.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		s.closers = append(s.closers, func(context.Context) error { return client.Close() })
		s.Ledger = repository.NewRedisKV(client, "belanjain", cfg.LedgerTTL)
	default:
		s.Ledger = repository.NewMemoryKV()
	}

	if len(cfg.KafkaBrokers) > 0 {
		notifier := services.NewKafkaNotifier(cfg.KafkaBrokers)
		s.closers = append(s.closers, func(context.Context) error { return notifier.Close() })
		s.Notifier = notifier
	}

	return s, nil
}

func connectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// Close releases every backend in reverse order of opening.
func (s *stores) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			slog.Warn("closing backend failed", "error", err)
		}
	}
	s.closers = nil
}
