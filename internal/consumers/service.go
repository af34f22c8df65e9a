package consumers

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"cinebook/internal/cache"
	"cinebook/internal/config"
	"cinebook/internal/database"
	"cinebook/internal/messaging"
	"cinebook/internal/models"
	"cinebook/internal/repository"
)

type ConsumerService struct {
	nats     *messaging.NATSClient
	rdb      *redis.Client
	db       *database.DB
	handlers *Handlers
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	// Connect to Redis
	rdb, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		return nil, err
	}

	// Connect to NATS
	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		rdb.Close()
		return nil, err
	}

	cs := &ConsumerService{nats: natsClient, rdb: rdb}

	// Архив аудита в Postgres опционален
	var archive Archive
	if cfg.AuditDB.Enabled() {
		ctx := context.Background()
		db, err := database.Connect(ctx, cfg.AuditDB)
		if err != nil {
			cs.Shutdown(ctx)
			return nil, err
		}
		cs.db = db
		if err := db.RunMigrations(ctx); err != nil {
			cs.Shutdown(ctx)
			return nil, err
		}
		archive = repository.NewAuditRepository(db)
	} else {
		slog.Info("Audit database not configured, keeping the Redis log only")
	}

	cs.handlers = NewHandlers(repository.NewSessionAuditLog(rdb), archive)
	return cs, nil
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	_, err := cs.nats.SubscribeQueue(models.SubjectSessionEvents, "audit", cs.handlers.HandleSessionEvent)
	if err != nil {
		return err
	}

	slog.Info("All consumers started successfully")
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
		}
	}

	if cs.rdb != nil {
		if err := cs.rdb.Close(); err != nil {
			slog.Error("Error closing Redis connection", "error", err)
			return err
		}
	}

	return nil
}
