package bootstrap

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/bookreel/trailer-service/internal/domain/port"
	"github.com/bookreel/trailer-service/internal/infra/config"
	"github.com/bookreel/trailer-service/internal/infra/localstore"
	"github.com/bookreel/trailer-service/internal/infra/lock"
	"github.com/bookreel/trailer-service/internal/infra/metrics"
	miniostorage "github.com/bookreel/trailer-service/internal/infra/minio"
)

// NewVideoStorage returns MinIO when configured. Otherwise it returns the
// local store, which is also handed back so the caller can serve and sweep it.
func NewVideoStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (port.VideoStorage, *localstore.Store, error) {
	if cfg.MinIOEnabled() {
		storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
			Endpoint:      cfg.MinIOEndpoint,
			AccessKey:     cfg.MinIOAccessKey,
			SecretKey:     cfg.MinIOSecretKey,
			UseSSL:        cfg.MinIOUseSSL,
			Bucket:        cfg.MinIOVideoBucket,
			PublicBaseURL: cfg.PublicBaseURL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create minio storage: %w", err)
		}
		if err := storage.EnsureBucket(ctx); err != nil {
			return nil, nil, fmt.Errorf("ensure minio bucket: %w", err)
		}
		log.Info("using minio video storage", zap.String("bucket", cfg.MinIOVideoBucket))
		return storage, nil, nil
	}

	store, err := localstore.New(cfg.LocalStoreDir, cfg.LocalPublicURL, log.Named("localstore"))
	if err != nil {
		return nil, nil, fmt.Errorf("create local store: %w", err)
	}
	log.Info("using local video storage", zap.String("dir", store.Dir()))
	return store, store, nil
}

// NewBookLocker returns a Redis lock when REDIS_URL is set, an in-process one
// otherwise. The returned func closes the Redis client.
func NewBookLocker(cfg *config.Config, log *zap.Logger) (port.BookLocker, func(), error) {
	if cfg.RedisURL == "" {
		log.Info("using in-process book lock")
		return lock.NewLocalLocker(), func() {}, nil
	}
	client, err := lock.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("create redis client: %w", err)
	}
	log.Info("using redis book lock")
	return lock.NewRedisLocker(client, cfg.LockTTL, log.Named("lock")), func() { client.Close() }, nil
}

// StartJanitor schedules the sweep of expired videos in the output dir and,
// when set, the local store. The caller stops the returned scheduler on
// shutdown.
func StartJanitor(store *localstore.Store, cfg *config.Config, log *zap.Logger) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(cfg.JanitorSpec, func() { sweepVideos(store, cfg, log) })
	if err != nil {
		return nil, fmt.Errorf("schedule janitor %q: %w", cfg.JanitorSpec, err)
	}
	c.Start()
	return c, nil
}

func sweepVideos(store *localstore.Store, cfg *config.Config, log *zap.Logger) {
	dirs := []string{cfg.OutputDir}
	if store != nil && store.Dir() != cfg.OutputDir {
		dirs = append(dirs, store.Dir())
	}
	for _, dir := range dirs {
		removed, err := localstore.SweepDir(dir, cfg.LocalVideoTTL, log)
		if err != nil {
			log.Warn("video sweep failed", zap.String("dir", dir), zap.Error(err))
			continue
		}
		if removed > 0 {
			metrics.LocalVideosSweptTotal.Add(float64(removed))
			log.Info("expired local videos removed", zap.String("dir", dir), zap.Int("count", removed))
		}
	}
}
