package app

import (
	"fmt"
	"log/slog"
	"strings"

	"animaldex/internal/gateway/config"
	profilerepo "animaldex/internal/gateway/repository/profile"
	uploadrepo "animaldex/internal/gateway/repository/upload"
)

type gatewayStores struct {
	profiles profilerepo.Store
	uploads  uploadrepo.Store
}

func initStores(cfg *config.Config, logger *slog.Logger) (*gatewayStores, error) {
	stores := &gatewayStores{}

	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		pg, err := profilerepo.NewPostgresStore(dsn)
		if err != nil {
			return nil, fmt.Errorf("init profile store: %w", err)
		}
		stores.profiles = pg
		logger.Info("profile store: postgres")
	} else {
		stores.profiles = profilerepo.NewMemoryStore()
		logger.Warn("profile store: in-memory (profiles will not survive restarts)")
	}

	if cfg.Upload.CanUseS3() {
		s3, err := uploadrepo.NewS3Store(uploadrepo.S3Config{
			Endpoint:  cfg.Upload.Endpoint,
			Region:    cfg.Upload.Region,
			AccessKey: cfg.Upload.AccessKey,
			SecretKey: cfg.Upload.SecretKey,
			Bucket:    cfg.Upload.Bucket,
			UseSSL:    cfg.Upload.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("init upload store: %w", err)
		}
		stores.uploads = s3
		logger.Info("upload store: s3", "bucket", cfg.Upload.Bucket, "endpoint", cfg.Upload.Endpoint)
	} else {
		stores.uploads = uploadrepo.NewMemoryStore()
		if cfg.Upload.Enabled {
			logger.Warn("upload store: in-memory fallback (s3 config incomplete)")
		}
	}

	return stores, nil
}
