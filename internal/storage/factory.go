package storage

import (
	"context"
	"fmt"

	"github.com/youruser/profileart/internal/config"
)

// Open constructs the Bucket selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (Bucket, error) {
	switch Driver(cfg.Driver) {
	case DriverFilesystem, "":
		return NewDir(cfg.Root), nil
	case DriverS3:
		return NewS3(ctx, S3Config{
			Bucket:    cfg.S3.Bucket,
			Prefix:    cfg.S3.Prefix,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,

			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
