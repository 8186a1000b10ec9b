package stores

import (
	"context"
	"document-search/config"
	"document-search/core"
	"document-search/stores/aws"
	"document-search/stores/filesystem"
	"document-search/stores/memory"
	"document-search/stores/mongo"
	redisstore "document-search/stores/redis"
	"document-search/stores/sqlite"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// GetStore builds the backend selected by cfg.Type, wrapped with metrics.
func GetStore(ctx context.Context, cfg config.StorageConfig) (core.DocumentStore, error) {
	var (
		store core.DocumentStore
		err   error
	)

	storageField := logrus.Fields{
		"storageType": cfg.Type,
	}

	switch cfg.Type {
	case "filesystem":
		storageField["basePath"] = cfg.LocalStoragePath
		store, err = filesystem.NewDocumentStore(cfg.LocalStoragePath)
	case "sqlite":
		storageField["dataSourceName"] = cfg.DataSourceName
		store, err = sqlite.NewDocumentStore(cfg.DataSourceName)
	case "s3":
		storageField["bucketName"] = cfg.S3.BucketName
		storageField["prefix"] = cfg.S3.Prefix
		store, err = aws.NewDocumentStore(ctx, cfg.S3.BucketName, cfg.S3.Prefix)
	case "redis":
		storageField["addr"] = cfg.Redis.Addr
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err = client.Ping(ctx).Err(); err != nil {
			client.Close()
			err = fmt.Errorf("failed to reach redis: %w", err)
			break
		}
		store = redisstore.NewDocumentStore(client, cfg.Redis.Prefix)
	case "mongo":
		storageField["database"] = cfg.MongoDB.Database
		storageField["collection"] = cfg.MongoDB.Collection
		store, err = mongo.Connect(ctx, cfg.MongoDB.URI, cfg.MongoDB.Database, cfg.MongoDB.Collection, cfg.MongoDB.Timeout)
	default:
		store = memory.NewDocumentStore()
		storageField["storageType"] = "in-memory"
	}
	if err != nil {
		logrus.WithFields(storageField).WithError(err).Error("Failed to open storage")
		return nil, err
	}

	logrus.WithFields(storageField).Info("Use storage")
	return Instrument(store, storageField["storageType"].(string)), nil
}
