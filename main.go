package main

import (
	"context"
	"fmt"

	"github.com/cppla/contactbox/config"
	"github.com/cppla/contactbox/controllers"
	"github.com/cppla/contactbox/models"
	"github.com/cppla/contactbox/notify"
	"github.com/cppla/contactbox/repository"
	"github.com/cppla/contactbox/routes"
	"github.com/cppla/contactbox/services"
	"github.com/cppla/contactbox/storage"
	"github.com/cppla/contactbox/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer utils.Logger.Sync()

	ctx := context.Background()

	entries, images, closeDB, err := openRepositories(ctx, cfg)
	if err != nil {
		utils.Sugar.Fatalf("database: %v", err)
	}
	defer closeDB()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		utils.Sugar.Fatalf("storage: %v", err)
	}

	cache := openCache(cfg)

	var sender notify.Sender = utils.LogMailer{}
	if cfg.MailEnabled {
		sender = utils.NewMailer(cfg)
	}
	dispatcher := notify.NewDispatcher(sender, cfg.NotifyWorkers, cfg.NotifyQueue, utils.Logger.Named("notify"))

	maxBytes := int64(cfg.UploadMaxMB) << 20
	r := routes.SetupRouter(cfg, routes.Controllers{
		Entries: controllers.NewEntryController(services.NewEntryService(entries, dispatcher, cache, cfg.MailSubject)),
		Images:  controllers.NewImageController(services.NewImageService(images, store, cache, maxBytes), cfg.BaseURL, maxBytes),
	})

	utils.Sugar.Infof("Starting server on port %s (db=%s storage=%s mail=%v)", cfg.AppPort, cfg.DBDriver, cfg.StorageBackend, cfg.MailEnabled)
	if err := utils.GraceServer(":"+cfg.AppPort, r, dispatcher.Close); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

func openRepositories(ctx context.Context, cfg config.AppConfig) (repository.EntryRepository, repository.ImageRepository, func(), error) {
	if cfg.DBDriver == "mongo" {
		client, db, err := config.OpenMongo(ctx, cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		return repository.NewMongoEntryRepository(db), repository.NewMongoImageRepository(db), closeFn, nil
	}

	db, err := config.OpenDatabase(cfg, &models.Entry{}, &models.Image{})
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return repository.NewGormEntryRepository(db), repository.NewGormImageRepository(db), closeFn, nil
}

func openStorage(ctx context.Context, cfg config.AppConfig) (storage.Storage, error) {
	switch cfg.StorageBackend {
	case "minio":
		return storage.NewMinioStorage(ctx, cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
	case "local":
		return storage.NewLocalStorage(cfg.UploadDir)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}
}

// openCache falls back to no caching when Redis is disabled or unreachable.
func openCache(cfg config.AppConfig) utils.Cache {
	if !cfg.CacheEnabled {
		return utils.NopCache{}
	}
	rc, err := utils.NewRedis(cfg)
	if err != nil {
		utils.Sugar.Warnf("redis unavailable, list cache disabled: %v", err)
		return utils.NopCache{}
	}
	return utils.NewRedisCache(rc)
}
