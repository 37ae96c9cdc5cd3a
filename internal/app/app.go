// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/markdave123-py/Penpal/internal/api/handlers"
	"github.com/markdave123-py/Penpal/internal/config"
	"github.com/markdave123-py/Penpal/internal/core"
	"github.com/markdave123-py/Penpal/internal/core/cache"
	db "github.com/markdave123-py/Penpal/internal/core/database"
	"github.com/markdave123-py/Penpal/internal/core/extractor"
	"github.com/markdave123-py/Penpal/internal/core/llm"
	objectclient "github.com/markdave123-py/Penpal/internal/core/object-client"
	"github.com/markdave123-py/Penpal/internal/logger"
	"github.com/markdave123-py/Penpal/internal/services"
)

type App struct {
	DBClient   core.DbClient
	Cache      core.KVCache
	LLM        *llm.GeminiLLM
	SyncWorker *services.SyncWorker
	Archive    *services.ArchiveService
	Server     *Server

	log *logger.Logger
}

// Services is everything the HTTP layer depends on.
type Services struct {
	Users     *services.UserService
	Entries   *services.EntryStore
	Phrases   *services.PhraseStore
	Metrics   *services.MetricsService
	Sessions  *services.SessionRegistry
	Documents *services.DocumentService
	Archive   handlers.Archiver
}

func NewApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	a := &App{log: log}

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	a.DBClient = dbClient
	log.Info("database initialized and ready")

	kv, err := cache.New(appCtx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("local cache: %w", err)
	}
	a.Cache = kv
	log.Info("local cache ready", "driver", cfg.CacheDriver)

	gen, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("couldn't initialize the generation client: %w", err)
	}
	a.LLM = gen

	var archive handlers.Archiver
	if cfg.ArchiveEnabled() {
		objClient, err := objectclient.NewS3Client(appCtx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Archive = services.NewArchiveService(objClient, cfg.BucketName, log)
		archive = a.Archive
		log.Info("journal archive enabled", "bucket", cfg.BucketName)
	}

	entries := services.NewEntryStore(
		services.NewLocalEntryRepo(kv),
		services.NewSyncedEntryRepo(dbClient, kv, log),
		log,
	)
	phrases := services.NewPhraseStore(dbClient, log)
	svc := &Services{
		Users:     services.NewUserService(dbClient),
		Entries:   entries,
		Phrases:   phrases,
		Metrics:   services.NewMetricsService(entries, phrases, log),
		Sessions:  services.NewSessionRegistry(gen, services.SystemPrompt(cfg.TargetLanguage, cfg.NativeLanguage), log),
		Documents: services.NewDocumentService(extractor.NewDocconvExtractor(false), entries),
		Archive:   archive,
	}

	worker, err := services.NewSyncWorker(entries, cfg.SyncInterval, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.SyncWorker = worker

	a.Server = NewServer(cfg, svc, log)
	return a, nil
}

// Close releases every resource NewApp acquired.
func (a *App) Close() {
	if a.SyncWorker != nil {
		if err := a.SyncWorker.Shutdown(); err != nil {
			a.log.Warn("sync worker shutdown", "error", err)
		}
	}
	if a.Archive != nil {
		a.Archive.Close()
	}
	if a.LLM != nil {
		_ = a.LLM.Close()
	}
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
