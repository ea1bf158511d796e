// README: Entry point; loads config and wires collaborators, the engine and the HTTP server with fx.
package main

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"atlas/internal/ai"
	"atlas/internal/config"
	httptransport "atlas/internal/http"
	"atlas/internal/http/middleware"
	"atlas/internal/images"
	"atlas/internal/infra"
	"atlas/internal/maps"
	"atlas/internal/modules/turnlog"
	"atlas/internal/service"
	"atlas/internal/stream"
)

func main() {
	app := fx.New(
		fx.Provide(
			config.Load,
			newLogger,
			newRedis,
			newDB,
			newAgents,
			newDiscovery,
			newImages,
			newRecorder,
			newTripPlanner,
			stream.NewDriver,
			newVerifier,
			newRouter,
		),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		fx.Invoke(startServer),
	)
	app.Run()
}

func newLogger(lc fx.Lifecycle, cfg config.Config) (*zap.Logger, error) {
	logger, err := infra.NewLogger(cfg.IsProduction())
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(func() { _ = logger.Sync() }))
	return logger, nil
}

// newRedis returns nil when no Redis address is configured.
func newRedis(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		logger.Info("redis disabled; image cache is in-process")
		return nil, nil
	}
	client, err := infra.NewRedis(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(client.Close))
	return client, nil
}

// newDB returns nil when no DSN is configured.
func newDB(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	if cfg.DB.DSN == "" {
		logger.Info("postgres disabled; turns are not logged")
		return nil, nil
	}
	pool, err := infra.NewDB(context.Background(), cfg.DB.DSN)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(pool.Close))
	return pool, nil
}

// agents holds one model session per role.
type agents struct {
	classifier ai.Agent
	discovery  ai.Agent
	planner    ai.Agent
}

func newAgents(lc fx.Lifecycle, cfg config.Config) (agents, error) {
	settings := ai.Settings{
		Provider:    ai.Provider(cfg.AI.Provider),
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
	}
	ctx := context.Background()

	var a agents
	var opened []ai.Agent
	for _, role := range []struct {
		dst    *ai.Agent
		prompt string
	}{
		{&a.classifier, ai.ClassifierPrompt},
		{&a.discovery, ai.DiscoveryPrompt},
		{&a.planner, ai.PlannerPrompt},
	} {
		agent, err := ai.NewAgent(ctx, settings, role.prompt)
		if err != nil {
			for _, o := range opened {
				_ = o.Close()
			}
			return agents{}, err
		}
		opened = append(opened, agent)
		*role.dst = agent
	}

	lc.Append(fx.StopHook(func() error {
		var errs []error
		for _, o := range opened {
			errs = append(errs, o.Close())
		}
		return errors.Join(errs...)
	}))
	return a, nil
}

func newDiscovery(cfg config.Config, a agents) (service.Discovery, error) {
	if cfg.Discovery.Provider == config.DiscoveryPlaces {
		return maps.NewPlacesService(cfg.Discovery.MapsKey, maps.PlacesOptions{
			Language:    cfg.Discovery.Language,
			Results:     cfg.Discovery.Results,
			MaxSpreadKm: cfg.Discovery.MaxSpreadKm,
		})
	}
	return ai.NewDiscoverer(a.discovery, cfg.Discovery.Results), nil
}

// newImages returns nil when image search is not configured.
func newImages(cfg config.Config, rdb *redis.Client, logger *zap.Logger) service.ImageHydrator {
	if cfg.Images.FlickrKey == "" {
		logger.Info("image search disabled")
		return nil
	}
	var cache images.Cache = images.NewMemoryCache(cfg.Images.CacheTTL)
	if rdb != nil {
		cache = images.NewRedisCache(rdb, cfg.Images.CacheTTL, logger)
	}
	searcher := images.NewCachedSearcher(images.NewFlickrSearcher(cfg.Images.FlickrKey, cfg.Images.Timeout), cache)
	return images.NewHydrator(searcher, cfg.Images.PerPOI, cfg.Images.Workers, logger)
}

// newRecorder returns nil when Postgres is disabled.
func newRecorder(lc fx.Lifecycle, cfg config.Config, pool *pgxpool.Pool, logger *zap.Logger) service.Recorder {
	if pool == nil {
		return nil
	}
	svc := turnlog.NewService(turnlog.NewStore(pool), cfg.DB.WriteTimeout, logger)
	lc.Append(fx.StopHook(svc.Close))
	return svc
}

func newTripPlanner(
	cfg config.Config,
	a agents,
	discovery service.Discovery,
	hydrator service.ImageHydrator,
	recorder service.Recorder,
	logger *zap.Logger,
) *service.TripPlanner {
	return service.NewTripPlanner(service.Deps{
		Classifier:         ai.NewClassifier(a.classifier),
		Discovery:          discovery,
		Planner:            ai.NewPlanner(a.planner),
		Images:             hydrator,
		Recorder:           recorder,
		ClassifierAttempts: cfg.Turn.ClassifierAttempts,
		CallTimeout:        cfg.Turn.CallTimeout,
		Logger:             logger,
	})
}

// newVerifier returns nil when no Firebase project is configured.
func newVerifier(cfg config.Config, logger *zap.Logger) (infra.TokenVerifier, error) {
	if cfg.Auth.FirebaseProjectID == "" {
		logger.Warn("authentication disabled")
		return nil, nil
	}
	return infra.NewFirebaseVerifier(context.Background(), cfg.Auth.FirebaseProjectID, cfg.Auth.CredentialsFile)
}

func newRouter(
	cfg config.Config,
	planner *service.TripPlanner,
	driver *stream.Driver,
	verifier infra.TokenVerifier,
	logger *zap.Logger,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return httptransport.NewRouter(httptransport.RouterDeps{
		Planner:     planner,
		Driver:      driver,
		Verifier:    verifier,
		Limiter:     middleware.NewRateLimiter(cfg.HTTP.RateLimitPerMin, cfg.HTTP.RateLimitBurst),
		CORSOrigins: cfg.HTTP.CORSOrigins,
		TurnTimeout: cfg.Turn.Timeout,
		Logger:      logger,
	})
}

func startServer(lc fx.Lifecycle, cfg config.Config, engine *gin.Engine, logger *zap.Logger) {
	server := httptransport.NewServer(cfg.HTTP.Addr, engine, logger)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error { return server.Start() },
		OnStop:  server.Shutdown,
	})
}
