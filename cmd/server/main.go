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

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"tour-playback-service/internal/adapters/cache"
	"tour-playback-service/internal/adapters/events"
	"tour-playback-service/internal/adapters/repositories"
	"tour-playback-service/internal/adapters/solver"
	"tour-playback-service/internal/api"
	"tour-playback-service/internal/config"
	"tour-playback-service/internal/engine"
	"tour-playback-service/internal/platform/db"
	"tour-playback-service/internal/ports"
	"tour-playback-service/internal/render"
	"tour-playback-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (SQLite or Postgres, solvers, Redis, Kafka) behind
// ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	stores, err := initAndSeed(ctx, cfg, database)
	if err != nil {
		log.Fatal(err)
	}

	aco, err := solver.NewACOSolver(acoConfig(cfg))
	if err != nil {
		log.Fatal(err)
	}
	slv, err := newSolver(cfg, aco)
	if err != nil {
		log.Fatal(err)
	}

	solveCache, closeCache, err := newSolveCache(cfg, database)
	if err != nil {
		log.Fatal(err)
	}
	defer closeCache()
	if solveCache != nil {
		slv = solver.NewCachedSolver(slv, solveCache)
		log.Printf("solve cache enabled: backend=%s ttl=%s", cfg.SolveCacheBackend(), cfg.SolveCacheTTL)
	}

	publisher, err := newPublisher(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer publisher.Close()

	frameCache, err := cache.NewLRUFrameCache(cfg.FrameCacheSize)
	if err != nil {
		log.Fatal(err)
	}
	comp, err := render.NewCompositor()
	if err != nil {
		log.Fatal(err)
	}
	defer comp.Close()

	sched, err := engine.NewScheduler(engine.Config{
		StepsPerEdge: cfg.StepsPerEdge,
		FrameDelay:   cfg.FrameDelay,
	}, engine.RealClock{})
	if err != nil {
		log.Fatal(err)
	}

	ctrl, err := services.NewRunController(services.ControllerDeps{
		Scheduler: sched,
		Solver:    slv,
		Runs:      stores.Runs,
		Datasets:  stores.Datasets,
		Events:    publisher,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer ctrl.Close()

	frames := services.NewFrameService(comp, frameCache)
	go frames.Follow(ctx, ctrl)

	router := api.NewRouter(api.RouterDeps{
		Ctrl:         ctrl,
		Frames:       frames,
		Solver:       aco,
		CORSOrigins:  cfg.CORSOrigins,
		HistoryLimit: cfg.HistoryLimit,
	})

	// Write timeout covers a slow solver answering POST /runs.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown failed: %v", err)
		}
	}()

	log.Printf("Server listening addr=:%s solver=%s db=%s", cfg.Port, cfg.Solver, cfg.DBDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Printf("server stopped: %s", frames.Stats())
}

func initAndSeed(ctx context.Context, cfg config.Config, database *sql.DB) (repositories.Stores, error) {
	if err := repositories.InitSchema(database); err != nil {
		return repositories.Stores{}, fmt.Errorf("init and seed: %w", err)
	}

	stores, err := repositories.NewStores(cfg.DBDriver, database)
	if err != nil {
		return repositories.Stores{}, fmt.Errorf("init and seed: %w", err)
	}

	// A missing seed file only means no named data sets; uploads still work.
	n, err := repositories.SeedFromJSON(ctx, stores.Datasets, cfg.SeedPath)
	if err != nil {
		log.Printf("seed datasets skipped: path=%s err=%v", cfg.SeedPath, err)
	} else {
		log.Printf("datasets seeded: count=%d path=%s", n, cfg.SeedPath)
	}

	return stores, nil
}

func acoConfig(cfg config.Config) solver.ACOConfig {
	c := solver.DefaultACOConfig()
	c.Seed = cfg.ACOSeed
	return c
}

func newSolver(cfg config.Config, aco *solver.ACOSolver) (ports.Solver, error) {
	switch cfg.Solver {
	case "local":
		return aco, nil
	case "nearest":
		return solver.NewNearestNeighborSolver(), nil
	case "http":
		return solver.NewHTTPSolver(cfg.SolverURL, cfg.SolverTimeout, cfg.SolverMaxAttempts)
	default:
		return nil, fmt.Errorf("unknown solver %q", cfg.Solver)
	}
}

// newSolveCache returns nil when caching is off. The returned close func is
// always safe to call.
func newSolveCache(cfg config.Config, database *sql.DB) (ports.SolveCache, func(), error) {
	switch cfg.SolveCacheBackend() {
	case "off":
		return nil, func() {}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return cache.NewRedisSolveCache(client, cfg.SolveCacheTTL), func() { _ = client.Close() }, nil
	case "db":
		if cfg.DBDriver == "postgres" {
			return cache.NewSQLSolveCache(database, cfg.SolveCacheTTL), func() {}, nil
		}
		return cache.NewSqliteSolveCache(database, cfg.SolveCacheTTL), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown solve cache %q", cfg.SolveCache)
	}
}

func newPublisher(cfg config.Config) (ports.EventPublisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return events.LogPublisher{}, nil
	}
	p, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		return nil, err
	}
	log.Printf("run events to kafka: brokers=%v topic=%s", cfg.KafkaBrokers, cfg.KafkaTopic)
	return p, nil
}
