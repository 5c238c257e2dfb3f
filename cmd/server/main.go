package main

import (
	"context"
	"database/sql"
	"directory-map-service/internal/adapters/cache"
	"directory-map-service/internal/adapters/catalog"
	"directory-map-service/internal/adapters/directory"
	"directory-map-service/internal/adapters/events"
	"directory-map-service/internal/adapters/geolocation"
	"directory-map-service/internal/adapters/repositories"
	"directory-map-service/internal/api"
	"directory-map-service/internal/config"
	"directory-map-service/internal/domain"
	"directory-map-service/internal/platform/db"
	"directory-map-service/internal/ports"
	"directory-map-service/internal/services"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// main is the application composition root.
// It wires the configured directory backend, the optional Redis search cache and
// the geolocation fallback behind ports, then starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dir, closeDir, err := openDirectory(ctx, cfg.Directory)
	if err != nil {
		log.Fatal(err)
	}
	defer closeDir()

	var searcher ports.BusinessSearcher = dir
	if cfg.Cache.RedisAddr != "" {
		client, err := openRedis(ctx, cfg.Cache)
		if err != nil {
			log.Printf("search cache disabled: %v", err)
		} else {
			defer client.Close()
			searcher = cache.NewCachingSearcher(dir, cache.NewRedisSearchCache(client, cfg.Cache.TTL))
			log.Printf("search cache enabled addr=%s ttl=%s", cfg.Cache.RedisAddr, cfg.Cache.TTL)
		}
	}

	gazetteer := services.DefaultGazetteer()
	if cfg.Geo.GazetteerPath != "" {
		if gazetteer, err = services.LoadGazetteer(cfg.Geo.GazetteerPath); err != nil {
			log.Fatal(err)
		}
	}

	var ipLocator *geolocation.IPLocator
	if cfg.Geo.IPLocatorURL != "" {
		if ipLocator, err = geolocation.NewIPLocator(cfg.Geo.IPLocatorURL); err != nil {
			log.Fatal(err)
		}
	}

	var publisher ports.EventPublisher
	if cfg.Events.NATSURL != "" {
		nc, err := events.Connect(events.NATSConfig{
			URL:            cfg.Events.NATSURL,
			MaxReconnects:  cfg.Events.MaxReconnects,
			ReconnectWait:  cfg.Events.ReconnectWait,
			ConnectTimeout: cfg.Events.ConnectTimeout,
		})
		if err != nil {
			log.Printf("discovery events disabled: %v", err)
		} else {
			defer nc.Drain()
			publisher = events.NewNATSPublisher(nc, cfg.Events.SubjectPrefix)
			log.Printf("discovery events enabled url=%s prefix=%s", cfg.Events.NATSURL, cfg.Events.SubjectPrefix)
		}
	}

	directions, err := services.NewDirectionsProvider(cfg.Directions.ProviderURL)
	if err != nil {
		log.Fatal(err)
	}

	store, err := services.NewSessionStore(services.SessionDeps{
		Searcher:        searcher,
		Gazetteer:       gazetteer,
		Directions:      directions,
		Events:          publisher,
		ResultLimit:     cfg.Directory.ResultLimit,
		ExplicitTimeout: cfg.Geo.ExplicitTimeout,
		ProbeTimeout:    cfg.Geo.ProbeTimeout,
		DefaultCenter:   domain.Coordinate{Lat: cfg.Geo.DefaultLat, Lng: cfg.Geo.DefaultLng},
		IdleTTL:         cfg.Sessions.IdleTTL,
	})
	if err != nil {
		log.Fatal(err)
	}
	go store.RunJanitor(ctx, time.Minute)

	router := api.NewRouter(api.RouterDeps{
		Sessions:    store,
		Categories:  dir,
		IPLocator:   ipLocator,
		CorsOrigins: cfg.Server.CorsOrigins,
	})

	// WriteTimeout covers a directory search plus a full explicit location timeout.
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("Server listening addr=:%s backend=%s", cfg.Server.Port, cfg.Directory.Backend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Println("Server stopped")
}

// openDirectory builds the configured directory backend. The returned func
// releases its resources.
func openDirectory(ctx context.Context, cfg config.DirectoryConfig) (ports.Directory, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case "http":
		d, err := directory.NewHTTPDirectory(cfg.BaseURL, cfg.APIKey)
		if err != nil {
			return nil, nil, err
		}
		return d, noop, nil

	case "postgres":
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return repositories.NewPostgresBusinessRepository(conn, cfg.NearRadiusKm), closeFunc(conn), nil

	case "sqlite":
		conn, err := db.OpenSqlite(cfg.SqlitePath)
		if err != nil {
			return nil, nil, err
		}
		// Initialize schema and seed demo data on startup for local runs.
		if err := initAndSeed(conn, cfg.SeedPath); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return repositories.NewSqliteBusinessRepository(conn, cfg.NearRadiusKm), closeFunc(conn), nil

	case "mongo":
		return openMongo(ctx, cfg)

	case "memory":
		c, err := catalog.Load(cfg.SeedPath, cfg.NearRadiusKm)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("catalog loaded businesses=%d", c.Len())
		return c, noop, nil
	}

	return nil, nil, fmt.Errorf("open directory: unknown backend %q", cfg.Backend)
}

func closeFunc(conn *sql.DB) func() {
	return func() {
		if err := conn.Close(); err != nil {
			log.Printf("close database: %v", err)
		}
	}
}

func initAndSeed(conn *sql.DB, seedPath string) error {
	if err := repositories.InitSchema(conn); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if err := repositories.SeedFromJSON(conn, repositories.Sqlite, seedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	return nil
}

func openRedis(ctx context.Context, cfg config.CacheConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("open redis %s: %w", cfg.RedisAddr, err)
	}
	return client, nil
}

// openMongo connects to MongoDB, ensures the indexes and seeds an empty collection.
func openMongo(ctx context.Context, cfg config.DirectoryConfig) (ports.Directory, func(), error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("open mongo: connect: %w", err)
	}
	disconnect := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Printf("close mongo: %v", err)
		}
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		disconnect()
		return nil, nil, fmt.Errorf("open mongo: ping: %w", err)
	}

	repo := repositories.NewMongoBusinessRepository(
		client.Database(cfg.MongoDatabase).Collection("businesses"),
		cfg.NearRadiusKm,
	)
	if err := repo.EnsureIndexes(connectCtx); err != nil {
		disconnect()
		return nil, nil, err
	}

	n, err := repo.SeedIfEmpty(connectCtx, cfg.SeedPath)
	if err != nil {
		disconnect()
		return nil, nil, err
	}
	if n > 0 {
		log.Printf("mongo seeded businesses=%d", n)
	}

	return repo, disconnect, nil
}
