package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bashkah/partyroom/internal/api"
	"github.com/bashkah/partyroom/internal/api/sse"
	"github.com/bashkah/partyroom/internal/factory"
	mongostore "github.com/bashkah/partyroom/internal/store/mongo"
	redisstore "github.com/bashkah/partyroom/internal/store/redis"
)

type serveOpts struct {
	host      string
	port      int
	storeType string
	redisURL  string
	mongoURL  string
	verbose   bool
}

func newServeCmd() *cobra.Command {
	opts := &serveOpts{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `serve exposes the room service over HTTP: room lifecycle, in-game
actions, and a per-room SSE stream that pushes a snapshot after every
committed change.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "Listen host")
	cmd.Flags().IntVar(&opts.port, "port", 8080, "Listen port")
	cmd.Flags().StringVar(&opts.storeType, "store", envOrDefault("STORE_TYPE", factory.StoreTypeMemory), "Store backend: memory, redis, mongo")
	cmd.Flags().StringVar(&opts.redisURL, "redis-url", os.Getenv("REDIS_URL"), "Redis URL when --store=redis")
	cmd.Flags().StringVar(&opts.mongoURL, "mongo-url", os.Getenv("MONGO_URL"), "MongoDB URI when --store=mongo")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	return cmd
}

func runServe(ctx context.Context, opts *serveOpts) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := factory.Config{
		Logger:    logger,
		StoreType: opts.storeType,
	}
	switch opts.storeType {
	case factory.StoreTypeRedis:
		redisCfg := redisstore.DefaultConfig()
		if opts.redisURL != "" {
			redisCfg.URL = opts.redisURL
		}
		cfg.RedisConfig = &redisCfg
	case factory.StoreTypeMongo:
		mongoCfg := mongostore.DefaultConfig()
		if opts.mongoURL != "" {
			mongoCfg.URI = opts.mongoURL
		}
		cfg.MongoConfig = &mongoCfg
	}

	app, err := factory.New(ctx, cfg)
	if err != nil {
		return err
	}

	streamer := sse.NewStreamer(app.Store, logger)
	defer streamer.Close()

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		Store:          app.Store,
		RoomController: app.RoomController,
		PhaseMachine:   app.PhaseMachine,
		ScoringEngine:  app.ScoringEngine,
		Streamer:       streamer,
	})

	serverCfg := api.DefaultServerConfig()
	serverCfg.Host = opts.host
	serverCfg.Port = opts.port
	server := api.NewServer(router, serverCfg, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-stop:
	case <-ctx.Done():
	}

	return server.Shutdown(context.Background())
}
