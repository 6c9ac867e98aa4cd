package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/bashkah/partyroom/internal/coordinator"
	"github.com/bashkah/partyroom/internal/factory"
	"github.com/bashkah/partyroom/internal/identity"
	"github.com/bashkah/partyroom/internal/model"
	mongostore "github.com/bashkah/partyroom/internal/store/mongo"
	redisstore "github.com/bashkah/partyroom/internal/store/redis"
)

type simulateOpts struct {
	players     int
	storeType   string
	redisURL    string
	mongoURL    string
	voteTimeout time.Duration
	verbose     bool
}

func newSimulateCmd() *cobra.Command {
	opts := &simulateOpts{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a complete scripted game",
		Long: `simulate wires a store, creates one coordinator per player, and plays a
full game: create and join by code, submit facts, vote each round (one player
deliberately lets the vote time out), and print the final leaderboard.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.players, "players", 3, "Number of simulated players")
	cmd.Flags().StringVar(&opts.storeType, "store", envOrDefault("STORE_TYPE", factory.StoreTypeMemory), "Store backend: memory, redis, mongo")
	cmd.Flags().StringVar(&opts.redisURL, "redis-url", os.Getenv("REDIS_URL"), "Redis URL when --store=redis")
	cmd.Flags().StringVar(&opts.mongoURL, "mongo-url", os.Getenv("MONGO_URL"), "MongoDB URI when --store=mongo")
	cmd.Flags().DurationVar(&opts.voteTimeout, "vote-timeout", 2*time.Second, "Per-round vote timeout")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	return cmd
}

func runSimulate(ctx context.Context, opts *simulateOpts) error {
	if opts.players < 2 {
		return errors.New("--players must be at least 2")
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := factory.Config{
		Logger:    logger,
		StoreType: opts.storeType,
		CoordinatorConfig: coordinator.Config{
			VoteTimeout: opts.voteTimeout,
			RevealDelay: 200 * time.Millisecond,
			AutoAdvance: true,
		},
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

	// One stable identity per simulated player
	ids := make([]model.PlayerID, opts.players)
	for i := range ids {
		provider := identity.NewProvider(identity.NewMemoryKV())
		id, err := provider.PlayerID()
		if err != nil {
			return err
		}
		ids[i] = id
	}

	hostName := "Player 1"
	room, err := app.RoomController.CreateRoom(ctx, model.GameFact, ids[0], hostName)
	if err != nil {
		return err
	}
	fmt.Printf("room %s created, code %s\n", room.ID, room.Code)

	coords := make([]*coordinator.Coordinator, opts.players)
	for i := range coords {
		coords[i] = app.NewCoordinator(ids[i])
		if i > 0 {
			name := fmt.Sprintf("Player %d", i+1)
			if _, err := app.RoomController.JoinRoom(ctx, room.GameType, room.Code, ids[i], name); err != nil {
				return err
			}
		}
		if err := coords[i].Attach(ctx, room.ID); err != nil {
			return err
		}
		defer coords[i].Detach()
	}

	if err := coords[0].StartGame(ctx); err != nil {
		return err
	}

	// Each player runs its own script: submit in writing, vote in voting.
	// The last player never votes, exercising the timeout path every round.
	var wg sync.WaitGroup
	for i, coord := range coords {
		wg.Add(1)
		go func(i int, coord *coordinator.Coordinator) {
			defer wg.Done()
			playScript(ctx, coord, ids, i == opts.players-1)
		}(i, coord)
	}
	wg.Wait()

	view := coords[0].View()
	if view.Screen() != coordinator.ScreenResults {
		return fmt.Errorf("game did not reach results (screen %s)", view.Screen())
	}

	fmt.Println("leaderboard:")
	for _, row := range app.ScoringEngine.Leaderboard(view.Players) {
		fmt.Printf("  %d. %s - %d\n", row.Rank, row.Name, row.Score)
	}
	return nil
}

// playScript reacts to the coordinator's view until the game ends
func playScript(ctx context.Context, coord *coordinator.Coordinator, ids []model.PlayerID, abstain bool) {
	submitted := false
	voted := map[model.FactID]bool{}

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(2 * time.Minute)

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			return
		case <-ticker.C:
		}

		view := coord.View()
		switch view.Screen() {
		case coordinator.ScreenWriting:
			if submitted {
				continue
			}
			facts := make([]string, model.FactsPerPlayer)
			for i := range facts {
				facts[i] = fmt.Sprintf("fact %d", i+1)
			}
			if err := coord.SubmitFacts(ctx, facts); err == nil {
				submitted = true
			}
		case coordinator.ScreenVoting:
			if abstain {
				continue
			}
			fact := view.CurrentFact()
			if fact == nil || voted[fact.ID] {
				continue
			}
			// Guess the first other player
			choice := ids[0]
			if fact.AuthorID == ids[0] && len(ids) > 1 {
				choice = ids[1]
			}
			if err := coord.CastVote(ctx, choice); err == nil {
				voted[fact.ID] = true
			}
		case coordinator.ScreenResults, coordinator.ScreenClosed:
			return
		}
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
