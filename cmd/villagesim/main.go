// Command villagesim runs the village simulation engine: a tick-driven
// scheduler over a fixed cast of agents, optionally backed by an LLM for
// decision-making and sqlite for persistence.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/talgya/village-sim/internal/config"
	"github.com/talgya/village-sim/internal/engine"
	"github.com/talgya/village-sim/internal/event"
	"github.com/talgya/village-sim/internal/eventbus"
	"github.com/talgya/village-sim/internal/goal"
	"github.com/talgya/village-sim/internal/lifeevent"
	"github.com/talgya/village-sim/internal/llmclient"
	"github.com/talgya/village-sim/internal/memory"
	"github.com/talgya/village-sim/internal/persistence"
	"github.com/talgya/village-sim/internal/query"
	"github.com/talgya/village-sim/internal/weather"
	"github.com/talgya/village-sim/internal/world"
)

var version = "0.1.0-dev"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	root := &cobra.Command{
		Use:   "villagesim",
		Short: "Tick-driven multi-agent village simulation engine",
	}

	var configPath string
	root.PersistentFlags().StringVar(&configPath, "config", "villagesim.toml", "path to configuration file")

	root.AddCommand(newRunCmd(&configPath))
	root.AddCommand(newSeedCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		slog.Error("villagesim: fatal", "error", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a fresh sqlite database with a small starter village",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := buildStarterWorld()

			db, err := persistence.Open(dbPath)
			if err != nil {
				return fmt.Errorf("villagesim seed: %w", err)
			}
			defer db.Close()

			tx, err := db.Session()
			if err != nil {
				return fmt.Errorf("villagesim seed: %w", err)
			}
			for _, l := range store.AllLocations() {
				if err := tx.SaveLocation(l); err != nil {
					tx.Rollback()
					return fmt.Errorf("villagesim seed: save location: %w", err)
				}
			}
			for _, a := range store.AllAgents() {
				if err := tx.SaveAgent(a); err != nil {
					tx.Rollback()
					return fmt.Errorf("villagesim seed: save agent: %w", err)
				}
			}
			if err := tx.SaveClock(store.Clock()); err != nil {
				tx.Rollback()
				return fmt.Errorf("villagesim seed: save clock: %w", err)
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("villagesim seed: %w", err)
			}

			slog.Info("villagesim: seeded database",
				"path", dbPath,
				"agents", humanize.Comma(int64(len(store.AllAgents()))),
				"locations", humanize.Comma(int64(len(store.AllLocations()))))
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "village.db", "sqlite database path")
	return cmd
}

func newRunCmd(configPath *string) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("villagesim run: %w", err)
			}

			store := buildStarterWorld()
			store.SetDayWindow(cfg.DayStartHour, cfg.DayEndHour)
			bus := eventbus.New(cfg.EventHistoryCap)
			memStore := memory.NewStoreWithCaps(cfg.MemoryCaps.Working, cfg.MemoryCaps.Recent, cfg.MemoryCaps.Longterm)
			goalMgr := goal.NewManager()

			var client llmclient.Client
			if cfg.UseLLM {
				if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
					provider := llmclient.NewAnthropicProvider(apiKey, cfg.LLM.Model, cfg.LLM.MaxCallsPerMin)
					cache := llmclient.NewCache(time.Duration(cfg.LLM.CacheTTLSeconds)*time.Second, cfg.LLM.CacheSize)
					usage := llmclient.NewUsageTracker(0)
					client = llmclient.NewRealClient(provider, cache, usage)
					slog.Info("villagesim: LLM client enabled", "model", cfg.LLM.Model)
				} else {
					slog.Warn("villagesim: use_llm is true but ANTHROPIC_API_KEY is unset, falling back to mock")
					client = llmclient.NewMockClient()
				}
			}

			var db *persistence.Store
			if dbPath != "" {
				db, err = persistence.Open(dbPath)
				if err != nil {
					return fmt.Errorf("villagesim run: %w", err)
				}
				defer db.Close()
			}

			lifeDetector := lifeevent.NewDetector(store, bus)
			defer lifeDetector.Close()

			sched := engine.New(store, bus, memStore, goalMgr, client, time.Duration(cfg.TickIntervalSeconds*float64(time.Second))).
				WithLifeEventDetector(lifeDetector).
				WithWeather(weather.NewGenerator(time.Now().UnixNano()))

			logSub := bus.Subscribe()
			defer bus.Unsubscribe(logSub)
			go logEvents(logSub)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			sched.Start(ctx)
			slog.Info("villagesim: running", "tick_interval_seconds", cfg.TickIntervalSeconds)

			<-ctx.Done()
			slog.Info("villagesim: shutting down")
			sched.Stop()

			if db != nil {
				if err := checkpoint(db, store); err != nil {
					slog.Error("villagesim: checkpoint failed", "error", err)
				}
			}

			health := sched.Health()
			snap := query.Snapshot(store)
			graph := query.Relationships(store)
			slog.Info("villagesim: stopped",
				"total_ticks", health.TotalTicks,
				"error_count", health.ErrorCount,
				"status", health.Status,
				"day", snap.Day,
				"season", snap.Season,
				"relationships", len(graph.Edges))
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path for a checkpoint written at shutdown (empty disables persistence)")
	return cmd
}

// checkpoint writes every agent, every relationship and the clock in one
// transaction so a partially-written checkpoint never survives a crash.
// Locations, memories and goals are not written.
func checkpoint(db *persistence.Store, store *world.Store) error {
	tx, err := db.Session()
	if err != nil {
		return err
	}
	for _, a := range store.AllAgents() {
		if err := tx.SaveAgent(a); err != nil {
			tx.Rollback()
			return err
		}
	}
	for _, r := range store.AllRelationships() {
		if err := tx.SaveRelationship(r); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.SaveClock(store.Clock()); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func logEvents(sub eventbus.Subscription) {
	for e := range sub.Events {
		if e.Type == event.Tick {
			continue
		}
		slog.Info("village event", "type", e.Type, "summary", e.Summary, "significance", e.Significance)
	}
}

// buildStarterWorld seeds a small fixed village: a town square connected
// to two outlying locations (which do not connect to each other) and a
// handful of agents with randomized but plausible traits.
func buildStarterWorld() *world.Store {
	store := world.NewStore()

	square := &world.Location{ID: uuid.New(), Name: "Town Square", Description: "The heart of the village.", Objects: []string{"well", "notice board"}, Capacity: 8}
	tavern := &world.Location{ID: uuid.New(), Name: "The Wayside Tavern", Description: "Warm light and the smell of stew.", Objects: []string{"hearth", "barrel"}, Capacity: 6}
	fields := &world.Location{ID: uuid.New(), Name: "Barley Fields", Description: "Rows of barley swaying in the wind.", Objects: []string{"scythe", "scarecrow"}, Capacity: 6}

	square.Connections = []uuid.UUID{tavern.ID, fields.ID}
	tavern.Connections = []uuid.UUID{square.ID}
	fields.Connections = []uuid.UUID{square.ID}

	store.SeedLocation(square)
	store.SeedLocation(tavern)
	store.SeedLocation(fields)

	names := []string{"Mira", "Cole", "Wren", "Bastian", "Odalys"}
	for _, name := range names {
		a := &world.Agent{
			ID:     uuid.New(),
			Name:   name,
			Prompt: fmt.Sprintf("%s is a villager going about an ordinary day.", name),
			Traits: world.TraitSet{
				Openness:          3 + rand.Intn(8),
				Conscientiousness: 3 + rand.Intn(8),
				Extraversion:      3 + rand.Intn(8),
				Agreeableness:     3 + rand.Intn(8),
				Neuroticism:       3 + rand.Intn(8),
				Curiosity:         3 + rand.Intn(8),
				Ambition:          3 + rand.Intn(8),
				Empathy:           3 + rand.Intn(8),
			},
			LocationID: square.ID,
			Needs:      world.Needs{Hunger: 3, Energy: 7, Social: 5},
			State:      world.StateIdle,
		}
		store.SeedAgent(a)
	}

	return store
}
