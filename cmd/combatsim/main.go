package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ashfall/elementum/internal/combat"
	"github.com/ashfall/elementum/internal/config"
	"github.com/ashfall/elementum/internal/data"
	"github.com/ashfall/elementum/internal/db"
	"github.com/ashfall/elementum/internal/element"
	"github.com/ashfall/elementum/internal/model"
)

const ConfigPath = "config/combatsim.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("ELEMENTUM_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadSimulator(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	})))
	slog.Info("combat simulator starting", "tick_ms", cfg.TickMs, "ticks", cfg.TickCount)

	elements, err := data.LoadElements(filepath.Join(cfg.DataDir, "elements.yaml"))
	if err != nil {
		return fmt.Errorf("loading elements: %w", err)
	}
	composites, err := data.LoadCompositeRules(filepath.Join(cfg.DataDir, "rules.yaml"))
	if err != nil {
		return fmt.Errorf("loading composite rules: %w", err)
	}
	envs, err := data.LoadEnvironments(filepath.Join(cfg.DataDir, "environments.yaml"))
	if err != nil {
		return fmt.Errorf("loading environments: %w", err)
	}
	seed, err := data.LoadAffinities(filepath.Join(cfg.DataDir, "affinities.yaml"))
	if err != nil {
		return fmt.Errorf("loading affinities: %w", err)
	}

	var store combat.AffinityStore
	if cfg.PersistAffinity {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		store = db.NewAffinityRepository(database.Pool())
		slog.Info("affinity matrix persisted to database")
	}

	affinity := combat.NewAffinityTable(store)
	for _, e := range seed {
		if err := affinity.Set(ctx, e.Attack, e.Defense, e.Multiplier); err != nil {
			return fmt.Errorf("seeding affinity matrix: %w", err)
		}
	}

	stats := newSimStats()
	pipeline := combat.NewPipeline(affinity, composites, elements, stats, logStatus{}, nil)

	return simulate(ctx, cfg, pipeline, stats, envs)
}

// simulate runs the tick loop: advance modifier lifecycles, build an attack
// every tick and resolve it against the defender.
func simulate(ctx context.Context, cfg config.Simulator, pipeline *combat.Pipeline, stats *simStats, envs map[string]*combat.Environment) error {
	const (
		attacker model.EntityID = 1
		defender model.EntityID = 2
	)
	stats.set(attacker, model.StatOffense, 60)
	stats.set(attacker, model.StatMagicPower, 40)
	stats.set(attacker, model.StatCriticalRate, 80)
	stats.set(attacker, model.StatCriticalDamage, 0.5)

	onSignal := func(sig combat.Signal, m *combat.Modifier) {
		slog.Debug("modifier lifecycle", "signal", sig, "id", m.ID, "source", m.SourceID)
	}
	atkState := combat.NewCombatState(stats, onSignal)
	defState := combat.NewCombatState(stats, onSignal)

	atkState.Builder.RegisterWeaponBonus("flame-brand", []combat.ElementValue{
		{Element: element.Fire, Flat: 10, Percent: 0.5},
	}, 0, true)
	atkState.Builder.RegisterSkillBonus("tide-surge", []combat.ElementValue{
		{Element: element.Water, Flat: 5, Percent: 0.8},
	}, 0, true)

	// A timed ward on the defender; expires mid-run.
	if err := defState.Ledger.Apply(&combat.Modifier{
		ID:         "frost-ward",
		SourceID:   "buff:frost-ward",
		DurationMs: cfg.TickMs * int32(cfg.TickCount) / 2,
		Effect: combat.DefenseResistanceEffect{
			Resistances: map[element.Element]float64{element.Fire: 0.4},
		},
	}); err != nil {
		return err
	}

	env := envs["volcanic"]

	ticker := time.NewTicker(time.Duration(cfg.TickMs) * time.Millisecond)
	defer ticker.Stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for i := 0; i < cfg.TickCount; i++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}

			atkState.Tick(cfg.TickMs)
			defState.Tick(cfg.TickMs)

			attack := atkState.Builder.Build(attacker, "flame-brand", "tide-surge", true)
			res := pipeline.Strike(attack, defender, defState, env)
			slog.Info("resolved",
				"tick", i,
				"base", res.BaseDamage,
				"final", res.FinalDamage,
				"crit", res.Critical,
				"composite", res.Composite != nil)
			for _, line := range res.Log {
				slog.Debug("calc", "step", line)
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}

	slog.Info("simulation complete", "defender_damage_taken", stats.damageTaken(defender))
	return nil
}

// simStats is an in-memory stat accessor for the simulator.
type simStats struct {
	values map[model.EntityID]map[model.StatKind]float64
	damage map[model.EntityID]float64
}

func newSimStats() *simStats {
	return &simStats{
		values: make(map[model.EntityID]map[model.StatKind]float64),
		damage: make(map[model.EntityID]float64),
	}
}

func (s *simStats) set(e model.EntityID, k model.StatKind, v float64) {
	if s.values[e] == nil {
		s.values[e] = make(map[model.StatKind]float64)
	}
	s.values[e][k] = v
}

func (s *simStats) GetStat(e model.EntityID, k model.StatKind) float64 {
	return s.values[e][k]
}

func (s *simStats) ApplyDamage(e model.EntityID, amount float64) {
	s.damage[e] += amount
}

func (s *simStats) damageTaken(e model.EntityID) float64 {
	return s.damage[e]
}

// logStatus reports status applications without owning any effect logic.
type logStatus struct{}

func (logStatus) ApplyStatus(target model.EntityID, e element.Element, effect string) bool {
	slog.Info("status applied", "target", target, "element", e, "effect", effect)
	return true
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
