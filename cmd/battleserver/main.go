// Package main provides the skirmish battle server binary. It wires together
// configuration, content loading, the battle rule systems, and the
// orchestrator; transports are mounted by the session layer.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/battleserver"
	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/item"
	"github.com/cory-johannsen/skirmish/internal/game/movement"
	"github.com/cory-johannsen/skirmish/internal/game/session"
	"github.com/cory-johannsen/skirmish/internal/game/timer"
	"github.com/cory-johannsen/skirmish/internal/game/turn"
	"github.com/cory-johannsen/skirmish/internal/observability"
	"github.com/cory-johannsen/skirmish/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	archetypeDir := flag.String("archetypes", "", "override path to archetype YAML files directory")
	itemDir := flag.String("items", "", "override path to item YAML files directory")
	demo := flag.Bool("demo", false, "run a timer-driven exhibition battle at startup")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *archetypeDir != "" {
		cfg.Content.ArchetypeDir = *archetypeDir
	}
	if *itemDir != "" {
		cfg.Content.ItemDir = *itemDir
	}

	// Initialize logger
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting skirmish battle server",
		zap.Int("grid_width", cfg.Battle.GridWidth),
		zap.Int("grid_height", cfg.Battle.GridHeight),
	)

	// Load content
	templates, err := character.LoadTemplates(cfg.Content.ArchetypeDir)
	if err != nil {
		logger.Fatal("loading archetypes", zap.Error(err))
	}
	items, err := item.LoadDefs(cfg.Content.ItemDir)
	if err != nil {
		logger.Fatal("loading items", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Int("archetypes", len(templates)),
		zap.Int("items", items.Len()),
	)

	// Build the battle core
	sessions := session.NewManager()
	manager := battleserver.NewManager(
		logger,
		sessions,
		movement.NewSystem(),
		combat.NewSystem(items, cfg.Battle.RangedRange),
		turn.NewManager(cfg.Battle.MovementPerCharacter, cfg.Battle.MovementPerTeam),
		timer.NewManager(),
		items,
		templates,
		grid.Grid{Width: cfg.Battle.GridWidth, Height: cfg.Battle.GridHeight},
		cfg.Battle.TurnTimeLimit,
		cfg.Battle.BattleTimeLimit,
	)
	// Wire lifecycle
	lifecycle := server.NewLifecycle(logger)

	if *demo {
		// Exhibition mode: the deadlines drive the whole battle, so this
		// smokes the orchestrator, turn cycle, and timer paths end to end.
		demoDone := make(chan struct{})
		lifecycle.Add("exhibition", &server.FuncService{
			StartFn: func() error {
				b, err := manager.CreateBattle("exhibition-red", "exhibition-blue")
				if err != nil {
					return err
				}
				ticker := time.NewTicker(5 * time.Second)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						info, err := manager.TurnInfo(b.ID)
						if err != nil {
							// Unregistered means finished.
							logger.Info("exhibition battle concluded", zap.String("battle_id", b.ID))
							return nil
						}
						logger.Info("exhibition turn",
							zap.String("battle_id", info.BattleID),
							zap.String("active_player", info.ActivePlayer),
							zap.Int("turn", info.TurnNumber),
						)
					case <-demoDone:
						return nil
					}
				}
			},
			StopFn: func() {
				close(demoDone)
			},
		})
	}

	// The transports of the session layer mount here; until then a heartbeat
	// service reports the registry size so the binary is observable.
	heartbeatDone := make(chan struct{})
	lifecycle.Add("heartbeat", &server.FuncService{
		StartFn: func() error {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					logger.Info("battle registry", zap.Int("active_battles", sessions.Count()))
				case <-heartbeatDone:
					return nil
				}
			}
		},
		StopFn: func() {
			close(heartbeatDone)
		},
	})

	logger.Info("server initialized",
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(context.Background()); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
