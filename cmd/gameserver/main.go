// Package main provides the game server binary: it loads world content,
// populates NPCs, and runs the combat daemon and NPC heartbeat until
// interrupted.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/emberholt/mud/internal/config"
	"github.com/emberholt/mud/internal/game/combat"
	"github.com/emberholt/mud/internal/game/dice"
	"github.com/emberholt/mud/internal/game/npc"
	"github.com/emberholt/mud/internal/game/threat"
	"github.com/emberholt/mud/internal/game/world"
	"github.com/emberholt/mud/internal/observability"
	"github.com/emberholt/mud/internal/scripting"
	"github.com/emberholt/mud/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	cryptoSrc := dice.NewCryptoSource()
	roller := dice.NewLoggedRoller(cryptoSrc, logger)

	// Load world
	zoneStart := time.Now()
	zones, err := world.LoadZonesFromDir(cfg.Content.ZonesDir)
	if err != nil {
		logger.Fatal("loading zones", zap.Error(err))
	}
	worldMgr, err := world.NewManager(zones)
	if err != nil {
		logger.Fatal("creating world manager", zap.Error(err))
	}
	if err := worldMgr.ValidateExits(); err != nil {
		logger.Fatal("validating world exits", zap.Error(err))
	}
	logger.Info("world loaded",
		zap.Int("zones", worldMgr.ZoneCount()),
		zap.Int("rooms", worldMgr.RoomCount()),
		zap.Duration("elapsed", time.Since(zoneStart)),
	)

	// Optional persistence for characters and grudges.
	var grudgeRepo *postgres.GrudgeRepository
	if cfg.Database.Enabled {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		grudgeRepo = postgres.NewGrudgeRepository(pool.DB())
	} else {
		logger.Info("database disabled, grudges are in-memory only")
	}

	// Load NPC templates
	templates, err := npc.LoadTemplates(cfg.Content.NPCsDir)
	if err != nil {
		logger.Fatal("loading npc templates", zap.Error(err))
	}
	index, err := npc.TemplateIndex(templates)
	if err != nil {
		logger.Fatal("indexing npc templates", zap.Error(err))
	}
	logger.Info("npc templates loaded", zap.Int("count", len(templates)))

	threatCfg := threat.Config{
		FightingDecayRate: cfg.Threat.FightingDecayRate,
		IdleDecayRate:     cfg.Threat.IdleDecayRate,
		Floor:             cfg.Threat.Floor,
	}
	npcMgr := npc.NewManager(threatCfg)

	// Spawned NPCs enter the world and inherit any persisted grudges held by
	// their template.
	onSpawn := func(inst *npc.Instance) {
		worldMgr.Enter(inst, inst.RoomID())
		if grudgeRepo == nil {
			return
		}
		loadCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		grudges, err := grudgeRepo.ListByTemplate(loadCtx, inst.TemplateID())
		if err != nil {
			logger.Warn("loading grudges", zap.String("npc", inst.ID()), zap.Error(err))
			return
		}
		now := time.Now()
		for _, g := range grudges {
			inst.RecordGrudge(g.PlayerID, g.Intensity, g.Fled, now)
		}
	}

	spawns := npc.SpawnsFromZones(zones)
	respawns := npc.NewRespawnManager(spawns, index, onSpawn)
	for roomID := range spawns {
		respawns.PopulateRoom(roomID, npcMgr)
	}
	logger.Info("npcs spawned", zap.Int("count", len(npcMgr.All())))

	// Reaction scripts
	engine := scripting.NewEngine(roller, logger, cfg.Game.ScriptInstructionLimit)
	defer engine.Close()
	engine.Broadcast = func(roomID, msg string) { worldMgr.Broadcast(roomID, msg) }
	if _, err := os.Stat(cfg.Content.ScriptsDir); err == nil {
		if err := engine.LoadDir(cfg.Content.ScriptsDir); err != nil {
			logger.Fatal("loading reaction scripts", zap.Error(err))
		}
	} else {
		logger.Info("no reaction scripts directory", zap.String("dir", cfg.Content.ScriptsDir))
	}

	deaths := npc.NewDeathHandler(npcMgr, worldMgr, respawns, logger)
	var grudgeStore npc.GrudgeStore
	if grudgeRepo != nil {
		grudgeStore = grudgeRepo
	}
	aggro := npc.NewAggroNotifier(npcMgr, grudgeStore, logger)

	registry := combat.NewRegistry(cfg.Combat, combat.Deps{
		World:     worldMgr,
		Source:    cryptoSrc,
		Logger:    logger,
		Notifier:  aggro,
		Deaths:    deaths,
		Reactions: engine,
	})

	heartbeat := npc.NewHeartbeat(npcMgr, worldMgr, respawns, registry, logger, cfg.Game.Heartbeat())
	go heartbeat.Run(ctx)

	logger.Info("game server running",
		zap.Duration("startup", time.Since(start)),
		zap.Duration("heartbeat", cfg.Game.Heartbeat()),
		zap.Bool("player_killing", cfg.Combat.PlayerKilling),
	)

	<-ctx.Done()
	logger.Info("shutting down")
}
