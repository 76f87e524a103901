// Automata Core - Declarative Automation Engine
//
// This is the main entry point for the Automata Core application.
// Automata evaluates declarative rules and behavior trees against
// sensor readings injected over MQTT, and drives side-effect actions:
//   - JSON rules with priority, throttling and groups
//   - Behavior trees with tri-state ticking
//   - A scheduler combining timers, rate limiting and resource accounting
//   - Hot-reloadable configuration
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/calloway/automata-core/migrations"

	"github.com/calloway/automata-core/internal/api"
	"github.com/calloway/automata-core/internal/behavior"
	"github.com/calloway/automata-core/internal/expr"
	"github.com/calloway/automata-core/internal/history"
	"github.com/calloway/automata-core/internal/infrastructure/config"
	"github.com/calloway/automata-core/internal/infrastructure/database"
	"github.com/calloway/automata-core/internal/infrastructure/influxdb"
	"github.com/calloway/automata-core/internal/infrastructure/logging"
	"github.com/calloway/automata-core/internal/infrastructure/mqtt"
	"github.com/calloway/automata-core/internal/infrastructure/tsdb"
	"github.com/calloway/automata-core/internal/ingest"
	"github.com/calloway/automata-core/internal/rules"
	"github.com/calloway/automata-core/internal/schedule"
	"github.com/calloway/automata-core/internal/store"
	"github.com/calloway/automata-core/internal/value"
	"github.com/calloway/automata-core/internal/watch"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// ruleStateSaveInterval is how often persisted rule state is refreshed.
const ruleStateSaveInterval = time.Minute

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // startup wiring: each component follows the same connect/defer-close shape
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Automata Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Record storage backing history and rule-state persistence
	var storage store.Storage
	if cfg.History.Backend == "memory" {
		storage = store.NewMemoryStorage()
	} else {
		storage = store.NewSQLiteStorage(db.DB)
	}

	// Time-series mirror (optional): InfluxDB preferred, VictoriaMetrics
	// line protocol as the alternative.
	var metricWriter history.MetricWriter
	switch {
	case cfg.InfluxDB.Enabled:
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		metricWriter = influxClient
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)

	case cfg.TSDB.Enabled:
		tsdbClient, tsdbErr := tsdb.Connect(ctx, cfg.TSDB)
		if tsdbErr != nil {
			return fmt.Errorf("connecting to TSDB: %w", tsdbErr)
		}
		defer func() {
			log.Info("closing TSDB connection")
			if closeErr := tsdbClient.Close(); closeErr != nil {
				log.Error("error closing TSDB", "error", closeErr)
			}
		}()
		metricWriter = tsdbClient
		log.Info("TSDB connected", "url", cfg.TSDB.URL)

	default:
		log.Info("time-series mirror disabled")
	}

	// History recorder: rings for last-n aggregates, durable stream,
	// optional mirror.
	var recorder *history.Recorder
	if cfg.History.Enabled {
		recorderOpts := []history.RecorderOption{history.WithRecorderLogger(log)}
		if metricWriter != nil {
			recorderOpts = append(recorderOpts, history.WithMetricWriter(metricWriter))
		}
		recorder = history.NewRecorder(storage, recorderOpts...)
	}

	// Rule engine with history-backed expression evaluator
	evalOpts := []expr.Option{}
	if recorder != nil {
		evalOpts = append(evalOpts, expr.WithHistory(recorder))
	}
	engine := rules.NewEngine(
		rules.WithEvaluator(expr.NewEvaluator(evalOpts...)),
		rules.WithLogger(log.Component("rules")),
	)

	// Behavior-tree manager
	trees := behavior.NewManager(log.Component("behavior"))

	// Load rules document
	rulesData, err := os.ReadFile(cfg.Engine.RulesPath)
	if err != nil {
		return fmt.Errorf("reading rules: %w", err)
	}
	if err := engine.Load(rulesData); err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}
	log.Info("rules loaded", "path", cfg.Engine.RulesPath, "count", engine.RuleCount())

	// Restore persisted rule state so one-shot rules stay fired
	if cfg.Engine.PersistRuleState {
		state, stateErr := history.LoadRuleState(ctx, storage)
		if stateErr != nil {
			log.Warn("failed to load rule state", "error", stateErr)
		} else if len(state) > 0 {
			engine.RestoreState(state)
			log.Info("rule state restored", "rules", len(state))
		}
	}

	// Load behavior trees (optional document of named trees)
	if cfg.Engine.TreesPath != "" {
		if loadErr := loadTrees(trees, cfg.Engine.TreesPath); loadErr != nil {
			return fmt.Errorf("loading behavior trees: %w", loadErr)
		}
		log.Info("behavior trees loaded", "path", cfg.Engine.TreesPath, "trees", len(trees.Names()))
	}

	// Connect to MQTT broker for sensor ingestion and event publishing
	var mqttClient *mqtt.Client
	ingestOpts := []ingest.Option{ingest.WithLogger(log.Component("ingest"))}
	if recorder != nil {
		ingestOpts = append(ingestOpts, ingest.WithRecorder(recorder))
	}
	ingestor := ingest.New(ingestOpts...)
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() { log.Info("MQTT reconnected") })
		mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })

		if attachErr := ingestor.Attach(mqttClient); attachErr != nil {
			return fmt.Errorf("attaching sensor ingestion: %w", attachErr)
		}
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled; sensor ingestion limited to scheduler-driven sources")
	}

	// Scheduler bound to the engine and the trees
	scheduler := schedule.NewScheduler(
		schedule.WithSchedulerLogger(log.Component("scheduler")),
	)
	scheduler.RegisterCallback(schedule.TaskRuleExecution, func(_, _ string) bool {
		tctx := value.NewContext()
		ingestor.ApplyTo(tctx)
		engine.Tick(tctx)
		return true
	})
	scheduler.RegisterCallback(schedule.TaskBehaviorTree, func(_, targetID string) bool {
		tctx := value.NewContext()
		ingestor.ApplyTo(tctx)
		return trees.Execute(targetID, tctx) != behavior.Failure
	})
	if cfg.Scheduler.Enabled {
		scheduler.Start()
		defer scheduler.Stop()
		log.Info("scheduler started")
	}

	// API server and WebSocket event hub
	var hub *api.Hub
	if cfg.API.Enabled {
		server, apiErr := api.New(api.Deps{
			Config:    cfg.API,
			WS:        cfg.WebSocket,
			Logger:    log.Component("api"),
			Engine:    engine,
			Trees:     trees,
			Scheduler: scheduler,
			Recorder:  recorder,
			Version:   version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			log.Info("stopping API server")
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		hub = server.EventHub()
	}

	// Broadcast rule fires to MQTT and WebSocket subscribers, and record
	// them in the execution history.
	engine.SetFireListener(func(ruleID string, actions []rules.ActionStep) {
		if recorder != nil {
			recorder.RecordRuleExecution(context.Background(), ruleID, len(actions), true, 0)
		}
		if hub != nil {
			hub.Broadcast(api.ChannelRuleFired, map[string]any{"rule_id": ruleID, "actions": len(actions)})
		}
		if mqttClient != nil {
			payload := fmt.Sprintf(`{"rule_id":%q,"actions":%d}`, ruleID, len(actions))
			if pubErr := mqttClient.Publish(mqtt.Topics{}.RuleFired(ruleID), []byte(payload), 1, false); pubErr != nil {
				log.Warn("failed to publish rule fire", "rule_id", ruleID, "error", pubErr)
			}
		}
	})

	// Hot reload of the rules and trees documents
	if cfg.Engine.HotReload {
		watcher, watchErr := watch.New(log.Component("watch"))
		if watchErr != nil {
			return fmt.Errorf("creating config watcher: %w", watchErr)
		}
		defer watcher.Stop()

		if addErr := watcher.Add(cfg.Engine.RulesPath); addErr != nil {
			return fmt.Errorf("watching rules: %w", addErr)
		}
		if cfg.Engine.TreesPath != "" {
			if addErr := watcher.Add(cfg.Engine.TreesPath); addErr != nil {
				return fmt.Errorf("watching trees: %w", addErr)
			}
		}

		watcher.OnChange(func(path string, doc value.Value) {
			switch path {
			case cfg.Engine.RulesPath:
				if loadErr := engine.LoadValue(doc); loadErr != nil {
					log.Error("rules reload rejected; previous rules retained", "error", loadErr)
					return
				}
				log.Info("rules reloaded", "count", engine.RuleCount())
			case cfg.Engine.TreesPath:
				replaceTrees(trees, doc, log)
			}
		})
		watcher.Start()
		log.Info("config hot reload active")
	}

	// Periodic maintenance: rule-state persistence and scheduler cleanup
	go maintenanceLoop(ctx, cfg, engine, storage, scheduler, log)

	log.Info("initialisation complete, entering tick loop",
		"interval_ms", cfg.Engine.TickIntervalMS,
	)

	// Engine tick loop
	ticker := time.NewTicker(cfg.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received, cleaning up")
			if cfg.Engine.PersistRuleState {
				saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
				if saveErr := history.SaveRuleState(saveCtx, storage, engine.ExportState()); saveErr != nil {
					log.Error("failed to persist rule state", "error", saveErr)
				}
				saveCancel()
			}
			log.Info("Automata Core stopped")
			return nil

		case <-ticker.C:
			tctx := value.NewContext()
			ingestor.ApplyTo(tctx)
			engine.Tick(tctx)
		}
	}
}

// loadTrees parses a document of named behavior trees:
//
//	{"trees": {"patrol": {"root": ...}, "docking": {"root": ...}}}
func loadTrees(trees *behavior.Manager, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %q: %w", path, err)
	}
	var doc value.Value
	if err := doc.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("parsing %q: %w", path, err)
	}
	for name, treeDoc := range doc.Field("trees").Fields() {
		if err := trees.LoadValue(name, treeDoc); err != nil {
			return fmt.Errorf("tree %q: %w", name, err)
		}
	}
	return nil
}

// replaceTrees swaps every named tree from a reloaded document. Trees
// that fail to parse keep their previous definition.
func replaceTrees(trees *behavior.Manager, doc value.Value, log *logging.Logger) {
	for name, treeDoc := range doc.Field("trees").Fields() {
		data, err := treeDoc.MarshalJSON()
		if err != nil {
			log.Error("tree reload rejected", "tree", name, "error", err)
			continue
		}
		if err := trees.Replace(name, data); err != nil {
			log.Error("tree reload rejected; previous tree retained", "tree", name, "error", err)
		}
	}
	log.Info("behavior trees reloaded", "trees", len(trees.Names()))
}

// maintenanceLoop periodically persists rule state and prunes stale
// scheduler accounting.
func maintenanceLoop(ctx context.Context, cfg *config.Config, engine *rules.Engine, storage store.Storage, scheduler *schedule.Scheduler, log *logging.Logger) {
	stateTicker := time.NewTicker(ruleStateSaveInterval)
	defer stateTicker.Stop()

	cleanupInterval := time.Duration(cfg.Scheduler.CleanupInterval) * time.Minute
	if cleanupInterval <= 0 {
		cleanupInterval = time.Hour
	}
	cleanupTicker := time.NewTicker(cleanupInterval)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stateTicker.C:
			if !cfg.Engine.PersistRuleState {
				continue
			}
			if err := history.SaveRuleState(ctx, storage, engine.ExportState()); err != nil {
				log.Warn("failed to persist rule state", "error", err)
			}
		case <-cleanupTicker.C:
			if cfg.Scheduler.Enabled {
				scheduler.Cleanup(cfg.Scheduler.CleanupHours)
			}
		}
	}
}

// getConfigPath returns the configuration file path.
// Uses the AUTOMATA_CONFIG environment variable if set, otherwise the
// default.
func getConfigPath() string {
	if path := os.Getenv("AUTOMATA_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
