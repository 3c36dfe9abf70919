package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/Porta048/AutoCad-MCP/internal/cad"
	"github.com/Porta048/AutoCad-MCP/internal/dispatch"
	"github.com/Porta048/AutoCad-MCP/internal/journal"
	"github.com/Porta048/AutoCad-MCP/internal/logging"
	"github.com/Porta048/AutoCad-MCP/internal/mcp"
	"github.com/Porta048/AutoCad-MCP/internal/metrics"
	"github.com/Porta048/AutoCad-MCP/internal/nlp"
	"github.com/Porta048/AutoCad-MCP/internal/tools"
)

// app is the composition root: every long-lived service of the gateway.
type app struct {
	cfg        *AppConfig
	logger     *slog.Logger
	registry   *prometheus.Registry
	metrics    *metrics.Metrics
	parser     *nlp.Parser
	tools      *tools.ToolManager
	driver     *cad.Adapter
	rdb        *redis.Client
	store      journal.Store
	dispatcher *dispatch.Dispatcher
}

// newApp initializes the services in dependency order. Nothing here touches
// the CAD host; it is attached on the first drawing call.
func newApp(ctx context.Context, cfg *AppConfig) (*app, error) {
	a := &app{
		cfg:      cfg,
		logger:   logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}),
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.MustNew(a.registry)

	var err error
	a.parser, err = nlp.New(nlp.Options{
		DefaultSavePath: cfg.DefaultSavePath(),
		CacheSize:       cfg.Parser.CacheSize,
		OnCacheHit:      a.metrics.ParseCacheHit,
		Logger:          logging.Component(a.logger, "nlp"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create parser: %w", err)
	}

	a.tools = tools.NewManager(cfg.DefaultSavePath(), a.parser)
	log.Printf("✅ Tool Manager initialized with %d tools.", a.tools.ToolCount())

	if err := a.initJournal(ctx); err != nil {
		return nil, err
	}

	driverCfg := cfg.DriverConfig()
	driverCfg.Logger = logging.Component(a.logger, "cad")
	a.driver, err = cad.New(driverCfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create CAD driver: %w", err)
	}

	a.dispatcher, err = dispatch.New(dispatch.Options{
		Decoder: a.tools,
		Parser:  a.parser,
		Driver:  a.driver,
		Recorders: []dispatch.Recorder{
			journal.NewRecorder(a.store, logging.Component(a.logger, "journal")),
			a.metrics,
		},
		Logger: logging.Component(a.logger, "dispatch"),
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}
	return a, nil
}

func (a *app) initJournal(ctx context.Context) error {
	jc := a.cfg.Journal
	if jc.RedisAddr == "" {
		a.store = journal.NewMemory(jc.MaxEntities)
		log.Println("✅ Drawing journal kept in memory.")
		return nil
	}

	a.rdb = redis.NewClient(&redis.Options{Addr: jc.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := a.rdb.Ping(pingCtx).Result(); err != nil {
		_ = a.rdb.Close()
		a.rdb = nil
		return fmt.Errorf("could not connect to Redis at %s: %w", jc.RedisAddr, err)
	}
	a.store = journal.NewRedis(a.rdb, jc.KeyPrefix, jc.MaxEntities)
	log.Printf("✅ Drawing journal stored in Redis at %s.", jc.RedisAddr)
	return nil
}

func (a *app) mcpServer() *mcp.Server {
	return mcp.NewServer(mcp.Options{
		Info:    mcp.ServerInfo{Name: a.cfg.Server.Name, Version: a.cfg.Server.Version},
		Handler: a.dispatcher,
		Tools:   a.tools,
		State:   a.store,
		Logger:  logging.Component(a.logger, "mcp"),
	})
}

// httpEngine builds the gin engine. Gin output is sent to stderr so it never
// mixes with the MCP stream on stdout.
func (a *app) httpEngine() *gin.Engine {
	if logging.ParseLevel(a.cfg.Log.Level) > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = os.Stderr
	gin.DefaultErrorWriter = os.Stderr

	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())
	NewCADHandler(a.dispatcher, a.tools, a.store, logging.Component(a.logger, "http")).
		Routes(engine, a.registry)
	return engine
}

// Close stops the dispatcher and releases the host session and Redis client.
func (a *app) Close() {
	if a.dispatcher != nil {
		a.dispatcher.Close()
	}
	if a.driver != nil {
		if err := a.driver.Close(); err != nil {
			log.Printf("WARNING: failed to release CAD host: %v", err)
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			log.Printf("WARNING: failed to close Redis client: %v", err)
		}
	}
}
