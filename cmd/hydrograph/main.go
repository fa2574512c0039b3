package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hanpama/hydrograph/internal/api"
	"github.com/hanpama/hydrograph/internal/config"
	"github.com/hanpama/hydrograph/internal/eventbus"
	"github.com/hanpama/hydrograph/internal/hydrate"
	"github.com/hanpama/hydrograph/internal/logging"
	"github.com/hanpama/hydrograph/internal/otel"
	"github.com/hanpama/hydrograph/internal/query"
	"github.com/hanpama/hydrograph/internal/revision"
	"github.com/hanpama/hydrograph/internal/store"
)

const rootUsage = `hydrograph — cards, dashboards & hydrated REST API

USAGE:
  hydrograph <command> [flags]

COMMANDS:
  serve            Run the HTTP API server
  init-db          Create the application database schema
  help             Show help for any command
`

const serveUsage = `serve FLAGS:
  -config <file>            YAML configuration file
  -server.addr <addr>       HTTP listen address (default: :8080)
  -server.pretty            Pretty-print JSON responses
  -server.timeout <dur>     Per-request timeout, e.g. 10s (default: 10s)
  -server.api-key <key>     Require X-API-Key on every request
  -db.path <file>           Application database path (default: hydrograph.db)
  -database <name=dsn>      Add a queryable database. Repeatable
  -cache.redis-addr <addr>  Use Redis for query-result caching
  -cache.ttl <dur>          Query-result cache TTL (default: 60s)
  -otel.endpoint <addr>     OTLP collector endpoint
  -otel.service <name>      OpenTelemetry service name (default: hydrograph)
  -debug                    Development logging
Flags override values from -config.
`

const initDBUsage = `init-db FLAGS:
  -db.path <file>  Application database path (default: hydrograph.db)
  -seed            Insert a demo user, collection, card and dashboard
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}
	cmd := args[0]
	cmdArgs := args[1:]
	switch cmd {
	case "serve":
		return cmdServe(cmdArgs)
	case "init-db":
		return cmdInitDB(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Print(serveUsage)
	case "init-db":
		fmt.Print(initDBUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type databaseFlag struct {
	m map[string]string
}

func (f *databaseFlag) String() string { return "" }

func (f *databaseFlag) Set(v string) error {
	parts := strings.SplitN(v, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid database %q", v)
	}
	name := strings.TrimSpace(parts[0])
	dsn := strings.TrimSpace(parts[1])
	if name == "" || dsn == "" {
		return fmt.Errorf("invalid database %q", v)
	}
	if f.m == nil {
		f.m = map[string]string{}
	}
	f.m[name] = dsn
	return nil
}

func cmdServe(args []string) error {
	configPath := ""
	debug := false

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer)) // silence automatic output
	fs.StringVar(&configPath, "config", configPath, "YAML configuration file")
	addr := fs.String("server.addr", "", "HTTP listen address")
	pretty := fs.Bool("server.pretty", false, "Pretty-print JSON responses")
	timeout := fs.Duration("server.timeout", 0, "Per-request timeout")
	apiKey := fs.String("server.api-key", "", "Require X-API-Key on every request")
	dbPath := fs.String("db.path", "", "Application database path")
	var databases databaseFlag
	fs.Var(&databases, "database", "Add a queryable database")
	redisAddr := fs.String("cache.redis-addr", "", "Redis address for query-result caching")
	cacheTTL := fs.Duration("cache.ttl", 0, "Query-result cache TTL")
	otelEndpoint := fs.String("otel.endpoint", "", "OTLP collector endpoint")
	otelService := fs.String("otel.service", "", "OpenTelemetry service name")
	fs.BoolVar(&debug, "debug", debug, "Development logging")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *pretty {
		cfg.Server.Pretty = true
	}
	if *timeout > 0 {
		cfg.Server.Timeout = config.Duration(*timeout)
	}
	if *apiKey != "" {
		cfg.Server.APIKey = *apiKey
	}
	if *dbPath != "" {
		cfg.DB.Path = *dbPath
	}
	for name, dsn := range databases.m {
		cfg.Databases[name] = dsn
	}
	if *redisAddr != "" {
		cfg.Cache.RedisAddr = *redisAddr
	}
	if *cacheTTL > 0 {
		cfg.Cache.TTL = config.Duration(*cacheTTL)
	}
	if *otelEndpoint != "" {
		cfg.Otel.Endpoint = *otelEndpoint
	}
	if *otelService != "" {
		cfg.Otel.Service = *otelService
	}

	return serve(cfg, debug)
}

func serve(cfg config.Config, debug bool) error {
	ctx := context.Background()

	log, err := logging.New(debug)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	eventbus.Use(eventbus.New())
	detachLog := logging.Attach(log)
	defer detachLog()

	if cfg.Otel.Endpoint != "" {
		shutdown, err := otel.Setup(cfg.Otel.Endpoint, cfg.Otel.Service)
		if err != nil {
			return fmt.Errorf("otel setup: %w", err)
		}
		defer func() { _ = shutdown(context.Background()) }()
	}

	db, err := store.Open(ctx, cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	detachRev := revision.Attach(db, log)
	defer detachRev()

	reg := hydrate.NewRegistry()
	db.RegisterHydration(reg)

	var cache query.Cache
	if cfg.Cache.RedisAddr != "" {
		rc := query.NewRedisCache(cfg.Cache.RedisAddr)
		defer func() { _ = rc.Close() }()
		cache = rc
	} else {
		cache = query.NewMemoryCache()
	}
	exec, err := query.NewExecutor(cfg.Databases, cache, cfg.Cache.TTL.Std())
	if err != nil {
		return fmt.Errorf("query executor: %w", err)
	}
	defer func() { _ = exec.Close() }()

	opts := []api.Option{api.WithTimeout(cfg.Server.Timeout.Std())}
	if cfg.Server.Pretty {
		opts = append(opts, api.WithPretty())
	}
	if cfg.Server.MaxBodyBytes > 0 {
		opts = append(opts, api.WithMaxBodyBytes(cfg.Server.MaxBodyBytes))
	}
	if cfg.Server.APIKey != "" {
		opts = append(opts, api.WithAPIKey(cfg.Server.APIKey))
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		opts = append(opts, api.WithCORS(cfg.Server.CORSOrigins...))
	}
	h := api.New(db, hydrate.New(reg), exec, opts...)

	log.Info("hydrograph API listening", zap.String("addr", cfg.Server.Addr))
	return http.ListenAndServe(cfg.Server.Addr, h)
}

func cmdInitDB(args []string) error {
	dbPath := "hydrograph.db"
	seed := false
	fs := flag.NewFlagSet("init-db", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&dbPath, "db.path", dbPath, "Application database path")
	fs.BoolVar(&seed, "seed", seed, "Insert demo data")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, initDBUsage)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := store.Open(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	if seed {
		if err := seedDemo(ctx, db); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	fmt.Printf("initialized %s\n", dbPath)
	return nil
}

func seedDemo(ctx context.Context, db *store.DB) error {
	user, err := db.CreateUser(ctx, store.UserParams{
		Email: "demo@example.com", FirstName: "Demo", LastName: "User",
	})
	if err != nil {
		return err
	}
	userID := user["id"].(int64)

	coll, err := db.CreateCollection(ctx, store.CollectionParams{
		Name: "First Collection", Color: "#509EE3", OwnerID: &userID,
	})
	if err != nil {
		return err
	}
	collID := coll["id"].(int64)

	card, err := db.CreateCard(ctx, store.CardParams{
		Name:         "Orders over time",
		Description:  "Daily order counts",
		Display:      "line",
		DatasetQuery: "SELECT date(created_at) AS day, count(*) AS orders FROM orders GROUP BY 1 ORDER BY 1",
		Database:     "main",
		CreatorID:    userID,
		CollectionID: &collID,
	})
	if err != nil {
		return err
	}

	dash, err := db.CreateDashboard(ctx, store.DashboardParams{
		Name: "Getting Started", Description: "Demo dashboard", CreatorID: userID,
	})
	if err != nil {
		return err
	}
	_, err = db.AddDashboardCard(ctx, dash["id"].(int64), store.DashboardCardParams{
		CardID: card["id"].(int64), Row: 0, Col: 0, SizeX: 8, SizeY: 6,
	})
	return err
}
