package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"leasingedge-engine/internal/availability"
	"leasingedge-engine/internal/config"
	"leasingedge-engine/internal/events"
	"leasingedge-engine/internal/httpapi"
	"leasingedge-engine/internal/llm"
	"leasingedge-engine/internal/logging"
	"leasingedge-engine/internal/narrative"
	"leasingedge-engine/internal/refdata"
	"leasingedge-engine/internal/report"
	"leasingedge-engine/internal/scheduler"
	"leasingedge-engine/internal/secrets"
	"leasingedge-engine/internal/store"
)

func main() {
	reportID := flag.String("report", "", "generate the report for this prospect id, print it and exit")
	bedsFlag := flag.String("beds", "", "comma separated bedroom counts (0-4) overriding the prospect's preferences")
	flag.Parse()

	// Engine data dir: LEASINGEDGE_DATA_DIR, else the working directory.
	dataDir := os.Getenv("LEASINGEDGE_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		fatal(slog.Default(), "data dir", err)
	}
	config.LoadEnv(dataDir)

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		fatal(slog.Default(), "config bootstrap failed", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		cfg, err := config.Load(userCfgPath)
		if err != nil {
			return cfg, err
		}
		if cfg.App.DataDir == "" {
			cfg.App.DataDir = dataDir
		}
		return cfg, nil
	}
	cfg, err := loadCfg()
	if err != nil {
		fatal(slog.Default(), "config load failed", err, "path", userCfgPath)
	}
	if err := config.Validate(cfg); err != nil {
		fatal(slog.Default(), "config invalid", err, "path", userCfgPath)
	}
	cfgVal.Store(cfg)

	log := logging.New(logging.Options{Level: cfg.Log.Level, Color: cfg.Log.Color})
	slog.SetDefault(log)

	lock, err := store.LockDataDir(dataDir)
	if err != nil {
		fatal(log, "data dir lock", err, "dir", dataDir)
	}
	defer func() { _ = lock.Unlock() }()

	var audit *store.DB
	if cfg.Audit.Enabled {
		audit, err = store.Open(filepath.Join(dataDir, "leasingedge.db"))
		if err != nil {
			fatal(log, "audit store", err)
		}
		defer audit.Close()
	}

	client, err := newClient(cfg)
	if err != nil {
		fatal(log, "llm client", err)
	}
	prompts, err := narrative.LoadPrompts(cfg.ResolvePath(cfg.Prompts.Path))
	if err != nil {
		fatal(log, "prompts", err)
	}
	gen, err := narrative.New(client, prompts, logging.Component(log, "narrative"))
	if err != nil {
		fatal(log, "narrative", err)
	}

	// The as-of date is pinned per load so one report never straddles midnight.
	cache := refdata.NewCache(func(ctx context.Context) (*refdata.Tables, error) {
		cur := cfgVal.Load().(config.Config)
		asOf, err := cur.AsOf(time.Now)
		if err != nil {
			return nil, err
		}
		return refdata.Load(ctx, refdata.PathsFromConfig(cur), asOf, cur.Window.Days)
	})

	hub := events.NewHub()
	sessions := report.NewSessions(32)
	svc := &report.Service{
		Tables:    cache.Get,
		Narrative: gen,
		Policy:    malformedPolicy(cfg),
		Sessions:  sessions,
		Log:       logging.Component(log, "report"),
		Progress: func(reqID string, p events.Progress) {
			hub.Emit(reqID, events.TypeReportProgress, p)
		},
	}
	// PUT /config changes the layout policy for the next report.
	svc.PolicyFunc = func() availability.MalformedPolicy {
		return malformedPolicy(cfgVal.Load().(config.Config))
	}
	if audit != nil {
		svc.Audit = func(ctx context.Context, rec store.SummaryInsert) (string, error) {
			return store.InsertSummary(ctx, audit.Pool, rec)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *reportID != "" {
		beds, err := parseBedsFlag(*bedsFlag)
		if err != nil {
			fatal(log, "beds", err)
		}
		rep, err := svc.Generate(ctx, report.Request{ProspectID: *reportID, Beds: beds})
		if err != nil {
			fatal(log, "report failed", err, "prospect", *reportID)
		}
		printReport(os.Stdout, rep)
		return
	}

	if audit != nil && cfg.Audit.RetentionDays > 0 {
		retention := time.Duration(cfg.Audit.RetentionDays) * 24 * time.Hour
		go scheduler.Every(ctx, logging.Component(log, "scheduler"), 6*time.Hour, "audit-cleanup", func(ctx context.Context) error {
			n, err := store.CleanupOldSummaries(ctx, audit.Pool, retention)
			if err != nil {
				return err
			}
			if n > 0 {
				log.Info("audit cleanup", "deleted", n)
			}
			return nil
		})
	}

	deps := httpapi.Deps{
		Hub:         hub,
		CfgVal:      &cfgVal,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
		Cache:       cache,
		Reports:     svc,
		Sessions:    sessions,
		Log:         logging.Component(log, "http"),
	}
	if audit != nil {
		deps.AuditDB = audit.Pool
	}
	mux := httpapi.NewMux(deps)

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		fatal(log, "listen", err, "addr", addr)
	}
	srv := &http.Server{
		Handler:           httpapi.Handler(mux, deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	token := os.Getenv("LEASINGEDGE_SHUTDOWN_TOKEN")
	if token == "" {
		if token, err = randomToken(16); err != nil {
			fatal(log, "shutdown token", err)
		}
		fmt.Fprintf(os.Stdout, "SHUTDOWN_TOKEN=%s\n", token)
	}
	mux.HandleFunc("/shutdown", shutdownHandler(&token, srv))

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	// Warm the cache so the first report does not pay for the CSV load.
	go func() {
		if _, err := cache.Get(ctx); err != nil {
			log.Warn("reference data not loaded", "err", err)
		}
	}()

	log.Info("engine listening", "addr", "http://"+addr, "config", userCfgPath, "llm", client.Name())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal(log, "serve", err)
	}
}

func newClient(cfg config.Config) (llm.Client, error) {
	opts := llm.Options{
		Provider:   cfg.LLM.Provider,
		Model:      cfg.LLM.Model,
		Endpoint:   cfg.LLM.Endpoint,
		APIVersion: cfg.LLM.APIVersion,
		Deployment: cfg.LLM.Deployment,
		Timeout:    time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	}
	if cfg.LLM.Provider != config.ProviderStub {
		key, err := secrets.GetLLMAPIKey(cfg.LLM.KeyringAccount)
		if err != nil {
			return nil, err
		}
		opts.APIKey = key
	}
	c, err := llm.New(opts)
	if err != nil {
		return nil, err
	}
	return llm.NewLimited(c, cfg.LLM.RequestsPerMinute), nil
}

func malformedPolicy(cfg config.Config) availability.MalformedPolicy {
	if cfg.Availability.MalformedLayout == config.MalformedFail {
		return availability.FailMalformed
	}
	return availability.DropMalformed
}

func fatal(log *slog.Logger, msg string, err error, args ...any) {
	log.Error(msg, append([]any{"err", err}, args...)...)
	os.Exit(1)
}
