package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"ai-risk-eval/backend/internal/api"
	"ai-risk-eval/backend/internal/catalog"
	"ai-risk-eval/backend/internal/config"
	"ai-risk-eval/backend/internal/scoring"
	"ai-risk-eval/backend/internal/security"
	"ai-risk-eval/backend/internal/store"
)

func main() {
	configPath := flag.String("config", os.Getenv("RISK_EVAL_CONFIG"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	if err := cfg.Logging.Apply(); err != nil {
		logrus.Fatalf("configure logging: %v", err)
	}
	if cfg.Auth.Secret == config.DevSecret {
		logrus.Warn("using the development token secret; set RISK_EVAL_JWT_SECRET in production")
	}

	cat, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		logrus.Fatalf("load catalog: %v", err)
	}
	source := cfg.Catalog.Path
	if source == "" {
		source = catalog.DefaultSource
	}
	logrus.WithFields(logrus.Fields{
		"source":      source,
		"version":     cat.Version(),
		"fingerprint": cat.Fingerprint(),
		"rules":       len(cat.Rules()),
	}).Info("rule catalog loaded")

	engine, err := scoring.NewEngine(cat)
	if err != nil {
		logrus.Fatalf("create engine: %v", err)
	}

	if dir := filepath.Dir(cfg.Database.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logrus.Fatalf("create data directory: %v", err)
		}
	}
	db, err := store.Open(cfg.Database.Path, cfg.Database.Silent)
	if err != nil {
		logrus.Fatalf("open database: %v", err)
	}
	defer db.Close()

	tokens, err := security.NewTokenManager(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	if err != nil {
		logrus.Fatalf("create token manager: %v", err)
	}

	server, err := api.NewServer(api.Config{
		Engine:         engine,
		DB:             db,
		Tokens:         tokens,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
	})
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}

	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	logrus.Infof("starting ai-risk-eval backend on %s", cfg.Server.Addr)
	if err := router.Run(cfg.Server.Addr); err != nil {
		logrus.Fatalf("server exited: %v", err)
	}
}
