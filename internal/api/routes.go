package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"ai-risk-eval/backend/internal/scoring"
	"ai-risk-eval/backend/internal/security"
	"ai-risk-eval/backend/internal/store"
)

// Config defines server dependencies.
type Config struct {
	Engine         *scoring.Engine
	DB             *store.Database
	Tokens         *security.TokenManager
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	// Now overrides the clock used for report timestamps.
	Now func() time.Time
}

// Server wires HTTP handlers with persistence and scoring.
type Server struct {
	engine         *scoring.Engine
	db             *store.Database
	tokens         *security.TokenManager
	allowedOrigins []string
	limiter        *RateLimiter
	notifier       *ReportNotifier
	now            func() time.Time
}

// NewServer constructs the API server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Engine == nil {
		return nil, errors.New("engine required")
	}
	if cfg.DB == nil {
		return nil, errors.New("database required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("token manager required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Server{
		engine:         cfg.Engine,
		db:             cfg.DB,
		tokens:         cfg.Tokens,
		allowedOrigins: cfg.AllowedOrigins,
		limiter:        NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		notifier:       NewReportNotifier(),
		now:            now,
	}, nil
}

// Notifier exposes the websocket broadcaster.
func (s *Server) Notifier() *ReportNotifier {
	return s.notifier
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	limited := s.limiter.Middleware()

	api := r.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)
		api.GET("/catalog", s.handleCatalog)
		api.POST("/register", limited, s.handleRegister)
		api.POST("/login", limited, s.handleLogin)
		api.POST("/check", limited, s.optionalUser(), s.handleCheck)
		api.GET("/reports", s.requireUser(), s.handleListReports)
		api.GET("/reports/stream", s.handleReportStream)
		api.GET("/reports/:id", s.requireUser(), s.handleGetReport)
		api.GET("/download/:id", s.handleDownload)
	}

	return r, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "connected"})
}

func (s *Server) handleCatalog(c *gin.Context) {
	cat := s.engine.Catalog()
	c.JSON(http.StatusOK, CatalogResponse{
		Name:        cat.Name(),
		Version:     cat.Version(),
		Fingerprint: cat.Fingerprint(),
		Policy:      cat.Policy(),
		Rules:       cat.Counts(),
	})
}

func renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}
