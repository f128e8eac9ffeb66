// Package api exposes the arena engine over HTTP and websocket.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"signal-arena/internal/cache"
	"signal-arena/internal/clock"
	"signal-arena/internal/domain"
	"signal-arena/internal/engine"
	"signal-arena/internal/events"
	"signal-arena/internal/observability"
)

// Funder credits development balances.
type Funder interface {
	Fund(ctx context.Context, addr domain.Address, amount uint64) error
}

type Options struct {
	Engine      *engine.Engine
	Cache       cache.Store // defaults to an in-memory store; also holds request nonces
	CacheTTL    time.Duration
	Broadcaster *events.Broadcaster // nil disables /v1/events/ws
	Funder      Funder              // required when EnableAirdrop is set
	Clock       clock.Clock         // request timestamp checks; defaults to clock.System
	Logger      *zap.Logger

	Insecure        bool          // skip signature checks
	SignatureWindow time.Duration // defaults to DefaultSignatureWindow
	EnableAirdrop   bool
	Release         bool // gin release mode
}

// Handler serves every arena route.
type Handler struct {
	eng     *engine.Engine
	cache   cache.Store
	ttl     time.Duration
	bc      *events.Broadcaster
	funder  Funder
	logger  *zap.Logger
	auth    SignerAuth
	airdrop bool
}

func NewHandler(opts Options) *Handler {
	h := &Handler{
		eng:     opts.Engine,
		cache:   opts.Cache,
		ttl:     opts.CacheTTL,
		bc:      opts.Broadcaster,
		funder:  opts.Funder,
		logger:  opts.Logger,
		airdrop: opts.EnableAirdrop && opts.Funder != nil,
	}
	if h.cache == nil {
		h.cache = cache.NewMemoryStore()
	}
	h.auth = SignerAuth{
		Insecure: opts.Insecure,
		Window:   opts.SignatureWindow,
		Nonces:   h.cache,
		Clock:    opts.Clock,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

// NewRouter builds the gin engine with middleware and every route registered.
func NewRouter(opts Options) *gin.Engine {
	if opts.Release {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	h := NewHandler(opts)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestMetrics(h.logger))
	h.Register(r)
	return r
}

func (h *Handler) Register(r *gin.Engine) {
	r.GET("/healthz", h.health)
	r.GET("/readyz", h.ready)
	r.GET("/metrics", gin.WrapH(observability.Handler()))

	v1 := r.Group("/v1")
	v1.GET("/arena", h.getArena)
	v1.GET("/agents", h.listAgents)
	v1.GET("/agents/:address", h.getAgent)
	v1.GET("/agents/:address/predictions", h.listPredictions)
	v1.GET("/agents/:address/achievements", h.listAchievements)
	v1.GET("/leaderboard", h.leaderboard)
	v1.GET("/seasons", h.listSeasons)
	v1.GET("/seasons/:id", h.getSeason)
	v1.GET("/seasons/:id/standings", h.standings)
	v1.GET("/predictions/:address", h.getPrediction)
	v1.GET("/balances/:address", h.getBalance)
	if h.bc != nil {
		v1.GET("/events/ws", h.stream)
	}

	signed := v1.Group("", RequireSigner(h.auth))
	signed.POST("/arena/initialize", h.initialize)
	signed.POST("/agents", h.registerAgent)
	signed.POST("/agents/:address/achievements", h.awardAchievement)
	signed.POST("/seasons", h.createSeason)
	signed.POST("/seasons/:id/entries", h.enterSeason)
	signed.POST("/seasons/:id/predictions", h.submitPrediction)
	signed.POST("/seasons/:id/distribute", h.distribute)
	signed.POST("/predictions/:address/reveal", h.reveal)
	signed.POST("/predictions/:address/resolve", h.resolve)
	signed.POST("/treasury/withdraw", h.withdraw)

	if h.airdrop {
		v1.POST("/dev/airdrop", h.devAirdrop)
	}
}

func requestMetrics(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		status := c.Writer.Status()
		observability.RecordHTTPRequest(route, strconv.Itoa(status), elapsed)
		if logger != nil {
			logger.Debug("http request",
				zap.String("method", c.Request.Method),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("elapsed", elapsed),
			)
		}
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ready(c *gin.Context) {
	if _, err := h.eng.Arena(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "arena_unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Cache keys for read models invalidated by writes.
const leaderboardKey = "arena:leaderboard"

func standingsKey(seasonID uint64) string {
	return "arena:standings:" + strconv.FormatUint(seasonID, 10)
}

// InvalidateSeason drops cached read models touched by a season change.
func InvalidateSeason(ctx context.Context, s cache.Store, seasonID uint64) {
	cache.Invalidate(ctx, s, standingsKey(seasonID), leaderboardKey)
}

func pathAddress(c *gin.Context, name string) (domain.Address, bool) {
	a, err := domain.ParseAddress(c.Param(name))
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid "+name, map[string]any{"error": "invalid_address"})
		return domain.Address{}, false
	}
	return a, true
}

func pathSeasonID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid season id", nil)
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return false
	}
	return true
}
