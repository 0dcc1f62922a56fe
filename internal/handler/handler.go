package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/maxviazov/afl-stats-service/internal/config"
	"github.com/maxviazov/afl-stats-service/internal/service"
	"github.com/rs/zerolog"
)

// APIV1Prefix is the base path of the versioned API.
const APIV1Prefix = "/api/v1"

// Deps are the collaborators behind the public routes.
type Deps struct {
	Store     Pinger
	OverUnder service.OverUnderService
	// Metrics serves /metrics when set.
	Metrics   http.Handler
	Info      Info
}

// NewEngine builds a gin engine with the middleware stack every route shares.
func NewEngine(cfg config.HTTPConfig, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(
		RequestID(),
		AccessLog(logger),
		Recovery(logger),
		CORS(cfg.AllowOrigins),
		RequestTimeout(time.Duration(cfg.RequestTimeout)*time.Second),
	)
	if cfg.Pprof {
		pprof.Register(r)
	}
	return r
}

// Register mounts all public routes on the given engine.
// The search endpoint is served both at the root and under the versioned prefix.
func Register(r *gin.Engine, d Deps) {
	h := NewHealthHandler(d.Store)

	// Health probes
	r.GET("/live", h.Liveness)
	r.GET("/ready", h.Readiness)

	RegisterDocs(r, d.Info)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	search := NewSearchHandler(d.OverUnder)
	search.Register(r)

	api := r.Group(APIV1Prefix)
	{
		health := api.Group("/health")
		{
			health.GET("/live", h.Liveness)
			health.GET("/ready", h.Readiness)
		}
		search.Register(api)
	}
}
