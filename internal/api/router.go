// Package api exposes settlement reports and the fulfillment ledger over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rewired-gh/auctionledger/internal/ledger"
	"github.com/rewired-gh/auctionledger/internal/logger"
	"github.com/rewired-gh/auctionledger/internal/metrics"
	"github.com/rewired-gh/auctionledger/internal/models"
	"github.com/rewired-gh/auctionledger/internal/reconcile"
)

// Reports is the read side the handlers need. *reconcile.Service satisfies it.
type Reports interface {
	Settle(ctx context.Context, w models.Window, byAmount bool) (models.Settlement, error)
	Statement(ctx context.Context, w models.Window, participantID string) (models.Statement, error)
	Participants(ctx context.Context, w models.Window) ([]string, error)
	Hours(ctx context.Context, w *models.Window) (reconcile.HoursReport, error)
	VIP(ctx context.Context) ([]models.VipStanding, error)
	Dates(ctx context.Context) ([]time.Time, error)
	LastLoad() (time.Time, error)
}

// RouterDeps bundles every dependency needed to build the router.
type RouterDeps struct {
	Reports Reports
	Ledger  *ledger.Ledger
	Mode    string
}

// SetupRouter creates the gin engine with all routes.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Mode != "" {
		gin.SetMode(deps.Mode)
	}

	r := gin.New()
	r.Use(gin.LoggerWithWriter(logger.Writer(), "/health", "/metrics"))
	r.Use(gin.Recovery())
	r.Use(metricsMiddleware())

	h := &handler{reports: deps.Reports, ledger: deps.Ledger}

	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	{
		api.GET("/dates", h.dates)
		api.GET("/settlements", h.settlement)
		api.GET("/participants", h.participants)
		api.GET("/statements/:participant", h.statement)
		api.GET("/hours", h.hours)
		api.GET("/vip", h.vip)

		l := api.Group("/ledger")
		{
			l.POST("/toggle", h.toggle)
			l.GET("/remaining", h.remaining)
			l.DELETE("/windows/:window", h.resetWindow)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", "route not found")
	})
	return r
}
