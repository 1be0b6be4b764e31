package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attendboard/internal/auth"
	"attendboard/internal/httpmiddleware"
)

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

// RouterOptions configures the middleware stack.
type RouterOptions struct {
	AllowOrigins    []string
	RateLimitPerMin int
	Redis           HealthChecker // nil when the queue runs in memory
}

// Router builds the gin engine with every route registered.
func (h *Handler) Router(opts RouterOptions) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestID())
	r.Use(httpmiddleware.Logger(h.logger, "/healthz", "/metrics"))
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Disposition", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(opts.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = opts.AllowOrigins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(opts.RateLimitPerMin, opts.RateLimitPerMin).Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.healthz(opts.Redis))

	api := r.Group("/api")
	api.POST("/sessions", h.CreateSession)

	authed := api.Group("", auth.SessionAuth(h.opts.SigningKey, h.opts.Issuer, h.sessions))
	authed.GET("/session", h.GetSession)
	authed.PUT("/session/role", h.SetRole)

	dashboard := authed.Group("", auth.RequireView(auth.ViewDashboard))
	dashboard.GET("/dashboard", h.Dashboard)
	dashboard.GET("/reports/monthly", h.MonthlyTrend)

	events := authed.Group("", auth.RequireView(auth.ViewEvents))
	events.GET("/events", h.ListEvents)
	events.POST("/events", h.CreateEvent)
	events.PUT("/events/:id", h.UpdateEvent)
	events.GET("/calendar.ics", h.Calendar)

	classes := authed.Group("/weekly-classes", auth.RequireView(auth.ViewWeeklyClass))
	classes.GET("", h.ListWeeklyClasses)
	classes.POST("", h.CreateWeeklyClass)
	classes.PUT("/:id", h.UpdateWeeklyClass)

	fill := authed.Group("/attendance", auth.RequireView(auth.ViewFillAttendance))
	fill.GET("/occurrences", h.ListAttendableOccurrences)
	fill.GET("/workflow", h.GetWorkflow)
	fill.POST("/workflow/select", h.SelectOccurrence)
	fill.POST("/workflow/back", h.BackToList)
	fill.POST("/workflow/mark-all-present", h.MarkAllPresent)
	fill.PUT("/workflow/rows/:participantId/presence", h.SetPresence)
	fill.PUT("/workflow/rows/:participantId/status", h.SetStatus)
	fill.PUT("/workflow/rows/:participantId/check-in", h.SetCheckInTime)
	fill.POST("/workflow/save", h.SaveAttendance)

	absences := authed.Group("/reports", auth.RequireView(auth.ViewAbsences))
	absences.GET("/occurrences", h.OccurrenceSummaries)
	absences.GET("/occurrences/:id", h.OccurrenceDetail)
	absences.GET("/occurrences/:id/export.csv", h.ExportCSV)
	absences.GET("/occurrences/:id/export.xlsx", h.ExportXLSX)
	absences.GET("/individuals", h.IndividualReport)

	return r
}

func (h *Handler) healthz(redis HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redis == nil {
			h.Healthz(c)
			return
		}
		healthy := redis.Healthy(c.Request.Context())
		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "sessions": h.sessions.Len(), "redis": healthy})
	}
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
