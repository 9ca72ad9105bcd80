package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docsearch-backend/internal/documents"
	"docsearch-backend/internal/services/health"
	"docsearch-backend/internal/shared/config"
	"docsearch-backend/internal/shared/metrics"
	"docsearch-backend/internal/shared/server/middleware"
	"docsearch-backend/internal/shared/server/respond"
)

const uploadRateGroup = "UPLOAD"

// RouterDeps holds handler dependencies for the router.
type RouterDeps struct {
	Config          config.Config
	DocumentHandler *documents.Handler
	Health          *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = multipartMemory(deps.Config.MaxUploadBytes)

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.OK(c, gin.H{"ok": true})
			return
		}
		st := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !st.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, st)
	})

	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api, uploadLimiter(deps.Config))
	}
	return r
}

func uploadLimiter(cfg config.Config) gin.HandlerFunc {
	return middleware.RateLimit(middleware.RateLimitConfig{
		DefaultGroup: uploadRateGroup,
		Rules: map[string]middleware.RateLimitRule{
			uploadRateGroup: {Rate: cfg.UploadRateLimitRPS, Burst: cfg.UploadRateLimitBurst},
		},
	})
}

// multipartMemory keeps uploads up to the configured limit in memory.
func multipartMemory(maxUpload int64) int64 {
	const floor = 8 << 20
	if maxUpload > floor {
		return maxUpload
	}
	return floor
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
