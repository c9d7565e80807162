package bootstrap

import (
	"database/sql"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	httpapi "github.com/pap-cedram/pap-backend/internal/api/http"
	"github.com/pap-cedram/pap-backend/internal/api/http/middleware"
	cataloghttp "github.com/pap-cedram/pap-backend/internal/catalog/http"
	"github.com/pap-cedram/pap-backend/internal/catalog/service"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	CORSOrigins []string
	RateRPS     float64
	RateBurst   int
	Logger      *zap.Logger
	DB          *sql.DB
	Redis       *redis.Client
	Catalog     *service.CatalogService
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(dep.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     dep.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", middleware.HeaderRequestID},
		ExposeHeaders:    []string{middleware.HeaderRequestID},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")

	limiter := middleware.NewRateLimiter(dep.RateRPS, dep.RateBurst)
	cataloghttp.New(dep.Catalog).Register(api, limiter.Middleware())

	return r
}
