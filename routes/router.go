package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"visitlog/config"
	"visitlog/controllers"
	"visitlog/middleware"
	"visitlog/models"
	"visitlog/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())

	// Access log goes to its own rolling file; recovery keeps a panicking
	// request from taking the process down.
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", middleware.APIKeyHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	store := models.NewVisitStore(db)

	r.GET("/", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"service": "visitlog"})
	})

	r.GET("/health", func(ctx *gin.Context) {
		n, err := store.CountAll()
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50004, "internal server error")
			return
		}
		utils.Success(ctx, gin.H{"status": "ok", "visits": n})
	})

	visitController := controllers.NewVisitController(db, cfg)
	statsController := controllers.NewStatsController(db, cfg)

	api := r.Group("/api/v1")
	api.POST("/visits",
		middleware.APIKeyRequired(cfg.APIKey),
		middleware.BodyLimit(cfg.BodyLimitBytes),
		visitController.Track,
	)
	api.GET("/stats/:postId", statsController.GetPostStats)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
