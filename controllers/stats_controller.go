package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"visitlog/config"
	"visitlog/models"
	"visitlog/utils"
)

// StatsController serves per-post visit statistics.
type StatsController struct {
	store *models.VisitStore
	cfg   config.AppConfig
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB, cfg config.AppConfig) *StatsController {
	return &StatsController{store: models.NewVisitStore(db), cfg: cfg}
}

// GetPostStats returns the aggregate counters for one post as seen by the
// requesting origin. With the redis cache enabled the response may lag the
// store by up to the configured TTL; it is off by default.
func (s *StatsController) GetPostStats(ctx *gin.Context) {
	postID := strings.TrimSpace(ctx.Param("postId"))
	if postID == "" {
		utils.Error(ctx, http.StatusBadRequest, 40003, "postId is required")
		return
	}

	ip := ctx.ClientIP()

	if s.cfg.CacheEnabled() {
		if b, ok := utils.CacheGetBytes(statsCacheKey(postID, ip)); ok {
			var cached models.VisitStats
			if err := json.Unmarshal(b, &cached); err == nil {
				utils.Success(ctx, &cached)
				return
			}
		}
	}

	stats, err := s.store.Stats(postID, ip)
	if err != nil {
		utils.Sugar.Errorw("stats aggregation failed", "postId", postID, "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50003, "internal server error")
		return
	}

	if s.cfg.CacheEnabled() {
		utils.CacheSetJSON(statsCacheKey(postID, ip), stats, s.cfg.StatsCacheTTL())
	}

	utils.Success(ctx, stats)
}

func statsCacheKey(postID, ip string) string {
	return "stats:" + postID + ":" + ip
}
