package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"visitlog/config"
	"visitlog/models"
	"visitlog/utils"
)

// VisitController handles visit ingestion: header fallback resolution,
// validation, dedup, and the single insert.
type VisitController struct {
	store *models.VisitStore
	cfg   config.AppConfig
}

// NewVisitController creates a new VisitController instance.
func NewVisitController(db *gorm.DB, cfg config.AppConfig) *VisitController {
	return &VisitController{store: models.NewVisitStore(db), cfg: cfg}
}

// Track accepts one visit event. A fresh insert answers 201; a repeat from
// the same origin within the dedup window answers 204 without inserting.
// Either way the request performs at most one insert.
func (vc *VisitController) Track(ctx *gin.Context) {
	var raw map[string]any
	if err := ctx.ShouldBindJSON(&raw); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			utils.Error(ctx, http.StatusRequestEntityTooLarge, 41301, "request body too large")
			return
		}
		utils.Error(ctx, http.StatusBadRequest, 40002, "invalid JSON body")
		return
	}
	if raw == nil {
		raw = map[string]any{}
	}

	// Resolve header fallbacks here so the validator stays transport-free.
	if s, ok := raw["referrer"].(string); !ok || s == "" {
		if ref := ctx.GetHeader("Referer"); ref != "" {
			raw["referrer"] = ref
		}
	}
	if s, ok := raw["userAgent"].(string); !ok || s == "" {
		if ua := ctx.Request.UserAgent(); ua != "" {
			raw["userAgent"] = ua
		}
	}

	in, errs, ok := utils.ValidateVisit(raw)
	if !ok {
		utils.ValidationFailed(ctx, errs)
		return
	}

	// Origin address comes from the trusted proxy chain, never the payload.
	ip := ctx.ClientIP()

	suppressed, err := vc.store.ExistsRecent(in.PostID, ip, vc.cfg.DedupWindow())
	if err != nil {
		utils.Sugar.Errorw("dedup check failed", "postId", in.PostID, "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50001, "internal server error")
		return
	}
	if suppressed {
		utils.Sugar.Debugw("visit suppressed by dedup window", "postId", in.PostID, "ip", ip)
		ctx.Status(http.StatusNoContent)
		return
	}

	v, err := vc.store.Insert(in, ip)
	if err != nil {
		utils.Sugar.Errorw("visit insert failed", "postId", in.PostID, "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50002, "internal server error")
		return
	}

	utils.Created(ctx, gin.H{"id": v.ID})
}
