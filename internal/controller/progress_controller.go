package controller

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"learnmate_backend/internal/service"
	"learnmate_backend/internal/util"
)

const defaultLeaderboardSize = 10

type ProgressController struct {
	StatsService        *service.StatsService
	GamificationService *service.GamificationService
}

func NewProgressController(statsService *service.StatsService, gamificationService *service.GamificationService) *ProgressController {
	return &ProgressController{
		StatsService:        statsService,
		GamificationService: gamificationService,
	}
}

// Stats godoc
// @Summary 学习进度统计
// @Description 返回总体正确率、近7日经验与正确率曲线、主题经验分布
// @Tags 进度
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.ProgressStats} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/progress/stats [get]
func (c *ProgressController) Stats(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	stats, err := c.StatsService.GetProgressStats(claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, stats)
}

// Leaderboard godoc
// @Summary 经验排行榜
// @Description 按总经验降序返回前N名用户，默认10名
// @Tags 进度
// @Produce  json
// @Param   limit query int false "返回人数，1-100"
// @Success 200 {object} util.Response{data=[]service.LeaderboardEntry} "成功"
// @Router /api/leaderboard [get]
func (c *ProgressController) Leaderboard(ctx *gin.Context) {
	limit := defaultLeaderboardSize
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			util.BadRequest(ctx, "limit 必须是 1-100 之间的整数")
			return
		}
		limit = n
	}

	entries, err := c.GamificationService.GetLeaderboard(limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, entries)
}
