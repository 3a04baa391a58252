package controller

import (
	"errors"

	"github.com/gin-gonic/gin"

	"learnmate_backend/internal/service"
	"learnmate_backend/internal/util"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// Generate godoc
// @Summary 生成测验题目
// @Description 根据主题生成一道选择题，难度由近期正确率自动调整
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.GenerateQuizRequest true "主题与期望难度"
// @Success 200 {object} util.Response{data=service.GeneratedQuizView} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/quiz/generate [post]
func (c *QuizController) Generate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.GenerateQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.QuizService.Generate(ctx.Request.Context(), claims.UserID, req)
	if err != nil {
		if errors.Is(err, util.ErrInvalidInput) {
			util.BadRequest(ctx, "主题或难度不合法")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, quiz)
}

// Submit godoc
// @Summary 提交测验答案
// @Description 判定答案并结算经验、等级、连续天数和徽章
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.SubmitQuizRequest true "题目与用户答案"
// @Success 200 {object} util.Response{data=service.QuizSubmission} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/quiz/submit [post]
func (c *QuizController) Submit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SubmitQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.QuizService.Submit(ctx.Request.Context(), claims.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidInput):
			util.BadRequest(ctx, "提交内容不合法")
		case errors.Is(err, util.ErrUserNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}

// History godoc
// @Summary 答题历史
// @Description 返回当前用户全部答题记录，最新在前
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.QuizAttempt} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/quiz/history [get]
func (c *QuizController) History(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	attempts, err := c.QuizService.History(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, attempts)
}
