package controller

import (
	"errors"

	"github.com/gin-gonic/gin"

	"learnmate_backend/internal/service"
	"learnmate_backend/internal/util"
)

type ChatController struct {
	ChatService *service.ChatService
}

func NewChatController(chatService *service.ChatService) *ChatController {
	return &ChatController{ChatService: chatService}
}

// SendRequest 发送消息请求体
type SendRequest struct {
	Content string `json:"content" binding:"required"`
}

// Send godoc
// @Summary 向AI导师提问
// @Description 保存用户消息并返回AI导师的回复
// @Tags 聊天
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body SendRequest true "消息内容"
// @Success 200 {object} util.Response{data=service.ChatExchange} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/chat/send [post]
func (c *ChatController) Send(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SendRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	exchange, err := c.ChatService.Send(ctx.Request.Context(), claims.UserID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidInput):
			util.BadRequest(ctx, "消息内容不能为空")
		case errors.Is(err, util.ErrUserNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, exchange)
}

// Messages godoc
// @Summary 聊天记录
// @Description 返回当前用户的全部聊天记录，按时间正序
// @Tags 聊天
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.ChatMessage} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/chat/messages [get]
func (c *ChatController) Messages(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	messages, err := c.ChatService.History(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, messages)
}
