package controller

import (
	"errors"

	"github.com/gin-gonic/gin"

	"learnmate_backend/internal/service"
	"learnmate_backend/internal/util"
)

type UserController struct {
	StorageService *service.StorageService
}

func NewUserController(storageService *service.StorageService) *UserController {
	return &UserController{StorageService: storageService}
}

// UploadAvatar godoc
// @Summary 上传头像
// @Description 上传头像图片（jpg/png/webp，最大2MB），返回新的头像地址
// @Tags 用户
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   avatar formData file true "头像文件"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 400 {object} util.Response "文件类型或大小不合法"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/users/avatar [post]
func (c *UserController) UploadAvatar(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	fileHeader, err := ctx.FormFile("avatar")
	if err != nil {
		util.BadRequest(ctx, "缺少 avatar 文件")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	url, err := c.StorageService.UploadAvatar(ctx.Request.Context(), claims.UserID, fileHeader.Filename, file, fileHeader.Size)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidInput):
			util.BadRequest(ctx, "仅支持 jpg/png/webp 且不超过 2MB")
		case errors.Is(err, util.ErrUserNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{"avatar": url})
}
