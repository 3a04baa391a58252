package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"learnmate_backend/internal/config"
	"learnmate_backend/internal/util"
)

func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

type UserActivityTracker interface {
	TouchLastSeen(userID uint)
}

// ActivityMiddleware 记录已认证用户的最近活跃时间。
// 只写 LastSeen，连续学习天数由答题结算推进，浏览不算。
func ActivityMiddleware(tracker UserActivityTracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		if claims != nil {
			// 异步更新，不阻塞主流程
			go tracker.TouchLastSeen(claims.UserID)
		}
		c.Next()
	}
}
