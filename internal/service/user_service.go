package service

import (
	"time"

	"go.uber.org/zap"

	"learnmate_backend/internal/model"
	"learnmate_backend/pkg/logger"
)

type UserService struct {
	Users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{Users: users}
}

// GetProfile 返回带徽章的用户资料
func (s *UserService) GetProfile(userID uint) (*model.User, error) {
	return s.Users.FindByID(userID)
}

// TouchLastSeen 记录用户活跃时间。只更新 LastSeen，连续学习天数
// 只在提交答案时推进。失败只记日志，不影响请求本身。
func (s *UserService) TouchLastSeen(userID uint) {
	user, err := s.Users.FindByID(userID)
	if err != nil {
		return
	}
	user.LastSeen = time.Now()
	if err := s.Users.Update(user); err != nil {
		logger.Log.Warn("更新用户活跃时间失败", zap.Uint("user_id", userID), zap.Error(err))
	}
}
