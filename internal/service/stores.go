package service

import (
	"learnmate_backend/internal/model"
)

// 核心引擎通过窄接口访问存储层，gorm 实现见 internal/repository，
// 测试使用内存实现。

type UserStore interface {
	Create(user *model.User) error
	FindByID(id uint) (*model.User, error)
	FindByName(name string) (*model.User, error)
	Update(user *model.User) error
	FindTopByXP(limit int) ([]model.User, error)
	// SubmitProgress 是存储层承诺的原子读-改-写原语：mutate 在同一临界区内
	// 拿到行锁下的用户和其全部答题记录（最新在前），返回需新增的徽章。
	SubmitProgress(userID uint, mutate func(user *model.User, attempts []model.QuizAttempt) ([]model.BadgeName, error)) (*model.User, error)
}

type AttemptStore interface {
	Create(attempt *model.QuizAttempt) error
	FindByUserID(userID uint) ([]model.QuizAttempt, error)
	FindRecentCompleted(userID uint, limit int) ([]model.QuizAttempt, error)
}

type ChatStore interface {
	Create(message *model.ChatMessage) error
	FindByUserID(userID uint) ([]model.ChatMessage, error)
	FindRecent(userID uint, limit int) ([]model.ChatMessage, error)
}
