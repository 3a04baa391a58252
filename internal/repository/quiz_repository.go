package repository

import (
	"learnmate_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) Create(attempt *model.QuizAttempt) error {
	return r.DB.Create(attempt).Error
}

// FindByUserID 返回用户全部答题记录，最新的在前
func (r *QuizRepository) FindByUserID(userID uint) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&attempts).Error
	return attempts, err
}

// FindRecentCompleted 返回用户最近 limit 条已作答的记录，用于近期正确率计算
func (r *QuizRepository) FindRecentCompleted(userID uint, limit int) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.Where("user_id = ? AND is_correct IS NOT NULL", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}
