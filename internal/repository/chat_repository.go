package repository

import (
	"learnmate_backend/internal/model"

	"gorm.io/gorm"
)

type ChatRepository struct {
	DB *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{DB: db}
}

func (r *ChatRepository) Create(message *model.ChatMessage) error {
	return r.DB.Create(message).Error
}

// FindByUserID 按时间正序返回用户全部对话记录
func (r *ChatRepository) FindByUserID(userID uint) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := r.DB.Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

// FindRecent 返回最近 limit 条消息（时间正序），作为助教的上下文窗口
func (r *ChatRepository) FindRecent(userID uint, limit int) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := r.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// 反转为时间正序
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
