package model

import (
	"encoding/json"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid 校验难度枚举
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// QuizAttempt 一次答题记录。创建后除作答字段外不可变更
// swagger:model QuizAttempt
type QuizAttempt struct {
	UUIDBase
	UserID        uint            `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	Topic         string          `gorm:"size:100;not null" json:"topic"`
	Difficulty    Difficulty      `gorm:"type:enum('easy','medium','hard');not null" json:"difficulty"`
	Question      string          `gorm:"type:text;not null" json:"question"`
	Options       json.RawMessage `gorm:"type:json" json:"options"` // JSON array of strings
	CorrectAnswer string          `gorm:"type:text;not null" json:"correctAnswer"`
	UserAnswer    *string         `gorm:"type:text" json:"userAnswer"` // 为空表示跳过未作答
	IsCorrect     *bool           `json:"isCorrect"`                   // 提交前为空
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// Completed 是否已作答（IsCorrect 已判定）
func (q *QuizAttempt) Completed() bool {
	return q.IsCorrect != nil
}

// SetOptions 序列化选项列表
func (q *QuizAttempt) SetOptions(options []string) error {
	data, err := json.Marshal(options)
	if err != nil {
		return err
	}
	q.Options = data
	return nil
}

// GetOptions 反序列化选项列表
func (q *QuizAttempt) GetOptions() []string {
	var options []string
	if len(q.Options) > 0 {
		json.Unmarshal(q.Options, &options)
	}
	return options
}
