package model

import (
	"time"
)

// swagger:model User
type User struct {
	BaseModel
	Name     string `gorm:"size:100;unique;not null" json:"name"`
	Password string `gorm:"size:100;not null" json:"-"`
	XP       int    `gorm:"default:0" json:"xp"`    // 总经验值，只增不减
	Level    int    `gorm:"default:1" json:"level"` // 由XP推导：XP/step+1，不单独维护
	Streak   int    `gorm:"default:0" json:"streak"`
	// LastActiveAt 最近一次答题日期，连击判定按天比较；为空表示从未答题
	LastActiveAt *time.Time `json:"lastActiveAt"`
	LastSeen     time.Time  `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastSeen"`
	Avatar       string     `gorm:"size:255" json:"avatar"`
	Badges       []Badge    `gorm:"foreignKey:UserID" json:"badges"`
}

func (User) TableName() string {
	return "users"
}

// Badge 用户已获得的徽章，只会新增不会删除
type Badge struct {
	BaseModel
	UserID   uint      `gorm:"index:idx_user_badge,unique;type:bigint unsigned;not null" json:"-"`
	Name     BadgeName `gorm:"size:50;index:idx_user_badge,unique;not null" json:"name"`
	EarnedAt time.Time `gorm:"not null" json:"earnedAt"`
}

func (Badge) TableName() string {
	return "badges"
}

type BadgeName string

const (
	BadgeFastLearner     BadgeName = "Fast Learner"
	BadgeStreakMaster    BadgeName = "Streak Master"
	BadgeQuizChampion    BadgeName = "Quiz Champion"
	BadgeKnowledgeSeeker BadgeName = "Knowledge Seeker"
	BadgePerfectionist   BadgeName = "Perfectionist"
)

// HasBadge 判断用户是否已持有指定徽章
func (u *User) HasBadge(name BadgeName) bool {
	for _, b := range u.Badges {
		if b.Name == name {
			return true
		}
	}
	return false
}
