package database

import (
	"log"
	"time"

	"learnmate_backend/internal/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedDemoData 写入演示账号与排行榜数据，由启动参数或测试夹具显式触发，
// 不在数据库初始化时自动执行。重复调用不会产生重复数据。
func SeedDemoData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("demo"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now()
	demoUsers := []struct {
		name   string
		xp     int
		streak int
		badges []model.BadgeName
	}{
		{"demo", 1250, 7, []model.BadgeName{model.BadgeFastLearner, model.BadgeStreakMaster}},
		{"alex", 2100, 12, []model.BadgeName{model.BadgeFastLearner, model.BadgeStreakMaster, model.BadgeQuizChampion}},
		{"sarah", 1850, 5, []model.BadgeName{model.BadgeFastLearner, model.BadgeKnowledgeSeeker}},
		{"mike", 1450, 3, []model.BadgeName{model.BadgeFastLearner}},
		{"emma", 980, 8, []model.BadgeName{model.BadgeStreakMaster}},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, d := range demoUsers {
			lastActive := now
			user := &model.User{
				Name:         d.name,
				Password:     string(hashed),
				XP:           d.xp,
				Level:        d.xp/100 + 1,
				Streak:       d.streak,
				LastActiveAt: &lastActive,
				LastSeen:     now,
			}
			if err := tx.Create(user).Error; err != nil {
				return err
			}
			for _, name := range d.badges {
				badge := &model.Badge{UserID: user.ID, Name: name, EarnedAt: now}
				if err := tx.Create(badge).Error; err != nil {
					return err
				}
			}
		}
		log.Printf("Seeded %d demo users", len(demoUsers))
		return nil
	})
}
