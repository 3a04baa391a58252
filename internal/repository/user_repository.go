package repository

import (
	"errors"
	"time"

	"learnmate_backend/internal/model"
	"learnmate_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.Preload("Badges").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByName(name string) (*model.User, error) {
	var user model.User
	err := r.DB.Preload("Badges").Where("name = ?", name).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Update(user *model.User) error {
	return r.DB.Omit(clause.Associations).Save(user).Error
}

func (r *UserRepository) FindTopByXP(limit int) ([]model.User, error) {
	var users []model.User
	err := r.DB.Preload("Badges").Order("xp DESC").Limit(limit).Find(&users).Error
	return users, err
}

// SubmitProgress 对单个用户执行原子的读-改-写：行锁内读取用户与其全部答题
// 记录，调用 mutate 修改 XP/等级/连击并返回新获得的徽章，最后一并落库。
// 任一步失败则整个事务回滚，不会留下部分更新。
func (r *UserRepository) SubmitProgress(
	userID uint,
	mutate func(user *model.User, attempts []model.QuizAttempt) ([]model.BadgeName, error),
) (*model.User, error) {
	var snapshot *model.User

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var user model.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Badges").
			First(&user, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrUserNotFound
		}
		if err != nil {
			return err
		}

		var attempts []model.QuizAttempt
		if err := tx.Where("user_id = ?", userID).
			Order("created_at DESC").
			Find(&attempts).Error; err != nil {
			return err
		}

		newBadges, err := mutate(&user, attempts)
		if err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Save(&user).Error; err != nil {
			return err
		}

		now := time.Now()
		for _, name := range newBadges {
			badge := model.Badge{UserID: user.ID, Name: name, EarnedAt: now}
			if err := tx.Create(&badge).Error; err != nil {
				return err
			}
			user.Badges = append(user.Badges, badge)
		}

		snapshot = &user
		return nil
	})

	if err != nil {
		return nil, err
	}
	return snapshot, nil
}
