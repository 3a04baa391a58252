package service

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"learnmate_backend/internal/config"
	"learnmate_backend/internal/model"
	"learnmate_backend/internal/util"
)

type AuthService struct {
	Users UserStore
	Cfg   *config.Config
}

func NewAuthService(users UserStore, cfg *config.Config) *AuthService {
	return &AuthService{Users: users, Cfg: cfg}
}

type Credentials struct {
	Name     string `json:"name" binding:"required,min=2,max=32"`
	Password string `json:"password" binding:"required,min=4,max=64"`
}

type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Register 创建新用户，用户名重复返回 ErrNameRegistered。
// 新用户从零经验、一级、无连续天数开始。
func (s *AuthService) Register(req Credentials) (*AuthResult, error) {
	if _, err := s.Users.FindByName(req.Name); err == nil {
		return nil, util.ErrNameRegistered
	} else if !errors.Is(err, util.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:     req.Name,
		Password: string(hashed),
		XP:       0,
		Level:    1,
		Streak:   0,
	}
	if err := s.Users.Create(user); err != nil {
		return nil, err
	}

	return s.issue(user)
}

// Login 校验用户名密码。用户不存在与密码错误返回同一个错误，不泄露账号是否注册。
func (s *AuthService) Login(req Credentials) (*AuthResult, error) {
	user, err := s.Users.FindByName(req.Name)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			return nil, util.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}
