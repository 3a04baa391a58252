package util

import "errors"

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrNameRegistered     = errors.New("该用户名已被注册")
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrInvalidInput       = errors.New("invalid input")

	// ErrGenerationUnavailable AI 生成服务未配置或调用失败，
	// 调用方应回落到内置的占位内容，不向用户侧透出失败
	ErrGenerationUnavailable = errors.New("generation service unavailable")
)
