package service

import (
	"context"
	"strings"

	"learnmate_backend/internal/model"
	"learnmate_backend/internal/util"
	"learnmate_backend/pkg/logger"

	"go.uber.org/zap"
)

// 历史上下文窗口：喂给助教的最近消息条数
const chatHistoryWindow = 10

// 生成服务不可用时的占位回复，保证对话流程不中断
const chatFallbackReply = "AI助教暂时不可用，请稍后再试。你可以先去做一组小测验巩固学过的内容。"

// ChatService AI 助教对话：保存用户消息，携带最近历史调用生成服务，
// 回复与用户消息一并落库（仅追加）。
type ChatService struct {
	Messages ChatStore
	Users    UserStore
	Tutor    TutorClient // 可为 nil
}

func NewChatService(messages ChatStore, users UserStore, tutor TutorClient) *ChatService {
	return &ChatService{
		Messages: messages,
		Users:    users,
		Tutor:    tutor,
	}
}

type ChatExchange struct {
	UserMessage      *model.ChatMessage `json:"userMessage"`
	AssistantMessage *model.ChatMessage `json:"assistantMessage"`
}

// Send 处理一轮对话。生成失败不会向用户透出错误，而是写入占位回复。
func (s *ChatService) Send(ctx context.Context, userID uint, content string) (*ChatExchange, error) {
	if strings.TrimSpace(content) == "" {
		return nil, util.ErrInvalidInput
	}

	if _, err := s.Users.FindByID(userID); err != nil {
		return nil, err
	}

	// 上下文窗口在写入本轮消息前截取，避免当前问题在请求里出现两次
	history, err := s.Messages.FindRecent(userID, chatHistoryWindow)
	if err != nil {
		logger.Log.Warn("failed to load chat history", zap.Uint("user_id", userID), zap.Error(err))
		history = nil
	}

	userMessage := &model.ChatMessage{
		UserID:  userID,
		Role:    model.ChatRoleUser,
		Content: content,
	}
	if err := s.Messages.Create(userMessage); err != nil {
		return nil, err
	}

	reply := s.replyWithFallback(ctx, history, content)

	assistantMessage := &model.ChatMessage{
		UserID:  userID,
		Role:    model.ChatRoleAssistant,
		Content: reply,
	}
	if err := s.Messages.Create(assistantMessage); err != nil {
		return nil, err
	}

	return &ChatExchange{
		UserMessage:      userMessage,
		AssistantMessage: assistantMessage,
	}, nil
}

func (s *ChatService) replyWithFallback(ctx context.Context, history []model.ChatMessage, content string) string {
	if s.Tutor == nil {
		return chatFallbackReply
	}

	aiHistory := make([]AIChatMessage, 0, len(history))
	for _, m := range history {
		aiHistory = append(aiHistory, AIChatMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	reply, err := s.Tutor.Chat(ctx, aiHistory, content)
	if err != nil {
		logger.Log.Warn("chat generation failed, using fallback", zap.Error(err))
		return chatFallbackReply
	}
	return reply
}

// History 返回用户全部对话记录，时间正序
func (s *ChatService) History(userID uint) ([]model.ChatMessage, error) {
	return s.Messages.FindByUserID(userID)
}
