package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"learnmate_backend/internal/config"
	"learnmate_backend/internal/model"
	"learnmate_backend/internal/util"
)

// TutorClient 问答与出题的生成能力，作为可替换的协作方注入；
// 核心流程和测试不依赖任何网络实现。
type TutorClient interface {
	Chat(ctx context.Context, history []AIChatMessage, prompt string) (string, error)
	GenerateQuiz(ctx context.Context, topic string, difficulty model.Difficulty, accuracyHint float64) (*GeneratedQuiz, error)
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GeneratedQuiz 一道生成的选择题
type GeneratedQuiz struct {
	Question      string           `json:"question"`
	Options       []string         `json:"options"`
	CorrectAnswer string           `json:"correctAnswer"`
	Topic         string           `json:"topic"`
	Difficulty    model.Difficulty `json:"difficulty"`
}

// AIService 对接 OpenAI 兼容接口的 TutorClient 实现
type AIService struct {
	config config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{
		config: cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Configured 是否已配置生成后端
func (s *AIService) Configured() bool {
	return s.config.BaseURL != "" && s.config.APIKey != ""
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []AIChatMessage `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const chatSystemPrompt = "你是面向学生的AI学习助教。用清晰易懂的方式讲解任何主题，" +
	"保持鼓励和支持的语气，适当时建议学生做一组小测验来检验理解。"

func (s *AIService) Chat(ctx context.Context, history []AIChatMessage, prompt string) (string, error) {
	if !s.Configured() {
		return "", util.ErrGenerationUnavailable
	}

	messages := make([]AIChatMessage, 0, len(history)+2)
	messages = append(messages, AIChatMessage{Role: "system", Content: chatSystemPrompt})
	messages = append(messages, history...)
	messages = append(messages, AIChatMessage{Role: "user", Content: prompt})

	resp, err := s.complete(ctx, chatCompletionRequest{
		Model:    s.config.Model,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	return resp, nil
}

func (s *AIService) GenerateQuiz(ctx context.Context, topic string, difficulty model.Difficulty, accuracyHint float64) (*GeneratedQuiz, error) {
	if !s.Configured() {
		return nil, util.ErrGenerationUnavailable
	}

	prompt := fmt.Sprintf(`围绕主题“%s”生成一道 %s 难度的教学选择题。学生当前正确率约为 %.0f%%，请据此把握题目深度。

严格按以下JSON格式回复：
{
  "question": "题干",
  "options": ["选项A", "选项B", "选项C", "选项D"],
  "correctAnswer": "正确选项的原文"
}

确保 correctAnswer 与 options 中某一项完全一致。`, topic, difficulty, accuracyHint)

	content, err := s.complete(ctx, chatCompletionRequest{
		Model: s.config.Model,
		Messages: []AIChatMessage{
			{Role: "system", Content: "你是出题助手，只输出合法JSON。"},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, err
	}

	var quiz GeneratedQuiz
	if err := json.Unmarshal([]byte(content), &quiz); err != nil {
		return nil, fmt.Errorf("invalid quiz payload: %w", err)
	}

	// 校验正确答案必须在选项中
	valid := false
	for _, opt := range quiz.Options {
		if opt == quiz.CorrectAnswer {
			valid = true
			break
		}
	}
	if quiz.Question == "" || len(quiz.Options) == 0 || !valid {
		return nil, fmt.Errorf("generated quiz failed validation")
	}

	quiz.Topic = topic
	quiz.Difficulty = difficulty
	return &quiz, nil
}

func (s *AIService) complete(ctx context.Context, reqBody chatCompletionRequest) (string, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", err
	}
	if completion.Error != nil {
		return "", fmt.Errorf("AI API error: %s", completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("AI API returned no choices")
	}

	return completion.Choices[0].Message.Content, nil
}
