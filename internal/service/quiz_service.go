package service

import (
	"context"
	"fmt"
	"strings"

	"learnmate_backend/internal/model"
	"learnmate_backend/internal/util"
	"learnmate_backend/pkg/logger"

	"go.uber.org/zap"
)

// QuizService 出题与判题流程：按近期正确率自适应调整难度，
// 调用生成服务出题，生成不可用时回落到内置题目，保证答题不被外部故障阻断。
type QuizService struct {
	Attempts     AttemptStore
	Gamification *GamificationService
	Tutor        TutorClient // 可为 nil（未配置生成服务）
}

func NewQuizService(attempts AttemptStore, gamification *GamificationService, tutor TutorClient) *QuizService {
	return &QuizService{
		Attempts:     attempts,
		Gamification: gamification,
		Tutor:        tutor,
	}
}

type GenerateQuizRequest struct {
	Topic      string           `json:"topic" binding:"required"`
	Difficulty model.Difficulty `json:"difficulty" binding:"required"`
}

type GeneratedQuizView struct {
	*GeneratedQuiz
	RequestedDifficulty model.Difficulty `json:"requestedDifficulty"`
	RecentAccuracy      float64          `json:"recentAccuracy"`
}

type SubmitQuizRequest struct {
	Topic         string           `json:"topic" binding:"required"`
	Difficulty    model.Difficulty `json:"difficulty" binding:"required"`
	Question      string           `json:"question" binding:"required"`
	Options       []string         `json:"options"`
	CorrectAnswer string           `json:"correctAnswer" binding:"required"`
	UserAnswer    string           `json:"userAnswer" binding:"required"`
}

type QuizSubmission struct {
	Attempt   *model.QuizAttempt `json:"attempt"`
	User      *model.User        `json:"user"`
	IsCorrect bool               `json:"isCorrect"`
	XPGained  int                `json:"xpGained"`
	NewBadges []model.BadgeName  `json:"newBadges"`
}

// Generate 生成下一道题。难度先按最近一个窗口的正确率自适应调整，
// 再交给生成服务出题；生成失败时使用按难度分级的内置题，不向上抛错。
func (s *QuizService) Generate(ctx context.Context, userID uint, req GenerateQuizRequest) (*GeneratedQuizView, error) {
	if strings.TrimSpace(req.Topic) == "" || !req.Difficulty.Valid() {
		return nil, util.ErrInvalidInput
	}

	recent, err := s.Attempts.FindRecentCompleted(userID, s.Gamification.Rules().AccuracyWindow)
	if err != nil {
		return nil, err
	}

	accuracy := s.Gamification.RecentAccuracy(recent)
	adjusted := s.Gamification.NextDifficulty(req.Difficulty, accuracy)

	quiz := s.generateWithFallback(ctx, req.Topic, adjusted, accuracy)

	return &GeneratedQuizView{
		GeneratedQuiz:       quiz,
		RequestedDifficulty: req.Difficulty,
		RecentAccuracy:      accuracy,
	}, nil
}

func (s *QuizService) generateWithFallback(ctx context.Context, topic string, difficulty model.Difficulty, accuracy float64) *GeneratedQuiz {
	if s.Tutor != nil {
		quiz, err := s.Tutor.GenerateQuiz(ctx, topic, difficulty, accuracy)
		if err == nil {
			return quiz
		}
		logger.Log.Warn("quiz generation failed, using fallback",
			zap.String("topic", topic),
			zap.String("difficulty", string(difficulty)),
			zap.Error(err))
	}
	return fallbackQuiz(topic, difficulty)
}

// Submit 服务端判题并记录答题，然后交给进度引擎结算经验、连击与徽章
func (s *QuizService) Submit(ctx context.Context, userID uint, req SubmitQuizRequest) (*QuizSubmission, error) {
	if strings.TrimSpace(req.Topic) == "" || !req.Difficulty.Valid() ||
		strings.TrimSpace(req.Question) == "" ||
		strings.TrimSpace(req.CorrectAnswer) == "" ||
		strings.TrimSpace(req.UserAnswer) == "" {
		return nil, util.ErrInvalidInput
	}

	isCorrect := req.UserAnswer == req.CorrectAnswer

	attempt := &model.QuizAttempt{
		UserID:        userID,
		Topic:         req.Topic,
		Difficulty:    req.Difficulty,
		Question:      req.Question,
		CorrectAnswer: req.CorrectAnswer,
		UserAnswer:    &req.UserAnswer,
		IsCorrect:     &isCorrect,
	}
	if err := attempt.SetOptions(req.Options); err != nil {
		return nil, err
	}
	if err := s.Attempts.Create(attempt); err != nil {
		return nil, err
	}

	result, err := s.Gamification.SubmitAnswer(userID, req.Difficulty, isCorrect)
	if err != nil {
		return nil, err
	}

	return &QuizSubmission{
		Attempt:   attempt,
		User:      result.User,
		IsCorrect: isCorrect,
		XPGained:  result.XPGained,
		NewBadges: result.NewBadges,
	}, nil
}

// History 返回用户答题历史，最新在前
func (s *QuizService) History(userID uint) ([]model.QuizAttempt, error) {
	return s.Attempts.FindByUserID(userID)
}

// fallbackQuiz 生成服务不可用时的内置题目，按难度确定性给出
func fallbackQuiz(topic string, difficulty model.Difficulty) *GeneratedQuiz {
	switch difficulty {
	case model.DifficultyMedium:
		return &GeneratedQuiz{
			Question: fmt.Sprintf("在实际场景中应如何运用“%s”？", topic),
			Options: []string{
				"先理解上下文再动手",
				"忽略前置知识",
				"只背公式",
				"跳过基础直接进阶",
			},
			CorrectAnswer: "先理解上下文再动手",
			Topic:         topic,
			Difficulty:    difficulty,
		}
	case model.DifficultyHard:
		return &GeneratedQuiz{
			Question: fmt.Sprintf("“%s”的进阶应用是什么？", topic),
			Options: []string{
				"综合运用多个概念",
				"重复基础练习",
				"回避复杂问题",
				"把一切都简化",
			},
			CorrectAnswer: "综合运用多个概念",
			Topic:         topic,
			Difficulty:    difficulty,
		}
	default:
		return &GeneratedQuiz{
			Question: fmt.Sprintf("“%s”中最基础的概念是什么？", topic),
			Options: []string{
				"基本原理",
				"进阶技巧",
				"复杂定理",
				"边界情况",
			},
			CorrectAnswer: "基本原理",
			Topic:         topic,
			Difficulty:    model.DifficultyEasy,
		}
	}
}
