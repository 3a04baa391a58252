package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"learnmate_backend/internal/config"
	"learnmate_backend/internal/model"
	"learnmate_backend/internal/util"
	"learnmate_backend/pkg/logger"
)

func init() {
	logger.Log = zap.NewNop()
}

// 内存版存储实现，测试用

type memUserStore struct {
	mu       sync.Mutex
	seq      uint
	users    map[uint]*model.User
	attempts *memAttemptStore
}

func newMemUserStore(attempts *memAttemptStore) *memUserStore {
	return &memUserStore{
		users:    make(map[uint]*model.User),
		attempts: attempts,
	}
}

func (s *memUserStore) Create(user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	user.ID = s.seq
	user.CreatedAt = time.Now()
	s.users[user.ID] = user
	return nil
}

func (s *memUserStore) FindByID(id uint) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, util.ErrUserNotFound
	}
	return user, nil
}

func (s *memUserStore) FindByName(name string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Name == name {
			return user, nil
		}
	}
	return nil, util.ErrUserNotFound
}

func (s *memUserStore) Update(user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return util.ErrUserNotFound
	}
	s.users[user.ID] = user
	return nil
}

func (s *memUserStore) FindTopByXP(limit int) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]model.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, *user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].XP > users[j].XP })
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (s *memUserStore) SubmitProgress(userID uint, mutate func(user *model.User, attempts []model.QuizAttempt) ([]model.BadgeName, error)) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, util.ErrUserNotFound
	}

	var attempts []model.QuizAttempt
	if s.attempts != nil {
		attempts, _ = s.attempts.FindByUserID(userID)
	}

	newBadges, err := mutate(user, attempts)
	if err != nil {
		return nil, err
	}
	for _, name := range newBadges {
		user.Badges = append(user.Badges, model.Badge{
			UserID:   userID,
			Name:     name,
			EarnedAt: time.Now(),
		})
	}
	return user, nil
}

type memAttemptStore struct {
	mu       sync.Mutex
	attempts []model.QuizAttempt
}

func newMemAttemptStore() *memAttemptStore {
	return &memAttemptStore{}
}

func (s *memAttemptStore) Create(attempt *model.QuizAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt.ID == "" {
		attempt.ID = model.GenerateUUID()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now()
	}
	s.attempts = append(s.attempts, *attempt)
	return nil
}

func (s *memAttemptStore) FindByUserID(userID uint) ([]model.QuizAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.QuizAttempt
	for _, a := range s.attempts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	// 最新在前
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memAttemptStore) FindRecentCompleted(userID uint, limit int) ([]model.QuizAttempt, error) {
	all, _ := s.FindByUserID(userID)
	var out []model.QuizAttempt
	for _, a := range all {
		if a.Completed() {
			out = append(out, a)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type memChatStore struct {
	mu       sync.Mutex
	messages []model.ChatMessage
}

func newMemChatStore() *memChatStore {
	return &memChatStore{}
}

func (s *memChatStore) Create(message *model.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if message.ID == "" {
		message.ID = model.GenerateUUID()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	s.messages = append(s.messages, *message)
	return nil
}

func (s *memChatStore) FindByUserID(userID uint) ([]model.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ChatMessage
	for _, m := range s.messages {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memChatStore) FindRecent(userID uint, limit int) ([]model.ChatMessage, error) {
	all, _ := s.FindByUserID(userID)
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

// fakeTutor 可编程的生成服务桩
type fakeTutor struct {
	chatFn func(ctx context.Context, history []AIChatMessage, prompt string) (string, error)
	quizFn func(ctx context.Context, topic string, difficulty model.Difficulty, accuracyHint float64) (*GeneratedQuiz, error)
}

func (f *fakeTutor) Chat(ctx context.Context, history []AIChatMessage, prompt string) (string, error) {
	if f.chatFn == nil {
		return "", util.ErrGenerationUnavailable
	}
	return f.chatFn(ctx, history, prompt)
}

func (f *fakeTutor) GenerateQuiz(ctx context.Context, topic string, difficulty model.Difficulty, accuracyHint float64) (*GeneratedQuiz, error) {
	if f.quizFn == nil {
		return nil, util.ErrGenerationUnavailable
	}
	return f.quizFn(ctx, topic, difficulty, accuracyHint)
}

// newTestGamification 默认规则、无 Redis
func newTestGamification(users UserStore) *GamificationService {
	return NewGamificationService(users, config.GamificationConfig{}, nil)
}
