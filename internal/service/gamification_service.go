package service

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"learnmate_backend/internal/config"
	"learnmate_backend/internal/model"
	"learnmate_backend/pkg/logger"
	"learnmate_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	leaderboardCacheKey = "leaderboard:top"
	leaderboardCacheTTL = 30 * time.Second
)

// GamificationService 游戏化进度引擎：经验结算、等级推导、连击判定、
// 徽章授予，以及按 XP 排序的排行榜。
type GamificationService struct {
	Users UserStore
	Redis *redis.Client // 可为 nil，排行榜缓存降级为直查数据库

	cfgMu sync.RWMutex
	cfg   config.GamificationConfig

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewGamificationService(users UserStore, cfg config.GamificationConfig, rdb *redis.Client) *GamificationService {
	cfg.ApplyDefaults()
	return &GamificationService{
		Users: users,
		cfg:   cfg,
		Redis: rdb,
		locks: make(map[uint]*sync.Mutex),
	}
}

// Rules 返回当前生效的规则参数快照
func (s *GamificationService) Rules() config.GamificationConfig {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// UpdateRules 热更新规则参数，配置文件变更时由上层调用
func (s *GamificationService) UpdateRules(cfg config.GamificationConfig) {
	cfg.ApplyDefaults()
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
}

type SubmitResult struct {
	User      *model.User       `json:"user"`
	XPGained  int               `json:"xpGained"`
	NewBadges []model.BadgeName `json:"newBadges"`
}

type LeaderboardEntry struct {
	Rank   int               `json:"rank"`
	User   string            `json:"user"`
	XP     int               `json:"xp"`
	Level  int               `json:"level"`
	Streak int               `json:"streak"`
	Avatar string            `json:"avatar,omitempty"`
	Badges []model.BadgeName `json:"badges"`
}

// XPForAnswer 按难度返回答对的经验奖励，答错为 0
func (s *GamificationService) XPForAnswer(difficulty model.Difficulty, isCorrect bool) int {
	if !isCorrect {
		return 0
	}
	cfg := s.Rules()
	switch difficulty {
	case model.DifficultyEasy:
		return cfg.XPEasy
	case model.DifficultyMedium:
		return cfg.XPMedium
	case model.DifficultyHard:
		return cfg.XPHard
	}
	return 0
}

// LevelForXP 等级是 XP 的纯函数，不单独写入
func (s *GamificationService) LevelForXP(xp int) int {
	return xp/s.Rules().LevelStep + 1
}

// NextDifficulty 根据近期正确率调整下一题难度。
// 规则按顺序求值，高难度低正确率的降档优先于其他迁移。
func (s *GamificationService) NextDifficulty(current model.Difficulty, accuracy float64) model.Difficulty {
	cfg := s.Rules()
	switch {
	case accuracy >= cfg.RaiseThreshold && current == model.DifficultyEasy:
		return model.DifficultyMedium
	case accuracy >= cfg.RaiseThreshold && current == model.DifficultyMedium:
		return model.DifficultyHard
	case accuracy < cfg.LowerThreshold && current == model.DifficultyHard:
		return model.DifficultyMedium
	case accuracy < cfg.LowerThreshold && current == model.DifficultyMedium:
		return model.DifficultyEasy
	}
	return current
}

// RecentAccuracy 计算一组已作答记录的正确率（百分比）。
// 无历史记录时返回中性默认值，避免新用户的首题被强行降为 easy。
func (s *GamificationService) RecentAccuracy(attempts []model.QuizAttempt) float64 {
	completed := 0
	correct := 0
	for _, a := range attempts {
		if !a.Completed() {
			continue
		}
		completed++
		if *a.IsCorrect {
			correct++
		}
	}
	if completed == 0 {
		return s.Rules().NeutralAccuracy
	}
	return float64(correct) / float64(completed) * 100
}

// advanceStreak 按天推进连击：从未答题或中断超过一天重置为 1，
// 昨天答过则 +1，今天已答过保持不变（同日幂等）。
// LastActiveAt 无论命中哪个分支都更新为当前时刻。
func (s *GamificationService) advanceStreak(user *model.User, now time.Time) {
	today := dayOf(now)

	switch {
	case user.LastActiveAt == nil:
		user.Streak = 1
	case dayOf(*user.LastActiveAt).Equal(today):
		// 同一天重复答题，连击不膨胀
	case dayOf(*user.LastActiveAt).Equal(today.AddDate(0, 0, -1)):
		user.Streak++
	default:
		user.Streak = 1
	}

	active := now
	user.LastActiveAt = &active
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EvaluateBadges 对照全部答题历史判定新达成的徽章。
// 只返回用户尚未持有的，固定顺序求值保证授予顺序稳定；
// 重复执行不会新增也不会删除（幂等）。
// Perfectionist 语义采用"累计答对10题"，与产品早期实现一致。
func (s *GamificationService) EvaluateBadges(user *model.User, attempts []model.QuizAttempt) []model.BadgeName {
	completed := 0
	correct := 0
	topics := make(map[string]bool)
	for _, a := range attempts {
		topics[a.Topic] = true
		if !a.Completed() {
			continue
		}
		completed++
		if *a.IsCorrect {
			correct++
		}
	}

	var earned []model.BadgeName
	award := func(name model.BadgeName, qualified bool) {
		if qualified && !user.HasBadge(name) {
			earned = append(earned, name)
		}
	}

	cfg := s.Rules()
	award(model.BadgeFastLearner, completed >= cfg.FastLearnerCount)
	award(model.BadgeStreakMaster, user.Streak >= cfg.StreakMasterDays)
	award(model.BadgeQuizChampion, completed >= cfg.QuizChampionCount)
	award(model.BadgeKnowledgeSeeker, len(topics) >= cfg.SeekerTopicCount)
	award(model.BadgePerfectionist, correct >= cfg.PerfectionistWins)

	return earned
}

// SubmitAnswer 结算一次答题：加经验、重算等级、推进连击、判定徽章。
// 同一用户的结算全程持有用户级互斥锁并在存储层事务内完成，
// 并发重复提交不会丢失更新；不同用户互不阻塞。
func (s *GamificationService) SubmitAnswer(userID uint, difficulty model.Difficulty, isCorrect bool) (*SubmitResult, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	xpGained := s.XPForAnswer(difficulty, isCorrect)
	var newBadges []model.BadgeName

	user, err := s.Users.SubmitProgress(userID, func(user *model.User, attempts []model.QuizAttempt) ([]model.BadgeName, error) {
		user.XP += xpGained
		user.Level = s.LevelForXP(user.XP)
		s.advanceStreak(user, time.Now())

		newBadges = s.EvaluateBadges(user, attempts)
		return newBadges, nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.QuizSubmissions.WithLabelValues(string(difficulty), strconv.FormatBool(isCorrect)).Inc()
	for _, b := range newBadges {
		monitoring.BadgesAwarded.WithLabelValues(string(b)).Inc()
	}

	s.invalidateLeaderboard()

	return &SubmitResult{
		User:      user,
		XPGained:  xpGained,
		NewBadges: newBadges,
	}, nil
}

// GetLeaderboard 按 XP 倒序返回排行榜，命中 Redis 缓存时直接返回；
// 每次经验结算都会使缓存失效，保证榜单不落后于答题写入。
func (s *GamificationService) GetLeaderboard(limit int) ([]LeaderboardEntry, error) {
	if s.Redis != nil {
		cached, err := s.Redis.Get(context.Background(), leaderboardCacheKey).Bytes()
		if err == nil {
			var entries []LeaderboardEntry
			if json.Unmarshal(cached, &entries) == nil && len(entries) >= limit {
				return entries[:limit], nil
			}
		}
	}

	users, err := s.Users.FindTopByXP(limit)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(users))
	for i, user := range users {
		badges := make([]model.BadgeName, len(user.Badges))
		for j, b := range user.Badges {
			badges[j] = b.Name
		}
		entries[i] = LeaderboardEntry{
			Rank:   i + 1,
			User:   user.Name,
			XP:     user.XP,
			Level:  user.Level,
			Streak: user.Streak,
			Avatar: user.Avatar,
			Badges: badges,
		}
	}

	if s.Redis != nil {
		if data, err := json.Marshal(entries); err == nil {
			s.Redis.Set(context.Background(), leaderboardCacheKey, data, leaderboardCacheTTL)
		}
	}

	return entries, nil
}

func (s *GamificationService) invalidateLeaderboard() {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(context.Background(), leaderboardCacheKey).Err(); err != nil {
		logger.Log.Warn("failed to invalidate leaderboard cache", zap.Error(err))
	}
}

func (s *GamificationService) userLock(userID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}
