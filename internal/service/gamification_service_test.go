package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnmate_backend/internal/model"
	"learnmate_backend/internal/util"
)

func TestXPForAnswer(t *testing.T) {
	svc := newTestGamification(newMemUserStore(nil))

	tests := []struct {
		difficulty model.Difficulty
		isCorrect  bool
		want       int
	}{
		{model.DifficultyEasy, true, 10},
		{model.DifficultyMedium, true, 15},
		{model.DifficultyHard, true, 20},
		{model.DifficultyEasy, false, 0},
		{model.DifficultyMedium, false, 0},
		{model.DifficultyHard, false, 0},
	}
	for _, tt := range tests {
		got := svc.XPForAnswer(tt.difficulty, tt.isCorrect)
		assert.Equal(t, tt.want, got, "difficulty=%s correct=%t", tt.difficulty, tt.isCorrect)
	}
}

func TestLevelForXP(t *testing.T) {
	svc := newTestGamification(newMemUserStore(nil))

	tests := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{150, 2},
		{250, 3},
		{1000, 11},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, svc.LevelForXP(tt.xp), "xp=%d", tt.xp)
	}
}

func TestNextDifficulty(t *testing.T) {
	svc := newTestGamification(newMemUserStore(nil))

	tests := []struct {
		current  model.Difficulty
		accuracy float64
		want     model.Difficulty
	}{
		{model.DifficultyEasy, 90, model.DifficultyMedium},
		{model.DifficultyMedium, 85, model.DifficultyHard},
		{model.DifficultyHard, 95, model.DifficultyHard}, // 已是最高难度
		{model.DifficultyHard, 40, model.DifficultyMedium},
		{model.DifficultyMedium, 59, model.DifficultyEasy},
		{model.DifficultyEasy, 30, model.DifficultyEasy}, // 已是最低难度
		{model.DifficultyMedium, 70, model.DifficultyMedium},
		{model.DifficultyEasy, 84.9, model.DifficultyEasy},
		{model.DifficultyMedium, 60, model.DifficultyMedium}, // 恰好在降档线上不降
	}
	for _, tt := range tests {
		got := svc.NextDifficulty(tt.current, tt.accuracy)
		assert.Equal(t, tt.want, got, "current=%s accuracy=%.1f", tt.current, tt.accuracy)
	}
}

func TestRecentAccuracy(t *testing.T) {
	svc := newTestGamification(newMemUserStore(nil))

	t.Run("no history returns neutral", func(t *testing.T) {
		assert.Equal(t, 70.0, svc.RecentAccuracy(nil))
	})

	t.Run("skipped attempts are excluded", func(t *testing.T) {
		correct := true
		wrong := false
		attempts := []model.QuizAttempt{
			{IsCorrect: &correct},
			{IsCorrect: &wrong},
			{IsCorrect: nil}, // 未作答
			{IsCorrect: &correct},
		}
		assert.InDelta(t, 66.67, svc.RecentAccuracy(attempts), 0.01)
	})
}

func TestAdvanceStreak(t *testing.T) {
	svc := newTestGamification(newMemUserStore(nil))
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	t.Run("first ever answer starts at 1", func(t *testing.T) {
		user := &model.User{}
		svc.advanceStreak(user, now)
		assert.Equal(t, 1, user.Streak)
		require.NotNil(t, user.LastActiveAt)
		assert.Equal(t, now, *user.LastActiveAt)
	})

	t.Run("consecutive day increments", func(t *testing.T) {
		yesterday := now.AddDate(0, 0, -1)
		user := &model.User{Streak: 4, LastActiveAt: &yesterday}
		svc.advanceStreak(user, now)
		assert.Equal(t, 5, user.Streak)
	})

	t.Run("same day is idempotent", func(t *testing.T) {
		earlier := now.Add(-2 * time.Hour)
		user := &model.User{Streak: 4, LastActiveAt: &earlier}
		svc.advanceStreak(user, now)
		assert.Equal(t, 4, user.Streak)
		assert.Equal(t, now, *user.LastActiveAt, "活跃时间仍要更新")
	})

	t.Run("lapsed streak resets to 1", func(t *testing.T) {
		threeDaysAgo := now.AddDate(0, 0, -3)
		user := &model.User{Streak: 9, LastActiveAt: &threeDaysAgo}
		svc.advanceStreak(user, now)
		assert.Equal(t, 1, user.Streak)
	})

	t.Run("late night to early morning still counts", func(t *testing.T) {
		lateYesterday := time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)
		earlyToday := time.Date(2026, 3, 15, 0, 5, 0, 0, time.UTC)
		user := &model.User{Streak: 2, LastActiveAt: &lateYesterday}
		svc.advanceStreak(user, earlyToday)
		assert.Equal(t, 3, user.Streak)
	})
}

func completedAttempt(userID uint, topic string, difficulty model.Difficulty, isCorrect bool) model.QuizAttempt {
	answer := "A"
	return model.QuizAttempt{
		UserID:        userID,
		Topic:         topic,
		Difficulty:    difficulty,
		Question:      "q",
		CorrectAnswer: "A",
		UserAnswer:    &answer,
		IsCorrect:     &isCorrect,
	}
}

func TestEvaluateBadges(t *testing.T) {
	svc := newTestGamification(newMemUserStore(nil))

	t.Run("fast learner at ten completed", func(t *testing.T) {
		var attempts []model.QuizAttempt
		for i := 0; i < 10; i++ {
			attempts = append(attempts, completedAttempt(1, "math", model.DifficultyEasy, false))
		}
		user := &model.User{}
		earned := svc.EvaluateBadges(user, attempts)
		assert.Equal(t, []model.BadgeName{model.BadgeFastLearner}, earned)
	})

	t.Run("already held badges are not re-awarded", func(t *testing.T) {
		var attempts []model.QuizAttempt
		for i := 0; i < 10; i++ {
			attempts = append(attempts, completedAttempt(1, "math", model.DifficultyEasy, false))
		}
		user := &model.User{Badges: []model.Badge{{Name: model.BadgeFastLearner}}}
		assert.Empty(t, svc.EvaluateBadges(user, attempts))
	})

	t.Run("streak master at seven days", func(t *testing.T) {
		user := &model.User{Streak: 7}
		earned := svc.EvaluateBadges(user, nil)
		assert.Equal(t, []model.BadgeName{model.BadgeStreakMaster}, earned)
	})

	t.Run("knowledge seeker counts distinct topics", func(t *testing.T) {
		var attempts []model.QuizAttempt
		for i := 0; i < 5; i++ {
			attempts = append(attempts, completedAttempt(1, fmt.Sprintf("topic-%d", i), model.DifficultyEasy, false))
		}
		user := &model.User{}
		earned := svc.EvaluateBadges(user, attempts)
		assert.Contains(t, earned, model.BadgeKnowledgeSeeker)
	})

	t.Run("perfectionist counts individual correct answers", func(t *testing.T) {
		// 12 题答对 10 题：不要求连续全对，累计答对数达标即可
		var attempts []model.QuizAttempt
		for i := 0; i < 10; i++ {
			attempts = append(attempts, completedAttempt(1, "math", model.DifficultyEasy, true))
		}
		attempts = append(attempts,
			completedAttempt(1, "math", model.DifficultyEasy, false),
			completedAttempt(1, "math", model.DifficultyEasy, false),
		)
		user := &model.User{}
		earned := svc.EvaluateBadges(user, attempts)
		assert.Contains(t, earned, model.BadgePerfectionist)
		assert.Contains(t, earned, model.BadgeFastLearner)
	})

	t.Run("award order is stable", func(t *testing.T) {
		var attempts []model.QuizAttempt
		for i := 0; i < 50; i++ {
			attempts = append(attempts, completedAttempt(1, fmt.Sprintf("topic-%d", i), model.DifficultyEasy, true))
		}
		user := &model.User{Streak: 7}
		earned := svc.EvaluateBadges(user, attempts)
		assert.Equal(t, []model.BadgeName{
			model.BadgeFastLearner,
			model.BadgeStreakMaster,
			model.BadgeQuizChampion,
			model.BadgeKnowledgeSeeker,
			model.BadgePerfectionist,
		}, earned)
	})
}

func TestSubmitAnswer(t *testing.T) {
	t.Run("ten correct medium answers", func(t *testing.T) {
		attempts := newMemAttemptStore()
		users := newMemUserStore(attempts)
		svc := newTestGamification(users)

		user := &model.User{Name: "demo", Level: 1}
		require.NoError(t, users.Create(user))

		var last *SubmitResult
		for i := 0; i < 10; i++ {
			a := completedAttempt(user.ID, "algebra", model.DifficultyMedium, true)
			require.NoError(t, attempts.Create(&a))

			result, err := svc.SubmitAnswer(user.ID, model.DifficultyMedium, true)
			require.NoError(t, err)
			last = result
		}

		assert.Equal(t, 150, last.User.XP)
		assert.Equal(t, 2, last.User.Level, "经验满100升到2级")
		assert.Equal(t, 1, last.User.Streak, "同一天多次答题连击不膨胀")
		assert.True(t, last.User.HasBadge(model.BadgeFastLearner))
		assert.False(t, last.User.HasBadge(model.BadgeQuizChampion))
	})

	t.Run("wrong answer still advances streak", func(t *testing.T) {
		attempts := newMemAttemptStore()
		users := newMemUserStore(attempts)
		svc := newTestGamification(users)

		user := &model.User{Name: "demo", Level: 1}
		require.NoError(t, users.Create(user))
		a := completedAttempt(user.ID, "algebra", model.DifficultyHard, false)
		require.NoError(t, attempts.Create(&a))

		result, err := svc.SubmitAnswer(user.ID, model.DifficultyHard, false)
		require.NoError(t, err)
		assert.Equal(t, 0, result.XPGained)
		assert.Equal(t, 0, result.User.XP)
		assert.Equal(t, 1, result.User.Streak)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc := newTestGamification(newMemUserStore(newMemAttemptStore()))
		_, err := svc.SubmitAnswer(404, model.DifficultyEasy, true)
		assert.ErrorIs(t, err, util.ErrUserNotFound)
	})

	t.Run("concurrent submissions do not lose updates", func(t *testing.T) {
		attempts := newMemAttemptStore()
		users := newMemUserStore(attempts)
		svc := newTestGamification(users)

		user := &model.User{Name: "demo", Level: 1}
		require.NoError(t, users.Create(user))

		const n = 20
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				a := completedAttempt(user.ID, "algebra", model.DifficultyEasy, true)
				_ = attempts.Create(&a)
				_, err := svc.SubmitAnswer(user.ID, model.DifficultyEasy, true)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := users.FindByID(user.ID)
		require.NoError(t, err)
		assert.Equal(t, n*10, got.XP)
		assert.Equal(t, got.XP/100+1, got.Level)
	})
}

func TestGetLeaderboard(t *testing.T) {
	users := newMemUserStore(nil)
	svc := newTestGamification(users)

	for i, xp := range []int{300, 1200, 700} {
		user := &model.User{Name: fmt.Sprintf("user-%d", i), XP: xp, Level: xp/100 + 1}
		require.NoError(t, users.Create(user))
	}

	entries, err := svc.GetLeaderboard(10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, []int{1200, 700, 300}, []int{entries[0].XP, entries[1].XP, entries[2].XP})
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
	}
}

func TestUpdateRules(t *testing.T) {
	svc := newTestGamification(newMemUserStore(nil))

	cfg := svc.Rules()
	cfg.XPEasy = 25
	svc.UpdateRules(cfg)

	assert.Equal(t, 25, svc.XPForAnswer(model.DifficultyEasy, true))
	assert.Equal(t, 15, svc.XPForAnswer(model.DifficultyMedium, true))
}
