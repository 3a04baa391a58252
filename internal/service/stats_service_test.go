package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnmate_backend/internal/model"
	"learnmate_backend/internal/util"
)

func newStatsFixture() (*StatsService, *memUserStore, *memAttemptStore) {
	attempts := newMemAttemptStore()
	users := newMemUserStore(attempts)
	gamification := newTestGamification(users)
	return NewStatsService(users, attempts, gamification), users, attempts
}

func TestGetProgressStats(t *testing.T) {
	t.Run("unknown user", func(t *testing.T) {
		svc, _, _ := newStatsFixture()
		_, err := svc.GetProgressStats(404)
		assert.ErrorIs(t, err, util.ErrUserNotFound)
	})

	t.Run("no attempts", func(t *testing.T) {
		svc, users, _ := newStatsFixture()
		user := &model.User{Name: "demo", XP: 0, Level: 1}
		require.NoError(t, users.Create(user))

		stats, err := svc.GetProgressStats(user.ID)
		require.NoError(t, err)

		assert.Equal(t, 0, stats.Stats.Accuracy, "没有作答时正确率为0，不是中性值")
		assert.Equal(t, 0, stats.Stats.QuizzesCompleted)
		assert.Len(t, stats.WeeklyData, 7)
		for _, p := range stats.WeeklyData {
			assert.Zero(t, p.XP)
			assert.Zero(t, p.Accuracy)
		}
		assert.Empty(t, stats.TopicData)
	})

	t.Run("accuracy is rounded", func(t *testing.T) {
		svc, users, attempts := newStatsFixture()
		user := &model.User{Name: "demo", XP: 20, Level: 1, Streak: 2}
		require.NoError(t, users.Create(user))

		for _, correct := range []bool{true, true, false} {
			a := completedAttempt(user.ID, "math", model.DifficultyEasy, correct)
			require.NoError(t, attempts.Create(&a))
		}

		stats, err := svc.GetProgressStats(user.ID)
		require.NoError(t, err)
		assert.Equal(t, 67, stats.Stats.Accuracy)
		assert.Equal(t, 3, stats.Stats.QuizzesCompleted)
		assert.Equal(t, 20, stats.Stats.TotalXP)
		assert.Equal(t, 2, stats.Stats.Streak)
	})

	t.Run("skipped attempts excluded from accuracy", func(t *testing.T) {
		svc, users, attempts := newStatsFixture()
		user := &model.User{Name: "demo", Level: 1}
		require.NoError(t, users.Create(user))

		a := completedAttempt(user.ID, "math", model.DifficultyEasy, true)
		require.NoError(t, attempts.Create(&a))
		skipped := model.QuizAttempt{UserID: user.ID, Topic: "math", Difficulty: model.DifficultyEasy, Question: "q", CorrectAnswer: "A"}
		require.NoError(t, attempts.Create(&skipped))

		stats, err := svc.GetProgressStats(user.ID)
		require.NoError(t, err)
		assert.Equal(t, 100, stats.Stats.Accuracy)
		assert.Equal(t, 1, stats.Stats.QuizzesCompleted)
	})
}

func TestWeeklyData(t *testing.T) {
	svc, users, attempts := newStatsFixture()
	user := &model.User{Name: "demo", Level: 1}
	require.NoError(t, users.Create(user))

	now := time.Now()

	// 今天：2对1错（medium），昨天无，3天前：1对（hard）
	for _, correct := range []bool{true, true, false} {
		a := completedAttempt(user.ID, "math", model.DifficultyMedium, correct)
		a.CreatedAt = now
		require.NoError(t, attempts.Create(&a))
	}
	old := completedAttempt(user.ID, "math", model.DifficultyHard, true)
	old.CreatedAt = now.AddDate(0, 0, -3)
	require.NoError(t, attempts.Create(&old))

	// 窗口外的答题不计入
	ancient := completedAttempt(user.ID, "math", model.DifficultyEasy, true)
	ancient.CreatedAt = now.AddDate(0, 0, -10)
	require.NoError(t, attempts.Create(&ancient))

	stats, err := svc.GetProgressStats(user.ID)
	require.NoError(t, err)
	require.Len(t, stats.WeeklyData, 7)

	today := stats.WeeklyData[6]
	assert.Equal(t, now.Format("Mon"), today.Name)
	assert.Equal(t, 30, today.XP, "两道 medium 答对")
	assert.Equal(t, 67, today.Accuracy)

	threeDaysAgo := stats.WeeklyData[3]
	assert.Equal(t, 20, threeDaysAgo.XP)
	assert.Equal(t, 100, threeDaysAgo.Accuracy)

	yesterday := stats.WeeklyData[5]
	assert.Zero(t, yesterday.XP)
	assert.Zero(t, yesterday.Accuracy)
}

func TestTopicData(t *testing.T) {
	svc, users, attempts := newStatsFixture()
	user := &model.User{Name: "demo", Level: 1}
	require.NoError(t, users.Create(user))

	// 6 个主题，只保留经验最高的 5 个
	plan := []struct {
		topic   string
		correct int
	}{
		{"algebra", 6},
		{"geometry", 5},
		{"calculus", 4},
		{"logic", 3},
		{"sets", 2},
		{"trig", 1},
	}
	for _, p := range plan {
		for i := 0; i < p.correct; i++ {
			a := completedAttempt(user.ID, p.topic, model.DifficultyEasy, true)
			require.NoError(t, attempts.Create(&a))
		}
	}

	stats, err := svc.GetProgressStats(user.ID)
	require.NoError(t, err)
	require.Len(t, stats.TopicData, 5)

	assert.Equal(t, "algebra", stats.TopicData[0].Name)
	assert.Equal(t, 60, stats.TopicData[0].XP)
	assert.Equal(t, "sets", stats.TopicData[4].Name)
	for _, p := range stats.TopicData {
		assert.NotEqual(t, "trig", p.Name)
	}
}
