package service

import (
	"math"
	"sort"
	"time"

	"learnmate_backend/internal/model"
)

// StatsService 只读的进度统计视图：总体正确率、近7日经验/正确率曲线、
// 主题经验分布。每次调用实时重算，不做缓存。
type StatsService struct {
	Users        UserStore
	Attempts     AttemptStore
	Gamification *GamificationService
}

func NewStatsService(users UserStore, attempts AttemptStore, gamification *GamificationService) *StatsService {
	return &StatsService{
		Users:        users,
		Attempts:     attempts,
		Gamification: gamification,
	}
}

type ProgressStats struct {
	User       *model.User  `json:"user"`
	Stats      StatsSummary `json:"stats"`
	WeeklyData []WeeklyPoint `json:"weeklyData"`
	TopicData  []TopicPoint  `json:"topicData"`
}

type StatsSummary struct {
	TotalXP          int `json:"totalXp"`
	Level            int `json:"level"`
	Streak           int `json:"streak"`
	Accuracy         int `json:"accuracy"`
	QuizzesCompleted int `json:"quizzesCompleted"`
}

// WeeklyPoint 单日的经验与正确率，Name 为星期缩写
type WeeklyPoint struct {
	Name     string `json:"name"`
	XP       int    `json:"xp"`
	Accuracy int    `json:"accuracy"`
}

type TopicPoint struct {
	Name string `json:"name"`
	XP   int    `json:"xp"`
}

const topTopicLimit = 5

// GetProgressStats 汇总用户的学习统计。无已作答记录时正确率定义为 0。
func (s *StatsService) GetProgressStats(userID uint) (*ProgressStats, error) {
	user, err := s.Users.FindByID(userID)
	if err != nil {
		return nil, err
	}

	attempts, err := s.Attempts.FindByUserID(userID)
	if err != nil {
		return nil, err
	}

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

	accuracy := 0
	if completed > 0 {
		accuracy = int(math.Round(float64(correct) / float64(completed) * 100))
	}

	return &ProgressStats{
		User: user,
		Stats: StatsSummary{
			TotalXP:          user.XP,
			Level:            user.Level,
			Streak:           user.Streak,
			Accuracy:         accuracy,
			QuizzesCompleted: completed,
		},
		WeeklyData: s.weeklyData(attempts, time.Now()),
		TopicData:  s.topicData(attempts),
	}, nil
}

// weeklyData 回看最近7个自然日（含今天），按天聚合经验与正确率，
// 最早的一天在前；没有答题的日子补 0。
func (s *StatsService) weeklyData(attempts []model.QuizAttempt, now time.Time) []WeeklyPoint {
	points := make([]WeeklyPoint, 0, 7)

	for i := 6; i >= 0; i-- {
		day := dayOf(now.AddDate(0, 0, -i))

		dayTotal := 0
		dayCorrect := 0
		dayXP := 0
		for _, a := range attempts {
			if !dayOf(a.CreatedAt).Equal(day) {
				continue
			}
			dayTotal++
			isCorrect := a.IsCorrect != nil && *a.IsCorrect
			if isCorrect {
				dayCorrect++
			}
			dayXP += s.Gamification.XPForAnswer(a.Difficulty, isCorrect)
		}

		dayAccuracy := 0
		if dayTotal > 0 {
			dayAccuracy = int(math.Round(float64(dayCorrect) / float64(dayTotal) * 100))
		}

		points = append(points, WeeklyPoint{
			Name:     day.Format("Mon"),
			XP:       dayXP,
			Accuracy: dayAccuracy,
		})
	}

	return points
}

// topicData 按主题汇总经验并取前5，经验相同按主题名排序保证稳定输出
func (s *StatsService) topicData(attempts []model.QuizAttempt) []TopicPoint {
	totals := make(map[string]int)
	for _, a := range attempts {
		isCorrect := a.IsCorrect != nil && *a.IsCorrect
		totals[a.Topic] += s.Gamification.XPForAnswer(a.Difficulty, isCorrect)
	}

	points := make([]TopicPoint, 0, len(totals))
	for topic, xp := range totals {
		points = append(points, TopicPoint{Name: topic, XP: xp})
	}

	sort.Slice(points, func(i, j int) bool {
		if points[i].XP != points[j].XP {
			return points[i].XP > points[j].XP
		}
		return points[i].Name < points[j].Name
	})

	if len(points) > topTopicLimit {
		points = points[:topTopicLimit]
	}
	return points
}
