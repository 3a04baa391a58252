package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Redis        RedisConfig
	AI           AIConfig
	Storage      StorageConfig
	Gamification GamificationConfig `mapstructure:"gamification"`
	Tracing      TracingConfig      `mapstructure:"tracing"`
	CORS         CORSConfig         `mapstructure:"cors"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"` // 强制执行数据库迁移
	MigrateOnly  bool `mapstructure:"-"` // 仅迁移模式（迁移后退出）
	SeedDemo     bool `mapstructure:"-"` // 启动时写入演示数据
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type AIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	OSSEndpoint   string `mapstructure:"oss_endpoint"`
	OSSAccessKey  string `mapstructure:"oss_access_key"`
	OSSSecretKey  string `mapstructure:"oss_secret_key"`
	OSSBucket     string `mapstructure:"oss_bucket"`
}

// GamificationConfig 游戏化规则参数，全部可通过配置覆盖
type GamificationConfig struct {
	XPEasy          int     `mapstructure:"xp_easy"`
	XPMedium        int     `mapstructure:"xp_medium"`
	XPHard          int     `mapstructure:"xp_hard"`
	LevelStep       int     `mapstructure:"level_step"`       // 每多少XP升一级
	AccuracyWindow  int     `mapstructure:"accuracy_window"`  // 计算近期正确率的答题窗口
	NeutralAccuracy float64 `mapstructure:"neutral_accuracy"` // 无历史记录时的默认正确率
	RaiseThreshold  float64 `mapstructure:"raise_threshold"`  // 正确率达到后提升难度
	LowerThreshold  float64 `mapstructure:"lower_threshold"`  // 正确率低于后降低难度

	// 徽章达成阈值
	FastLearnerCount  int `mapstructure:"fast_learner_count"`
	StreakMasterDays  int `mapstructure:"streak_master_days"`
	QuizChampionCount int `mapstructure:"quiz_champion_count"`
	SeekerTopicCount  int `mapstructure:"seeker_topic_count"`
	PerfectionistWins int `mapstructure:"perfectionist_wins"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("LEARNMATE")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// AI
	viper.BindEnv("ai.base_url", "AI_BASE_URL")
	viper.BindEnv("ai.api_key", "AI_API_KEY")
	viper.BindEnv("ai.model", "AI_MODEL")

	// Storage
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")
	viper.BindEnv("storage.oss_endpoint", "OSS_ENDPOINT")
	viper.BindEnv("storage.oss_access_key", "OSS_ACCESS_KEY")
	viper.BindEnv("storage.oss_secret_key", "OSS_SECRET_KEY")
	viper.BindEnv("storage.oss_bucket", "OSS_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour
	cfg.Gamification.ApplyDefaults()

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	return &cfg, nil
}

// ApplyDefaults 未配置的游戏化参数回落到默认规则
func (c *GamificationConfig) ApplyDefaults() {
	if c.XPEasy <= 0 {
		c.XPEasy = 10
	}
	if c.XPMedium <= 0 {
		c.XPMedium = 15
	}
	if c.XPHard <= 0 {
		c.XPHard = 20
	}
	if c.LevelStep <= 0 {
		c.LevelStep = 100
	}
	if c.AccuracyWindow <= 0 {
		c.AccuracyWindow = 10
	}
	if c.NeutralAccuracy <= 0 {
		c.NeutralAccuracy = 70
	}
	if c.RaiseThreshold <= 0 {
		c.RaiseThreshold = 85
	}
	if c.LowerThreshold <= 0 {
		c.LowerThreshold = 60
	}
	if c.FastLearnerCount <= 0 {
		c.FastLearnerCount = 10
	}
	if c.StreakMasterDays <= 0 {
		c.StreakMasterDays = 7
	}
	if c.QuizChampionCount <= 0 {
		c.QuizChampionCount = 50
	}
	if c.SeekerTopicCount <= 0 {
		c.SeekerTopicCount = 5
	}
	if c.PerfectionistWins <= 0 {
		c.PerfectionistWins = 10
	}
}
