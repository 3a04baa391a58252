package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"learnmate_backend/internal/config"
	"learnmate_backend/internal/controller"
	"learnmate_backend/internal/repository"
	"learnmate_backend/internal/service"
	"learnmate_backend/pkg/configwatcher"
	"learnmate_backend/pkg/database"
	"learnmate_backend/pkg/logger"
	"learnmate_backend/pkg/monitoring"
	"learnmate_backend/pkg/security"
	"learnmate_backend/pkg/tracing"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user *repository.UserRepository
	quiz *repository.QuizRepository
	chat *repository.ChatRepository
}

type services struct {
	auth         *service.AuthService
	user         *service.UserService
	gamification *service.GamificationService
	quiz         *service.QuizService
	chat         *service.ChatService
	stats        *service.StatsService
	storage      *service.StorageService
	tutor        *service.AIService
}

type controllers struct {
	auth     *controller.AuthController
	user     *controller.UserController
	quiz     *controller.QuizController
	chat     *controller.ChatController
	progress *controller.ProgressController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user: repository.NewUserRepository(db),
		quiz: repository.NewQuizRepository(db),
		chat: repository.NewChatRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.tutor = service.NewAIService(cfg.AI)
	s.storage = service.NewStorageService(cfg, repos.user)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user)
	s.gamification = service.NewGamificationService(repos.user, cfg.Gamification, rdb)
	s.quiz = service.NewQuizService(repos.quiz, s.gamification, s.tutor)
	s.chat = service.NewChatService(repos.chat, repos.user, s.tutor)
	s.stats = service.NewStatsService(repos.user, repos.quiz, s.gamification)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.auth, s.user),
		user:     controller.NewUserController(s.storage),
		quiz:     controller.NewQuizController(s.quiz),
		chat:     controller.NewChatController(s.chat),
		progress: controller.NewProgressController(s.stats, s.gamification),
		health:   controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 600
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.SeedDemo {
		if err := database.SeedDemoData(db); err != nil {
			logger.Log.Fatal("Failed to seed demo data", zap.Error(err))
		}
	}

	// Redis 不可用时降级运行，排行榜直接落库
	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Warn("Redis unavailable, leaderboard cache disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("learnmate-backend", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, services, cfg)

	// 配置文件热更新：目前只有游戏化规则参数支持运行时生效
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		services.gamification.UpdateRules(newCfg.Gamification)
		logger.Log.Info("Gamification rules reloaded")
	})
	go configwatcher.WatchConfig("configs/config.yaml", cfg, func(raw interface{}) {
		newCfg, ok := raw.(*config.Config)
		if !ok {
			return
		}
		for _, cb := range app.configCallbacks {
			cb(newCfg)
		}
	})

	if cfg.Storage.Type == "local" || cfg.Storage.Type == "" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
