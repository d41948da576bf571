// Package main 是服务端的入口点
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"chatbot-sehat-server/internal/cache"
	"chatbot-sehat-server/internal/config"
	"chatbot-sehat-server/internal/handler"
	"chatbot-sehat-server/internal/middleware"
	"chatbot-sehat-server/internal/model"
	"chatbot-sehat-server/internal/repository"
	"chatbot-sehat-server/internal/service"
	"chatbot-sehat-server/internal/session"
	"chatbot-sehat-server/pkg/jwt"
)

func main() {
	// 加载配置
	cfg, err := config.Load("./configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 模型 Key 和会话密钥缺失直接失败，其余依赖按可用性降级
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// 初始化数据库
	// MySQL 凭据缺失或连接失败时，历史持久化降级为空操作
	var historyRepo *repository.HistoryRepository
	if cfg.HasMySQL() {
		db, err := initDatabase(cfg)
		if err != nil {
			log.Printf("[ERROR] Failed to init database, persistence disabled: %v", err)
		} else {
			historyRepo = repository.NewHistoryRepository(db)
		}
	}

	// 初始化 Redis（可选，仅用于发送限流）
	var redisCache *cache.RedisCache
	if cfg.HasRedis() {
		redisCache, err = cache.NewRedisCache(cfg)
		if err != nil {
			log.Printf("[WARN] Failed to init redis, rate limiting disabled: %v", err)
			redisCache = nil
		}
	} else {
		log.Printf("[WARN] redis not configured, rate limiting disabled")
	}

	// 初始化 JWT 服务（匿名会话 Cookie 的签名）
	jwtService := jwt.NewJWTService(cfg.Session.Secret, 24*time.Hour)

	// 初始化会话管理器
	sessionManager := session.NewManager()
	go sessionManager.Run() // 空闲会话回收在单独的 goroutine 中运行

	// 初始化 Service 层
	historyService := service.NewHistoryService(historyRepo)
	geminiService := service.NewGeminiService(cfg.AI.GeminiAPIKey, "")
	chatService := service.NewChatService(historyService, geminiService)

	// 初始化 Handler 层
	chatHandler := handler.NewChatHandler(chatService, geminiService)
	attachmentHandler := handler.NewAttachmentHandler(chatService)

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建 Gin 引擎
	router := gin.New()

	// 全局中间件
	router.Use(gin.Recovery())                // 恢复 panic
	router.Use(middleware.LoggerMiddleware()) // 请求日志
	router.Use(middleware.CORSMiddleware(nil))

	// 注册路由
	registerRoutes(router, cfg, jwtService, sessionManager, redisCache, chatHandler, attachmentHandler)

	// 创建 HTTP 服务器
	// 模型调用是同步阻塞的，写超时要覆盖一次完整的回合
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
	}

	// 在 goroutine 中启动服务器
	go func() {
		log.Printf("Server starting on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// 创建关闭上下文，设置超时
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// 停止会话回收
	sessionManager.Stop()

	// 关闭 Redis 连接
	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			log.Printf("Failed to close redis: %v", err)
		}
	}

	log.Println("Server exited")
}

// initDatabase 初始化数据库连接
func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	// 构建 DSN (Data Source Name)
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		cfg.MySQL.Username,
		cfg.MySQL.Password,
		cfg.MySQL.Host,
		cfg.MySQL.Port,
		cfg.MySQL.Database,
		cfg.MySQL.Charset,
	)

	// 配置 GORM logger
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.Server.Mode == "release" {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	// 连接数据库
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// 获取底层 sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// 配置连接池
	sqlDB.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MySQL.MaxLifetime) * time.Second)

	// 自动迁移 chat_history 表
	if err := db.AutoMigrate(&model.ChatTurn{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	log.Println("Database connected successfully")
	return db, nil
}

// registerRoutes 注册所有路由
func registerRoutes(
	router *gin.Engine,
	cfg *config.Config,
	jwtService *jwt.JWTService,
	sessionManager *session.Manager,
	redisCache *cache.RedisCache,
	chatHandler *handler.ChatHandler,
	attachmentHandler *handler.AttachmentHandler,
) {
	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 单页前端
	router.StaticFile("/", filepath.Join(cfg.Server.WebDir, "index.html"))

	// API v1 路由组（所有接口都经过匿名会话中间件）
	v1 := router.Group("/api/v1")
	v1.Use(middleware.SessionMiddleware(jwtService, sessionManager))

	chat := v1.Group("/chat")
	{
		chat.GET("/messages", chatHandler.GetMessages)
		// 发送消息额外挂发送限流
		chat.POST("/messages", middleware.RateLimitMiddleware(redisCache), chatHandler.SendMessage)
		chat.DELETE("/messages", chatHandler.ClearMessages)

		chat.POST("/attachment", attachmentHandler.Upload)
		chat.DELETE("/attachment", attachmentHandler.Remove)

		chat.GET("/config", chatHandler.GetConfig)
	}
}
