package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"expirywatch/middleware"
	"expirywatch/pkg/logger"
	"expirywatch/providers"
	"expirywatch/routes"
	"expirywatch/services"
	"expirywatch/types"
	"expirywatch/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// 辅助函数
func getPort(defaultPort string) string {
	port := defaultPort
	if envPort := os.Getenv("PORT"); envPort != "" {
		port = envPort
	}
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

// envInt 读取整型环境变量，解析失败时使用默认值
func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

// envDuration 读取时长环境变量，支持"5s"风格
func envDuration(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if v, err := time.ParseDuration(raw); err == nil {
			return v
		}
	}
	return fallback
}

// checkFlags check命令的调优参数，零值表示未显式指定
type checkFlags struct {
	file        string
	output      string
	days        int
	maxAttempts int
	timeout     time.Duration
	retryDelay  time.Duration
	workers     int
}

// loadResolverConfig 从环境变量组装解析引擎配置
func loadResolverConfig() types.ResolverConfig {
	cfg := types.DefaultResolverConfig()
	cfg.WarningDays = envInt("WARNING_DAYS", cfg.WarningDays)
	cfg.MaxAttempts = envInt("MAX_ATTEMPTS", cfg.MaxAttempts)
	cfg.Timeout = envDuration("WHOIS_TIMEOUT", cfg.Timeout)
	cfg.RetryDelay = envDuration("RETRY_DELAY", cfg.RetryDelay)
	cfg.Workers = envInt("WORKERS", cfg.Workers)
	return cfg
}

// applyFlags 命令行参数覆盖环境变量配置
func applyFlags(cfg types.ResolverConfig, flags checkFlags) types.ResolverConfig {
	if flags.days > 0 {
		cfg.WarningDays = flags.days
	}
	if flags.maxAttempts > 0 {
		cfg.MaxAttempts = flags.maxAttempts
	}
	if flags.timeout > 0 {
		cfg.Timeout = flags.timeout
	}
	if flags.retryDelay > 0 {
		cfg.RetryDelay = flags.retryDelay
	}
	if flags.workers > 0 {
		cfg.Workers = flags.workers
	}
	return cfg
}

// buildResolver 组装解析引擎及其依赖
func buildResolver(cfg types.ResolverConfig) *services.Resolver {
	policy := services.NewServerPolicy()
	executor := providers.NewWhoisExecutor(2, 4) // 全局出站节流: 2qps
	rdap := providers.NewRDAPClient(10 * time.Second)
	return services.NewResolver(policy, executor, rdap, cfg)
}

// 从环境变量中读取CORS配置
func getCorsConfig() cors.Config {
	log := logger.Module("CORS")

	allowedOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		allowedOrigins = strings.Split(origins, ",")
		for i := range allowedOrigins {
			allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
		}
	}

	allowedMethods := []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	if methods := os.Getenv("CORS_ALLOWED_METHODS"); methods != "" {
		allowedMethods = strings.Split(methods, ",")
	}

	allowedHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-Request-ID"}
	if headers := os.Getenv("CORS_ALLOWED_HEADERS"); headers != "" {
		allowedHeaders = strings.Split(headers, ",")
	}

	maxAge := 12 * time.Hour
	if ageStr := os.Getenv("CORS_MAX_AGE"); ageStr != "" {
		if age, err := time.ParseDuration(ageStr); err == nil {
			maxAge = age
		}
	}

	log.Infof("CORS配置: 允许的源=%v", allowedOrigins)

	return cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     allowedMethods,
		AllowHeaders:     allowedHeaders,
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           maxAge,
	}
}

// newRedisClient 创建Redis客户端并确认连通，失败返回nil（Redis为可选依赖）
func newRedisClient() *redis.Client {
	log := logger.Module("Redis")

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		log.Warn("未配置REDIS_ADDR，限流与令牌防重放功能降级")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         redisAddr,
		Password:     os.Getenv("REDIS_PASSWORD"),
		DB:           0,
		PoolSize:     100,
		MinIdleConns: 10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
		IdleTimeout:  5 * time.Minute,
		MaxConnAge:   30 * time.Minute,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warnf("Redis连接失败: %v，限流与令牌防重放功能降级", err)
		rdb.Close()
		return nil
	}

	return rdb
}

// runCheck 批量检查模式：读取域名清单，解析后写出CSV报告
func runCheck(flags checkFlags) error {
	log := logger.Module("Check")
	cfg := applyFlags(loadResolverConfig(), flags)

	inputFile := flags.file
	if inputFile == "" {
		inputFile = os.Getenv("DOMAINS_FILE")
	}
	if inputFile == "" {
		inputFile = "domains.txt"
	}

	domains, err := utils.LoadDomains(inputFile)
	if err != nil {
		return fmt.Errorf("读取域名清单失败: %w", err)
	}
	log.Infof("已加载 %d 个域名: %s", len(domains), inputFile)

	resolver := buildResolver(cfg)
	runner := services.NewBatchRunner(resolver, cfg.Workers)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	results := runner.Run(ctx, domains)
	log.Infof("解析完成: %d 个域名，耗时 %v", len(results), time.Since(start))

	if err := utils.WriteCSV(flags.output, results); err != nil {
		return fmt.Errorf("写出报告失败: %w", err)
	}
	log.Infof("报告已写出: %s", flags.output)

	return nil
}

// runServe HTTP服务模式
func runServe() error {
	log := logger.Module("Server")
	log.Infof("启动服务器，版本：%s，环境：%s", os.Getenv("APP_VERSION"), os.Getenv("APP_ENV"))

	cfg := loadResolverConfig()
	rdb := newRedisClient()

	resolver := buildResolver(cfg)
	serviceContainer := services.NewServiceContainer(rdb, resolver, cfg)

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorHandler())
	r.Use(cors.New(getCorsConfig()))

	// 注入服务组件到上下文
	r.Use(middleware.ServiceMiddleware(serviceContainer))

	routes.RegisterAPIRoutes(r, serviceContainer)

	port := getPort("8080")
	srv := &http.Server{
		Addr:           port,
		Handler:        r,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	// 优雅关闭
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("正在关闭服务器...")

		serviceContainer.Shutdown()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Fatalf("服务器被强制关闭: %v", err)
		}

		log.Info("服务器已安全关闭")
	}()

	log.Infof("服务器启动在端口%s，环境：%s", port, os.Getenv("APP_ENV"))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("服务器启动失败: %w", err)
	}
	return nil
}

func main() {
	// .env是可选的，环境变量可以由运行环境直接提供
	_ = godotenv.Load()

	if err := logger.Init(logger.DeriveEnvironment(), os.Getenv("LOG_FILE")); err != nil {
		fmt.Fprintf(os.Stderr, "日志初始化失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var flags checkFlags

	rootCmd := &cobra.Command{
		Use:   "expirywatch",
		Short: "域名注册到期监控工具",
		Long:  "通过WHOIS/RDAP查询域名注册到期时间，支持批量检查与HTTP服务两种模式",
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "批量检查域名清单并生成CSV报告",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(flags)
		},
	}
	checkCmd.Flags().StringVarP(&flags.file, "file", "f", "", "域名清单文件，每行一个域名 (默认 domains.txt)")
	checkCmd.Flags().StringVarP(&flags.output, "output", "o", "report.csv", "CSV报告输出路径")
	checkCmd.Flags().IntVar(&flags.days, "days", 0, "到期预警天数 (默认 50)")
	checkCmd.Flags().IntVar(&flags.maxAttempts, "max-attempts", 0, "单域名最大重试轮数 (默认 3)")
	checkCmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "单次WHOIS查询超时 (默认 5s)")
	checkCmd.Flags().DurationVar(&flags.retryDelay, "retry-delay", 0, "重试间隔 (默认 2s)")
	checkCmd.Flags().IntVar(&flags.workers, "workers", 0, "并发工作者数量 (默认 4)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "启动HTTP API服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	rootCmd.AddCommand(checkCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Module("Main").Errorf("执行失败: %v", err)
		os.Exit(1)
	}
}
